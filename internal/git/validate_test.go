package git

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func newWorkTree(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".git", "HEAD"), "ref: refs/heads/main\n")
	return dir
}

func newBareRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "HEAD"), "ref: refs/heads/main\n")
	if err := os.Mkdir(filepath.Join(dir, "objects"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.Mkdir(filepath.Join(dir, "refs"), 0o755); err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestIsValidRepository(t *testing.T) {
	t.Parallel()

	if !IsValidRepository(newWorkTree(t)) {
		t.Error("work tree with .git dir rejected")
	}
	if !IsValidRepository(newBareRepo(t)) {
		t.Error("bare layout rejected")
	}
	if IsValidRepository(t.TempDir()) {
		t.Error("plain directory accepted")
	}
	if IsValidRepository("") {
		t.Error("empty path accepted")
	}

	// HEAD alone is not enough for a bare layout
	partial := t.TempDir()
	writeFile(t, filepath.Join(partial, "HEAD"), "ref: refs/heads/main\n")
	if IsValidRepository(partial) {
		t.Error("partial bare layout accepted")
	}
}

func TestReadRepoInfoWorkTree(t *testing.T) {
	t.Parallel()

	dir := newWorkTree(t)
	info, err := ReadRepoInfo(dir)
	if err != nil {
		t.Fatalf("ReadRepoInfo: %v", err)
	}
	if info.GitDir != filepath.Join(dir, ".git") {
		t.Errorf("GitDir = %q", info.GitDir)
	}
	if info.IsBare {
		t.Error("IsBare = true for work tree")
	}
	if info.Head != "refs/heads/main" {
		t.Errorf("Head = %q, want refs/heads/main", info.Head)
	}
}

func TestReadRepoInfoBare(t *testing.T) {
	t.Parallel()

	dir := newBareRepo(t)
	info, err := ReadRepoInfo(dir)
	if err != nil {
		t.Fatalf("ReadRepoInfo: %v", err)
	}
	if !info.IsBare {
		t.Error("IsBare = false for bare layout")
	}
	if info.GitDir != dir {
		t.Errorf("GitDir = %q, want %q", info.GitDir, dir)
	}
	if info.Head != "refs/heads/main" {
		t.Errorf("Head = %q", info.Head)
	}
}

func TestReadRepoInfoGitFileRedirect(t *testing.T) {
	t.Parallel()

	t.Run("relative_target", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		real := filepath.Join(dir, "repo", ".git", "worktrees", "wt")
		writeFile(t, filepath.Join(real, "HEAD"), "ref: refs/heads/topic\n")
		wt := filepath.Join(dir, "wt")
		writeFile(t, filepath.Join(wt, ".git"), "gitdir: ../repo/.git/worktrees/wt\n")

		info, err := ReadRepoInfo(wt)
		if err != nil {
			t.Fatalf("ReadRepoInfo: %v", err)
		}
		if info.GitDir != real {
			t.Errorf("GitDir = %q, want %q", info.GitDir, real)
		}
		if info.Head != "refs/heads/topic" {
			t.Errorf("Head = %q", info.Head)
		}
	})

	t.Run("absolute_target", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		real := filepath.Join(dir, "gitdir")
		writeFile(t, filepath.Join(real, "HEAD"), "ref: refs/heads/main\n")
		wt := filepath.Join(dir, "wt")
		writeFile(t, filepath.Join(wt, ".git"), "gitdir: "+real+"\n")

		info, err := ReadRepoInfo(wt)
		if err != nil {
			t.Fatalf("ReadRepoInfo: %v", err)
		}
		if info.GitDir != real {
			t.Errorf("GitDir = %q, want %q", info.GitDir, real)
		}
	})

	t.Run("missing_redirect_prefix", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, ".git"), "not a redirect\n")
		if _, err := ReadRepoInfo(dir); err == nil {
			t.Fatal("expected error for malformed .git file")
		}
	})
}

func TestReadRepoInfoNotARepository(t *testing.T) {
	t.Parallel()

	_, err := ReadRepoInfo(t.TempDir())
	if !errors.Is(err, ErrNotARepository) {
		t.Fatalf("err = %v, want ErrNotARepository", err)
	}
}

func TestRepoInfoUnbound(t *testing.T) {
	t.Parallel()

	svc := New()
	if _, err := svc.RepoInfo(); !errors.Is(err, ErrNoRepository) {
		t.Fatalf("err = %v, want ErrNoRepository", err)
	}
}

func TestOpenRequiresRepository(t *testing.T) {
	t.Parallel()

	if _, err := Open(t.TempDir()); !errors.Is(err, ErrNotARepository) {
		t.Fatalf("err = %v, want ErrNotARepository", err)
	}

	dir := newWorkTree(t)
	svc, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	abs, _ := filepath.Abs(dir)
	if got := svc.RepoPath(); got != abs {
		t.Errorf("RepoPath = %q, want %q", got, abs)
	}
}
