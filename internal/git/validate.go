package git

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// IsValidRepository reports whether path is structurally a repository: it
// contains a .git entry (directory, or redirect file for worktrees and
// submodules), or is itself a bare repository with HEAD, objects, and refs
// all present. No git process is spawned.
func IsValidRepository(path string) bool {
	if path == "" {
		return false
	}
	if _, err := os.Stat(filepath.Join(path, ".git")); err == nil {
		return true
	}
	return isBareLayout(path)
}

func isBareLayout(path string) bool {
	for _, entry := range []string{"HEAD", "objects", "refs"} {
		if _, err := os.Stat(filepath.Join(path, entry)); err != nil {
			return false
		}
	}
	return true
}

// RepoInfo describes the layout of the configured repository.
func (s *Service) RepoInfo() (RepoInfo, error) {
	path := s.RepoPath()
	if path == "" {
		return RepoInfo{}, ErrNoRepository
	}
	return ReadRepoInfo(path)
}

// ReadRepoInfo inspects the repository layout at path: where the git
// directory actually lives, the current HEAD ref, and whether the layout
// is bare.
func ReadRepoInfo(path string) (RepoInfo, error) {
	info := RepoInfo{Path: path}
	gitPath := filepath.Join(path, ".git")
	fi, err := os.Stat(gitPath)
	switch {
	case err == nil && fi.IsDir():
		info.GitDir = gitPath
	case err == nil:
		dir, err := resolveGitDirFile(gitPath)
		if err != nil {
			return RepoInfo{}, err
		}
		info.GitDir = dir
	case isBareLayout(path):
		info.GitDir = path
		info.IsBare = true
	default:
		return RepoInfo{}, fmt.Errorf("read repository info %s: %w", path, ErrNotARepository)
	}
	info.Head = readHead(info.GitDir)
	return info, nil
}

// resolveGitDirFile follows the `gitdir: <target>` redirect that worktrees
// and submodules write into their .git file. Relative targets resolve
// against the file's directory.
func resolveGitDirFile(gitFile string) (string, error) {
	data, err := os.ReadFile(gitFile)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", gitFile, err)
	}
	line := strings.TrimSpace(string(data))
	target, ok := strings.CutPrefix(line, "gitdir:")
	if !ok {
		return "", fmt.Errorf("%s: missing gitdir redirect", gitFile)
	}
	target = strings.TrimSpace(target)
	if !filepath.IsAbs(target) {
		target = filepath.Join(filepath.Dir(gitFile), target)
	}
	return filepath.Clean(target), nil
}

// readHead returns HEAD's content with the symbolic "ref: " prefix
// stripped, empty when unreadable.
func readHead(gitDir string) string {
	data, err := os.ReadFile(filepath.Join(gitDir, "HEAD"))
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(strings.TrimSpace(string(data)), "ref: ")
}
