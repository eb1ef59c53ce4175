package git

import (
	"fmt"
	"path/filepath"
	"strings"
)

// reject fails an operation before dispatch, for input the engine already
// knows git would refuse. It feeds the same last-error cache as a failed
// child.
func (s *Service) reject(err error) Outcome {
	s.setLastError(err.Error())
	return Outcome{Kind: KindFailed, ExitCode: -1, Error: err.Error()}
}

// Init creates a repository at path and binds the Service to it.
func (s *Service) Init(path string, bare bool) Outcome {
	abs, err := filepath.Abs(path)
	if err != nil {
		return s.reject(fmt.Errorf("init: %w", err))
	}
	args := []string{"init"}
	if bare {
		args = append(args, "--bare")
	}
	args = append(args, abs)
	outcome := s.executeAt("init", "", s.timeout, nil, args)
	if outcome.Success() {
		s.setPath(abs)
	}
	return outcome
}

// Clone clones url into path and binds the Service to it. Progress lines
// from the child feed the progress callback when one is registered.
func (s *Service) Clone(url, path string) Outcome {
	abs, err := filepath.Abs(path)
	if err != nil {
		return s.reject(fmt.Errorf("clone: %w", err))
	}
	outcome := s.executeAt("clone", "", s.networkTimeout, s.progressTee("clone"),
		[]string{"clone", "--progress", url, abs})
	if outcome.Success() {
		s.setPath(abs)
	}
	return outcome
}

// Add stages the given paths.
func (s *Service) Add(paths ...string) Outcome {
	if len(paths) == 0 {
		return s.reject(fmt.Errorf("add: no paths given"))
	}
	return s.execute("add", append([]string{"add", "--"}, paths...)...)
}

// AddAll stages every change under the repository root.
func (s *Service) AddAll() Outcome {
	return s.execute("add-all", "add", ".")
}

// Remove deletes paths from the index, and from the working tree unless
// cached is set.
func (s *Service) Remove(paths []string, cached bool) Outcome {
	if len(paths) == 0 {
		return s.reject(fmt.Errorf("remove: no paths given"))
	}
	args := []string{"rm"}
	if cached {
		args = append(args, "--cached")
	}
	args = append(args, "--")
	args = append(args, paths...)
	return s.execute("remove", args...)
}

// Unstage removes paths from the index, keeping working-tree content.
func (s *Service) Unstage(paths ...string) Outcome {
	if len(paths) == 0 {
		return s.reject(fmt.Errorf("unstage: no paths given"))
	}
	return s.execute("unstage", append([]string{"reset", "HEAD", "--"}, paths...)...)
}

// ResetHard discards all local changes, moving HEAD to ref when given.
func (s *Service) ResetHard(ref string) Outcome {
	args := []string{"reset", "--hard"}
	if ref != "" {
		args = append(args, ref)
	}
	return s.execute("reset-hard", args...)
}

// Commit records the staged changes. amend rewrites the current tip
// instead of appending.
func (s *Service) Commit(message string, amend bool) Outcome {
	if strings.TrimSpace(message) == "" {
		return s.reject(ErrEmptyCommitMessage)
	}
	args := []string{"commit", "-m", message}
	if amend {
		args = append(args, "--amend")
	}
	return s.execute("commit", args...)
}

// CommitFiles commits only the given paths, regardless of what else is
// staged.
func (s *Service) CommitFiles(message string, paths ...string) Outcome {
	if strings.TrimSpace(message) == "" {
		return s.reject(ErrEmptyCommitMessage)
	}
	if len(paths) == 0 {
		return s.reject(fmt.Errorf("commit files: no paths given"))
	}
	args := append([]string{"commit", "-m", message, "--"}, paths...)
	return s.execute("commit-files", args...)
}

// CreateBranch creates a branch at startPoint (HEAD when empty).
func (s *Service) CreateBranch(name, startPoint string) Outcome {
	if !IsValidBranchName(name) {
		return s.reject(fmt.Errorf("%w: %q", ErrInvalidBranchName, name))
	}
	args := []string{"branch", name}
	if startPoint != "" {
		args = append(args, startPoint)
	}
	return s.execute("create-branch", args...)
}

// DeleteBranch deletes a branch; force deletes even when unmerged.
func (s *Service) DeleteBranch(name string, force bool) Outcome {
	flag := "-d"
	if force {
		flag = "-D"
	}
	return s.execute("delete-branch", "branch", flag, name)
}

// RenameBranch renames oldName to newName.
func (s *Service) RenameBranch(oldName, newName string) Outcome {
	if !IsValidBranchName(newName) {
		return s.reject(fmt.Errorf("%w: %q", ErrInvalidBranchName, newName))
	}
	return s.execute("rename-branch", "branch", "-m", oldName, newName)
}

// Checkout switches the working tree to the named branch or revision.
func (s *Service) Checkout(name string) Outcome {
	return s.execute("checkout", "checkout", name)
}

// Merge merges branch into the current branch. noFF forces a merge commit
// even for fast-forward merges.
func (s *Service) Merge(branch string, noFF bool) Outcome {
	args := []string{"merge"}
	if noFF {
		args = append(args, "--no-ff")
	}
	args = append(args, branch)
	return s.execute("merge", args...)
}

// Rebase replays the current branch onto branch.
func (s *Service) Rebase(branch string) Outcome {
	return s.execute("rebase", "rebase", branch)
}

// AddRemote registers a remote.
func (s *Service) AddRemote(name, url string) Outcome {
	return s.execute("add-remote", "remote", "add", name, url)
}

// RemoveRemote deletes a remote and its tracking branches.
func (s *Service) RemoveRemote(name string) Outcome {
	return s.execute("remove-remote", "remote", "remove", name)
}

// RenameRemote renames a remote.
func (s *Service) RenameRemote(oldName, newName string) Outcome {
	return s.execute("rename-remote", "remote", "rename", oldName, newName)
}

// Fetch downloads refs from remote (all configured remotes when empty).
func (s *Service) Fetch(remote string) Outcome {
	args := []string{"fetch", "--progress"}
	if remote != "" {
		args = append(args, remote)
	}
	return s.executeNetwork("fetch", args...)
}

// Pull fetches from remote and integrates into the current branch.
func (s *Service) Pull(remote, branch string) Outcome {
	args := []string{"pull", "--progress"}
	if remote != "" {
		args = append(args, remote)
		if branch != "" {
			args = append(args, branch)
		}
	}
	return s.executeNetwork("pull", args...)
}

// Push uploads the branch to remote; force overwrites diverged history.
func (s *Service) Push(remote, branch string, force bool) Outcome {
	args := []string{"push", "--progress"}
	if force {
		args = append(args, "--force")
	}
	if remote != "" {
		args = append(args, remote)
		if branch != "" {
			args = append(args, branch)
		}
	}
	return s.executeNetwork("push", args...)
}

// CreateTag creates a tag at target (HEAD when empty); a non-empty message
// makes it annotated.
func (s *Service) CreateTag(name, message, target string) Outcome {
	var args []string
	if message != "" {
		args = []string{"tag", "-a", name, "-m", message}
	} else {
		args = []string{"tag", name}
	}
	if target != "" {
		args = append(args, target)
	}
	return s.execute("create-tag", args...)
}

// DeleteTag deletes a local tag.
func (s *Service) DeleteTag(name string) Outcome {
	return s.execute("delete-tag", "tag", "-d", name)
}

// PushTags uploads all local tags to remote.
func (s *Service) PushTags(remote string) Outcome {
	args := []string{"push", "--progress"}
	if remote != "" {
		args = append(args, remote)
	}
	args = append(args, "--tags")
	return s.executeNetwork("push-tags", args...)
}

// StashSave stores the working-tree state on the stash stack.
func (s *Service) StashSave(message string, includeUntracked bool) Outcome {
	args := []string{"stash", "push"}
	if includeUntracked {
		args = append(args, "-u")
	}
	if message != "" {
		args = append(args, "-m", message)
	}
	return s.execute("stash-save", args...)
}

// StashPop applies stash entry index and drops it on success.
func (s *Service) StashPop(index int) Outcome {
	return s.execute("stash-pop", "stash", "pop", stashRef(index))
}

// StashApply applies stash entry index, keeping it on the stack.
func (s *Service) StashApply(index int) Outcome {
	return s.execute("stash-apply", "stash", "apply", stashRef(index))
}

// StashDrop removes stash entry index.
func (s *Service) StashDrop(index int) Outcome {
	return s.execute("stash-drop", "stash", "drop", stashRef(index))
}

// StashClear removes every stash entry.
func (s *Service) StashClear() Outcome {
	return s.execute("stash-clear", "stash", "clear")
}

func stashRef(index int) string {
	return fmt.Sprintf("stash@{%d}", index)
}
