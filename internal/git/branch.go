package git

import (
	"strconv"
	"strings"
	"time"
)

// branchFormat drives for-each-ref over branch refs: short name, short
// tip hash, committer date, upstream, tracking annotation, tip subject.
const branchFormat = "%(refname:short)|%(objectname:short)|%(committerdate:iso8601)|%(upstream:short)|%(upstream:track)|%(subject)"

const isoDateLayout = "2006-01-02 15:04:05 -0700"

// invalidBranchSubstrings are sequences git's ref syntax forbids.
var invalidBranchSubstrings = []string{
	" ", "~", "^", ":", "?", "*", "[", "\\", "..", "@{", "//",
}

// Branches lists local branches, plus remote-tracking branches when
// includeRemote is set. The current branch is flagged.
func (s *Service) Branches(includeRemote bool) ([]Branch, error) {
	args := []string{"for-each-ref", "--format=" + branchFormat, "refs/heads"}
	if includeRemote {
		args = append(args, "refs/remotes")
	}
	out, err := s.query("branches", args...)
	if err != nil {
		return nil, err
	}
	current, _ := s.CurrentBranch()
	var remoteNames []string
	if includeRemote {
		if remotes, err := s.Remotes(); err == nil {
			for _, r := range remotes {
				remoteNames = append(remoteNames, r.Name)
			}
		}
	}
	return ParseBranches(out, current, remoteNames), nil
}

// CurrentBranch resolves the checked-out branch name, trying the modern
// plumbing first and degrading through older commands. A detached HEAD
// reports "HEAD detached at <short-hash>"; when nothing resolves the name
// is "unknown" alongside the last probe's error.
func (s *Service) CurrentBranch() (string, error) {
	if out, err := s.query("current-branch", "branch", "--show-current"); err == nil {
		if name := strings.TrimSpace(out); name != "" {
			return name, nil
		}
	}
	if out, err := s.query("current-branch", "symbolic-ref", "--short", "HEAD"); err == nil {
		if name := strings.TrimSpace(out); name != "" {
			return name, nil
		}
	}
	out, err := s.query("current-branch", "rev-parse", "--short", "HEAD")
	if hash := strings.TrimSpace(out); err == nil && hash != "" {
		return "HEAD detached at " + hash, nil
	}
	return "unknown", err
}

// ParseBranches parses for-each-ref records in branchFormat. current marks
// the matching local branch; remotes are the configured remote names used
// to recognize remote-tracking refs by their first path segment.
func ParseBranches(raw, current string, remotes []string) []Branch {
	var branches []Branch
	for line := range strings.SplitSeq(raw, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if line == "" {
			continue
		}
		if b, ok := parseBranchRecord(line, current, remotes); ok {
			branches = append(branches, b)
		}
	}
	return branches
}

func parseBranchRecord(line, current string, remotes []string) (Branch, bool) {
	fields := strings.Split(line, "|")
	if len(fields) < 6 {
		return Branch{}, false
	}
	name := strings.TrimSpace(fields[0])
	if name == "" {
		return Branch{}, false
	}
	b := Branch{
		Name:         name,
		IsRemote:     isRemoteName(name, remotes),
		Upstream:     strings.TrimSpace(fields[3]),
		LastHash:     strings.TrimSpace(fields[1]),
		LastSubject:  strings.Join(fields[5:], "|"),
		LastCommitAt: parseISODate(fields[2]),
	}
	if b.IsRemote {
		b.FullName = "refs/remotes/" + name
	} else {
		b.FullName = "refs/heads/" + name
		b.IsCurrent = name == current
	}
	if track := fields[4]; track != "" {
		if m := aheadRegex.FindStringSubmatch(track); m != nil {
			b.Ahead = atoiSafe(m[1])
		}
		if m := behindRegex.FindStringSubmatch(track); m != nil {
			b.Behind = atoiSafe(m[1])
		}
	}
	return b, true
}

// isRemoteName reports whether a short ref name denotes a remote-tracking
// branch: an explicit remotes/ prefix, or a first path segment naming a
// configured remote. A bare "contains slash" test would misread local
// branches like feature/x.
func isRemoteName(name string, remotes []string) bool {
	if strings.HasPrefix(name, "remotes/") {
		return true
	}
	head, _, found := strings.Cut(name, "/")
	if !found {
		return false
	}
	for _, r := range remotes {
		if head == r {
			return true
		}
	}
	return false
}

// parseISODate reads git's iso8601 date form, falling back to the current
// time so a malformed date never drops the record.
func parseISODate(field string) time.Time {
	t, err := time.Parse(isoDateLayout, strings.TrimSpace(field))
	if err != nil {
		return time.Now()
	}
	return t
}

func atoiSafe(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

// IsValidBranchName reports whether name satisfies git's ref syntax: no
// forbidden sequences, no leading or trailing dot or slash.
func IsValidBranchName(name string) bool {
	if name == "" {
		return false
	}
	if name[0] == '.' || name[len(name)-1] == '.' ||
		name[0] == '/' || name[len(name)-1] == '/' {
		return false
	}
	for _, bad := range invalidBranchSubstrings {
		if strings.Contains(name, bad) {
			return false
		}
	}
	return true
}

// SanitizeBranchName rewrites name into a valid branch name: forbidden
// sequences become dashes, leading and trailing dots and slashes are
// stripped.
func SanitizeBranchName(name string) string {
	out := name
	for _, bad := range invalidBranchSubstrings {
		out = strings.ReplaceAll(out, bad, "-")
	}
	return strings.Trim(out, "./")
}

// ShortBranchName strips the ref namespace or remote prefix from a branch
// name.
func ShortBranchName(full string) string {
	for _, prefix := range []string{"refs/heads/", "refs/remotes/", "origin/"} {
		if rest, ok := strings.CutPrefix(full, prefix); ok {
			return rest
		}
	}
	return full
}
