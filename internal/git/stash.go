package git

import (
	"regexp"
	"strings"
)

// stashFormat lists stashes as reflog selector, creation epoch, subject.
const stashFormat = "%gd|%ct|%gs"

var stashIndexRegex = regexp.MustCompile(`stash@\{(\d+)\}`)

// Stashes lists the stash stack, most recent first.
func (s *Service) Stashes() ([]Stash, error) {
	out, err := s.query("stash-list", "stash", "list", "--format="+stashFormat)
	if err != nil {
		return nil, err
	}
	return ParseStashes(out), nil
}

// ParseStashes parses `stash list` records in stashFormat. The branch is
// best-effort, recovered from the conventional "WIP on X:" and "On X:"
// message shapes; other shapes leave it empty.
func ParseStashes(raw string) []Stash {
	var stashes []Stash
	for line := range strings.SplitSeq(raw, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if line == "" {
			continue
		}
		fields := strings.SplitN(line, "|", 3)
		if len(fields) < 3 {
			continue
		}
		st := Stash{
			Name:      fields[0],
			Message:   fields[2],
			CreatedAt: parseEpoch(fields[1]),
		}
		if m := stashIndexRegex.FindStringSubmatch(fields[0]); m != nil {
			st.Index = atoiSafe(m[1])
		}
		st.Branch = stashBranch(fields[2])
		stashes = append(stashes, st)
	}
	return stashes
}

// stashBranch extracts the branch from the message git composes for
// unnamed stashes: "WIP on <branch>: <hash> <subject>" or, with a custom
// message, "On <branch>: <message>".
func stashBranch(message string) string {
	rest, ok := strings.CutPrefix(message, "WIP on ")
	if !ok {
		rest, ok = strings.CutPrefix(message, "On ")
	}
	if !ok {
		return ""
	}
	branch, _, found := strings.Cut(rest, ":")
	if !found {
		return ""
	}
	return strings.TrimSpace(branch)
}
