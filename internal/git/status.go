package git

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	// branchHeaderRegex matches the `## ` line of porcelain v1 -b output:
	// branch, optional ...upstream, optional bracketed tracking clause.
	// Searched, not anchored at the end, so dotted branch names degrade to
	// a prefix instead of losing the whole header.
	branchHeaderRegex = regexp.MustCompile(`^## ([^.]+)(?:\.\.\.([^\s\[]+))?\s*(?:\[([^\]]+)\])?`)

	aheadRegex  = regexp.MustCompile(`ahead (\d+)`)
	behindRegex = regexp.MustCompile(`behind (\d+)`)
)

// Status returns the current working-tree snapshot.
func (s *Service) Status() (Status, error) {
	out, err := s.query("status", "status", "--porcelain=v1", "-b")
	if err != nil {
		return Status{}, err
	}
	return ParseStatus(out), nil
}

// HasUncommittedChanges reports whether the working tree has tracked
// modifications, staged or not.
func (s *Service) HasUncommittedChanges() bool {
	st, err := s.Status()
	return err == nil && st.HasChanges()
}

// HasStagedChanges reports whether anything is staged for commit.
func (s *Service) HasStagedChanges() bool {
	st, err := s.Status()
	return err == nil && st.HasStagedChanges()
}

// HasUnstagedChanges reports whether tracked files carry unstaged edits.
func (s *Service) HasUnstagedChanges() bool {
	st, err := s.Status()
	return err == nil && st.HasUnstagedChanges()
}

// ParseStatus parses `git status --porcelain=v1 -b` output. Lines it cannot
// interpret are dropped; a snapshot is always returned.
func ParseStatus(raw string) Status {
	var st Status
	for line := range strings.SplitSeq(raw, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "## ") {
			parseBranchHeader(line, &st)
			continue
		}
		if fc, ok := parseFileChange(line); ok {
			st.Changes = append(st.Changes, fc)
		}
	}
	return st
}

func parseBranchHeader(line string, st *Status) {
	m := branchHeaderRegex.FindStringSubmatch(line)
	if m == nil {
		return
	}
	st.Branch = strings.TrimSpace(m[1])
	st.Upstream = m[2]
	if m[3] == "" {
		return
	}
	// ahead and behind are matched independently: either, both, or neither
	// may appear, and `[gone]` carries none.
	if am := aheadRegex.FindStringSubmatch(m[3]); am != nil {
		st.Ahead, _ = strconv.Atoi(am[1])
	}
	if bm := behindRegex.FindStringSubmatch(m[3]); bm != nil {
		st.Behind, _ = strconv.Atoi(bm[1])
	}
}

// parseFileChange interprets one porcelain v1 entry: two flag chars, a
// space, then the path. The ?? and !! sentinels are checked before the
// letter flags so untracked files never read as conflicts or additions.
func parseFileChange(line string) (FileChange, bool) {
	if len(line) < 3 {
		return FileChange{}, false
	}
	xy := line[:2]
	var path string
	if len(line) > 3 {
		path = line[3:]
	}
	switch xy {
	case "??":
		return FileChange{Path: path, Code: StatusUntracked}, true
	case "!!":
		return FileChange{Path: path, Code: StatusIgnored}, true
	}
	code, ok := changeCode(xy[0], xy[1])
	if !ok {
		return FileChange{}, false
	}
	fc := FileChange{
		Path:   path,
		Code:   code,
		Staged: stagedFlag(xy[0]),
	}
	if code == StatusRenamed || code == StatusCopied {
		if old, now, found := strings.Cut(path, " -> "); found {
			fc.OldPath, fc.Path = old, now
		}
	}
	return fc, true
}

// changeCode maps the index/worktree letter pair to a code. Conflicts win:
// U anywhere, or the AA/DD both-sides pairs. Unknown pairs are dropped.
func changeCode(index, work byte) (StatusCode, bool) {
	switch {
	case index == 'U' || work == 'U' || (index == 'A' && work == 'A') || (index == 'D' && work == 'D'):
		return StatusConflicted, true
	case index == 'R' || work == 'R':
		return StatusRenamed, true
	case index == 'C' || work == 'C':
		return StatusCopied, true
	case index == 'A':
		return StatusAdded, true
	case index == 'D' || work == 'D':
		return StatusDeleted, true
	case index == 'M' || work == 'M':
		return StatusModified, true
	}
	return 0, false
}

func stagedFlag(index byte) bool {
	switch index {
	case 'A', 'M', 'D', 'R', 'C':
		return true
	}
	return false
}
