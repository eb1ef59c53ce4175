package git

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// hunkHeaderRegex extracts the four range integers of a hunk sentinel.
// The comma-count groups are optional: git omits them for single-line
// ranges, where the count is 1.
var hunkHeaderRegex = regexp.MustCompile(`^@@ -(\d+)(?:,(\d+))? \+(\d+)(?:,(\d+))? @@(.*)$`)

// envelopePrefixes are the unified-diff envelope lines. They are tagged
// Header and never advance the running line counters.
var envelopePrefixes = []string{
	"diff ", "index ", "+++", "---",
	"new file", "deleted file",
	"rename from", "rename to", "similarity",
	"old mode", "new mode",
	"Binary files", "GIT binary patch",
}

// Diff returns the parsed changes of one file: worktree against index, or
// index against HEAD when staged is set. An untracked file has no diff
// output, so its content is synthesized against the empty file.
func (s *Service) Diff(path string, staged bool) (Diff, error) {
	out, err := s.query("diff", diffArgs(staged, "", "", path)...)
	if err != nil {
		return Diff{}, err
	}
	if strings.TrimSpace(out) == "" && !staged && !s.isTracked(path) {
		return s.untrackedDiff(path)
	}
	diffs := ParseDiff(out)
	if len(diffs) == 0 {
		return Diff{Path: path}, nil
	}
	return diffs[0], nil
}

// DiffAll returns the parsed changes of every tracked file. Untracked
// files are not listed; callers walk the status snapshot for those.
func (s *Service) DiffAll(staged bool) ([]Diff, error) {
	out, err := s.query("diff", diffArgs(staged, "", "", "")...)
	if err != nil {
		return nil, err
	}
	return ParseDiff(out), nil
}

// CommitDiff returns the changes a commit introduced.
func (s *Service) CommitDiff(hash string) ([]Diff, error) {
	out, err := s.query("show", "show", "--format=", hash)
	if err != nil {
		return nil, err
	}
	return ParseDiff(out), nil
}

// DiffBetween returns the changes between two revisions, optionally
// narrowed to one path.
func (s *Service) DiffBetween(from, to, path string) ([]Diff, error) {
	out, err := s.query("diff", diffArgs(false, from, to, path)...)
	if err != nil {
		return nil, err
	}
	return ParseDiff(out), nil
}

func diffArgs(staged bool, from, to, path string) []string {
	args := []string{"diff"}
	if staged {
		args = append(args, "--cached")
	}
	if from != "" {
		args = append(args, from)
	}
	if to != "" {
		args = append(args, to)
	}
	if path != "" {
		args = append(args, "--", path)
	}
	return args
}

// isTracked is an internal predicate, not a logical operation: it skips
// the dispatch funnel so its expected failure never overwrites LastError.
func (s *Service) isTracked(path string) bool {
	res, err := s.runner.RunTimeout(s.gitPath,
		[]string{"ls-files", "--error-unmatch", "--", path}, s.RepoPath(), s.timeout)
	return err == nil && res.ExitCode == 0
}

// untrackedDiff synthesizes a new-file diff against the empty file, so
// front ends render untracked content exactly like tracked changes.
func (s *Service) untrackedDiff(path string) (Diff, error) {
	data, err := os.ReadFile(filepath.Join(s.RepoPath(), path))
	if err != nil {
		return Diff{}, err
	}
	if looksBinary(data) {
		return Diff{Path: path, IsNew: true, IsBinary: true}, nil
	}
	text, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        nil,
		B:        splitKeepEnds(string(data)),
		FromFile: "/dev/null",
		ToFile:   "b/" + path,
		Context:  3,
	})
	if err != nil {
		return Diff{}, err
	}
	diffs := ParseDiff(text)
	if len(diffs) == 0 {
		return Diff{Path: path, IsNew: true}, nil
	}
	d := diffs[0]
	d.Path = path
	d.IsNew = true
	return d, nil
}

// looksBinary applies git's own heuristic: a NUL byte within the first
// 8000 bytes marks the content binary.
func looksBinary(data []byte) bool {
	n := min(len(data), 8000)
	return bytes.IndexByte(data[:n], 0) >= 0
}

// splitKeepEnds splits text after each newline, keeping the terminators,
// without the phantom trailing line difflib.SplitLines appends.
func splitKeepEnds(text string) []string {
	lines := strings.SplitAfter(text, "\n")
	if n := len(lines); n > 0 && lines[n-1] == "" {
		return lines[:n-1]
	}
	return lines
}

// ParseDiff parses unified diff text into per-file changes. The scan is
// line-oriented and defensive: envelope lines set file flags, hunk
// sentinels open a new hunk with running counters, content lines advance
// them, and anything unrecognized is skipped.
func ParseDiff(raw string) []Diff {
	var (
		diffs   []Diff
		cur     *Diff
		hunk    *Hunk
		oldLine int
		newLine int
	)
	flushHunk := func() {
		if cur != nil && hunk != nil {
			cur.Hunks = append(cur.Hunks, *hunk)
		}
		hunk = nil
	}
	flushFile := func() {
		flushHunk()
		if cur != nil {
			diffs = append(diffs, *cur)
		}
		cur = nil
	}

	for line := range strings.SplitSeq(raw, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "diff --git ") {
			flushFile()
			cur = &Diff{}
			if from, to, ok := diffGitPaths(line); ok {
				cur.Path = to
				if from != to {
					cur.OldPath = from
				}
			}
			continue
		}
		if m := hunkHeaderRegex.FindStringSubmatch(line); m != nil {
			flushHunk()
			if cur == nil {
				cur = &Diff{}
			}
			if cur.IsBinary {
				continue
			}
			hunk = &Hunk{
				Header:   line,
				OldStart: atoiSafe(m[1]),
				OldCount: countOrOne(m[2]),
				NewStart: atoiSafe(m[3]),
				NewCount: countOrOne(m[4]),
			}
			oldLine = hunk.OldStart
			newLine = hunk.NewStart
			continue
		}
		if isEnvelopeLine(line) {
			if cur == nil {
				cur = &Diff{}
			}
			applyEnvelope(cur, line)
			if hunk != nil {
				hunk.Lines = append(hunk.Lines, DiffLine{Kind: LineHeader, Content: line})
			}
			continue
		}
		if hunk == nil || cur == nil || cur.IsBinary {
			continue
		}
		switch line[0] {
		case '+':
			hunk.Lines = append(hunk.Lines, DiffLine{
				Kind:    LineAddition,
				Content: line[1:],
				NewLine: newLine,
			})
			newLine++
		case '-':
			hunk.Lines = append(hunk.Lines, DiffLine{
				Kind:    LineDeletion,
				Content: line[1:],
				OldLine: oldLine,
			})
			oldLine++
		case ' ':
			hunk.Lines = append(hunk.Lines, DiffLine{
				Kind:    LineContext,
				Content: line[1:],
				OldLine: oldLine,
				NewLine: newLine,
			})
			oldLine++
			newLine++
		default:
			// unrecognized, e.g. "\ No newline at end of file"
		}
	}
	flushFile()
	return diffs
}

func countOrOne(group string) int {
	if group == "" {
		return 1
	}
	return atoiSafe(group)
}

func isEnvelopeLine(line string) bool {
	for _, prefix := range envelopePrefixes {
		if strings.HasPrefix(line, prefix) {
			return true
		}
	}
	return false
}

// applyEnvelope folds one envelope line into the file-level flags.
func applyEnvelope(d *Diff, line string) {
	switch {
	case strings.HasPrefix(line, "new file"):
		d.IsNew = true
	case strings.HasPrefix(line, "deleted file"):
		d.IsDeleted = true
	case strings.HasPrefix(line, "rename from "):
		d.OldPath = strings.TrimPrefix(line, "rename from ")
	case strings.HasPrefix(line, "rename to "):
		d.Path = strings.TrimPrefix(line, "rename to ")
	case strings.HasPrefix(line, "Binary files"), strings.HasPrefix(line, "GIT binary patch"):
		d.IsBinary = true
		d.Hunks = nil
	case strings.HasPrefix(line, "--- "):
		if strings.TrimSpace(line[4:]) == "/dev/null" {
			d.IsNew = true
		}
	case strings.HasPrefix(line, "+++ "):
		target := strings.TrimSpace(line[4:])
		if target == "/dev/null" {
			d.IsDeleted = true
		} else if d.Path == "" {
			d.Path = normalizeDiffPath(target)
		}
	}
}

// diffGitPaths extracts the two paths of a `diff --git a/X b/Y` line,
// honoring C-style quoting of paths with special characters.
func diffGitPaths(line string) (from, to string, ok bool) {
	const prefix = "diff --git "
	tokens := diffLineTokens(strings.TrimSpace(line[len(prefix):]))
	if len(tokens) < 2 {
		return "", "", false
	}
	return normalizeDiffPath(tokens[0]), normalizeDiffPath(tokens[1]), true
}

func diffLineTokens(s string) []string {
	var tokens []string
	for {
		s = strings.TrimLeft(s, " \t")
		if s == "" {
			break
		}
		if s[0] == '"' {
			var buf strings.Builder
			escaped := false
			i := 1
			for i < len(s) {
				ch := s[i]
				if escaped {
					buf.WriteByte(ch)
					escaped = false
					i++
					continue
				}
				if ch == '\\' {
					escaped = true
					i++
					continue
				}
				if ch == '"' {
					i++
					break
				}
				buf.WriteByte(ch)
				i++
			}
			tokens = append(tokens, buf.String())
			s = s[i:]
			continue
		}
		j := 0
		for j < len(s) && s[j] != ' ' && s[j] != '\t' {
			j++
		}
		tokens = append(tokens, s[:j])
		s = s[j:]
	}
	return tokens
}

func normalizeDiffPath(token string) string {
	token = strings.TrimPrefix(token, "a/")
	token = strings.TrimPrefix(token, "b/")
	return token
}
