package git

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// logFormat is the pipe-delimited pretty format shared by history queries:
// full hash, short hash, author name, author email, subject, commit epoch,
// space-separated parent hashes.
const logFormat = "%H|%h|%an|%ae|%s|%ct|%P"

// Log returns history per opts, newest first.
func (s *Service) Log(opts LogOptions) ([]Commit, error) {
	out, err := s.query("log", logArgs(opts)...)
	if err != nil {
		return nil, err
	}
	return ParseCommits(out), nil
}

// Show returns the metadata of a single commit.
func (s *Service) Show(hash string) (Commit, error) {
	out, err := s.query("show", "show", "--no-patch", "--pretty=format:"+logFormat, hash)
	if err != nil {
		return Commit{}, err
	}
	commits := ParseCommits(out)
	if len(commits) == 0 {
		return Commit{}, fmt.Errorf("show %s: unreadable commit record", hash)
	}
	return commits[0], nil
}

// CommitRange returns the commits reachable from to but not from from,
// newest first.
func (s *Service) CommitRange(from, to string) ([]Commit, error) {
	out, err := s.query("log-range",
		"log", "--pretty=format:"+logFormat, "-z", from+".."+to)
	if err != nil {
		return nil, err
	}
	return ParseCommits(out), nil
}

func logArgs(opts LogOptions) []string {
	args := []string{"log", "--pretty=format:" + logFormat, "-z"}
	if opts.MaxCount > 0 {
		args = append(args, "-n", strconv.Itoa(opts.MaxCount))
	}
	if !opts.ShowMerges {
		args = append(args, "--no-merges")
	}
	if opts.FirstParent {
		args = append(args, "--first-parent")
	}
	if opts.Follow {
		args = append(args, "--follow")
	}
	if opts.Branch != "" {
		args = append(args, opts.Branch)
	}
	if opts.Path != "" {
		args = append(args, "--", opts.Path)
	}
	return args
}

// ParseCommits parses NUL-delimited records in logFormat. Records with
// fewer than seven fields are discarded whole, never partially populated.
func ParseCommits(raw string) []Commit {
	var commits []Commit
	for record := range strings.SplitSeq(raw, "\x00") {
		record = strings.TrimLeft(record, "\n\r")
		if record == "" {
			continue
		}
		if c, ok := parseCommitRecord(record); ok {
			commits = append(commits, c)
		}
	}
	return commits
}

func parseCommitRecord(record string) (Commit, bool) {
	fields := strings.Split(record, "|")
	if len(fields) < 7 {
		return Commit{}, false
	}
	// A pipe inside the subject splits it across extra fields. Hashes,
	// author, epoch, and parents are positional from both ends; the middle
	// rejoins into the subject.
	n := len(fields)
	c := Commit{
		Hash:      strings.TrimSpace(fields[0]),
		ShortHash: strings.TrimSpace(fields[1]),
		Author:    fields[2],
		Email:     fields[3],
		Subject:   strings.Join(fields[4:n-2], "|"),
		Timestamp: parseEpoch(fields[n-2]),
	}
	if parents := strings.TrimSpace(fields[n-1]); parents != "" {
		c.Parents = strings.Fields(parents)
	}
	return c, true
}

// parseEpoch reads unix seconds, falling back to the current time so a
// malformed date never drops the record.
func parseEpoch(field string) time.Time {
	sec, err := strconv.ParseInt(strings.TrimSpace(field), 10, 64)
	if err != nil {
		return time.Now()
	}
	return time.Unix(sec, 0)
}
