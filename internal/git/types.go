package git

import "time"

// StatusCode classifies one working-tree change.
type StatusCode uint8

const (
	StatusUntracked StatusCode = iota
	StatusModified
	StatusAdded
	StatusDeleted
	StatusRenamed
	StatusCopied
	StatusConflicted
	StatusIgnored
)

func (c StatusCode) String() string {
	switch c {
	case StatusUntracked:
		return "untracked"
	case StatusModified:
		return "modified"
	case StatusAdded:
		return "added"
	case StatusDeleted:
		return "deleted"
	case StatusRenamed:
		return "renamed"
	case StatusCopied:
		return "copied"
	case StatusConflicted:
		return "conflicted"
	case StatusIgnored:
		return "ignored"
	default:
		return "unknown"
	}
}

// FileChange is one entry of a status snapshot. OldPath is the rename or
// copy source when the entry carries a " -> " pair. Added/Removed are line
// counts when known, zero otherwise.
type FileChange struct {
	Path    string
	OldPath string
	Code    StatusCode
	Staged  bool
	Added   int
	Removed int
}

// Status is a point-in-time snapshot of the working tree. Changes preserve
// the order git reported them in. Ahead/Behind are zero when no upstream is
// configured.
type Status struct {
	Branch   string
	Upstream string
	Ahead    int
	Behind   int
	Changes  []FileChange
}

// HasChanges reports whether the snapshot contains tracked modifications.
// Untracked and ignored entries do not count.
func (s Status) HasChanges() bool {
	for _, c := range s.Changes {
		if c.Code != StatusUntracked && c.Code != StatusIgnored {
			return true
		}
	}
	return false
}

// HasStagedChanges reports whether any entry is staged.
func (s Status) HasStagedChanges() bool {
	for _, c := range s.Changes {
		if c.Staged {
			return true
		}
	}
	return false
}

// HasUnstagedChanges reports whether any tracked entry is unstaged.
func (s Status) HasUnstagedChanges() bool {
	for _, c := range s.Changes {
		if !c.Staged && c.Code != StatusUntracked && c.Code != StatusIgnored {
			return true
		}
	}
	return false
}

// Commit is one history entry. Timestamp falls back to the parse time when
// the epoch field is unreadable.
type Commit struct {
	Hash      string
	ShortHash string
	Author    string
	Email     string
	Subject   string
	Timestamp time.Time
	Parents   []string
}

// IsMerge reports whether the commit has more than one parent.
func (c Commit) IsMerge() bool {
	return len(c.Parents) > 1
}

// Branch is one head or remote-tracking ref. LastHash/LastSubject summarize
// the branch tip; LastCommitAt falls back to the parse time on malformed
// dates.
type Branch struct {
	Name         string
	FullName     string
	IsRemote     bool
	IsCurrent    bool
	Upstream     string
	Ahead        int
	Behind       int
	LastHash     string
	LastSubject  string
	LastCommitAt time.Time
}

// LineKind classifies one line of a diff hunk.
type LineKind uint8

const (
	LineContext LineKind = iota
	LineAddition
	LineDeletion
	LineHeader
)

func (k LineKind) String() string {
	switch k {
	case LineContext:
		return "context"
	case LineAddition:
		return "addition"
	case LineDeletion:
		return "deletion"
	case LineHeader:
		return "header"
	default:
		return "unknown"
	}
}

// DiffLine is one line of a hunk. Addition lines carry only NewLine,
// deletion lines only OldLine, context lines both; zero means not
// applicable.
type DiffLine struct {
	Kind    LineKind
	Content string
	OldLine int
	NewLine int
}

// Hunk is one contiguous change block. Counts default to 1 when git omits
// them from the @@ header.
type Hunk struct {
	Header   string
	OldStart int
	OldCount int
	NewStart int
	NewCount int
	Lines    []DiffLine
}

// Diff is the parsed change set for one file. A binary diff carries no
// hunks.
type Diff struct {
	Path      string
	OldPath   string
	IsBinary  bool
	IsNew     bool
	IsDeleted bool
	Hunks     []Hunk
}

// Stash is one `stash list` entry. Branch is best-effort, extracted from
// the conventional "WIP on X:" / "On X:" message shapes, empty otherwise.
type Stash struct {
	Name      string
	Index     int
	Branch    string
	Message   string
	CreatedAt time.Time
}

// Tag is one tag ref. Hash is the target commit, peeled through the tag
// object for annotated tags.
type Tag struct {
	Name        string
	Hash        string
	IsAnnotated bool
	Message     string
	CreatedAt   time.Time
}

// Remote is one configured remote with its fetch and push URLs.
type Remote struct {
	Name     string
	FetchURL string
	PushURL  string
}

// RepoInfo describes the repository layout at a path. GitDir resolves
// `gitdir:` redirect files used by worktrees and submodules.
type RepoInfo struct {
	Path   string
	GitDir string
	Head   string
	IsBare bool
}

// LogOptions narrows a history query. The zero value lists every commit
// reachable from HEAD except merges; set ShowMerges to include them.
type LogOptions struct {
	MaxCount    int
	ShowMerges  bool
	FirstParent bool
	Follow      bool
	Branch      string
	Path        string
}
