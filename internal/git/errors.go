package git

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoRepository reports that no repository path is configured yet.
	ErrNoRepository = errors.New("no repository configured")
	// ErrNotARepository reports that a path is not a git repository.
	ErrNotARepository = errors.New("not a git repository")
	// ErrEmptyCommitMessage rejects commits with a blank message.
	ErrEmptyCommitMessage = errors.New("empty commit message")
	// ErrInvalidBranchName rejects names git's ref syntax forbids.
	ErrInvalidBranchName = errors.New("invalid branch name")
)

// OutcomeKind classifies a dispatched operation. Classification happens
// exactly once, from the exit code plus known substrings in the captured
// text; it is never re-derived downstream.
type OutcomeKind uint8

const (
	KindSuccess OutcomeKind = iota
	KindFailed
	KindNotARepository
	KindNetworkError
	KindPermissionDenied
	KindCancelled
)

func (k OutcomeKind) String() string {
	switch k {
	case KindSuccess:
		return "success"
	case KindFailed:
		return "failed"
	case KindNotARepository:
		return "not a repository"
	case KindNetworkError:
		return "network error"
	case KindPermissionDenied:
		return "permission denied"
	case KindCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Outcome is the classified result of one write operation: the taxonomy
// kind, the authoritative exit code, and the human-readable captured text.
// Produced once per dispatch and never mutated.
type Outcome struct {
	Kind     OutcomeKind
	ExitCode int
	Output   string
	Error    string
}

// Success reports whether the operation was classified as successful.
func (o Outcome) Success() bool {
	return o.Kind == KindSuccess
}

// message returns the best human-readable text for the outcome: stderr
// when present, stdout otherwise.
func (o Outcome) message() string {
	if msg := strings.TrimSpace(o.Error); msg != "" {
		return msg
	}
	return strings.TrimSpace(o.Output)
}

// Err converts a failed outcome into an error; successful outcomes yield
// nil. NotARepository outcomes wrap ErrNotARepository for errors.Is checks.
func (o Outcome) Err() error {
	if o.Kind == KindSuccess {
		return nil
	}
	msg := o.message()
	if msg == "" {
		msg = fmt.Sprintf("exit code %d", o.ExitCode)
	}
	if o.Kind == KindNotARepository {
		return fmt.Errorf("%w: %s", ErrNotARepository, msg)
	}
	return fmt.Errorf("%s: %s", o.Kind, msg)
}
