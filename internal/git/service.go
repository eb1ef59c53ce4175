// Package git turns the output of the git command-line tool into a typed,
// queryable repository model.
//
// The Service builds an argument vector per logical operation, hands it to
// the process runner, and classifies the raw exit code and captured text
// into a small outcome taxonomy. Parsing porcelain output into entities is
// done by pure functions that never fail: malformed records are dropped and
// unreadable fields fall back to safe defaults, because a partially-wrong
// view is more useful to a front end than no view.
//
// No version-control logic is implemented natively. Every read and every
// mutation delegates to the external git executable.
package git

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/repolens/repolens/internal/proc"
)

const (
	// DefaultTimeout bounds local operations.
	DefaultTimeout = 30 * time.Second
	// DefaultNetworkTimeout bounds fetch/pull/push/clone, which wait on
	// remote latency rather than local disk.
	DefaultNetworkTimeout = 2 * time.Minute
)

// ProgressFunc receives progress of a long-running operation: the phase
// name reported by git and the current/total object counts.
type ProgressFunc func(phase string, current, total int)

// LogFunc receives free-text messages about dispatched operations.
type LogFunc func(message string)

// commandRunner is the seam between the dispatcher and the process layer;
// tests substitute a fake to script exit codes and captured text.
type commandRunner interface {
	RunTimeout(name string, args []string, dir string, timeout time.Duration) (proc.Result, error)
	RunTee(name string, args []string, dir string, timeout time.Duration, tee io.Writer) (proc.Result, error)
	Cancel()
}

// Service dispatches logical repository operations to the git executable.
//
// The repository path and the last-error cache are the only mutable state,
// both mutex-guarded. Concurrent dispatch of independent operations is
// safe, but the Service gives no ordering or transactional guarantee across
// calls; callers that need stage-then-commit semantics must sequence the
// calls themselves.
type Service struct {
	gitPath        string
	timeout        time.Duration
	networkTimeout time.Duration
	env            []string
	runner         commandRunner
	progress       ProgressFunc
	logf           LogFunc

	mu        sync.Mutex
	path      string
	lastError string
}

// Option configures a Service.
type Option func(*Service)

// WithTimeout sets the timeout for local operations.
func WithTimeout(d time.Duration) Option {
	return func(s *Service) { s.timeout = d }
}

// WithNetworkTimeout sets the timeout for fetch, pull, push, and clone.
func WithNetworkTimeout(d time.Duration) Option {
	return func(s *Service) { s.networkTimeout = d }
}

// WithGitPath overrides the git executable, e.g. an absolute path or a
// wrapper binary.
func WithGitPath(path string) Option {
	return func(s *Service) { s.gitPath = path }
}

// WithEnv appends KEY=VALUE entries to every child's environment.
func WithEnv(entries ...string) Option {
	return func(s *Service) { s.env = append(s.env, entries...) }
}

// WithProgress registers a callback for progress of network operations.
// It is invoked from the dispatching goroutine.
func WithProgress(fn ProgressFunc) Option {
	return func(s *Service) { s.progress = fn }
}

// WithLog registers a callback receiving free-text operation messages.
func WithLog(fn LogFunc) Option {
	return func(s *Service) { s.logf = fn }
}

// New returns a Service with no repository configured. Use Open, Init, or
// Clone to bind it to a path.
func New(opts ...Option) *Service {
	s := &Service{
		gitPath:        "git",
		timeout:        DefaultTimeout,
		networkTimeout: DefaultNetworkTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.runner == nil {
		s.runner = proc.NewRunner(proc.WithEnv(s.env...))
	}
	return s
}

// Open returns a Service bound to the repository at path. The path must
// pass the structural repository check.
func Open(path string, opts ...Option) (*Service, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("open repository: %w", err)
	}
	if !IsValidRepository(abs) {
		return nil, fmt.Errorf("open repository %s: %w", abs, ErrNotARepository)
	}
	s := New(opts...)
	s.setPath(abs)
	return s, nil
}

// Available reports whether the configured git executable resolves.
func (s *Service) Available() bool {
	return proc.Available(s.gitPath)
}

// RepoPath returns the configured repository path, empty when unbound.
func (s *Service) RepoPath() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.path
}

func (s *Service) setPath(path string) {
	s.mu.Lock()
	s.path = path
	s.mu.Unlock()
}

// LastError returns the message of the most recent unsuccessful operation.
// It is a convenience cache for single-threaded callers; concurrent callers
// should rely on per-call outcomes instead.
func (s *Service) LastError() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastError
}

func (s *Service) setLastError(msg string) {
	s.mu.Lock()
	s.lastError = msg
	s.mu.Unlock()
}

// Cancel requests termination of every operation currently in flight.
func (s *Service) Cancel() {
	s.runner.Cancel()
}

// execute is the single funnel every operation goes through, so that
// classification and last-error bookkeeping are never duplicated.
func (s *Service) execute(op string, args ...string) Outcome {
	return s.executeAt(op, s.RepoPath(), s.timeout, nil, args)
}

func (s *Service) executeNetwork(op string, args ...string) Outcome {
	return s.executeAt(op, s.RepoPath(), s.networkTimeout, s.progressTee(op), args)
}

func (s *Service) executeAt(op, dir string, timeout time.Duration, tee io.Writer, args []string) Outcome {
	opID := uuid.NewString()
	slog.Debug("git dispatch",
		slog.String("op", op),
		slog.String("op_id", opID),
		slog.String("dir", dir),
		slog.Any("args", args),
	)
	s.logMessage(fmt.Sprintf("%s %s", s.gitPath, strings.Join(args, " ")))

	start := time.Now()
	var res proc.Result
	var err error
	if tee != nil {
		res, err = s.runner.RunTee(s.gitPath, args, dir, timeout, tee)
	} else {
		res, err = s.runner.RunTimeout(s.gitPath, args, dir, timeout)
	}
	outcome := classify(res, err)

	slog.Debug("git dispatch done",
		slog.String("op", op),
		slog.String("op_id", opID),
		slog.Int("exit_code", outcome.ExitCode),
		slog.String("kind", outcome.Kind.String()),
		slog.Duration("duration", time.Since(start)),
	)
	if !outcome.Success() {
		msg := outcome.message()
		if msg == "" {
			msg = fmt.Sprintf("%s: exit code %d", op, outcome.ExitCode)
		}
		s.setLastError(msg)
		s.logMessage(fmt.Sprintf("%s failed: %s", op, msg))
	}
	return outcome
}

// query runs a read operation and returns raw stdout. Failures surface as
// errors so read methods can degrade to empty snapshots.
func (s *Service) query(op string, args ...string) (string, error) {
	outcome := s.execute(op, args...)
	if err := outcome.Err(); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return outcome.Output, nil
}

func (s *Service) logMessage(msg string) {
	if s.logf != nil {
		s.logf(msg)
	}
}

func (s *Service) progressTee(op string) io.Writer {
	if s.progress == nil {
		return nil
	}
	return newProgressWriter(s.progress)
}

// classify maps a raw process result onto the outcome taxonomy. The exit
// code is authoritative for success; text substrings only refine failures.
func classify(res proc.Result, err error) Outcome {
	out := Outcome{
		ExitCode: res.ExitCode,
		Output:   string(res.Stdout),
		Error:    string(res.Stderr),
	}
	switch {
	case errors.Is(err, proc.ErrCanceled):
		out.Kind = KindCancelled
	case res.ExitCode == 0:
		out.Kind = KindSuccess
	default:
		out.Kind = classifyText(out.Error + "\n" + out.Output)
	}
	return out
}

var networkMarkers = []string{
	"could not resolve host",
	"could not read from remote repository",
	"connection refused",
	"connection timed out",
	"network is unreachable",
	"failed to connect",
}

var permissionMarkers = []string{
	"permission denied",
	"authentication failed",
	"access denied",
	"could not read username",
	"invalid credentials",
}

// classifyText refines nonzero exits by known substrings. The lists are
// heuristic: git reports these conditions as free text that varies by
// version, so unrecognized failures stay generic Failed.
func classifyText(text string) OutcomeKind {
	text = strings.ToLower(text)
	switch {
	case strings.Contains(text, "not a git repository"):
		return KindNotARepository
	case containsAny(text, networkMarkers):
		return KindNetworkError
	case containsAny(text, permissionMarkers):
		return KindPermissionDenied
	}
	return KindFailed
}

func containsAny(text string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(text, m) {
			return true
		}
	}
	return false
}
