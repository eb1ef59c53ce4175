// Package proc runs external commands with captured output, a wall-clock
// timeout, and cooperative cancellation.
//
// The runner knows nothing about version control: it reports an exit code
// and raw bytes, and callers decide what they mean. Child processes are
// reaped on every exit path, including timeout and cancellation.
package proc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"time"
)

// DefaultTimeout bounds a run when the runner is not configured with one.
const DefaultTimeout = 30 * time.Second

var (
	// ErrTimeout reports that the child was killed after exceeding the
	// wall-clock timeout.
	ErrTimeout = errors.New("process timed out")
	// ErrCanceled reports that the child was killed by Cancel or by the
	// caller's context.
	ErrCanceled = errors.New("process canceled")
)

// Result is the raw outcome of one child process. The exit code is
// authoritative; success is never inferred from captured text.
type Result struct {
	ExitCode int
	Stdout   []byte
	Stderr   []byte
}

// Success reports whether the child exited with code zero.
func (r Result) Success() bool {
	return r.ExitCode == 0
}

// Runner executes commands with separate stdout/stderr capture. The zero
// value is not usable; construct with NewRunner. A Runner is reusable after
// cancellation: Cancel only affects runs in flight when it is called.
type Runner struct {
	timeout time.Duration
	env     []string

	mu       sync.Mutex
	cancelCh chan struct{}
}

// Option configures a Runner.
type Option func(*Runner)

// WithTimeout sets the wall-clock timeout applied by Run and RunAsync.
// Non-positive values fall back to DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(r *Runner) { r.timeout = d }
}

// WithEnv appends KEY=VALUE entries to the child environment on top of the
// parent environment.
func WithEnv(entries ...string) Option {
	return func(r *Runner) { r.env = append(r.env, entries...) }
}

func NewRunner(opts ...Option) *Runner {
	r := &Runner{timeout: DefaultTimeout}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Available reports whether name resolves to an executable in PATH.
func Available(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}

// Run executes name with args in dir and blocks until the child exits, the
// timeout elapses, or Cancel is called. A nonzero exit status is reported
// through Result.ExitCode with a nil error; the error is reserved for spawn
// failures, timeout, and cancellation. On timeout or cancellation the child
// is killed and reaped, and the result carries exit code -1 with a
// descriptive message in Stderr; the returned error is ErrTimeout or
// ErrCanceled. No partial output is reported on either path.
func (r *Runner) Run(name string, args []string, dir string) (Result, error) {
	return r.RunTimeout(name, args, dir, r.timeout)
}

// RunTimeout is Run with a per-call timeout override.
func (r *Runner) RunTimeout(name string, args []string, dir string, timeout time.Duration) (Result, error) {
	return r.run(context.Background(), name, args, dir, timeout, nil)
}

// RunTee is RunTimeout with stderr additionally streamed to tee as it
// arrives, so callers can surface progress output from long-running
// commands while the child is still working.
func (r *Runner) RunTee(name string, args []string, dir string, timeout time.Duration, tee io.Writer) (Result, error) {
	return r.run(context.Background(), name, args, dir, timeout, tee)
}

// RunContext is Run honoring the caller's context. Context cancellation and
// deadline expiry kill the child like Cancel and the timeout do, mapping to
// ErrCanceled and ErrTimeout respectively.
func (r *Runner) RunContext(ctx context.Context, name string, args []string, dir string) (Result, error) {
	return r.run(ctx, name, args, dir, r.timeout, nil)
}

// RunAsync dispatches Run on a new goroutine and invokes fn with its result.
// Callers must not assume which goroutine runs fn.
func (r *Runner) RunAsync(name string, args []string, dir string, fn func(Result, error)) {
	go func() {
		fn(r.Run(name, args, dir))
	}()
}

// Cancel requests termination of every run currently in flight on this
// runner. It is safe to call from any goroutine and is a no-op when nothing
// is running; pending Run calls return promptly with ErrCanceled.
func (r *Runner) Cancel() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancelCh != nil {
		close(r.cancelCh)
		r.cancelCh = nil
	}
}

// cancelChan hands out the channel closed by the next Cancel. Runs starting
// after a Cancel get a fresh channel, which is what makes the Runner
// reusable.
func (r *Runner) cancelChan() <-chan struct{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancelCh == nil {
		r.cancelCh = make(chan struct{})
	}
	return r.cancelCh
}

func (r *Runner) run(ctx context.Context, name string, args []string, dir string, timeout time.Duration, tee io.Writer) (Result, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	cmd := exec.Command(name, args...)
	cmd.Dir = dir
	if len(r.env) > 0 {
		cmd.Env = append(os.Environ(), r.env...)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if tee != nil {
		cmd.Stderr = io.MultiWriter(&stderr, tee)
	}

	if err := cmd.Start(); err != nil {
		msg := fmt.Sprintf("start %s: %v", name, err)
		return Result{ExitCode: -1, Stderr: []byte(msg)}, fmt.Errorf("start %s: %w", name, err)
	}

	done := make(chan error, 1)
	go func() {
		done <- cmd.Wait()
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case err := <-done:
		return Result{
			ExitCode: exitCode(err),
			Stdout:   stdout.Bytes(),
			Stderr:   stderr.Bytes(),
		}, nil
	case <-timer.C:
		killAndReap(cmd, done)
		msg := fmt.Sprintf("process timed out after %s", timeout)
		return Result{ExitCode: -1, Stderr: []byte(msg)}, ErrTimeout
	case <-r.cancelChan():
		killAndReap(cmd, done)
		return Result{ExitCode: -1, Stderr: []byte("process canceled")}, ErrCanceled
	case <-ctx.Done():
		killAndReap(cmd, done)
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			msg := fmt.Sprintf("process timed out after %s", timeout)
			return Result{ExitCode: -1, Stderr: []byte(msg)}, ErrTimeout
		}
		return Result{ExitCode: -1, Stderr: []byte("process canceled")}, ErrCanceled
	}
}

// killAndReap forcibly terminates the child and waits for it so no zombie
// survives the call.
func killAndReap(cmd *exec.Cmd, done <-chan error) {
	if cmd.Process != nil {
		_ = cmd.Process.Kill()
	}
	<-done
}

// exitCode extracts the child's exit code from cmd.Wait's error. A child
// killed by a signal reports -1.
func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}
