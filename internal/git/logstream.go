package git

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
)

// LogStream iterates history from a running git log process, reading
// NUL-delimited records incrementally so large histories are never
// buffered whole. Close releases the child; it is safe after EOF.
type LogStream struct {
	cancel context.CancelFunc
	cmd    *exec.Cmd
	stdout io.ReadCloser
	stderr bytes.Buffer
	r      *bufio.Reader

	waitOnce sync.Once
	waitErr  error
}

// LogStream starts a streaming history query per opts.
func (s *Service) LogStream(opts LogOptions) (*LogStream, error) {
	dir := s.RepoPath()
	if dir == "" {
		return nil, ErrNoRepository
	}
	args := append([]string{"--no-pager"}, logArgs(opts)...)

	ctx, cancel := context.WithCancel(context.Background())
	cmd := exec.CommandContext(ctx, s.gitPath, args...)
	cmd.Dir = dir
	if len(s.env) > 0 {
		cmd.Env = append(os.Environ(), s.env...)
	}
	var stream LogStream
	stream.cancel = cancel
	stream.cmd = cmd
	cmd.Stderr = &stream.stderr
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return nil, fmt.Errorf("log stream stdout: %w", err)
	}
	stream.stdout = stdout
	stream.r = bufio.NewReader(stdout)
	if err := cmd.Start(); err != nil {
		cancel()
		_ = stdout.Close()
		return nil, fmt.Errorf("log stream start: %w", err)
	}
	return &stream, nil
}

// Next returns the next commit, or io.EOF once history is exhausted.
// Records the parser cannot read are skipped, like everywhere else.
func (ls *LogStream) Next() (*Commit, error) {
	for {
		rec, err := ls.r.ReadBytes(0)
		if err != nil && err != io.EOF {
			return nil, fmt.Errorf("log stream read: %w", err)
		}
		atEOF := err == io.EOF
		rec = bytes.TrimSuffix(rec, []byte{0})
		// git separates records with NUL but still prints a newline between
		// commits, so records after the first can start with '\n'.
		text := strings.TrimLeft(string(rec), "\n\r")
		if text != "" {
			if c, ok := parseCommitRecord(text); ok {
				return &c, nil
			}
		}
		if atEOF {
			if waitErr := ls.wait(); waitErr != nil {
				return nil, waitErr
			}
			return nil, io.EOF
		}
	}
}

// Close terminates the child and reaps it. Safe to call more than once,
// and abandoning an unfinished stream is not an error.
func (ls *LogStream) Close() error {
	if ls.cancel != nil {
		ls.cancel()
	}
	if ls.stdout != nil {
		_ = ls.stdout.Close()
	}
	err := ls.wait()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && !exitErr.Exited() {
		// the child died from our own cancel, not on its own
		return nil
	}
	return err
}

func (ls *LogStream) wait() error {
	ls.waitOnce.Do(func() {
		ls.waitErr = ls.cmd.Wait()
	})
	if ls.waitErr == nil {
		return nil
	}
	if ls.stderr.Len() > 0 {
		return fmt.Errorf("log stream: %v: %s", ls.waitErr, strings.TrimSpace(ls.stderr.String()))
	}
	return fmt.Errorf("log stream: %w", ls.waitErr)
}
