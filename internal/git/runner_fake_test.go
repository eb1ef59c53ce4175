package git

import (
	"io"
	"time"

	"github.com/repolens/repolens/internal/proc"
)

// fakeRunner scripts process results per git subcommand and records every
// dispatch, so service tests never spawn a real child.
type fakeRunner struct {
	responses map[string]fakeResponse
	calls     []fakeCall
	cancels   int
}

type fakeResponse struct {
	result   proc.Result
	err      error
	progress string
}

type fakeCall struct {
	name    string
	args    []string
	dir     string
	timeout time.Duration
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{responses: map[string]fakeResponse{}}
}

func (f *fakeRunner) stub(subcommand string, exitCode int, stdout, stderr string) {
	f.responses[subcommand] = fakeResponse{
		result: proc.Result{ExitCode: exitCode, Stdout: []byte(stdout), Stderr: []byte(stderr)},
	}
}

func (f *fakeRunner) stubErr(subcommand string, stderr string, err error) {
	f.responses[subcommand] = fakeResponse{
		result: proc.Result{ExitCode: -1, Stderr: []byte(stderr)},
		err:    err,
	}
}

func (f *fakeRunner) stubProgress(subcommand string, progress string) {
	resp := f.responses[subcommand]
	resp.progress = progress
	f.responses[subcommand] = resp
}

func (f *fakeRunner) RunTimeout(name string, args []string, dir string, timeout time.Duration) (proc.Result, error) {
	f.calls = append(f.calls, fakeCall{name: name, args: args, dir: dir, timeout: timeout})
	if len(args) > 0 {
		if resp, ok := f.responses[args[0]]; ok {
			return resp.result, resp.err
		}
	}
	return proc.Result{}, nil
}

func (f *fakeRunner) RunTee(name string, args []string, dir string, timeout time.Duration, tee io.Writer) (proc.Result, error) {
	if tee != nil && len(args) > 0 {
		if resp, ok := f.responses[args[0]]; ok && resp.progress != "" {
			_, _ = tee.Write([]byte(resp.progress))
		}
	}
	return f.RunTimeout(name, args, dir, timeout)
}

func (f *fakeRunner) Cancel() { f.cancels++ }

func (f *fakeRunner) lastCall() fakeCall {
	if len(f.calls) == 0 {
		return fakeCall{}
	}
	return f.calls[len(f.calls)-1]
}

// newFakeService binds a Service to the fake runner and a dummy path.
func newFakeService(f *fakeRunner) *Service {
	s := New()
	s.runner = f
	s.setPath("/repo")
	return s
}
