package proc

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"
)

// The test binary doubles as the child process: when PROC_HELPER_MODE is
// set, TestMain acts out the requested behavior instead of running tests.
func TestMain(m *testing.M) {
	if mode := os.Getenv("PROC_HELPER_MODE"); mode != "" {
		helperMain(mode)
		return
	}
	os.Exit(m.Run())
}

func helperMain(mode string) {
	switch mode {
	case "echo":
		fmt.Fprint(os.Stdout, "hello stdout")
		fmt.Fprint(os.Stderr, "hello stderr")
		os.Exit(0)
	case "exit3":
		os.Exit(3)
	case "sleep":
		time.Sleep(5 * time.Second)
		os.Exit(0)
	case "blob":
		chunk := strings.Repeat("x", 1024)
		for range 1024 {
			fmt.Fprint(os.Stdout, chunk)
		}
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "unknown helper mode %q", mode)
		os.Exit(2)
	}
}

func helperRunner(mode string, opts ...Option) *Runner {
	opts = append(opts, WithEnv("PROC_HELPER_MODE="+mode))
	return NewRunner(opts...)
}

func TestRunCapturesOutput(t *testing.T) {
	t.Parallel()

	res, err := helperRunner("echo").Run(os.Args[0], nil, "")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !res.Success() || res.ExitCode != 0 {
		t.Fatalf("Run() = %+v, want success", res)
	}
	if got := string(res.Stdout); got != "hello stdout" {
		t.Fatalf("stdout = %q, want %q", got, "hello stdout")
	}
	if got := string(res.Stderr); got != "hello stderr" {
		t.Fatalf("stderr = %q, want %q", got, "hello stderr")
	}
}

func TestRunReportsExitCode(t *testing.T) {
	t.Parallel()

	res, err := helperRunner("exit3").Run(os.Args[0], nil, "")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.ExitCode != 3 {
		t.Fatalf("ExitCode = %d, want 3", res.ExitCode)
	}
	if res.Success() {
		t.Fatal("Success() = true for exit code 3")
	}
}

func TestRunLargeOutput(t *testing.T) {
	t.Parallel()

	res, err := helperRunner("blob").Run(os.Args[0], nil, "")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(res.Stdout) != 1024*1024 {
		t.Fatalf("len(Stdout) = %d, want %d", len(res.Stdout), 1024*1024)
	}
}

func TestRunTimeoutKillsChild(t *testing.T) {
	t.Parallel()

	start := time.Now()
	res, err := helperRunner("sleep", WithTimeout(100*time.Millisecond)).Run(os.Args[0], nil, "")
	elapsed := time.Since(start)

	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("Run() error = %v, want ErrTimeout", err)
	}
	if res.ExitCode != -1 {
		t.Fatalf("ExitCode = %d, want -1", res.ExitCode)
	}
	if !strings.Contains(string(res.Stderr), "timed out") {
		t.Fatalf("Stderr = %q, want timeout message", res.Stderr)
	}
	if elapsed < 80*time.Millisecond || elapsed > 2*time.Second {
		t.Fatalf("Run() returned after %v, want roughly the 100ms timeout", elapsed)
	}
}

func TestCancelInterruptsRun(t *testing.T) {
	t.Parallel()

	r := helperRunner("sleep", WithTimeout(10*time.Second))
	timer := time.AfterFunc(50*time.Millisecond, r.Cancel)
	defer timer.Stop()

	start := time.Now()
	res, err := r.Run(os.Args[0], nil, "")
	elapsed := time.Since(start)

	if !errors.Is(err, ErrCanceled) {
		t.Fatalf("Run() error = %v, want ErrCanceled", err)
	}
	if res.ExitCode != -1 {
		t.Fatalf("ExitCode = %d, want -1", res.ExitCode)
	}
	if elapsed > 2*time.Second {
		t.Fatalf("Run() returned after %v, want prompt return on cancel", elapsed)
	}
}

func TestRunnerReusableAfterCancel(t *testing.T) {
	t.Parallel()

	r := helperRunner("echo")
	r.Cancel() // nothing in flight

	res, err := r.Run(os.Args[0], nil, "")
	if err != nil {
		t.Fatalf("Run() after Cancel() error = %v", err)
	}
	if !res.Success() {
		t.Fatalf("Run() after Cancel() = %+v, want success", res)
	}
}

func TestRunAsyncInvokesCallback(t *testing.T) {
	t.Parallel()

	type outcome struct {
		res Result
		err error
	}
	ch := make(chan outcome, 1)
	helperRunner("exit3").RunAsync(os.Args[0], nil, "", func(res Result, err error) {
		ch <- outcome{res, err}
	})

	select {
	case got := <-ch:
		if got.err != nil {
			t.Fatalf("RunAsync() error = %v", got.err)
		}
		if got.res.ExitCode != 3 {
			t.Fatalf("ExitCode = %d, want 3", got.res.ExitCode)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("RunAsync() callback never invoked")
	}
}

func TestRunStartFailure(t *testing.T) {
	t.Parallel()

	res, err := NewRunner().Run("/nonexistent/repolens-no-such-binary", nil, "")
	if err == nil {
		t.Fatal("Run() error = nil for missing binary")
	}
	if res.ExitCode != -1 {
		t.Fatalf("ExitCode = %d, want -1", res.ExitCode)
	}
	if len(res.Stderr) == 0 {
		t.Fatal("Stderr empty, want start failure message")
	}
}

func TestAvailable(t *testing.T) {
	t.Parallel()

	if !Available(os.Args[0]) {
		t.Fatalf("Available(%q) = false, want true", os.Args[0])
	}
	if Available("repolens-no-such-binary-xyz") {
		t.Fatal("Available() = true for nonexistent binary")
	}
}
