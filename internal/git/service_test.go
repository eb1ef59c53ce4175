package git

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/repolens/repolens/internal/proc"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		res  proc.Result
		err  error
		want OutcomeKind
	}{
		{
			name: "exit_zero_is_success",
			res:  proc.Result{ExitCode: 0, Stdout: []byte("on branch main")},
			want: KindSuccess,
		},
		{
			name: "plain_failure",
			res:  proc.Result{ExitCode: 1, Stderr: []byte("error: pathspec 'x' did not match")},
			want: KindFailed,
		},
		{
			name: "not_a_repository",
			res:  proc.Result{ExitCode: 128, Stderr: []byte("fatal: not a git repository (or any of the parent directories): .git")},
			want: KindNotARepository,
		},
		{
			name: "dns_failure_is_network",
			res:  proc.Result{ExitCode: 128, Stderr: []byte("fatal: Could not resolve host: example.com")},
			want: KindNetworkError,
		},
		{
			name: "remote_read_is_network",
			res:  proc.Result{ExitCode: 128, Stderr: []byte("fatal: Could not read from remote repository.")},
			want: KindNetworkError,
		},
		{
			name: "connection_refused_is_network",
			res:  proc.Result{ExitCode: 128, Stderr: []byte("ssh: connect to host example.com port 22: Connection refused")},
			want: KindNetworkError,
		},
		{
			name: "auth_failure_is_permission",
			res:  proc.Result{ExitCode: 128, Stderr: []byte("remote: Authentication failed for 'https://example.com/x.git'")},
			want: KindPermissionDenied,
		},
		{
			name: "permission_denied_is_permission",
			res:  proc.Result{ExitCode: 128, Stderr: []byte("git@example.com: Permission denied (publickey).")},
			want: KindPermissionDenied,
		},
		{
			name: "cancellation_wins",
			res:  proc.Result{ExitCode: -1, Stderr: []byte("process canceled")},
			err:  proc.ErrCanceled,
			want: KindCancelled,
		},
		{
			name: "timeout_stays_failed",
			res:  proc.Result{ExitCode: -1, Stderr: []byte("process timed out after 30s")},
			err:  proc.ErrTimeout,
			want: KindFailed,
		},
		{
			name: "unclassified_text_stays_failed",
			res:  proc.Result{ExitCode: 42, Stderr: []byte("something nobody has seen before")},
			want: KindFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := classify(tt.res, tt.err)
			if got.Kind != tt.want {
				t.Fatalf("classify(%+v, %v).Kind = %v, want %v", tt.res, tt.err, got.Kind, tt.want)
			}
			if got.ExitCode != tt.res.ExitCode {
				t.Errorf("ExitCode = %d, want %d", got.ExitCode, tt.res.ExitCode)
			}
		})
	}
}

func TestOutcomeErr(t *testing.T) {
	t.Parallel()

	if err := (Outcome{Kind: KindSuccess}).Err(); err != nil {
		t.Fatalf("success Err = %v, want nil", err)
	}

	err := (Outcome{Kind: KindNotARepository, ExitCode: 128, Error: "fatal: not a git repository"}).Err()
	if !errors.Is(err, ErrNotARepository) {
		t.Fatalf("Err = %v, want ErrNotARepository", err)
	}

	err = (Outcome{Kind: KindFailed, ExitCode: 1, Error: "boom"}).Err()
	if err == nil || !strings.Contains(err.Error(), "boom") {
		t.Fatalf("Err = %v, want message with boom", err)
	}

	err = (Outcome{Kind: KindFailed, ExitCode: 3}).Err()
	if err == nil || !strings.Contains(err.Error(), "exit code 3") {
		t.Fatalf("Err = %v, want exit code fallback", err)
	}
}

func TestLastErrorCache(t *testing.T) {
	t.Parallel()

	f := newFakeRunner()
	f.stub("checkout", 1, "", "error: pathspec 'nope' did not match any file(s)")
	f.stub("status", 0, "## main\n", "")
	svc := newFakeService(f)

	if out := svc.Checkout("nope"); out.Success() {
		t.Fatal("expected checkout to fail")
	}
	if got := svc.LastError(); !strings.Contains(got, "did not match") {
		t.Fatalf("LastError = %q", got)
	}

	// a successful call never clears the cache; the per-call outcome is
	// the authoritative result
	if _, err := svc.Status(); err != nil {
		t.Fatalf("Status: %v", err)
	}
	if got := svc.LastError(); !strings.Contains(got, "did not match") {
		t.Fatalf("LastError after success = %q", got)
	}
}

func TestRejectBeforeDispatch(t *testing.T) {
	t.Parallel()

	f := newFakeRunner()
	svc := newFakeService(f)

	out := svc.Commit("   ", false)
	if out.Success() {
		t.Fatal("expected empty commit message to fail")
	}
	if len(f.calls) != 0 {
		t.Fatalf("dispatched %d calls, want none", len(f.calls))
	}
	if got := svc.LastError(); !strings.Contains(got, "empty commit message") {
		t.Fatalf("LastError = %q", got)
	}

	out = svc.CreateBranch("bad name", "")
	if out.Success() || len(f.calls) != 0 {
		t.Fatalf("invalid branch name dispatched: %+v", f.calls)
	}
}

func TestExecuteUsesRepoPathAndTimeout(t *testing.T) {
	t.Parallel()

	f := newFakeRunner()
	f.stub("status", 0, "## main\n", "")
	svc := New(WithTimeout(5 * time.Second))
	svc.runner = f
	svc.setPath("/work/repo")

	if _, err := svc.Status(); err != nil {
		t.Fatalf("Status: %v", err)
	}
	call := f.lastCall()
	if call.dir != "/work/repo" {
		t.Errorf("dir = %q, want /work/repo", call.dir)
	}
	if call.timeout != 5*time.Second {
		t.Errorf("timeout = %v, want 5s", call.timeout)
	}
	if call.name != "git" {
		t.Errorf("executable = %q, want git", call.name)
	}
}

func TestNetworkOpsUseNetworkTimeout(t *testing.T) {
	t.Parallel()

	f := newFakeRunner()
	f.stub("fetch", 0, "", "")
	svc := New(WithTimeout(time.Second), WithNetworkTimeout(90*time.Second))
	svc.runner = f
	svc.setPath("/repo")

	if out := svc.Fetch("origin"); !out.Success() {
		t.Fatalf("Fetch = %+v", out)
	}
	if got := f.lastCall().timeout; got != 90*time.Second {
		t.Fatalf("fetch timeout = %v, want 90s", got)
	}
}

func TestProgressCallback(t *testing.T) {
	t.Parallel()

	type update struct {
		phase          string
		current, total int
	}
	var updates []update

	f := newFakeRunner()
	f.stub("fetch", 0, "", "")
	f.stubProgress("fetch", "Receiving objects:  42% (52/123), 1.2 MiB | 2.3 MiB/s\rReceiving objects: 100% (123/123), done.\n")
	svc := New(WithProgress(func(phase string, current, total int) {
		updates = append(updates, update{phase, current, total})
	}))
	svc.runner = f
	svc.setPath("/repo")

	if out := svc.Fetch("origin"); !out.Success() {
		t.Fatalf("Fetch = %+v", out)
	}
	if len(updates) != 2 {
		t.Fatalf("progress updates = %+v, want 2", updates)
	}
	if updates[0] != (update{"Receiving objects", 52, 123}) {
		t.Errorf("first update = %+v", updates[0])
	}
	if updates[1] != (update{"Receiving objects", 123, 123}) {
		t.Errorf("second update = %+v", updates[1])
	}
}

func TestCancelForwardsToRunner(t *testing.T) {
	t.Parallel()

	f := newFakeRunner()
	svc := newFakeService(f)
	svc.Cancel()
	if f.cancels != 1 {
		t.Fatalf("cancels = %d, want 1", f.cancels)
	}
}

func TestLogCallbackSeesDispatches(t *testing.T) {
	t.Parallel()

	var messages []string
	f := newFakeRunner()
	f.stub("status", 0, "## main\n", "")
	svc := New(WithLog(func(msg string) { messages = append(messages, msg) }))
	svc.runner = f
	svc.setPath("/repo")

	if _, err := svc.Status(); err != nil {
		t.Fatalf("Status: %v", err)
	}
	if len(messages) != 1 || !strings.Contains(messages[0], "status --porcelain=v1 -b") {
		t.Fatalf("messages = %q", messages)
	}
}
