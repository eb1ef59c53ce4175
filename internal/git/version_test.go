package git

import (
	"strings"
	"testing"
)

func TestParseGitVersion(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want gitVersion
		ok   bool
	}{
		{name: "empty", in: "", ok: false},
		{name: "plain", in: "git version 2.44.0\n", want: gitVersion{major: 2, minor: 44}, ok: true},
		{name: "apple_git", in: "git version 2.39.3 (Apple Git-146)\n", want: gitVersion{major: 2, minor: 39, patch: 3}, ok: true},
		{name: "windows_suffix", in: "git version 2.39.3.windows.1\n", want: gitVersion{major: 2, minor: 39, patch: 3}, ok: true},
		{name: "bare_number", in: "2.42.1\n", want: gitVersion{major: 2, minor: 42, patch: 1}, ok: true},
		{name: "no_patch", in: "git version 2.42\n", want: gitVersion{major: 2, minor: 42}, ok: true},
		{name: "not_a_version", in: "git version something\n", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, ok := parseGitVersion(tt.in)
			if ok != tt.ok {
				t.Fatalf("parseGitVersion(%q) ok = %v, want %v", tt.in, ok, tt.ok)
			}
			if ok && got != tt.want {
				t.Fatalf("parseGitVersion(%q) = %+v, want %+v", tt.in, got, tt.want)
			}
		})
	}
}

func TestVersion(t *testing.T) {
	t.Parallel()

	f := newFakeRunner()
	f.stub("--version", 0, "git version 2.44.0\n", "")
	svc := newFakeService(f)

	got, err := svc.Version()
	if err != nil {
		t.Fatalf("Version: %v", err)
	}
	if got != "2.44.0" {
		t.Errorf("Version = %q, want 2.44.0", got)
	}
	if err := svc.CheckVersion(); err != nil {
		t.Errorf("CheckVersion: %v", err)
	}
}

func TestCheckVersionTooOld(t *testing.T) {
	t.Parallel()

	f := newFakeRunner()
	f.stub("--version", 0, "git version 2.21.0\n", "")
	svc := newFakeService(f)

	err := svc.CheckVersion()
	if err == nil {
		t.Fatal("expected error for old git")
	}
	if !strings.Contains(err.Error(), MinGitVersion()) {
		t.Errorf("err = %v, want mention of %s", err, MinGitVersion())
	}
}
