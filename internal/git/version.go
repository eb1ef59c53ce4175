package git

import (
	"fmt"
	"strconv"
	"strings"
)

// minGitVersion is the oldest git the argument templates support; the
// newest subcommand the engine issues, branch --show-current, arrived in
// 2.22.
var minGitVersion = gitVersion{major: 2, minor: 22}

type gitVersion struct {
	major int
	minor int
	patch int
}

func (v gitVersion) String() string {
	return fmt.Sprintf("%d.%d.%d", v.major, v.minor, v.patch)
}

func (v gitVersion) less(other gitVersion) bool {
	if v.major != other.major {
		return v.major < other.major
	}
	if v.minor != other.minor {
		return v.minor < other.minor
	}
	return v.patch < other.patch
}

// MinGitVersion returns the oldest supported git version.
func MinGitVersion() string {
	return minGitVersion.String()
}

// Version reports the installed git's version, e.g. "2.44.0".
func (s *Service) Version() (string, error) {
	v, err := s.probeVersion()
	if err != nil {
		return "", err
	}
	return v.String(), nil
}

// CheckVersion fails when the installed git predates MinGitVersion.
func (s *Service) CheckVersion() error {
	v, err := s.probeVersion()
	if err != nil {
		return err
	}
	if v.less(minGitVersion) {
		return fmt.Errorf("git %s is too old; need at least %s", v, minGitVersion)
	}
	return nil
}

func (s *Service) probeVersion() (gitVersion, error) {
	out := s.executeAt("version", "", s.timeout, nil, []string{"--version"})
	if err := out.Err(); err != nil {
		return gitVersion{}, fmt.Errorf("git version: %w", err)
	}
	v, ok := parseGitVersion(out.Output)
	if !ok {
		return gitVersion{}, fmt.Errorf("git version: unreadable output %q", strings.TrimSpace(out.Output))
	}
	return v, nil
}

// parseGitVersion extracts the numeric version from `git --version` output,
// tolerating vendor decorations: "git version 2.39.3 (Apple Git-146)",
// "git version 2.39.3.windows.1".
func parseGitVersion(out string) (gitVersion, bool) {
	s := strings.TrimSpace(out)
	if i := strings.Index(s, "git version"); i >= 0 {
		s = strings.TrimSpace(s[i+len("git version"):])
	}
	start := strings.IndexFunc(s, func(r rune) bool { return r >= '0' && r <= '9' })
	if start < 0 {
		return gitVersion{}, false
	}
	s = s[start:]
	end := 0
	for end < len(s) && (s[end] == '.' || (s[end] >= '0' && s[end] <= '9')) {
		end++
	}
	parts := strings.Split(strings.Trim(s[:end], "."), ".")
	if len(parts) < 2 {
		return gitVersion{}, false
	}
	major, err := strconv.Atoi(parts[0])
	if err != nil {
		return gitVersion{}, false
	}
	minor, err := strconv.Atoi(parts[1])
	if err != nil {
		return gitVersion{}, false
	}
	v := gitVersion{major: major, minor: minor}
	if len(parts) >= 3 {
		if patch, err := strconv.Atoi(parts[2]); err == nil {
			v.patch = patch
		}
	}
	return v, true
}
