// Package buildinfo exposes the version the Go toolchain recorded in the
// binary.
package buildinfo

import (
	"fmt"
	"runtime/debug"
)

// Version returns the module version, or "dev" for local builds.
func Version() string {
	info, ok := debug.ReadBuildInfo()
	if !ok || info == nil {
		return "dev"
	}
	version := info.Main.Version
	if version == "" || version == "(devel)" {
		return "dev"
	}
	return version
}

// Revision returns the VCS revision stamped into the binary, shortened to
// twelve characters, with a "-dirty" suffix when the tree had local
// modifications. Empty when the binary was built outside version control.
func Revision() string {
	info, ok := debug.ReadBuildInfo()
	if !ok || info == nil {
		return ""
	}
	var revision string
	var dirty bool
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			revision = setting.Value
		case "vcs.modified":
			dirty = setting.Value == "true"
		}
	}
	if revision == "" {
		return ""
	}
	if len(revision) > 12 {
		revision = revision[:12]
	}
	if dirty {
		revision += "-dirty"
	}
	return revision
}

// Describe combines version and revision for display.
func Describe() string {
	version := Version()
	if revision := Revision(); revision != "" {
		return fmt.Sprintf("%s (%s)", version, revision)
	}
	return version
}
