package git

import (
	"bytes"
	"regexp"
	"strings"
)

// progressRegex matches the counting lines git emits under --progress:
// "Receiving objects:  42% (52/123), 1.2 MiB | 2.3 MiB/s". The percentage
// is redundant with the raw counts and is ignored.
var progressRegex = regexp.MustCompile(`([A-Za-z][A-Za-z -]*):\s+\d+% \((\d+)/(\d+)\)`)

// progressWriter tees a child's stderr and extracts progress updates.
// git redraws progress in place with carriage returns, so chunks split on
// both \r and \n; a partial line is buffered until its terminator arrives.
type progressWriter struct {
	fn  ProgressFunc
	buf []byte
}

func newProgressWriter(fn ProgressFunc) *progressWriter {
	return &progressWriter{fn: fn}
}

func (w *progressWriter) Write(p []byte) (int, error) {
	w.buf = append(w.buf, p...)
	for {
		i := bytes.IndexAny(w.buf, "\r\n")
		if i < 0 {
			break
		}
		line := string(w.buf[:i])
		w.buf = w.buf[i+1:]
		w.report(line)
	}
	return len(p), nil
}

func (w *progressWriter) report(line string) {
	if phase, current, total, ok := ParseCloneProgress(line); ok {
		w.fn(phase, current, total)
	}
}

// ParseCloneProgress extracts one (phase, current, total) triple from a
// progress line, reporting ok=false for lines that carry none.
func ParseCloneProgress(line string) (phase string, current, total int, ok bool) {
	line = strings.TrimPrefix(strings.TrimSpace(line), "remote: ")
	m := progressRegex.FindStringSubmatch(line)
	if m == nil {
		return "", 0, 0, false
	}
	return strings.TrimSpace(m[1]), atoiSafe(m[2]), atoiSafe(m[3]), true
}
