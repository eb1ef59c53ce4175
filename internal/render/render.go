// Package render converts parsed diffs into ANSI-colored terminal text,
// with optional syntax highlighting of code lines.
package render

import (
	"fmt"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"

	"github.com/repolens/repolens/internal/git"
)

const (
	ansiReset = "\x1b[0m"
	ansiBold  = "\x1b[1m"
	ansiDim   = "\x1b[2m"
	ansiRed   = "\x1b[31m"
	ansiGreen = "\x1b[32m"
	ansiCyan  = "\x1b[36m"
)

// Renderer writes diffs as terminal text. Construct with New; the options
// control color and highlighting.
type Renderer struct {
	color     bool
	highlight bool
	style     *chroma.Style
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithColor toggles ANSI escape output. Off produces plain unified-diff
// text.
func WithColor(on bool) Option {
	return func(r *Renderer) { r.color = on }
}

// WithHighlight toggles syntax highlighting of context lines. It has no
// effect when color is off.
func WithHighlight(on bool) Option {
	return func(r *Renderer) { r.highlight = on }
}

// WithStyle selects the chroma style by name; unknown names keep the
// default.
func WithStyle(name string) Option {
	return func(r *Renderer) {
		if st := styles.Get(name); st != nil && st != styles.Fallback {
			r.style = st
		}
	}
}

func New(opts ...Option) *Renderer {
	r := &Renderer{color: true, highlight: true}
	for _, opt := range opts {
		opt(r)
	}
	if r.style == nil {
		if st := styles.Get("github-dark"); st != nil {
			r.style = st
		} else {
			r.style = styles.Fallback
		}
	}
	return r
}

// Diffs renders a sequence of diffs separated by blank lines.
func (r *Renderer) Diffs(diffs []git.Diff) string {
	parts := make([]string, 0, len(diffs))
	for _, d := range diffs {
		parts = append(parts, r.Diff(d))
	}
	return strings.Join(parts, "\n")
}

// Diff renders one parsed diff: a file heading, then each hunk with its
// header and lines.
func (r *Renderer) Diff(d git.Diff) string {
	var b strings.Builder
	b.WriteString(r.paint(ansiBold, fileHeading(d)))
	b.WriteByte('\n')
	if d.IsBinary {
		b.WriteString(r.paint(ansiDim, "binary file differs"))
		b.WriteByte('\n')
		return b.String()
	}
	lexer := r.lexerFor(d.Path)
	for _, h := range d.Hunks {
		b.WriteString(r.paint(ansiCyan, h.Header))
		b.WriteByte('\n')
		for _, line := range h.Lines {
			r.writeLine(&b, lexer, line)
		}
	}
	return b.String()
}

func (r *Renderer) writeLine(b *strings.Builder, lexer chroma.Lexer, line git.DiffLine) {
	switch line.Kind {
	case git.LineAddition:
		b.WriteString(r.paint(ansiGreen, "+"+line.Content))
	case git.LineDeletion:
		b.WriteString(r.paint(ansiRed, "-"+line.Content))
	case git.LineHeader:
		b.WriteString(r.paint(ansiDim, line.Content))
	default:
		content := line.Content
		if r.color && r.highlight && lexer != nil {
			content = r.highlightCode(lexer, content)
		}
		b.WriteString(" " + content)
	}
	b.WriteByte('\n')
}

// fileHeading names the file with its state markers, showing the rename
// source when one exists.
func fileHeading(d git.Diff) string {
	name := d.Path
	if d.OldPath != "" && d.OldPath != d.Path {
		name = d.OldPath + " -> " + d.Path
	}
	switch {
	case d.IsNew:
		return name + " (new)"
	case d.IsDeleted:
		return name + " (deleted)"
	default:
		return name
	}
}

func (r *Renderer) paint(code, s string) string {
	if !r.color || s == "" {
		return s
	}
	return code + s + ansiReset
}

func (r *Renderer) lexerFor(path string) chroma.Lexer {
	if !r.color || !r.highlight || path == "" {
		return nil
	}
	lexer := lexers.Match(path)
	if lexer == nil {
		lexer = lexers.Fallback
	}
	return chroma.Coalesce(lexer)
}

// highlightCode recolors one code line token by token. Tokenization failure
// leaves the line unstyled.
func (r *Renderer) highlightCode(lexer chroma.Lexer, code string) string {
	if code == "" {
		return code
	}
	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return code
	}
	var b strings.Builder
	for _, token := range iterator.Tokens() {
		// the lexer appends a newline the input line never had
		value := strings.TrimSuffix(token.Value, "\n")
		if value == "" {
			continue
		}
		entry := r.style.Get(token.Type)
		if !entry.Colour.IsSet() {
			b.WriteString(value)
			continue
		}
		fmt.Fprintf(&b, "\x1b[38;2;%d;%d;%dm%s%s",
			entry.Colour.Red(), entry.Colour.Green(), entry.Colour.Blue(),
			value, ansiReset)
	}
	return b.String()
}
