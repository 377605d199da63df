package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/huonw/external-mixin/pkg/mixin"
)

var (
	styleSevError = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("196"))

	styleSevWarning = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("214"))

	styleSevNote = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("99"))

	styleLocation = lipgloss.NewStyle().Bold(true)

	styleGutter = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))
)

func severityStyle(s mixin.Severity) lipgloss.Style {
	switch s {
	case mixin.SeverityError:
		return styleSevError
	case mixin.SeverityWarning:
		return styleSevWarning
	}
	return styleSevNote
}

// sourceCache holds source lines for snippets, keyed by file name.
type sourceCache struct {
	mu    sync.Mutex
	files map[string][]string
}

func (c *sourceCache) add(name string, src []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.files == nil {
		c.files = map[string][]string{}
	}
	c.files[name] = strings.Split(string(src), "\n")
}

// line returns the 1-based line n of name, reading the file on first use.
func (c *sourceCache) line(name string, n int) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.files == nil {
		c.files = map[string][]string{}
	}
	lines, ok := c.files[name]
	if !ok {
		data, err := os.ReadFile(name)
		if err == nil {
			lines = strings.Split(string(data), "\n")
		}
		c.files[name] = lines
	}
	if n < 1 || n > len(lines) {
		return "", false
	}
	return lines[n-1], true
}

// renderDiagnostic formats d as
//
//	file:line:col: error: message
//	   3 | x := python_mixin! `...`
//	     |      ^^^^^^^^^^^^^
//	  note: file:line:col: specified here
func renderDiagnostic(d mixin.Diagnostic, src *sourceCache) string {
	var b strings.Builder
	sev := severityStyle(d.Severity).Render(d.Severity.String() + ":")
	if d.Span.Filename != "" {
		fmt.Fprintf(&b, "%s %s %s\n", styleLocation.Render(d.Span.String()+":"), sev, d.Message)
	} else {
		fmt.Fprintf(&b, "%s %s\n", sev, d.Message)
	}
	b.WriteString(snippet(d.Span, src))
	for _, n := range d.Notes {
		label := styleSevNote.Render("note:")
		if n.Span.IsValid() && n.Span != d.Span {
			fmt.Fprintf(&b, "  %s %s: %s\n", label, n.Span, n.Message)
			b.WriteString(snippet(n.Span, src))
			continue
		}
		fmt.Fprintf(&b, "  %s %s\n", label, n.Message)
	}
	return b.String()
}

// snippet renders the source line of span with carets under the spanned
// bytes. It is empty when the line is unavailable.
func snippet(span mixin.Span, src *sourceCache) string {
	if src == nil || span.Filename == "" || span.Line < 1 {
		return ""
	}
	text, ok := src.line(span.Filename, span.Line)
	if !ok {
		return ""
	}
	col := max(span.Column, 1)
	if col > len(text)+1 {
		col = len(text) + 1
	}
	width := 1
	if span.End > span.Offset {
		width = min(span.End-span.Offset, len(text)-col+1)
		width = max(width, 1)
	}

	// Keep tabs so the carets line up under tab-indented source.
	var pad strings.Builder
	for _, r := range text[:col-1] {
		if r == '\t' {
			pad.WriteRune('\t')
		} else {
			pad.WriteByte(' ')
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", styleGutter.Render(fmt.Sprintf("%4d |", span.Line)), text)
	fmt.Fprintf(&b, "%s %s%s\n", styleGutter.Render("     |"), pad.String(), strings.Repeat("^", width))
	return b.String()
}

// diagPrinter is a mixin.Reporter that writes diagnostics as they arrive
// and counts them.
type diagPrinter struct {
	mu       sync.Mutex
	w        io.Writer
	src      sourceCache
	errors   int
	warnings int
}

func newDiagPrinter(w io.Writer) *diagPrinter {
	return &diagPrinter{w: w}
}

func (p *diagPrinter) Report(d mixin.Diagnostic) {
	out := renderDiagnostic(d, &p.src)
	p.mu.Lock()
	defer p.mu.Unlock()
	switch d.Severity {
	case mixin.SeverityError:
		p.errors++
	case mixin.SeverityWarning:
		p.warnings++
	}
	fmt.Fprint(p.w, out)
}

// addSource makes src available for snippets of name, for sources that
// are not files on disk.
func (p *diagPrinter) addSource(name string, src []byte) {
	p.src.add(name, src)
}

func (p *diagPrinter) Errors() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.errors
}

// summary returns a one-line error count, or nil when nothing failed.
func (p *diagPrinter) summary() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.errors == 0 {
		return nil
	}
	return fmt.Errorf("aborting due to %d previous error(s)", p.errors)
}
