package mixin

import (
	"fmt"
	"sync"
	"sync/atomic"
)

type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
	SeverityNote
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return "note"
	}
}

// Note is a secondary message attached to a diagnostic. A note without a
// valid span is shown at the parent diagnostic's location.
type Note struct {
	Span    Span
	Message string
}

// Diagnostic is a message bound to a source span.
type Diagnostic struct {
	Severity Severity
	Span     Span
	Message  string
	Notes    []Note
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %s: %s", d.Span, d.Severity, d.Message)
}

// Reporter receives diagnostics. Implementations must be safe for
// concurrent use when expansions run in parallel.
type Reporter interface {
	Report(Diagnostic)
}

// ReporterFunc adapts a function to the Reporter interface.
type ReporterFunc func(Diagnostic)

func (f ReporterFunc) Report(d Diagnostic) { f(d) }

// Collector is a Reporter that keeps every diagnostic it receives.
type Collector struct {
	mu    sync.Mutex
	diags []Diagnostic
}

func (c *Collector) Report(d Diagnostic) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.diags = append(c.diags, d)
}

// Diagnostics returns a copy of everything reported so far.
func (c *Collector) Diagnostics() []Diagnostic {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Diagnostic, len(c.diags))
	copy(out, c.diags)
	return out
}

func (c *Collector) count(sev Severity) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, d := range c.diags {
		if d.Severity == sev {
			n++
		}
	}
	return n
}

func (c *Collector) Errors() int   { return c.count(SeverityError) }
func (c *Collector) Warnings() int { return c.count(SeverityWarning) }

// ErrorCounter forwards diagnostics to R, which may be nil, and counts the
// errors among them.
type ErrorCounter struct {
	R      Reporter
	errors atomic.Int64
}

func (c *ErrorCounter) Report(d Diagnostic) {
	if d.Severity == SeverityError {
		c.errors.Add(1)
	}
	if c.R != nil {
		c.R.Report(d)
	}
}

func (c *ErrorCounter) Errors() int { return int(c.errors.Load()) }

// Err returns an error wrapping ErrExpansionFailed if any error was
// counted.
func (c *ErrorCounter) Err() error {
	if n := c.Errors(); n > 0 {
		return fmt.Errorf("%w: %d error(s) reported", ErrExpansionFailed, n)
	}
	return nil
}

func reportf(r Reporter, sev Severity, span Span, notes []Note, format string, args ...any) {
	if r == nil {
		return
	}
	r.Report(Diagnostic{
		Severity: sev,
		Span:     span,
		Message:  fmt.Sprintf(format, args...),
		Notes:    notes,
	})
}

func errorf(r Reporter, span Span, format string, args ...any) {
	reportf(r, SeverityError, span, nil, format, args...)
}
