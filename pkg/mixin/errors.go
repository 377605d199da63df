package mixin

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrExpansionFailed     = errors.New("mixin expansion failed")
	ErrInvalidOptions      = errors.New("invalid mixin options")
	ErrInvalidInvocation   = errors.New("invalid mixin invocation")
	ErrProcessFailed       = errors.New("mixin process failed")
	ErrInvalidUTF8         = errors.New("mixin output is not valid UTF-8")
	ErrReparse             = errors.New("mixin output does not parse")
	ErrAlreadyMaterialized = errors.New("mixin output already materialized")
	ErrDuplicateExtension  = errors.New("duplicate extension")
	ErrUnknownShape        = errors.New("unknown shape")
)

// LaunchError reports that an external program could not be started.
type LaunchError struct {
	Binary string
	Args   []string
	Err    error
}

func (e *LaunchError) Error() string {
	if len(e.Args) == 0 {
		return fmt.Sprintf("could not execute `%s`: %v", e.Binary, e.Err)
	}
	quoted := make([]string, len(e.Args))
	for i, a := range e.Args {
		quoted[i] = "`" + a + "`"
	}
	plural := ""
	if len(e.Args) > 1 {
		plural = "s"
	}
	return fmt.Sprintf("could not execute `%s` with argument%s %s: %v",
		e.Binary, plural, strings.Join(quoted, ", "), e.Err)
}

func (e *LaunchError) Unwrap() error { return e.Err }

// SandboxError reports a failure to prepare the scratch directory or the
// materialized source file.
type SandboxError struct {
	Op   string
	Path string
	Err  error
}

func (e *SandboxError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s `%s`: %v", e.Op, e.Path, e.Err)
}

func (e *SandboxError) Unwrap() error { return e.Err }

// SyntaxError is returned by host parsers for malformed input.
type SyntaxError struct {
	Span    Span
	Message string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s: %s", e.Span, e.Message)
}
