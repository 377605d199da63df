package mixin

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/huonw/external-mixin/pkg/ctxlog"
)

// Invocation is one `name! {header} body` call site as host tokens.
// Header excludes the braces and is only meaningful when HasHeader is set.
type Invocation struct {
	Span      Span
	Header    []Token
	HasHeader bool
	Body      []Token
}

// Definition describes a named extension.
type Definition struct {
	Name        string
	Description string
	Strategy    Strategy
	// SourceExt is appended to the materialized file name when missing.
	SourceExt string
}

// Config holds the settings shared by registered extensions.
type Config struct {
	// SandboxRoot is where sandboxes are created; empty means os.TempDir.
	SandboxRoot string
	// Runner defaults to ExecRunner.
	Runner Runner
}

// Extension is a registered definition bound to its sandbox. Invocations of
// one extension are serialized: they share a file slot and, for compiled
// strategies, a fixed artifact name.
type Extension struct {
	def     Definition
	sandbox *Sandbox
	runner  Runner
	mu      sync.Mutex
}

// New creates the extension's sandbox.
func New(def Definition, cfg Config) (*Extension, error) {
	sb, err := NewSandbox(def.Name, cfg.SandboxRoot)
	if err != nil {
		return nil, fmt.Errorf("`%s!`: %w", def.Name, err)
	}
	runner := cfg.Runner
	if runner == nil {
		runner = ExecRunner{}
	}
	return &Extension{def: def, sandbox: sb, runner: runner}, nil
}

func (e *Extension) Name() string           { return e.def.Name }
func (e *Extension) Definition() Definition { return e.def }
func (e *Extension) SandboxDir() string     { return e.sandbox.Dir() }

// Close removes the sandbox.
func (e *Extension) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sandbox.Close()
}

// Expand runs the invocation's foreign code and returns its output ready for
// reparsing. Every failure is reported on r before Expand returns an error
// wrapping ErrExpansionFailed.
func (e *Extension) Expand(ctx context.Context, inv Invocation, r Reporter, newParser ParserFunc) (*Deferred, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	name := e.def.Name
	log := ctxlog.FromContext(ctx).With("extension", name, "site", inv.Span.String())

	opts := NewOptions()
	if inv.HasHeader {
		var err error
		if opts, err = ParseOptions(inv.Header, r); err != nil {
			return nil, fail(err)
		}
	}

	body, err := e.body(inv, r)
	if err != nil {
		return nil, fail(err)
	}

	file, err := e.sandbox.Materialize(inv.Span.Filename, body.Span.Line, e.def.SourceExt, body.Value)
	if err != nil {
		errorf(r, inv.Span, "`%s!`: %v", name, err)
		return nil, fail(err)
	}
	log.Debug("materialized mixin source", "path", file.Path, "first_line", body.Span.Line)

	runner := loggedRunner{inner: e.runner, log: log}
	out, err := e.def.Strategy.Launch(ctx, Request{
		Name:     name,
		Span:     inv.Span,
		Options:  opts,
		Dir:      e.sandbox.Dir(),
		File:     file,
		Runner:   runner,
		Reporter: r,
	})
	if err != nil {
		return nil, fail(err)
	}

	stdout, err := e.finalize(ctx, runner, inv.Span, r, out)
	if err != nil {
		return nil, fail(err)
	}

	if !utf8.Valid(stdout) {
		errorf(r, inv.Span, "`%s!`: emitted invalid UTF-8: invalid byte at offset %d", name, invalidUTF8Offset(stdout))
		return nil, fail(ErrInvalidUTF8)
	}

	synthetic := fmt.Sprintf("<%s:%d %s!>", inv.Span.Filename, body.Span.Line, name)
	return NewDeferred(synthetic, string(stdout), inv.Span, newParser), nil
}

// body checks that the invocation body is exactly one string literal.
func (e *Extension) body(inv Invocation, r Reporter) (Token, error) {
	if len(inv.Body) != 1 {
		errorf(r, inv.Span, "`%s!` takes 1 argument", e.def.Name)
		return Token{}, ErrInvalidInvocation
	}
	tok := inv.Body[0]
	if tok.Kind != String {
		errorf(r, tok.Span, "`%s!`: expected a string literal, found %s", e.def.Name, tok.Describe())
		return Token{}, ErrInvalidInvocation
	}
	return tok, nil
}

// finalize classifies an outcome. A compiled outcome is only terminal once
// its artifact has run.
func (e *Extension) finalize(ctx context.Context, runner Runner, span Span, r Reporter, out Outcome) ([]byte, error) {
	switch o := out.(type) {
	case Interpreted:
		return Classify(r, span, e.def.Name, StageCode, o.Result)
	case Compiled:
		if _, err := Classify(r, span, e.def.Name, StageCompiler, o.Result); err != nil {
			return nil, err
		}
		res, err := runner.Run(ctx, Command{
			Binary: filepath.Join(e.sandbox.Dir(), o.Artifact),
			Dir:    e.sandbox.Dir(),
		})
		if err != nil {
			reportLaunchError(r, span, e.def.Name, err)
			return nil, err
		}
		return Classify(r, span, e.def.Name, StageBinary, res)
	}
	return nil, fmt.Errorf("unexpected outcome %T", out)
}

func fail(err error) error {
	return fmt.Errorf("%w: %w", ErrExpansionFailed, err)
}

func invalidUTF8Offset(b []byte) int {
	for i := 0; i < len(b); {
		r, size := utf8.DecodeRune(b[i:])
		if r == utf8.RuneError && size <= 1 {
			return i
		}
		i += size
	}
	return len(b)
}

type loggedRunner struct {
	inner Runner
	log   *slog.Logger
}

func (l loggedRunner) Run(ctx context.Context, c Command) (ProcessResult, error) {
	start := time.Now()
	res, err := l.inner.Run(ctx, c)
	if err != nil {
		l.log.Debug("process did not start", "binary", c.Binary, "args", c.Argv(), "error", err)
		return res, err
	}
	l.log.Debug("process finished",
		"binary", c.Binary,
		"args", c.Argv(),
		"status", res.Status.String(),
		"stdout_bytes", len(res.Stdout),
		"stderr_bytes", len(res.Stderr),
		"duration", time.Since(start),
	)
	return res, nil
}
