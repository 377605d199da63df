package mixin

import (
	"context"
	"errors"
	"slices"
	"strings"
)

// Request carries everything a strategy needs to launch foreign code that
// has already been written into the sandbox.
type Request struct {
	Name     string
	Span     Span
	Options  *Options
	Dir      string
	File     MaterializedFile
	Runner   Runner
	Reporter Reporter
}

// Outcome is the result of launching a strategy. It is either Interpreted
// or Compiled.
type Outcome interface {
	outcome()
}

// Interpreted is the result of running the code directly.
type Interpreted struct {
	Result ProcessResult
}

// Compiled is the result of the compile step. Artifact is the path of the
// program the compiler was asked to produce.
type Compiled struct {
	Result   ProcessResult
	Artifact string
}

func (Interpreted) outcome() {}
func (Compiled) outcome()    {}

// Strategy turns a materialized file into an Outcome.
type Strategy interface {
	// Launch validates req.Options, reporting problems on req.Reporter, and
	// runs the first process.
	Launch(ctx context.Context, req Request) (Outcome, error)
	// Plan returns the commands Launch would run, without reporting.
	Plan(opts *Options, file string) ([]Command, error)
	// Describe is a one-line summary for listings.
	Describe() string
}

var (
	errMissingInterpreter  = errors.New("missing option `interpreter`")
	errRepeatedInterpreter = errors.New("option `interpreter` specified multiple times")
)

// Interpreter runs the materialized file with an interpreter. With Binary
// empty the interpreter comes from the `interpreter` option.
type Interpreter struct {
	Binary string
	Args   []string
}

func (i Interpreter) known() []string {
	if i.Binary == "" {
		return []string{"interpreter", "arg"}
	}
	return []string{"arg"}
}

func (i Interpreter) binary(opts *Options) (string, error) {
	if i.Binary != "" {
		return i.Binary, nil
	}
	if v, ok := opts.Single("interpreter"); ok {
		return v.Value, nil
	}
	if opts.Has("interpreter") {
		return "", errRepeatedInterpreter
	}
	return "", errMissingInterpreter
}

func (i Interpreter) args(opts *Options) []string {
	return append(slices.Clone(i.Args), opts.Values("arg")...)
}

func (i Interpreter) Plan(opts *Options, file string) ([]Command, error) {
	bin, err := i.binary(opts)
	if err != nil {
		return nil, err
	}
	return []Command{{Binary: bin, Args: i.args(opts), Input: file}}, nil
}

func (i Interpreter) Launch(ctx context.Context, req Request) (Outcome, error) {
	reportUnknownOptions(req, i.known())

	bin, err := i.binary(req.Options)
	switch {
	case errors.Is(err, errMissingInterpreter):
		errorf(req.Reporter, req.Span, "`%s!`: %s", req.Name, err)
		return nil, ErrInvalidOptions
	case errors.Is(err, errRepeatedInterpreter):
		var notes []Note
		for _, occ := range req.Options.Get("interpreter") {
			notes = append(notes, Note{Span: occ.Span, Message: "specified here"})
		}
		reportf(req.Reporter, SeverityError, req.Span, notes, "`%s!`: %s", req.Name, err)
		return nil, ErrInvalidOptions
	}

	res, err := req.Runner.Run(ctx, Command{
		Binary: bin,
		Args:   i.args(req.Options),
		Input:  req.File.Name,
		Dir:    req.Dir,
	})
	if err != nil {
		reportLaunchError(req.Reporter, req.Span, req.Name, err)
		return nil, err
	}
	return Interpreted{Result: res}, nil
}

func (i Interpreter) Describe() string {
	bin := i.Binary
	if bin == "" {
		bin = "<interpreter>"
	}
	return commandLine(bin, i.Args, "[arg...]", "<file>")
}

// Compiler compiles the materialized file into Artifact, which the engine
// then runs. The command line is
//
//	Binary Args... <arg options>... OutputFlag Artifact <file>
type Compiler struct {
	Binary     string
	Args       []string
	OutputFlag string
	Artifact   string
}

func (c Compiler) outputFlag() string {
	if c.OutputFlag == "" {
		return "-o"
	}
	return c.OutputFlag
}

func (c Compiler) args(opts *Options) []string {
	args := append(slices.Clone(c.Args), opts.Values("arg")...)
	return append(args, c.outputFlag(), c.Artifact)
}

func (c Compiler) Plan(opts *Options, file string) ([]Command, error) {
	return []Command{
		{Binary: c.Binary, Args: c.args(opts), Input: file},
		{Binary: "./" + c.Artifact},
	}, nil
}

func (c Compiler) Launch(ctx context.Context, req Request) (Outcome, error) {
	reportUnknownOptions(req, []string{"arg"})
	res, err := req.Runner.Run(ctx, Command{
		Binary: c.Binary,
		Args:   c.args(req.Options),
		Input:  req.File.Name,
		Dir:    req.Dir,
	})
	if err != nil {
		reportLaunchError(req.Reporter, req.Span, req.Name, err)
		return nil, err
	}
	return Compiled{Result: res, Artifact: c.Artifact}, nil
}

func (c Compiler) Describe() string {
	fixed := append(slices.Clone(c.Args), "[arg...]", c.outputFlag(), c.Artifact)
	return commandLine(c.Binary, fixed, "<file>") + " && ./" + c.Artifact
}

// reportUnknownOptions reports one error per occurrence of a key outside
// known. Unknown keys do not stop the expansion.
func reportUnknownOptions(req Request, known []string) {
	for _, key := range req.Options.Keys() {
		if slices.Contains(known, key) {
			continue
		}
		for _, occ := range req.Options.Get(key) {
			errorf(req.Reporter, occ.Span, "`%s!`: unknown option `%s`", req.Name, key)
		}
	}
}

func reportLaunchError(r Reporter, span Span, name string, err error) {
	errorf(r, span, "`%s!`: %v", name, err)
}

func commandLine(bin string, parts ...any) string {
	var b strings.Builder
	b.WriteString(bin)
	for _, p := range parts {
		switch v := p.(type) {
		case string:
			b.WriteString(" " + v)
		case []string:
			for _, s := range v {
				b.WriteString(" " + s)
			}
		}
	}
	return b.String()
}
