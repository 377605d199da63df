package gohost

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/huonw/external-mixin/pkg/mixin"
)

// echoRunner plays an interpreter that prints its source file unchanged.
type echoRunner struct{}

func (echoRunner) Run(_ context.Context, c mixin.Command) (mixin.ProcessResult, error) {
	data, err := os.ReadFile(filepath.Join(c.Dir, c.Input))
	if err != nil {
		return mixin.ProcessResult{}, &mixin.LaunchError{Binary: c.Binary, Err: err}
	}
	return mixin.ProcessResult{Status: mixin.ExitCode(0), Stdout: data}, nil
}

func newTestExpander(t *testing.T) (*Expander, *mixin.Collector) {
	t.Helper()
	reg := mixin.NewRegistry()
	cfg := mixin.Config{SandboxRoot: t.TempDir(), Runner: echoRunner{}}
	if err := reg.Register(mixin.Definition{Name: "echo_mixin", Strategy: mixin.Interpreter{Binary: "cat"}}, cfg); err != nil {
		t.Fatalf("Register: %v", err)
	}
	t.Cleanup(func() { _ = reg.Close() })
	c := &mixin.Collector{}
	return NewExpander(reg, c), c
}

func mustContain(t *testing.T, got string, subs ...string) {
	t.Helper()
	for _, sub := range subs {
		if !strings.Contains(got, sub) {
			t.Fatalf("expected %q to contain %q", got, sub)
		}
	}
}

func materialize(t *testing.T, text string, shape mixin.Shape, members MemberKind) (mixin.Fragment, *mixin.Collector, error) {
	t.Helper()
	c := &mixin.Collector{}
	d := mixin.NewDeferred("<gen.go.in:1 echo_mixin!>", text, mixin.Span{Filename: "gen.go.in", Line: 1}, NewParserFunc(members))
	frag, err := d.Materialize(shape, c)
	return frag, c, err
}
