package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/huonw/external-mixin/pkg/gohost"
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

func newTestRegistry(t *testing.T, defs ...mixin.Definition) *mixin.Registry {
	t.Helper()
	reg := mixin.NewRegistry()
	cfg := mixin.Config{SandboxRoot: t.TempDir(), Runner: echoRunner{}}
	for _, def := range defs {
		if err := reg.Register(def, cfg); err != nil {
			t.Fatalf("Register: %v", err)
		}
	}
	t.Cleanup(func() { _ = reg.Close() })
	return reg
}

func TestHeaderTokens(t *testing.T) {
	span := mixin.Span{Filename: "snippet", Line: 1, Column: 1}
	toks, err := headerTokens([]string{"interpreter=ruby", "arg=-w", "arg=a=b"}, span)
	if err != nil {
		t.Fatalf("headerTokens: %v", err)
	}
	opts, err := mixin.ParseOptions(toks, &mixin.Collector{})
	if err != nil {
		t.Fatalf("ParseOptions: %v", err)
	}
	if v, _ := opts.Single("interpreter"); v.Value != "ruby" {
		t.Fatalf("interpreter = %q", v.Value)
	}
	if got := opts.Values("arg"); !reflect.DeepEqual(got, []string{"-w", "a=b"}) {
		t.Fatalf("arg = %v", got)
	}

	for _, bad := range []string{"novalue", "=x"} {
		if _, err := headerTokens([]string{bad}, span); err == nil {
			t.Errorf("headerTokens(%q): expected error", bad)
		}
	}
}

func TestSnippetInvocation_Expands(t *testing.T) {
	reg := newTestRegistry(t, mixin.Definition{Name: "echo_mixin", Strategy: mixin.Interpreter{Binary: "cat"}})
	ext, _ := reg.Lookup("echo_mixin")
	c := &mixin.Collector{}

	inv := snippetInvocation("1 + 2", nil, "snippet", 4)
	if inv.HasHeader {
		t.Fatal("no header expected")
	}
	d, err := ext.Expand(context.Background(), inv, c, gohost.NewParserFunc(gohost.StructMembers))
	if err != nil {
		t.Fatalf("Expand: %v (%v)", err, c.Diagnostics())
	}
	frag, err := d.Materialize(mixin.ShapeExpression, c)
	if err != nil {
		t.Fatalf("Materialize: %v", err)
	}
	if got := gohost.Render(frag); got != "(1 + 2)" {
		t.Fatalf("Render = %q", got)
	}
}

func TestExpandSnippet(t *testing.T) {
	reg := newTestRegistry(t, mixin.Definition{Name: "echo_mixin", Strategy: mixin.Interpreter{Binary: "cat"}})
	ext, _ := reg.Lookup("echo_mixin")
	span := mixin.Span{Filename: "snippet", Line: 1, Column: 1}

	t.Run("clean", func(t *testing.T) {
		c := &mixin.Collector{}
		out, err := expandSnippet(context.Background(), ext, snippetInvocation("x", nil, "snippet", 1), mixin.ShapeExpression, gohost.StructMembers, c)
		if err != nil {
			t.Fatalf("expandSnippet: %v (%v)", err, c.Diagnostics())
		}
		if out != "x" {
			t.Fatalf("out = %q", out)
		}
	})

	t.Run("unknown option fails the snippet", func(t *testing.T) {
		header, err := headerTokens([]string{"foo=x"}, span)
		if err != nil {
			t.Fatal(err)
		}
		c := &mixin.Collector{}
		out, err := expandSnippet(context.Background(), ext, snippetInvocation("1", header, "snippet", 1), mixin.ShapeExpression, gohost.StructMembers, c)
		if !errors.Is(err, mixin.ErrExpansionFailed) {
			t.Fatalf("expected ErrExpansionFailed, got %v (out %q)", err, out)
		}
		if out != "" {
			t.Fatalf("nothing may be printed, got %q", out)
		}
		if c.Errors() != 1 {
			t.Fatalf("diagnostics = %v", c.Diagnostics())
		}
	})
}

func TestDryRunSites(t *testing.T) {
	reg := newTestRegistry(t,
		mixin.Definition{Name: "py_mixin", Strategy: mixin.Interpreter{Binary: "python3", Args: []string{"-u"}}},
		mixin.Definition{Name: "any_mixin", Strategy: mixin.Interpreter{}},
	)
	src := []byte("package p\n\nvar x = py_mixin! { arg = \"-B\" } `print(1)`\n\nany_mixin!items `print(1)`\n")
	c := &mixin.Collector{}
	sites, err := gohost.NewExpander(reg, c).Sites("gen.go.in", src)
	if err != nil {
		t.Fatalf("Sites: %v", err)
	}

	var buf bytes.Buffer
	dryRunSites(&buf, reg, c, "gen.go.in", sites)
	mustContain(t, buf.String(),
		"[dry-run] gen.go.in:3:9 py_mixin!",
		"shape:   expr\n",
		`options: arg="-B"`,
		"command: python3 -u -B ",
		"[dry-run] gen.go.in:5:1 any_mixin!",
		"shape:   items (explicit)",
		"error:   missing option `interpreter`",
	)
	if len(c.Diagnostics()) != 0 {
		t.Fatalf("dry run must not report: %v", c.Diagnostics())
	}
}

func TestCollectTemplates(t *testing.T) {
	dir := t.TempDir()
	for _, p := range []string{
		"a.go.in",
		"sub/b.go.in",
		".hidden/c.go.in",
		"vendor/d.go.in",
		"testdata/e.go.in",
		"plain.go",
	} {
		writeFile(t, filepath.Join(dir, p), "package p\n")
	}

	got, err := collectTemplates([]string{dir, filepath.Join(dir, "plain.go")})
	if err != nil {
		t.Fatalf("collectTemplates: %v", err)
	}
	want := []string{filepath.Join(dir, "a.go.in"), filepath.Join(dir, "sub", "b.go.in"), filepath.Join(dir, "plain.go")}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}

	if _, err := collectTemplates([]string{filepath.Join(dir, "missing")}); err == nil {
		t.Fatal("expected error for missing path")
	}
}

func TestCheckBinaries(t *testing.T) {
	defs := []mixin.Definition{
		{Name: "python_mixin", Strategy: mixin.Interpreter{Binary: "python3"}},
		{Name: "rust_mixin", Strategy: mixin.Compiler{Binary: "rustc", Artifact: "out"}},
		{Name: "external_mixin", Strategy: mixin.Interpreter{}},
	}
	lookPath := func(bin string) (string, error) {
		if bin == "python3" {
			return "/usr/bin/python3", nil
		}
		return "", errors.New("not found")
	}

	var buf bytes.Buffer
	missing := checkBinaries(&buf, defs, lookPath)
	if missing != 1 {
		t.Fatalf("missing = %d", missing)
	}
	mustContain(t, buf.String(), "/usr/bin/python3", "rustc not found", "interpreter chosen per invocation")
}

func TestPrintDefinitions(t *testing.T) {
	var buf bytes.Buffer
	printDefinitions(&buf, mixin.Builtins())
	mustContain(t, buf.String(),
		"NAME",
		"python_mixin",
		"interpreted",
		"rust_mixin",
		"compiled",
		"rustc --crate-name rust_mixin_output_binary",
	)
}

func TestListModel(t *testing.T) {
	defs := []mixin.Definition{
		{Name: "python_mixin", Description: "Run Python 3", Strategy: mixin.Interpreter{Binary: "python3"}},
		{Name: "external_mixin", Strategy: mixin.Interpreter{}},
	}
	var m tea.Model = newListModel(defs)

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if m.(listModel).state != stateDetail {
		t.Fatal("enter must open the detail view")
	}
	mustContain(t, m.View(), "python_mixin!", "Run Python 3", "command: python3")

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if m.(listModel).state != stateList {
		t.Fatal("esc must return to the list")
	}

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	if def, _ := m.(listModel).selected(); def.Name != "external_mixin" {
		t.Fatalf("selected = %s", def.Name)
	}

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatal("q must quit")
	}
}

func TestListModel_Empty(t *testing.T) {
	m := newListModel(nil)
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if next.(listModel).state != stateList {
		t.Fatal("enter on an empty list must not open details")
	}
	mustContain(t, next.View(), "No extensions registered")
}

func TestUnknownExtensionError(t *testing.T) {
	names := []string{"python_mixin", "perl_mixin", "ruby_mixin"}

	err := unknownExtensionError("py", names)
	mustContain(t, err.Error(), `unknown extension "py"`, "did you mean: python_mixin")
	if strings.Contains(err.Error(), "ruby_mixin") {
		t.Fatalf("unrelated suggestion in %q", err)
	}

	err = unknownExtensionError("cobol", names)
	mustContain(t, err.Error(), "available: python_mixin, perl_mixin, ruby_mixin")
}

func TestReadSnippet_NonTerminal(t *testing.T) {
	got, err := readSnippet(strings.NewReader("print(1)\nprint(2)\n"))
	if err != nil {
		t.Fatalf("readSnippet: %v", err)
	}
	if got != "print(1)\nprint(2)\n" {
		t.Fatalf("got %q", got)
	}
}
