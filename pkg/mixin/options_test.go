package mixin

import (
	"errors"
	"reflect"
	"testing"
)

func TestParseOptions_Valid(t *testing.T) {
	t.Run("empty header", func(t *testing.T) {
		var c Collector
		opts, err := ParseOptions(nil, &c)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if opts.Len() != 0 {
			t.Fatalf("expected no options, got %v", opts.Keys())
		}
	})

	t.Run("repeated keys keep source order", func(t *testing.T) {
		var c Collector
		toks := header("interpreter", "sh", "arg", "-c", "arg", "echo $(expr 1 + 2)")
		opts, err := ParseOptions(toks, &c)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		requireNoErrors(t, &c)
		if got, want := opts.Keys(), []string{"interpreter", "arg"}; !reflect.DeepEqual(got, want) {
			t.Fatalf("keys = %v, want %v", got, want)
		}
		if got, want := opts.Values("arg"), []string{"-c", "echo $(expr 1 + 2)"}; !reflect.DeepEqual(got, want) {
			t.Fatalf("arg values = %v, want %v", got, want)
		}
		v, ok := opts.Single("interpreter")
		if !ok || v.Value != "sh" {
			t.Fatalf("Single(interpreter) = %v, %v", v, ok)
		}
		if _, ok := opts.Single("arg"); ok {
			t.Fatal("Single must reject a repeated key")
		}
	})

	t.Run("span covers key to value", func(t *testing.T) {
		toks := header("arg", "x")
		opts, err := ParseOptions(toks, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		got := opts.Get("arg")[0].Span
		if got.Offset != toks[0].Span.Offset || got.End != toks[2].Span.End {
			t.Fatalf("span = %+v, want %d..%d", got, toks[0].Span.Offset, toks[2].Span.End)
		}
	})

	t.Run("trailing comma is optional", func(t *testing.T) {
		toks := header("arg", "x")
		toks = toks[:len(toks)-1]
		opts, err := ParseOptions(toks, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := opts.Values("arg"); len(got) != 1 || got[0] != "x" {
			t.Fatalf("arg values = %v", got)
		}
	})
}

func TestParseOptions_Malformed(t *testing.T) {
	var z tokenizer
	toks := []Token{
		// a = 1,
		z.tok(Ident, "a"), z.tok(Assign, "="), z.tok(Other, "1"), z.tok(Comma, ","),
		// b = "ok",
	}
	toks = append(toks, z.entry("b", "ok")...)
	toks = append(toks,
		// c "y",
		z.tok(Ident, "c"), z.tok(String, `"y"`), z.tok(Comma, ","),
		// = "z",
		z.tok(Assign, "="), z.tok(String, `"z"`), z.tok(Comma, ","),
		// d = "p" "q"
		z.tok(Ident, "d"), z.tok(Assign, "="), z.tok(String, `"p"`), z.tok(String, `"q"`),
	)

	var c Collector
	opts, err := ParseOptions(toks, &c)
	if !errors.Is(err, ErrInvalidOptions) {
		t.Fatalf("expected ErrInvalidOptions, got %v", err)
	}
	if opts != nil {
		t.Fatalf("expected no options on failure, got %v", opts.Keys())
	}

	diags := c.Diagnostics()
	if len(diags) != 4 {
		t.Fatalf("expected 4 diagnostics, got %d: %v", len(diags), diags)
	}
	mustContain(t, diags[0].Message, "option `a`", "string literal")
	mustContain(t, diags[1].Message, "expected `=` after option `c`")
	mustContain(t, diags[2].Message, "expected an option name", "`=`")
	mustContain(t, diags[3].Message, "option `d`", "single string literal")
	if diags[0].Span.Offset != toks[2].Span.Offset {
		t.Fatalf("first diagnostic should point at the bad value, got %+v", diags[0].Span)
	}
}
