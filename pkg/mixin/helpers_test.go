package mixin

import (
	"context"
	"strconv"
	"strings"
	"testing"
)

const testFile = "gen.go.in"

func mustContain(t *testing.T, got string, subs ...string) {
	t.Helper()
	for _, sub := range subs {
		if !strings.Contains(got, sub) {
			t.Fatalf("expected %q to contain %q", got, sub)
		}
	}
}

// tokenizer hands out consecutive columns on line 1 so every token has a
// distinct span.
type tokenizer struct {
	col int
}

func (z *tokenizer) tok(kind TokenKind, text string) Token {
	if z.col == 0 {
		z.col = 1
	}
	t := Token{
		Kind: kind,
		Text: text,
		Span: Span{Filename: testFile, Line: 1, Column: z.col, Offset: z.col - 1, End: z.col - 1 + len(text)},
	}
	if kind == String {
		v, err := strconv.Unquote(text)
		if err != nil {
			v = text
		}
		t.Value = v
	}
	z.col += len(text) + 1
	return t
}

// entry returns the tokens of `key = "value",`.
func (z *tokenizer) entry(key, value string) []Token {
	return []Token{
		z.tok(Ident, key),
		z.tok(Assign, "="),
		z.tok(String, strconv.Quote(value)),
		z.tok(Comma, ","),
	}
}

func header(pairs ...string) []Token {
	var z tokenizer
	var out []Token
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, z.entry(pairs[i], pairs[i+1])...)
	}
	return out
}

func invocation(body string, headerToks []Token, hasHeader bool) Invocation {
	span := Span{Filename: testFile, Line: 3, Column: 5, Offset: 20, End: 40}
	bodyTok := Token{
		Kind:  String,
		Text:  strconv.Quote(body),
		Value: body,
		Span:  Span{Filename: testFile, Line: 3, Column: 20, Offset: 35, End: 40},
	}
	return Invocation{Span: span, Header: headerToks, HasHeader: hasHeader, Body: []Token{bodyTok}}
}

func countSeverity(diags []Diagnostic, sev Severity) int {
	n := 0
	for _, d := range diags {
		if d.Severity == sev {
			n++
		}
	}
	return n
}

// stubRunner records every command and answers from a script.
type stubRunner struct {
	results []ProcessResult
	errs    []error
	calls   []Command
}

func (s *stubRunner) Run(_ context.Context, c Command) (ProcessResult, error) {
	i := len(s.calls)
	s.calls = append(s.calls, c)
	if i < len(s.errs) && s.errs[i] != nil {
		return ProcessResult{}, s.errs[i]
	}
	if i < len(s.results) {
		return s.results[i], nil
	}
	return ProcessResult{Status: ExitCode(0)}, nil
}

// wordParser is a minimal host parser over whitespace separated words.
// Words starting with "fn" are items, words starting with "f_" are members,
// ";" is a semicolon and every other word is a one-token expression.
type wordParser struct {
	name  string
	words []Token
	pos   int
}

type wordNode struct {
	text string
	span Span
}

func (n wordNode) Span() Span { return n.span }

func newWordParser(name, text string) Parser {
	p := &wordParser{name: name}
	offset := 0
	for _, w := range strings.Fields(text) {
		idx := strings.Index(text[offset:], w) + offset
		kind := Ident
		switch {
		case w == ";":
			kind = Semicolon
		case w[0] >= '0' && w[0] <= '9':
			kind = Other
		}
		p.words = append(p.words, Token{
			Kind: kind,
			Text: w,
			Span: Span{Filename: name, Line: 1, Column: idx + 1, Offset: idx, End: idx + len(w)},
		})
		offset = idx + len(w)
	}
	return p
}

func (p *wordParser) Token() Token {
	if p.pos >= len(p.words) {
		return Token{Kind: EOF, Span: Span{Filename: p.name, Line: 1}}
	}
	return p.words[p.pos]
}

func (p *wordParser) Bump() {
	if p.pos < len(p.words) {
		p.pos++
	}
}

func (p *wordParser) take() Node {
	t := p.Token()
	p.Bump()
	return wordNode{text: t.Text, span: t.Span}
}

func (p *wordParser) ParseExpr() (Node, error) {
	if t := p.Token(); t.Kind == EOF || t.Kind == Semicolon {
		return nil, &SyntaxError{Span: t.Span, Message: "expected expression, found " + t.Describe()}
	}
	return p.take(), nil
}

func (p *wordParser) ParsePattern() (Node, error) { return p.ParseExpr() }
func (p *wordParser) ParseStmt() (Node, error)    { return p.ParseExpr() }

func (p *wordParser) ParseItem() (Node, bool, error) {
	if !strings.HasPrefix(p.Token().Text, "fn") {
		return nil, false, nil
	}
	return p.take(), true, nil
}

func (p *wordParser) ParseMember() (Node, bool, error) {
	if !strings.HasPrefix(p.Token().Text, "f_") {
		return nil, false, nil
	}
	return p.take(), true, nil
}

func requireNoErrors(t *testing.T, c *Collector) {
	t.Helper()
	if n := c.Errors(); n != 0 {
		t.Fatalf("expected no errors, got %d: %v", n, c.Diagnostics())
	}
}
