package gohost

import (
	"go/scanner"
	"go/token"
	"strconv"
	"strings"

	"github.com/huonw/external-mixin/pkg/mixin"
)

// rawTok is a scanned Go token with byte offsets into the source.
type rawTok struct {
	tok  token.Token
	lit  string
	pos  int
	end  int
	auto bool // semicolon inserted at a newline or EOF
}

// scanSource tokenizes src. Comments are skipped. Scanner errors are
// returned after the whole input has been scanned.
func scanSource(fset *token.FileSet, filename string, src []byte) ([]rawTok, *token.File, error) {
	file := fset.AddFile(filename, -1, len(src))
	var errs scanner.ErrorList
	var s scanner.Scanner
	s.Init(file, src, func(pos token.Position, msg string) { errs.Add(pos, msg) }, 0)

	var out []rawTok
	for {
		pos, tok, lit := s.Scan()
		off := file.Offset(pos)
		t := rawTok{tok: tok, lit: lit, pos: off}
		switch {
		case tok == token.EOF:
			t.end = off
		case tok == token.SEMICOLON && lit == "\n":
			t.auto = true
			t.end = off
		case tok == token.STRING && strings.HasPrefix(lit, "`"):
			// The scanner drops carriage returns from raw strings, so the
			// literal may be shorter than its source text.
			if i := strings.IndexByte(string(src[off+1:]), '`'); i >= 0 {
				t.end = off + i + 2
			} else {
				t.end = len(src)
			}
		case lit != "":
			t.end = off + len(lit)
		default:
			t.end = off + len(tok.String())
		}
		out = append(out, t)
		if tok == token.EOF {
			break
		}
	}
	errs.Sort()
	return out, file, errs.Err()
}

func kindOf(tok token.Token) mixin.TokenKind {
	switch tok {
	case token.EOF:
		return mixin.EOF
	case token.IDENT:
		return mixin.Ident
	case token.STRING:
		return mixin.String
	case token.ASSIGN:
		return mixin.Assign
	case token.COMMA:
		return mixin.Comma
	case token.SEMICOLON:
		return mixin.Semicolon
	case token.LBRACE:
		return mixin.LBrace
	case token.RBRACE:
		return mixin.RBrace
	}
	return mixin.Other
}

// convert turns a raw token into an engine token with a resolved span.
func convert(t rawTok, file *token.File, name string, src []byte) mixin.Token {
	out := mixin.Token{
		Kind: kindOf(t.tok),
		Text: string(src[t.pos:t.end]),
		Span: spanOf(file, name, t.pos, t.end),
	}
	if t.tok == token.STRING {
		if v, err := strconv.Unquote(t.lit); err == nil {
			out.Value = v
		}
	}
	return out
}

func spanOf(file *token.File, name string, start, end int) mixin.Span {
	p := file.Position(file.Pos(start))
	return mixin.Span{Filename: name, Line: p.Line, Column: p.Column, Offset: start, End: end}
}
