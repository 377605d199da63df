package gohost

import (
	"errors"
	"fmt"
	"go/ast"
	"go/parser"
	"go/scanner"
	"go/token"

	"github.com/huonw/external-mixin/pkg/mixin"
)

// MemberKind selects the container members are parsed for.
type MemberKind int

const (
	StructMembers MemberKind = iota
	InterfaceMembers
)

// Node is a parsed Go fragment. Text is the fragment exactly as the mixin
// printed it.
type Node struct {
	AST  ast.Node
	Text string
	span mixin.Span
}

func (n *Node) Span() mixin.Span { return n.span }

// Parser implements mixin.Parser over Go source text with go/parser.
// Each Parse method parses the longest prefix of the remaining input that
// forms the requested construct.
type Parser struct {
	name    string
	src     string
	file    *token.File
	toks    []mixin.Token
	pos     int
	members MemberKind
}

// NewParserFunc returns a mixin.ParserFunc whose parsers read members for
// the given container.
func NewParserFunc(members MemberKind) mixin.ParserFunc {
	return func(name, text string) mixin.Parser {
		return NewParser(name, text, members)
	}
}

func NewParser(name, text string, members MemberKind) *Parser {
	fset := token.NewFileSet()
	raw, file, _ := scanSource(fset, name, []byte(text))
	p := &Parser{name: name, src: text, file: file, members: members}
	for _, t := range raw {
		if t.auto {
			continue
		}
		p.toks = append(p.toks, convert(t, file, name, []byte(text)))
	}
	return p
}

func (p *Parser) Token() mixin.Token {
	return p.toks[p.pos]
}

func (p *Parser) Bump() {
	if p.toks[p.pos].Kind != mixin.EOF {
		p.pos++
	}
}

func (p *Parser) ParseExpr() (mixin.Node, error) {
	return p.parse(parseExpr)
}

func (p *Parser) ParsePattern() (mixin.Node, error) {
	return p.parse(parseCaseList)
}

func (p *Parser) ParseStmt() (mixin.Node, error) {
	return p.parse(parseStmt)
}

func (p *Parser) ParseItem() (mixin.Node, bool, error) {
	return p.parseOptional(parseDecl)
}

func (p *Parser) ParseMember() (mixin.Node, bool, error) {
	if p.members == InterfaceMembers {
		return p.parseOptional(parseMethod)
	}
	return p.parseOptional(parseField)
}

// parseOptional skips separating semicolons and parses one construct. A
// construct that cannot even start at the current token is not an error.
func (p *Parser) parseOptional(fn parseFunc) (mixin.Node, bool, error) {
	for p.Token().Kind == mixin.Semicolon {
		p.Bump()
	}
	if p.Token().Kind == mixin.EOF {
		return nil, false, nil
	}
	n, err := p.parse(fn)
	var se *mixin.SyntaxError
	if errors.As(err, &se) && se.Span.Offset == p.Token().Span.Offset {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return n, true, nil
}

func (p *Parser) parse(fn parseFunc) (*Node, error) {
	base := p.Token().Span.Offset
	rest := p.src[base:]
	n, end, err := parseLongest(rest, fn)
	if err != nil {
		var pe *parseError
		if errors.As(err, &pe) {
			return nil, &mixin.SyntaxError{Span: p.spanAt(base + pe.off), Message: pe.msg}
		}
		return nil, &mixin.SyntaxError{Span: p.spanAt(base), Message: err.Error()}
	}
	node := &Node{
		AST:  n,
		Text: rest[:end],
		span: spanOf(p.file, p.name, base, base+end),
	}
	for p.Token().Kind != mixin.EOF && p.Token().Span.Offset < base+end {
		p.pos++
	}
	return node, nil
}

func (p *Parser) spanAt(off int) mixin.Span {
	off = max(0, min(off, len(p.src)))
	return spanOf(p.file, p.name, off, off)
}

type parseFunc func(src string) (ast.Node, int, error)

type parseError struct {
	off int
	msg string
}

func (e *parseError) Error() string { return fmt.Sprintf("offset %d: %s", e.off, e.msg) }

// firstError converts the first go/parser error to an offset into the
// unwrapped source.
func firstError(err error, shift, limit int) *parseError {
	var list scanner.ErrorList
	if errors.As(err, &list) && len(list) > 0 {
		off := max(0, min(list[0].Pos.Offset-shift, limit))
		return &parseError{off: off, msg: list[0].Msg}
	}
	return &parseError{msg: err.Error()}
}

// parseLongest runs fn on src and, if that fails, on the prefix of src that
// ends at the first error. Trailing input is then left for the caller to
// reject.
func parseLongest(src string, fn parseFunc) (ast.Node, int, error) {
	n, end, err := fn(src)
	if err == nil {
		return n, end, nil
	}
	var pe *parseError
	if !errors.As(err, &pe) || pe.off <= 0 || pe.off >= len(src) {
		return nil, 0, err
	}
	if n, end, perr := fn(src[:pe.off]); perr == nil {
		return n, end, nil
	}
	return nil, 0, err
}

func offsetOf(fset *token.FileSet, pos token.Pos, shift int) int {
	return fset.Position(pos).Offset - shift
}

func parseExpr(src string) (ast.Node, int, error) {
	fset := token.NewFileSet()
	e, err := parser.ParseExprFrom(fset, "", src, 0)
	if err != nil {
		return nil, 0, firstError(err, 0, len(src))
	}
	return e, offsetOf(fset, e.End(), 0), nil
}

// wrapped parses src embedded between prefix and suffix as a whole file.
func wrapped(prefix, src, suffix string) (*ast.File, *token.FileSet, error) {
	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, "", prefix+src+suffix, parser.SkipObjectResolution)
	if err != nil {
		return nil, nil, firstError(err, len(prefix), len(src))
	}
	return f, fset, nil
}

const (
	declPrefix      = "package p;"
	stmtPrefix      = "package p;func _(){"
	casePrefix      = "package p;func _(){switch{case "
	structPrefix    = "package p;type _ struct{"
	interfacePrefix = "package p;type _ interface{"
)

func parseDecl(src string) (ast.Node, int, error) {
	f, fset, err := wrapped(declPrefix, src, "")
	if err != nil {
		return nil, 0, err
	}
	if len(f.Decls) == 0 {
		return nil, 0, &parseError{msg: "expected declaration"}
	}
	d := f.Decls[0]
	return d, offsetOf(fset, d.End(), len(declPrefix)), nil
}

func parseStmt(src string) (ast.Node, int, error) {
	f, fset, err := wrapped(stmtPrefix, src, "\n}")
	if err != nil {
		return nil, 0, err
	}
	list := f.Decls[0].(*ast.FuncDecl).Body.List
	if len(list) == 0 {
		return nil, 0, &parseError{msg: "expected statement"}
	}
	s := list[0]
	return s, offsetOf(fset, s.End(), len(stmtPrefix)), nil
}

// caseList is the expression list of a case clause.
type caseList []ast.Expr

func (l caseList) Pos() token.Pos { return l[0].Pos() }
func (l caseList) End() token.Pos { return l[len(l)-1].End() }

func parseCaseList(src string) (ast.Node, int, error) {
	f, fset, err := wrapped(casePrefix, src, ":}}")
	if err != nil {
		return nil, 0, err
	}
	sw := f.Decls[0].(*ast.FuncDecl).Body.List[0].(*ast.SwitchStmt)
	list := caseList(sw.Body.List[0].(*ast.CaseClause).List)
	if len(list) == 0 {
		return nil, 0, &parseError{msg: "expected expression"}
	}
	return list, offsetOf(fset, list.End(), len(casePrefix)), nil
}

func typeOf(f *ast.File) ast.Expr {
	return f.Decls[0].(*ast.GenDecl).Specs[0].(*ast.TypeSpec).Type
}

func parseField(src string) (ast.Node, int, error) {
	f, fset, err := wrapped(structPrefix, src, "\n}")
	if err != nil {
		return nil, 0, err
	}
	fields := typeOf(f).(*ast.StructType).Fields.List
	if len(fields) == 0 {
		return nil, 0, &parseError{msg: "expected field declaration"}
	}
	return fields[0], offsetOf(fset, fields[0].End(), len(structPrefix)), nil
}

func parseMethod(src string) (ast.Node, int, error) {
	f, fset, err := wrapped(interfacePrefix, src, "\n}")
	if err != nil {
		return nil, 0, err
	}
	methods := typeOf(f).(*ast.InterfaceType).Methods.List
	if len(methods) == 0 {
		return nil, 0, &parseError{msg: "expected method or embedded type"}
	}
	return methods[0], offsetOf(fset, methods[0].End(), len(interfacePrefix)), nil
}
