package mixin

import (
	"errors"
	"fmt"
	"strings"
)

// Shape is the syntactic category a call site expects its expansion to be.
type Shape int

const (
	ShapeExpression Shape = iota + 1
	ShapePattern
	ShapeStatement
	ShapeItems
	ShapeMembers
)

var shapeNames = map[Shape]string{
	ShapeExpression: "expr",
	ShapePattern:    "pat",
	ShapeStatement:  "stmt",
	ShapeItems:      "items",
	ShapeMembers:    "members",
}

func (s Shape) String() string {
	if n, ok := shapeNames[s]; ok {
		return n
	}
	return fmt.Sprintf("Shape(%d)", int(s))
}

// Shapes lists every shape in declaration order.
func Shapes() []Shape {
	return []Shape{ShapeExpression, ShapePattern, ShapeStatement, ShapeItems, ShapeMembers}
}

// ParseShape accepts a short shape name or its long form.
func ParseShape(s string) (Shape, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "expr", "expression":
		return ShapeExpression, nil
	case "pat", "pattern":
		return ShapePattern, nil
	case "stmt", "statement":
		return ShapeStatement, nil
	case "items", "item":
		return ShapeItems, nil
	case "members", "member":
		return ShapeMembers, nil
	}
	return 0, fmt.Errorf("%w %q", ErrUnknownShape, s)
}

// Node is an opaque host syntax node.
type Node interface {
	Span() Span
}

// Parser is a host parser positioned over some text. Token returns the
// current significant token; tokens the host inserts implicitly (such as
// automatic semicolons) are never visible. Each Parse method starts at the
// current token and, on success, leaves the parser after the parsed node.
// ParseItem and ParseMember report ok=false when no item or member starts
// at the current token.
type Parser interface {
	Token() Token
	Bump()
	ParseExpr() (Node, error)
	ParsePattern() (Node, error)
	ParseStmt() (Node, error)
	ParseItem() (Node, bool, error)
	ParseMember() (Node, bool, error)
}

// ParserFunc opens a host parser over text. name identifies the text in
// diagnostics.
type ParserFunc func(name, text string) Parser

// Fragment is the materialized result of a Deferred.
type Fragment struct {
	Shape Shape
	Nodes []Node
}

// Deferred holds validated output of a mixin until the host decides which
// shape it needs. It can be materialized once.
type Deferred struct {
	name      string
	text      string
	span      Span
	newParser ParserFunc
	done      bool
}

func NewDeferred(name, text string, span Span, newParser ParserFunc) *Deferred {
	return &Deferred{name: name, text: text, span: span, newParser: newParser}
}

// Name is the synthetic name the text is parsed under.
func (d *Deferred) Name() string { return d.name }
func (d *Deferred) Text() string { return d.text }
func (d *Deferred) Span() Span   { return d.span }

// Materialize parses the text as shape. Parse errors and trailing tokens
// are reported on r. When only the completeness check fails, the nodes
// parsed before the stray token are returned alongside the error.
func (d *Deferred) Materialize(shape Shape, r Reporter) (Fragment, error) {
	if d.done {
		return Fragment{}, ErrAlreadyMaterialized
	}
	d.done = true

	p := d.newParser(d.name, d.text)
	frag := Fragment{Shape: shape}

	single := func(parse func() (Node, error), allowSemi bool) (Fragment, error) {
		n, err := parse()
		if err != nil {
			return Fragment{}, d.syntaxError(r, err)
		}
		frag.Nodes = []Node{n}
		return frag, ensureComplete(p, allowSemi, r)
	}
	sequence := func(parse func() (Node, bool, error)) (Fragment, error) {
		for {
			n, ok, err := parse()
			if err != nil {
				return Fragment{}, d.syntaxError(r, err)
			}
			if !ok {
				break
			}
			frag.Nodes = append(frag.Nodes, n)
		}
		return frag, ensureComplete(p, false, r)
	}

	switch shape {
	case ShapeExpression:
		return single(p.ParseExpr, true)
	case ShapePattern:
		return single(p.ParsePattern, false)
	case ShapeStatement:
		return single(p.ParseStmt, true)
	case ShapeItems:
		return sequence(p.ParseItem)
	case ShapeMembers:
		return sequence(p.ParseMember)
	}
	return Fragment{}, fmt.Errorf("%w %d", ErrUnknownShape, int(shape))
}

func (d *Deferred) syntaxError(r Reporter, err error) error {
	var se *SyntaxError
	if errors.As(err, &se) {
		errorf(r, se.Span, "%s", se.Message)
	} else {
		errorf(r, d.span, "%s: %v", d.name, err)
	}
	return fmt.Errorf("%w: %w", ErrReparse, err)
}

// ensureComplete fails unless p is at the end of its input. With allowSemi
// a single trailing semicolon is accepted.
func ensureComplete(p Parser, allowSemi bool, r Reporter) error {
	if allowSemi && p.Token().Kind == Semicolon {
		p.Bump()
	}
	tok := p.Token()
	if tok.Kind == EOF {
		return nil
	}
	errorf(r, tok.Span, "macro expansion ignores token %s and any following", tok.Describe())
	return fmt.Errorf("%w: trailing token %s", ErrReparse, tok.Describe())
}
