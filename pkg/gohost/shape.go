package gohost

import (
	"go/token"

	"github.com/huonw/external-mixin/pkg/mixin"
)

type frameKind int

const (
	frameFile frameKind = iota
	frameParen
	frameBracket
	frameBlock
	frameComposite
	frameStruct
	frameInterface
)

type frame struct {
	kind frameKind
	// pendingBlock is set after a control keyword whose clause ends in a
	// block.
	pendingBlock bool
	// pendingFunc is set after `func` until its body opens. A signature
	// cannot contain a composite literal, so the next brace in this frame
	// is the body.
	pendingFunc bool
}

// shapeTracker follows the delimiter structure of a Go file closely enough
// to tell which syntactic category is expected at a given token.
type shapeTracker struct {
	stack    []frame
	prev     token.Token
	prevprev token.Token
}

func newShapeTracker() *shapeTracker {
	return &shapeTracker{stack: []frame{{kind: frameFile}}}
}

func (s *shapeTracker) top() *frame {
	return &s.stack[len(s.stack)-1]
}

func (s *shapeTracker) push(kind frameKind) {
	s.stack = append(s.stack, frame{kind: kind})
}

// shape is the shape expected for a construct starting at the next token.
func (s *shapeTracker) shape() mixin.Shape {
	f := s.top()
	atStart := s.prev == token.ILLEGAL || s.prev == token.SEMICOLON || s.prev == token.LBRACE
	switch {
	case s.prev == token.CASE:
		return mixin.ShapePattern
	case f.kind == frameFile && (s.prev == token.ILLEGAL || s.prev == token.SEMICOLON):
		return mixin.ShapeItems
	case (f.kind == frameStruct || f.kind == frameInterface) && atStart:
		return mixin.ShapeMembers
	case f.kind == frameBlock && (atStart || s.prev == token.COLON):
		return mixin.ShapeStatement
	}
	return mixin.ShapeExpression
}

// members is the member container at the current position.
func (s *shapeTracker) members() MemberKind {
	if s.top().kind == frameInterface {
		return InterfaceMembers
	}
	return StructMembers
}

func (s *shapeTracker) feed(t rawTok) {
	f := s.top()
	switch t.tok {
	case token.FUNC:
		// `[]func()` and `map[K]func()` are types with no body.
		if s.prev != token.RBRACK {
			f.pendingFunc = true
		}
	case token.IF, token.FOR, token.SWITCH, token.SELECT, token.ELSE:
		f.pendingBlock = true
	case token.LPAREN:
		s.push(frameParen)
	case token.LBRACK:
		s.push(frameBracket)
	case token.LBRACE:
		kind := frameComposite
		switch {
		case s.prev == token.STRUCT:
			kind = frameStruct
		case s.prev == token.INTERFACE:
			kind = frameInterface
		case f.pendingFunc:
			kind = frameBlock
			f.pendingFunc = false
		case f.pendingBlock && !(s.prev == token.IDENT && s.prevprev == token.RBRACK):
			// `[]T{` and `map[K]V{` stay composite literals inside a
			// control clause.
			kind = frameBlock
			f.pendingBlock = false
		}
		s.push(kind)
	case token.RPAREN, token.RBRACK, token.RBRACE:
		if len(s.stack) > 1 {
			s.stack = s.stack[:len(s.stack)-1]
		}
	case token.SEMICOLON:
		// Explicit semicolons separate the clauses of if, for and switch
		// headers and must not end the pending block.
		if t.auto {
			f.pendingBlock = false
			f.pendingFunc = false
		}
	}
	s.prevprev, s.prev = s.prev, t.tok
}
