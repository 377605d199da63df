package mixin

import (
	"errors"
	"testing"
)

func materialize(t *testing.T, text string, shape Shape) (Fragment, *Collector, error) {
	t.Helper()
	var c Collector
	d := NewDeferred("<gen.go.in:3 sh_mixin!>", text, Span{Filename: testFile, Line: 3}, newWordParser)
	frag, err := d.Materialize(shape, &c)
	return frag, &c, err
}

func TestDeferred_ItemSequence(t *testing.T) {
	t.Run("all items consumed", func(t *testing.T) {
		frag, c, err := materialize(t, "fn_a fn_b", ShapeItems)
		if err != nil {
			t.Fatalf("Materialize: %v", err)
		}
		requireNoErrors(t, c)
		if len(frag.Nodes) != 2 {
			t.Fatalf("expected 2 items, got %d", len(frag.Nodes))
		}
	})

	t.Run("stray token gives one error", func(t *testing.T) {
		frag, c, err := materialize(t, "fn_a fn_b 42 fn_c", ShapeItems)
		if !errors.Is(err, ErrReparse) {
			t.Fatalf("expected ErrReparse, got %v", err)
		}
		diags := c.Diagnostics()
		if len(diags) != 1 {
			t.Fatalf("expected one diagnostic, got %v", diags)
		}
		mustContain(t, diags[0].Message, "macro expansion ignores token `42` and any following")
		if diags[0].Span.Offset != 10 || diags[0].Span.Filename != "<gen.go.in:3 sh_mixin!>" {
			t.Fatalf("diagnostic span = %+v", diags[0].Span)
		}
		if len(frag.Nodes) != 2 {
			t.Fatalf("nothing after the stray token may be kept, got %d nodes", len(frag.Nodes))
		}
	})

	t.Run("empty output is an empty sequence", func(t *testing.T) {
		frag, c, err := materialize(t, "  \n", ShapeItems)
		if err != nil {
			t.Fatalf("Materialize: %v", err)
		}
		requireNoErrors(t, c)
		if len(frag.Nodes) != 0 {
			t.Fatalf("expected no items, got %d", len(frag.Nodes))
		}
	})
}

func TestDeferred_MemberSequence(t *testing.T) {
	frag, _, err := materialize(t, "f_x f_y f_z", ShapeMembers)
	if err != nil {
		t.Fatalf("Materialize: %v", err)
	}
	if len(frag.Nodes) != 3 || frag.Shape != ShapeMembers {
		t.Fatalf("fragment = %+v", frag)
	}
}

func TestDeferred_TrailingSemicolon(t *testing.T) {
	tests := []struct {
		shape   Shape
		text    string
		wantErr bool
	}{
		{ShapeExpression, "x ;", false},
		{ShapeStatement, "x ;", false},
		{ShapePattern, "x ;", true},
		{ShapeExpression, "x ; ;", true},
		{ShapeExpression, "x y", true},
		{ShapeItems, "fn_a ;", true},
	}
	for _, tt := range tests {
		t.Run(tt.shape.String()+" "+tt.text, func(t *testing.T) {
			_, c, err := materialize(t, tt.text, tt.shape)
			if tt.wantErr {
				if !errors.Is(err, ErrReparse) || c.Errors() != 1 {
					t.Fatalf("expected one reparse error, got %v / %v", err, c.Diagnostics())
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestDeferred_ParseError(t *testing.T) {
	_, c, err := materialize(t, "", ShapeExpression)
	if !errors.Is(err, ErrReparse) {
		t.Fatalf("expected ErrReparse, got %v", err)
	}
	mustContain(t, c.Diagnostics()[0].Message, "expected expression")
}

func TestDeferred_MaterializeOnce(t *testing.T) {
	d := NewDeferred("n", "x", Span{}, newWordParser)
	if _, err := d.Materialize(ShapeExpression, nil); err != nil {
		t.Fatalf("first Materialize: %v", err)
	}
	if _, err := d.Materialize(ShapeExpression, nil); !errors.Is(err, ErrAlreadyMaterialized) {
		t.Fatalf("expected ErrAlreadyMaterialized, got %v", err)
	}
}

func TestParseShape(t *testing.T) {
	for _, s := range Shapes() {
		got, err := ParseShape(s.String())
		if err != nil || got != s {
			t.Fatalf("ParseShape(%q) = %v, %v", s.String(), got, err)
		}
	}
	if got, _ := ParseShape("Statement"); got != ShapeStatement {
		t.Fatalf("long form not accepted: %v", got)
	}
	if _, err := ParseShape("type"); !errors.Is(err, ErrUnknownShape) {
		t.Fatalf("expected ErrUnknownShape, got %v", err)
	}
}
