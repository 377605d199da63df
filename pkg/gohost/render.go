package gohost

import (
	"go/ast"
	"strings"

	"github.com/huonw/external-mixin/pkg/mixin"
)

// Render turns a materialized fragment back into Go source suitable for
// splicing at the call site.
func Render(frag mixin.Fragment) string {
	texts := make([]string, 0, len(frag.Nodes))
	for _, n := range frag.Nodes {
		texts = append(texts, nodeText(n))
	}
	switch frag.Shape {
	case mixin.ShapeExpression:
		if len(frag.Nodes) == 1 && needsParens(frag.Nodes[0]) {
			return "(" + texts[0] + ")"
		}
		return strings.Join(texts, "")
	case mixin.ShapeItems:
		return strings.Join(texts, "\n\n")
	case mixin.ShapeMembers:
		return strings.Join(texts, "\n")
	}
	return strings.Join(texts, "\n")
}

func nodeText(n mixin.Node) string {
	if gn, ok := n.(*Node); ok {
		return gn.Text
	}
	return ""
}

// needsParens reports whether an expression could bind differently once
// spliced next to operators.
func needsParens(n mixin.Node) bool {
	gn, ok := n.(*Node)
	if !ok {
		return false
	}
	switch gn.AST.(type) {
	case *ast.BinaryExpr, *ast.UnaryExpr, *ast.StarExpr:
		return true
	}
	return false
}
