package gqlmod

import (
	"bytes"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/formatter"
)

// OperationSource prints op together with every fragment it spreads, directly or through other fragments.
// Spreads of fragments doc doesn't define are left as they are.
func OperationSource(doc *ast.QueryDocument, op *ast.OperationDefinition) string {
	used := &ast.QueryDocument{
		Operations: ast.OperationList{op},
	}

	seen := make(map[string]bool)
	var visit func(set ast.SelectionSet)
	visit = func(set ast.SelectionSet) {
		for _, sel := range set {
			switch sel := sel.(type) {
			case *ast.Field:
				visit(sel.SelectionSet)
			case *ast.InlineFragment:
				visit(sel.SelectionSet)
			case *ast.FragmentSpread:
				if seen[sel.Name] {
					continue
				}
				seen[sel.Name] = true

				frag := doc.Fragments.ForName(sel.Name)
				if frag == nil {
					continue
				}
				used.Fragments = append(used.Fragments, frag)
				visit(frag.SelectionSet)
			}
		}
	}
	visit(op.SelectionSet)

	var buf bytes.Buffer
	formatter.NewFormatter(&buf).FormatQueryDocument(used)
	return buf.String()
}
