// Package annotate resolves a parsed query document against a schema.
//
// Results are kept in side tables keyed by node identity; the document itself is
// never modified. Both tables belong to the document they were built from and
// are meaningless for any other document, even a structurally identical one.
package annotate

import (
	"context"

	"github.com/vektah/gqlparser/v2/ast"
)

// Result holds everything Annotate learns about a document.
type Result struct {
	References *References
	Bindings   *Bindings
}

// Annotate runs ResolveReferences and then AnnotateTypes.
// doc is expected to have passed validation against schema.
func Annotate(ctx context.Context, schema *ast.Schema, doc *ast.QueryDocument) (*Result, error) {
	refs, err := ResolveReferences(ctx, doc)
	if err != nil {
		return nil, err
	}

	b, err := AnnotateTypes(ctx, schema, doc, refs)
	if err != nil {
		return nil, err
	}

	return &Result{
		References: refs,
		Bindings:   b,
	}, nil
}
