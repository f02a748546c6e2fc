// Package walk flattens query documents and schema types into path-indexed sequences.
//
// Every walker is lazy: nothing is computed past the point where the consumer stops ranging.
package walk

import (
	"iter"
	"slices"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/gqlerror"
	"github.com/vvakame/gqlmod/internal/builtin"
)

// QueryField is one selected field. Path holds field names, not aliases,
// from the operation root down to and including the field.
type QueryField struct {
	Path       []string
	Field      *ast.Field
	Definition *ast.FieldDefinition
}

// Query produces every field selected by op in document order. Inline fragments
// and fragment spreads contribute their fields under the path of their parent;
// their type condition becomes the enclosing type. A spread of a fragment that
// doc doesn't define is skipped.
//
// An error is produced when the document and the schema disagree, after which the walk ends.
func Query(schema *ast.Schema, doc *ast.QueryDocument, op *ast.OperationDefinition) iter.Seq2[*QueryField, error] {
	return func(yield func(*QueryField, error) bool) {
		var root *ast.Definition
		switch op.Operation {
		case ast.Query:
			root = schema.Query
		case ast.Mutation:
			root = schema.Mutation
		case ast.Subscription:
			root = schema.Subscription
		}
		if root == nil {
			yield(nil, errorf(op.Position, "schema does not define a %s root type", op.Operation))
			return
		}

		w := &queryWalker{
			schema:    schema,
			doc:       doc,
			yield:     yield,
			expanding: make(map[string]bool),
		}
		w.walkSelectionSet(nil, root, op.SelectionSet)
	}
}

type queryWalker struct {
	schema *ast.Schema
	doc    *ast.QueryDocument
	yield  func(*QueryField, error) bool

	// expanding holds the fragments on the current path, guarding against spread cycles in unvalidated documents.
	expanding map[string]bool
}

// walkSelectionSet reports false once the consumer has stopped or an error was produced.
func (w *queryWalker) walkSelectionSet(path []string, enclosing *ast.Definition, set ast.SelectionSet) bool {
	for _, selection := range set {
		switch selection := selection.(type) {
		case *ast.Field:
			fieldDef := enclosing.Fields.ForName(selection.Name)
			if fieldDef == nil {
				fieldDef = builtin.MetaField(selection.Name, enclosing == w.schema.Query)
			}
			if fieldDef == nil {
				w.yield(nil, errorf(selection.Position, "type %s has no field %s", enclosing.Name, selection.Name))
				return false
			}

			fieldPath := append(slices.Clip(path), selection.Name)
			if !w.yield(&QueryField{Path: fieldPath, Field: selection, Definition: fieldDef}, nil) {
				return false
			}

			if len(selection.SelectionSet) == 0 {
				continue
			}
			def := w.schema.Types[fieldDef.Type.Name()]
			if def == nil {
				w.yield(nil, errorf(selection.Position, "unknown type %s", fieldDef.Type.Name()))
				return false
			}
			if !w.walkSelectionSet(fieldPath, def, selection.SelectionSet) {
				return false
			}

		case *ast.InlineFragment:
			def := enclosing
			if selection.TypeCondition != "" {
				def = w.schema.Types[selection.TypeCondition]
				if def == nil {
					w.yield(nil, errorf(selection.Position, "unknown type %s", selection.TypeCondition))
					return false
				}
			}
			if !w.walkSelectionSet(path, def, selection.SelectionSet) {
				return false
			}

		case *ast.FragmentSpread:
			frag := w.doc.Fragments.ForName(selection.Name)
			if frag == nil {
				continue
			}
			if w.expanding[frag.Name] {
				w.yield(nil, errorf(selection.Position, "cannot spread fragment %s within itself", frag.Name))
				return false
			}
			def := w.schema.Types[frag.TypeCondition]
			if def == nil {
				w.yield(nil, errorf(frag.Position, "unknown type %s", frag.TypeCondition))
				return false
			}

			w.expanding[frag.Name] = true
			ok := w.walkSelectionSet(path, def, frag.SelectionSet)
			delete(w.expanding, frag.Name)
			if !ok {
				return false
			}

		default:
			w.yield(nil, gqlerror.Errorf("unexpected selection %T", selection))
			return false
		}
	}

	return true
}

func errorf(pos *ast.Position, format string, args ...interface{}) error {
	if pos == nil || pos.Src == nil {
		return gqlerror.Errorf(format, args...)
	}
	return gqlerror.ErrorPosf(pos, format, args...)
}
