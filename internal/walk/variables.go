package walk

import (
	"iter"
	"slices"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vvakame/gqlmod/internal/schematype"
)

// ShapeField is one field reachable from a variable's type. Path starts with
// the variable name, which is never produced on its own.
type ShapeField struct {
	Path       []string
	Definition *ast.FieldDefinition
}

// VariableShape produces every field reachable from the type named typeName,
// depth first in declaration order, for decoding a variable of that type.
// Scalars and enums produce nothing.
//
// The walk follows field types without remembering where it has been, so a
// type that reaches itself through non-list fields walks forever unless the
// consumer stops.
func VariableShape(schema *ast.Schema, variableName, typeName string) iter.Seq2[*ShapeField, error] {
	return func(yield func(*ShapeField, error) bool) {
		def := schema.Types[typeName]
		if def == nil {
			yield(nil, errorf(nil, "unknown type %s for variable $%s", typeName, variableName))
			return
		}
		walkShape(schema, []string{variableName}, def, yield)
	}
}

// Variables chains VariableShape over every variable op declares, in declaration order.
func Variables(schema *ast.Schema, op *ast.OperationDefinition) iter.Seq2[*ShapeField, error] {
	return func(yield func(*ShapeField, error) bool) {
		for _, varDef := range op.VariableDefinitions {
			chain := schematype.UnwrapAST(varDef.Type)
			typeName := chain[0].NamedType

			for field, err := range VariableShape(schema, varDef.Variable, typeName) {
				if !yield(field, err) || err != nil {
					return
				}
			}
		}
	}
}

func walkShape(schema *ast.Schema, path []string, def *ast.Definition, yield func(*ShapeField, error) bool) bool {
	if schematype.IsLeafType(def) {
		return true
	}

	for _, fieldDef := range schematype.FieldsOf(def) {
		fieldPath := append(slices.Clip(path), fieldDef.Name)
		if !yield(&ShapeField{Path: fieldPath, Definition: fieldDef}, nil) {
			return false
		}

		child := schema.Types[fieldDef.Type.Name()]
		if child == nil {
			yield(nil, errorf(fieldDef.Position, "unknown type %s", fieldDef.Type.Name()))
			return false
		}
		if !walkShape(schema, fieldPath, child, yield) {
			return false
		}
	}

	return true
}
