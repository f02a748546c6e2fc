package schematype

import (
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vvakame/gqlmod/internal/builtin"
)

// IsLeafType reports whether def is a scalar or an enum.
func IsLeafType(def *ast.Definition) bool {
	switch def.Kind {
	case ast.Scalar, ast.Enum:
		return true
	default:
		return false
	}
}

// IsCompositeType reports whether def can own a selection set.
func IsCompositeType(def *ast.Definition) bool {
	switch def.Kind {
	case ast.Object, ast.Interface, ast.Union:
		return true
	default:
		return false
	}
}

func IsAbstractType(def *ast.Definition) bool {
	switch def.Kind {
	case ast.Interface, ast.Union:
		return true
	default:
		return false
	}
}

// IsCustomScalar reports whether def is a scalar other than the five specified ones.
// Custom scalars accept literals of any shape.
func IsCustomScalar(def *ast.Definition) bool {
	return def.Kind == ast.Scalar && !builtin.IsSpecifiedScalarType(def.Name)
}

// FieldsOf returns the fields a type exposes to field-path walks, in declaration order.
// Leaf types and unions expose none.
func FieldsOf(def *ast.Definition) ast.FieldList {
	switch def.Kind {
	case ast.Object, ast.Interface, ast.InputObject:
		return def.Fields
	default:
		return nil
	}
}
