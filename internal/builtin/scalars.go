package builtin

import "github.com/vektah/gqlparser/v2/ast"

// for formatter and for error reporting on synthesized nodes
var blankBuiltInPos = &ast.Position{
	Src: &ast.Source{
		Name:    "builtin",
		BuiltIn: true,
	},
}

func Position() *ast.Position {
	return blankBuiltInPos
}

const (
	Int     = "Int"
	Float   = "Float"
	String  = "String"
	Boolean = "Boolean"
	ID      = "ID"
)

// SpecifiedScalarNames lists the scalars every GraphQL schema must provide.
var SpecifiedScalarNames = []string{
	String,
	Int,
	Float,
	Boolean,
	ID,
}

func IsSpecifiedScalarType(typeName string) bool {
	for _, name := range SpecifiedScalarNames {
		if name == typeName {
			return true
		}
	}
	return false
}

// NewScalar synthesizes a bare scalar declaration.
// A fresh value is returned each time because gqlparser schemas own their definitions.
func NewScalar(name string) *ast.Definition {
	return &ast.Definition{
		Kind:     ast.Scalar,
		Name:     name,
		Position: blankBuiltInPos,
		BuiltIn:  true,
	}
}
