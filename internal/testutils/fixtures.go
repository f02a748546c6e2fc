package testutils

import (
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"
	"github.com/vektah/gqlparser/v2/validator"
	_ "github.com/vektah/gqlparser/v2/validator/rules"
)

// LoadSchema builds a schema from SDL on top of gqlparser's prelude.
func LoadSchema(t TestingT, name, sdl string) *ast.Schema {
	t.Helper()

	schemaDoc, gErr := parser.ParseSchemas(
		validator.Prelude,
		&ast.Source{Name: name, Input: sdl},
	)
	if gErr != nil {
		t.Fatal(gErr)
	}

	schema, gErr := validator.ValidateSchemaDocument(schemaDoc)
	if gErr != nil {
		t.Fatal(gErr)
	}

	return schema
}

// LoadQuery parses source and validates it against schema.
func LoadQuery(t TestingT, schema *ast.Schema, name, source string) *ast.QueryDocument {
	t.Helper()

	doc := ParseQuery(t, name, source)

	gErrs := validator.Validate(schema, doc)
	if len(gErrs) != 0 {
		t.Fatal(gErrs)
	}

	return doc
}

// ParseQuery parses source without validation, for documents tests craft to be invalid.
func ParseQuery(t TestingT, name, source string) *ast.QueryDocument {
	t.Helper()

	doc, gErr := parser.ParseQuery(&ast.Source{Name: name, Input: source})
	if gErr != nil {
		t.Fatal(gErr)
	}

	return doc
}
