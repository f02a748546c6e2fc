package builtin

import "github.com/vektah/gqlparser/v2/ast"

func nonNullBoolean() *ast.Type {
	return &ast.Type{NamedType: Boolean, NonNull: true, Position: blankBuiltInPos}
}

// SpecifiedDirectives returns fresh copies of @include, @skip, @deprecated and @specifiedBy.
func SpecifiedDirectives() ast.DirectiveDefinitionList {
	return ast.DirectiveDefinitionList{
		{
			Description: "Directs the executor to include this field or fragment only when the `if` argument is true.",
			Name:        "include",
			Arguments: ast.ArgumentDefinitionList{
				{Name: "if", Type: nonNullBoolean(), Position: blankBuiltInPos},
			},
			Locations: []ast.DirectiveLocation{
				ast.LocationField,
				ast.LocationFragmentSpread,
				ast.LocationInlineFragment,
			},
			Position: blankBuiltInPos,
		},
		{
			Description: "Directs the executor to skip this field or fragment when the `if` argument is true.",
			Name:        "skip",
			Arguments: ast.ArgumentDefinitionList{
				{Name: "if", Type: nonNullBoolean(), Position: blankBuiltInPos},
			},
			Locations: []ast.DirectiveLocation{
				ast.LocationField,
				ast.LocationFragmentSpread,
				ast.LocationInlineFragment,
			},
			Position: blankBuiltInPos,
		},
		{
			Description: "Marks an element of a GraphQL schema as no longer supported.",
			Name:        "deprecated",
			Arguments: ast.ArgumentDefinitionList{
				{
					Name: "reason",
					DefaultValue: &ast.Value{
						Raw:      "No longer supported",
						Kind:     ast.StringValue,
						Position: blankBuiltInPos,
					},
					Type:     &ast.Type{NamedType: String, Position: blankBuiltInPos},
					Position: blankBuiltInPos,
				},
			},
			Locations: []ast.DirectiveLocation{
				ast.LocationFieldDefinition,
				ast.LocationArgumentDefinition,
				ast.LocationInputFieldDefinition,
				ast.LocationEnumValue,
			},
			Position: blankBuiltInPos,
		},
		{
			Description: "Exposes a URL that specifies the behaviour of this scalar.",
			Name:        "specifiedBy",
			Arguments: ast.ArgumentDefinitionList{
				{
					Name:     "url",
					Type:     &ast.Type{NamedType: String, NonNull: true, Position: blankBuiltInPos},
					Position: blankBuiltInPos,
				},
			},
			Locations: []ast.DirectiveLocation{
				ast.LocationScalar,
			},
			Position: blankBuiltInPos,
		},
	}
}
