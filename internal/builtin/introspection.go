package builtin

import (
	"strings"

	"github.com/vektah/gqlparser/v2/ast"
)

const (
	TypeNameMetaField = "__typename"
	SchemaMetaField   = "__schema"
	TypeMetaField     = "__type"
)

func named(name string) *ast.Type {
	return &ast.Type{NamedType: name, Position: blankBuiltInPos}
}

func nonNull(typ *ast.Type) *ast.Type {
	copied := *typ
	copied.NonNull = true
	return &copied
}

func list(elem *ast.Type) *ast.Type {
	return &ast.Type{Elem: elem, Position: blankBuiltInPos}
}

func field(name string, typ *ast.Type, args ...*ast.ArgumentDefinition) *ast.FieldDefinition {
	return &ast.FieldDefinition{
		Name:      name,
		Type:      typ,
		Arguments: args,
		Position:  blankBuiltInPos,
	}
}

func includeDeprecated() *ast.ArgumentDefinition {
	return &ast.ArgumentDefinition{
		Name: "includeDeprecated",
		Type: named(Boolean),
		DefaultValue: &ast.Value{
			Raw:      "false",
			Kind:     ast.BooleanValue,
			Position: blankBuiltInPos,
		},
		Position: blankBuiltInPos,
	}
}

func object(name string, fields ...*ast.FieldDefinition) *ast.Definition {
	return &ast.Definition{
		Kind:     ast.Object,
		Name:     name,
		Fields:   fields,
		Position: blankBuiltInPos,
		BuiltIn:  true,
	}
}

func enum(name string, values ...string) *ast.Definition {
	def := &ast.Definition{
		Kind:     ast.Enum,
		Name:     name,
		Position: blankBuiltInPos,
		BuiltIn:  true,
	}
	for _, value := range values {
		def.EnumValues = append(def.EnumValues, &ast.EnumValueDefinition{
			Name:     value,
			Position: blankBuiltInPos,
		})
	}
	return def
}

// IntrospectionTypes returns fresh definitions of the __Schema family of types.
func IntrospectionTypes() ast.DefinitionList {
	return ast.DefinitionList{
		object("__Schema",
			field("description", named(String)),
			field("types", nonNull(list(nonNull(named("__Type"))))),
			field("queryType", nonNull(named("__Type"))),
			field("mutationType", named("__Type")),
			field("subscriptionType", named("__Type")),
			field("directives", nonNull(list(nonNull(named("__Directive"))))),
		),
		object("__Directive",
			field("name", nonNull(named(String))),
			field("description", named(String)),
			field("isRepeatable", nonNull(named(Boolean))),
			field("locations", nonNull(list(nonNull(named("__DirectiveLocation"))))),
			field("args", nonNull(list(nonNull(named("__InputValue")))), includeDeprecated()),
		),
		enum("__DirectiveLocation",
			"QUERY", "MUTATION", "SUBSCRIPTION", "FIELD", "FRAGMENT_DEFINITION", "FRAGMENT_SPREAD",
			"INLINE_FRAGMENT", "VARIABLE_DEFINITION", "SCHEMA", "SCALAR", "OBJECT", "FIELD_DEFINITION",
			"ARGUMENT_DEFINITION", "INTERFACE", "UNION", "ENUM", "ENUM_VALUE", "INPUT_OBJECT",
			"INPUT_FIELD_DEFINITION",
		),
		object("__Type",
			field("kind", nonNull(named("__TypeKind"))),
			field("name", named(String)),
			field("description", named(String)),
			field("specifiedByURL", named(String)),
			field("fields", list(nonNull(named("__Field"))), includeDeprecated()),
			field("interfaces", list(nonNull(named("__Type")))),
			field("possibleTypes", list(nonNull(named("__Type")))),
			field("enumValues", list(nonNull(named("__EnumValue"))), includeDeprecated()),
			field("inputFields", list(nonNull(named("__InputValue"))), includeDeprecated()),
			field("ofType", named("__Type")),
		),
		object("__Field",
			field("name", nonNull(named(String))),
			field("description", named(String)),
			field("args", nonNull(list(nonNull(named("__InputValue")))), includeDeprecated()),
			field("type", nonNull(named("__Type"))),
			field("isDeprecated", nonNull(named(Boolean))),
			field("deprecationReason", named(String)),
		),
		object("__InputValue",
			field("name", nonNull(named(String))),
			field("description", named(String)),
			field("type", nonNull(named("__Type"))),
			field("defaultValue", named(String)),
			field("isDeprecated", nonNull(named(Boolean))),
			field("deprecationReason", named(String)),
		),
		object("__EnumValue",
			field("name", nonNull(named(String))),
			field("description", named(String)),
			field("isDeprecated", nonNull(named(Boolean))),
			field("deprecationReason", named(String)),
		),
		enum("__TypeKind",
			"SCALAR", "OBJECT", "INTERFACE", "UNION", "ENUM", "INPUT_OBJECT", "LIST", "NON_NULL",
		),
	}
}

func IsIntrospectionType(typeName string) bool {
	return strings.HasPrefix(typeName, "__")
}

var typeNameField = field(TypeNameMetaField, nonNull(named(String)))

var schemaField = field(SchemaMetaField, nonNull(named("__Schema")))

var typeField = field(TypeMetaField, named("__Type"), &ast.ArgumentDefinition{
	Name:     "name",
	Type:     nonNull(named(String)),
	Position: blankBuiltInPos,
})

// MetaField returns the implicit field definition named name, if any.
// __typename is available on every composite type, __schema and __type only on the query root.
// The returned definitions are shared and must not be mutated.
func MetaField(name string, isQueryRoot bool) *ast.FieldDefinition {
	switch name {
	case TypeNameMetaField:
		return typeNameField
	case SchemaMetaField:
		if isQueryRoot {
			return schemaField
		}
	case TypeMetaField:
		if isQueryRoot {
			return typeField
		}
	}
	return nil
}

// IntrospectionQuery is the standard full introspection query.
const IntrospectionQuery = `query IntrospectionQuery {
  __schema {
    queryType { name }
    mutationType { name }
    subscriptionType { name }
    types { ...FullType }
    directives {
      name
      description
      locations
      args { ...InputValue }
    }
  }
}

fragment FullType on __Type {
  kind
  name
  description
  fields(includeDeprecated: true) {
    name
    description
    args { ...InputValue }
    type { ...TypeRef }
    isDeprecated
    deprecationReason
  }
  inputFields { ...InputValue }
  interfaces { ...TypeRef }
  enumValues(includeDeprecated: true) {
    name
    description
    isDeprecated
    deprecationReason
  }
  possibleTypes { ...TypeRef }
}

fragment InputValue on __InputValue {
  name
  description
  type { ...TypeRef }
  defaultValue
}

fragment TypeRef on __Type {
  kind
  name
  ofType {
    kind
    name
    ofType {
      kind
      name
      ofType {
        kind
        name
        ofType {
          kind
          name
          ofType {
            kind
            name
            ofType {
              kind
              name
              ofType {
                kind
                name
              }
            }
          }
        }
      }
    }
  }
}
`
