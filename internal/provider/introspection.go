package provider

import (
	"fmt"
	"strings"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"
)

// IntrospectionData is the data of a response to builtin.IntrospectionQuery.
type IntrospectionData struct {
	Schema IntrospectionSchema `json:"__schema"`
}

type IntrospectionSchema struct {
	Description      *string                   `json:"description"`
	QueryType        *IntrospectionTypeName    `json:"queryType"`
	MutationType     *IntrospectionTypeName    `json:"mutationType"`
	SubscriptionType *IntrospectionTypeName    `json:"subscriptionType"`
	Types            []*IntrospectionFullType  `json:"types"`
	Directives       []*IntrospectionDirective `json:"directives"`
}

type IntrospectionTypeName struct {
	Name string `json:"name"`
}

type IntrospectionFullType struct {
	Kind          string                     `json:"kind"`
	Name          string                     `json:"name"`
	Description   *string                    `json:"description"`
	Fields        []*IntrospectionField      `json:"fields"`
	InputFields   []*IntrospectionInputValue `json:"inputFields"`
	Interfaces    []*IntrospectionTypeRef    `json:"interfaces"`
	EnumValues    []*IntrospectionEnumValue  `json:"enumValues"`
	PossibleTypes []*IntrospectionTypeRef    `json:"possibleTypes"`
}

type IntrospectionField struct {
	Name              string                     `json:"name"`
	Description       *string                    `json:"description"`
	Args              []*IntrospectionInputValue `json:"args"`
	Type              *IntrospectionTypeRef      `json:"type"`
	IsDeprecated      bool                       `json:"isDeprecated"`
	DeprecationReason *string                    `json:"deprecationReason"`
}

type IntrospectionInputValue struct {
	Name         string                `json:"name"`
	Description  *string               `json:"description"`
	Type         *IntrospectionTypeRef `json:"type"`
	DefaultValue *string               `json:"defaultValue"`
}

// IntrospectionTypeRef is a possibly wrapped type. Name is set for named types, OfType for wrappers.
type IntrospectionTypeRef struct {
	Kind   string                `json:"kind"`
	Name   *string               `json:"name"`
	OfType *IntrospectionTypeRef `json:"ofType"`
}

type IntrospectionEnumValue struct {
	Name              string  `json:"name"`
	Description       *string `json:"description"`
	IsDeprecated      bool    `json:"isDeprecated"`
	DeprecationReason *string `json:"deprecationReason"`
}

type IntrospectionDirective struct {
	Name         string                     `json:"name"`
	Description  *string                    `json:"description"`
	Locations    []string                   `json:"locations"`
	Args         []*IntrospectionInputValue `json:"args"`
	IsRepeatable bool                       `json:"isRepeatable"`
}

// SchemaDocument converts the introspection result into schema declarations.
// Introspection types it contains are marked built in, like gqlparser's prelude does.
func (data *IntrospectionData) SchemaDocument() (*ast.SchemaDocument, error) {
	c := &introspectionConverter{
		pos: &ast.Position{
			Src: &ast.Source{Name: "introspection"},
		},
	}
	return c.convert(&data.Schema)
}

type introspectionConverter struct {
	pos *ast.Position
}

func (c *introspectionConverter) convert(schema *IntrospectionSchema) (*ast.SchemaDocument, error) {
	if schema.QueryType == nil {
		return nil, fmt.Errorf("introspection result has no query type")
	}

	schemaDoc := &ast.SchemaDocument{}

	schemaDef := &ast.SchemaDefinition{
		Description: deref(schema.Description),
		Position:    c.pos,
	}
	for _, root := range []struct {
		operation ast.Operation
		typeName  *IntrospectionTypeName
	}{
		{ast.Query, schema.QueryType},
		{ast.Mutation, schema.MutationType},
		{ast.Subscription, schema.SubscriptionType},
	} {
		if root.typeName == nil {
			continue
		}
		schemaDef.OperationTypes = append(schemaDef.OperationTypes, &ast.OperationTypeDefinition{
			Operation: root.operation,
			Type:      root.typeName.Name,
			Position:  c.pos,
		})
	}
	schemaDoc.Schema = append(schemaDoc.Schema, schemaDef)

	for _, typ := range schema.Types {
		def, err := c.convertType(typ)
		if err != nil {
			return nil, err
		}
		schemaDoc.Definitions = append(schemaDoc.Definitions, def)
	}

	for _, directive := range schema.Directives {
		def, err := c.convertDirective(directive)
		if err != nil {
			return nil, err
		}
		schemaDoc.Directives = append(schemaDoc.Directives, def)
	}

	return schemaDoc, nil
}

func (c *introspectionConverter) convertType(typ *IntrospectionFullType) (*ast.Definition, error) {
	def := &ast.Definition{
		Kind:        ast.DefinitionKind(typ.Kind),
		Name:        typ.Name,
		Description: deref(typ.Description),
		Position:    c.pos,
		BuiltIn:     strings.HasPrefix(typ.Name, "__"),
	}

	switch def.Kind {
	case ast.Scalar:

	case ast.Object, ast.Interface:
		for _, field := range typ.Fields {
			fieldDef, err := c.convertField(field)
			if err != nil {
				return nil, fmt.Errorf("%s.%s: %w", typ.Name, field.Name, err)
			}
			def.Fields = append(def.Fields, fieldDef)
		}
		for _, intf := range typ.Interfaces {
			def.Interfaces = append(def.Interfaces, deref(intf.Name))
		}

	case ast.Union:
		for _, possibleType := range typ.PossibleTypes {
			def.Types = append(def.Types, deref(possibleType.Name))
		}

	case ast.Enum:
		for _, value := range typ.EnumValues {
			def.EnumValues = append(def.EnumValues, &ast.EnumValueDefinition{
				Name:        value.Name,
				Description: deref(value.Description),
				Directives:  c.deprecated(value.IsDeprecated, value.DeprecationReason),
				Position:    c.pos,
			})
		}

	case ast.InputObject:
		for _, inputField := range typ.InputFields {
			argDef, err := c.convertInputValue(inputField)
			if err != nil {
				return nil, fmt.Errorf("%s.%s: %w", typ.Name, inputField.Name, err)
			}
			def.Fields = append(def.Fields, &ast.FieldDefinition{
				Name:         argDef.Name,
				Description:  argDef.Description,
				DefaultValue: argDef.DefaultValue,
				Type:         argDef.Type,
				Position:     c.pos,
			})
		}

	default:
		return nil, fmt.Errorf("type %s has unknown kind %q", typ.Name, typ.Kind)
	}

	return def, nil
}

func (c *introspectionConverter) convertField(field *IntrospectionField) (*ast.FieldDefinition, error) {
	typ, err := c.convertTypeRef(field.Type)
	if err != nil {
		return nil, err
	}

	fieldDef := &ast.FieldDefinition{
		Name:        field.Name,
		Description: deref(field.Description),
		Type:        typ,
		Directives:  c.deprecated(field.IsDeprecated, field.DeprecationReason),
		Position:    c.pos,
	}
	for _, arg := range field.Args {
		argDef, err := c.convertInputValue(arg)
		if err != nil {
			return nil, fmt.Errorf("argument %s: %w", arg.Name, err)
		}
		fieldDef.Arguments = append(fieldDef.Arguments, argDef)
	}

	return fieldDef, nil
}

func (c *introspectionConverter) convertInputValue(value *IntrospectionInputValue) (*ast.ArgumentDefinition, error) {
	typ, err := c.convertTypeRef(value.Type)
	if err != nil {
		return nil, err
	}

	argDef := &ast.ArgumentDefinition{
		Name:        value.Name,
		Description: deref(value.Description),
		Type:        typ,
		Position:    c.pos,
	}
	if value.DefaultValue != nil {
		argDef.DefaultValue, err = parseValue(*value.DefaultValue)
		if err != nil {
			return nil, err
		}
	}

	return argDef, nil
}

func (c *introspectionConverter) convertTypeRef(ref *IntrospectionTypeRef) (*ast.Type, error) {
	if ref == nil {
		return nil, fmt.Errorf("missing type reference")
	}

	switch ref.Kind {
	case "NON_NULL":
		inner, err := c.convertTypeRef(ref.OfType)
		if err != nil {
			return nil, err
		}
		if inner.NonNull {
			return nil, fmt.Errorf("non null of non null type %s", inner)
		}
		inner.NonNull = true
		return inner, nil

	case "LIST":
		elem, err := c.convertTypeRef(ref.OfType)
		if err != nil {
			return nil, err
		}
		return ast.ListType(elem, c.pos), nil

	default:
		if ref.Name == nil {
			return nil, fmt.Errorf("%s type reference without name", ref.Kind)
		}
		return ast.NamedType(*ref.Name, c.pos), nil
	}
}

func (c *introspectionConverter) convertDirective(directive *IntrospectionDirective) (*ast.DirectiveDefinition, error) {
	def := &ast.DirectiveDefinition{
		Name:         directive.Name,
		Description:  deref(directive.Description),
		IsRepeatable: directive.IsRepeatable,
		Position:     c.pos,
	}
	for _, location := range directive.Locations {
		def.Locations = append(def.Locations, ast.DirectiveLocation(location))
	}
	for _, arg := range directive.Args {
		argDef, err := c.convertInputValue(arg)
		if err != nil {
			return nil, fmt.Errorf("@%s(%s): %w", directive.Name, arg.Name, err)
		}
		def.Arguments = append(def.Arguments, argDef)
	}

	return def, nil
}

func (c *introspectionConverter) deprecated(isDeprecated bool, reason *string) ast.DirectiveList {
	if !isDeprecated {
		return nil
	}

	d := &ast.Directive{
		Name:     "deprecated",
		Position: c.pos,
	}
	if reason != nil {
		d.Arguments = append(d.Arguments, &ast.Argument{
			Name: "reason",
			Value: &ast.Value{
				Raw:      *reason,
				Kind:     ast.StringValue,
				Position: c.pos,
			},
			Position: c.pos,
		})
	}
	return ast.DirectiveList{d}
}

// parseValue parses a literal as printed in defaultValue, e.g. `10`, `"text"` or `{a: [RED]}`.
func parseValue(literal string) (*ast.Value, error) {
	schemaDoc, gErr := parser.ParseSchema(&ast.Source{
		Name:  "defaultValue",
		Input: "input DefaultValue { value: String = " + literal + " }",
	})
	if gErr != nil {
		return nil, fmt.Errorf("parse default value %s: %w", literal, gErr)
	}

	return schemaDoc.Definitions[0].Fields[0].DefaultValue, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
