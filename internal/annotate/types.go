package annotate

import (
	"context"
	"errors"

	"github.com/go-logr/logr"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vvakame/gqlmod/internal/builtin"
	"github.com/vvakame/gqlmod/internal/errs"
	"github.com/vvakame/gqlmod/internal/log"
	"github.com/vvakame/gqlmod/internal/schematype"
)

// AnnotateTypes binds every operation, fragment, field, argument, object field,
// directive, variable definition, type reference and value of doc to the schema
// element it denotes. refs must come from ResolveReferences on the same doc.
//
// The first problem found stops the pass. Names missing from the schema are
// reported as *SchemaError, broken assumptions about the input as *errs.InvariantError.
func AnnotateTypes(ctx context.Context, schema *ast.Schema, doc *ast.QueryDocument, refs *References) (*Bindings, error) {
	_, logger := log.Named(ctx, "types")

	a := &typeAnnotator{
		schema: schema,
		doc:    doc,
		refs:   refs,
		b:      newBindings(),
		logger: logger,
	}

	for _, op := range doc.Operations {
		err := a.annotateOperation(op)
		if err != nil {
			return nil, err
		}
	}
	for _, frag := range doc.Fragments {
		err := a.annotateFragment(frag)
		if err != nil {
			return nil, err
		}
	}

	return a.b, nil
}

type typeAnnotator struct {
	schema *ast.Schema
	doc    *ast.QueryDocument
	refs   *References
	b      *Bindings
	logger logr.Logger
}

func (a *typeAnnotator) rootType(op *ast.OperationDefinition) *ast.Definition {
	switch op.Operation {
	case ast.Query:
		return a.schema.Query
	case ast.Mutation:
		return a.schema.Mutation
	case ast.Subscription:
		return a.schema.Subscription
	default:
		return nil
	}
}

func (a *typeAnnotator) annotateOperation(op *ast.OperationDefinition) error {
	a.logger.V(log.LevelTraversal).Info("annotate operation", "operation", op.Operation, "name", op.Name)

	root := a.rootType(op)
	if root == nil {
		return schemaErrorf(op.Position, "schema does not define a %s root type", op.Operation)
	}
	err := bindOnce(a.b, a.b.operations, op, &TypeElement{Type: schematype.Named(root)})
	if err != nil {
		return err
	}

	for _, varDef := range op.VariableDefinitions {
		err = a.annotateVariableDefinition(varDef)
		if err != nil {
			return err
		}
	}
	err = a.annotateDirectives(op.Directives)
	if err != nil {
		return err
	}

	return a.annotateSelectionSet(root, op.SelectionSet)
}

func (a *typeAnnotator) annotateFragment(frag *ast.FragmentDefinition) error {
	a.logger.V(log.LevelTraversal).Info("annotate fragment", "name", frag.Name, "on", frag.TypeCondition)

	def, err := a.typeCondition(frag.TypeCondition, frag.Position)
	if err != nil {
		return err
	}
	err = bindOnce(a.b, a.b.fragments, frag, &TypeElement{Type: schematype.Named(def)})
	if err != nil {
		return err
	}

	err = a.annotateDirectives(frag.Directives)
	if err != nil {
		return err
	}

	return a.annotateSelectionSet(def, frag.SelectionSet)
}

func (a *typeAnnotator) typeCondition(name string, pos *ast.Position) (*ast.Definition, error) {
	def := a.schema.Types[name]
	if def == nil {
		return nil, schemaErrorf(pos, "unknown type %s in type condition", name)
	}
	if !schematype.IsCompositeType(def) {
		return nil, schemaErrorf(pos, "type condition %s is a %s, not a composite type", name, def.Kind)
	}
	return def, nil
}

// annotateTypeRef binds typ and its inner list elements bottom up and returns the type typ spells.
func (a *typeAnnotator) annotateTypeRef(typ *ast.Type) (*schematype.Type, error) {
	var inner *schematype.Type
	if typ.Elem != nil {
		elem, err := a.annotateTypeRef(typ.Elem)
		if err != nil {
			return nil, err
		}
		inner = schematype.List(elem)
	} else {
		def := a.schema.Types[typ.NamedType]
		if def == nil {
			return nil, schemaErrorf(typ.Position, "unknown type %s", typ.NamedType)
		}
		inner = schematype.Named(def)
	}

	t := inner
	if typ.NonNull {
		t = schematype.NonNull(inner)
	}

	err := bindOnce(a.b, a.b.typeRefs, typ, &TypeElement{Type: t})
	if err != nil {
		return nil, err
	}

	return t, nil
}

func (a *typeAnnotator) annotateVariableDefinition(varDef *ast.VariableDefinition) error {
	t, err := a.annotateTypeRef(varDef.Type)
	if err != nil {
		return err
	}
	if schematype.IsCompositeType(t.NamedType()) {
		return schemaErrorf(varDef.Position, "variable $%s cannot be of output type %s", varDef.Variable, t)
	}

	err = bindOnce(a.b, a.b.variables, varDef, &TypeElement{Type: t})
	if err != nil {
		return err
	}
	a.logger.V(log.LevelNode).Info("bind variable", "variable", varDef.Variable, "type", t.String())

	if varDef.DefaultValue != nil {
		err = a.annotateValue(varDef.DefaultValue, t)
		if err != nil {
			return err
		}
	}

	return a.annotateDirectives(varDef.Directives)
}

// fieldType converts a declared type from the schema, reporting dangling names as schema errors.
func (a *typeAnnotator) fieldType(typ *ast.Type, pos *ast.Position) (*schematype.Type, error) {
	t, err := schematype.FromAST(a.schema, typ)
	var undefinedErr *schematype.UndefinedTypeError
	if errors.As(err, &undefinedErr) {
		return nil, schemaErrorf(pos, "schema refers to unknown type %s", undefinedErr.Name)
	} else if err != nil {
		return nil, err
	}
	return t, nil
}

func (a *typeAnnotator) annotateDirectives(directives ast.DirectiveList) error {
	for _, d := range directives {
		def := a.schema.Directives[d.Name]
		if def == nil {
			return schemaErrorf(d.Position, "unknown directive @%s", d.Name)
		}
		err := bindOnce(a.b, a.b.directives, d, &DirectiveElement{Definition: def})
		if err != nil {
			return err
		}

		err = a.annotateArguments(d.Arguments, def.Arguments, "@"+d.Name)
		if err != nil {
			return err
		}
	}
	return nil
}

func (a *typeAnnotator) annotateArguments(args ast.ArgumentList, defs ast.ArgumentDefinitionList, owner string) error {
	for _, arg := range args {
		argDef := defs.ForName(arg.Name)
		if argDef == nil {
			return schemaErrorf(arg.Position, "unknown argument %s on %s", arg.Name, owner)
		}
		t, err := a.fieldType(argDef.Type, arg.Position)
		if err != nil {
			return err
		}

		err = bindOnce(a.b, a.b.arguments, arg, &ArgumentElement{Definition: argDef, Type: t})
		if err != nil {
			return err
		}

		err = a.annotateValue(arg.Value, t)
		if err != nil {
			return err
		}
	}
	return nil
}

func (a *typeAnnotator) lookupField(enclosing *ast.Definition, name string) *ast.FieldDefinition {
	if fieldDef := enclosing.Fields.ForName(name); fieldDef != nil {
		return fieldDef
	}
	return builtin.MetaField(name, enclosing == a.schema.Query)
}

func (a *typeAnnotator) annotateSelectionSet(enclosing *ast.Definition, set ast.SelectionSet) error {
	if len(set) != 0 && !schematype.IsCompositeType(enclosing) {
		return errs.Invariantf("selection set on leaf type %s", enclosing.Name)
	}

	for _, selection := range set {
		var err error
		switch selection := selection.(type) {
		case *ast.Field:
			err = a.annotateField(enclosing, selection)
		case *ast.InlineFragment:
			err = a.annotateInlineFragment(enclosing, selection)
		case *ast.FragmentSpread:
			err = a.annotateFragmentSpread(selection)
		default:
			err = errs.Invariantf("unexpected selection %T", selection)
		}
		if err != nil {
			return err
		}
	}

	return nil
}

func (a *typeAnnotator) annotateField(enclosing *ast.Definition, field *ast.Field) error {
	fieldDef := a.lookupField(enclosing, field.Name)
	if fieldDef == nil {
		return schemaErrorf(field.Position, "type %s has no field %s", enclosing.Name, field.Name)
	}
	t, err := a.fieldType(fieldDef.Type, field.Position)
	if err != nil {
		return err
	}

	err = bindOnce(a.b, a.b.fields, field, &FieldElement{Parent: enclosing, Definition: fieldDef, Type: t})
	if err != nil {
		return err
	}
	a.logger.V(log.LevelNode).Info("bind field", "parent", enclosing.Name, "field", field.Name, "type", t.String())

	err = a.annotateArguments(field.Arguments, fieldDef.Arguments, enclosing.Name+"."+fieldDef.Name)
	if err != nil {
		return err
	}
	err = a.annotateDirectives(field.Directives)
	if err != nil {
		return err
	}

	if len(field.SelectionSet) == 0 {
		return nil
	}
	return a.annotateSelectionSet(t.NamedType(), field.SelectionSet)
}

func (a *typeAnnotator) annotateInlineFragment(enclosing *ast.Definition, inline *ast.InlineFragment) error {
	def := enclosing
	if inline.TypeCondition != "" {
		var err error
		def, err = a.typeCondition(inline.TypeCondition, inline.Position)
		if err != nil {
			return err
		}
	}

	err := bindOnce(a.b, a.b.inlineFragments, inline, &TypeElement{Type: schematype.Named(def)})
	if err != nil {
		return err
	}
	err = a.annotateDirectives(inline.Directives)
	if err != nil {
		return err
	}

	return a.annotateSelectionSet(def, inline.SelectionSet)
}

// annotateFragmentSpread binds spread to the type condition of the fragment it names.
// The fragment body is annotated once, through its own definition.
func (a *typeAnnotator) annotateFragmentSpread(spread *ast.FragmentSpread) error {
	if frag := a.refs.FragmentSpread(spread); frag != nil {
		def, err := a.typeCondition(frag.TypeCondition, frag.Position)
		if err != nil {
			return err
		}
		err = bindOnce(a.b, a.b.fragmentSpreads, spread, &TypeElement{Type: schematype.Named(def)})
		if err != nil {
			return err
		}
	}

	return a.annotateDirectives(spread.Directives)
}

// annotateValue binds value to expected, the type its position in the document asks for.
func (a *typeAnnotator) annotateValue(value *ast.Value, expected *schematype.Type) error {
	err := bindOnce(a.b, a.b.values, value, &TypeElement{Type: expected})
	if err != nil {
		return err
	}

	// a single item is coerced into a list, so literals are checked against the named type.
	named := expected.NamedType()

	switch value.Kind {
	case ast.Variable:
		// TODO: cross-check the declared type of the referenced variable against expected.
		return nil

	case ast.NullValue:
		return nil

	case ast.IntValue:
		return checkLiteral(value, named, builtin.Int, builtin.Float, builtin.ID)

	case ast.FloatValue:
		return checkLiteral(value, named, builtin.Float)

	case ast.StringValue, ast.BlockValue:
		return checkLiteral(value, named, builtin.String, builtin.ID)

	case ast.BooleanValue:
		return checkLiteral(value, named, builtin.Boolean)

	case ast.EnumValue:
		if named.Kind == ast.Enum || schematype.IsCustomScalar(named) {
			return nil
		}
		return errs.Invariantf("enum %s at %s given for %s", value.Raw, positionString(value.Position), expected)

	case ast.ListValue:
		if !expected.IsList() {
			if schematype.IsCustomScalar(named) {
				return nil
			}
			return errs.Invariantf("list literal at %s given for %s", positionString(value.Position), expected)
		}
		elem := expected.Nullable().OfType
		for _, child := range value.Children {
			err = a.annotateValue(child.Value, elem)
			if err != nil {
				return err
			}
		}
		return nil

	case ast.ObjectValue:
		if schematype.IsCustomScalar(named) {
			return nil
		}
		if named.Kind != ast.InputObject {
			return errs.Invariantf("object literal at %s given for %s", positionString(value.Position), expected)
		}
		for _, child := range value.Children {
			err = a.annotateObjectField(named, child)
			if err != nil {
				return err
			}
		}
		return nil

	default:
		return errs.Invariantf("unexpected value kind %d at %s", value.Kind, positionString(value.Position))
	}
}

func (a *typeAnnotator) annotateObjectField(parent *ast.Definition, child *ast.ChildValue) error {
	fieldDef := parent.Fields.ForName(child.Name)
	if fieldDef == nil {
		return schemaErrorf(child.Position, "input type %s has no field %s", parent.Name, child.Name)
	}
	t, err := a.fieldType(fieldDef.Type, child.Position)
	if err != nil {
		return err
	}

	err = bindOnce(a.b, a.b.objectFields, child, &InputFieldElement{Parent: parent, Definition: fieldDef, Type: t})
	if err != nil {
		return err
	}

	return a.annotateValue(child.Value, t)
}

func checkLiteral(value *ast.Value, named *ast.Definition, accepts ...string) error {
	if schematype.IsCustomScalar(named) {
		return nil
	}
	if named.Kind == ast.Scalar {
		for _, name := range accepts {
			if named.Name == name {
				return nil
			}
		}
	}
	return errs.Invariantf("literal %s at %s given for %s", value.String(), positionString(value.Position), named.Name)
}
