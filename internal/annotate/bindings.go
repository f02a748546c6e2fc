package annotate

import (
	"fmt"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vvakame/gqlmod/internal/errs"
	"github.com/vvakame/gqlmod/internal/schematype"
)

// Element is the schema element a query document node denotes.
type Element interface {
	isElement()
	String() string
}

var _ Element = (*TypeElement)(nil)
var _ Element = (*FieldElement)(nil)
var _ Element = (*ArgumentElement)(nil)
var _ Element = (*InputFieldElement)(nil)
var _ Element = (*DirectiveElement)(nil)

// TypeElement is bound to operations, fragments, type references, variable definitions and values.
type TypeElement struct {
	Type *schematype.Type
}

// FieldElement is bound to selected fields.
type FieldElement struct {
	Parent     *ast.Definition
	Definition *ast.FieldDefinition
	Type       *schematype.Type
}

// ArgumentElement is bound to field and directive arguments.
type ArgumentElement struct {
	Definition *ast.ArgumentDefinition
	Type       *schematype.Type
}

// InputFieldElement is bound to the fields of an input object literal.
type InputFieldElement struct {
	Parent     *ast.Definition
	Definition *ast.FieldDefinition
	Type       *schematype.Type
}

// DirectiveElement is bound to directive usages.
type DirectiveElement struct {
	Definition *ast.DirectiveDefinition
}

func (*TypeElement) isElement()       {}
func (*FieldElement) isElement()      {}
func (*ArgumentElement) isElement()   {}
func (*InputFieldElement) isElement() {}
func (*DirectiveElement) isElement()  {}

func (el *TypeElement) String() string {
	return el.Type.String()
}

func (el *FieldElement) String() string {
	return fmt.Sprintf("%s.%s: %s", el.Parent.Name, el.Definition.Name, el.Type)
}

func (el *ArgumentElement) String() string {
	return fmt.Sprintf("%s: %s", el.Definition.Name, el.Type)
}

func (el *InputFieldElement) String() string {
	return fmt.Sprintf("%s.%s: %s", el.Parent.Name, el.Definition.Name, el.Type)
}

func (el *DirectiveElement) String() string {
	return "@" + el.Definition.Name
}

// TypeOf returns the (possibly wrapped) type carried by el.
// Directives carry no type.
func TypeOf(el Element) *schematype.Type {
	switch el := el.(type) {
	case *TypeElement:
		return el.Type
	case *FieldElement:
		return el.Type
	case *ArgumentElement:
		return el.Type
	case *InputFieldElement:
		return el.Type
	default:
		return nil
	}
}

// Bindings is the side table from query document nodes to schema elements.
// Keys are node identities, so it is only meaningful together with the
// document it was built from. It is not safe for concurrent writes.
type Bindings struct {
	operations      map[*ast.OperationDefinition]*TypeElement
	fragments       map[*ast.FragmentDefinition]*TypeElement
	fragmentSpreads map[*ast.FragmentSpread]*TypeElement
	inlineFragments map[*ast.InlineFragment]*TypeElement
	fields          map[*ast.Field]*FieldElement
	arguments       map[*ast.Argument]*ArgumentElement
	objectFields    map[*ast.ChildValue]*InputFieldElement
	directives      map[*ast.Directive]*DirectiveElement
	variables       map[*ast.VariableDefinition]*TypeElement
	typeRefs        map[*ast.Type]*TypeElement
	values          map[*ast.Value]*TypeElement

	entries []*Entry
}

// Entry is one binding, in the order the annotator established it.
type Entry struct {
	Node    interface{}
	Element Element
}

func newBindings() *Bindings {
	return &Bindings{
		operations:      make(map[*ast.OperationDefinition]*TypeElement),
		fragments:       make(map[*ast.FragmentDefinition]*TypeElement),
		fragmentSpreads: make(map[*ast.FragmentSpread]*TypeElement),
		inlineFragments: make(map[*ast.InlineFragment]*TypeElement),
		fields:          make(map[*ast.Field]*FieldElement),
		arguments:       make(map[*ast.Argument]*ArgumentElement),
		objectFields:    make(map[*ast.ChildValue]*InputFieldElement),
		directives:      make(map[*ast.Directive]*DirectiveElement),
		variables:       make(map[*ast.VariableDefinition]*TypeElement),
		typeRefs:        make(map[*ast.Type]*TypeElement),
		values:          make(map[*ast.Value]*TypeElement),
	}
}

func bindOnce[K comparable, V Element](b *Bindings, table map[K]V, node K, el V) error {
	if prev, ok := table[node]; ok {
		return errs.Invariantf("%s is already bound to %s", describeNode(node), prev)
	}
	table[node] = el
	b.entries = append(b.entries, &Entry{Node: node, Element: el})
	return nil
}

// Lookup returns the element bound to node, whatever its kind.
func (b *Bindings) Lookup(node interface{}) (Element, bool) {
	var el Element
	switch node := node.(type) {
	case *ast.OperationDefinition:
		el = nilable(b.operations[node])
	case *ast.FragmentDefinition:
		el = nilable(b.fragments[node])
	case *ast.FragmentSpread:
		el = nilable(b.fragmentSpreads[node])
	case *ast.InlineFragment:
		el = nilable(b.inlineFragments[node])
	case *ast.Field:
		el = nilable(b.fields[node])
	case *ast.Argument:
		el = nilable(b.arguments[node])
	case *ast.ChildValue:
		el = nilable(b.objectFields[node])
	case *ast.Directive:
		el = nilable(b.directives[node])
	case *ast.VariableDefinition:
		el = nilable(b.variables[node])
	case *ast.Type:
		el = nilable(b.typeRefs[node])
	case *ast.Value:
		el = nilable(b.values[node])
	}
	return el, el != nil
}

// nilable keeps typed nil pointers out of the Element interface.
func nilable[V interface {
	Element
	comparable
}](el V) Element {
	var zero V
	if el == zero {
		return nil
	}
	return el
}

// TypeOf returns the type bound to node, or nil.
func (b *Bindings) TypeOf(node interface{}) *schematype.Type {
	el, ok := b.Lookup(node)
	if !ok {
		return nil
	}
	return TypeOf(el)
}

func (b *Bindings) Operation(node *ast.OperationDefinition) *TypeElement {
	return b.operations[node]
}

func (b *Bindings) Fragment(node *ast.FragmentDefinition) *TypeElement {
	return b.fragments[node]
}

func (b *Bindings) FragmentSpread(node *ast.FragmentSpread) *TypeElement {
	return b.fragmentSpreads[node]
}

func (b *Bindings) InlineFragment(node *ast.InlineFragment) *TypeElement {
	return b.inlineFragments[node]
}

func (b *Bindings) Field(node *ast.Field) *FieldElement {
	return b.fields[node]
}

func (b *Bindings) Argument(node *ast.Argument) *ArgumentElement {
	return b.arguments[node]
}

func (b *Bindings) ObjectField(node *ast.ChildValue) *InputFieldElement {
	return b.objectFields[node]
}

func (b *Bindings) Directive(node *ast.Directive) *DirectiveElement {
	return b.directives[node]
}

func (b *Bindings) VariableDefinition(node *ast.VariableDefinition) *TypeElement {
	return b.variables[node]
}

func (b *Bindings) TypeRef(node *ast.Type) *TypeElement {
	return b.typeRefs[node]
}

func (b *Bindings) Value(node *ast.Value) *TypeElement {
	return b.values[node]
}

// Len returns the number of bound nodes.
func (b *Bindings) Len() int {
	return len(b.entries)
}

// Entries returns every binding in the order it was established.
func (b *Bindings) Entries() []*Entry {
	result := make([]*Entry, len(b.entries))
	copy(result, b.entries)
	return result
}

// References is the side table from variable usages to their definitions and
// from fragment spreads to the fragments they name.
type References struct {
	variables map[*ast.Value]*ast.VariableDefinition
	spreads   map[*ast.FragmentSpread]*ast.FragmentDefinition
}

func newReferences() *References {
	return &References{
		variables: make(map[*ast.Value]*ast.VariableDefinition),
		spreads:   make(map[*ast.FragmentSpread]*ast.FragmentDefinition),
	}
}

func (r *References) Variable(node *ast.Value) *ast.VariableDefinition {
	return r.variables[node]
}

func (r *References) FragmentSpread(node *ast.FragmentSpread) *ast.FragmentDefinition {
	return r.spreads[node]
}

// Lookup returns the definition node referenced by node.
func (r *References) Lookup(node interface{}) (interface{}, bool) {
	switch node := node.(type) {
	case *ast.Value:
		if def := r.variables[node]; def != nil {
			return def, true
		}
	case *ast.FragmentSpread:
		if def := r.spreads[node]; def != nil {
			return def, true
		}
	}
	return nil, false
}

func (r *References) Len() int {
	return len(r.variables) + len(r.spreads)
}
