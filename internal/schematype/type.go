// Package schematype models a schema type reference as an explicit chain of
// wrappers (non-null, list) around a named gqlparser definition.
//
// gqlparser folds non-null into a flag on *ast.Type. Here every wrapper is its own
// link so that unwrapping one level always yields the next type in the chain,
// and two types compare equal when their chains are equal.
package schematype

import (
	"fmt"
	"strings"

	"github.com/vektah/gqlparser/v2/ast"
)

type Kind int

const (
	KindNamed Kind = iota
	KindList
	KindNonNull
)

func (kind Kind) String() string {
	switch kind {
	case KindNamed:
		return "NAMED"
	case KindList:
		return "LIST"
	case KindNonNull:
		return "NON_NULL"
	default:
		return fmt.Sprintf("Kind(%d)", int(kind))
	}
}

type Type struct {
	Kind Kind

	// OfType is set for KindList and KindNonNull.
	OfType *Type
	// Definition is set for KindNamed.
	Definition *ast.Definition
}

func Named(def *ast.Definition) *Type {
	if def == nil {
		panic("schematype: Named with nil definition")
	}
	return &Type{Kind: KindNamed, Definition: def}
}

func List(of *Type) *Type {
	return &Type{Kind: KindList, OfType: of}
}

// NonNull wraps of. Wrapping an already non-null type is rejected, as in GraphQL itself.
func NonNull(of *Type) *Type {
	if of.Kind == KindNonNull {
		panic("schematype: NonNull of NonNull")
	}
	return &Type{Kind: KindNonNull, OfType: of}
}

// UndefinedTypeError is returned when a type reference names a type the schema doesn't have.
type UndefinedTypeError struct {
	Name     string
	Position *ast.Position
}

func (err *UndefinedTypeError) Error() string {
	return fmt.Sprintf("undefined type %s", err.Name)
}

// FromAST converts a gqlparser type reference into a wrapper chain, resolving the
// innermost name against schema.
func FromAST(schema *ast.Schema, typ *ast.Type) (*Type, error) {
	var inner *Type
	if typ.Elem != nil {
		elem, err := FromAST(schema, typ.Elem)
		if err != nil {
			return nil, err
		}
		inner = List(elem)
	} else {
		def := schema.Types[typ.NamedType]
		if def == nil {
			return nil, &UndefinedTypeError{Name: typ.NamedType, Position: typ.Position}
		}
		inner = Named(def)
	}

	if typ.NonNull {
		return NonNull(inner), nil
	}
	return inner, nil
}

// AST converts t back into gqlparser's representation.
func (t *Type) AST() *ast.Type {
	switch t.Kind {
	case KindNonNull:
		inner := t.OfType.AST()
		inner.NonNull = true
		return inner
	case KindList:
		return &ast.Type{Elem: t.OfType.AST()}
	default:
		return &ast.Type{NamedType: t.Definition.Name}
	}
}

func (t *Type) IsNonNull() bool {
	return t != nil && t.Kind == KindNonNull
}

// IsList reports whether t is a list, possibly behind a non-null wrapper.
func (t *Type) IsList() bool {
	return t != nil && t.Nullable().Kind == KindList
}

// Unwrap removes one wrapper. A named type is returned as is.
func (t *Type) Unwrap() *Type {
	if t.Kind == KindNamed {
		return t
	}
	return t.OfType
}

// Nullable strips an outer non-null wrapper, if any.
func (t *Type) Nullable() *Type {
	if t.Kind == KindNonNull {
		return t.OfType
	}
	return t
}

// NamedType returns the innermost named definition.
func (t *Type) NamedType() *ast.Definition {
	current := t
	for current.Kind != KindNamed {
		current = current.OfType
	}
	return current.Definition
}

// Wrappers returns the chain with the named type first and the outermost wrapper last.
func (t *Type) Wrappers() []*Type {
	var chain []*Type
	for current := t; ; current = current.OfType {
		chain = append(chain, current)
		if current.Kind == KindNamed {
			break
		}
	}
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain
}

// Equal compares wrapper chains structurally. Named types compare by name and kind.
func (t *Type) Equal(other *Type) bool {
	if t == nil || other == nil {
		return t == other
	}
	if t.Kind != other.Kind {
		return false
	}
	if t.Kind == KindNamed {
		return t.Definition == other.Definition ||
			(t.Definition.Name == other.Definition.Name && t.Definition.Kind == other.Definition.Kind)
	}
	return t.OfType.Equal(other.OfType)
}

func (t *Type) String() string {
	var buf strings.Builder
	t.write(&buf)
	return buf.String()
}

func (t *Type) write(buf *strings.Builder) {
	switch t.Kind {
	case KindNonNull:
		t.OfType.write(buf)
		buf.WriteString("!")
	case KindList:
		buf.WriteString("[")
		t.OfType.write(buf)
		buf.WriteString("]")
	default:
		buf.WriteString(t.Definition.Name)
	}
}

// UnwrapAST walks a gqlparser type reference node from the outside in and
// returns every node of the chain, the innermost first and the outermost last.
func UnwrapAST(typ *ast.Type) []*ast.Type {
	var chain []*ast.Type
	for current := typ; current != nil; current = current.Elem {
		chain = append(chain, current)
	}
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain
}
