// Package gqlmod binds GraphQL query documents to the schema of the backend they target.
//
// A query document names its backend, a provider, in a header comment. The
// provider's schema is fetched once per registry, the document is validated
// against it, and every node of the document is annotated with the schema
// element it refers to. Walkers flatten the annotated document and the input
// types of its variables for code generation and diagnostics.
package gqlmod

import (
	"context"
	"iter"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vvakame/gqlmod/internal/annotate"
	"github.com/vvakame/gqlmod/internal/errs"
	"github.com/vvakame/gqlmod/internal/provider"
	"github.com/vvakame/gqlmod/internal/walk"
)

type (
	Provider       = provider.Provider
	SDLProvider    = provider.SDLProvider
	Factory        = provider.Factory
	Params         = provider.Params
	Registry       = provider.Registry
	RegistryOption = provider.RegistryOption
	RemoteOption   = provider.RemoteOption
	LocalProvider  = provider.LocalProvider
	RemoteProvider = provider.RemoteProvider
	Config         = provider.Config

	Result     = annotate.Result
	Bindings   = annotate.Bindings
	References = annotate.References
	Element    = annotate.Element

	QueryField = walk.QueryField
	ShapeField = walk.ShapeField

	MultiError     = errs.MultiError
	InvariantError = errs.InvariantError
	SchemaError    = annotate.SchemaError
)

var (
	ErrUnknownProvider = provider.ErrUnknownProvider

	WithFactory    = provider.WithFactory
	WithHTTPClient = provider.WithHTTPClient
	WithHeader     = provider.WithHeader
	LocalFactory   = provider.LocalFactory
	RemoteFactory  = provider.RemoteFactory
	LoadConfig     = provider.LoadConfig
)

func NewRegistry(opts ...RegistryOption) *Registry {
	return provider.NewRegistry(opts...)
}

// DefaultRegistry returns the registry shared by the whole process.
func DefaultRegistry() *Registry {
	return provider.Default()
}

// Annotate resolves every reference in doc and binds every node to its schema element.
// doc must have passed Validate against schema.
func Annotate(ctx context.Context, schema *ast.Schema, doc *ast.QueryDocument) (*Result, error) {
	return annotate.Annotate(ctx, schema, doc)
}

// WalkQuery produces every field op selects, fragments expanded, in document order.
func WalkQuery(schema *ast.Schema, doc *ast.QueryDocument, op *ast.OperationDefinition) iter.Seq2[*QueryField, error] {
	return walk.Query(schema, doc, op)
}

// WalkVariableShape produces every input field reachable from the type named typeName.
func WalkVariableShape(schema *ast.Schema, variableName, typeName string) iter.Seq2[*ShapeField, error] {
	return walk.VariableShape(schema, variableName, typeName)
}

// WalkVariables produces the shape of every variable op declares.
func WalkVariables(schema *ast.Schema, op *ast.OperationDefinition) iter.Seq2[*ShapeField, error] {
	return walk.Variables(schema, op)
}
