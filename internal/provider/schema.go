package provider

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"
	"github.com/vektah/gqlparser/v2/validator"
	"github.com/vvakame/gqlmod/internal/builtin"
	"github.com/vvakame/gqlmod/internal/errs"
	"github.com/vvakame/gqlmod/internal/log"
)

// SchemaFor returns the schema served by the provider named name, as seen from ctx.
//
// The first successful result is kept for the lifetime of the registry, keyed by
// name alone: an override built with different params shares the schema fetched
// by whichever instance asked first. Concurrent first calls share one fetch,
// made with the provider the first caller's ctx sees. Each caller resolves its
// provider before joining, and cancelling the first caller's ctx does not abort
// the shared fetch, so neither can fail the other callers.
func (r *Registry) SchemaFor(ctx context.Context, name string) (*ast.Schema, error) {
	r.schemaMu.RLock()
	schema := r.schemas[name]
	r.schemaMu.RUnlock()
	if schema != nil {
		return schema, nil
	}

	p, err := r.Get(ctx, name)
	if err != nil {
		return nil, err
	}

	fetchCtx := context.WithoutCancel(ctx)
	v, err, _ := r.group.Do(name, func() (interface{}, error) {
		r.schemaMu.RLock()
		schema := r.schemas[name]
		r.schemaMu.RUnlock()
		if schema != nil {
			return schema, nil
		}

		schema, err := FetchSchema(fetchCtx, p)
		if err != nil {
			return nil, err
		}

		r.schemaMu.Lock()
		r.schemas[name] = schema
		r.schemaMu.Unlock()

		return schema, nil
	})
	if err != nil {
		return nil, err
	}

	return v.(*ast.Schema), nil
}

// FetchSchema asks p for its schema, through SDL when p offers it and through introspection otherwise.
func FetchSchema(ctx context.Context, p Provider) (*ast.Schema, error) {
	ctx, logger := log.Named(ctx, "schema")

	var schemaDoc *ast.SchemaDocument
	if sdlProvider, ok := p.(SDLProvider); ok {
		logger.Info("fetch schema by sdl")
		sdl, err := sdlProvider.SDL(ctx)
		if err != nil {
			return nil, err
		}

		var gErr error
		schemaDoc, gErr = parseSDL(sdl)
		if gErr != nil {
			return nil, gErr
		}
	} else {
		logger.Info("fetch schema by introspection")
		resp := p.Query(ctx, builtin.IntrospectionQuery, nil)
		if len(resp.Errors) != 0 {
			return nil, errs.FromList(resp.Errors)
		}

		data := &IntrospectionData{}
		err := json.Unmarshal(resp.Data, data)
		if err != nil {
			return nil, fmt.Errorf("decode introspection result: %w", err)
		}

		schemaDoc, err = data.SchemaDocument()
		if err != nil {
			return nil, err
		}
	}

	return BuildSchema(ctx, schemaDoc)
}

func parseSDL(sdl string) (*ast.SchemaDocument, error) {
	schemaDoc, gErr := parser.ParseSchema(&ast.Source{
		Name:  "sdl.graphqls",
		Input: sdl,
	})
	if gErr != nil {
		return nil, gErr
	}
	return schemaDoc, nil
}

// BuildSchema completes schemaDoc with whatever built-in declarations it lacks and validates it.
//
// The five specified scalars, the specified directives and the introspection types
// are added when missing. Declarations already present are kept as they are.
func BuildSchema(ctx context.Context, schemaDoc *ast.SchemaDocument) (*ast.Schema, error) {
	logger := log.FromContext(ctx)

	for _, name := range builtin.SpecifiedScalarNames {
		if schemaDoc.Definitions.ForName(name) != nil {
			continue
		}
		logger.V(log.LevelTraversal).Info("synthesize scalar", "name", name)
		schemaDoc.Definitions = append(schemaDoc.Definitions, builtin.NewScalar(name))
	}

	for _, def := range builtin.SpecifiedDirectives() {
		if schemaDoc.Directives.ForName(def.Name) != nil {
			continue
		}
		schemaDoc.Directives = append(schemaDoc.Directives, def)
	}

	for _, def := range builtin.IntrospectionTypes() {
		if schemaDoc.Definitions.ForName(def.Name) != nil {
			continue
		}
		schemaDoc.Definitions = append(schemaDoc.Definitions, def)
	}

	schema, gErr := validator.ValidateSchemaDocument(schemaDoc)
	if gErr != nil {
		return nil, gErr
	}

	return schema, nil
}
