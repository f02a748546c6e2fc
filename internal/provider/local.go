package provider

import (
	"bytes"
	"context"

	"github.com/99designs/gqlgen/graphql"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/formatter"
	"github.com/vektah/gqlparser/v2/gqlerror"
	"github.com/vektah/gqlparser/v2/parser"
	"github.com/vektah/gqlparser/v2/validator"
	_ "github.com/vektah/gqlparser/v2/validator/rules"
	"github.com/vvakame/gqlmod/internal/log"
)

var _ SDLProvider = (*LocalProvider)(nil)

// LocalProvider executes queries in process against a gqlgen executable schema.
type LocalProvider struct {
	ExecutableSchema graphql.ExecutableSchema
}

// LocalFactory returns a Factory that wraps es. Params are ignored.
func LocalFactory(es graphql.ExecutableSchema) Factory {
	return func(ctx context.Context, params Params) (Provider, error) {
		return &LocalProvider{ExecutableSchema: es}, nil
	}
}

func (p *LocalProvider) SDL(ctx context.Context) (string, error) {
	var buf bytes.Buffer
	formatter.NewFormatter(&buf).FormatSchema(p.ExecutableSchema.Schema())
	return buf.String(), nil
}

func (p *LocalProvider) Query(ctx context.Context, query string, variables map[string]interface{}) *graphql.Response {
	logger := log.FromContext(ctx)

	oc, gErrs := p.operationContext(query, variables)
	if len(gErrs) != 0 {
		logger.V(log.LevelTraversal).Info("query rejected", "errors", len(gErrs))
		return &graphql.Response{Errors: gErrs}
	}

	ctx = graphql.WithOperationContext(ctx, oc)
	// TODO accept an error presenter and recover func through LocalFactory.
	ctx = graphql.WithResponseContext(ctx, graphql.DefaultErrorPresenter, graphql.DefaultRecover)

	rh := p.ExecutableSchema.Exec(ctx)
	resp := rh(ctx)
	if gErrs := graphql.GetErrors(ctx); len(gErrs) != 0 {
		return &graphql.Response{Errors: gErrs}
	}

	return resp
}

func (p *LocalProvider) operationContext(query string, variables map[string]interface{}) (*graphql.OperationContext, gqlerror.List) {
	queryDoc, gErr := parser.ParseQuery(&ast.Source{
		Input: query,
	})
	if gErr != nil {
		return nil, gqlerror.List{gqlerror.WrapIfUnwrapped(gErr)}
	}
	gErrs := validator.Validate(p.ExecutableSchema.Schema(), queryDoc)
	if len(gErrs) != 0 {
		return nil, gErrs
	}

	op := queryDoc.Operations.ForName("")
	if op == nil {
		return nil, gqlerror.List{gqlerror.Errorf("document must hold exactly one operation")}
	}

	oc := &graphql.OperationContext{
		RawQuery:  query,
		Variables: variables,
		Doc:       queryDoc,
		Operation: op,
		ResolverMiddleware: func(ctx context.Context, next graphql.Resolver) (res interface{}, err error) {
			return next(ctx)
		},
	}

	return oc, nil
}
