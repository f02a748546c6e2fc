package gqlmod

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/99designs/gqlgen/graphql"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/gqlerror"
	"github.com/vektah/gqlparser/v2/parser"
	"github.com/vektah/gqlparser/v2/validator"
	_ "github.com/vektah/gqlparser/v2/validator/rules"
	"github.com/vvakame/gqlmod/internal/errs"
	"github.com/vvakame/gqlmod/internal/log"
)

// Document is a query file bound to the provider it names.
type Document struct {
	Provider    string
	Source      *ast.Source
	Schema      *ast.Schema
	Query       *ast.QueryDocument
	Annotations *Result
}

// ReadProviderName returns the provider named by the header of a query file.
//
// The header is a line "#~name~" within the leading block of comment lines.
// Whitespace anywhere on the line is ignored. "" is returned when there is none.
func ReadProviderName(r io.Reader) (string, error) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.Map(func(r rune) rune {
			if unicode.IsSpace(r) {
				return -1
			}
			return r
		}, scanner.Text())

		if strings.HasPrefix(line, "#~") && strings.HasSuffix(line, "~") && len(line) > 2 {
			return line[2 : len(line)-1], nil
		}
		if !strings.HasPrefix(line, "#") {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}

	return "", nil
}

// Validate checks doc against schema. A single failure is returned as *gqlerror.Error,
// several as *MultiError.
func Validate(schema *ast.Schema, doc *ast.QueryDocument) error {
	gErrs := validator.Validate(schema, doc)
	if len(gErrs) == 0 {
		return nil
	}
	return errs.FromList(gErrs)
}

// Load parses the query file fileName, validates it against the schema of the
// provider its header names and annotates it. A document that fails validation
// is reported by the error at its earliest location.
func Load(ctx context.Context, r *Registry, fileName, source string) (*Document, error) {
	ctx, logger := log.Named(ctx, "load")

	doc, gErrs, err := load(ctx, r, fileName, source)
	if err != nil {
		return nil, err
	}
	if len(gErrs) != 0 {
		return nil, errs.First(gErrs)
	}

	logger.V(log.LevelTraversal).Info("annotate", "file", fileName, "provider", doc.Provider)
	doc.Annotations, err = Annotate(ctx, doc.Schema, doc.Query)
	if err != nil {
		return nil, err
	}

	return doc, nil
}

// Check reports every problem of the query file fileName, ordered by location.
// err is only set when the check itself could not run.
func Check(ctx context.Context, r *Registry, fileName, source string) (gqlerror.List, error) {
	_, gErrs, err := load(ctx, r, fileName, source)
	if err != nil {
		return nil, err
	}

	errs.SortByLocation(gErrs)
	return gErrs, nil
}

// WriteCheckReport prints gErrs one location per line as "file:line:column:message".
func WriteCheckReport(w io.Writer, fileName string, gErrs gqlerror.List) error {
	for _, gErr := range gErrs {
		for _, loc := range gErr.Locations {
			_, err := fmt.Fprintf(w, "%s:%d:%d:%s\n", fileName, loc.Line, loc.Column, gErr.Message)
			if err != nil {
				return err
			}
		}
	}
	return nil
}

func load(ctx context.Context, r *Registry, fileName, source string) (*Document, gqlerror.List, error) {
	name, err := ReadProviderName(strings.NewReader(source))
	if err != nil {
		return nil, nil, err
	}
	if name == "" {
		return nil, nil, fmt.Errorf("no provider defined in %s", fileName)
	}

	schema, err := r.SchemaFor(ctx, name)
	if err != nil {
		return nil, nil, fmt.Errorf("schema of provider %s: %w", name, err)
	}

	src := &ast.Source{
		Name:  fileName,
		Input: source,
	}
	queryDoc, gErr := parser.ParseQuery(src)
	if gErr != nil {
		return nil, gqlerror.List{gqlerror.WrapIfUnwrapped(gErr)}, nil
	}

	doc := &Document{
		Provider: name,
		Source:   src,
		Schema:   schema,
		Query:    queryDoc,
	}
	return doc, validator.Validate(schema, queryDoc), nil
}

// Exec sends query to the provider named name as seen from ctx.
// Failures of the query itself are reported in the response.
func Exec(ctx context.Context, r *Registry, name, query string, variables map[string]interface{}) (*graphql.Response, error) {
	p, err := r.Get(ctx, name)
	if err != nil {
		return nil, err
	}

	return p.Query(ctx, query, variables), nil
}

// Exec sends the operation named operationName, together with the fragments it uses, to the provider of doc.
func (doc *Document) Exec(ctx context.Context, r *Registry, operationName string, variables map[string]interface{}) (*graphql.Response, error) {
	op := doc.Query.Operations.ForName(operationName)
	if op == nil {
		return nil, fmt.Errorf("operation %q is not defined in %s", operationName, doc.Source.Name)
	}

	return Exec(ctx, r, doc.Provider, OperationSource(doc.Query, op), variables)
}
