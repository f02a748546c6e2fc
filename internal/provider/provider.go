// Package provider looks up the backends that serve schemas and answer queries.
//
// A backend is registered under a name together with a Factory. Instances are
// built on first use and kept in a scope; scopes travel in context.Context so
// that an override made by one goroutine is never observed by its siblings.
package provider

import (
	"context"
	"fmt"

	"github.com/99designs/gqlgen/graphql"
)

// Provider answers queries. Failures are reported in Response.Errors.
type Provider interface {
	Query(ctx context.Context, query string, variables map[string]interface{}) *graphql.Response
}

// SDLProvider is a Provider that can hand out its schema as SDL, sparing an introspection round trip.
type SDLProvider interface {
	Provider
	SDL(ctx context.Context) (string, error)
}

// Params configure one provider instance.
type Params map[string]interface{}

// String returns the string value of key, or "".
func (params Params) String(key string) string {
	v, _ := params[key].(string)
	return v
}

// Factory builds a provider instance for the name it is registered under.
type Factory func(ctx context.Context, params Params) (Provider, error)

// Map returns the string map value of key, or nil.
// Values decoded from YAML or JSON arrive as map[string]interface{} and are converted.
func (params Params) Map(key string) map[string]string {
	switch v := params[key].(type) {
	case map[string]string:
		return v
	case map[string]interface{}:
		m := make(map[string]string, len(v))
		for k, v := range v {
			m[k] = fmt.Sprint(v)
		}
		return m
	default:
		return nil
	}
}
