package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/99designs/gqlgen/graphql"
	"github.com/vvakame/gqlmod/internal/log"
)

var _ Provider = (*RemoteProvider)(nil)
var _ io.Closer = (*RemoteProvider)(nil)

// RemoteProvider sends every query as a single JSON POST to URL.
// It has no SDL capability, so its schema is fetched by introspection.
type RemoteProvider struct {
	URL    string
	Header http.Header

	Client *http.Client

	// ownClient is the client NewRemoteProvider made when none was given; only it is closed.
	ownClient *http.Client
}

type RemoteOption func(p *RemoteProvider)

// WithHTTPClient makes the provider send requests through client instead of a client of its own.
// client may be shared; closing the provider leaves it alone.
func WithHTTPClient(client *http.Client) RemoteOption {
	return func(p *RemoteProvider) {
		p.Client = client
	}
}

// WithHeader adds a header sent with every request.
func WithHeader(key, value string) RemoteOption {
	return func(p *RemoteProvider) {
		if p.Header == nil {
			p.Header = make(http.Header)
		}
		p.Header.Add(key, value)
	}
}

func NewRemoteProvider(url string, opts ...RemoteOption) *RemoteProvider {
	p := &RemoteProvider{URL: url}
	for _, opt := range opts {
		opt(p)
	}
	if p.Client == nil {
		p.ownClient = &http.Client{
			Transport: http.DefaultTransport.(*http.Transport).Clone(),
		}
		p.Client = p.ownClient
	}
	return p
}

// RemoteFactory returns a Factory for remote providers at url.
// Params may replace the url with "url" and add or replace headers with "headers".
func RemoteFactory(url string, opts ...RemoteOption) Factory {
	return func(ctx context.Context, params Params) (Provider, error) {
		u := url
		if v := params.String("url"); v != "" {
			u = v
		}
		if u == "" {
			return nil, fmt.Errorf("remote provider needs a url")
		}

		p := NewRemoteProvider(u, opts...)
		for key, value := range params.Map("headers") {
			if p.Header == nil {
				p.Header = make(http.Header)
			}
			p.Header.Set(key, value)
		}

		return p, nil
	}
}

func (p *RemoteProvider) client() *http.Client {
	if p.Client == nil {
		return http.DefaultClient
	}
	return p.Client
}

func (p *RemoteProvider) Query(ctx context.Context, query string, variables map[string]interface{}) *graphql.Response {
	logger := log.FromContext(ctx)

	ctx = graphql.WithResponseContext(
		ctx,
		graphql.DefaultErrorPresenter,
		graphql.DefaultRecover,
	)

	type RawParams struct {
		Query     string                 `json:"query"`
		Variables map[string]interface{} `json:"variables"`
	}

	b, err := json.Marshal(&RawParams{
		Query:     query,
		Variables: variables,
	})
	if err != nil {
		graphql.AddError(ctx, err)
		return &graphql.Response{
			Errors: graphql.GetErrors(ctx),
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.URL, bytes.NewBuffer(b))
	if err != nil {
		graphql.AddError(ctx, err)
		return &graphql.Response{
			Errors: graphql.GetErrors(ctx),
		}
	}
	for key, values := range p.Header {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	logger.V(log.LevelTraversal).Info("send query", "url", p.URL)
	resp, err := p.client().Do(req)
	if err != nil {
		graphql.AddError(ctx, err)
		return &graphql.Response{
			Errors: graphql.GetErrors(ctx),
		}
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	b, err = io.ReadAll(resp.Body)
	if err != nil {
		graphql.AddError(ctx, err)
		return &graphql.Response{
			Errors: graphql.GetErrors(ctx),
		}
	}

	if resp.StatusCode != http.StatusOK {
		graphql.AddErrorf(ctx, "unexpected response code: %d", resp.StatusCode)
		return &graphql.Response{
			Errors: graphql.GetErrors(ctx),
		}
	}

	gqlResp := &graphql.Response{}
	err = json.Unmarshal(b, gqlResp)
	if err != nil {
		graphql.AddError(ctx, err)
		return &graphql.Response{
			Errors: graphql.GetErrors(ctx),
		}
	}

	if len(gqlResp.Data) == 0 && len(gqlResp.Errors) == 0 {
		graphql.AddErrorf(ctx, "response has neither data nor errors")
		return &graphql.Response{
			Errors: graphql.GetErrors(ctx),
		}
	}

	return gqlResp
}

// Close drops the idle connections of the client the provider made for itself.
// Clients passed in with WithHTTPClient, and http.DefaultClient, are left open.
func (p *RemoteProvider) Close() error {
	if p.ownClient != nil {
		p.ownClient.CloseIdleConnections()
	}
	return nil
}
