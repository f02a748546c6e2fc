package provider

import (
	"net/http"
	"strings"
	"testing"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/google/go-cmp/cmp"
)

func TestLoadConfig(t *testing.T) {
	cfg, err := LoadConfig(strings.NewReader(heredoc.Doc(`
		providers:
		  starwars:
		    url: https://example.com/graphql
		    headers:
		      Authorization: Bearer xxx
		  github:
		    kind: remote
		    url: https://api.github.com/graphql
	`)))
	if err != nil {
		t.Fatal(err)
	}

	expected := &Config{
		Providers: map[string]*ProviderConfig{
			"starwars": {
				Kind:    KindRemote,
				URL:     "https://example.com/graphql",
				Headers: map[string]string{"Authorization": "Bearer xxx"},
			},
			"github": {
				Kind: KindRemote,
				URL:  "https://api.github.com/graphql",
			},
		},
	}
	if diff := cmp.Diff(expected, cfg); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadConfig_errors(t *testing.T) {
	tests := []struct {
		name   string
		source string
	}{
		{
			name: "unknown field",
			source: heredoc.Doc(`
				providers:
				  a:
				    endpoint: https://example.com
			`),
		},
		{
			name: "not a map",
			source: heredoc.Doc(`
				providers:
				  - a
			`),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadConfig(strings.NewReader(tt.source)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestConfig_Apply(t *testing.T) {
	ctx, r, _ := newTestRegistry(t)

	requests := make(chan *http.Request, 1)
	srv := newTestServer(t, requests)

	cfg := &Config{
		Providers: map[string]*ProviderConfig{
			"remote": {
				Kind:    KindRemote,
				URL:     srv.URL,
				Headers: map[string]string{"Authorization": "Bearer xxx"},
			},
		},
	}
	if err := cfg.Apply(r, WithHTTPClient(srv.Client())); err != nil {
		t.Fatal(err)
	}

	p, err := r.Get(ctx, "remote")
	if err != nil {
		t.Fatal(err)
	}
	if resp := p.Query(ctx, `{ hello }`, nil); len(resp.Errors) != 0 {
		t.Fatal(resp.Errors)
	}

	req := <-requests
	if v := req.Header.Get("Authorization"); v != "Bearer xxx" {
		t.Errorf("unexpected Authorization header: %s", v)
	}

	if err := cfg.Apply(r); err == nil {
		t.Error("applying twice should fail on duplicate names")
	}
}

func TestConfig_Apply_unknownKind(t *testing.T) {
	cfg := &Config{
		Providers: map[string]*ProviderConfig{
			"a": {Kind: "grpc"},
		},
	}
	if err := cfg.Apply(NewRegistry()); err == nil {
		t.Error("expected error")
	}
}
