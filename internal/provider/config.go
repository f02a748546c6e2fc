package provider

import (
	"fmt"
	"io"
	"sort"

	"github.com/goccy/go-yaml"
)

const (
	KindRemote = "remote"
)

// Config is the content of a provider file.
//
//	providers:
//	  starwars:
//	    kind: remote
//	    url: https://example.com/graphql
//	    headers:
//	      Authorization: Bearer xxx
type Config struct {
	Providers map[string]*ProviderConfig `yaml:"providers"`
}

type ProviderConfig struct {
	// Kind defaults to KindRemote.
	Kind    string            `yaml:"kind"`
	URL     string            `yaml:"url"`
	Headers map[string]string `yaml:"headers"`
}

func LoadConfig(r io.Reader) (*Config, error) {
	cfg := &Config{}
	if err := yaml.NewDecoder(r, yaml.DisallowUnknownField()).Decode(cfg); err != nil {
		return nil, fmt.Errorf("load provider config: %w", err)
	}

	for name, pc := range cfg.Providers {
		if pc == nil {
			return nil, fmt.Errorf("provider %q has no settings", name)
		}
		if pc.Kind == "" {
			pc.Kind = KindRemote
		}
	}

	return cfg, nil
}

// Apply registers one factory per configured provider. opts are passed to every remote provider.
func (cfg *Config) Apply(r *Registry, opts ...RemoteOption) error {
	names := make([]string, 0, len(cfg.Providers))
	for name := range cfg.Providers {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		pc := cfg.Providers[name]

		var factory Factory
		switch pc.Kind {
		case KindRemote:
			remoteOpts := append([]RemoteOption{}, opts...)
			for key, value := range pc.Headers {
				remoteOpts = append(remoteOpts, WithHeader(key, value))
			}
			factory = RemoteFactory(pc.URL, remoteOpts...)
		default:
			return fmt.Errorf("provider %q has unknown kind %q", name, pc.Kind)
		}

		if err := r.Register(name, factory); err != nil {
			return err
		}
	}

	return nil
}
