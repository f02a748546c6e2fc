package provider

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/go-logr/logr"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vvakame/gqlmod/internal/errs"
	"github.com/vvakame/gqlmod/internal/log"
	"golang.org/x/sync/singleflight"
)

// ErrUnknownProvider is returned for names without a registered Factory.
var ErrUnknownProvider = errors.New("unknown provider")

// Registry maps provider names to factories and holds the default scope.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory

	root *scope

	schemaMu sync.RWMutex
	schemas  map[string]*ast.Schema
	group    singleflight.Group
}

// scope holds the provider instances visible to one context.
// A child scope starts as a copy of its parent and never writes to it.
type scope struct {
	mu        sync.Mutex
	instances map[string]Provider
	// owned are the instances this scope constructed and closes on release.
	owned []Provider

	released atomic.Bool
}

type scopeKey struct {
	r *Registry
}

type RegistryOption func(r *Registry)

// WithFactory registers factory under name while the registry is built.
func WithFactory(name string, factory Factory) RegistryOption {
	return func(r *Registry) {
		r.factories[name] = factory
	}
}

func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		factories: make(map[string]Factory),
		root:      &scope{instances: make(map[string]Provider)},
		schemas:   make(map[string]*ast.Schema),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

var defaultRegistry = NewRegistry()

// Default returns the process wide registry.
func Default() *Registry {
	return defaultRegistry
}

// Register makes factory available under name. Registering a name twice is an error.
func (r *Registry) Register(name string, factory Factory) error {
	if factory == nil {
		return fmt.Errorf("provider %q: factory is nil", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.factories[name]; ok {
		return fmt.Errorf("provider %q is already registered", name)
	}
	r.factories[name] = factory

	return nil
}

// Names returns the registered provider names in no particular order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	return names
}

func (r *Registry) factory(name string) (Factory, error) {
	r.mu.RLock()
	factory := r.factories[name]
	r.mu.RUnlock()

	if factory == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, name)
	}
	return factory, nil
}

func (r *Registry) scopeFrom(ctx context.Context) *scope {
	if s, ok := ctx.Value(scopeKey{r: r}).(*scope); ok {
		return s
	}
	return r.root
}

// Get returns the provider named name in the scope carried by ctx.
// A missing instance is built with nil Params and kept in that scope only.
func (r *Registry) Get(ctx context.Context, name string) (Provider, error) {
	s := r.scopeFrom(ctx)
	if s.released.Load() {
		return nil, errs.Invariantf("provider %q requested from a released scope", name)
	}

	s.mu.Lock()
	p, ok := s.instances[name]
	s.mu.Unlock()
	if ok {
		return p, nil
	}

	factory, err := r.factory(name)
	if err != nil {
		return nil, err
	}

	logger := log.FromContext(ctx)
	logger.Info("construct provider", "name", name)
	p, err = factory(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("construct provider %s: %w", name, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// another goroutine may have built one meanwhile; the first stored instance wins.
	if winner, ok := s.instances[name]; ok {
		closeProviders(logger, name, p)
		return winner, nil
	}
	s.instances[name] = p
	s.owned = append(s.owned, p)

	return p, nil
}

// WithProvider returns a context whose scope uses a fresh instance of name built from params.
// Every other instance visible through ctx stays visible. ctx itself is unaffected.
//
// release must be called exactly once when the returned context is no longer used;
// it closes the instances the new scope built. Calling it twice panics.
func (r *Registry) WithProvider(ctx context.Context, name string, params Params) (context.Context, func(), error) {
	parent := r.scopeFrom(ctx)
	if parent.released.Load() {
		return nil, nil, errs.Invariantf("provider %q overridden from a released scope", name)
	}

	factory, err := r.factory(name)
	if err != nil {
		return nil, nil, err
	}

	logger := log.FromContext(ctx)
	logger.Info("construct provider override", "name", name)
	p, err := factory(ctx, params)
	if err != nil {
		return nil, nil, fmt.Errorf("construct provider %s: %w", name, err)
	}

	parent.mu.Lock()
	instances := make(map[string]Provider, len(parent.instances)+1)
	for k, v := range parent.instances {
		instances[k] = v
	}
	parent.mu.Unlock()
	instances[name] = p

	child := &scope{
		instances: instances,
		owned:     []Provider{p},
	}

	release := func() {
		if !child.released.CompareAndSwap(false, true) {
			panic(errs.Invariantf("scope of provider %q released twice", name))
		}

		child.mu.Lock()
		owned := child.owned
		child.owned = nil
		child.mu.Unlock()

		closeProviders(logger, name, owned...)
	}

	return context.WithValue(ctx, scopeKey{r: r}, child), release, nil
}

// Do runs fn with name overridden as WithProvider does, releasing the scope on every exit path.
func (r *Registry) Do(ctx context.Context, name string, params Params, fn func(ctx context.Context) error) error {
	ctx, release, err := r.WithProvider(ctx, name, params)
	if err != nil {
		return err
	}
	defer release()

	return fn(ctx)
}

// Close closes the instances built in the default scope and forgets them.
// Scopes created by WithProvider are closed by their release func instead.
func (r *Registry) Close(ctx context.Context) {
	r.root.mu.Lock()
	owned := r.root.owned
	r.root.owned = nil
	r.root.instances = make(map[string]Provider)
	r.root.mu.Unlock()

	closeProviders(log.FromContext(ctx), "", owned...)
}

func closeProviders(logger logr.Logger, name string, providers ...Provider) {
	for _, p := range providers {
		closer, ok := p.(io.Closer)
		if !ok {
			continue
		}
		if err := closer.Close(); err != nil {
			logger.Error(err, "close provider", "name", name)
		}
	}
}
