package registry

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/go-resty/resty/v2"
	"github.com/kursadbilgin/textify/internal/domain"
	"github.com/kursadbilgin/textify/internal/provider"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Factory builds a provider on first use.
type Factory func() (provider.Provider, error)

type entry struct {
	instance provider.Provider
	factory  Factory
	gen      uint64
}

// Registry maps provider names to instances or deferred factories. A factory
// runs at most once per successful construction; failures are not cached.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]entry
	gen     uint64
	group   singleflight.Group
	logger  *zap.Logger
}

func New(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		entries: make(map[string]entry),
		logger:  logger,
	}
}

// FromConfig registers a factory for every configured provider plus the log
// and array adapters, which need no configuration.
func FromConfig(providers map[string]provider.Config, hooks provider.Hooks, client *resty.Client, logger *zap.Logger) *Registry {
	r := New(logger)

	for _, name := range []string{provider.NameLog, provider.NameArray} {
		if _, ok := providers[name]; !ok {
			r.RegisterFactory(name, constructorFor(name, nil, client, hooks))
		}
	}
	for name, cfg := range providers {
		r.RegisterFactory(name, constructorFor(name, cfg, client, hooks))
	}

	return r
}

func constructorFor(name string, cfg provider.Config, client *resty.Client, hooks provider.Hooks) Factory {
	return func() (provider.Provider, error) {
		return provider.New(name, cfg, client, hooks)
	}
}

// Register binds name to a ready instance, replacing any earlier binding.
func (r *Registry) Register(name string, p provider.Provider) {
	r.set(name, entry{instance: p})
}

// RegisterFactory binds name to a factory, replacing any earlier binding.
func (r *Registry) RegisterFactory(name string, f Factory) {
	r.set(name, entry{factory: f})
}

func (r *Registry) set(name string, e entry) {
	key := normalize(name)

	r.mu.Lock()
	defer r.mu.Unlock()

	r.gen++
	e.gen = r.gen
	r.entries[key] = e
}

// Resolve returns the provider bound to name, constructing it if needed.
// Concurrent first resolves share a single construction.
func (r *Registry) Resolve(name string) (provider.Provider, error) {
	key := normalize(name)

	r.mu.RLock()
	e, ok := r.entries[key]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: textify provider %q not found", domain.ErrProviderNotFound, name)
	}
	if e.instance != nil {
		return e.instance, nil
	}

	v, err, _ := r.group.Do(key, func() (any, error) {
		r.mu.RLock()
		current, ok := r.entries[key]
		r.mu.RUnlock()
		if !ok {
			return nil, fmt.Errorf("%w: textify provider %q not found", domain.ErrProviderNotFound, name)
		}
		if current.instance != nil {
			return current.instance, nil
		}
		if current.factory == nil {
			return nil, fmt.Errorf("%w: textify provider %q has no factory", domain.ErrConfiguration, name)
		}

		p, err := current.factory()
		if err != nil {
			r.logger.Warn("provider construction failed",
				zap.String("provider", key),
				zap.Error(err),
			)
			return nil, fmt.Errorf("failed to create SMS provider %q: %w (check the provider configuration)", key, err)
		}

		r.mu.Lock()
		if latest, ok := r.entries[key]; ok && latest.gen == current.gen {
			r.entries[key] = entry{instance: p, gen: current.gen}
		}
		r.mu.Unlock()

		return p, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(provider.Provider), nil
}

func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.entries[normalize(name)]
	return ok
}

// Names lists every bound provider name in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	r.mu.RUnlock()

	slices.Sort(names)
	return names
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
