package llm

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	pberrors "github.com/mikodusami/terminal-promptbuilder/pkg/errors"
)

var (
	// ErrNoDefaultProvider indicates no default provider has been set.
	ErrNoDefaultProvider = errors.New("no default provider configured")

	// ErrInvalidProvider indicates the provider implementation is invalid.
	ErrInvalidProvider = errors.New("invalid provider")

	// ErrFactoryNotFound indicates no factory is registered for the provider.
	ErrFactoryNotFound = errors.New("provider factory not found")

	// ErrNoProvidersActive indicates no provider has been activated.
	ErrNoProvidersActive = errors.New("no providers configured; set ANTHROPIC_API_KEY, OPENAI_API_KEY, or GEMINI_API_KEY")
)

// ProviderFactory creates a new Provider instance from credentials.
type ProviderFactory func(creds Credentials) (Provider, error)

// Registry manages registered LLM providers. It follows a two-phase
// initialization pattern:
//  1. Factory registration (at import time via init())
//  2. Provider activation (at startup for providers with credentials)
//
// It is safe for concurrent use.
type Registry struct {
	mu              sync.RWMutex
	factories       map[string]ProviderFactory
	providers       map[string]Provider
	defaultProvider string
	fallback        string
}

// NewRegistry creates a new provider registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]ProviderFactory),
		providers: make(map[string]Provider),
	}
}

// RegisterFactory registers a provider factory function. Called at import
// time; does not instantiate the provider. Registering the same name twice
// overwrites the previous factory.
func (r *Registry) RegisterFactory(name string, factory ProviderFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
}

// Activate instantiates a provider from its registered factory. Activating an
// already-active provider is a no-op.
func (r *Registry) Activate(name string, creds Credentials) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	factory, exists := r.factories[name]
	if !exists {
		return fmt.Errorf("%w: %s", ErrFactoryNotFound, name)
	}

	if _, exists := r.providers[name]; exists {
		return nil
	}

	provider, err := factory(creds)
	if err != nil {
		return fmt.Errorf("failed to activate provider %s: %w", name, err)
	}

	r.providers[name] = provider
	return nil
}

// Register adds an already-constructed provider to the registry. Used by
// tests with mock providers.
func (r *Registry) Register(p Provider) error {
	if p == nil {
		return ErrInvalidProvider
	}
	name := p.Name()
	if name == "" {
		return fmt.Errorf("%w: provider name cannot be empty", ErrInvalidProvider)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[name] = p
	return nil
}

// IsActive returns true if the provider has been activated.
func (r *Registry) IsActive(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, exists := r.providers[name]
	return exists
}

// HasFactory returns true if a factory is registered for the given name.
func (r *Registry) HasFactory(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, exists := r.factories[name]
	return exists
}

// ListFactories returns all registered factory names, sorted.
func (r *Registry) ListFactories() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ListActive returns the names of all activated providers, sorted.
func (r *Registry) ListActive() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Get retrieves an activated provider by name.
func (r *Registry) Get(name string) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, exists := r.providers[name]
	if !exists {
		return nil, &pberrors.NotFoundError{
			Resource: "provider",
			ID:       name,
		}
	}
	return p, nil
}

// SetDefault sets the default provider by name.
func (r *Registry) SetDefault(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.providers[name]; !exists {
		return &pberrors.NotFoundError{
			Resource: "provider",
			ID:       name,
		}
	}
	r.defaultProvider = name
	return nil
}

// GetDefault returns the default provider.
func (r *Registry) GetDefault() (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.defaultProvider == "" {
		return nil, ErrNoDefaultProvider
	}
	p, exists := r.providers[r.defaultProvider]
	if !exists {
		return nil, &pberrors.NotFoundError{
			Resource: "provider",
			ID:       r.defaultProvider,
		}
	}
	return p, nil
}

// SetFallback configures a single provider to try when the primary fails.
// An empty name disables fallback.
func (r *Registry) SetFallback(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if name != "" {
		if _, exists := r.providers[name]; !exists {
			return &pberrors.NotFoundError{
				Resource: "provider",
				ID:       name,
			}
		}
	}
	r.fallback = name
	return nil
}

// Fallback returns the configured fallback provider name, or empty.
func (r *Registry) Fallback() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.fallback
}

// globalRegistry is the default registry used by the package-level functions.
var globalRegistry = NewRegistry()

// RegisterFactory registers a provider factory in the global registry.
// Typically called from init() functions in provider packages.
func RegisterFactory(name string, factory ProviderFactory) {
	globalRegistry.RegisterFactory(name, factory)
}

// Activate instantiates a provider from its factory in the global registry.
func Activate(name string, creds Credentials) error {
	return globalRegistry.Activate(name, creds)
}

// DefaultRegistry returns the global registry.
func DefaultRegistry() *Registry {
	return globalRegistry
}
