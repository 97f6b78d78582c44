package chain

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/mikodusami/terminal-promptbuilder/pkg/errors"
)

// Store holds chain definitions: the built-ins plus user-authored chains
// persisted as a JSON document keyed by chain name.
type Store struct {
	path string

	mu     sync.RWMutex
	chains map[string]*Chain
	user   map[string]bool
}

// NewStore creates a store backed by the JSON file at path. Built-in
// chains are always available; the file is optional.
func NewStore(path string) (*Store, error) {
	s := &Store{
		path:   path,
		chains: make(map[string]*Chain),
		user:   make(map[string]bool),
	}
	for name, c := range Builtins() {
		s.chains[name] = c
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

// load reads user chains from the JSON file. A missing file is not an
// error. User chains shadow built-ins with the same name.
func (s *Store) load() error {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return &errors.ConfigError{
			Key:    "chains",
			Reason: fmt.Sprintf("failed to read chain file %s: %v", s.path, err),
		}
	}

	var doc map[string]*Chain
	if err := json.Unmarshal(data, &doc); err != nil {
		return &errors.ConfigError{
			Key:    "chains",
			Reason: fmt.Sprintf("failed to parse chain file %s: %v", s.path, err),
		}
	}

	for name, c := range doc {
		c.Name = name
		if err := c.Validate(); err != nil {
			return &errors.ConfigError{
				Key:    "chains." + name,
				Reason: err.Error(),
			}
		}
		s.chains[name] = c
		s.user[name] = true
	}
	return nil
}

// List returns all chains sorted by name.
func (s *Store) List() []*Chain {
	s.mu.RLock()
	defer s.mu.RUnlock()

	chains := make([]*Chain, 0, len(s.chains))
	for _, c := range s.chains {
		chains = append(chains, c)
	}
	sort.Slice(chains, func(i, j int) bool { return chains[i].Name < chains[j].Name })
	return chains
}

// Get returns the chain with the given name.
func (s *Store) Get(name string) (*Chain, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.chains[name]
	if !ok {
		return nil, &errors.NotFoundError{Resource: "chain", ID: name}
	}
	return c, nil
}

// IsBuiltin reports whether name refers to a built-in chain that has not
// been shadowed by a user definition.
func (s *Store) IsBuiltin(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.chains[name]
	return ok && !s.user[name]
}

// Save validates and persists a user chain, replacing any existing chain
// with the same name.
func (s *Store) Save(c *Chain) error {
	if err := c.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.chains[c.Name] = c
	s.user[c.Name] = true
	return s.flush()
}

// Delete removes a user chain. Built-in chains cannot be deleted.
func (s *Store) Delete(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.user[name] {
		if _, ok := s.chains[name]; ok {
			return &errors.ValidationError{
				Field:      "name",
				Message:    fmt.Sprintf("chain %q is built-in and cannot be deleted", name),
				Suggestion: "Only user-defined chains can be deleted",
			}
		}
		return &errors.NotFoundError{Resource: "chain", ID: name}
	}

	delete(s.user, name)
	if builtin, ok := Builtins()[name]; ok {
		s.chains[name] = builtin
	} else {
		delete(s.chains, name)
	}
	return s.flush()
}

// flush writes user chains to the JSON file. Callers hold the lock.
func (s *Store) flush() error {
	doc := make(map[string]*Chain, len(s.user))
	for name := range s.user {
		doc[name] = s.chains[name]
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return &errors.ConfigError{
			Key:    "chains",
			Reason: fmt.Sprintf("failed to encode chains: %v", err),
		}
	}
	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return &errors.ConfigError{
			Key:    "chains",
			Reason: fmt.Sprintf("failed to write chain file %s: %v", s.path, err),
		}
	}
	return nil
}
