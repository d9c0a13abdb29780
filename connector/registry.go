package connector

import (
	"fmt"
	"sort"
	"sync"
)

// Registry holds the connectors available to this process, keyed by name.
// It replaces the browser pattern of a global injected object: the registry
// is built once at startup and handed to whoever needs lookups.
type Registry struct {
	mu    sync.RWMutex
	conns map[string]Connector
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{conns: make(map[string]Connector)}
}

// Register adds or replaces a connector under its own name.
func (r *Registry) Register(c Connector) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[c.Name()] = c
}

// Lookup returns the connector registered under name.
func (r *Registry) Lookup(name string) (Connector, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.conns[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return c, nil
}

// Names returns the registered connector names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.conns))
	for n := range r.conns {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
