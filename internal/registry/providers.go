package registry

import (
	"sync"

	"github.com/canvasloom/loom/pkg/engine"
)

// Providers is a thread-safe provider registry with per-provider streaming
// toggles. It implements engine.ProviderRegistry.
//
// The streaming toggle is a deployment decision, separate from whether a
// model can stream: a host app may switch streaming off for one provider
// without touching its catalog entries.
type Providers struct {
	providers map[string]engine.Provider
	streaming map[string]bool
	mu        sync.RWMutex
}

// NewProviders creates an empty provider registry.
func NewProviders() *Providers {
	return &Providers{
		providers: make(map[string]engine.Provider),
		streaming: make(map[string]bool),
	}
}

// Register adds a provider under its own name with streaming enabled.
func (r *Providers) Register(p engine.Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[p.Name()] = p
	r.streaming[p.Name()] = true
}

// SetStreamingEnabled flips the streaming toggle for a provider.
func (r *Providers) SetStreamingEnabled(id string, enabled bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.streaming[id] = enabled
}

// Get implements engine.ProviderRegistry.
func (r *Providers) Get(id string) (engine.Provider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[id]
	return p, ok
}

// StreamingEnabled implements engine.ProviderRegistry.
func (r *Providers) StreamingEnabled(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.streaming[id]
}

// IDs returns the registered provider ids.
func (r *Providers) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.providers))
	for id := range r.providers {
		ids = append(ids, id)
	}
	return ids
}
