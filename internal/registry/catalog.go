// Package registry provides the model capability catalog and the provider
// registry the engine resolves requests against.
package registry

import (
	"sort"
	"strings"
	"sync"

	"github.com/canvasloom/loom/pkg/conv"
	"github.com/canvasloom/loom/pkg/engine"
)

// Tier identifies a model's quality/cost tier.
type Tier string

const (
	TierFlagship Tier = "flagship" // Best quality, highest cost
	TierStandard Tier = "standard" // Good balance
	TierFast     Tier = "fast"     // Faster, cheaper
	TierMini     Tier = "mini"     // Smallest/cheapest
)

// Model describes one model a provider can serve.
type Model struct {
	// ID is the model identifier used in API calls
	ID string `json:"id"`

	// Name is a human-readable name
	Name string `json:"name"`

	// Provider is the provider id serving this model
	Provider string `json:"provider"`

	// Tier is the quality/cost tier
	Tier Tier `json:"tier"`

	// ContextWindow is the maximum context size in tokens
	ContextWindow int `json:"context_window"`

	// MaxOutputTokens is the maximum output size
	MaxOutputTokens int `json:"max_output_tokens,omitempty"`

	// Capabilities is the supported capability set
	Capabilities conv.Capability `json:"capabilities"`

	// Aliases are alternative names for this model
	Aliases []string `json:"aliases,omitempty"`

	// Deprecated indicates the model should no longer be selected
	Deprecated bool `json:"deprecated,omitempty"`

	// ReplacedBy is the recommended replacement for superseded models
	ReplacedBy string `json:"replaced_by,omitempty"`
}

// Supports reports whether the model covers the full capability set.
func (m *Model) Supports(capability conv.Capability) bool {
	return m.Capabilities.Has(capability)
}

// Catalog manages the known models of every provider. It implements
// engine.ModelRegistry.
type Catalog struct {
	models  map[string]*Model // provider/id -> model
	aliases map[string]string // provider/alias -> provider/id
	mu      sync.RWMutex
}

// NewCatalog creates a catalog preloaded with the built-in models.
func NewCatalog() *Catalog {
	c := NewEmptyCatalog()
	c.registerBuiltinModels()
	return c
}

// NewEmptyCatalog creates a catalog with no models registered.
func NewEmptyCatalog() *Catalog {
	return &Catalog{
		models:  make(map[string]*Model),
		aliases: make(map[string]string),
	}
}

func modelKey(provider, id string) string {
	return provider + "/" + strings.ToLower(id)
}

// Register adds a model to the catalog.
func (c *Catalog) Register(model *Model) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.models[modelKey(model.Provider, model.ID)] = model
	for _, alias := range model.Aliases {
		c.aliases[modelKey(model.Provider, alias)] = modelKey(model.Provider, model.ID)
	}
}

// Get retrieves a model by ID or alias.
func (c *Catalog) Get(provider, id string) (*Model, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	key := modelKey(provider, id)
	if model, ok := c.models[key]; ok {
		return model, true
	}
	if realKey, ok := c.aliases[key]; ok {
		return c.models[realKey], true
	}
	return nil, false
}

// Capabilities implements engine.ModelRegistry.
func (c *Catalog) Capabilities(provider, model string) (engine.ModelCapabilities, bool) {
	m, ok := c.Get(provider, model)
	if !ok {
		return engine.ModelCapabilities{}, false
	}
	return engine.ModelCapabilities{
		ContextWindow:     m.ContextWindow,
		SupportsStreaming: m.Capabilities.Has(conv.CapStreaming),
		Capabilities:      m.Capabilities,
	}, true
}

// Default returns the best non-deprecated model of a provider that covers
// the capability set, preferring higher tiers.
func (c *Catalog) Default(provider string, capability conv.Capability) (*Model, bool) {
	candidates := c.List(&Filter{
		Providers:            []string{provider},
		RequiredCapabilities: capability,
	})
	if len(candidates) == 0 {
		return nil, false
	}
	return candidates[0], true
}

// List returns all models matching the filter, sorted by provider, tier,
// then name.
func (c *Catalog) List(filter *Filter) []*Model {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var result []*Model
	for _, model := range c.models {
		if filter.Matches(model) {
			result = append(result, model)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Provider != result[j].Provider {
			return result[i].Provider < result[j].Provider
		}
		if result[i].Tier != result[j].Tier {
			return tierRank(result[i].Tier) < tierRank(result[j].Tier)
		}
		return result[i].Name < result[j].Name
	})
	return result
}

// Filter for querying models.
type Filter struct {
	// Providers to include
	Providers []string

	// Tiers to include
	Tiers []Tier

	// RequiredCapabilities must all be present
	RequiredCapabilities conv.Capability

	// Minimum context window
	MinContextWindow int

	// Include deprecated models
	IncludeDeprecated bool
}

// Matches checks if a model matches the filter.
func (f *Filter) Matches(m *Model) bool {
	if f == nil {
		return true
	}

	if len(f.Providers) > 0 {
		found := false
		for _, p := range f.Providers {
			if p == m.Provider {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	if len(f.Tiers) > 0 {
		found := false
		for _, t := range f.Tiers {
			if t == m.Tier {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	if !m.Supports(f.RequiredCapabilities) {
		return false
	}

	if f.MinContextWindow > 0 && m.ContextWindow < f.MinContextWindow {
		return false
	}

	if !f.IncludeDeprecated && m.Deprecated {
		return false
	}

	return true
}

func tierRank(t Tier) int {
	switch t {
	case TierFlagship:
		return 0
	case TierStandard:
		return 1
	case TierFast:
		return 2
	case TierMini:
		return 3
	default:
		return 4
	}
}
