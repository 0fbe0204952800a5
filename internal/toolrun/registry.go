// Package toolrun executes the tool calls a model emits: a thread-safe tool
// registry plus an in-process runner that validates arguments against each
// tool's declared JSON schema before invoking it.
package toolrun

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/canvasloom/loom/pkg/conv"
)

// Tool is one capability the model can invoke.
type Tool interface {
	// Name returns the tool's unique name.
	Name() string

	// Description explains what the tool does, for the model.
	Description() string

	// Schema returns the JSON schema of the tool's arguments.
	Schema() json.RawMessage

	// Execute runs the tool. The params match Schema.
	Execute(ctx context.Context, params json.RawMessage) (json.RawMessage, error)
}

// Registry manages available tools with thread-safe registration and lookup.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
}

// NewRegistry creates an empty tool registry.
func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]Tool),
	}
}

// Register adds a tool by its name. An existing tool with the same name is
// replaced.
func (r *Registry) Register(tool Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[tool.Name()] = tool
}

// Unregister removes a tool by name.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tools, name)
}

// Get returns a tool by name.
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tool, ok := r.tools[name]
	return tool, ok
}

// List returns all registered tools.
func (r *Registry) List() []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tools := make([]Tool, 0, len(r.tools))
	for _, t := range r.tools {
		tools = append(tools, t)
	}
	return tools
}

// Allowed returns the tools the filter admits.
func (r *Registry) Allowed(filter conv.Filter) []Tool {
	var out []Tool
	for _, t := range r.List() {
		if filter.Allows(t.Name()) {
			out = append(out, t)
		}
	}
	return out
}
