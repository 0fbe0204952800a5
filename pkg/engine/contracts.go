// Package engine turns a logical "ask the model to do something" intent into
// a validated, capability-correct provider call, executes the tool calls the
// model requests, aggregates usage metrics, and reports a uniform
// success/error outcome.
//
// The engine depends only on the narrow contracts in this file. Concrete
// provider encodings, network transports, and tool side effects live in
// external collaborators injected at construction time; the engine never
// reaches for process-wide singletons.
package engine

import (
	"context"

	"github.com/canvasloom/loom/pkg/conv"
)

// Provider is the contract one AI vendor integration implements.
//
// Implementations must be safe for concurrent use: multiple goroutines may
// call Call simultaneously for different requests.
type Provider interface {
	// Name returns the provider id.
	Name() string

	// Encode turns a validated request into the provider's wire form.
	Encode(ctx context.Context, req *CallRequest) ([]byte, error)

	// Decode turns a raw provider response into ordered interactions.
	Decode(ctx context.Context, raw []byte) ([]conv.Interaction, error)

	// Call executes the request against the vendor API.
	Call(ctx context.Context, req *CallRequest) (*CallResult, error)

	// SelectModel picks a model satisfying the capability set, falling back
	// to a capable default when the requested model is absent, unknown, or
	// incapable.
	SelectModel(capability conv.Capability, requestedModel string) string

	// DefaultModel returns the provider's default model for a capability set.
	DefaultModel(capability conv.Capability) string

	// ValidateCapabilities reports whether the model supports the
	// capability set.
	ValidateCapabilities(model string, capability conv.Capability) bool

	// StreamingAdapter returns the provider's streaming adapter, or nil
	// when the provider cannot stream.
	StreamingAdapter() StreamingAdapter
}

// StreamingAdapter delivers incremental deltas keyed by the stable per-turn
// stream key of the interaction being built, so consumers upsert rather than
// duplicate partial content.
type StreamingAdapter interface {
	// Stream executes the request, invoking emit for each delta. The final
	// accumulated result is returned when the stream completes.
	Stream(ctx context.Context, req *CallRequest, emit func(StreamDelta)) (*CallResult, error)
}

// StreamDelta is one incremental update from a streaming provider call.
type StreamDelta struct {
	// Key is the stable upsert key (see conv.Interaction.StreamKey).
	Key string

	// Text is the incremental content.
	Text string

	// Reasoning is incremental reasoning content, when the model emits it
	// separately.
	Reasoning string

	// Done marks the final delta for this key.
	Done bool
}

// ProviderRegistry resolves provider ids. It is read-only from the engine's
// perspective.
type ProviderRegistry interface {
	// Get returns the provider registered under id.
	Get(id string) (Provider, bool)

	// StreamingEnabled reports the provider-level streaming toggle. A model
	// may support streaming while the deployment has it switched off.
	StreamingEnabled(id string) bool
}

// ModelCapabilities describes what a concrete model can do.
type ModelCapabilities struct {
	// ContextWindow is the context limit in tokens, 0 when unknown.
	ContextWindow int

	// SupportsStreaming reports model-level streaming support.
	SupportsStreaming bool

	// Capabilities is the supported capability set.
	Capabilities conv.Capability
}

// ModelRegistry looks up model capabilities. It is read-only from the
// engine's perspective.
type ModelRegistry interface {
	// Capabilities returns the capability record for a provider's model.
	Capabilities(provider, model string) (ModelCapabilities, bool)
}

// ToolRunner executes one pending tool call against its declared JSON
// argument schema.
//
// Run returns a CallResult whose body extends the invocation body with the
// produced tool-result interactions flagged as new; the engine appends
// exactly those to the aggregate conversation. A nil result or an error is
// converted to a standardized tool error by the engine.
type ToolRunner interface {
	Run(ctx context.Context, req *ToolInvocationRequest) (*CallResult, error)
}
