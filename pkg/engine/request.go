package engine

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/canvasloom/loom/pkg/conv"
)

// CallRequest binds a conversation body to a provider, a model, and a
// capability set, and validates that the combination can actually be
// executed.
//
// The effective capability is the declared set widened by what the body
// implies: a structured-output schema implies JSON output, an active tool
// filter implies function calling. Widening is monotonic; removing the
// schema later does not retract other inferred flags.
//
// Model selection is memoized per (provider, requested model, effective
// capability). The memo is request-local and re-resolved automatically when
// any key component changes.
type CallRequest struct {
	providers ProviderRegistry
	models    ModelRegistry

	provider       string
	requestedModel string
	capability     conv.Capability
	body           conv.Body
	streaming      bool
	timeout        time.Duration

	mu        sync.Mutex
	turnID    string
	memoKey   string
	memoModel string
	memoMsgs  []conv.Message
}

// NewCallRequest creates a request bound to the given registries.
func NewCallRequest(providers ProviderRegistry, models ModelRegistry) *CallRequest {
	return &CallRequest{
		providers: providers,
		models:    models,
	}
}

// SetProvider sets the provider id.
func (r *CallRequest) SetProvider(id string) *CallRequest {
	r.provider = id
	return r
}

// SetModel sets the explicitly requested model. Empty means "pick one".
func (r *CallRequest) SetModel(model string) *CallRequest {
	r.requestedModel = model
	return r
}

// SetCapability sets the declared capability flags.
func (r *CallRequest) SetCapability(c conv.Capability) *CallRequest {
	r.capability = c
	return r
}

// SetBody sets the conversation body.
func (r *CallRequest) SetBody(body conv.Body) *CallRequest {
	r.body = body
	return r
}

// SetStreaming sets whether the caller wants a streaming response.
func (r *CallRequest) SetStreaming(streaming bool) *CallRequest {
	r.streaming = streaming
	return r
}

// SetTimeout sets the per-request timeout. Zero means no engine-imposed
// deadline.
func (r *CallRequest) SetTimeout(d time.Duration) *CallRequest {
	r.timeout = d
	return r
}

// Provider returns the provider id.
func (r *CallRequest) Provider() string { return r.provider }

// RequestedModel returns the explicitly requested model, possibly empty.
func (r *CallRequest) RequestedModel() string { return r.requestedModel }

// Capability returns the declared capability flags.
func (r *CallRequest) Capability() conv.Capability { return r.capability }

// Body returns the conversation body.
func (r *CallRequest) Body() conv.Body { return r.body }

// StreamingWanted reports whether the caller asked for streaming.
func (r *CallRequest) StreamingWanted() bool { return r.streaming }

// Timeout returns the per-request timeout.
func (r *CallRequest) Timeout() time.Duration { return r.timeout }

// TurnID returns the turn correlation id for interactions this request
// produces, generating one on first use.
func (r *CallRequest) TurnID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.turnID == "" {
		r.turnID = conv.NewTurnID()
	}
	return r.turnID
}

// EffectiveCapability returns the declared capability widened by what the
// body implies.
func (r *CallRequest) EffectiveCapability() conv.Capability {
	eff := r.capability
	if r.body.RequiresJSONOutput() {
		eff |= conv.CapJSONOutput
	}
	if r.body.ToolFilter().IsActive() {
		eff |= conv.CapFunctionCalling
	}
	return eff
}

// Model returns the model the call will use. See ResolveModel.
func (r *CallRequest) Model() string {
	model, _ := r.ResolveModel()
	return model
}

// ResolveModel resolves the concrete model for the effective capability set.
//
// A "none" capability set is treated as a pass-through accessor: the raw
// requested model comes back unmodified and nothing is memoized. Otherwise
// resolution delegates to the provider's selection policy and the outcome is
// memoized until provider, requested model, or effective capability change.
// Fallback messages distinguish an unspecified model (info) from an unknown
// or incompatible one (warning).
func (r *CallRequest) ResolveModel() (string, []conv.Message) {
	eff := r.EffectiveCapability()
	if eff == conv.CapNone {
		return r.requestedModel, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	key := r.provider + "\x00" + r.requestedModel + "\x00" + eff.String()
	if key == r.memoKey {
		return r.memoModel, copyMessages(r.memoMsgs)
	}

	provider, ok := r.providers.Get(r.provider)
	if !ok {
		// Validation reports the missing provider; resolution stays a
		// pass-through.
		return r.requestedModel, nil
	}

	selected := provider.SelectModel(eff, r.requestedModel)
	var msgs []conv.Message
	switch {
	case r.requestedModel == "" && selected != "":
		msgs = append(msgs, conv.Info(conv.OriginValidation,
			fmt.Sprintf("no model requested; using %q for provider %q", selected, r.provider)))
	case selected != r.requestedModel:
		if _, known := r.models.Capabilities(r.provider, r.requestedModel); !known {
			msgs = append(msgs, conv.Warning(conv.OriginValidation,
				fmt.Sprintf("model %q is unknown to provider %q; falling back to %q",
					r.requestedModel, r.provider, selected)))
		} else {
			msgs = append(msgs, conv.Warning(conv.OriginValidation,
				fmt.Sprintf("model %q does not support %s; falling back to %q",
					r.requestedModel, eff, selected)))
		}
	}

	r.memoKey = key
	r.memoModel = selected
	r.memoMsgs = copyMessages(msgs)
	return selected, msgs
}

// IsValid checks the request without side effects and returns whether it can
// be executed plus the ranked diagnostic messages. All violations are
// collected; the first failure does not mask later ones.
func (r *CallRequest) IsValid() (bool, []conv.Message) {
	var msgs []conv.Message

	providerResolvable := false
	if strings.TrimSpace(r.provider) == "" {
		msgs = append(msgs, conv.Error(conv.OriginValidation, "no provider specified"))
	} else if _, ok := r.providers.Get(r.provider); !ok {
		msgs = append(msgs, conv.Error(conv.OriginValidation,
			fmt.Sprintf("unknown provider %q", r.provider)))
	} else {
		providerResolvable = true
	}

	eff := r.EffectiveCapability()
	if !eff.HasInput() {
		msgs = append(msgs, conv.Error(conv.OriginValidation,
			"capability set declares no input"))
	}
	if !eff.HasOutput() {
		msgs = append(msgs, conv.Error(conv.OriginValidation,
			"capability set declares no output"))
	}

	if eff.Has(conv.CapJSONOutput) && r.body.JSONOutputSchema() == "" {
		msgs = append(msgs, conv.Error(conv.OriginValidation,
			"json output requires a non-empty schema"))
	}

	if r.streaming && providerResolvable {
		if !r.providers.StreamingEnabled(r.provider) {
			msgs = append(msgs, conv.Error(conv.OriginValidation,
				fmt.Sprintf("streaming is disabled for provider %q", r.provider)))
		}
		model, _ := r.ResolveModel()
		caps, known := r.models.Capabilities(r.provider, model)
		if !known || !caps.SupportsStreaming {
			msgs = append(msgs, conv.Error(conv.OriginValidation,
				fmt.Sprintf("model %q does not support streaming", model)))
		}
	}

	msgs = append(msgs, r.body.Validate()...)

	merged := conv.MergeMessages(msgs)
	return !conv.HasError(merged), merged
}

func copyMessages(msgs []conv.Message) []conv.Message {
	if msgs == nil {
		return nil
	}
	out := make([]conv.Message, len(msgs))
	copy(out, msgs)
	return out
}
