package engine

import (
	"github.com/canvasloom/loom/pkg/conv"
)

// Status tracks the lifecycle of a call result.
type Status string

const (
	// StatusIdle means the result is still being assembled.
	StatusIdle Status = "idle"

	// StatusFinished means the result is complete, successfully or not.
	StatusFinished Status = "finished"
)

// CallResult is the outcome of a provider call or a tool invocation. It
// carries the extended conversation body, combined usage metrics, and the
// ranked diagnostic messages of everything that went wrong or was worth
// noting along the way.
//
// Failures never surface as Go errors from the orchestration loop; they
// surface here, as error-severity messages plus an error interaction in the
// body that preserves the underlying text verbatim.
type CallResult struct {
	body     conv.Body
	metrics  conv.Metrics
	status   Status
	messages []conv.Message
}

// NewCallResult creates an idle result seeded with the given body.
func NewCallResult(body conv.Body) *CallResult {
	return &CallResult{
		body:   body,
		status: StatusIdle,
	}
}

// Body returns the result's conversation body.
func (r *CallResult) Body() conv.Body { return r.body }

// SetBody replaces the result's conversation body.
func (r *CallResult) SetBody(body conv.Body) { r.body = body }

// SetDecoded extends the request's body with the decoded provider
// interactions. Each appended interaction is flagged new, correlated to the
// request's turn, and stamped with the provider and model that produced it
// when its own metrics do not already say.
func (r *CallResult) SetDecoded(req *CallRequest, providerName string, interactions []conv.Interaction) {
	model := req.Model()
	builder := conv.From(req.Body()).SetDefaultTurnID(req.TurnID())
	for _, i := range interactions {
		if i.Metrics.Provider == "" {
			i.Metrics.Provider = providerName
		}
		if i.Metrics.Model == "" {
			i.Metrics.Model = model
		}
		builder.Add(i)
	}
	r.body = builder.EnsureTurnID().Build()
}

// Metrics returns the explicitly recorded metrics combined with the fold of
// the body's per-interaction metrics.
func (r *CallResult) Metrics() conv.Metrics {
	return r.body.Metrics().Combine(r.metrics)
}

// AddMetrics folds additional usage metrics into the result.
func (r *CallResult) AddMetrics(m conv.Metrics) {
	r.metrics = r.metrics.Combine(m)
}

// Status returns the lifecycle status.
func (r *CallResult) Status() Status { return r.status }

// Finish marks the result complete.
func (r *CallResult) Finish() { r.status = StatusFinished }

// Finished reports whether the result is complete.
func (r *CallResult) Finished() bool { return r.status == StatusFinished }

// AddMessages appends diagnostic messages to the result.
func (r *CallResult) AddMessages(msgs ...conv.Message) {
	r.messages = append(r.messages, msgs...)
}

// Messages returns the result's own messages merged with those carried by
// the body's interactions, de-duplicated and ranked by severity.
func (r *CallResult) Messages() []conv.Message {
	return conv.MergeMessages(r.messages, r.body.Messages())
}

// Success reports whether the result carries no error-severity message.
func (r *CallResult) Success() bool {
	return !conv.HasError(r.Messages())
}

// newErrorResult builds a finished result whose body extends base with one
// error interaction preserving the raw failure text, plus a matching
// error-severity message of the given origin.
func newErrorResult(base conv.Body, turnID string, origin conv.Origin, err error) *CallResult {
	text := "unknown error"
	if err != nil {
		text = err.Error()
	}
	body := conv.From(base).
		SetDefaultTurnID(turnID).
		Add(conv.NewError(text)).
		EnsureTurnID().
		Build()
	result := &CallResult{
		body:     body,
		status:   StatusFinished,
		messages: []conv.Message{conv.Error(origin, text)},
	}
	return result
}

// NewProviderErrorResult builds a finished result for a failure inside the
// provider or its backing service.
func NewProviderErrorResult(req *CallRequest, err error) *CallResult {
	return newErrorResult(req.Body(), req.TurnID(), conv.OriginProvider, err)
}

// NewNetworkErrorResult builds a finished result for a transport-level
// failure reaching the provider.
func NewNetworkErrorResult(req *CallRequest, err error) *CallResult {
	return newErrorResult(req.Body(), req.TurnID(), conv.OriginNetwork, err)
}

// NewToolErrorResult builds a finished result for a failed tool invocation.
func NewToolErrorResult(inv *ToolInvocationRequest, err error) *CallResult {
	return newErrorResult(inv.Body(), inv.TurnID(), conv.OriginTool, err)
}

// NewReturnErrorResult builds a finished result for a malformed or
// unusable provider response.
func NewReturnErrorResult(req *CallRequest, err error) *CallResult {
	return newErrorResult(req.Body(), req.TurnID(), conv.OriginReturn, err)
}
