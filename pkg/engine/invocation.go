package engine

import (
	"fmt"
	"time"

	"github.com/canvasloom/loom/pkg/conv"
)

// ToolInvocationRequest asks a ToolRunner to execute exactly one pending
// tool call from a conversation body. The runner sees the full body for
// context, but only the wrapped call is executed.
type ToolInvocationRequest struct {
	body    conv.Body
	call    conv.ToolCallContent
	turnID  string
	timeout time.Duration
}

// NewToolInvocationRequest wraps one pending tool call for execution.
func NewToolInvocationRequest(body conv.Body, call conv.ToolCallContent, turnID string) *ToolInvocationRequest {
	return &ToolInvocationRequest{
		body:   body,
		call:   call,
		turnID: turnID,
	}
}

// SetTimeout sets the per-invocation timeout. Zero means the runner's
// default applies.
func (r *ToolInvocationRequest) SetTimeout(d time.Duration) *ToolInvocationRequest {
	r.timeout = d
	return r
}

// Body returns the conversation body the call is taken from.
func (r *ToolInvocationRequest) Body() conv.Body { return r.body }

// Call returns the wrapped tool call.
func (r *ToolInvocationRequest) Call() conv.ToolCallContent { return r.call }

// TurnID returns the turn correlation id for interactions this invocation
// produces.
func (r *ToolInvocationRequest) TurnID() string { return r.turnID }

// Timeout returns the per-invocation timeout.
func (r *ToolInvocationRequest) Timeout() time.Duration { return r.timeout }

// IsValid checks that the wrapped call can be executed: it must name a tool,
// carry a call id, and still be pending in the body. Empty arguments are
// legal for zero-parameter tools and only produce an informational note.
func (r *ToolInvocationRequest) IsValid() (bool, []conv.Message) {
	var msgs []conv.Message

	if r.call.ID == "" {
		msgs = append(msgs, conv.Error(conv.OriginValidation,
			"tool call has no call id"))
	}
	if r.call.Name == "" {
		msgs = append(msgs, conv.Error(conv.OriginValidation,
			"tool call names no tool"))
	}

	if r.call.ID != "" {
		pending := false
		for _, i := range r.body.PendingToolCalls() {
			if i.ToolCall.ID == r.call.ID {
				pending = true
				break
			}
		}
		if !pending {
			msgs = append(msgs, conv.Error(conv.OriginValidation,
				fmt.Sprintf("tool call %q is not pending in the conversation", r.call.ID)))
		}
	}

	if len(r.call.Arguments) == 0 {
		msgs = append(msgs, conv.Info(conv.OriginValidation,
			fmt.Sprintf("tool call %q carries no arguments", r.call.Name)))
	}

	merged := conv.MergeMessages(msgs)
	return !conv.HasError(merged), merged
}
