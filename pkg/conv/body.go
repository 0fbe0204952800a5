package conv

import (
	"encoding/json"
	"fmt"
)

// Body is an immutable, ordered snapshot of a conversation: its interactions
// in insertion order plus the policy fields that govern how the next call is
// made. Bodies are constructed only through a Builder; every mutation yields
// a brand-new snapshot.
//
// A Body is safe for concurrent readers.
type Body struct {
	interactions []Interaction
	toolFilter   Filter
	ctxFilter    Filter
	jsonSchema   string
	newIndexes   []int
}

// Len returns the number of interactions.
func (b Body) Len() int {
	return len(b.interactions)
}

// At returns the interaction at index i.
func (b Body) At(i int) Interaction {
	return b.interactions[i]
}

// Interactions returns a copy of the interaction sequence.
func (b Body) Interactions() []Interaction {
	out := make([]Interaction, len(b.interactions))
	copy(out, b.interactions)
	return out
}

// ToolFilter returns the tool filter policy.
func (b Body) ToolFilter() Filter {
	return b.toolFilter
}

// ContextFilter returns the context filter policy.
func (b Body) ContextFilter() Filter {
	return b.ctxFilter
}

// JSONOutputSchema returns the structured-output schema, empty when the call
// does not require JSON output.
func (b Body) JSONOutputSchema() string {
	return b.jsonSchema
}

// RequiresJSONOutput reports whether a structured-output schema is set.
func (b Body) RequiresJSONOutput() bool {
	return b.jsonSchema != ""
}

// NewIndexes returns the indices considered newly added by the last
// mutation, unique and in ascending order. Streaming and UI consumers replay
// only these.
func (b Body) NewIndexes() []int {
	out := make([]int, len(b.newIndexes))
	copy(out, b.newIndexes)
	return out
}

// NewInteractions returns the interactions flagged as new.
func (b Body) NewInteractions() []Interaction {
	out := make([]Interaction, 0, len(b.newIndexes))
	for _, idx := range b.newIndexes {
		out = append(out, b.interactions[idx])
	}
	return out
}

// Metrics folds the metrics of every interaction into one combined record.
func (b Body) Metrics() Metrics {
	var total Metrics
	for _, i := range b.interactions {
		total = total.Combine(i.Metrics)
	}
	return total
}

// Messages returns the union of per-interaction diagnostic messages carried
// by tool results and images, de-duplicated and ranked.
func (b Body) Messages() []Message {
	var sources [][]Message
	for _, i := range b.interactions {
		switch i.Kind {
		case KindToolResult:
			if i.ToolResult != nil && len(i.ToolResult.Messages) > 0 {
				sources = append(sources, i.ToolResult.Messages)
			}
		case KindImage:
			if i.Image != nil && len(i.Image.Messages) > 0 {
				sources = append(sources, i.Image.Messages)
			}
		}
	}
	return MergeMessages(sources...)
}

// PendingToolCalls returns the tool-call interactions that have no matching
// tool result sharing their call ID, in conversation order.
func (b Body) PendingToolCalls() []Interaction {
	resolved := make(map[string]struct{})
	for _, i := range b.interactions {
		if i.Kind == KindToolResult && i.ToolResult != nil {
			resolved[i.ToolResult.ID] = struct{}{}
		}
	}

	var pending []Interaction
	for _, i := range b.interactions {
		if i.Kind != KindToolCall || i.ToolCall == nil {
			continue
		}
		if _, ok := resolved[i.ToolCall.ID]; !ok {
			pending = append(pending, i)
		}
	}
	return pending
}

// Validate checks the snapshot invariants and returns one message per
// violation. A missing turn ID is an error: it is reported, never patched.
func (b Body) Validate() []Message {
	var msgs []Message
	for idx, i := range b.interactions {
		if i.TurnID == "" {
			msgs = append(msgs, Error(OriginValidation,
				fmt.Sprintf("interaction %d (%s) has no turn id", idx, i.Kind)))
		}
		if !i.Valid() {
			msgs = append(msgs, Error(OriginValidation,
				fmt.Sprintf("interaction %d has kind %q but no matching payload", idx, i.Kind)))
		}
	}
	return msgs
}

// bodyJSON is the wire form of a Body for persistence. A persisted
// conversation is replayed by feeding the decoded snapshot back into a
// Builder.
type bodyJSON struct {
	Interactions []Interaction `json:"interactions"`
	ToolFilter   Filter        `json:"tool_filter,omitempty"`
	CtxFilter    Filter        `json:"context_filter,omitempty"`
	JSONSchema   string        `json:"json_output_schema,omitempty"`
	NewIndexes   []int         `json:"interactions_new,omitempty"`
}

// MarshalJSON serializes the snapshot.
func (b Body) MarshalJSON() ([]byte, error) {
	return json.Marshal(bodyJSON{
		Interactions: b.interactions,
		ToolFilter:   b.toolFilter,
		CtxFilter:    b.ctxFilter,
		JSONSchema:   b.jsonSchema,
		NewIndexes:   b.newIndexes,
	})
}

// UnmarshalJSON deserializes a snapshot. New-index markers are rebuilt
// through the same normalization as a Build, so out-of-range or duplicate
// markers in the input are dropped silently.
func (b *Body) UnmarshalJSON(data []byte) error {
	var wire bodyJSON
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	builder := NewReplayBuilder().
		SetToolFilter(wire.ToolFilter).
		SetContextFilter(wire.CtxFilter).
		SetJSONOutputSchema(wire.JSONSchema)
	builder.AddRange(wire.Interactions)
	builder.MarkNew(wire.NewIndexes...)
	*b = builder.Build()
	return nil
}
