// Package conv provides the conversation data model for the loom engine:
// interactions, immutable conversation bodies, the body builder, runtime
// messages, capability flags, and usage metrics.
package conv

import (
	"encoding/json"
	"time"
)

// Agent identifies the originator of an interaction.
type Agent string

const (
	AgentContext    Agent = "context"
	AgentSystem     Agent = "system"
	AgentUser       Agent = "user"
	AgentAssistant  Agent = "assistant"
	AgentToolCall   Agent = "tool_call"
	AgentToolResult Agent = "tool_result"
	AgentError      Agent = "error"
	AgentUnknown    Agent = "unknown"
)

// Kind identifies the interaction variant.
type Kind string

const (
	KindText       Kind = "text"
	KindToolCall   Kind = "tool_call"
	KindToolResult Kind = "tool_result"
	KindImage      Kind = "image"
	KindError      Kind = "error"
)

// Interaction is one atomic unit of conversation history.
//
// It is a closed tagged union: Kind selects exactly one of the payload
// pointers below. All consumers (renderers, stream key generation, provider
// decoders) must handle every Kind exhaustively.
//
// Design principles:
//   - Versioned via JSON field additions, never renames
//   - Single Kind discriminator with optional payload pointers
//   - Immutable once placed in a Body snapshot; "mutation" means producing
//     a new Interaction and re-snapshotting through a Builder
type Interaction struct {
	// Kind identifies the variant. Exactly one payload below is non-nil.
	Kind Kind `json:"kind"`

	// TurnID correlates all interactions of one logical turn.
	TurnID string `json:"turn_id,omitempty"`

	// Time is when the interaction was produced.
	Time time.Time `json:"time"`

	// Agent identifies the originator.
	Agent Agent `json:"agent"`

	// Metrics carries token and cost accounting for this interaction.
	Metrics Metrics `json:"metrics,omitempty"`

	Text       *TextContent       `json:"text,omitempty"`
	ToolCall   *ToolCallContent   `json:"tool_call,omitempty"`
	ToolResult *ToolResultContent `json:"tool_result,omitempty"`
	Image      *ImageContent      `json:"image,omitempty"`
	Error      *ErrorContent      `json:"error,omitempty"`
}

// TextContent is the payload of a text interaction.
type TextContent struct {
	// Content is the message text.
	Content string `json:"content"`

	// Reasoning is optional model reasoning emitted alongside the content.
	Reasoning string `json:"reasoning,omitempty"`
}

// ToolCallContent is the payload of a tool-call interaction: a model request
// to execute a named tool.
type ToolCallContent struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

// ToolResultContent is the payload of a tool-result interaction. ID matches
// the originating tool call.
type ToolResultContent struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Result   json.RawMessage `json:"result,omitempty"`
	Messages []Message       `json:"messages,omitempty"`
}

// ImageContent is the payload of an image interaction. Either URL or Data is
// set, not both.
type ImageContent struct {
	URL            string    `json:"url,omitempty"`
	Data           []byte    `json:"data,omitempty"`
	OriginalPrompt string    `json:"original_prompt,omitempty"`
	RevisedPrompt  string    `json:"revised_prompt,omitempty"`
	Size           string    `json:"size,omitempty"`
	Quality        string    `json:"quality,omitempty"`
	Style          string    `json:"style,omitempty"`
	Messages       []Message `json:"messages,omitempty"`
}

// ErrorContent is the payload of an error interaction. Content preserves the
// raw underlying message verbatim for diagnostics.
type ErrorContent struct {
	Content string `json:"content"`
}

// NewText creates a text interaction.
func NewText(agent Agent, content string) Interaction {
	return Interaction{
		Kind:  KindText,
		Time:  time.Now(),
		Agent: agent,
		Text:  &TextContent{Content: content},
	}
}

// NewReasonedText creates a text interaction carrying model reasoning.
func NewReasonedText(agent Agent, content, reasoning string) Interaction {
	return Interaction{
		Kind:  KindText,
		Time:  time.Now(),
		Agent: agent,
		Text:  &TextContent{Content: content, Reasoning: reasoning},
	}
}

// NewToolCall creates a tool-call interaction.
func NewToolCall(id, name string, arguments json.RawMessage) Interaction {
	return Interaction{
		Kind:     KindToolCall,
		Time:     time.Now(),
		Agent:    AgentToolCall,
		ToolCall: &ToolCallContent{ID: id, Name: name, Arguments: arguments},
	}
}

// NewToolResult creates a tool-result interaction for the given call ID.
func NewToolResult(id, name string, result json.RawMessage, messages ...Message) Interaction {
	return Interaction{
		Kind:       KindToolResult,
		Time:       time.Now(),
		Agent:      AgentToolResult,
		ToolResult: &ToolResultContent{ID: id, Name: name, Result: result, Messages: messages},
	}
}

// NewImage creates an image interaction referencing a URL.
func NewImage(agent Agent, url string) Interaction {
	return Interaction{
		Kind:  KindImage,
		Time:  time.Now(),
		Agent: agent,
		Image: &ImageContent{URL: url},
	}
}

// NewError creates an error interaction. The content is preserved verbatim.
func NewError(content string) Interaction {
	return Interaction{
		Kind:  KindError,
		Time:  time.Now(),
		Agent: AgentError,
		Error: &ErrorContent{Content: content},
	}
}

// WithTurnID returns a copy of the interaction with the turn ID set.
func (i Interaction) WithTurnID(turnID string) Interaction {
	i.TurnID = turnID
	return i
}

// WithMetrics returns a copy of the interaction with the metrics record set.
func (i Interaction) WithMetrics(m Metrics) Interaction {
	i.Metrics = m
	return i
}

// WithAgent returns a copy of the interaction with the agent set.
func (i Interaction) WithAgent(agent Agent) Interaction {
	i.Agent = agent
	return i
}

// StreamKey returns a stable per-turn key for streaming consumers. UI layers
// use it to upsert partial content instead of duplicating it: repeated deltas
// for the same logical interaction produce the same key.
//
// Tool calls and results key on their call ID so that multiple calls within
// one turn remain distinct.
func (i Interaction) StreamKey() string {
	switch i.Kind {
	case KindToolCall:
		if i.ToolCall != nil {
			return i.TurnID + "/" + string(i.Kind) + "/" + i.ToolCall.ID
		}
	case KindToolResult:
		if i.ToolResult != nil {
			return i.TurnID + "/" + string(i.Kind) + "/" + i.ToolResult.ID
		}
	}
	return i.TurnID + "/" + string(i.Kind)
}

// Content returns the primary display text of the interaction regardless of
// variant. Tool payloads render as their raw JSON.
func (i Interaction) Content() string {
	switch i.Kind {
	case KindText:
		if i.Text != nil {
			return i.Text.Content
		}
	case KindToolCall:
		if i.ToolCall != nil {
			return string(i.ToolCall.Arguments)
		}
	case KindToolResult:
		if i.ToolResult != nil {
			return string(i.ToolResult.Result)
		}
	case KindImage:
		if i.Image != nil {
			if i.Image.URL != "" {
				return i.Image.URL
			}
			return i.Image.RevisedPrompt
		}
	case KindError:
		if i.Error != nil {
			return i.Error.Content
		}
	}
	return ""
}

// Valid reports whether the interaction payload matches its Kind.
func (i Interaction) Valid() bool {
	switch i.Kind {
	case KindText:
		return i.Text != nil
	case KindToolCall:
		return i.ToolCall != nil && i.ToolCall.ID != ""
	case KindToolResult:
		return i.ToolResult != nil && i.ToolResult.ID != ""
	case KindImage:
		return i.Image != nil
	case KindError:
		return i.Error != nil
	default:
		return false
	}
}
