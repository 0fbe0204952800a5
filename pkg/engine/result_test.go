package engine

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/canvasloom/loom/pkg/conv"
)

func TestCallResult_SetDecoded(t *testing.T) {
	_, registry, models := testStack()
	req := NewCallRequest(registry, models).
		SetProvider("acme").
		SetModel("acme-large").
		SetCapability(conv.CapText).
		SetBody(userBody(t))

	result := NewCallResult(req.Body())
	result.SetDecoded(req, "acme", []conv.Interaction{
		conv.NewText(conv.AgentAssistant, "first"),
		conv.NewToolCall("call-1", "search", json.RawMessage(`{}`)),
	})

	body := result.Body()
	if body.Len() != 3 {
		t.Fatalf("body length = %d, want 3", body.Len())
	}
	added := body.NewInteractions()
	if len(added) != 2 {
		t.Fatalf("new interactions = %d, want 2", len(added))
	}
	for _, i := range added {
		if i.TurnID != req.TurnID() {
			t.Errorf("interaction turn id %q, want request turn %q", i.TurnID, req.TurnID())
		}
		if i.Metrics.Provider != "acme" || i.Metrics.Model != "acme-large" {
			t.Errorf("attribution stamp = %q/%q", i.Metrics.Provider, i.Metrics.Model)
		}
	}
}

func TestCallResult_SetDecodedKeepsExistingAttribution(t *testing.T) {
	_, registry, models := testStack()
	req := NewCallRequest(registry, models).
		SetProvider("acme").
		SetModel("acme-large").
		SetCapability(conv.CapText).
		SetBody(userBody(t))

	stamped := conv.NewText(conv.AgentAssistant, "x").
		WithMetrics(conv.Metrics{Provider: "other", Model: "other-1"})

	result := NewCallResult(req.Body())
	result.SetDecoded(req, "acme", []conv.Interaction{stamped})

	got := result.Body().At(result.Body().Len() - 1)
	if got.Metrics.Provider != "other" || got.Metrics.Model != "other-1" {
		t.Errorf("existing attribution overwritten: %q/%q", got.Metrics.Provider, got.Metrics.Model)
	}
}

func TestErrorResultFactories(t *testing.T) {
	_, registry, models := testStack()

	tests := []struct {
		name   string
		build  func(req *CallRequest) *CallResult
		origin conv.Origin
	}{
		{"provider", func(r *CallRequest) *CallResult {
			return NewProviderErrorResult(r, errors.New("rate limited: 429"))
		}, conv.OriginProvider},
		{"network", func(r *CallRequest) *CallResult {
			return NewNetworkErrorResult(r, errors.New("rate limited: 429"))
		}, conv.OriginNetwork},
		{"return", func(r *CallRequest) *CallResult {
			return NewReturnErrorResult(r, errors.New("rate limited: 429"))
		}, conv.OriginReturn},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := NewCallRequest(registry, models).
				SetProvider("acme").
				SetCapability(conv.CapText).
				SetBody(userBody(t))

			result := tt.build(req)

			if result.Success() {
				t.Fatal("error result must not be successful")
			}
			if !result.Finished() {
				t.Error("error result must be finished")
			}
			msgs := result.Messages()
			if len(msgs) == 0 || msgs[0].Origin != tt.origin {
				t.Fatalf("origin = %v, want %s", msgs, tt.origin)
			}
			if msgs[0].Text != "rate limited: 429" {
				t.Errorf("raw text not preserved verbatim: %q", msgs[0].Text)
			}

			body := result.Body()
			last := body.At(body.Len() - 1)
			if last.Kind != conv.KindError {
				t.Fatalf("last interaction kind = %q, want error", last.Kind)
			}
			if last.Error.Content != "rate limited: 429" {
				t.Errorf("error interaction content = %q", last.Error.Content)
			}
			if last.TurnID == "" {
				t.Error("error interaction has no turn id")
			}
		})
	}
}

func TestNewToolErrorResult(t *testing.T) {
	call := conv.NewToolCall("call-1", "search", json.RawMessage(`{}`))
	body := bodyWithCalls(t, call)
	inv := NewToolInvocationRequest(body, *call.ToolCall, "t1")

	result := NewToolErrorResult(inv, errors.New("command not found"))

	msgs := result.Messages()
	if len(msgs) == 0 || msgs[0].Origin != conv.OriginTool {
		t.Fatalf("origin = %v, want tool", msgs)
	}
	if msgs[0].Text != "command not found" {
		t.Errorf("text = %q", msgs[0].Text)
	}
}

func TestCallResult_SuccessWithWarningsOnly(t *testing.T) {
	result := NewCallResult(conv.Body{})
	result.AddMessages(
		conv.Info(conv.OriginValidation, "note"),
		conv.Warning(conv.OriginValidation, "heads up"),
	)
	if !result.Success() {
		t.Error("warnings must not fail a result")
	}
	result.AddMessages(conv.Error(conv.OriginProvider, "boom"))
	if result.Success() {
		t.Error("error message must fail the result")
	}
}

func TestCallResult_MessagesMergeBodySources(t *testing.T) {
	body := conv.NewBuilder().
		SetDefaultTurnID("t1").
		Add(conv.NewToolResult("call-1", "search", json.RawMessage(`"ok"`),
			conv.Warning(conv.OriginTool, "partial results"))).
		EnsureTurnID().
		Build()

	result := NewCallResult(body)
	result.AddMessages(conv.Info(conv.OriginValidation, "resolved default model"))

	msgs := result.Messages()
	if len(msgs) != 2 {
		t.Fatalf("got %d messages, want 2: %v", len(msgs), msgs)
	}
	if msgs[0].Severity != conv.SeverityWarning {
		t.Errorf("messages not ranked by severity: %v", msgs)
	}
}

func TestCallResult_MetricsFoldBodyAndExplicit(t *testing.T) {
	body := conv.NewBuilder().
		SetDefaultTurnID("t1").
		Add(conv.NewText(conv.AgentAssistant, "x").
			WithMetrics(conv.Metrics{InputTokensPrompt: 10, OutputTokensGenerated: 5})).
		EnsureTurnID().
		Build()

	result := NewCallResult(body)
	result.AddMetrics(conv.Metrics{OutputTokensGenerated: 7})

	m := result.Metrics()
	if m.InputTokens() != 10 {
		t.Errorf("input tokens = %d, want 10", m.InputTokens())
	}
	if m.OutputTokens() != 12 {
		t.Errorf("output tokens = %d, want 12", m.OutputTokens())
	}
}
