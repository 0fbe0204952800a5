package engine

import (
	"strings"
	"testing"

	"github.com/canvasloom/loom/pkg/conv"
)

func TestCallRequest_EffectiveCapabilityWidening(t *testing.T) {
	_, registry, models := testStack()

	plain := conv.NewBuilder().
		SetDefaultTurnID("t1").
		Add(conv.NewText(conv.AgentUser, "hi")).
		EnsureTurnID().
		Build()
	withSchema := conv.From(plain).SetJSONOutputSchema(`{"type":"object"}`).Build()
	withTools := conv.From(plain).SetToolFilter("search fetch").Build()
	withBoth := conv.From(withSchema).SetToolFilter("*").Build()

	tests := []struct {
		name string
		body conv.Body
		want conv.Capability
	}{
		{"declared only", plain, conv.CapText},
		{"schema implies json output", withSchema, conv.CapText | conv.CapJSONOutput},
		{"tool filter implies function calling", withTools, conv.CapText | conv.CapFunctionCalling},
		{"both implied", withBoth, conv.CapText | conv.CapJSONOutput | conv.CapFunctionCalling},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := NewCallRequest(registry, models).
				SetProvider("acme").
				SetCapability(conv.CapText).
				SetBody(tt.body)
			got := req.EffectiveCapability()
			if got != tt.want {
				t.Errorf("effective capability = %s, want %s", got, tt.want)
			}
			if !got.Has(req.Capability()) {
				t.Error("inference removed a declared flag, widening must be monotonic")
			}
		})
	}
}

func TestCallRequest_ResolveModelMemoization(t *testing.T) {
	provider, registry, models := testStack()

	req := NewCallRequest(registry, models).
		SetProvider("acme").
		SetModel("acme-large").
		SetCapability(conv.CapText).
		SetBody(userBody(t))

	first, _ := req.ResolveModel()
	second, _ := req.ResolveModel()
	if first != second {
		t.Fatalf("resolution not stable: %q then %q", first, second)
	}
	if provider.selectCalls != 1 {
		t.Errorf("SelectModel called %d times for identical inputs, want 1", provider.selectCalls)
	}

	// Changing a key component re-resolves.
	req.SetModel("acme-small")
	req.ResolveModel()
	if provider.selectCalls != 2 {
		t.Errorf("SelectModel called %d times after model change, want 2", provider.selectCalls)
	}

	// Widening the effective capability via the body re-resolves too.
	req.SetBody(conv.From(req.Body()).SetJSONOutputSchema(`{"type":"object"}`).Build())
	req.ResolveModel()
	if provider.selectCalls != 3 {
		t.Errorf("SelectModel called %d times after capability change, want 3", provider.selectCalls)
	}
}

func TestCallRequest_ResolveModelNoCapabilityPassThrough(t *testing.T) {
	provider, registry, models := testStack()

	req := NewCallRequest(registry, models).
		SetProvider("acme").
		SetModel("anything-goes").
		SetBody(userBody(t))

	model, msgs := req.ResolveModel()
	if model != "anything-goes" {
		t.Errorf("pass-through returned %q", model)
	}
	if len(msgs) != 0 {
		t.Errorf("pass-through produced messages: %v", msgs)
	}
	if provider.selectCalls != 0 {
		t.Errorf("SelectModel called %d times without a capability set", provider.selectCalls)
	}
}

func TestCallRequest_ResolveModelFallbackMessages(t *testing.T) {
	_, registry, models := testStack()

	tests := []struct {
		name         string
		model        string
		capability   conv.Capability
		wantModel    string
		wantSeverity conv.Severity
		wantSubstr   string
	}{
		{
			name:         "unspecified model falls back with info",
			model:        "",
			capability:   conv.CapText,
			wantModel:    "acme-large",
			wantSeverity: conv.SeverityInfo,
			wantSubstr:   "no model requested",
		},
		{
			name:         "unknown model falls back with warning",
			model:        "acme-nonexistent",
			capability:   conv.CapText,
			wantModel:    "acme-large",
			wantSeverity: conv.SeverityWarning,
			wantSubstr:   "unknown",
		},
		{
			name:         "incapable model falls back with warning",
			model:        "acme-small",
			capability:   conv.CapText | conv.CapFunctionCalling,
			wantModel:    "acme-large",
			wantSeverity: conv.SeverityWarning,
			wantSubstr:   "does not support",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := NewCallRequest(registry, models).
				SetProvider("acme").
				SetModel(tt.model).
				SetCapability(tt.capability).
				SetBody(userBody(t))

			model, msgs := req.ResolveModel()
			if model != tt.wantModel {
				t.Errorf("resolved %q, want %q", model, tt.wantModel)
			}
			if len(msgs) != 1 {
				t.Fatalf("got %d messages, want 1: %v", len(msgs), msgs)
			}
			if msgs[0].Severity != tt.wantSeverity {
				t.Errorf("severity = %s, want %s", msgs[0].Severity, tt.wantSeverity)
			}
			if !strings.Contains(msgs[0].Text, tt.wantSubstr) {
				t.Errorf("message %q does not mention %q", msgs[0].Text, tt.wantSubstr)
			}
		})
	}
}

func TestCallRequest_IsValidCollectsAllViolations(t *testing.T) {
	_, registry, models := testStack()

	// No provider, no input capability, no output capability: every
	// violation must be reported, not just the first.
	req := NewCallRequest(registry, models).
		SetBody(userBody(t))

	ok, msgs := req.IsValid()
	if ok {
		t.Fatal("expected invalid request")
	}
	errCount := 0
	for _, m := range msgs {
		if m.Severity == conv.SeverityError {
			errCount++
		}
	}
	if errCount < 2 {
		t.Errorf("got %d error messages, want at least 2: %v", errCount, msgs)
	}
}

func TestCallRequest_IsValidStreaming(t *testing.T) {
	_, registry, models := testStack()

	tests := []struct {
		name        string
		model       string
		streamingOn bool
		wantOK      bool
	}{
		{"streaming model with toggle on", "acme-large", true, true},
		{"provider toggle off", "acme-large", false, false},
		{"model without streaming support", "acme-small", true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			registry.streaming["acme"] = tt.streamingOn
			req := NewCallRequest(registry, models).
				SetProvider("acme").
				SetModel(tt.model).
				SetCapability(conv.CapText).
				SetStreaming(true).
				SetBody(userBody(t))

			ok, msgs := req.IsValid()
			if ok != tt.wantOK {
				t.Errorf("valid = %v, want %v (messages: %v)", ok, tt.wantOK, msgs)
			}
		})
	}
	registry.streaming["acme"] = true
}

func TestCallRequest_IsValidJSONOutputNeedsSchema(t *testing.T) {
	_, registry, models := testStack()

	req := NewCallRequest(registry, models).
		SetProvider("acme").
		SetCapability(conv.CapText | conv.CapJSONOutput).
		SetBody(userBody(t))

	ok, msgs := req.IsValid()
	if ok {
		t.Fatalf("declared json output without a schema must fail: %v", msgs)
	}

	req.SetBody(conv.From(req.Body()).SetJSONOutputSchema(`{"type":"object"}`).Build())
	if ok, msgs := req.IsValid(); !ok {
		t.Errorf("schema present, expected valid: %v", msgs)
	}
}

func TestCallRequest_IsValidSurfacesBodyViolations(t *testing.T) {
	_, registry, models := testStack()

	body := conv.NewBuilder().
		Add(conv.NewText(conv.AgentUser, "no turn id here")).
		Build()
	req := NewCallRequest(registry, models).
		SetProvider("acme").
		SetCapability(conv.CapText).
		SetBody(body)

	ok, msgs := req.IsValid()
	if ok {
		t.Fatal("body with missing turn id must fail validation")
	}
	found := false
	for _, m := range msgs {
		if strings.Contains(m.Text, "turn id") {
			found = true
		}
	}
	if !found {
		t.Errorf("turn id violation not surfaced: %v", msgs)
	}
}

func TestCallRequest_TurnIDStable(t *testing.T) {
	_, registry, models := testStack()
	req := NewCallRequest(registry, models)

	first := req.TurnID()
	if first == "" {
		t.Fatal("turn id is empty")
	}
	if second := req.TurnID(); second != first {
		t.Errorf("turn id changed between calls: %q then %q", first, second)
	}
}
