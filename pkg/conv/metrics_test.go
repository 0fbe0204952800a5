package conv

import (
	"testing"
	"time"
)

func TestMetrics_Combine(t *testing.T) {
	a := Metrics{
		InputTokensPrompt:     10,
		OutputTokensGenerated: 4,
		CompletionTime:        2 * time.Second,
		Provider:              "alpha",
		Model:                 "alpha-1",
		FinishReason:          "stop",
	}
	b := Metrics{
		InputTokensPrompt:     5,
		OutputTokensGenerated: 6,
		CompletionTime:        3 * time.Second,
		Provider:              "beta",
		Model:                 "beta-2",
		FinishReason:          "tool_use",
	}

	got := a.Combine(b)
	if got.InputTokensPrompt != 15 {
		t.Errorf("InputTokensPrompt = %d, want 15", got.InputTokensPrompt)
	}
	if got.OutputTokensGenerated != 10 {
		t.Errorf("OutputTokensGenerated = %d, want 10", got.OutputTokensGenerated)
	}
	if got.CompletionTime != 5*time.Second {
		t.Errorf("CompletionTime = %v, want 5s", got.CompletionTime)
	}
	// Last write wins for attribution fields.
	if got.Provider != "beta" || got.Model != "beta-2" || got.FinishReason != "tool_use" {
		t.Errorf("attribution = %s/%s/%s, want beta/beta-2/tool_use",
			got.Provider, got.Model, got.FinishReason)
	}
}

func TestMetrics_CombineKeepsAttributionWhenOtherEmpty(t *testing.T) {
	a := Metrics{Provider: "alpha", Model: "alpha-1"}
	got := a.Combine(Metrics{InputTokensPrompt: 1})
	if got.Provider != "alpha" || got.Model != "alpha-1" {
		t.Errorf("attribution = %s/%s, want alpha/alpha-1", got.Provider, got.Model)
	}
}

func TestMetrics_CombineRepeatable(t *testing.T) {
	var total Metrics
	for i := 0; i < 3; i++ {
		total = total.Combine(Metrics{InputTokensPrompt: 10, CompletionTime: time.Second})
	}
	if total.InputTokensPrompt != 30 {
		t.Errorf("InputTokensPrompt = %d, want 30", total.InputTokensPrompt)
	}
	if total.CompletionTime != 3*time.Second {
		t.Errorf("CompletionTime = %v, want 3s", total.CompletionTime)
	}
}

func TestMetrics_EffectiveTotalTokens(t *testing.T) {
	tests := []struct {
		name string
		m    Metrics
		want int64
	}{
		{
			name: "estimate wins when actual missing",
			m:    Metrics{EstimatedInputTokens: 100, EstimatedOutputTokens: 20},
			want: 120,
		},
		{
			name: "actual wins when larger",
			m: Metrics{
				InputTokensPrompt: 200, OutputTokensGenerated: 50,
				EstimatedInputTokens: 100, EstimatedOutputTokens: 20,
			},
			want: 250,
		},
		{
			name: "zero everywhere",
			m:    Metrics{},
			want: 0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.m.EffectiveTotalTokens(); got != tt.want {
				t.Errorf("EffectiveTotalTokens() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestMetrics_ContextUsagePercent(t *testing.T) {
	m := Metrics{InputTokensPrompt: 3333, OutputTokensGenerated: 1}

	pct, ok := m.ContextUsagePercent(100000)
	if !ok {
		t.Fatal("ok = false, want true")
	}
	if pct != 0.0333 {
		t.Errorf("pct = %v, want 0.0333 (4 decimals)", pct)
	}

	if _, ok := m.ContextUsagePercent(0); ok {
		t.Error("unknown context window must report ok = false")
	}
}

func TestEstimateTokens(t *testing.T) {
	tests := []struct {
		text string
		want int64
	}{
		{"", 0},
		{"abc", 1},
		{"abcd", 1},
		{"abcde", 2},
		{"12345678", 2},
	}
	for _, tt := range tests {
		if got := EstimateTokens(tt.text); got != tt.want {
			t.Errorf("EstimateTokens(%q) = %d, want %d", tt.text, got, tt.want)
		}
	}
}
