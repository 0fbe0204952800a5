package conv

import (
	"math"
	"time"
)

// Metrics is a token and cost accounting record for a single call, or the
// combination of several calls across a multi-tool turn.
//
// Providers do not always report usage. Estimated token counts act as a
// heuristic floor so that combined totals never undercount.
type Metrics struct {
	// InputTokensCached is the number of prompt tokens served from a
	// provider-side cache.
	InputTokensCached int64 `json:"input_tokens_cached,omitempty"`

	// InputTokensPrompt is the number of uncached prompt tokens.
	InputTokensPrompt int64 `json:"input_tokens_prompt,omitempty"`

	// OutputTokensReasoning is the number of reasoning tokens generated.
	OutputTokensReasoning int64 `json:"output_tokens_reasoning,omitempty"`

	// OutputTokensGenerated is the number of visible output tokens generated.
	OutputTokensGenerated int64 `json:"output_tokens_generated,omitempty"`

	// EstimatedInputTokens is a heuristic input estimate used when the
	// provider omits usage data.
	EstimatedInputTokens int64 `json:"estimated_input_tokens,omitempty"`

	// EstimatedOutputTokens is a heuristic output estimate.
	EstimatedOutputTokens int64 `json:"estimated_output_tokens,omitempty"`

	// CompletionTime is the wall time the call took.
	CompletionTime time.Duration `json:"completion_time,omitempty"`

	// Provider and Model attribute the record for cost reporting.
	Provider string `json:"provider,omitempty"`
	Model    string `json:"model,omitempty"`

	// FinishReason is the provider-reported stop reason, if any.
	FinishReason string `json:"finish_reason,omitempty"`
}

// InputTokens returns the actual input token count.
func (m Metrics) InputTokens() int64 {
	return m.InputTokensCached + m.InputTokensPrompt
}

// OutputTokens returns the actual output token count.
func (m Metrics) OutputTokens() int64 {
	return m.OutputTokensReasoning + m.OutputTokensGenerated
}

// TotalTokens returns the actual total token count.
func (m Metrics) TotalTokens() int64 {
	return m.InputTokens() + m.OutputTokens()
}

// EstimatedTotalTokens returns the heuristic total.
func (m Metrics) EstimatedTotalTokens() int64 {
	return m.EstimatedInputTokens + m.EstimatedOutputTokens
}

// EffectiveTotalTokens returns the larger of the actual and estimated totals,
// so that a provider omitting usage data never leads to undercounting.
func (m Metrics) EffectiveTotalTokens() int64 {
	if est := m.EstimatedTotalTokens(); est > m.TotalTokens() {
		return est
	}
	return m.TotalTokens()
}

// ContextUsagePercent returns the fraction of the model context window the
// effective total consumes, rounded to 4 decimals. ok is false when the
// context window is unknown (zero or negative).
func (m Metrics) ContextUsagePercent(contextWindow int) (float64, bool) {
	if contextWindow <= 0 {
		return 0, false
	}
	pct := float64(m.EffectiveTotalTokens()) / float64(contextWindow)
	return math.Round(pct*10000) / 10000, true
}

// Combine returns the sum of two records. Token counts and completion time
// add; provider, model, and finish reason take the other record's value when
// set. Combining is safe to repeat while accumulating a multi-tool turn.
func (m Metrics) Combine(other Metrics) Metrics {
	out := Metrics{
		InputTokensCached:     m.InputTokensCached + other.InputTokensCached,
		InputTokensPrompt:     m.InputTokensPrompt + other.InputTokensPrompt,
		OutputTokensReasoning: m.OutputTokensReasoning + other.OutputTokensReasoning,
		OutputTokensGenerated: m.OutputTokensGenerated + other.OutputTokensGenerated,
		EstimatedInputTokens:  m.EstimatedInputTokens + other.EstimatedInputTokens,
		EstimatedOutputTokens: m.EstimatedOutputTokens + other.EstimatedOutputTokens,
		CompletionTime:        m.CompletionTime + other.CompletionTime,
		Provider:              m.Provider,
		Model:                 m.Model,
		FinishReason:          m.FinishReason,
	}
	if other.Provider != "" {
		out.Provider = other.Provider
	}
	if other.Model != "" {
		out.Model = other.Model
	}
	if other.FinishReason != "" {
		out.FinishReason = other.FinishReason
	}
	return out
}

// IsZero reports whether the record carries no data.
func (m Metrics) IsZero() bool {
	return m == Metrics{}
}

// EstimateTokens returns a heuristic token count for a piece of text. The
// rule of thumb is roughly four characters per token; it intentionally errs
// high for short strings.
func EstimateTokens(text string) int64 {
	if text == "" {
		return 0
	}
	return int64((len(text) + 3) / 4)
}
