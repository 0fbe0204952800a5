package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics collects Prometheus metrics for the conversation engine: model
// call volume and latency, token consumption, tool execution patterns, and
// error rates by taxonomy origin.
type Metrics struct {
	// CallCounter counts top-level model calls.
	// Labels: provider, model, status (success|error)
	CallCounter *prometheus.CounterVec

	// CallDuration measures model call latency in seconds.
	// Labels: provider, model
	CallDuration *prometheus.HistogramVec

	// TokensUsed counts tokens by direction.
	// Labels: provider, model, type (input|output|estimated)
	TokensUsed *prometheus.CounterVec

	// ContextUsage observes the fraction of the context window a call
	// consumed. Labels: provider, model
	ContextUsage *prometheus.HistogramVec

	// ToolExecutionCounter counts tool invocations.
	// Labels: tool, status (success|error)
	ToolExecutionCounter *prometheus.CounterVec

	// ToolExecutionDuration measures tool execution time in seconds.
	// Labels: tool
	ToolExecutionDuration *prometheus.HistogramVec

	// ErrorCounter counts surfaced errors by taxonomy origin.
	// Labels: origin (validation|provider|network|tool|return)
	ErrorCounter *prometheus.CounterVec
}

// NewMetrics creates engine metrics registered on the given registerer.
// Pass prometheus.DefaultRegisterer for process-wide metrics, or a fresh
// registry in tests.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		CallCounter: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "loom_calls_total",
			Help: "Total model calls by provider, model, and status.",
		}, []string{"provider", "model", "status"}),

		CallDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "loom_call_duration_seconds",
			Help:    "Model call latency in seconds.",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		}, []string{"provider", "model"}),

		TokensUsed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "loom_tokens_total",
			Help: "Token consumption by provider, model, and type.",
		}, []string{"provider", "model", "type"}),

		ContextUsage: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "loom_context_usage_ratio",
			Help:    "Fraction of the model context window consumed per call.",
			Buckets: []float64{0.1, 0.25, 0.5, 0.75, 0.9, 0.95, 1},
		}, []string{"provider", "model"}),

		ToolExecutionCounter: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "loom_tool_executions_total",
			Help: "Tool invocations by tool name and status.",
		}, []string{"tool", "status"}),

		ToolExecutionDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "loom_tool_execution_duration_seconds",
			Help:    "Tool execution time in seconds.",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60},
		}, []string{"tool"}),

		ErrorCounter: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "loom_errors_total",
			Help: "Errors surfaced to callers by taxonomy origin.",
		}, []string{"origin"}),
	}
}

// RecordCall records one completed model call.
func (m *Metrics) RecordCall(provider, model string, success bool, duration time.Duration) {
	status := "success"
	if !success {
		status = "error"
	}
	m.CallCounter.WithLabelValues(provider, model, status).Inc()
	m.CallDuration.WithLabelValues(provider, model).Observe(duration.Seconds())
}

// RecordTokens records token consumption for a call.
func (m *Metrics) RecordTokens(provider, model string, input, output, estimated int64) {
	if input > 0 {
		m.TokensUsed.WithLabelValues(provider, model, "input").Add(float64(input))
	}
	if output > 0 {
		m.TokensUsed.WithLabelValues(provider, model, "output").Add(float64(output))
	}
	if estimated > 0 {
		m.TokensUsed.WithLabelValues(provider, model, "estimated").Add(float64(estimated))
	}
}

// RecordContextUsage records the context-window fraction a call consumed.
func (m *Metrics) RecordContextUsage(provider, model string, ratio float64) {
	m.ContextUsage.WithLabelValues(provider, model).Observe(ratio)
}

// RecordToolExecution records one tool invocation.
func (m *Metrics) RecordToolExecution(tool string, success bool, duration time.Duration) {
	status := "success"
	if !success {
		status = "error"
	}
	m.ToolExecutionCounter.WithLabelValues(tool, status).Inc()
	m.ToolExecutionDuration.WithLabelValues(tool).Observe(duration.Seconds())
}

// RecordError counts one surfaced error by origin.
func (m *Metrics) RecordError(origin string) {
	m.ErrorCounter.WithLabelValues(origin).Inc()
}
