package engine

import (
	"context"
	"errors"
	"time"

	"github.com/canvasloom/loom/internal/backoff"
	"github.com/canvasloom/loom/internal/observability"
	"github.com/canvasloom/loom/pkg/conv"
)

// Config assembles an Engine from its collaborators. Providers and Models
// are required; everything else has a working default.
type Config struct {
	Providers ProviderRegistry
	Models    ModelRegistry

	// Tools executes pending tool calls. Nil disables the tool pass.
	Tools ToolRunner

	Logger  *observability.Logger
	Metrics *observability.Metrics

	// RetryPolicy shapes backoff between attempts on network failures.
	RetryPolicy backoff.Policy

	// MaxAttempts caps provider call attempts. Zero means 3.
	MaxAttempts int
}

// Engine runs the call loop: validate the request, execute it against the
// provider with retry on transport failures, run the single tool pass over
// whatever tool calls the response left pending, and fold metrics and
// diagnostics into one finished CallResult.
//
// Call never returns an error. Every failure mode lands on the result as an
// error-severity message plus an error interaction in the body.
type Engine struct {
	providers ProviderRegistry
	models    ModelRegistry
	tools     ToolRunner

	logger  *observability.Logger
	metrics *observability.Metrics

	retryPolicy backoff.Policy
	maxAttempts int
}

// New creates an Engine.
func New(cfg Config) *Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = observability.NewLogger(observability.LogConfig{})
	}
	attempts := cfg.MaxAttempts
	if attempts <= 0 {
		attempts = 3
	}
	policy := cfg.RetryPolicy
	if policy.Initial <= 0 {
		policy = backoff.DefaultPolicy()
	}
	return &Engine{
		providers:   cfg.Providers,
		models:      cfg.Models,
		tools:       cfg.Tools,
		logger:      logger,
		metrics:     cfg.Metrics,
		retryPolicy: policy,
		maxAttempts: attempts,
	}
}

// Call executes the request end to end and returns a finished result.
func (e *Engine) Call(ctx context.Context, req *CallRequest) *CallResult {
	start := time.Now()
	ctx = observability.WithTurnID(ctx, req.TurnID())

	ok, msgs := req.IsValid()
	if !ok {
		_, resolveMsgs := req.ResolveModel()
		result := NewCallResult(req.Body())
		result.AddMessages(msgs...)
		result.AddMessages(resolveMsgs...)
		result.Finish()
		e.logger.Warn(ctx, "call request rejected",
			"provider", req.Provider(), "messages", len(msgs))
		e.recordOutcome(req, result, time.Since(start))
		return result
	}

	provider, _ := e.providers.Get(req.Provider())
	model, resolveMsgs := req.ResolveModel()

	ctx, span := observability.StartCallSpan(ctx, provider.Name(), model)
	if req.Timeout() > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout())
		defer cancel()
	}

	result, err := backoff.Retry(ctx, e.retryPolicy, e.maxAttempts, IsNetworkError,
		func(attempt int) (*CallResult, error) {
			if attempt > 1 {
				e.logger.Debug(ctx, "retrying provider call",
					"provider", provider.Name(), "attempt", attempt)
			}
			return provider.Call(ctx, req)
		})

	switch {
	case err != nil:
		result = e.classifyCallError(ctx, req, err)
	case result == nil:
		result = NewProviderErrorResult(req, ErrEmptyResponse)
	}
	result.AddMessages(msgs...)
	result.AddMessages(resolveMsgs...)

	if result.Success() && e.tools != nil {
		e.runToolPass(ctx, req, result)
	}

	result.Finish()
	elapsed := time.Since(start)
	usage := result.Metrics()
	observability.AddTokenAttributes(span, usage.InputTokens(), usage.OutputTokens())
	observability.EndSpan(span, firstErrorText(result.Messages()))
	e.logger.Info(ctx, "call finished",
		"provider", provider.Name(),
		"model", model,
		"success", result.Success(),
		"duration_ms", elapsed.Milliseconds(),
		"total_tokens", result.Metrics().TotalTokens())
	e.recordOutcome(req, result, elapsed)
	return result
}

// Stream executes the request through the provider's streaming adapter,
// invoking emit for each delta. Tool execution and metrics recording behave
// exactly as in Call; emit only adds incremental visibility.
func (e *Engine) Stream(ctx context.Context, req *CallRequest, emit func(StreamDelta)) *CallResult {
	start := time.Now()
	ctx = observability.WithTurnID(ctx, req.TurnID())

	ok, msgs := req.IsValid()
	if !ok {
		_, resolveMsgs := req.ResolveModel()
		result := NewCallResult(req.Body())
		result.AddMessages(msgs...)
		result.AddMessages(resolveMsgs...)
		result.Finish()
		e.recordOutcome(req, result, time.Since(start))
		return result
	}

	provider, _ := e.providers.Get(req.Provider())
	adapter := provider.StreamingAdapter()
	if adapter == nil {
		_, resolveMsgs := req.ResolveModel()
		result := NewProviderErrorResult(req,
			errors.New("provider "+provider.Name()+" has no streaming adapter"))
		result.AddMessages(msgs...)
		result.AddMessages(resolveMsgs...)
		e.recordOutcome(req, result, time.Since(start))
		return result
	}

	model, resolveMsgs := req.ResolveModel()
	ctx, span := observability.StartCallSpan(ctx, provider.Name(), model)
	if req.Timeout() > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout())
		defer cancel()
	}

	result, err := adapter.Stream(ctx, req, emit)
	switch {
	case err != nil:
		result = e.classifyCallError(ctx, req, err)
	case result == nil:
		result = NewProviderErrorResult(req, ErrEmptyResponse)
	}
	result.AddMessages(msgs...)
	result.AddMessages(resolveMsgs...)

	if result.Success() && e.tools != nil {
		e.runToolPass(ctx, req, result)
	}

	result.Finish()
	usage := result.Metrics()
	observability.AddTokenAttributes(span, usage.InputTokens(), usage.OutputTokens())
	observability.EndSpan(span, firstErrorText(result.Messages()))
	e.recordOutcome(req, result, time.Since(start))
	return result
}

// classifyCallError maps a provider call failure onto the error taxonomy.
// Cancellation and deadline expiry count as provider outcomes, not network
// ones, because the transport did nothing wrong.
func (e *Engine) classifyCallError(ctx context.Context, req *CallRequest, err error) *CallResult {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		e.logger.Warn(ctx, "provider call interrupted", "error", err.Error())
		return NewProviderErrorResult(req, err)
	}
	if IsNetworkError(err) {
		e.logger.Warn(ctx, "provider unreachable", "error", err.Error())
		return NewNetworkErrorResult(req, err)
	}
	e.logger.Warn(ctx, "provider call failed", "error", err.Error())
	return NewProviderErrorResult(req, err)
}

// runToolPass executes every tool call the response left pending, exactly
// once, in conversation order. Failures produce a failed tool-result
// interaction so the call stops being pending, and the loop continues with
// the remaining calls.
func (e *Engine) runToolPass(ctx context.Context, req *CallRequest, result *CallResult) {
	base := result.Body()
	pending := base.PendingToolCalls()
	if len(pending) == 0 {
		return
	}

	// The invocation body is handed off without new markers so the runner's
	// result flags exactly what the runner itself produced.
	invBody := conv.From(base).ClearNewMarkers().Build()

	builder := conv.From(base).SetDefaultTurnID(req.TurnID())
	for _, interaction := range pending {
		call := *interaction.ToolCall
		toolCtx := observability.WithToolCallID(ctx, call.ID)
		toolStart := time.Now()

		inv := NewToolInvocationRequest(invBody, call, req.TurnID())
		valid, invMsgs := inv.IsValid()
		result.AddMessages(invMsgs...)
		if !valid {
			builder.Add(failedToolResult(call, "invalid tool invocation"))
			e.recordTool(call.Name, false, time.Since(toolStart))
			continue
		}

		toolCtx, span := observability.StartToolSpan(toolCtx, call.Name, call.ID)
		toolRes, err := e.tools.Run(toolCtx, inv)
		elapsed := time.Since(toolStart)

		if err != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
			// The call's context ended mid-pass. That is a provider-level
			// outcome, not a tool failure. The pass stops here and the
			// remaining calls stay pending.
			observability.EndSpan(span, err.Error())
			e.logger.Warn(toolCtx, "tool pass interrupted",
				"tool", call.Name, "error", err.Error())
			result.AddMessages(conv.Error(conv.OriginProvider, err.Error()))
			builder.Add(conv.NewError(err.Error()))
			e.recordTool(call.Name, false, elapsed)
			break
		}

		switch {
		case err != nil:
			observability.EndSpan(span, err.Error())
			e.logger.Warn(toolCtx, "tool execution failed",
				"tool", call.Name, "error", err.Error())
			result.AddMessages(conv.Error(conv.OriginTool, err.Error()))
			builder.Add(failedToolResult(call, err.Error()))
			e.recordTool(call.Name, false, elapsed)
		case toolRes == nil:
			observability.EndSpan(span, ErrNoToolResult.Error())
			result.AddMessages(conv.Error(conv.OriginTool, ErrNoToolResult.Error()))
			builder.Add(failedToolResult(call, ErrNoToolResult.Error()))
			e.recordTool(call.Name, false, elapsed)
		default:
			observability.EndSpan(span, firstErrorText(toolRes.Messages()))
			builder.AddRange(toolRes.Body().NewInteractions())
			result.AddMessages(toolRes.messages...)
			result.AddMetrics(toolRes.metrics)
			e.recordTool(call.Name, toolRes.Success(), elapsed)
		}
	}
	result.SetBody(builder.EnsureTurnID().Build())
}

// failedToolResult synthesizes a tool-result interaction for a failed call
// so the call is no longer pending and the failure text travels with the
// conversation.
func failedToolResult(call conv.ToolCallContent, text string) conv.Interaction {
	return conv.NewToolResult(call.ID, call.Name, nil,
		conv.Error(conv.OriginTool, text))
}

func (e *Engine) recordTool(tool string, success bool, d time.Duration) {
	if e.metrics == nil {
		return
	}
	e.metrics.RecordToolExecution(tool, success, d)
}

// recordOutcome publishes call counters, token usage, context pressure, and
// per-origin error counts for the finished result.
func (e *Engine) recordOutcome(req *CallRequest, result *CallResult, d time.Duration) {
	if e.metrics == nil {
		return
	}
	m := result.Metrics()
	provider := req.Provider()
	model := req.Model()

	e.metrics.RecordCall(provider, model, result.Success(), d)
	e.metrics.RecordTokens(provider, model,
		m.InputTokens(), m.OutputTokens(), m.EstimatedTotalTokens())

	if caps, ok := e.lookupCapabilities(provider, model); ok {
		if pct, known := m.ContextUsagePercent(caps.ContextWindow); known {
			e.metrics.RecordContextUsage(provider, model, pct)
		}
	}

	for _, msg := range result.Messages() {
		if msg.Severity == conv.SeverityError {
			e.metrics.RecordError(string(msg.Origin))
		}
	}
}

func (e *Engine) lookupCapabilities(provider, model string) (ModelCapabilities, bool) {
	if e.models == nil {
		return ModelCapabilities{}, false
	}
	return e.models.Capabilities(provider, model)
}

func firstErrorText(msgs []conv.Message) string {
	for _, m := range msgs {
		if m.Severity == conv.SeverityError {
			return m.Text
		}
	}
	return ""
}
