package toolrun

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/canvasloom/loom/internal/observability"
	"github.com/canvasloom/loom/pkg/conv"
	"github.com/canvasloom/loom/pkg/engine"
)

// Tool parameter limits to prevent resource exhaustion.
const (
	// MaxToolNameLength is the maximum length of a tool name.
	MaxToolNameLength = 256

	// MaxToolParamsSize is the maximum size of tool argument JSON (10MB).
	MaxToolParamsSize = 10 << 20
)

// DefaultToolTimeout bounds a single tool execution when the invocation
// carries no timeout of its own.
const DefaultToolTimeout = 60 * time.Second

// Runner executes tool invocations against a Registry. It implements
// engine.ToolRunner.
//
// Every tool failure produces a finished CallResult carrying a tool-origin
// error message and a tool-result interaction, so one bad tool never aborts
// the surrounding call. The one exception is cancellation of the caller's
// context, which Run returns as an error for the caller to classify.
type Runner struct {
	registry *Registry
	logger   *observability.Logger
	timeout  time.Duration

	schemaCache sync.Map // schema text -> *jsonschema.Schema
}

// NewRunner creates a runner over the registry.
func NewRunner(registry *Registry, logger *observability.Logger) *Runner {
	if logger == nil {
		logger = observability.NewLogger(observability.LogConfig{})
	}
	return &Runner{
		registry: registry,
		logger:   logger,
		timeout:  DefaultToolTimeout,
	}
}

// SetDefaultTimeout overrides the per-execution timeout applied when the
// invocation does not set one.
func (r *Runner) SetDefaultTimeout(d time.Duration) {
	if d > 0 {
		r.timeout = d
	}
}

// Run executes the wrapped tool call and returns a result whose body
// extends the invocation body with the produced tool-result interaction.
func (r *Runner) Run(ctx context.Context, req *engine.ToolInvocationRequest) (*engine.CallResult, error) {
	call := req.Call()
	ctx = observability.WithToolCallID(ctx, call.ID)

	if len(call.Name) > MaxToolNameLength {
		return r.failure(req, fmt.Sprintf("tool name exceeds maximum length of %d characters", MaxToolNameLength)), nil
	}
	if len(call.Arguments) > MaxToolParamsSize {
		return r.failure(req, fmt.Sprintf("tool arguments exceed maximum size of %d bytes", MaxToolParamsSize)), nil
	}

	tool, ok := r.registry.Get(call.Name)
	if !ok {
		return r.failure(req, "tool not found: "+call.Name), nil
	}

	if filter := req.Body().ToolFilter(); filter.IsActive() && !filter.Allows(call.Name) {
		return r.failure(req, "tool not allowed: "+call.Name), nil
	}

	if err := r.validateArgs(tool, call.Arguments); err != nil {
		return r.failure(req, fmt.Sprintf("invalid arguments for %s: %v", call.Name, err)), nil
	}

	output, err := r.executeWithTimeout(ctx, req, tool)
	if err != nil {
		if ctx.Err() != nil {
			// The call's context ended, not the per-tool deadline. The
			// caller classifies this, so the error propagates as is.
			return nil, err
		}
		r.logger.Warn(ctx, "tool execution failed", "tool", call.Name, "error", err.Error())
		return r.failure(req, err.Error()), nil
	}

	body := conv.From(req.Body()).
		SetDefaultTurnID(req.TurnID()).
		Add(conv.NewToolResult(call.ID, call.Name, output)).
		EnsureTurnID().
		Build()
	result := engine.NewCallResult(body)
	result.Finish()
	return result, nil
}

// validateArgs checks the arguments against the tool's declared schema.
// Tools without a schema accept anything.
func (r *Runner) validateArgs(tool Tool, args json.RawMessage) error {
	schemaText := tool.Schema()
	if len(schemaText) == 0 {
		return nil
	}

	schema, err := r.compileSchema(string(schemaText))
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}

	if len(args) == 0 {
		args = json.RawMessage(`{}`)
	}
	var decoded any
	if err := json.Unmarshal(args, &decoded); err != nil {
		return fmt.Errorf("decode arguments: %w", err)
	}
	return schema.Validate(decoded)
}

func (r *Runner) compileSchema(text string) (*jsonschema.Schema, error) {
	if cached, ok := r.schemaCache.Load(text); ok {
		if compiled, ok := cached.(*jsonschema.Schema); ok {
			return compiled, nil
		}
	}
	compiled, err := jsonschema.CompileString("tool.schema.json", text)
	if err != nil {
		return nil, err
	}
	r.schemaCache.Store(text, compiled)
	return compiled, nil
}

// executeWithTimeout runs the tool under a deadline, recovering panics.
func (r *Runner) executeWithTimeout(ctx context.Context, req *engine.ToolInvocationRequest, tool Tool) (json.RawMessage, error) {
	timeout := req.Timeout()
	if timeout <= 0 {
		timeout = r.timeout
	}
	execCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type execResult struct {
		output json.RawMessage
		err    error
	}
	resultCh := make(chan execResult, 1)

	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				stack := debug.Stack()
				resultCh <- execResult{err: fmt.Errorf("panic in tool %s: %v\n%s", tool.Name(), rec, stack)}
			}
		}()
		output, err := tool.Execute(execCtx, req.Call().Arguments)
		resultCh <- execResult{output: output, err: err}
	}()

	select {
	case res := <-resultCh:
		return res.output, res.err
	case <-execCtx.Done():
		if ctx.Err() != nil {
			return nil, fmt.Errorf("tool %s cancelled: %w", tool.Name(), ctx.Err())
		}
		return nil, fmt.Errorf("tool %s timed out after %s", tool.Name(), timeout)
	}
}

// failure builds a finished result with a failed tool-result interaction so
// the originating call is no longer pending.
func (r *Runner) failure(req *engine.ToolInvocationRequest, text string) *engine.CallResult {
	call := req.Call()
	body := conv.From(req.Body()).
		SetDefaultTurnID(req.TurnID()).
		Add(conv.NewToolResult(call.ID, call.Name, nil, conv.Error(conv.OriginTool, text))).
		EnsureTurnID().
		Build()
	result := engine.NewCallResult(body)
	result.AddMessages(conv.Error(conv.OriginTool, text))
	result.Finish()
	return result
}
