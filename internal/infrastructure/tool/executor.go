// Package tool is C4's infrastructure half: a dispatcher wrapping the
// domain registry with logging and panic recovery, plus the four
// concrete tools the LLM can call.
package tool

import (
	"context"
	"encoding/json"
	"fmt"

	domaintool "github.com/retailvoice/callbridge/internal/domain/tool"
	"go.uber.org/zap"
)

// Executor is the dispatcher: Execute(ctx, toolName, argsJSON). Every tool
// here is auto-approved — there is no destructive-tool policy in this
// domain — so the only things this layer adds over the bare registry are
// structured logging and panic recovery.
type Executor struct {
	registry domaintool.Registry
	logger   *zap.Logger
}

func NewExecutor(registry domaintool.Registry, logger *zap.Logger) *Executor {
	return &Executor{registry: registry, logger: logger.With(zap.String("component", "tool_executor"))}
}

// Execute looks up toolName, unmarshals argsJSON into a generic map
// (malformed arguments are treated as an empty map), runs the tool, and
// recovers any panic into a generic apology result so a single bad tool
// never tears down the call.
func (e *Executor) Execute(ctx context.Context, toolName, argsJSON string) (result *domaintool.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("tool panicked", zap.String("tool", toolName), zap.Any("panic", r))
			result = domaintool.TextResult("a system error occurred")
			err = nil
		}
	}()

	t, ok := e.registry.Get(toolName)
	if !ok {
		e.logger.Warn("unknown tool requested", zap.String("tool", toolName))
		return domaintool.TextResult(fmt.Sprintf("unknown tool: %s", toolName)), nil
	}

	var args map[string]any
	if argsJSON != "" {
		if unmarshalErr := json.Unmarshal([]byte(argsJSON), &args); unmarshalErr != nil {
			e.logger.Warn("malformed tool arguments, treating as empty", zap.String("tool", toolName), zap.Error(unmarshalErr))
			args = map[string]any{}
		}
	}

	e.logger.Info("executing tool", zap.String("tool", toolName))
	res, execErr := t.Execute(ctx, args)
	if execErr != nil {
		e.logger.Error("tool execution failed", zap.String("tool", toolName), zap.Error(execErr))
		return domaintool.TextResult("a system error occurred"), nil
	}
	return res, nil
}
