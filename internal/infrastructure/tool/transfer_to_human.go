package tool

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/retailvoice/callbridge/internal/domain/repository"
	domaintool "github.com/retailvoice/callbridge/internal/domain/tool"
)

// TransferToHumanTool hands the call off to a person. It never touches
// the carrier transport itself — it returns a HandoffAction result and
// lets C7 decide what to do with it.
type TransferToHumanTool struct {
	notifier repository.OpsNotifier
	logger   *zap.Logger
}

func NewTransferToHumanTool(notifier repository.OpsNotifier, logger *zap.Logger) *TransferToHumanTool {
	return &TransferToHumanTool{notifier: notifier, logger: logger}
}

func (t *TransferToHumanTool) Name() string { return "transfer_to_human" }

func (t *TransferToHumanTool) Description() string {
	return "Request that a human agent take over the call."
}

func (t *TransferToHumanTool) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"reason":   map[string]any{"type": "string"},
			"summary":  map[string]any{"type": "string"},
			"priority": map[string]any{"type": "string", "enum": []string{"normal", "high", "urgent"}},
		},
		"required": []string{"reason"},
	}
}

func (t *TransferToHumanTool) Execute(ctx context.Context, args map[string]any) (*domaintool.Result, error) {
	reason, _ := args["reason"].(string)
	summary, _ := args["summary"].(string)
	priority := domaintool.PriorityNormal
	if p, ok := args["priority"].(string); ok && p != "" {
		priority = domaintool.Priority(p)
	}

	callID, _ := domaintool.CallIDFromContext(ctx)
	callerNumber, _ := domaintool.CallerNumberFromContext(ctx)
	if err := t.notifier.Notify(ctx, repository.OpsNotification{
		CallID:       callID,
		CallerNumber: callerNumber,
		Reason:       reason,
		Summary:      summary,
		Priority:     string(priority),
		At:           time.Now().UTC(),
	}); err != nil {
		t.logger.Warn("ops notification failed", zap.Error(err))
	}

	return domaintool.HandoffResult(reason, summary, priority), nil
}
