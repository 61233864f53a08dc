package notify

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/retailvoice/callbridge/internal/domain/repository"
)

func TestNewTelegramNotifier_NoTokenIsNoop(t *testing.T) {
	n, err := NewTelegramNotifier("", 0, zap.NewNop())
	if err != nil {
		t.Fatalf("NewTelegramNotifier: %v", err)
	}
	if err := n.Notify(context.Background(), repository.OpsNotification{CallID: "call-1"}); err != nil {
		t.Fatalf("Notify on disabled notifier should be a no-op, got: %v", err)
	}
}
