// Package notify is A5: the human-ops side channel a handoff tool posts
// to. Grounded on the Telegram adapter's bot construction, but reduced to
// a one-way sender — there is no inbound command surface here.
package notify

import (
	"context"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/retailvoice/callbridge/internal/domain/repository"
)

// TelegramNotifier posts handoff notifications to a single configured
// chat. With no bot token configured, it is a no-op so an unconfigured
// deployment still completes handoffs instead of failing them.
type TelegramNotifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64
	logger *zap.Logger
}

var _ repository.OpsNotifier = (*TelegramNotifier)(nil)

// NewTelegramNotifier returns a notifier. If botToken is empty it returns
// a valid, inert notifier rather than an error.
func NewTelegramNotifier(botToken string, chatID int64, logger *zap.Logger) (*TelegramNotifier, error) {
	logger = logger.With(zap.String("component", "ops_notifier"))
	if botToken == "" {
		logger.Info("ops notifier disabled: no telegram bot token configured")
		return &TelegramNotifier{logger: logger}, nil
	}

	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	return &TelegramNotifier{bot: bot, chatID: chatID, logger: logger}, nil
}

func (n *TelegramNotifier) Notify(ctx context.Context, note repository.OpsNotification) error {
	if n.bot == nil {
		n.logger.Debug("notify skipped: notifier disabled", zap.String("call_id", note.CallID))
		return nil
	}

	text := fmt.Sprintf("📞 Handoff requested\nCall: %s\nCaller: %s\nPriority: %s\nReason: %s\n%s\n%s",
		note.CallID, note.CallerNumber, note.Priority, note.Reason, note.Summary, note.At.Format(time.RFC3339))

	msg := tgbotapi.NewMessage(n.chatID, text)
	if _, err := n.bot.Send(msg); err != nil {
		n.logger.Warn("telegram send failed", zap.String("call_id", note.CallID), zap.Error(err))
		return fmt.Errorf("send telegram notification: %w", err)
	}
	return nil
}
