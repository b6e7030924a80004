package telegram

import (
	"context"
	"fmt"

	"github.com/eglogicsabhishek1/jbe-management/internal/domain/alerts"
	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

// Notifier reports distribution-run outcomes to an admin chat. Send-only:
// the bot never polls for updates.
type Notifier struct {
	bot    *telebot.Bot
	chatID int64
	logger *logrus.Logger
}

func NewNotifier(token string, chatID int64, logger *logrus.Logger) (*Notifier, error) {
	bot, err := telebot.NewBot(telebot.Settings{Token: token})
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot: %w", err)
	}
	return &Notifier{bot: bot, chatID: chatID, logger: logger}, nil
}

// NotifyRunCompleted sends a one-message summary of the run. Delivery
// failures are logged and dropped: alerting must never fail a run.
func (n *Notifier) NotifyRunCompleted(_ context.Context, run *alerts.Run) {
	var text string
	if run.Committed() {
		text = fmt.Sprintf(
			"✅ Distribution run committed\nPartitions: %d\nRows updated: %d\nSkipped: %d\nSnapshot: %s",
			run.PartitionCount, run.RowsAffected, len(run.Skipped), run.SnapshotTag,
		)
	} else {
		text = fmt.Sprintf(
			"⚠️ Distribution run ROLLED BACK\nPartitions: %d\nSnapshot restored: %s\nCause: %v",
			run.PartitionCount, run.SnapshotTag, run.Cause,
		)
	}

	if _, err := n.bot.Send(telebot.ChatID(n.chatID), text); err != nil {
		n.logger.WithError(err).Warn("Failed to deliver run notification")
	}
}
