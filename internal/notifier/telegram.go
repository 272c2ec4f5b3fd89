// Package notifier alerts operators when an asset's classification turns
// critical.
package notifier

import (
	"context"
	"fmt"
	"time"

	"github.com/go-telegram/bot"

	"asset-service/internal/logging"
	"asset-service/internal/models"
	"asset-service/internal/utils"
)

// Telegram sends critical-asset alerts to a fixed chat. A zero-value
// configuration disables it without failing the caller.
type Telegram struct {
	token  string
	chatID int64
	logger *logging.Logger
}

// NewTelegram constructs the notifier. token may be empty to disable.
func NewTelegram(token string, chatID int64, logger *logging.Logger) *Telegram {
	return &Telegram{token: token, chatID: chatID, logger: logger}
}

// AlertCritical notifies the configured chat that the asset entered the
// CRITICAL bucket. Failures are logged, never propagated: alerting must
// not disturb the workflow that triggered it.
func (t *Telegram) AlertCritical(ctx context.Context, asset *models.Asset, snap models.HealthSnapshot) {
	if t.token == "" || t.chatID == 0 {
		return
	}

	predicted := "unknown"
	if snap.PredictedDaysToFail != nil {
		predicted = fmt.Sprintf("%.1f days", *snap.PredictedDaysToFail)
	}
	text := fmt.Sprintf(
		"*CRITICAL asset*\n%s (tag %s)\n\n"+
			"*Predicted time to failure:* %s\n"+
			"*Completed corrective maintenances:* %d",
		asset.Name,
		asset.PatrimonyTag,
		predicted,
		snap.CompletedCorrectives,
	)

	err := utils.Retry(t.logger, 3, time.Second, func() error {
		b, err := bot.New(t.token)
		if err != nil {
			return fmt.Errorf("failed to initialize Telegram bot: %w", err)
		}
		params := &bot.SendMessageParams{
			ChatID:    t.chatID,
			Text:      text,
			ParseMode: "Markdown",
		}
		if _, err := b.SendMessage(ctx, params); err != nil {
			return fmt.Errorf("failed to send Telegram message to chat_id %d: %w", t.chatID, err)
		}
		return nil
	})
	if err != nil {
		t.logger.Errorf("Critical alert for asset %d not delivered: %v", asset.ID, err)
	}
}
