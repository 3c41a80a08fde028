package notify

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/hray3182/BillMe/internal/format"
	"github.com/hray3182/BillMe/internal/models"
)

// TelegramChat posts reminders to a single Telegram chat.
type TelegramChat struct {
	api    *tgbotapi.BotAPI
	chatID int64
}

func NewTelegramChat(api *tgbotapi.BotAPI, chatID int64) *TelegramChat {
	return &TelegramChat{api: api, chatID: chatID}
}

func (t *TelegramChat) Name() string {
	return "telegram"
}

// Post sends the reminder as an HTML message. The bot API client has no
// context support, so the deadline is enforced here and the request itself
// is bounded by the API's http.Client timeout.
func (t *TelegramChat) Post(ctx context.Context, r models.BillReminder) error {
	msg := tgbotapi.NewMessage(t.chatID, format.TelegramHTML(r))
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true

	done := make(chan error, 1)
	go func() {
		_, err := t.api.Send(msg)
		done <- err
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("failed to send telegram message: %w", err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
