package notify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"github.com/adnanqureshi/dosealert/internal/models"
)

// TelegramSender delivers reminders to users who linked a Telegram chat.
type TelegramSender struct {
	api *tgbotapi.BotAPI
	log zerolog.Logger
}

// NewTelegramSender builds the bot on an HTTP client bounded by timeout.
// The bot API takes no context, so the client timeout is what keeps a
// hung Telegram endpoint from stalling a dispatch cycle.
func NewTelegramSender(token string, timeout time.Duration, log zerolog.Logger) (*TelegramSender, error) {
	api, err := tgbotapi.NewBotAPIWithClient(token, tgbotapi.APIEndpoint, &http.Client{Timeout: timeout})
	if err != nil {
		return nil, err
	}
	return &TelegramSender{api: api, log: log.With().Str("component", "telegram").Logger()}, nil
}

func (s *TelegramSender) Send(ctx context.Context, user *models.User, medicineName, dosage, localTime string) error {
	if user.TelegramChatID == nil {
		return &DeliveryError{Permanent: true, Err: errors.New("user has no telegram chat linked")}
	}
	if err := ctx.Err(); err != nil {
		return &DeliveryError{Err: err}
	}

	text := fmt.Sprintf("💊 Time to take %s (%s) — %s", medicineName, dosage, localTime)
	msg := tgbotapi.NewMessage(*user.TelegramChatID, text)
	if _, err := s.api.Send(msg); err != nil {
		s.log.Error().Err(err).Int64("chat_id", *user.TelegramChatID).Msg("telegram delivery failed")
		return &DeliveryError{Err: err}
	}

	s.log.Info().Int64("chat_id", *user.TelegramChatID).Str("medicine", medicineName).Msg("reminder sent")
	return nil
}
