package telegram

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Sender delivers notification messages to a user's linked Telegram chat.
type Sender struct {
	api *tgbotapi.BotAPI
}

func NewSender(token string) (*Sender, error) {
	if strings.TrimSpace(token) == "" {
		return nil, fmt.Errorf("telegram bot token is empty")
	}

	api, err := tgbotapi.NewBotAPI(strings.TrimSpace(token))
	if err != nil {
		return nil, fmt.Errorf("create telegram bot api: %w", err)
	}

	return &Sender{api: api}, nil
}

func (s *Sender) SendMessage(ctx context.Context, chatID int64, title, body string) error {
	if s == nil || s.api == nil {
		return fmt.Errorf("telegram sender is not initialized")
	}
	if chatID == 0 {
		return fmt.Errorf("telegram chat id is empty")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	text := title
	if body != "" {
		text = title + "\n" + body
	}

	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := s.api.Send(msg); err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}

	return nil
}
