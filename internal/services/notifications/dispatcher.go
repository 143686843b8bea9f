package notifications

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	pgrepo "github.com/girmay-ak/lang-app-sub002/internal/repo/postgres"
)

type ChatResolver interface {
	GetTelegramChatID(ctx context.Context, userID uuid.UUID) (int64, error)
}

type MessageSender interface {
	SendMessage(ctx context.Context, chatID int64, title, body string) error
}

// TelegramDeliverer pushes a notification to the target user's linked
// Telegram chat. Users without a binding fail delivery; the row stays in the
// outbox for inspection.
type TelegramDeliverer struct {
	chats  ChatResolver
	sender MessageSender
}

func NewTelegramDeliverer(chats ChatResolver, sender MessageSender) *TelegramDeliverer {
	return &TelegramDeliverer{
		chats:  chats,
		sender: sender,
	}
}

func (d *TelegramDeliverer) Deliver(ctx context.Context, rec pgrepo.NotificationRecord) error {
	if d.chats == nil || d.sender == nil {
		return fmt.Errorf("telegram deliverer is not configured")
	}

	chatID, err := d.chats.GetTelegramChatID(ctx, rec.UserID)
	if err != nil {
		return fmt.Errorf("resolve chat binding: %w", err)
	}
	if chatID == 0 {
		return fmt.Errorf("user %s has no chat binding", rec.UserID)
	}

	return d.sender.SendMessage(ctx, chatID, rec.Title, rec.Body)
}
