package middleware

import (
	"context"
	"log/slog"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/set-night/primeminister/internal/domain"
)

type ctxKey string

const ChatKey ctxKey = "chat"

// Chat is the per-update view of the chat the bot is talking to.
type Chat struct {
	ID   int64
	Type models.ChatType
	Mode domain.Mode
}

// GetChat extracts the chat from context.
func GetChat(ctx context.Context) *Chat {
	c, ok := ctx.Value(ChatKey).(*Chat)
	if !ok {
		return nil
	}
	return c
}

type chatPolicy interface {
	IsChatAllowed(chatID int64) bool
}

type modeSource interface {
	Mode(chatID int64) domain.Mode
}

// ChatLoader drops updates from chats outside the allow list and puts the
// chat with its selected mode into context.
func ChatLoader(policy chatPolicy, modes modeSource) bot.Middleware {
	return func(next bot.HandlerFunc) bot.HandlerFunc {
		return func(ctx context.Context, b *bot.Bot, update *models.Update) {
			var chat *models.Chat
			if update.Message != nil {
				chat = &update.Message.Chat
			} else if update.CallbackQuery != nil && update.CallbackQuery.Message.Message != nil {
				chat = &update.CallbackQuery.Message.Message.Chat
			}

			if chat == nil {
				next(ctx, b, update)
				return
			}
			if !policy.IsChatAllowed(chat.ID) {
				slog.Warn("update from chat outside allow list dropped", "chat_id", chat.ID)
				return
			}

			ctx = context.WithValue(ctx, ChatKey, &Chat{
				ID:   chat.ID,
				Type: chat.Type,
				Mode: modes.Mode(chat.ID),
			})
			next(ctx, b, update)
		}
	}
}
