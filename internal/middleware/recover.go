package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

type errorReporter interface {
	LogError(err error, context string)
}

// Recover returns middleware that recovers from panics and reports them
// through r when it is not nil.
func Recover(r errorReporter) bot.Middleware {
	return func(next bot.HandlerFunc) bot.HandlerFunc {
		return func(ctx context.Context, b *bot.Bot, update *models.Update) {
			defer func() {
				if p := recover(); p != nil {
					updateType, chatID, _ := describe(update)
					slog.Error("panic recovered in handler",
						"panic", p,
						"update_id", update.ID,
						"type", updateType,
						"chat_id", chatID,
						"stack", string(debug.Stack()),
					)
					if r != nil {
						r.LogError(fmt.Errorf("panic: %v", p), fmt.Sprintf("%s update %d in chat %d", updateType, update.ID, chatID))
					}
				}
			}()
			next(ctx, b, update)
		}
	}
}
