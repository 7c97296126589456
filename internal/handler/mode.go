package handler

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/set-night/primeminister/internal/domain"
	"github.com/set-night/primeminister/internal/telegram"
)

func (h *Handler) handleMode(ctx context.Context, _ *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	// "/mode advisor" switches directly
	if arg := commandArgs(update.Message.Text); arg != "" {
		mode, err := domain.ParseMode(arg)
		if err != nil {
			h.send.SendMessage(ctx, &bot.SendMessageParams{
				ChatID: chatID,
				Text:   "❌ Unknown mode. Use council or advisor.",
			})
			return
		}
		h.chats.SetMode(chatID, mode)
		h.send.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: chatID,
			Text:   fmt.Sprintf("✅ Mode set to %s.", mode),
		})
		return
	}

	h.send.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      chatID,
		Text:        "Choose how the council works:\n\n🗳 Council: answers, blind vote, decision.\n🧭 Advisor: opinions, peer review, synthesis.",
		ReplyMarkup: telegram.ModeKeyboard(h.chats.Mode(chatID)),
	})
}

func (h *Handler) handleModeSelect(ctx context.Context, _ *bot.Bot, update *models.Update) {
	cq := update.CallbackQuery
	if cq == nil {
		return
	}

	mode, err := domain.ParseMode(strings.TrimPrefix(cq.Data, telegram.CallbackModePrefix))
	if err != nil || cq.Message.Message == nil {
		h.send.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{CallbackQueryID: cq.ID})
		return
	}
	msg := cq.Message.Message

	h.chats.SetMode(msg.Chat.ID, mode)
	h.send.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: cq.ID,
		Text:            fmt.Sprintf("Mode: %s", mode),
	})

	if _, err := h.send.EditMessageReplyMarkup(ctx, &bot.EditMessageReplyMarkupParams{
		ChatID:      msg.Chat.ID,
		MessageID:   msg.ID,
		ReplyMarkup: telegram.ModeKeyboard(mode),
	}); err != nil {
		slog.Debug("edit mode keyboard", "error", err)
	}
}
