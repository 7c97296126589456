package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/set-night/primeminister/internal/config"
	"github.com/set-night/primeminister/internal/domain"
	"github.com/set-night/primeminister/internal/middleware"
	"github.com/set-night/primeminister/internal/render"
	"github.com/set-night/primeminister/internal/telegram"
)

const deliberatingText = "🏛 The council is deliberating..."

// HandleText puts a private chat message to the council.
func (h *Handler) HandleText(ctx context.Context, _ *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	h.consult(ctx, update.Message, update.Message.Text)
}

// HandleAsk handles /ask <question> in any chat.
func (h *Handler) HandleAsk(ctx context.Context, _ *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	question := commandArgs(update.Message.Text)
	if question == "" {
		h.send.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: update.Message.Chat.ID,
			Text:   "Usage: /ask <question>",
		})
		return
	}
	h.consult(ctx, update.Message, question)
}

func (h *Handler) consult(ctx context.Context, msg *models.Message, question string) {
	chatID := msg.Chat.ID

	// 1. One session per chat at a time
	if !h.chats.TryBegin(chatID) {
		h.send.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: chatID,
			Text:   "⏳ The council is still working on your previous question.",
		})
		return
	}
	defer h.chats.End(chatID)

	mode := h.chats.Mode(chatID)
	if chat := middleware.GetChat(ctx); chat != nil {
		mode = chat.Mode
	}

	// 2. Placeholder and typing indicator
	placeholder, err := h.send.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:          chatID,
		Text:            deliberatingText,
		ReplyParameters: &models.ReplyParameters{MessageID: msg.ID},
	})
	if err != nil {
		slog.Warn("send placeholder", "chat_id", chatID, "error", err)
	}
	stopTyping := telegram.StartTyping(ctx, h.send, chatID)

	// 3. Run the session
	runCtx, cancel := context.WithTimeout(ctx, config.SessionTimeout)
	res, err := h.orch.Run(runCtx, question, mode)
	cancel()
	stopTyping()

	if res != nil {
		h.tgLogger.LogSession(chatID, res.Record)
	}

	status := "✅ The council has decided."
	if err != nil {
		status = userMessage(err)
		if !errors.Is(err, domain.ErrEmptyQuestion) {
			h.tgLogger.LogError(err, fmt.Sprintf("council session in chat %d", chatID))
		}
	}
	if placeholder != nil {
		h.send.EditMessageText(ctx, &bot.EditMessageTextParams{
			ChatID:    chatID,
			MessageID: placeholder.ID,
			Text:      status,
		})
	} else if err != nil {
		h.send.SendMessage(ctx, &bot.SendMessageParams{ChatID: chatID, Text: status})
	}
	if err != nil {
		return
	}

	// 4. Decision and tallies
	replyTo := msg.ID
	if err := telegram.SendLongMessage(ctx, h.send, chatID, render.Summary(res.Record), &replyTo); err != nil {
		slog.Error("send decision", "chat_id", chatID, "session", res.Record.SessionUUID, "error", err)
	}
}

// userMessage turns a session error into a reply for the chat.
func userMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrEmptyQuestion):
		return "❌ Please send a question."
	case errors.Is(err, domain.ErrConfiguration):
		return "❌ The council is misconfigured. Ask the bot owner to check the council file."
	case errors.Is(err, domain.ErrNoResponses):
		return "❌ No council member could answer. Please try again later."
	case errors.Is(err, domain.ErrSynthesis):
		return "❌ The Prime Minister could not reach a decision. Please try again later."
	case errors.Is(err, context.DeadlineExceeded):
		return "⌛ The council took too long. Please try again."
	default:
		return "❌ Something went wrong. Please try again later."
	}
}
