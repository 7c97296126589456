package handler

import (
	"context"
	"fmt"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/set-night/primeminister/internal/middleware"
	"github.com/set-night/primeminister/internal/render"
)

func (h *Handler) handleStart(ctx context.Context, _ *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	c := h.orch.Council()
	mode := c.Mode
	if chat := middleware.GetChat(ctx); chat != nil {
		mode = chat.Mode
	}

	text := fmt.Sprintf(
		"🏛 *PrimeMinister*\n\n"+
			"I put your question to a council of %d AI members and come back with the Prime Minister's decision.\n\n"+
			"Current mode: *%s*\n\n"+
			"📋 *Commands:*\n"+
			"/ask <question> — Ask the council\n"+
			"/mode — Switch between council and advisor mode\n"+
			"/council — Show the members\n"+
			"/help — This message\n\n"+
			"In a private chat just send your question.",
		len(c.Members), mode,
	)

	h.send.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    chatID,
		Text:      text,
		ParseMode: models.ParseModeMarkdownV1,
	})
}

func (h *Handler) handleCouncil(ctx context.Context, _ *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	h.send.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: update.Message.Chat.ID,
		Text:   render.Council(h.orch.Council()),
	})
}
