package handler

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/set-night/primeminister/internal/config"
	"github.com/set-night/primeminister/internal/council"
	"github.com/set-night/primeminister/internal/service"
	"github.com/set-night/primeminister/internal/telegram"
)

// Messenger is the part of the Bot API the handlers call.
type Messenger interface {
	telegram.Sender
	EditMessageText(ctx context.Context, params *bot.EditMessageTextParams) (*models.Message, error)
	EditMessageReplyMarkup(ctx context.Context, params *bot.EditMessageReplyMarkupParams) (*models.Message, error)
	AnswerCallbackQuery(ctx context.Context, params *bot.AnswerCallbackQueryParams) (bool, error)
}

// Handler holds all dependencies needed by command and callback handlers.
type Handler struct {
	bot      *bot.Bot
	send     Messenger
	cfg      *config.Config
	orch     *council.Orchestrator
	chats    *service.ChatStates
	tgLogger *telegram.TelegramLogger
}

// Deps contains all dependencies required to construct a Handler.
type Deps struct {
	Bot          *bot.Bot
	Messenger    Messenger // defaults to Bot
	Cfg          *config.Config
	Orchestrator *council.Orchestrator
	Chats        *service.ChatStates
	TgLogger     *telegram.TelegramLogger
}

// New creates a new Handler from the provided dependencies.
func New(deps Deps) *Handler {
	h := &Handler{
		bot:      deps.Bot,
		send:     deps.Messenger,
		cfg:      deps.Cfg,
		orch:     deps.Orchestrator,
		chats:    deps.Chats,
		tgLogger: deps.TgLogger,
	}
	if h.send == nil && deps.Bot != nil {
		h.send = deps.Bot
	}
	if h.chats == nil {
		h.chats = service.NewChatStates(deps.Orchestrator.Council().Mode)
	}
	return h
}

// Chats exposes the per-chat state for middleware.
func (h *Handler) Chats() *service.ChatStates { return h.chats }
