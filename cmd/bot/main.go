package main

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-telegram/bot"
	primeminister "github.com/set-night/primeminister"
	"github.com/set-night/primeminister/internal/auditlog"
	"github.com/set-night/primeminister/internal/config"
	"github.com/set-night/primeminister/internal/council"
	"github.com/set-night/primeminister/internal/handler"
	"github.com/set-night/primeminister/internal/middleware"
	"github.com/set-night/primeminister/internal/service"
	"github.com/set-night/primeminister/internal/telegram"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Setup structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(logger)

	if cfg.BotToken == "" {
		slog.Error("BOT_TOKEN is required")
		os.Exit(1)
	}

	// Setup context with graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load the council
	councilPath, err := config.ResolveCouncilPath(cfg.CouncilPath, primeminister.DefaultCouncil)
	if err != nil {
		slog.Error("failed to resolve council file", "error", err)
		os.Exit(1)
	}
	roster, err := config.LoadCouncil(councilPath)
	if err != nil {
		slog.Error("failed to load council", "path", councilPath, "error", err)
		os.Exit(1)
	}
	logDir, err := config.ResolveLogDir(cfg.LogDir)
	if err != nil {
		slog.Error("failed to resolve log dir", "error", err)
		os.Exit(1)
	}

	// Open the audit store
	migrationsFS, err := fs.Sub(primeminister.MigrationsFS, "migrations")
	if err != nil {
		slog.Error("failed to load embedded migrations", "error", err)
		os.Exit(1)
	}
	store, err := auditlog.Open(ctx, cfg, logDir, migrationsFS)
	if err != nil {
		slog.Error("failed to open audit store", "backend", cfg.AuditBackend, "error", err)
		os.Exit(1)
	}
	defer store.Close()

	// Initialize services
	tgLogger := telegram.NewTelegramLogger(nil, cfg)
	dispatcher := auditlog.NewDispatcher(store, auditlog.OnError(tgLogger.LogAuditFailure))
	apiURL, apiKey := cfg.Provider(roster)
	chat := service.NewChatClient(apiURL, apiKey, cfg.RequestTimeout)
	orch := council.New(roster.Council, chat,
		council.WithMaxParallel(cfg.MaxParallel),
		council.WithAuditor(dispatcher),
	)
	chats := service.NewChatStates(roster.Council.Mode)

	if missing, err := chat.CheckCouncilModels(ctx, roster.Council); err != nil {
		slog.Warn("could not check council models", "error", err)
	} else if len(missing) > 0 {
		slog.Warn("council models not offered by the provider", "models", missing)
	}

	// Create bot
	b, err := bot.New(cfg.BotToken,
		bot.WithMiddlewares(
			middleware.Recover(tgLogger),
			middleware.Logging(),
			middleware.ChatLoader(cfg, chats),
			middleware.RateLimit(middleware.NewLimiter(cfg.RateLimitPerMinute, config.RateLimitWindow)),
		),
	)
	if err != nil {
		slog.Error("failed to create bot", "error", err)
		os.Exit(1)
	}
	tgLogger.SetSender(b)

	if cfg.DropPendingUpdates {
		if _, err := b.DeleteWebhook(ctx, &bot.DeleteWebhookParams{DropPendingUpdates: true}); err != nil {
			slog.Warn("failed to drop pending updates", "error", err)
		}
	}

	// Get bot info
	me, err := b.GetMe(ctx)
	if err != nil {
		slog.Error("failed to get bot info", "error", err)
		os.Exit(1)
	}

	// Initialize and register handlers
	h := handler.New(handler.Deps{
		Bot:          b,
		Cfg:          cfg,
		Orchestrator: orch,
		Chats:        chats,
		TgLogger:     tgLogger,
	})
	h.Register()

	// Start bot
	slog.Info("starting bot",
		"username", me.Username,
		"id", me.ID,
		"council", roster.Path,
		"members", len(roster.Council.Members),
		"audit", cfg.AuditBackend,
	)
	b.Start(ctx)

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.AuditAppendTimeout+time.Second)
	defer cancel()
	if err := dispatcher.Close(shutdownCtx); err != nil {
		slog.Warn("audit appends still pending at shutdown", "error", err)
	}
	slog.Info("bot stopped gracefully")
}
