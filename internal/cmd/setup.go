package cmd

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	primeminister "github.com/set-night/primeminister"
	"github.com/set-night/primeminister/internal/auditlog"
	"github.com/set-night/primeminister/internal/config"
	"github.com/set-night/primeminister/internal/council"
	"github.com/set-night/primeminister/internal/service"
)

// runtime holds everything a command needs after configuration resolved.
type runtime struct {
	cfg        *config.Config
	roster     *config.Roster
	logDir     string
	store      auditlog.Store
	dispatcher *auditlog.Dispatcher
	chat       *service.ChatClient
	orch       *council.Orchestrator

	logFile    *os.File
	prevLogger *slog.Logger
}

// setup loads env config and the council file, installs the process logger
// and opens the audit store. withAudit=false skips the store.
func (a *app) setup(ctx context.Context, withAudit bool) (*runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if a.configPath != "" {
		cfg.CouncilPath = a.configPath
	}

	rt := &runtime{cfg: cfg}

	rt.logDir, err = config.ResolveLogDir(cfg.LogDir)
	if err != nil {
		return nil, err
	}
	if err := rt.installLogger(); err != nil {
		return nil, err
	}

	path, err := config.ResolveCouncilPath(cfg.CouncilPath, primeminister.DefaultCouncil)
	if err != nil {
		rt.close()
		return nil, err
	}
	rt.roster, err = config.LoadCouncil(path)
	if err != nil {
		rt.close()
		return nil, err
	}

	apiURL, apiKey := cfg.Provider(rt.roster)
	rt.chat = service.NewChatClient(apiURL, apiKey, cfg.RequestTimeout)

	var provider council.Provider = rt.chat
	if a.provider != nil {
		provider = a.provider
	}

	opts := []council.Option{council.WithMaxParallel(cfg.MaxParallel)}
	if withAudit {
		migrations, err := fs.Sub(primeminister.MigrationsFS, "migrations")
		if err != nil {
			rt.close()
			return nil, fmt.Errorf("migrations fs: %w", err)
		}
		rt.store, err = auditlog.Open(ctx, cfg, rt.logDir, migrations)
		if err != nil {
			rt.close()
			return nil, err
		}
		rt.dispatcher = auditlog.NewDispatcher(rt.store)
		opts = append(opts, council.WithAuditor(rt.dispatcher))
	}

	rt.orch = council.New(rt.roster.Council, provider, opts...)
	slog.Info("council loaded",
		"path", rt.roster.Path,
		"members", len(rt.roster.Council.Members),
		"mode", rt.roster.Council.Mode,
		"audit", cfg.AuditBackend,
	)
	return rt, nil
}

func (rt *runtime) installLogger() error {
	f, err := os.OpenFile(filepath.Join(rt.logDir, config.ProcessLog), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open process log: %w", err)
	}
	rt.logFile = f
	rt.prevLogger = slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(f, &slog.HandlerOptions{Level: rt.cfg.SlogLevel()})))
	return nil
}

// close waits for pending audit appends and releases resources.
func (rt *runtime) close() {
	if rt.dispatcher != nil {
		ctx, cancel := context.WithTimeout(context.Background(), config.AuditAppendTimeout+time.Second)
		if err := rt.dispatcher.Close(ctx); err != nil {
			slog.Warn("audit appends still pending at exit", "error", err)
		}
		cancel()
	}
	if rt.store != nil {
		if err := rt.store.Close(); err != nil {
			slog.Warn("close audit store", "error", err)
		}
	}
	if rt.logFile != nil {
		slog.SetDefault(rt.prevLogger)
		rt.logFile.Close()
	}
}
