package auditlog

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/set-night/primeminister/internal/config"
	"github.com/set-night/primeminister/internal/domain"
	"github.com/set-night/primeminister/internal/repository"
)

// Open builds the store selected by cfg.AuditBackend. logDir is the
// resolved log directory; migrations holds the Postgres schema.
func Open(ctx context.Context, cfg *config.Config, logDir string, migrations fs.FS) (Store, error) {
	var (
		store Store
		err   error
	)
	switch cfg.AuditBackend {
	case "", config.AuditBackendFile:
		store, err = NewFileStore(logDir)
	case config.AuditBackendSQLite:
		path := cfg.SQLitePath
		if path == "" {
			path = filepath.Join(logDir, config.SQLiteFile)
		}
		store, err = OpenSQLite(path)
	case config.AuditBackendPostgres:
		store, err = repository.OpenSessionStore(ctx, cfg.DatabaseURL, migrations)
	default:
		return nil, fmt.Errorf("%w: unknown audit backend %q", domain.ErrConfiguration, cfg.AuditBackend)
	}
	if err != nil {
		return nil, err
	}
	return store, nil
}
