// Package auditlog persists closed council sessions. Records are append-only
// and grouped by calendar month.
package auditlog

import (
	"context"
	"time"

	"github.com/set-night/primeminister/internal/domain"
)

// Appender persists one closed session record.
type Appender interface {
	Append(ctx context.Context, rec *domain.Record) error
}

// Store is an Appender that can also read back recent sessions, newest first.
type Store interface {
	Appender
	History(ctx context.Context, limit int) ([]domain.Record, error)
	Close() error
}

// Month is the partition key of rec, e.g. "2026-10".
func Month(rec *domain.Record) string {
	ts := rec.Metadata.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	return ts.Format("2006-01")
}
