package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/set-night/primeminister/internal/domain"
)

// SessionStore persists council records in Postgres.
type SessionStore struct {
	db *pgxpool.Pool
}

func NewSessionStore(db *pgxpool.Pool) *SessionStore {
	return &SessionStore{db: db}
}

func (s *SessionStore) Append(ctx context.Context, rec *domain.Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("%w: encode record: %w", domain.ErrLogging, err)
	}

	_, err = s.db.Exec(ctx, `
		INSERT INTO council_sessions
			(session_uuid, question_uuid, result_uuid, month, mode, prompt, final_result,
			 tie_broken_by_pm, failed, total_cost, record, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10::numeric, $11, $12)`,
		rec.SessionUUID,
		rec.QuestionUUID,
		rec.ResultUUID,
		rec.Metadata.Timestamp.Format("2006-01"),
		string(rec.Mode),
		rec.Prompt,
		rec.FinalResult,
		rec.Metadata.TieBrokenByPM,
		rec.Failed(),
		rec.Metadata.Usage.TotalCost.String(),
		data,
		rec.Metadata.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("%w: insert session %s: %w", domain.ErrLogging, rec.SessionUUID, err)
	}
	return nil
}

func (s *SessionStore) History(ctx context.Context, limit int) ([]domain.Record, error) {
	query := `SELECT record FROM council_sessions ORDER BY created_at DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: query history: %w", domain.ErrLogging, err)
	}
	records, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Record, error) {
		var raw []byte
		if err := row.Scan(&raw); err != nil {
			return domain.Record{}, err
		}
		var rec domain.Record
		err := json.Unmarshal(raw, &rec)
		return rec, err
	})
	if err != nil {
		return nil, fmt.Errorf("%w: read history: %w", domain.ErrLogging, err)
	}
	return records, nil
}

// Close releases the pool.
func (s *SessionStore) Close() error {
	s.db.Close()
	return nil
}

// OpenSessionStore migrates the schema and connects.
func OpenSessionStore(ctx context.Context, databaseURL string, migrations fs.FS) (*SessionStore, error) {
	if err := RunMigrations(databaseURL, migrations); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrLogging, err)
	}
	pool, err := NewPool(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrLogging, err)
	}
	return NewSessionStore(pool), nil
}
