package auditlog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/set-night/primeminister/internal/domain"
	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS council_sessions (
    session_uuid     TEXT PRIMARY KEY,
    question_uuid    TEXT NOT NULL,
    result_uuid      TEXT,
    month            TEXT NOT NULL,
    mode             TEXT NOT NULL,
    prompt           TEXT NOT NULL,
    final_result     TEXT NOT NULL,
    tie_broken_by_pm INTEGER NOT NULL DEFAULT 0,
    failed           INTEGER NOT NULL DEFAULT 0,
    total_cost       TEXT NOT NULL DEFAULT '0',
    record_json      TEXT NOT NULL,
    created_at       TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_council_sessions_month ON council_sessions (month, created_at);
`

// SQLiteStore keeps one row per session in a local SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

func OpenSQLite(path string) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("%w: sqlite path is required", domain.ErrLogging)
	}

	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: open sqlite db: %w", domain.ErrLogging, err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: ping sqlite db: %w", domain.ErrLogging, err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: apply sqlite schema: %w", domain.ErrLogging, err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteStore) Append(ctx context.Context, rec *domain.Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("%w: encode record: %w", domain.ErrLogging, err)
	}

	var resultUUID any
	if rec.ResultUUID != nil {
		resultUUID = rec.ResultUUID.String()
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO council_sessions
		    (session_uuid, question_uuid, result_uuid, month, mode, prompt, final_result,
		     tie_broken_by_pm, failed, total_cost, record_json, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.SessionUUID.String(),
		rec.QuestionUUID.String(),
		resultUUID,
		Month(rec),
		string(rec.Mode),
		rec.Prompt,
		rec.FinalResult,
		rec.Metadata.TieBrokenByPM,
		rec.Failed(),
		rec.Metadata.Usage.TotalCost.String(),
		string(data),
		rec.Metadata.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z"),
	)
	if err != nil {
		return fmt.Errorf("%w: insert session %s: %w", domain.ErrLogging, rec.SessionUUID, err)
	}
	return nil
}

func (s *SQLiteStore) History(ctx context.Context, limit int) ([]domain.Record, error) {
	query := `SELECT record_json FROM council_sessions ORDER BY created_at DESC, rowid DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: query history: %w", domain.ErrLogging, err)
	}
	defer rows.Close()

	var out []domain.Record
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("%w: scan history: %w", domain.ErrLogging, err)
		}
		var rec domain.Record
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			return nil, fmt.Errorf("%w: decode history: %w", domain.ErrLogging, err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate history: %w", domain.ErrLogging, err)
	}
	return out, nil
}
