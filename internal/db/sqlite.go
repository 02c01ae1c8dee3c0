package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"notice_bot/internal/models"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS seen_notices (
	source_key    TEXT NOT NULL,
	external_id   TEXT NOT NULL,
	first_seen_at TEXT NOT NULL,
	PRIMARY KEY (source_key, external_id)
);

CREATE INDEX IF NOT EXISTS idx_seen_notices_first_seen ON seen_notices(first_seen_at);

CREATE TABLE IF NOT EXISTS source_state (
	source_key           TEXT PRIMARY KEY,
	consecutive_failures INTEGER NOT NULL DEFAULT 0,
	last_error           TEXT NOT NULL DEFAULT '',
	last_success_at      TEXT,
	updated_at           TEXT NOT NULL
);
`

// SQLite - файловое хранилище для запуска на одном хосте.
type SQLite struct {
	conn *sql.DB
}

// OpenSQLite открывает (или создаёт) базу по пути path и применяет схему.
func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	dsn := path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, storeErr("open", "", err)
	}
	// Одно соединение на процесс.
	conn.SetMaxOpenConns(1)

	if _, err := conn.ExecContext(ctx, sqliteSchema); err != nil {
		conn.Close()
		return nil, storeErr("init schema", "", err)
	}
	return &SQLite{conn: conn}, nil
}

// tsLayout - фиксированная ширина, чтобы строки сортировались как время.
const tsLayout = "2006-01-02T15:04:05.000000000Z07:00"

func now() string {
	return time.Now().UTC().Format(tsLayout)
}

func (s *SQLite) IsNew(ctx context.Context, sourceKey, externalID string) (bool, error) {
	var one int
	err := s.conn.QueryRowContext(ctx,
		`SELECT 1 FROM seen_notices WHERE source_key = ? AND external_id = ?`,
		sourceKey, externalID,
	).Scan(&one)
	switch {
	case err == sql.ErrNoRows:
		return true, nil
	case err != nil:
		return false, storeErr("is new", sourceKey, err)
	}
	return false, nil
}

func (s *SQLite) FilterNew(ctx context.Context, sourceKey string, candidates []models.Notice) ([]models.Notice, error) {
	out := make([]models.Notice, 0, len(candidates))
	for _, n := range candidates {
		fresh, err := s.IsNew(ctx, sourceKey, n.ExternalID)
		if err != nil {
			return nil, err
		}
		if fresh {
			out = append(out, n)
		}
	}
	return out, nil
}

func (s *SQLite) Commit(ctx context.Context, sourceKey, externalID string) error {
	_, err := s.conn.ExecContext(ctx, `
		INSERT INTO seen_notices (source_key, external_id, first_seen_at)
		VALUES (?, ?, ?)
		ON CONFLICT (source_key, external_id) DO NOTHING
	`, sourceKey, externalID, now())
	return storeErr("commit", sourceKey, err)
}

func (s *SQLite) RecordFailure(ctx context.Context, sourceKey, cause string) (int, error) {
	var count int
	err := s.conn.QueryRowContext(ctx, `
		INSERT INTO source_state (source_key, consecutive_failures, last_error, updated_at)
		VALUES (?, 1, ?, ?)
		ON CONFLICT (source_key) DO UPDATE SET
			consecutive_failures = consecutive_failures + 1,
			last_error = excluded.last_error,
			updated_at = excluded.updated_at
		RETURNING consecutive_failures
	`, sourceKey, cause, now()).Scan(&count)
	if err != nil {
		return 0, storeErr("record failure", sourceKey, err)
	}
	return count, nil
}

func (s *SQLite) RecordSuccess(ctx context.Context, sourceKey string) error {
	ts := now()
	_, err := s.conn.ExecContext(ctx, `
		INSERT INTO source_state (source_key, consecutive_failures, last_error, last_success_at, updated_at)
		VALUES (?, 0, '', ?, ?)
		ON CONFLICT (source_key) DO UPDATE SET
			consecutive_failures = 0,
			last_error = '',
			last_success_at = excluded.last_success_at,
			updated_at = excluded.updated_at
	`, sourceKey, ts, ts)
	return storeErr("record success", sourceKey, err)
}

func (s *SQLite) Recent(ctx context.Context, limit int) ([]models.DedupEntry, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT source_key, external_id, first_seen_at
		FROM seen_notices
		ORDER BY first_seen_at DESC, rowid DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, storeErr("recent", "", err)
	}
	defer rows.Close()

	var entries []models.DedupEntry
	for rows.Next() {
		var (
			e  models.DedupEntry
			ts string
		)
		if err := rows.Scan(&e.SourceKey, &e.ExternalID, &ts); err != nil {
			return nil, storeErr("recent", "", err)
		}
		e.FirstSeenAt, err = time.Parse(tsLayout, ts)
		if err != nil {
			return nil, storeErr("recent", e.SourceKey, fmt.Errorf("bad first_seen_at %q: %w", ts, err))
		}
		entries = append(entries, e)
	}
	return entries, storeErr("recent", "", rows.Err())
}

func (s *SQLite) Ping(ctx context.Context) error {
	return storeErr("ping", "", s.conn.PingContext(ctx))
}

func (s *SQLite) Close() {
	s.conn.Close()
}
