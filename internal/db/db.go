package db

import (
	"context"
	"fmt"

	"notice_bot/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS seen_notices (
	source_key    TEXT NOT NULL,
	external_id   TEXT NOT NULL,
	first_seen_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT now(),
	PRIMARY KEY (source_key, external_id)
);

CREATE INDEX IF NOT EXISTS idx_seen_notices_first_seen ON seen_notices(first_seen_at);

CREATE TABLE IF NOT EXISTS source_state (
	source_key           TEXT PRIMARY KEY,
	consecutive_failures INTEGER NOT NULL DEFAULT 0,
	last_error           TEXT NOT NULL DEFAULT '',
	last_success_at      TIMESTAMP WITH TIME ZONE,
	updated_at           TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT now()
);
`

// Database инкапсулирует пул соединений к PostgreSQL.
type Database struct {
	Pool *pgxpool.Pool
}

// NewDB создаёт новый пул соединений по connString, применяет схему и возвращает Database.
func NewDB(ctx context.Context, connString string) (*Database, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, storeErr("open", "", fmt.Errorf("unable to create connection pool: %v", err))
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, storeErr("init schema", "", err)
	}
	return &Database{Pool: pool}, nil
}

// Close закрывает пул соединений.
func (db *Database) Close() {
	db.Pool.Close()
}

func (db *Database) Ping(ctx context.Context) error {
	return storeErr("ping", "", db.Pool.Ping(ctx))
}

func (db *Database) IsNew(ctx context.Context, sourceKey, externalID string) (bool, error) {
	var seen bool
	err := db.Pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM seen_notices WHERE source_key = $1 AND external_id = $2)
	`, sourceKey, externalID).Scan(&seen)
	if err != nil {
		return false, storeErr("is new", sourceKey, err)
	}
	return !seen, nil
}

// FilterNew делает один запрос на весь список кандидатов.
func (db *Database) FilterNew(ctx context.Context, sourceKey string, candidates []models.Notice) ([]models.Notice, error) {
	if len(candidates) == 0 {
		return nil, nil
	}
	ids := make([]string, len(candidates))
	for i, n := range candidates {
		ids[i] = n.ExternalID
	}

	rows, err := db.Pool.Query(ctx, `
		SELECT external_id FROM seen_notices
		WHERE source_key = $1 AND external_id = ANY($2)
	`, sourceKey, ids)
	if err != nil {
		return nil, storeErr("filter new", sourceKey, err)
	}
	defer rows.Close()

	seen := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, storeErr("filter new", sourceKey, err)
		}
		seen[id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("filter new", sourceKey, err)
	}

	out := make([]models.Notice, 0, len(candidates))
	for _, n := range candidates {
		if _, ok := seen[n.ExternalID]; !ok {
			out = append(out, n)
		}
	}
	return out, nil
}

// Commit сохраняет пару; если она уже есть, операция игнорируется.
func (db *Database) Commit(ctx context.Context, sourceKey, externalID string) error {
	_, err := db.Pool.Exec(ctx, `
		INSERT INTO seen_notices (source_key, external_id)
		VALUES ($1, $2)
		ON CONFLICT (source_key, external_id) DO NOTHING
	`, sourceKey, externalID)
	return storeErr("commit", sourceKey, err)
}

func (db *Database) RecordFailure(ctx context.Context, sourceKey, cause string) (int, error) {
	var count int
	err := db.Pool.QueryRow(ctx, `
		INSERT INTO source_state (source_key, consecutive_failures, last_error)
		VALUES ($1, 1, $2)
		ON CONFLICT (source_key) DO UPDATE SET
			consecutive_failures = source_state.consecutive_failures + 1,
			last_error = EXCLUDED.last_error,
			updated_at = now()
		RETURNING consecutive_failures
	`, sourceKey, cause).Scan(&count)
	if err != nil {
		return 0, storeErr("record failure", sourceKey, err)
	}
	return count, nil
}

func (db *Database) RecordSuccess(ctx context.Context, sourceKey string) error {
	_, err := db.Pool.Exec(ctx, `
		INSERT INTO source_state (source_key, consecutive_failures, last_success_at)
		VALUES ($1, 0, now())
		ON CONFLICT (source_key) DO UPDATE SET
			consecutive_failures = 0,
			last_error = '',
			last_success_at = now(),
			updated_at = now()
	`, sourceKey)
	return storeErr("record success", sourceKey, err)
}

func (db *Database) Recent(ctx context.Context, limit int) ([]models.DedupEntry, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT source_key, external_id, first_seen_at
		FROM seen_notices
		ORDER BY first_seen_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, storeErr("recent", "", err)
	}
	defer rows.Close()

	var entries []models.DedupEntry
	for rows.Next() {
		var e models.DedupEntry
		if err := rows.Scan(&e.SourceKey, &e.ExternalID, &e.FirstSeenAt); err != nil {
			return nil, storeErr("recent", "", err)
		}
		entries = append(entries, e)
	}
	return entries, storeErr("recent", "", rows.Err())
}
