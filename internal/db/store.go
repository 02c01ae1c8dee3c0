package db

import (
	"context"
	"fmt"

	"notice_bot/internal/config"
	"notice_bot/internal/models"
)

// Store - хранилище уже отправленных объявлений и счётчиков сбоев источников.
//
// Запись (source_key, external_id) появляется только через Commit и больше не
// удаляется и не перезаписывается. Реализации безопасны для конкурентного использования.
type Store interface {
	IsNew(ctx context.Context, sourceKey, externalID string) (bool, error)
	// FilterNew возвращает ещё не отправленные объявления, сохраняя порядок входа.
	FilterNew(ctx context.Context, sourceKey string, candidates []models.Notice) ([]models.Notice, error)
	// Commit атомарно и идемпотентно фиксирует пару; first_seen_at не перезаписывается.
	Commit(ctx context.Context, sourceKey, externalID string) error

	// RecordFailure увеличивает счётчик подряд идущих сбоев и возвращает новое значение.
	RecordFailure(ctx context.Context, sourceKey, cause string) (int, error)
	RecordSuccess(ctx context.Context, sourceKey string) error

	// Recent возвращает последние зафиксированные записи, новые первыми.
	Recent(ctx context.Context, limit int) ([]models.DedupEntry, error)

	Ping(ctx context.Context) error
	Close()
}

// StoreError - сбой хранилища при операции Op.
type StoreError struct {
	Op        string
	SourceKey string
	Err       error
}

func (e *StoreError) Error() string {
	if e.SourceKey == "" {
		return fmt.Sprintf("store %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("store %s [%s]: %v", e.Op, e.SourceKey, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

func storeErr(op, key string, err error) error {
	if err == nil {
		return nil
	}
	return &StoreError{Op: op, SourceKey: key, Err: err}
}

// Open открывает хранилище, выбранное в конфигурации.
func Open(ctx context.Context, cfg config.DatabaseConfig) (Store, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		pg, err := NewDB(ctx, cfg.DSN)
		if err != nil {
			return nil, err
		}
		return pg, nil
	case config.DriverSQLite, "":
		lite, err := OpenSQLite(ctx, cfg.Path)
		if err != nil {
			return nil, err
		}
		return lite, nil
	}
	return nil, fmt.Errorf("unknown database driver: %s", cfg.Driver)
}
