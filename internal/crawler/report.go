package crawler

import (
	"fmt"
	"strings"
	"time"

	"notice_bot/internal/models"
)

// Status - конечное состояние обхода источника.
type Status string

const (
	StatusDone   Status = "done"
	StatusFailed Status = "failed"
)

// SourceReport - итог по одному источнику за прогон.
// Err хранит первую ошибку, из-за которой источник перешёл в failed.
type SourceReport struct {
	Key      string `json:"key"`
	Status   Status `json:"status"`
	Fetched  int    `json:"fetched"`
	Skipped  int    `json:"skipped"`
	New      int    `json:"new"`
	Notified int    `json:"notified"`
	Failed   int    `json:"failed"`
	Deferred int    `json:"deferred"`
	Err      error  `json:"-"`
	Error    string `json:"error,omitempty"`
	// Pending - новые объявления, которые были бы отправлены (только в dry-run).
	Pending []models.Notice `json:"pending,omitempty"`

	// alert уходит в служебный канал после обхода всех источников.
	alert string
}

func (s *SourceReport) fail(err error) {
	s.Status = StatusFailed
	if s.Err == nil {
		s.Err = err
		s.Error = err.Error()
	}
}

// Report - итог одного прохода по всем включённым источникам, в порядке конфигурации.
type Report struct {
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
	DryRun     bool           `json:"dry_run"`
	Sources    []SourceReport `json:"sources"`
}

// Failed возвращает источники, завершившиеся ошибкой.
func (r *Report) Failed() []SourceReport {
	var out []SourceReport
	for _, s := range r.Sources {
		if s.Status == StatusFailed {
			out = append(out, s)
		}
	}
	return out
}

// Totals суммирует счётчики по всем источникам.
func (r *Report) Totals() (fresh, notified, failed int) {
	for _, s := range r.Sources {
		fresh += s.New
		notified += s.Notified
		failed += s.Failed
	}
	return fresh, notified, failed
}

// Summary - одна строка для лога и служебного канала.
func (r *Report) Summary() string {
	fresh, notified, failed := r.Totals()

	stats := make([]string, 0, len(r.Sources))
	for _, s := range r.Sources {
		if s.Status == StatusFailed {
			stats = append(stats, s.Key+":ERR")
			continue
		}
		stats = append(stats, fmt.Sprintf("%s:%d", s.Key, s.New))
	}

	prefix := "✅ Crawl done"
	if r.DryRun {
		prefix = "🧪 Dry run"
	}
	return fmt.Sprintf("%s: %d new / %d notified / %d failed | %s",
		prefix, fresh, notified, failed, strings.Join(stats, " "))
}
