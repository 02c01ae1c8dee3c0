package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"notice_bot/internal/crawler"
	"notice_bot/internal/db"
	"notice_bot/internal/logger"
)

// ReportSource отдаёт отчёт последнего прохода (poller.Poller).
type ReportSource interface {
	Last() *crawler.Report
}

// Server хранит зависимости HTTP-обработчиков.
type Server struct {
	store   db.Store
	reports ReportSource
}

// NewServer создаёт новый экземпляр Server.
func NewServer(store db.Store, reports ReportSource) *Server {
	return &Server{store: store, reports: reports}
}

// Routes собирает маршруты; metrics может быть nil.
func (s *Server) Routes(metrics http.Handler) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.HealthCheck)
	mux.HandleFunc("GET /api/report", s.GetReport)
	mux.HandleFunc("GET /api/notices/{limit}", s.GetNotices)
	mux.HandleFunc("GET /api/notices", s.GetNotices)
	if metrics != nil {
		mux.Handle("GET /metrics", metrics)
	}
	return RequestIDMiddleware(LoggingMiddleware(mux))
}

// HealthCheck отвечает 200 OK, если хранилище доступно, иначе 503.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		http.Error(w, "DB unavailable", http.StatusServiceUnavailable)
		return
	}
	w.Write([]byte("OK"))
}

// GetReport возвращает отчёт последнего прохода; 204, пока проходов не было.
func (s *Server) GetReport(w http.ResponseWriter, r *http.Request) {
	report := s.reports.Last()
	if report == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, report)
}

// GetNotices возвращает последние limit зафиксированных объявлений, новые первыми.
func (s *Server) GetNotices(w http.ResponseWriter, r *http.Request) {
	limit, err := strconv.Atoi(r.PathValue("limit"))
	if err != nil || limit < 1 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}

	entries, err := s.store.Recent(r.Context(), limit)
	if err != nil {
		logger.Log.Errorf("Recent notices query failed: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	out := make([]map[string]interface{}, 0, len(entries))
	for _, e := range entries {
		out = append(out, map[string]interface{}{
			"source":        e.SourceKey,
			"external_id":   e.ExternalID,
			"first_seen_at": e.FirstSeenAt.Format(time.RFC3339),
		})
	}
	writeJSON(w, out)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}
