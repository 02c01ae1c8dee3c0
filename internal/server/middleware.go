package server

import (
	"net/http"
	"time"

	"notice_bot/internal/logger"

	"github.com/google/uuid"
)

// RequestIDHeader is the header name for the request ID
const RequestIDHeader = "X-Request-ID"

func generateRequestID() string {
	return uuid.NewString()
}

// RequestIDMiddleware присваивает запросу идентификатор, если клиент его не прислал.
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(RequestIDHeader)
		if requestID == "" {
			requestID = generateRequestID()
			r.Header.Set(RequestIDHeader, requestID)
		}
		w.Header().Set(RequestIDHeader, requestID)
		next.ServeHTTP(w, r)
	})
}

// LoggingMiddleware logs information about each request
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rw := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		next.ServeHTTP(rw, r)

		logger.Log.WithFields(map[string]interface{}{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      rw.statusCode,
			"duration":    time.Since(start).String(),
			"request_id":  r.Header.Get(RequestIDHeader),
			"remote_addr": r.RemoteAddr,
		}).Info("Request processed")
	})
}

// responseWriter запоминает код ответа для лога.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
