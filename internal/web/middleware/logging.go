// Package middleware provides the HTTP middleware stack of the playlist API.
package middleware

import (
	"net/http"
	"time"

	"github.com/JonMunkholm/playlist-api/internal/logging"
)

// Logger logs one structured line per request after it completes, with the
// chi request id attached by logging.FromContext. The resolved client address
// is stored in the request context first, so this line and every logger built
// further down carry it as "ip".
//
// Fields: request_id, ip, method, path, status, bytes, duration_ms, user_agent.
func Logger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		r = r.WithContext(logging.WithClientIP(r.Context(), clientIP(r)))
		rec := newStatusRecorder(w)

		next.ServeHTTP(rec, r)

		log := logging.FromContext(r.Context())
		level := log.Info
		if rec.status >= http.StatusInternalServerError {
			level = log.Warn
		}
		level("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"bytes", rec.bytes,
			"duration_ms", time.Since(start).Milliseconds(),
			"user_agent", r.UserAgent(),
		)
	})
}

// statusRecorder captures the status code and body size written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status      int
	bytes       int
	wroteHeader bool
}

func newStatusRecorder(w http.ResponseWriter) *statusRecorder {
	return &statusRecorder{ResponseWriter: w, status: http.StatusOK}
}

func (w *statusRecorder) WriteHeader(status int) {
	if w.wroteHeader {
		return
	}
	w.status = status
	w.wroteHeader = true
	w.ResponseWriter.WriteHeader(status)
}

func (w *statusRecorder) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	n, err := w.ResponseWriter.Write(b)
	w.bytes += n
	return n, err
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (w *statusRecorder) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
