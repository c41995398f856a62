// Package logging configures the process-wide log/slog logger.
//
// Loggers obtained through FromContext pick up the chi request id and the
// client address stored by the HTTP request logger, so the lines written by
// a handler, the service and the store for one request share the same keys.
// The CLI uses the same setup with no request context.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
)

// Setup configures the global slog logger writing to stdout.
//
// Level values: "debug", "info", "warn", "error" (default: "info")
// Format values: "text", "json" (default: "text")
//
// Choose "json" when logs are shipped to a collector and "text" when a
// person reads them in a terminal.
func Setup(level, format string) {
	slog.SetDefault(New(os.Stdout, level, format))
}

// New builds a logger for w without installing it.
func New(w io.Writer, level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: parseLevel(level),
	}

	var handler slog.Handler
	if strings.ToLower(format) == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	return slog.New(handler)
}

// parseLevel maps a level name to slog.Level. Unknown names log at info.
func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

type contextKey string

const clientIPKey contextKey = "client_ip"

// WithClientIP records the resolved client address so that every logger
// built from ctx carries it as "ip".
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPKey, ip)
}

// ClientIP returns the address stored by WithClientIP, or "".
func ClientIP(ctx context.Context) string {
	ip, _ := ctx.Value(clientIPKey).(string)
	return ip
}

// FromContext returns the default logger enriched with request context:
//
//   - request_id, when ctx went through chi's RequestID middleware
//   - ip, when the request logger stored the client address
//
// Use it in handlers and service methods instead of slog.Default so that
// every line of a request can be correlated:
//
//	func (s *Server) handleListSongs(w http.ResponseWriter, r *http.Request) {
//	    log := logging.FromContext(r.Context())
//	    log.Debug("listing songs", "artist", name)
//	}
func FromContext(ctx context.Context) *slog.Logger {
	logger := slog.Default()

	// Set by chi's RequestID middleware.
	if reqID := middleware.GetReqID(ctx); reqID != "" {
		logger = logger.With("request_id", reqID)
	}
	if ip := ClientIP(ctx); ip != "" {
		logger = logger.With("ip", ip)
	}

	return logger
}

// WithFields returns a request-scoped logger with additional structured fields.
// Build one at the start of a multi-step operation and log every step with it:
//
//	log := logging.WithFields(ctx, "upload_id", id, "artist", name)
//	log.Info("upload started")
//	// ... import rows ...
//	log.Info("upload completed", "upserted", n)
func WithFields(ctx context.Context, args ...any) *slog.Logger {
	return FromContext(ctx).With(args...)
}
