package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/karishmathakrar/GreenGridPR/internal/metrics"
)

const correlationHeader = "X-Correlation-ID"

// RequestLogger creates a zerolog-based request logger middleware
func RequestLogger(logger zerolog.Logger, collector *metrics.Collector) func(next http.Handler) http.Handler {
	return middleware.RequestLogger(&requestLogFormatter{logger: logger, collector: collector})
}

// requestLogFormatter implements chi's LogFormatter interface
type requestLogFormatter struct {
	logger    zerolog.Logger
	collector *metrics.Collector
}

func (f *requestLogFormatter) NewLogEntry(r *http.Request) middleware.LogEntry {
	entry := &requestLogEntry{
		logger:        f.logger,
		collector:     f.collector,
		correlationID: r.Header.Get(correlationHeader),
		method:        r.Method,
		url:           r.URL.Path,
		remoteAddr:    r.RemoteAddr,
	}

	entry.logger.Debug().
		Str("correlation_id", entry.correlationID).
		Str("method", entry.method).
		Str("url", r.URL.String()).
		Str("remote_addr", entry.remoteAddr).
		Msg("Request started")

	return entry
}

// requestLogEntry implements chi's LogEntry interface
type requestLogEntry struct {
	logger        zerolog.Logger
	collector     *metrics.Collector
	correlationID string
	method        string
	url           string
	remoteAddr    string
}

func (e *requestLogEntry) Write(status, bytes int, header http.Header, elapsed time.Duration, extra interface{}) {
	level := zerolog.InfoLevel
	if status >= 400 && status < 500 {
		level = zerolog.WarnLevel
	} else if status >= 500 {
		level = zerolog.ErrorLevel
	}

	e.logger.WithLevel(level).
		Str("correlation_id", e.correlationID).
		Str("method", e.method).
		Str("url", e.url).
		Int("status", status).
		Int("bytes", bytes).
		Dur("elapsed", elapsed).
		Msg("Request completed")

	if e.collector != nil {
		e.collector.APIRequest(e.method, e.url, status, elapsed)
	}
}

func (e *requestLogEntry) Panic(v interface{}, stack []byte) {
	e.logger.Error().
		Str("correlation_id", e.correlationID).
		Str("method", e.method).
		Str("url", e.url).
		Interface("panic", v).
		Bytes("stack", stack).
		Msg("Request panic")
}

// CorrelationID adds a correlation ID to requests if not present
func CorrelationID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		correlationID := r.Header.Get(correlationHeader)
		if correlationID == "" {
			correlationID = uuid.New().String()
			r.Header.Set(correlationHeader, correlationID)
		}
		w.Header().Set(correlationHeader, correlationID)
		next.ServeHTTP(w, r)
	})
}
