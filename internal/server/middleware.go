package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

type ctxKey string

const ctxKeyRequest ctxKey = "request"

// requestState is attached to every request. Handlers that execute or touch
// a run record it here so the access log can name the run.
type requestState struct {
	id      string
	runID   string
	outcome string
}

func stateFromContext(ctx context.Context) *requestState {
	st, _ := ctx.Value(ctxKeyRequest).(*requestState)
	return st
}

// RequestIDFromContext extracts the request ID from context.
func RequestIDFromContext(ctx context.Context) string {
	if st := stateFromContext(ctx); st != nil {
		return st.id
	}
	return ""
}

// noteRun records the run a request acted on and what became of it.
func noteRun(ctx context.Context, runID, outcome string) {
	if st := stateFromContext(ctx); st != nil {
		st.runID = runID
		st.outcome = outcome
	}
}

// requestIDMiddleware generates a request_id and stores it in context.
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		st := &requestState{id: requestID()}
		ctx := context.WithValue(r.Context(), ctxKeyRequest, st)
		w.Header().Set("X-Request-ID", st.id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// loggingMiddleware writes one access record per request. Client errors log
// at WARN and server errors at ERROR; requests that ran or touched a
// simulation carry its run_id and outcome.
func loggingMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(sw, r)

			attrs := []any{
				"method", r.Method,
				"path", r.URL.Path,
				"status", sw.status,
				"bytes", sw.written,
				"duration", time.Since(start).String(),
			}
			if st := stateFromContext(r.Context()); st != nil {
				attrs = append(attrs, "request_id", st.id)
				if st.runID != "" {
					attrs = append(attrs, "run_id", st.runID)
				}
				if st.outcome != "" {
					attrs = append(attrs, "outcome", st.outcome)
				}
			}

			level := slog.LevelInfo
			switch {
			case sw.status >= http.StatusInternalServerError:
				level = slog.LevelError
			case sw.status >= http.StatusBadRequest:
				level = slog.LevelWarn
			}
			logger.Log(r.Context(), level, "request", attrs...)
		})
	}
}

// statusWriter captures the response status code and body size.
type statusWriter struct {
	http.ResponseWriter
	status  int
	written int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	n, err := w.ResponseWriter.Write(b)
	w.written += n
	return n, err
}
