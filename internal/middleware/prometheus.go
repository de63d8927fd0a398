package middleware

import (
	"net/http"
	"time"

	"github.com/crucial707/blog/internal/metrics"
	"github.com/go-chi/chi/v5"
)

// UnmatchedRoute is the path label for requests no route matched.
const UnmatchedRoute = "unmatched"

// Prometheus records request duration and count for each request.
// The chi route pattern is the path label, which keeps /post/{id} as a single series.
// Requests that matched no route share the UnmatchedRoute label.
func Prometheus(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		statusW := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(statusW, r)
		if r.URL.Path == "/metrics" {
			return
		}
		path := UnmatchedRoute
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				path = pattern
			}
		}
		metrics.RecordRequest(r.Method, path, statusW.status, time.Since(start).Seconds())
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
