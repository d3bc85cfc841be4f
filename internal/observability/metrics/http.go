package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
)

// Middleware returns HTTP middleware for request metrics.
func Middleware(next http.Handler) http.Handler {
	if !enabled {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Wrap response writer to capture status code
		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}

		defer func() {
			duration := time.Since(start).Seconds()
			path := routePath(r)

			httpRequestsTotal.WithLabelValues(
				r.Method,
				path,
				strconv.Itoa(rw.status),
			).Inc()

			httpDuration.WithLabelValues(
				r.Method,
				path,
			).Observe(duration)
		}()

		next.ServeHTTP(rw, r)
	})
}

// responseWriter wraps http.ResponseWriter to capture status code.
type responseWriter struct {
	http.ResponseWriter
	status int
}

// WriteHeader captures status code.
func (rw *responseWriter) WriteHeader(status int) {
	rw.status = status
	rw.ResponseWriter.WriteHeader(status)
}

// routePath prefers the matched chi route pattern so tags and commits do not
// become label values.
func routePath(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return normalizePath(r.URL.Path)
}

// normalizePath maps unrouted paths to a bounded set of labels:
//
//	/push-release/v1.7.13/8b74...8260 -> /push-release/{tag}/{commit}
//	/push-build/nightly/x86_64-unknown-linux-gnu -> /push-build/{tag}/{platform}
func normalizePath(path string) string {
	switch path {
	case "/", "/health", "/metrics":
		return path
	}

	parts := strings.Split(strings.Trim(path, "/"), "/")
	switch parts[0] {
	case "push-release":
		return "/push-release/{tag}/{commit}"
	case "push-build":
		return "/push-build/{tag}/{platform}"
	}
	return "unmatched"
}
