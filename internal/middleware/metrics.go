package middleware

import (
	"net/http"
	"time"

	"github.com/conduitapp/conduit-api/internal/metrics"
)

// Metrics records per-request status codes and latency.
func Metrics(collector *metrics.Collector) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(wrapped, r)

			collector.RecordHTTPStatus(wrapped.statusCode)
			collector.RecordRequestLatency(time.Since(start))
		})
	}
}
