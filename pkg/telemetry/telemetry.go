// Package telemetry provides low-overhead request observation: every
// request feeds the duration histogram, and anything slower than the
// threshold gets a structured log line.
package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"dexchat/pkg/logger"
)

var slowThreshold = 200 * time.Millisecond

var (
	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "dexchat_http_request_duration_seconds",
		Help:    "HTTP request latency by method and status.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "status"})

	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dexchat_http_requests_total",
		Help: "HTTP requests by method and status.",
	}, []string{"method", "status"})
)

// SetSlowThreshold sets the duration above which requests get a log line.
func SetSlowThreshold(d time.Duration) {
	if d > 0 {
		slowThreshold = d
	}
}

// Middleware wraps the provided handler and records request timing.
// Streaming responses are observed like any other: the request counts when
// the handler returns, which for SSE is the end of the turn.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		logger.LogRequest(r)
		srw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(srw, r)

		dur := time.Since(start)
		status := strconv.Itoa(srw.status)
		requestDuration.WithLabelValues(r.Method, status).Observe(dur.Seconds())
		requestsTotal.WithLabelValues(r.Method, status).Inc()

		if dur > slowThreshold {
			logger.Warn("slow_request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", srw.status,
				"duration_ms", dur.Milliseconds())
		}
	})
}

// statusRecorder captures the response status code. Flush is forwarded so
// SSE handlers behind the middleware still stream.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
