package metrics

import (
	"regexp"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// RequestDuration tracks HTTP request duration in seconds by method, path, status.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// RequestTotal counts HTTP requests by method, path, status.
	RequestTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// LoginAttempts counts admin logins by outcome (success, invalid, error).
	LoginAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "blog_login_attempts_total",
			Help: "Admin login attempts by outcome",
		},
		[]string{"outcome"},
	)

	// PostMutations counts admin post changes by action (create, update, delete).
	PostMutations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "blog_post_mutations_total",
			Help: "Post create/update/delete operations",
		},
		[]string{"action"},
	)

	// AuthRejections counts requests turned away by the session guard.
	AuthRejections = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "blog_auth_rejections_total",
			Help: "Requests rejected by the session guard",
		},
	)
)

var numericPathSegment = regexp.MustCompile(`/[0-9]+(/|$)`)

func init() {
	prometheus.MustRegister(RequestDuration, RequestTotal, LoginAttempts, PostMutations, AuthRejections)
}

// NormalizePath reduces cardinality by replacing numeric path segments with {id}.
// E.g. /post/123 -> /post/{id}, /edit-post/45 -> /edit-post/{id}.
func NormalizePath(path string) string {
	return numericPathSegment.ReplaceAllString(path, "/{id}$1")
}

// RecordRequest records duration and count for an HTTP request. Call from middleware with method, path, statusCode, duration.
func RecordRequest(method, path string, statusCode int, durationSeconds float64) {
	path = NormalizePath(path)
	status := strconv.Itoa(statusCode)
	RequestDuration.WithLabelValues(method, path, status).Observe(durationSeconds)
	RequestTotal.WithLabelValues(method, path, status).Inc()
}

func IncLoginAttempt(outcome string) {
	LoginAttempts.WithLabelValues(outcome).Inc()
}

func IncPostMutation(action string) {
	PostMutations.WithLabelValues(action).Inc()
}

func IncAuthRejection() {
	AuthRejections.Inc()
}
