// Package metrics constructs the metrics the application will track.
package metrics

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "tenantauth"

var (
	requests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"route", "status"},
	)

	duration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"route"},
	)

	errorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "errors_total",
		Help:      "Total number of requests that ended in an error",
	})

	panics = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "panics_total",
		Help:      "Total number of recovered panics",
	})

	authEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_events_total",
			Help:      "Authentication events by kind and outcome",
		},
		[]string{"event", "outcome"},
	)
)

// Auth event names.
const (
	EventRegisterAdmin = "register_admin"
	EventRegisterUser  = "register_user"
	EventSignIn        = "sign_in"
	EventRefresh       = "refresh"
	EventSignOut       = "sign_out"
)

// AddRequests records a completed request for the route pattern.
func AddRequests(ctx context.Context, route string, status int, took time.Duration) {
	if route == "" {
		route = "unmatched"
	}

	requests.WithLabelValues(route, strconv.Itoa(status)).Inc()
	duration.WithLabelValues(route).Observe(took.Seconds())
}

// AddErrors increments the errors metric.
func AddErrors(ctx context.Context) {
	errorsTotal.Inc()
}

// AddPanics increments the panics metric.
func AddPanics(ctx context.Context) {
	panics.Inc()
}

// AddAuthEvent records the outcome of an authentication event.
func AddAuthEvent(ctx context.Context, event string, success bool) {
	outcome := "failure"
	if success {
		outcome = "success"
	}

	authEvents.WithLabelValues(event, outcome).Inc()
}
