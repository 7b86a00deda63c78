// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels.
const (
	OutcomeOK       = "ok"
	OutcomeInvalid  = "invalid"
	OutcomeNotFound = "not_found"
	OutcomeError    = "error"
	OutcomeDenied   = "denied"
	OutcomeLimited  = "rate_limited"
)

var (
	// AnnouncementOps counts announcement operations by op and outcome.
	AnnouncementOps = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "noticeboard_announcement_operations_total",
		Help: "Announcement service operations by operation and outcome",
	}, []string{"op", "outcome"})

	// LoginAttempts counts POST /auth/login calls by outcome.
	LoginAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "noticeboard_login_attempts_total",
		Help: "Login attempts by outcome",
	}, []string{"outcome"})

	// RequestDuration observes request latency by chi route pattern.
	RequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "noticeboard_http_request_duration_seconds",
		Help:    "HTTP request latency by route pattern, method and status",
		Buckets: prometheus.DefBuckets,
	}, []string{"route", "method", "status"})
)

// ObserveAnnouncementOp counts one announcement operation.
func ObserveAnnouncementOp(op, outcome string) {
	AnnouncementOps.WithLabelValues(op, outcome).Inc()
}

// ObserveLogin counts one login attempt.
func ObserveLogin(outcome string) {
	LoginAttempts.WithLabelValues(outcome).Inc()
}

// Handler serves the default registry in the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware records request latency labelled by the matched chi route
// pattern, so path parameters do not explode label cardinality.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = strings.TrimSuffix(p, "/*")
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		RequestDuration.WithLabelValues(route, r.Method, strconv.Itoa(status)).
			Observe(time.Since(start).Seconds())
	})
}
