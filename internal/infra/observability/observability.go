// Package observability holds the Prometheus metrics for the credit service.
//
// This provides:
//   - Ledger metrics (credits granted/debited, rejected debits, referrals, accounts)
//   - Journal health (failed durable writes)
//   - HTTP request metrics keyed by chi route pattern, not raw path
package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ═══════════════════════════════════════════════════════════════════════════
// Ledger Metrics
// ═══════════════════════════════════════════════════════════════════════════

// CreditsGranted tracks credits added to balances by transaction type.
var CreditsGranted = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "scryptex",
	Subsystem: "ledger",
	Name:      "credits_granted_total",
	Help:      "Total credits granted, by transaction type.",
}, []string{"type"})

// CreditsDebited tracks credits consumed by feature.
var CreditsDebited = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "scryptex",
	Subsystem: "ledger",
	Name:      "credits_debited_total",
	Help:      "Total credits consumed, by feature.",
}, []string{"feature"})

// DebitRejections tracks debits refused for insufficient funds.
var DebitRejections = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "scryptex",
	Subsystem: "ledger",
	Name:      "debit_rejections_total",
	Help:      "Total debits rejected for insufficient balance, by feature.",
}, []string{"feature"})

// ReferralsCompleted tracks completed referrals.
var ReferralsCompleted = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "scryptex",
	Subsystem: "ledger",
	Name:      "referrals_completed_total",
	Help:      "Total referral completions.",
})

// AccountsTotal tracks the number of ledger accounts.
var AccountsTotal = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "scryptex",
	Subsystem: "ledger",
	Name:      "accounts",
	Help:      "Current number of ledger accounts.",
})

// ─── Journal Metrics ────────────────────────────────────────────────────────

// JournalErrors tracks journal writes that failed.
var JournalErrors = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "scryptex",
	Subsystem: "journal",
	Name:      "write_errors_total",
	Help:      "Total ledger entries that could not be persisted.",
})

// ═══════════════════════════════════════════════════════════════════════════
// HTTP Metrics
// ═══════════════════════════════════════════════════════════════════════════

// HTTPRequests tracks handled requests by route, method and status.
var HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "scryptex",
	Subsystem: "http",
	Name:      "requests_total",
	Help:      "Total HTTP requests by route, method and status code.",
}, []string{"route", "method", "status"})

// HTTPLatency tracks request latency by route.
var HTTPLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: "scryptex",
	Subsystem: "http",
	Name:      "request_duration_ms",
	Help:      "HTTP request latency in milliseconds.",
	Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
}, []string{"route"})

// RateLimited tracks requests refused by the rate limiter.
var RateLimited = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "scryptex",
	Subsystem: "http",
	Name:      "rate_limited_total",
	Help:      "Total requests rejected by the per-IP rate limiter.",
})

// Instrument records HTTP metrics for every request passing through a chi router.
func Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := RoutePattern(r)
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		HTTPRequests.WithLabelValues(route, r.Method, strconv.Itoa(status)).Inc()
		HTTPLatency.WithLabelValues(route).Observe(float64(time.Since(start).Microseconds()) / 1000)
	})
}

// RoutePattern returns the matched chi route pattern, or "unmatched".
// Using patterns keeps label cardinality bounded.
func RoutePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}
