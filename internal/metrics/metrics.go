// Package metrics provides Prometheus instrumentation for the ledger engine.
package metrics

import (
	"bufio"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Transaction outcomes used as the "outcome" label.
const (
	OutcomeApplied  = "applied"
	OutcomeIgnored  = "ignored"
	OutcomeRejected = "rejected"
)

var (
	// TransactionsTotal counts processed transactions by type and outcome.
	TransactionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_transactions_total",
		Help: "Total number of transactions processed",
	}, []string{"type", "outcome"})

	// TransactionLatency tracks engine execution time per transaction type.
	TransactionLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ledger_transaction_latency_seconds",
		Help:    "Transaction execution latency in seconds",
		Buckets: []float64{0.000001, 0.000005, 0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.01},
	}, []string{"type"})

	// ParseErrorsTotal counts input records that never reached the engine.
	ParseErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ledger_parse_errors_total",
		Help: "Input records rejected before reaching the engine",
	})

	// InternalFaultsTotal counts held-balance violations, which mean the
	// engine's own bookkeeping is wrong.
	InternalFaultsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ledger_internal_faults_total",
		Help: "Held balance invariant violations",
	})

	// Accounts tracks the number of client accounts.
	Accounts = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ledger_accounts",
		Help: "Number of client accounts",
	})

	// LockedAccounts tracks the number of locked accounts.
	LockedAccounts = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ledger_locked_accounts",
		Help: "Number of locked client accounts",
	})

	// ReportsTotal counts account reports saved to the report store.
	ReportsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ledger_reports_total",
		Help: "Account reports saved",
	})

	// WebSocketClients tracks connected WebSocket clients.
	WebSocketClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ledger_websocket_clients",
		Help: "Number of connected WebSocket clients",
	})

	// HTTPRequestsTotal counts HTTP requests by method, path, and status.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "path", "status"})

	// HTTPRequestDuration tracks request duration by method and path.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ledger_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
	}, []string{"method", "path"})
)

// ObserveTransaction records one engine execution.
func ObserveTransaction(kind, outcome string, elapsed time.Duration) {
	TransactionsTotal.WithLabelValues(kind, outcome).Inc()
	TransactionLatency.WithLabelValues(kind).Observe(elapsed.Seconds())
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware returns an HTTP middleware that records request metrics.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusWriter{ResponseWriter: w, status: 200}
		next.ServeHTTP(wrapped, r)
		duration := time.Since(start).Seconds()

		// Route pattern keeps per-client paths out of the label set.
		path := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			path = rc.RoutePattern()
		}
		HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(wrapped.status)).Inc()
		HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(duration)
	})
}

// statusWriter wraps http.ResponseWriter to capture the status code.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// Hijack lets WebSocket upgrades pass through the middleware.
func (w *statusWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("metrics: response writer does not support hijacking")
	}
	w.status = http.StatusSwitchingProtocols
	return h.Hijack()
}
