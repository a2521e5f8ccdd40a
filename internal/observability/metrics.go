// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// HTTP metrics
	HTTPRequests        *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Provider metrics
	ProviderCalls   *prometheus.CounterVec
	ProviderLatency *prometheus.HistogramVec
	RPCCallLatency  *prometheus.HistogramVec

	// Cache metrics
	CacheLookups *prometheus.CounterVec

	// Resolution metrics
	Resolutions *prometheus.CounterVec

	// Swap metrics
	QuotesServed       prometheus.Counter
	SwapsBuilt         prometheus.Counter
	SwapsConfirmed     prometheus.Counter
	FeesRecorded       *prometheus.CounterVec
	BackgroundFailures *prometheus.CounterVec

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "swap_gateway"
	}

	return &Metrics{
		HTTPRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests by route and status",
		}, []string{"route", "method", "status"}),
		HTTPRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),

		ProviderCalls: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "provider",
			Name:      "calls_total",
			Help:      "Total number of external provider calls by outcome",
		}, []string{"provider", "outcome"}),
		ProviderLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "provider",
			Name:      "call_latency_seconds",
			Help:      "External provider call latency in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"provider"}),
		RPCCallLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "solana",
			Name:      "rpc_call_latency_seconds",
			Help:      "Solana RPC call latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),

		CacheLookups: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "Total number of cache lookups by cache and result",
		}, []string{"cache", "result"}),

		Resolutions: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "metadata",
			Name:      "resolutions_total",
			Help:      "Total number of metadata resolutions by outcome",
		}, []string{"outcome"}),

		QuotesServed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "swap",
			Name:      "quotes_served_total",
			Help:      "Total number of quotes returned to clients",
		}),
		SwapsBuilt: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "swap",
			Name:      "transactions_built_total",
			Help:      "Total number of swap transactions built",
		}),
		SwapsConfirmed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "swap",
			Name:      "transactions_confirmed_total",
			Help:      "Total number of swap records confirmed with a signature",
		}),
		FeesRecorded: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "swap",
			Name:      "fees_recorded_total",
			Help:      "Total number of fee ledger entries recorded by token mint",
		}, []string{"token_mint"}),
		BackgroundFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "swap",
			Name:      "background_write_failures_total",
			Help:      "Total number of swallowed background write failures",
		}, []string{"operation"}),

		DBQueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordHTTPRequest records a served HTTP request.
func RecordHTTPRequest(route, method, status string, seconds float64) {
	DefaultMetrics.HTTPRequests.WithLabelValues(route, method, status).Inc()
	DefaultMetrics.HTTPRequestDuration.WithLabelValues(route).Observe(seconds)
}

// RecordProviderCall records an external provider call.
func RecordProviderCall(provider string, seconds float64, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "unavailable"
	}
	DefaultMetrics.ProviderCalls.WithLabelValues(provider, outcome).Inc()
	DefaultMetrics.ProviderLatency.WithLabelValues(provider).Observe(seconds)
}

// RecordRPCLatency records RPC call latency.
func RecordRPCLatency(method string, seconds float64) {
	DefaultMetrics.RPCCallLatency.WithLabelValues(method).Observe(seconds)
}

// RecordCacheLookup records a cache hit or miss.
func RecordCacheLookup(cache string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	DefaultMetrics.CacheLookups.WithLabelValues(cache, result).Inc()
}

// RecordResolution records the outcome of a metadata resolution ("cached", "resolved", "unknown").
func RecordResolution(outcome string) {
	DefaultMetrics.Resolutions.WithLabelValues(outcome).Inc()
}

// RecordQuote increments the quotes served counter.
func RecordQuote() {
	DefaultMetrics.QuotesServed.Inc()
}

// RecordSwapBuilt increments the swaps built counter.
func RecordSwapBuilt() {
	DefaultMetrics.SwapsBuilt.Inc()
}

// RecordSwapConfirmed increments the swaps confirmed counter.
func RecordSwapConfirmed() {
	DefaultMetrics.SwapsConfirmed.Inc()
}

// RecordFee records a fee ledger write.
func RecordFee(tokenMint string) {
	DefaultMetrics.FeesRecorded.WithLabelValues(tokenMint).Inc()
}

// RecordBackgroundFailure records a swallowed background write error.
func RecordBackgroundFailure(operation string) {
	DefaultMetrics.BackgroundFailures.WithLabelValues(operation).Inc()
}

// RecordDBQuery records database query metrics.
func RecordDBQuery(database, operation string, seconds float64, err error) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}
