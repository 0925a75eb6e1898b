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
	// Transfer pipeline metrics
	TransfersProcessed *prometheus.CounterVec
	TransfersRejected  *prometheus.CounterVec
	FeesCollected      *prometheus.CounterVec

	// Swap-and-liquify metrics
	SwapRoundsTotal   prometheus.Counter
	SwapFailuresTotal *prometheus.CounterVec
	LiquiditySeeded   prometheus.Counter

	// ICO metrics
	ContributionsTotal prometheus.Counter
	ClaimsTotal        prometheus.Counter
	RefundsTotal       prometheus.Counter

	// Farm metrics
	StakesActive prometheus.Gauge
	RewardsPaid  prometheus.Counter

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec

	// Health metrics
	LastTransferProcessed prometheus.Gauge
	UptimeSeconds         prometheus.Counter
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "evm_token_lab"
	}

	return &Metrics{
		TransfersProcessed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "transfers_processed_total",
			Help:      "Total number of transfers processed by tx case and fee status",
		}, []string{"tx_case", "fee_applied"}),
		TransfersRejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "transfers_rejected_total",
			Help:      "Total number of transfers rejected by reason",
		}, []string{"reason"}),
		FeesCollected: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "fees_collected_total",
			Help:      "Total fee events recorded by component",
		}, []string{"component"}),

		SwapRoundsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "liquify",
			Name:      "swap_rounds_total",
			Help:      "Total number of swap-and-liquify rounds triggered",
		}),
		SwapFailuresTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "liquify",
			Name:      "swap_failures_total",
			Help:      "Total number of absorbed router failures by call",
		}, []string{"call"}),
		LiquiditySeeded: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "liquify",
			Name:      "liquidity_seeded_total",
			Help:      "Total number of successful add-liquidity calls",
		}),

		ContributionsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ico",
			Name:      "contributions_total",
			Help:      "Total number of accepted ICO contributions",
		}),
		ClaimsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ico",
			Name:      "claims_total",
			Help:      "Total number of successful ICO claims",
		}),
		RefundsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ico",
			Name:      "refunds_total",
			Help:      "Total number of ICO refunds paid",
		}),

		StakesActive: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "farm",
			Name:      "stakes_active",
			Help:      "Current number of NFTs staked in the farm",
		}),
		RewardsPaid: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "farm",
			Name:      "rewards_paid_total",
			Help:      "Total number of staking reward payouts",
		}),

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

		LastTransferProcessed: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_transfer_processed_timestamp",
			Help:      "Unix timestamp of last processed transfer",
		}),
		UptimeSeconds: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "uptime_seconds_total",
			Help:      "Total uptime in seconds",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordTransfer increments the transfers processed counter.
func RecordTransfer(txCase string, feeApplied bool) {
	applied := "false"
	if feeApplied {
		applied = "true"
	}
	DefaultMetrics.TransfersProcessed.WithLabelValues(txCase, applied).Inc()
	DefaultMetrics.LastTransferProcessed.SetToCurrentTime()
}

// RecordTransferRejected records a rejected transfer.
func RecordTransferRejected(reason string) {
	DefaultMetrics.TransfersRejected.WithLabelValues(reason).Inc()
}

// RecordFeeCollected records one fee component applied to a transfer.
func RecordFeeCollected(component string) {
	DefaultMetrics.FeesCollected.WithLabelValues(component).Inc()
}

// RecordSwapRound increments the swap-and-liquify round counter.
func RecordSwapRound() {
	DefaultMetrics.SwapRoundsTotal.Inc()
}

// RecordSwapFailure records an absorbed router failure.
func RecordSwapFailure(call string) {
	DefaultMetrics.SwapFailuresTotal.WithLabelValues(call).Inc()
}

// RecordLiquiditySeeded increments the successful add-liquidity counter.
func RecordLiquiditySeeded() {
	DefaultMetrics.LiquiditySeeded.Inc()
}

// RecordContribution increments the ICO contribution counter.
func RecordContribution() {
	DefaultMetrics.ContributionsTotal.Inc()
}

// RecordClaim increments the ICO claim counter.
func RecordClaim() {
	DefaultMetrics.ClaimsTotal.Inc()
}

// RecordRefund increments the ICO refund counter.
func RecordRefund() {
	DefaultMetrics.RefundsTotal.Inc()
}

// UpdateStakesActive sets the active stake gauge.
func UpdateStakesActive(n int) {
	DefaultMetrics.StakesActive.Set(float64(n))
}

// RecordRewardPaid increments the staking reward payout counter.
func RecordRewardPaid() {
	DefaultMetrics.RewardsPaid.Inc()
}

// RecordDBQuery records database query metrics.
func RecordDBQuery(database, operation string, seconds float64, err error) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}
