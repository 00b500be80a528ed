// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"PowerWallet/internal/model"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	registry *prometheus.Registry

	// Engine metrics
	Evaluations      *prometheus.CounterVec
	TradesProposed   *prometheus.CounterVec
	EvaluationErrors *prometheus.CounterVec

	// Wallet metrics
	NavUSD        *prometheus.GaugeVec
	RiskWeightBps *prometheus.GaugeVec
	ExecutedUSD   *prometheus.CounterVec
	Deposits      *prometheus.CounterVec

	// Host metrics
	OracleErrors     *prometheus.CounterVec
	ConfigRejections *prometheus.CounterVec
	LastEvaluationAt *prometheus.GaugeVec
}

// NewMetrics creates a new Metrics instance on its own registry.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "powerwallet"
	}
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,

		Evaluations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "evaluations_total",
			Help:      "Total number of evaluations by wallet and branch",
		}, []string{"wallet", "branch"}),
		TradesProposed: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "trades_proposed_total",
			Help:      "Total number of proposed trades by wallet and kind",
		}, []string{"wallet", "kind"}),
		EvaluationErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "evaluation_errors_total",
			Help:      "Total number of failed evaluations by wallet",
		}, []string{"wallet"}),

		NavUSD: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "wallet",
			Name:      "nav_usd",
			Help:      "Wallet net asset value in USD",
		}, []string{"wallet"}),
		RiskWeightBps: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "wallet",
			Name:      "risk_weight_bps",
			Help:      "Risk asset share of NAV in basis points",
		}, []string{"wallet"}),
		ExecutedUSD: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "wallet",
			Name:      "executed_usd_total",
			Help:      "USD value of settled trades by wallet and kind",
		}, []string{"wallet", "kind"}),
		Deposits: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "wallet",
			Name:      "deposits_total",
			Help:      "Total number of periodic deposits by wallet",
		}, []string{"wallet"}),

		OracleErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "oracle",
			Name:      "errors_total",
			Help:      "Total number of oracle failures by source",
		}, []string{"source"}),
		ConfigRejections: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "config",
			Name:      "rejections_total",
			Help:      "Total number of rejected configuration updates by field",
		}, []string{"field"}),
		LastEvaluationAt: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_evaluation_timestamp_seconds",
			Help:      "Unix timestamp of the last completed evaluation",
		}, []string{"wallet"}),
	}
}

// Handler returns the HTTP handler for the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveDecision records one evaluation result.
func (m *Metrics) ObserveDecision(wallet string, d *model.Decision, unixSeconds int64) {
	m.Evaluations.WithLabelValues(wallet, string(d.Branch)).Inc()
	m.NavUSD.WithLabelValues(wallet).Set(usdFloat(d.NavUSD))
	m.RiskWeightBps.WithLabelValues(wallet).Set(float64(d.WeightBps))
	m.LastEvaluationAt.WithLabelValues(wallet).Set(float64(unixSeconds))
	if tr, ok := d.Trade(); ok && d.NeedsRebalance {
		m.TradesProposed.WithLabelValues(wallet, string(tr.Kind)).Inc()
	}
}

// ObserveExecution adds a settled trade's USD 1e8 value.
func (m *Metrics) ObserveExecution(wallet string, kind model.TradeKind, usd decimal.Decimal) {
	m.ExecutedUSD.WithLabelValues(wallet, string(kind)).Add(usdFloat(usd))
}

// usdFloat converts a USD 1e8 value for export only.
func usdFloat(v decimal.Decimal) float64 {
	f, _ := v.Shift(-8).Float64()
	return f
}
