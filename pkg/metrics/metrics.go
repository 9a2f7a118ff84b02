// Package metrics holds the prometheus collectors updated by the wallet engine.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "zondwallet"

// Metrics is safe to use as a nil pointer; every method is then a no-op.
type Metrics struct {
	registry         *prometheus.Registry
	connectionChecks *prometheus.CounterVec
	balanceFetches   *prometheus.CounterVec
	transactions     *prometheus.CounterVec
	tokenLookups     *prometheus.CounterVec
	accounts         prometheus.Gauge
	connected        prometheus.Gauge
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		connectionChecks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connection_checks_total",
			Help:      "Node liveness checks by outcome.",
		}, []string{"result"}),
		balanceFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "balance_fetches_total",
			Help:      "Per-account balance lookups by outcome.",
		}, []string{"result"}),
		transactions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transactions_total",
			Help:      "Transfers submitted by outcome.",
		}, []string{"result"}),
		tokenLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "token_lookups_total",
			Help:      "Token contract introspections by outcome.",
		}, []string{"result"}),
		accounts: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "accounts",
			Help:      "Accounts known on the selected network.",
		}),
		connected: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "node_connected",
			Help:      "1 when the selected node reported it is listening.",
		}),
	}
	m.registry.MustRegister(
		m.connectionChecks,
		m.balanceFetches,
		m.transactions,
		m.tokenLookups,
		m.accounts,
		m.connected,
		prometheus.NewGoCollector(),
	)
	return m
}

func result(ok bool) string {
	if ok {
		return "ok"
	}
	return "error"
}

func (m *Metrics) ConnectionChecked(connected bool) {
	if m == nil {
		return
	}
	m.connectionChecks.WithLabelValues(result(connected)).Inc()
	if connected {
		m.connected.Set(1)
	} else {
		m.connected.Set(0)
	}
}

func (m *Metrics) BalanceFetched(ok bool) {
	if m == nil {
		return
	}
	m.balanceFetches.WithLabelValues(result(ok)).Inc()
}

func (m *Metrics) TransactionSent(ok bool) {
	if m == nil {
		return
	}
	m.transactions.WithLabelValues(result(ok)).Inc()
}

func (m *Metrics) TokenLookedUp(ok bool) {
	if m == nil {
		return
	}
	m.tokenLookups.WithLabelValues(result(ok)).Inc()
}

func (m *Metrics) SetAccounts(n int) {
	if m == nil {
		return
	}
	m.accounts.Set(float64(n))
}

// Handler serves the collectors in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
