package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "utxo_dashboard"

// Metrics groups the service collectors. A nil *Metrics records nothing.
type Metrics struct {
	registry          *prometheus.Registry
	providerRequests  *prometheus.CounterVec
	renderDuration    prometheus.Summary
	registryMutations *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		providerRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_requests_total",
			Help:      "Number of remote provider requests by status",
		}, []string{"provider", "status"}),
		renderDuration: prometheus.NewSummary(prometheus.SummaryOpts{
			Namespace: namespace,
			Name:      "render_duration_seconds",
			Help:      "Time spent fetching and computing one dashboard view",
		}),
		registryMutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "registry_mutations_total",
			Help:      "Wallet registry mutations by operation and result",
		}, []string{"op", "result"}),
	}
	m.registry.MustRegister(
		m.providerRequests,
		m.renderDuration,
		m.registryMutations,
		collectors.NewGoCollector(),
	)
	return m
}

// RegisterSessions exposes the live session count.
func (m *Metrics) RegisterSessions(count func() int) {
	if m == nil {
		return
	}
	m.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "sessions",
		Help:      "Number of live dashboard sessions",
	}, func() float64 { return float64(count()) }))
}

func (m *Metrics) ProviderRequest(provider string, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.providerRequests.WithLabelValues(provider, status).Inc()
}

func (m *Metrics) ObserveRender(seconds float64) {
	if m == nil {
		return
	}
	m.renderDuration.Observe(seconds)
}

func (m *Metrics) RegistryMutation(op string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "rejected"
	}
	m.registryMutations.WithLabelValues(op, result).Inc()
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
