// Package metrics holds the Prometheus collectors of the service.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/LeventeLantos/sms-faas/internal/model"
)

type Metrics struct {
	SmsLogged        *prometheus.CounterVec
	GraphQLRequests  *prometheus.CounterVec
	GraphQLDuration  prometheus.Histogram
	ProviderDuration prometheus.Histogram

	registry *prometheus.Registry
}

// New registers the collectors on a fresh registry, together with the Go and
// process collectors.
func New() *Metrics {
	m := &Metrics{
		SmsLogged: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sms_logged_total",
			Help: "Send attempts logged, by delivery status",
		}, []string{"status"}),
		GraphQLRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "graphql_requests_total",
			Help: "GraphQL requests, by HTTP status code",
		}, []string{"code"}),
		GraphQLDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name: "graphql_request_seconds",
			Help: "Time to handle a GraphQL request",
		}),
		ProviderDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name: "sms_provider_request_seconds",
			Help: "Time spent in the SMS provider call",
		}),
		registry: prometheus.NewRegistry(),
	}

	m.registry.MustRegister(
		m.SmsLogged,
		m.GraphQLRequests,
		m.GraphQLDuration,
		m.ProviderDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) ObserveLog(status model.Status) {
	m.SmsLogged.WithLabelValues(string(status)).Inc()
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
