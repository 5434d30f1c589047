// Package metrics records handler resolution and connection activity in
// Prometheus. A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service collectors on a private registry
type Metrics struct {
	registry *prometheus.Registry

	handlerLookups    *prometheus.CounterVec
	anonymousSessions *prometheus.CounterVec
	livenessChecks    *prometheus.CounterVec
	permissionGrants  prometheus.Counter
	probeJobs         *prometheus.CounterVec
}

// New creates a Metrics instance with Go runtime and process collectors
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &Metrics{
		registry: reg,
		handlerLookups: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "geoconnect_handler_lookups_total",
				Help: "Handler registry lookups by scope and outcome",
			},
			[]string{"scope", "found"},
		),
		anonymousSessions: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "geoconnect_anonymous_sessions_total",
				Help: "Sessions downgraded to anonymous because no auth handler was found",
			},
			[]string{"auth_type"},
		),
		livenessChecks: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "geoconnect_liveness_checks_total",
				Help: "Server liveness checks by server type and result",
			},
			[]string{"server_type", "alive"},
		),
		permissionGrants: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "geoconnect_permission_grants_total",
				Help: "Connection permissions granted on creation",
			},
		),
		probeJobs: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "geoconnect_probe_jobs_total",
				Help: "Queued liveness probe jobs by outcome",
			},
			[]string{"outcome"}, // "completed", "failed"
		),
	}
}

// ObserveLookup records a handler registry lookup
func (m *Metrics) ObserveLookup(scope string, found bool) {
	if m == nil {
		return
	}
	m.handlerLookups.WithLabelValues(scope, strconv.FormatBool(found)).Inc()
}

// AnonymousSession records a session downgrade
func (m *Metrics) AnonymousSession(authType string) {
	if m == nil {
		return
	}
	m.anonymousSessions.WithLabelValues(authType).Inc()
}

// ObserveLiveness records the result of a liveness check
func (m *Metrics) ObserveLiveness(serverType string, alive bool) {
	if m == nil {
		return
	}
	m.livenessChecks.WithLabelValues(serverType, strconv.FormatBool(alive)).Inc()
}

// ObserveGrants records n permission grants
func (m *Metrics) ObserveGrants(n int) {
	if m == nil {
		return
	}
	m.permissionGrants.Add(float64(n))
}

// ObserveProbeJob records a finished probe job
func (m *Metrics) ObserveProbeJob(err error) {
	if m == nil {
		return
	}
	outcome := "completed"
	if err != nil {
		outcome = "failed"
	}
	m.probeJobs.WithLabelValues(outcome).Inc()
}

// Registry exposes the underlying registry, mainly for tests
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
