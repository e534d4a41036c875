// Package metrics provides Prometheus metrics collection.
package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector holds all Prometheus metrics.
type Collector struct {
	// HTTP metrics
	RequestsTotal    *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	RequestsInFlight prometheus.Gauge

	// Catalogue metrics
	CatalogueDefinitions *prometheus.GaugeVec
	CatalogueReloads     prometheus.Counter
	CatalogueReloadErrs  prometheus.Counter
	CatalogueLastReload  prometheus.Gauge

	// Entity metrics
	EntityOps          *prometheus.CounterVec
	EntitiesLive       *prometheus.GaugeVec
	ValidationFailures *prometheus.CounterVec

	// Action metrics
	ActionInvocations *prometheus.CounterVec

	// Backend metrics
	BackendDuration *prometheus.HistogramVec
	BackendErrors   *prometheus.CounterVec
}

// New creates a new metrics collector registered on the default
// Prometheus registry.
func New() *Collector {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates a new metrics collector with a custom registry.
// Useful for testing to avoid global state.
func NewWithRegistry(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)

	return &Collector{
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "occi",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests processed",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "occi",
				Name:      "request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path", "status"},
		),
		RequestsInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "occi",
				Name:      "requests_in_flight",
				Help:      "Number of HTTP requests currently being processed",
			},
		),

		CatalogueDefinitions: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "occi",
				Name:      "catalogue_definitions",
				Help:      "Number of registered catalogue definitions",
			},
			[]string{"flavor"},
		),
		CatalogueReloads: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "occi",
				Name:      "catalogue_reloads_total",
				Help:      "Total number of successful catalogue reloads",
			},
		),
		CatalogueReloadErrs: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "occi",
				Name:      "catalogue_reload_errors_total",
				Help:      "Total number of catalogue reload errors",
			},
		),
		CatalogueLastReload: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "occi",
				Name:      "catalogue_last_reload_timestamp",
				Help:      "Unix timestamp of last successful catalogue reload",
			},
		),

		EntityOps: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "occi",
				Name:      "entity_operations_total",
				Help:      "Total entity operations by kind and outcome",
			},
			[]string{"op", "kind", "outcome"},
		),
		EntitiesLive: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "occi",
				Name:      "entities_live",
				Help:      "Number of live entities by kind",
			},
			[]string{"kind"},
		),
		ValidationFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "occi",
				Name:      "validation_failures_total",
				Help:      "Total attribute and schema validation failures",
			},
			[]string{"reason"},
		),

		ActionInvocations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "occi",
				Name:      "action_invocations_total",
				Help:      "Total action invocations by action and outcome",
			},
			[]string{"action", "outcome"},
		),

		BackendDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "occi",
				Name:      "backend_duration_seconds",
				Help:      "Backend call duration in seconds",
				Buckets:   []float64{.001, .005, .01, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"backend", "op"},
		),
		BackendErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "occi",
				Name:      "backend_errors_total",
				Help:      "Total backend call errors",
			},
			[]string{"backend", "op"},
		),
	}
}

// NormalizePath reduces label cardinality for request paths. Entity IDs
// appear as the third segment of /v1/entities/<id>/... routes.
func NormalizePath(path string) string {
	parts := strings.Split(path, "/")
	if len(parts) >= 4 && parts[1] == "v1" && parts[2] == "entities" &&
		parts[3] != "" && parts[3] != "exists" {
		parts[3] = ":id"
		path = strings.Join(parts, "/")
	}
	if len(path) > 50 {
		return path[:50] + "..."
	}
	return path
}
