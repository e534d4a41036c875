package metrics_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/artpar/occi/adapters/metrics"
)

func TestNewWithRegistry(t *testing.T) {
	// Use a new registry to avoid conflicts with other tests
	reg := prometheus.NewRegistry()
	m := metrics.NewWithRegistry(reg)

	if m == nil {
		t.Fatal("NewWithRegistry returned nil")
	}

	// Verify all metrics are initialized
	if m.RequestsTotal == nil {
		t.Error("RequestsTotal is nil")
	}
	if m.RequestDuration == nil {
		t.Error("RequestDuration is nil")
	}
	if m.RequestsInFlight == nil {
		t.Error("RequestsInFlight is nil")
	}
	if m.CatalogueDefinitions == nil {
		t.Error("CatalogueDefinitions is nil")
	}
	if m.CatalogueReloads == nil {
		t.Error("CatalogueReloads is nil")
	}
	if m.EntityOps == nil {
		t.Error("EntityOps is nil")
	}
	if m.EntitiesLive == nil {
		t.Error("EntitiesLive is nil")
	}
	if m.ValidationFailures == nil {
		t.Error("ValidationFailures is nil")
	}
	if m.ActionInvocations == nil {
		t.Error("ActionInvocations is nil")
	}
	if m.BackendDuration == nil {
		t.Error("BackendDuration is nil")
	}
}

func gatherNames(t *testing.T, reg *prometheus.Registry) map[string]int {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather error: %v", err)
	}
	names := make(map[string]int)
	for _, f := range families {
		names[f.GetName()] = len(f.GetMetric())
	}
	return names
}

func TestRequestsTotal(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewWithRegistry(reg)

	m.RequestsTotal.WithLabelValues("GET", "/v1/entities", "200").Inc()
	m.RequestsTotal.WithLabelValues("POST", "/v1/entities", "409").Add(5)

	names := gatherNames(t, reg)
	if series, ok := names["occi_requests_total"]; !ok {
		t.Error("occi_requests_total metric not found")
	} else if series != 2 {
		t.Errorf("expected 2 metric series, got %d", series)
	}
}

func TestEntityOps(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewWithRegistry(reg)

	m.EntityOps.WithLabelValues("create", "network", "ok").Inc()
	m.EntityOps.WithLabelValues("create", "network", "error").Inc()
	m.EntityOps.WithLabelValues("delete", "compute", "ok").Inc()

	names := gatherNames(t, reg)
	if series, ok := names["occi_entity_operations_total"]; !ok {
		t.Error("occi_entity_operations_total metric not found")
	} else if series != 3 {
		t.Errorf("expected 3 metric series, got %d", series)
	}
}

func TestCatalogueMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewWithRegistry(reg)

	m.CatalogueDefinitions.WithLabelValues("kind").Set(5)
	m.CatalogueDefinitions.WithLabelValues("mixin").Set(3)
	m.CatalogueReloads.Inc()
	m.CatalogueLastReload.SetToCurrentTime()

	names := gatherNames(t, reg)
	for _, want := range []string{
		"occi_catalogue_definitions",
		"occi_catalogue_reloads_total",
		"occi_catalogue_last_reload_timestamp",
	} {
		if _, ok := names[want]; !ok {
			t.Errorf("%s metric not found", want)
		}
	}
}

func TestActionInvocations(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewWithRegistry(reg)

	m.ActionInvocations.WithLabelValues("up", "ok").Inc()
	m.ActionInvocations.WithLabelValues("down", "not_applicable").Inc()

	names := gatherNames(t, reg)
	if series, ok := names["occi_action_invocations_total"]; !ok {
		t.Error("occi_action_invocations_total metric not found")
	} else if series != 2 {
		t.Errorf("expected 2 metric series, got %d", series)
	}
}

func TestBackendMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewWithRegistry(reg)

	m.BackendDuration.WithLabelValues("memory", "create").Observe(0.002)
	m.BackendDuration.WithLabelValues("memory", "create").Observe(0.004)
	m.BackendErrors.WithLabelValues("sqlite", "get").Inc()

	names := gatherNames(t, reg)
	if _, ok := names["occi_backend_duration_seconds"]; !ok {
		t.Error("occi_backend_duration_seconds metric not found")
	}
	if _, ok := names["occi_backend_errors_total"]; !ok {
		t.Error("occi_backend_errors_total metric not found")
	}
}

func TestRequestsInFlight(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewWithRegistry(reg)

	m.RequestsInFlight.Inc()
	m.RequestsInFlight.Inc()
	m.RequestsInFlight.Dec()

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather error: %v", err)
	}

	found := false
	for _, f := range families {
		if f.GetName() == "occi_requests_in_flight" {
			found = true
			val := f.GetMetric()[0].GetGauge().GetValue()
			if val != 1 {
				t.Errorf("expected value 1, got %f", val)
			}
		}
	}
	if !found {
		t.Error("occi_requests_in_flight metric not found")
	}
}

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"/v1/entities", "/v1/entities"},
		{"/v1/entities/net-1", "/v1/entities/:id"},
		{"/v1/entities/net-1/actions", "/v1/entities/:id/actions"},
		{"/v1/entities/net-1/relationships/mixins", "/v1/entities/:id/relationships/mixins"},
		{"/v1/entities/exists", "/v1/entities/exists"},
		{"/v1/catalogue", "/v1/catalogue"},
		{"/short", "/short"},
	}

	for _, tt := range tests {
		result := metrics.NormalizePath(tt.input)
		if result != tt.expected {
			t.Errorf("NormalizePath(%s) = %s, want %s", tt.input, result, tt.expected)
		}
	}

	// Long paths are truncated
	longPath := "/very/long/path/that/exceeds/fifty/characters/in/total/length"
	result := metrics.NormalizePath(longPath)
	if len(result) > 53 { // 50 chars + "..."
		t.Errorf("NormalizePath should truncate long paths, got len=%d", len(result))
	}
	if result[len(result)-3:] != "..." {
		t.Errorf("truncated path should end with '...', got %s", result)
	}
}
