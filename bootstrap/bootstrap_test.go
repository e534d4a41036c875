package bootstrap_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/artpar/occi/adapters/metrics"
	"github.com/artpar/occi/app"
	"github.com/artpar/occi/bootstrap"
	"github.com/artpar/occi/config"
	"github.com/artpar/occi/core/category"
	"github.com/prometheus/client_golang/prometheus"
)

const kindCompute = "http://schemas.ogf.org/occi/infrastructure#compute"

func mustIdentifier(t *testing.T, s string) category.Identifier {
	t.Helper()
	id, err := category.ParseIdentifier(s)
	if err != nil {
		t.Fatalf("parse identifier %q: %v", s, err)
	}
	return id
}

func newApp(t *testing.T, cfg *config.Config) *bootstrap.App {
	t.Helper()

	a, err := bootstrap.NewWithOptions(cfg, bootstrap.Options{
		Metrics: metrics.NewWithRegistry(prometheus.NewRegistry()),
	})
	if err != nil {
		t.Fatalf("create app: %v", err)
	}
	t.Cleanup(func() { a.Shutdown() })
	return a
}

func baseConfig() *config.Config {
	return &config.Config{
		Server:  config.ServerConfig{Host: "127.0.0.1", Port: 0, ReadTimeout: 5 * time.Second, WriteTimeout: 5 * time.Second},
		Backend: config.BackendConfig{Mode: "memory"},
		Logging: config.LoggingConfig{Level: "error", Format: "json"},
	}
}

func TestBootstrap_MemoryBackend(t *testing.T) {
	a := newApp(t, baseConfig())

	if a.HTTPServer == nil {
		t.Error("HTTPServer should not be nil")
	}
	if a.Catalogue == nil {
		t.Fatal("Catalogue should not be nil")
	}
	if a.Entities == nil {
		t.Fatal("Entities should not be nil")
	}

	// Builtin catalogue is registered
	if n := a.Catalogue.Registry().Len(); n == 0 {
		t.Error("registry is empty, want builtin definitions")
	}

	// The wiring accepts a create end to end
	inst, err := a.Entities.Create(context.Background(), app.CreateRequest{
		Kind: kindCompute,
		Attributes: map[string]any{
			"occi.compute.state": "active",
		},
	})
	if err != nil {
		t.Fatalf("create entity: %v", err)
	}
	if inst.Entity.ID() == "" {
		t.Error("created entity has empty id")
	}
}

func TestBootstrap_SQLiteBackend(t *testing.T) {
	dir := t.TempDir()
	dsn := filepath.Join(dir, "test.db")

	cfg := baseConfig()
	cfg.Backend = config.BackendConfig{Mode: "sqlite", DSN: dsn}

	a := newApp(t, cfg)

	inst, err := a.Entities.Create(context.Background(), app.CreateRequest{
		ID:   "vm-1",
		Kind: kindCompute,
		Attributes: map[string]any{
			"occi.compute.state": "active",
		},
	})
	if err != nil {
		t.Fatalf("create entity: %v", err)
	}
	if inst.Entity.ID() != "vm-1" {
		t.Errorf("id = %s, want vm-1", inst.Entity.ID())
	}

	got, err := a.Entities.Describe(context.Background(), "vm-1")
	if err != nil {
		t.Fatalf("describe entity: %v", err)
	}
	if got.Entity.ID() != "vm-1" {
		t.Errorf("describe id = %s, want vm-1", got.Entity.ID())
	}

	// Records survive a restart on the same database
	if err := a.Shutdown(); err != nil {
		t.Fatalf("shutdown: %v", err)
	}

	b := newApp(t, cfg)
	got, err = b.Entities.Describe(context.Background(), "vm-1")
	if err != nil {
		t.Fatalf("describe after restart: %v", err)
	}
	if got.Entity.ID() != "vm-1" {
		t.Errorf("restart describe id = %s, want vm-1", got.Entity.ID())
	}
}

func TestBootstrap_CatalogueFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "platform.yaml")
	content := `
kinds:
  - term: database
    scheme: "http://schemas.example.org/platform#"
    title: Managed database
    parent: "http://schemas.ogf.org/occi/core#resource"
    attributes:
      example.database.engine:
        type: string
        required: true
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write catalogue file: %v", err)
	}

	cfg := baseConfig()
	cfg.Catalogue.Files = []string{path}

	a := newApp(t, cfg)

	inst, err := a.Entities.Create(context.Background(), app.CreateRequest{
		Kind: "http://schemas.example.org/platform#database",
		Attributes: map[string]any{
			"example.database.engine": "postgres",
		},
	})
	if err != nil {
		t.Fatalf("create entity of file-defined kind: %v", err)
	}
	if got, _ := inst.Entity.Get("example.database.engine"); got != "postgres" {
		t.Errorf("engine = %v, want postgres", got)
	}
}

func TestBootstrap_CatalogueFileMissing(t *testing.T) {
	cfg := baseConfig()
	cfg.Catalogue.Files = []string{"/nonexistent/platform.yaml"}

	_, err := bootstrap.NewWithOptions(cfg, bootstrap.Options{
		Metrics: metrics.NewWithRegistry(prometheus.NewRegistry()),
	})
	if err == nil {
		t.Fatal("expected error for missing catalogue file")
	}
}

func TestBootstrap_UnknownBackendMode(t *testing.T) {
	cfg := baseConfig()
	cfg.Backend.Mode = "etcd"

	_, err := bootstrap.NewWithOptions(cfg, bootstrap.Options{
		Metrics: metrics.NewWithRegistry(prometheus.NewRegistry()),
	})
	if err == nil {
		t.Fatal("expected error for unknown backend mode")
	}
}

func TestBootstrap_BasicAuth(t *testing.T) {
	cfg := baseConfig()
	cfg.Auth = config.AuthConfig{Enabled: true, Username: "admin", Password: "secret"}

	a := newApp(t, cfg)

	// Unauthenticated request to /v1 is rejected
	req := httptest.NewRequest(http.MethodGet, "/v1/entities", nil)
	rec := httptest.NewRecorder()
	a.HTTPServer.Handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}

	// Credentialed request passes
	req = httptest.NewRequest(http.MethodGet, "/v1/entities", nil)
	req.SetBasicAuth("admin", "secret")
	rec = httptest.NewRecorder()
	a.HTTPServer.Handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	// Health stays open
	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	rec = httptest.NewRecorder()
	a.HTTPServer.Handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("health status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestBootstrap_MetricsEndpoint(t *testing.T) {
	cfg := baseConfig()
	cfg.Metrics.Enabled = true

	a := newApp(t, cfg)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	a.HTTPServer.Handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("metrics status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestBootstrap_CatalogueWatch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "platform.yaml")
	initial := `
mixins:
  - term: monitored
    scheme: "http://schemas.example.org/platform#"
`
	if err := os.WriteFile(path, []byte(initial), 0644); err != nil {
		t.Fatalf("write catalogue file: %v", err)
	}

	cfg := baseConfig()
	cfg.Catalogue.Files = []string{path}
	cfg.Catalogue.Watch = true

	a := newApp(t, cfg)

	// Add a second mixin and wait for the watcher to pick it up
	updated := initial + `
  - term: billed
    scheme: "http://schemas.example.org/platform#"
`
	if err := os.WriteFile(path, []byte(updated), 0644); err != nil {
		t.Fatalf("update catalogue file: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if _, err := a.Catalogue.Lookup(mustIdentifier(t, "http://schemas.example.org/platform#billed")); err == nil {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Error("watcher did not register the new mixin")
}

func TestBootstrap_GracefulShutdown(t *testing.T) {
	dir := t.TempDir()
	cfg := baseConfig()
	cfg.Backend = config.BackendConfig{Mode: "sqlite", DSN: filepath.Join(dir, "shutdown.db")}

	a, err := bootstrap.NewWithOptions(cfg, bootstrap.Options{
		Metrics: metrics.NewWithRegistry(prometheus.NewRegistry()),
	})
	if err != nil {
		t.Fatalf("create app: %v", err)
	}

	if err := a.Shutdown(); err != nil {
		t.Errorf("shutdown error: %v", err)
	}

	// A second shutdown is harmless
	if err := a.Shutdown(); err != nil {
		t.Errorf("second shutdown error: %v", err)
	}
}
