package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/artpar/occi/config"
)

func TestLoad_ValidConfig(t *testing.T) {
	content := `
server:
  host: "127.0.0.1"
  port: 9090

backend:
  mode: "sqlite"
  dsn: ":memory:"

catalogue:
  files:
    - "extensions/platform.yaml"
  skip_builtins: true

logging:
  level: "debug"
  format: "console"
`

	cfg := writeAndLoad(t, content)

	if cfg.Server.Host != "127.0.0.1" {
		t.Errorf("Host = %s, want 127.0.0.1", cfg.Server.Host)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Backend.Mode != "sqlite" {
		t.Errorf("Backend.Mode = %s, want sqlite", cfg.Backend.Mode)
	}
	if cfg.Backend.DSN != ":memory:" {
		t.Errorf("Backend.DSN = %s, want :memory:", cfg.Backend.DSN)
	}
	if len(cfg.Catalogue.Files) != 1 || cfg.Catalogue.Files[0] != "extensions/platform.yaml" {
		t.Errorf("Catalogue.Files = %v, want [extensions/platform.yaml]", cfg.Catalogue.Files)
	}
	if !cfg.Catalogue.SkipBuiltins {
		t.Error("Catalogue.SkipBuiltins = false, want true")
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %s, want debug", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "console" {
		t.Errorf("Logging.Format = %s, want console", cfg.Logging.Format)
	}
}

func TestLoad_Defaults(t *testing.T) {
	content := `
server:
  port: 9090
`

	cfg := writeAndLoad(t, content)

	// Check defaults
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("default Host = %s, want 0.0.0.0", cfg.Server.Host)
	}
	if cfg.Server.ReadTimeout != 30*time.Second {
		t.Errorf("default ReadTimeout = %v, want 30s", cfg.Server.ReadTimeout)
	}
	if cfg.Server.WriteTimeout != 60*time.Second {
		t.Errorf("default WriteTimeout = %v, want 60s", cfg.Server.WriteTimeout)
	}
	if cfg.Backend.Mode != "memory" {
		t.Errorf("default Backend.Mode = %s, want memory", cfg.Backend.Mode)
	}
	if cfg.Backend.DSN != "occi.db" {
		t.Errorf("default Backend.DSN = %s, want occi.db", cfg.Backend.DSN)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("default Logging.Level = %s, want info", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("default Logging.Format = %s, want json", cfg.Logging.Format)
	}
}

func TestLoad_EnvExpansion(t *testing.T) {
	os.Setenv("TEST_OCCI_DSN", "/tmp/expanded.db")
	defer os.Unsetenv("TEST_OCCI_DSN")

	content := `
backend:
  mode: "sqlite"
  dsn: "${TEST_OCCI_DSN}"
`

	cfg := writeAndLoad(t, content)

	if cfg.Backend.DSN != "/tmp/expanded.db" {
		t.Errorf("Backend.DSN = %s, want /tmp/expanded.db", cfg.Backend.DSN)
	}
}

func TestLoad_RemoteBackend(t *testing.T) {
	content := `
backend:
  mode: "remote"
  remote:
    url: "https://occi.example.com"
    username: "admin"
    password: "secret123"
    timeout: 5s
`

	cfg := writeAndLoad(t, content)

	if cfg.Backend.Mode != "remote" {
		t.Errorf("Backend.Mode = %s, want remote", cfg.Backend.Mode)
	}
	if cfg.Backend.Remote.URL != "https://occi.example.com" {
		t.Errorf("Backend.Remote.URL = %s, want https://occi.example.com", cfg.Backend.Remote.URL)
	}
	if cfg.Backend.Remote.Username != "admin" {
		t.Errorf("Backend.Remote.Username = %s, want admin", cfg.Backend.Remote.Username)
	}
	if cfg.Backend.Remote.Password != "secret123" {
		t.Errorf("Backend.Remote.Password = %s, want secret123", cfg.Backend.Remote.Password)
	}
	if cfg.Backend.Remote.Timeout != 5*time.Second {
		t.Errorf("Backend.Remote.Timeout = %v, want 5s", cfg.Backend.Remote.Timeout)
	}
}

func TestLoad_RemoteBackendMissingURL(t *testing.T) {
	content := `
backend:
  mode: "remote"
`

	_, err := writeAndLoadErr(t, content)
	if err == nil {
		t.Fatal("expected error for remote backend without URL")
	}
}

func TestLoad_InvalidBackendMode(t *testing.T) {
	content := `
backend:
  mode: "postgres"
`

	_, err := writeAndLoadErr(t, content)
	if err == nil {
		t.Fatal("expected error for invalid backend.mode")
	}
}

func TestLoad_ValidBackendModes(t *testing.T) {
	modes := []string{"memory", "sqlite"}
	for _, mode := range modes {
		content := `
backend:
  mode: "` + mode + `"
`
		cfg, err := writeAndLoadErr(t, content)
		if err != nil {
			t.Errorf("backend mode %q should be valid, got error: %v", mode, err)
			continue
		}
		if cfg.Backend.Mode != mode {
			t.Errorf("Backend.Mode = %s, want %s", cfg.Backend.Mode, mode)
		}
	}
}

func TestLoad_Transitions(t *testing.T) {
	content := `
backend:
  mode: "memory"
  transitions:
    reboot: "active"
    hibernate: "suspended"
`

	cfg := writeAndLoad(t, content)

	if len(cfg.Backend.Transitions) != 2 {
		t.Fatalf("len(Transitions) = %d, want 2", len(cfg.Backend.Transitions))
	}
	if cfg.Backend.Transitions["reboot"] != "active" {
		t.Errorf("Transitions[reboot] = %s, want active", cfg.Backend.Transitions["reboot"])
	}
	if cfg.Backend.Transitions["hibernate"] != "suspended" {
		t.Errorf("Transitions[hibernate] = %s, want suspended", cfg.Backend.Transitions["hibernate"])
	}
}

func TestLoad_FromBackendRequiresRemote(t *testing.T) {
	content := `
backend:
  mode: "memory"

catalogue:
  from_backend: true
`

	_, err := writeAndLoadErr(t, content)
	if err == nil {
		t.Fatal("expected error for from_backend without remote backend")
	}
}

func TestLoad_FromBackendWithRemote(t *testing.T) {
	content := `
backend:
  mode: "remote"
  remote:
    url: "https://occi.example.com"

catalogue:
  from_backend: true
`

	cfg := writeAndLoad(t, content)

	if !cfg.Catalogue.FromBackend {
		t.Error("Catalogue.FromBackend = false, want true")
	}
}

func TestLoad_AuthSection(t *testing.T) {
	content := `
auth:
  enabled: true
  username: "admin"
  password: "secret"
`

	cfg := writeAndLoad(t, content)

	if !cfg.Auth.Enabled {
		t.Error("Auth.Enabled = false, want true")
	}
	if cfg.Auth.Username != "admin" {
		t.Errorf("Auth.Username = %s, want admin", cfg.Auth.Username)
	}
	if cfg.Auth.Password != "secret" {
		t.Errorf("Auth.Password = %s, want secret", cfg.Auth.Password)
	}
}

func TestLoad_AuthPasswordHash(t *testing.T) {
	content := `
auth:
  enabled: true
  username: "admin"
  password_hash: "$2a$10$abcdefghijklmnopqrstuv"
`

	cfg := writeAndLoad(t, content)

	if cfg.Auth.PasswordHash != "$2a$10$abcdefghijklmnopqrstuv" {
		t.Errorf("Auth.PasswordHash = %s, want hash", cfg.Auth.PasswordHash)
	}
}

func TestLoad_AuthMissingUsername(t *testing.T) {
	content := `
auth:
  enabled: true
  password: "secret"
`

	_, err := writeAndLoadErr(t, content)
	if err == nil {
		t.Fatal("expected error for enabled auth without username")
	}
}

func TestLoad_AuthMissingPassword(t *testing.T) {
	content := `
auth:
  enabled: true
  username: "admin"
`

	_, err := writeAndLoadErr(t, content)
	if err == nil {
		t.Fatal("expected error for enabled auth without password")
	}
}

func TestLoad_AuthDisabledNeedsNothing(t *testing.T) {
	content := `
auth:
  enabled: false
`

	cfg := writeAndLoad(t, content)

	if cfg.Auth.Enabled {
		t.Error("Auth.Enabled = true, want false")
	}
}

func TestLoad_InvalidLogLevel(t *testing.T) {
	content := `
logging:
  level: "verbose"
`

	_, err := writeAndLoadErr(t, content)
	if err == nil {
		t.Fatal("expected error for invalid logging.level")
	}
}

func TestLoadFromEnv(t *testing.T) {
	os.Setenv("OCCI_BACKEND_MODE", "sqlite")
	os.Setenv("OCCI_BACKEND_DSN", "/tmp/env-test.db")
	os.Setenv("OCCI_SERVER_PORT", "9999")
	os.Setenv("OCCI_LOG_LEVEL", "debug")
	os.Setenv("OCCI_METRICS_ENABLED", "true")
	defer func() {
		os.Unsetenv("OCCI_BACKEND_MODE")
		os.Unsetenv("OCCI_BACKEND_DSN")
		os.Unsetenv("OCCI_SERVER_PORT")
		os.Unsetenv("OCCI_LOG_LEVEL")
		os.Unsetenv("OCCI_METRICS_ENABLED")
	}()

	cfg, err := config.LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv error: %v", err)
	}

	if cfg.Backend.Mode != "sqlite" {
		t.Errorf("Backend.Mode = %s, want sqlite", cfg.Backend.Mode)
	}
	if cfg.Backend.DSN != "/tmp/env-test.db" {
		t.Errorf("Backend.DSN = %s, want /tmp/env-test.db", cfg.Backend.DSN)
	}
	if cfg.Server.Port != 9999 {
		t.Errorf("Server.Port = %d, want 9999", cfg.Server.Port)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %s, want debug", cfg.Logging.Level)
	}
	if !cfg.Metrics.Enabled {
		t.Error("Metrics.Enabled = false, want true")
	}
}

func TestLoadFromEnv_Defaults(t *testing.T) {
	os.Unsetenv("OCCI_BACKEND_MODE")
	os.Unsetenv("OCCI_SERVER_PORT")

	cfg, err := config.LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv error: %v", err)
	}

	if cfg.Backend.Mode != "memory" {
		t.Errorf("Backend.Mode = %s, want memory", cfg.Backend.Mode)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	os.Setenv("OCCI_SERVER_PORT", "7777")
	os.Setenv("OCCI_LOG_LEVEL", "error")
	defer func() {
		os.Unsetenv("OCCI_SERVER_PORT")
		os.Unsetenv("OCCI_LOG_LEVEL")
	}()

	content := `
server:
  port: 8080

backend:
  mode: "sqlite"
  dsn: "file-config.db"

logging:
  level: "info"
`

	cfg := writeAndLoad(t, content)

	// Env should override file
	if cfg.Server.Port != 7777 {
		t.Errorf("Server.Port = %d, want 7777 (env override)", cfg.Server.Port)
	}
	if cfg.Logging.Level != "error" {
		t.Errorf("Logging.Level = %s, want error (env override)", cfg.Logging.Level)
	}
	// File value should still be used for non-overridden
	if cfg.Backend.DSN != "file-config.db" {
		t.Errorf("Backend.DSN = %s, want file-config.db", cfg.Backend.DSN)
	}
}

func TestEnvOverrides_AllServerSettings(t *testing.T) {
	os.Setenv("OCCI_SERVER_HOST", "192.168.1.1")
	os.Setenv("OCCI_SERVER_PORT", "3000")
	os.Setenv("OCCI_SERVER_READ_TIMEOUT", "45s")
	os.Setenv("OCCI_SERVER_WRITE_TIMEOUT", "90s")
	defer func() {
		os.Unsetenv("OCCI_SERVER_HOST")
		os.Unsetenv("OCCI_SERVER_PORT")
		os.Unsetenv("OCCI_SERVER_READ_TIMEOUT")
		os.Unsetenv("OCCI_SERVER_WRITE_TIMEOUT")
	}()

	cfg, err := config.LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv error: %v", err)
	}

	if cfg.Server.Host != "192.168.1.1" {
		t.Errorf("Server.Host = %s, want 192.168.1.1", cfg.Server.Host)
	}
	if cfg.Server.Port != 3000 {
		t.Errorf("Server.Port = %d, want 3000", cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout != 45*time.Second {
		t.Errorf("Server.ReadTimeout = %v, want 45s", cfg.Server.ReadTimeout)
	}
	if cfg.Server.WriteTimeout != 90*time.Second {
		t.Errorf("Server.WriteTimeout = %v, want 90s", cfg.Server.WriteTimeout)
	}
}

func TestEnvOverrides_RemoteSettings(t *testing.T) {
	os.Setenv("OCCI_BACKEND_MODE", "remote")
	os.Setenv("OCCI_BACKEND_REMOTE_URL", "https://occi.example.com")
	os.Setenv("OCCI_BACKEND_REMOTE_USERNAME", "svc")
	os.Setenv("OCCI_BACKEND_REMOTE_PASSWORD", "hunter2")
	os.Setenv("OCCI_BACKEND_REMOTE_TIMEOUT", "120s")
	defer func() {
		os.Unsetenv("OCCI_BACKEND_MODE")
		os.Unsetenv("OCCI_BACKEND_REMOTE_URL")
		os.Unsetenv("OCCI_BACKEND_REMOTE_USERNAME")
		os.Unsetenv("OCCI_BACKEND_REMOTE_PASSWORD")
		os.Unsetenv("OCCI_BACKEND_REMOTE_TIMEOUT")
	}()

	cfg, err := config.LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv error: %v", err)
	}

	if cfg.Backend.Remote.URL != "https://occi.example.com" {
		t.Errorf("Backend.Remote.URL = %s, want https://occi.example.com", cfg.Backend.Remote.URL)
	}
	if cfg.Backend.Remote.Username != "svc" {
		t.Errorf("Backend.Remote.Username = %s, want svc", cfg.Backend.Remote.Username)
	}
	if cfg.Backend.Remote.Password != "hunter2" {
		t.Errorf("Backend.Remote.Password = %s, want hunter2", cfg.Backend.Remote.Password)
	}
	if cfg.Backend.Remote.Timeout != 120*time.Second {
		t.Errorf("Backend.Remote.Timeout = %v, want 120s", cfg.Backend.Remote.Timeout)
	}
}

func TestEnvOverrides_CatalogueFiles(t *testing.T) {
	os.Setenv("OCCI_CATALOGUE_FILES", "a.yaml, b.yaml ,c.json")
	os.Setenv("OCCI_CATALOGUE_SKIP_BUILTINS", "yes")
	defer func() {
		os.Unsetenv("OCCI_CATALOGUE_FILES")
		os.Unsetenv("OCCI_CATALOGUE_SKIP_BUILTINS")
	}()

	cfg, err := config.LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv error: %v", err)
	}

	want := []string{"a.yaml", "b.yaml", "c.json"}
	if len(cfg.Catalogue.Files) != len(want) {
		t.Fatalf("len(Catalogue.Files) = %d, want %d", len(cfg.Catalogue.Files), len(want))
	}
	for i, f := range want {
		if cfg.Catalogue.Files[i] != f {
			t.Errorf("Catalogue.Files[%d] = %s, want %s", i, cfg.Catalogue.Files[i], f)
		}
	}
	if !cfg.Catalogue.SkipBuiltins {
		t.Error("Catalogue.SkipBuiltins = false, want true")
	}
}

func TestEnvOverrides_AuthSettings(t *testing.T) {
	os.Setenv("OCCI_AUTH_ENABLED", "true")
	os.Setenv("OCCI_AUTH_USERNAME", "ops")
	os.Setenv("OCCI_AUTH_PASSWORD", "letmein")
	defer func() {
		os.Unsetenv("OCCI_AUTH_ENABLED")
		os.Unsetenv("OCCI_AUTH_USERNAME")
		os.Unsetenv("OCCI_AUTH_PASSWORD")
	}()

	cfg, err := config.LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv error: %v", err)
	}

	if !cfg.Auth.Enabled {
		t.Error("Auth.Enabled = false, want true")
	}
	if cfg.Auth.Username != "ops" {
		t.Errorf("Auth.Username = %s, want ops", cfg.Auth.Username)
	}
	if cfg.Auth.Password != "letmein" {
		t.Errorf("Auth.Password = %s, want letmein", cfg.Auth.Password)
	}
}

func TestEnvOverrides_InvalidPort(t *testing.T) {
	os.Setenv("OCCI_SERVER_PORT", "not-a-number")
	defer os.Unsetenv("OCCI_SERVER_PORT")

	cfg, err := config.LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv error: %v", err)
	}

	// Should use default port when env var is invalid
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080 (default)", cfg.Server.Port)
	}
}

func TestEnvOverrides_InvalidDuration(t *testing.T) {
	os.Setenv("OCCI_SERVER_READ_TIMEOUT", "not-a-duration")
	defer os.Unsetenv("OCCI_SERVER_READ_TIMEOUT")

	cfg, err := config.LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv error: %v", err)
	}

	// Should use default when env var is invalid
	if cfg.Server.ReadTimeout != 30*time.Second {
		t.Errorf("Server.ReadTimeout = %v, want 30s (default)", cfg.Server.ReadTimeout)
	}
}

func TestLoadWithFallback_FileExists(t *testing.T) {
	content := `
backend:
  mode: "sqlite"
  dsn: "file-config.db"
`

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := config.LoadWithFallback(path)
	if err != nil {
		t.Fatalf("LoadWithFallback error: %v", err)
	}

	if cfg.Backend.DSN != "file-config.db" {
		t.Errorf("Backend.DSN = %s, want file-config.db", cfg.Backend.DSN)
	}
}

func TestLoadWithFallback_EnvOnly(t *testing.T) {
	os.Setenv("OCCI_BACKEND_DSN", "/tmp/env-fallback.db")
	defer os.Unsetenv("OCCI_BACKEND_DSN")

	cfg, err := config.LoadWithFallback("/nonexistent/config.yaml")
	if err != nil {
		t.Fatalf("LoadWithFallback error: %v", err)
	}

	if cfg.Backend.DSN != "/tmp/env-fallback.db" {
		t.Errorf("Backend.DSN = %s, want /tmp/env-fallback.db", cfg.Backend.DSN)
	}
}

func TestLoadWithFallback_EmptyPath(t *testing.T) {
	os.Unsetenv("OCCI_BACKEND_MODE")

	cfg, err := config.LoadWithFallback("")
	if err != nil {
		t.Fatalf("LoadWithFallback error: %v", err)
	}

	// Defaults describe a runnable in-memory server
	if cfg.Backend.Mode != "memory" {
		t.Errorf("Backend.Mode = %s, want memory", cfg.Backend.Mode)
	}
}

func TestParseBoolValues(t *testing.T) {
	tests := []struct {
		value    string
		expected bool
	}{
		{"true", true},
		{"TRUE", true},
		{"True", true},
		{"1", true},
		{"yes", true},
		{"YES", true},
		{"on", true},
		{"false", false},
		{"FALSE", false},
		{"0", false},
		{"no", false},
		{"off", false},
		{"invalid", false},
	}

	for _, tt := range tests {
		os.Setenv("OCCI_METRICS_ENABLED", tt.value)

		cfg, err := config.LoadFromEnv()
		if err != nil {
			t.Fatalf("LoadFromEnv error: %v", err)
		}

		if cfg.Metrics.Enabled != tt.expected {
			t.Errorf("value=%q: Metrics.Enabled = %v, want %v", tt.value, cfg.Metrics.Enabled, tt.expected)
		}

		os.Unsetenv("OCCI_METRICS_ENABLED")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	content := `
backend:
  mode: "memory"
  this is not valid yaml: [
`
	_, err := writeAndLoadErr(t, content)
	if err == nil {
		t.Fatal("expected error for invalid YAML")
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	_, err := config.Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Fatal("expected error for nonexistent file")
	}
}

// Helpers

func writeAndLoad(t *testing.T, content string) *config.Config {
	t.Helper()
	cfg, err := writeAndLoadErr(t, content)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	return cfg
}

func writeAndLoadErr(t *testing.T, content string) (*config.Config, error) {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	return config.Load(path)
}
