// Package config provides configuration loading and validation.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Backend   BackendConfig   `yaml:"backend"`
	Catalogue CatalogueConfig `yaml:"catalogue"`
	Auth      AuthConfig      `yaml:"auth"`
	Logging   LoggingConfig   `yaml:"logging"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	OpenAPI   OpenAPIConfig   `yaml:"openapi"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// BackendConfig selects the store that holds entity records.
// Use "memory" for an in-process store, "sqlite" for a local database,
// or "remote" to delegate to another server's API.
type BackendConfig struct {
	Mode string `yaml:"mode"` // "memory", "sqlite" or "remote"
	DSN  string `yaml:"dsn"`  // sqlite data source name
	// Transitions adds action term -> resulting state mappings on top of
	// the built-in ones (memory backend only).
	Transitions map[string]string `yaml:"transitions,omitempty"`
	Remote      RemoteConfig      `yaml:"remote,omitempty"`
}

// RemoteConfig configures a remote backend endpoint.
type RemoteConfig struct {
	URL      string        `yaml:"url"`
	Username string        `yaml:"username,omitempty"`
	Password string        `yaml:"password,omitempty"`
	Timeout  time.Duration `yaml:"timeout,omitempty"`
}

// CatalogueConfig configures the category definitions loaded at startup.
type CatalogueConfig struct {
	Files        []string `yaml:"files,omitempty"`         // extension documents (YAML or JSON)
	SkipBuiltins bool     `yaml:"skip_builtins,omitempty"` // start from an empty registry
	Watch        bool     `yaml:"watch,omitempty"`         // reload when a file changes
	FromBackend  bool     `yaml:"from_backend,omitempty"`  // mirror the remote backend's catalogue
}

// AuthConfig configures HTTP basic authentication for the API.
// Health and metrics endpoints are always left open.
type AuthConfig struct {
	Enabled      bool   `yaml:"enabled"`
	Username     string `yaml:"username,omitempty"`
	Password     string `yaml:"password,omitempty"`      // plaintext, hashed at startup
	PasswordHash string `yaml:"password_hash,omitempty"` // bcrypt hash, takes precedence
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "console"
}

// MetricsConfig configures Prometheus metrics.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"` // Enable /metrics endpoint
}

// OpenAPIConfig configures OpenAPI/Swagger documentation.
type OpenAPIConfig struct {
	Enabled bool `yaml:"enabled"` // Enable OpenAPI endpoints
}

// Load reads configuration from a YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Expand environment variables
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// Apply environment variable overrides
	applyEnvOverrides(&cfg)

	setDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// LoadFromEnv creates configuration entirely from environment variables.
// This is useful for Docker deployments where no config file is needed.
//
// Environment variables:
//
//	OCCI_BACKEND_MODE         - Store mode: memory, sqlite or remote (default: memory)
//	OCCI_BACKEND_DSN          - SQLite database path (default: occi.db)
//	OCCI_BACKEND_REMOTE_URL   - Remote server URL (required when mode is remote)
//	OCCI_SERVER_HOST          - Server host (default: 0.0.0.0)
//	OCCI_SERVER_PORT          - Server port (default: 8080)
//	OCCI_CATALOGUE_FILES      - Comma-separated category documents to load
//	OCCI_AUTH_ENABLED         - Require basic auth on the API (default: false)
//	OCCI_LOG_LEVEL            - Log level: debug, info, warn, error (default: info)
//	OCCI_LOG_FORMAT           - Log format: json or console (default: json)
//	OCCI_METRICS_ENABLED      - Enable /metrics endpoint (default: false)
//	OCCI_OPENAPI_ENABLED      - Enable OpenAPI/Swagger (default: false)
func LoadFromEnv() (*Config, error) {
	var cfg Config

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// LoadWithFallback tries to load from file, falls back to environment
// variables. A missing file is not fatal: the defaults describe a runnable
// in-memory server, so the fallback always produces a configuration.
func LoadWithFallback(path string) (*Config, error) {
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}
	}

	return LoadFromEnv()
}

// applyEnvOverrides applies OCCI_* environment variables to the config.
// Environment variables always override file-based configuration.
func applyEnvOverrides(cfg *Config) {
	// Server configuration
	if v := os.Getenv("OCCI_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("OCCI_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("OCCI_SERVER_READ_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Server.ReadTimeout = d
		}
	}
	if v := os.Getenv("OCCI_SERVER_WRITE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Server.WriteTimeout = d
		}
	}

	// Backend configuration
	if v := os.Getenv("OCCI_BACKEND_MODE"); v != "" {
		cfg.Backend.Mode = v
	}
	if v := os.Getenv("OCCI_BACKEND_DSN"); v != "" {
		cfg.Backend.DSN = v
	}
	if v := os.Getenv("OCCI_BACKEND_REMOTE_URL"); v != "" {
		cfg.Backend.Remote.URL = v
	}
	if v := os.Getenv("OCCI_BACKEND_REMOTE_USERNAME"); v != "" {
		cfg.Backend.Remote.Username = v
	}
	if v := os.Getenv("OCCI_BACKEND_REMOTE_PASSWORD"); v != "" {
		cfg.Backend.Remote.Password = v
	}
	if v := os.Getenv("OCCI_BACKEND_REMOTE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Backend.Remote.Timeout = d
		}
	}

	// Catalogue configuration
	if v := os.Getenv("OCCI_CATALOGUE_FILES"); v != "" {
		var files []string
		for _, f := range strings.Split(v, ",") {
			if f = strings.TrimSpace(f); f != "" {
				files = append(files, f)
			}
		}
		cfg.Catalogue.Files = files
	}
	if v := os.Getenv("OCCI_CATALOGUE_SKIP_BUILTINS"); v != "" {
		cfg.Catalogue.SkipBuiltins = parseBool(v)
	}
	if v := os.Getenv("OCCI_CATALOGUE_WATCH"); v != "" {
		cfg.Catalogue.Watch = parseBool(v)
	}
	if v := os.Getenv("OCCI_CATALOGUE_FROM_BACKEND"); v != "" {
		cfg.Catalogue.FromBackend = parseBool(v)
	}

	// Auth configuration
	if v := os.Getenv("OCCI_AUTH_ENABLED"); v != "" {
		cfg.Auth.Enabled = parseBool(v)
	}
	if v := os.Getenv("OCCI_AUTH_USERNAME"); v != "" {
		cfg.Auth.Username = v
	}
	if v := os.Getenv("OCCI_AUTH_PASSWORD"); v != "" {
		cfg.Auth.Password = v
	}
	if v := os.Getenv("OCCI_AUTH_PASSWORD_HASH"); v != "" {
		cfg.Auth.PasswordHash = v
	}

	// Logging configuration
	if v := os.Getenv("OCCI_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("OCCI_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}

	// Metrics configuration
	if v := os.Getenv("OCCI_METRICS_ENABLED"); v != "" {
		cfg.Metrics.Enabled = parseBool(v)
	}

	// OpenAPI configuration
	if v := os.Getenv("OCCI_OPENAPI_ENABLED"); v != "" {
		cfg.OpenAPI.Enabled = parseBool(v)
	}
}

// parseBool parses a boolean from common string values.
func parseBool(v string) bool {
	v = strings.ToLower(strings.TrimSpace(v))
	return v == "true" || v == "1" || v == "yes" || v == "on"
}

func setDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 30 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 60 * time.Second
	}

	if cfg.Backend.Mode == "" {
		cfg.Backend.Mode = "memory"
	}
	if cfg.Backend.DSN == "" {
		cfg.Backend.DSN = "occi.db"
	}
	if cfg.Backend.Remote.Timeout == 0 {
		cfg.Backend.Remote.Timeout = 30 * time.Second
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}

func validate(cfg *Config) error {
	validBackendModes := map[string]bool{"memory": true, "sqlite": true, "remote": true}
	if !validBackendModes[cfg.Backend.Mode] {
		return fmt.Errorf("backend.mode must be 'memory', 'sqlite' or 'remote', got %q", cfg.Backend.Mode)
	}
	if cfg.Backend.Mode == "remote" && cfg.Backend.Remote.URL == "" {
		return fmt.Errorf("backend.remote.url is required when backend.mode is 'remote'")
	}
	if cfg.Catalogue.FromBackend && cfg.Backend.Mode != "remote" {
		return fmt.Errorf("catalogue.from_backend requires backend.mode 'remote'")
	}

	if cfg.Auth.Enabled {
		if cfg.Auth.Username == "" {
			return fmt.Errorf("auth.username is required when auth is enabled")
		}
		if cfg.Auth.Password == "" && cfg.Auth.PasswordHash == "" {
			return fmt.Errorf("auth.password or auth.password_hash is required when auth is enabled")
		}
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[cfg.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}

	return nil
}
