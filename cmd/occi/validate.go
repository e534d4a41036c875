package main

import (
	"context"
	"fmt"
	"os"
	"time"

	occihttp "github.com/artpar/occi/adapters/http"
	"github.com/artpar/occi/adapters/sqlite"
	"github.com/artpar/occi/config"
	"github.com/artpar/occi/core/category"
	"github.com/artpar/occi/core/registry"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration before deployment",
	Long: `Validate the OCCI configuration file.

Checks:
  - YAML syntax is valid
  - Required fields are present
  - Catalogue extension files parse and resolve (optional)
  - Backend is reachable (optional)

Examples:
  occi validate
  occi validate --config /etc/occi/config.yaml --check-catalogue`,
	RunE: runValidate,
}

var (
	validateCheckBackend   bool
	validateCheckCatalogue bool
)

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().BoolVar(&validateCheckBackend, "check-backend", false, "check if the backend is reachable")
	validateCmd.Flags().BoolVar(&validateCheckCatalogue, "check-catalogue", false, "check that catalogue files parse and resolve")
}

func runValidate(cmd *cobra.Command, args []string) error {
	fmt.Printf("Validating %s...\n\n", cfgFile)

	// Check file exists
	if _, err := os.Stat(cfgFile); os.IsNotExist(err) {
		fmt.Printf("  %s Config file exists\n", crossMark)
		return fmt.Errorf("config file not found: %s", cfgFile)
	}
	fmt.Printf("  %s Config file exists\n", checkMark)

	// Load and validate config
	cfg, err := config.Load(cfgFile)
	if err != nil {
		fmt.Printf("  %s Config syntax valid\n", crossMark)
		return fmt.Errorf("config error: %w", err)
	}
	fmt.Printf("  %s Config syntax valid\n", checkMark)

	// Show config summary
	switch cfg.Backend.Mode {
	case "remote":
		fmt.Printf("  %s Backend: remote (%s)\n", checkMark, cfg.Backend.Remote.URL)
	case "sqlite":
		fmt.Printf("  %s Backend: sqlite (%s)\n", checkMark, cfg.Backend.DSN)
	default:
		fmt.Printf("  %s Backend: %s\n", checkMark, cfg.Backend.Mode)
	}
	if len(cfg.Catalogue.Files) > 0 {
		fmt.Printf("  %s Catalogue files: %d\n", checkMark, len(cfg.Catalogue.Files))
	} else {
		fmt.Printf("  %s Catalogue: built-ins only\n", checkMark)
	}
	if cfg.Auth.Enabled {
		fmt.Printf("  %s Auth: enabled for %s\n", checkMark, cfg.Auth.Username)
	} else {
		fmt.Printf("  %s Auth: disabled\n", checkMark)
	}
	fmt.Printf("  %s Metrics: %v\n", checkMark, cfg.Metrics.Enabled)

	// Optional: check catalogue files
	if validateCheckCatalogue {
		reg := registry.New()
		builtin, err := category.Builtin()
		if err == nil {
			err = registerDocument(reg, builtin)
		}
		if err != nil {
			fmt.Printf("  %s Built-in catalogue loads\n", crossMark)
			return fmt.Errorf("builtin catalogue: %w", err)
		}
		for _, file := range cfg.Catalogue.Files {
			if err := checkCatalogueFile(reg, file); err != nil {
				fmt.Printf("  %s Catalogue file %s resolves\n", crossMark, file)
				fmt.Printf("      Error: %v\n", err)
			} else {
				fmt.Printf("  %s Catalogue file %s resolves\n", checkMark, file)
			}
		}
	}

	// Optional: check backend
	if validateCheckBackend {
		if err := checkBackendReachable(cfg); err != nil {
			fmt.Printf("  %s Backend reachable\n", crossMark)
			fmt.Printf("      Error: %v\n", err)
		} else {
			fmt.Printf("  %s Backend reachable\n", checkMark)
		}
	}

	fmt.Println()
	fmt.Println("Configuration is valid.")
	return nil
}

func checkCatalogueFile(reg *registry.Registry, path string) error {
	doc, err := category.ParseFile(path)
	if err != nil {
		return err
	}
	return registerDocument(reg, doc)
}

func registerDocument(reg *registry.Registry, doc *category.Document) error {
	kinds, mixins, err := doc.Resolve(reg)
	if err != nil {
		return err
	}
	for _, k := range kinds {
		if err := reg.Register(k); err != nil {
			return err
		}
	}
	for _, m := range mixins {
		if err := reg.Register(m); err != nil {
			return err
		}
	}
	return nil
}

func checkBackendReachable(cfg *config.Config) error {
	switch cfg.Backend.Mode {
	case "sqlite":
		db, err := sqlite.Open(cfg.Backend.DSN)
		if err != nil {
			return err
		}
		defer db.Close()
		return nil
	case "remote":
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		client, err := occihttp.NewClient(occihttp.ClientConfig{
			BaseURL:  cfg.Backend.Remote.URL,
			Timeout:  5 * time.Second,
			Username: cfg.Backend.Remote.Username,
			Password: cfg.Backend.Remote.Password,
		})
		if err != nil {
			return err
		}
		defer client.Close()
		return client.HealthCheck(ctx)
	default:
		// The in-memory backend lives inside the server process.
		return nil
	}
}

const (
	checkMark = "\033[32m✓\033[0m"
	crossMark = "\033[31m✗\033[0m"
)
