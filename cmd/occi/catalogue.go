package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/artpar/occi/adapters/clock"
	occihttp "github.com/artpar/occi/adapters/http"
	"github.com/artpar/occi/adapters/metrics"
	"github.com/artpar/occi/adapters/prompt"
	"github.com/artpar/occi/app"
	"github.com/artpar/occi/config"
	"github.com/artpar/occi/core/category"
	"github.com/artpar/occi/core/registry"
	"github.com/artpar/occi/core/render"
)

var catalogueCmd = &cobra.Command{
	Use:   "catalogue",
	Short: "Inspect and extend the category catalogue",
	Long: `Inspect and extend the category catalogue.

The catalogue holds every kind, mixin and action definition entities
are validated against. Definitions come from the built-in set, from
extension files listed in catalogue.files, and from documents
registered against a running server.

Examples:
  occi catalogue show --kinds
  occi catalogue check extensions/platform.yaml
  occi catalogue register extensions/platform.yaml --server http://localhost:8080
  occi catalogue export -o yaml`,
}

var catalogueShowCmd = &cobra.Command{
	Use:   "show",
	Short: "List registered definitions",
	RunE:  runCatalogueShow,
}

var catalogueCheckCmd = &cobra.Command{
	Use:   "check [file...]",
	Short: "Check that catalogue files parse and resolve",
	RunE:  runCatalogueCheck,
}

var catalogueRefreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Pull the server's published catalogue into the local registry",
	RunE:  runCatalogueRefresh,
}

var catalogueRegisterCmd = &cobra.Command{
	Use:   "register <file>",
	Short: "Register a definition file on a running server",
	Args:  cobra.ExactArgs(1),
	RunE:  runCatalogueRegister,
}

var catalogueUnregisterCmd = &cobra.Command{
	Use:   "unregister <identifier>",
	Short: "Remove a definition from a running server",
	Args:  cobra.ExactArgs(1),
	RunE:  runCatalogueUnregister,
}

var catalogueExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the catalogue as a definition document",
	RunE:  runCatalogueExport,
}

var (
	catalogueOutput string
	showKinds       bool
	showMixins      bool
	showActions     bool
	exportFormat    string
	exportFile      string
	unregisterForce bool
)

func init() {
	rootCmd.AddCommand(catalogueCmd)

	catalogueCmd.AddCommand(catalogueShowCmd)
	catalogueCmd.AddCommand(catalogueCheckCmd)
	catalogueCmd.AddCommand(catalogueRefreshCmd)
	catalogueCmd.AddCommand(catalogueRegisterCmd)
	catalogueCmd.AddCommand(catalogueUnregisterCmd)
	catalogueCmd.AddCommand(catalogueExportCmd)

	addClientFlags(catalogueCmd)

	catalogueShowCmd.Flags().StringVarP(&catalogueOutput, "output", "o", "table", "output format: table, json or yaml")
	catalogueShowCmd.Flags().BoolVar(&showKinds, "kinds", false, "show only kinds")
	catalogueShowCmd.Flags().BoolVar(&showMixins, "mixins", false, "show only mixins")
	catalogueShowCmd.Flags().BoolVar(&showActions, "actions", false, "show only actions")

	catalogueExportCmd.Flags().StringVarP(&exportFormat, "output", "o", "yaml", "document format: yaml or json")
	catalogueExportCmd.Flags().StringVar(&exportFile, "file", "", "write to a file instead of stdout")

	catalogueUnregisterCmd.Flags().BoolVar(&unregisterForce, "force", false, "skip confirmation")
}

func runCatalogueShow(cmd *cobra.Command, args []string) error {
	svc, err := loadCatalogue()
	if err != nil {
		return err
	}

	filter := registry.All
	switch {
	case showKinds:
		filter = registry.Kinds
	case showMixins:
		filter = registry.Mixins
	case showActions:
		filter = registry.Actions
	}

	f, err := formatterFor(catalogueOutput)
	if err != nil {
		return err
	}

	defs := svc.Definitions(filter)
	views := make([]render.CategoryView, 0, len(defs))
	for _, def := range defs {
		views = append(views, render.NewCategoryView(def))
	}
	return f.FormatCatalogue(os.Stdout, views, render.Options{})
}

func runCatalogueCheck(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadWithFallback(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	files := append(append([]string{}, cfg.Catalogue.Files...), args...)
	if len(files) == 0 {
		fmt.Println("No catalogue files to check.")
		fmt.Println()
		fmt.Println("Pass files as arguments or list them under catalogue.files in " + cfgFile)
		return nil
	}

	reg := registry.New()
	if !cfg.Catalogue.SkipBuiltins {
		builtin, err := category.Builtin()
		if err == nil {
			err = registerDocument(reg, builtin)
		}
		if err != nil {
			return fmt.Errorf("builtin catalogue: %w", err)
		}
	}

	failed := 0
	for _, file := range files {
		if err := checkCatalogueFile(reg, file); err != nil {
			fmt.Printf("  %s %s\n", crossMark, file)
			fmt.Printf("      Error: %v\n", err)
			failed++
		} else {
			fmt.Printf("  %s %s\n", checkMark, file)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(files))
	}

	fmt.Println()
	fmt.Println("Catalogue is consistent.")
	return nil
}

func runCatalogueRefresh(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadWithFallback(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	endpoint, user, pass, ok := remoteEndpoint(cfg)
	if !ok {
		return fmt.Errorf("refresh pulls definitions from a running server: pass --server or configure a remote backend")
	}

	svc, err := buildCatalogue(cfg)
	if err != nil {
		return err
	}
	before := len(svc.Definitions(registry.All))

	client, err := openClient(endpoint, user, pass)
	if err != nil {
		return err
	}
	defer client.Close()

	if err := svc.LoadSource(context.Background(), client); err != nil {
		return fmt.Errorf("failed to refresh catalogue: %w", err)
	}

	total := len(svc.Definitions(registry.All))
	fmt.Printf("%s Refreshed catalogue from %s\n", checkMark, endpoint)
	fmt.Printf("   Definitions: %d (%d new)\n", total, total-before)
	return nil
}

func runCatalogueRegister(cmd *cobra.Command, args []string) error {
	doc, err := category.ParseFile(args[0])
	if err != nil {
		return err
	}

	client, err := catalogueClient()
	if err != nil {
		return err
	}
	defer client.Close()

	if err := client.RegisterCatalogue(context.Background(), doc); err != nil {
		return fmt.Errorf("failed to register catalogue: %w", err)
	}

	fmt.Printf("%s Registered %s: %d kinds, %d mixins\n", checkMark, args[0], len(doc.Kinds), len(doc.Mixins))
	return nil
}

func runCatalogueUnregister(cmd *cobra.Command, args []string) error {
	id, err := category.ParseIdentifier(args[0])
	if err != nil {
		return err
	}

	client, err := catalogueClient()
	if err != nil {
		return err
	}
	defer client.Close()

	if !unregisterForce && !confirm(fmt.Sprintf("Unregister %s?", id.String())) {
		fmt.Println("Aborted.")
		return nil
	}

	if err := client.UnregisterCategory(context.Background(), id); err != nil {
		return fmt.Errorf("failed to unregister: %w", err)
	}

	fmt.Printf("%s Unregistered: %s\n", checkMark, id.String())
	return nil
}

func runCatalogueExport(cmd *cobra.Command, args []string) error {
	svc, err := loadCatalogue()
	if err != nil {
		return err
	}
	doc := svc.Export()

	var out []byte
	switch exportFormat {
	case "yaml":
		out, err = yaml.Marshal(doc)
	case "json":
		out, err = json.MarshalIndent(doc, "", "  ")
		out = append(out, '\n')
	default:
		return fmt.Errorf("unknown document format %q (available: yaml, json)", exportFormat)
	}
	if err != nil {
		return fmt.Errorf("failed to encode catalogue: %w", err)
	}

	if exportFile != "" {
		if err := os.WriteFile(exportFile, out, 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", exportFile, err)
		}
		fmt.Printf("%s Exported catalogue to %s\n", checkMark, exportFile)
		return nil
	}

	_, err = os.Stdout.Write(out)
	return err
}

// loadCatalogue builds a catalogue-only service from the configured
// files. Against a remote backend (or --server) the server's
// definitions are mirrored in, the same way serve does it. No entity
// backend is opened.
func loadCatalogue() (*app.CatalogueService, error) {
	cfg, err := config.LoadWithFallback(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	svc, err := buildCatalogue(cfg)
	if err != nil {
		return nil, err
	}

	if endpoint, user, pass, ok := remoteEndpoint(cfg); ok {
		client, err := openClient(endpoint, user, pass)
		if err != nil {
			return nil, err
		}
		defer client.Close()

		if err := svc.LoadSource(context.Background(), client); err != nil {
			return nil, fmt.Errorf("failed to mirror server catalogue: %w", err)
		}
	}

	return svc, nil
}

// buildCatalogue assembles the service and loads builtins plus the
// configured files, nothing remote.
func buildCatalogue(cfg *config.Config) (*app.CatalogueService, error) {
	// Throwaway collector: management commands do not export metrics.
	svc, err := app.NewCatalogueService(
		registry.New(),
		clock.Real{},
		metrics.NewWithRegistry(prometheus.NewRegistry()),
		zerolog.Nop(),
		app.CatalogueConfig{Files: cfg.Catalogue.Files, SkipBuiltins: cfg.Catalogue.SkipBuiltins},
	)
	if err != nil {
		return nil, err
	}
	if err := svc.Load(context.Background()); err != nil {
		return nil, err
	}
	return svc, nil
}

// catalogueClient opens a client for runtime catalogue changes, which
// only make sense against a running server.
func catalogueClient() (*occihttp.Client, error) {
	cfg, err := config.LoadWithFallback(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	endpoint, user, pass, ok := remoteEndpoint(cfg)
	if !ok {
		return nil, fmt.Errorf("catalogue changes at runtime need a running server: pass --server or configure a remote backend (startup definitions load via catalogue.files)")
	}

	return openClient(endpoint, user, pass)
}

// openClient dials a running server.
func openClient(endpoint, user, pass string) (*occihttp.Client, error) {
	user, pass, err := resolveCredentials(prompt.NewPrompter(), user, pass)
	if err != nil {
		return nil, err
	}
	return occihttp.NewClient(occihttp.ClientConfig{
		BaseURL:  endpoint,
		Username: user,
		Password: pass,
	})
}

// remoteEndpoint reports where a running server can be reached: the
// --server flag wins, then a remote backend in the config.
func remoteEndpoint(cfg *config.Config) (string, string, string, bool) {
	if serverURL != "" {
		return serverURL, serverUsername, serverPassword, true
	}
	if cfg != nil && cfg.Backend.Mode == "remote" {
		r := cfg.Backend.Remote
		return r.URL, r.Username, r.Password, true
	}
	return "", "", "", false
}
