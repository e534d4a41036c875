package main

import (
	"context"
	"fmt"
	"os"

	"github.com/artpar/occi/bootstrap"
	"github.com/artpar/occi/config"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	hotReload bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the resource server",
	Long: `Start the OCCI resource server.

The server will:
  - Load configuration from occi.yaml (or --config)
  - Or load configuration from OCCI_* environment variables
  - Open the configured backend (memory, sqlite or remote)
  - Load the category catalogue (built-ins plus extension files)
  - Serve the JSON:API endpoints under /v1

Environment variables (for Docker deployments):
  OCCI_BACKEND_MODE        - Backend: memory, sqlite or remote (default: memory)
  OCCI_BACKEND_DSN         - SQLite database path (default: occi.db)
  OCCI_SERVER_PORT         - Server port (default: 8080)
  OCCI_CATALOGUE_FILES     - Comma-separated extension files
  OCCI_LOG_LEVEL           - Log level: debug, info, warn, error

Examples:
  occi serve
  occi serve --config /etc/occi/config.yaml
  occi serve --hot-reload=false

  # Docker (env vars only):
  OCCI_BACKEND_MODE=sqlite OCCI_BACKEND_DSN=/data/occi.db occi serve`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().BoolVar(&hotReload, "hot-reload", true, "enable hot reload of configuration")
}

func runServe(cmd *cobra.Command, args []string) error {
	hasConfigFile := false
	if _, err := os.Stat(cfgFile); err == nil {
		hasConfigFile = true
	}

	cfg, err := config.LoadWithFallback(cfgFile)
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}

	if !hasConfigFile {
		fmt.Println("No config file found, running with environment variables and defaults")
	}

	app, err := bootstrap.New(cfg)
	if err != nil {
		return fmt.Errorf("error initializing: %w", err)
	}

	// Hot reload only works with a config file
	if hasConfigFile && hotReload {
		holder, err := config.NewHolder(cfgFile, app.Logger)
		if err != nil {
			return fmt.Errorf("error watching config: %w", err)
		}
		holder.OnChange(func(next *config.Config) { applyReload(app, next) })
		if err := holder.WatchFile(); err != nil {
			app.Logger.Warn().Err(err).Msg("config watch unavailable")
		}
		holder.WatchSignals()
		defer holder.Stop()
	}

	// Run (blocks until shutdown)
	return app.Run()
}

// applyReload pushes the reloadable parts of a new config into the
// running application. Non-reloadable fields need a restart; the
// holder logs a warning for those.
func applyReload(app *bootstrap.App, next *config.Config) {
	if lvl, err := zerolog.ParseLevel(next.Logging.Level); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	app.Catalogue.SetFiles(next.Catalogue.Files)
	if err := app.Reload(context.Background()); err != nil {
		app.Logger.Error().Err(err).Msg("catalogue reload failed")
	}
}
