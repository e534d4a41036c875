package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "occi",
	Short: "Category-driven cloud resource server with kinds, mixins and actions",
	Long: `OCCI is a self-hosted cloud resource model server.

It keeps a catalogue of kinds, mixins and actions, validates entity
attributes against that catalogue, and persists entities through
in-memory, SQLite or remote backends.

Quick start:
  occi init       # Interactive setup wizard
  occi serve      # Start the resource server

Management:
  occi entities   # Manage entities
  occi catalogue  # Inspect and extend the category catalogue
  occi validate   # Validate configuration`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "occi.yaml", "config file path")
}
