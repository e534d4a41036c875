package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/artpar/occi/adapters/hasher"
	"github.com/artpar/occi/adapters/prompt"
	"github.com/artpar/occi/adapters/sqlite"
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Interactive setup wizard",
	Long: `Initialize OCCI with an interactive setup wizard.

This will:
  1. Ask which backend to use (memory, sqlite or remote)
  2. Configure the database or server location
  3. Optionally create a starter catalogue extension file
  4. Optionally enable basic auth for the management API
  5. Write the configuration file

Examples:
  occi init
  occi init --config /etc/occi/config.yaml
  occi init --non-interactive --backend sqlite --database /data/occi.db`,
	RunE: runInit,
}

var (
	initBackend        string
	initDatabase       string
	initPort           int
	initAuthUser       string
	initAuthPassword   string
	initNonInteractive bool
)

func init() {
	rootCmd.AddCommand(initCmd)

	initCmd.Flags().StringVar(&initBackend, "backend", "", "backend mode: memory, sqlite or remote")
	initCmd.Flags().StringVar(&initDatabase, "database", "occi.db", "database file path (sqlite backend)")
	initCmd.Flags().IntVar(&initPort, "port", 8080, "server port")
	initCmd.Flags().StringVar(&initAuthUser, "auth-user", "", "basic auth username for the management API")
	initCmd.Flags().StringVar(&initAuthPassword, "auth-password", "", "basic auth password (prompted if omitted)")
	initCmd.Flags().BoolVar(&initNonInteractive, "non-interactive", false, "run without prompts")
}

type initOptions struct {
	Mode      string
	Database  string
	RemoteURL string
	Port      int
	Files     []string
	AuthUser  string
	AuthHash  string
}

func runInit(cmd *cobra.Command, args []string) error {
	fmt.Println("Welcome to OCCI!")
	fmt.Println()

	// Check if config already exists
	if _, err := os.Stat(cfgFile); err == nil {
		fmt.Printf("Configuration file already exists: %s\n", cfgFile)
		if !confirm("Overwrite?") {
			fmt.Println("Aborted.")
			return nil
		}
	}

	reader := bufio.NewReader(os.Stdin)
	opts := initOptions{Port: initPort}

	// Pick the backend
	opts.Mode = initBackend
	if opts.Mode == "" {
		if initNonInteractive {
			opts.Mode = "sqlite"
		} else {
			opts.Mode = promptValue(reader, "Backend (memory, sqlite, remote)", "sqlite")
		}
	}
	switch opts.Mode {
	case "memory":
		// Nothing further to configure.
	case "sqlite":
		opts.Database = initDatabase
		if !initNonInteractive && initDatabase == "occi.db" {
			opts.Database = promptValue(reader, "Database location", "occi.db")
		}
	case "remote":
		if initNonInteractive {
			return fmt.Errorf("remote backend requires interactive setup or a hand-written config")
		}
		opts.RemoteURL = promptValue(reader, "Remote server URL", "")
		if opts.RemoteURL == "" {
			return fmt.Errorf("remote server URL is required")
		}
	default:
		return fmt.Errorf("unknown backend mode %q", opts.Mode)
	}

	if !initNonInteractive && initPort == 8080 {
		raw := promptValue(reader, "Server port", "8080")
		port, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("invalid port %q", raw)
		}
		opts.Port = port
	}

	// Starter catalogue extension
	if !initNonInteractive && confirm("Create a starter catalogue extension file?") {
		path := promptValue(reader, "Extension file", "extensions/platform.yaml")
		if err := writeStarterExtension(path); err != nil {
			return fmt.Errorf("failed to write extension file: %w", err)
		}
		opts.Files = append(opts.Files, path)
		fmt.Printf("%s Created %s\n", checkMark, path)
	}

	// Basic auth
	opts.AuthUser = initAuthUser
	authPassword := initAuthPassword
	if opts.AuthUser == "" && !initNonInteractive && confirm("Enable basic auth for the management API?") {
		opts.AuthUser = promptValue(reader, "Username", "admin")
	}
	if opts.AuthUser != "" {
		if authPassword == "" {
			if initNonInteractive {
				return fmt.Errorf("--auth-password is required with --auth-user in non-interactive mode")
			}
			var err error
			authPassword, err = prompt.NewPrompter().PromptSecret("Password: ")
			if err != nil {
				return fmt.Errorf("failed to read password: %w", err)
			}
		}
		if authPassword == "" {
			return fmt.Errorf("auth password is required")
		}
		hash, err := hasher.NewBcrypt(0).Hash(authPassword)
		if err != nil {
			return fmt.Errorf("failed to hash password: %w", err)
		}
		opts.AuthHash = string(hash)
	}

	// Write config file
	if err := os.WriteFile(cfgFile, []byte(generateConfig(opts)), 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	fmt.Printf("\n%s Generated %s\n", checkMark, cfgFile)

	// Create database and run migrations
	if opts.Mode == "sqlite" {
		db, err := sqlite.Open(opts.Database)
		if err != nil {
			return fmt.Errorf("failed to create database: %w", err)
		}
		defer db.Close()

		if err := db.Migrate(); err != nil {
			return fmt.Errorf("failed to migrate database: %w", err)
		}
		fmt.Printf("%s Created database %s\n", checkMark, opts.Database)
	}

	fmt.Println()
	fmt.Println("Run 'occi serve' to start the resource server.")
	fmt.Println()
	fmt.Println("Access points:")
	fmt.Printf("  API:        http://localhost:%d/v1/entities\n", opts.Port)
	fmt.Printf("  Catalogue:  http://localhost:%d/v1/catalogue\n", opts.Port)
	fmt.Printf("  Swagger UI: http://localhost:%d/swagger/index.html\n", opts.Port)
	fmt.Printf("  Health:     http://localhost:%d/health\n", opts.Port)

	return nil
}

func promptValue(reader *bufio.Reader, label, defaultVal string) string {
	if defaultVal != "" {
		fmt.Printf("? %s [%s]: ", label, defaultVal)
	} else {
		fmt.Printf("? %s: ", label)
	}

	input, _ := reader.ReadString('\n')
	input = strings.TrimSpace(input)

	if input == "" {
		return defaultVal
	}
	return input
}

func confirm(message string) bool {
	reader := bufio.NewReader(os.Stdin)
	fmt.Printf("? %s [y/N]: ", message)
	input, _ := reader.ReadString('\n')
	input = strings.ToLower(strings.TrimSpace(input))
	return input == "y" || input == "yes"
}

func generateConfig(opts initOptions) string {
	var b strings.Builder

	fmt.Fprintf(&b, `# OCCI Configuration
# Generated by 'occi init'

server:
  host: "0.0.0.0"
  port: %d

backend:
  mode: %s
`, opts.Port, opts.Mode)

	switch opts.Mode {
	case "sqlite":
		fmt.Fprintf(&b, "  dsn: %q\n", opts.Database)
	case "remote":
		fmt.Fprintf(&b, "  remote:\n    url: %q\n    timeout: 30s\n", opts.RemoteURL)
	}

	if len(opts.Files) > 0 {
		b.WriteString("\ncatalogue:\n  files:\n")
		for _, f := range opts.Files {
			fmt.Fprintf(&b, "    - %q\n", f)
		}
		b.WriteString("  watch: true\n")
	}

	if opts.AuthUser != "" {
		fmt.Fprintf(&b, "\nauth:\n  enabled: true\n  username: %q\n  password_hash: %q\n", opts.AuthUser, opts.AuthHash)
	}

	b.WriteString(`
logging:
  level: info
  format: console

metrics:
  enabled: true

openapi:
  enabled: true
`)

	return b.String()
}

func writeStarterExtension(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, []byte(starterExtension), 0644)
}

const starterExtension = `# Starter catalogue extension
# Registered on top of the built-in core and infrastructure categories.

kinds:
  - term: database
    scheme: "http://schemas.example.org/platform#"
    title: Managed Database
    parent: "http://schemas.ogf.org/occi/core#resource"
    attributes:
      example.database.engine:
        type: string
        required: true
      example.database.version:
        type: string
        mutable: true
        default: "16"
      example.database.state:
        type: string
        required: true
    actions:
      - term: backup
        scheme: "http://schemas.example.org/platform/database/action#"
        title: Trigger a backup

mixins:
  - term: monitored
    scheme: "http://schemas.example.org/platform#"
    title: Monitoring Agent Attached
    attributes:
      example.monitoring.interval:
        type: number
        mutable: true
        default: 60
`
