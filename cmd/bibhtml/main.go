// Package main provides the bibhtml CLI entry point.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/mmbios/bibhtml/internal/category"
	"github.com/mmbios/bibhtml/internal/config"
	"github.com/mmbios/bibhtml/internal/storage"
	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags
var Version = "dev"

var (
	// humanOutput controls whether to use human-readable output
	humanOutput bool
	// configPath selects a config file other than the default
	configPath string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		// Print the error since we have SilenceErrors: true
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(ExitError)
	}
}

var rootCmd = &cobra.Command{
	Use:   "bibhtml",
	Short: "Convert a BibTeX bibliography into the publications page",
	Long: `bibhtml converts the reference manager's BibTeX export into the HTML
fragment of the publications page, grouped by year, newest first.

It can also build the page from the CSL-JSON export, check the bibliography
for problems, and keep a searchable index of converted references.

All commands output JSON by default. Use --human for readable output.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		_ = godotenv.Load()
		if configPath != "" {
			config.SetPath(configPath)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&humanOutput, "human", false, "Use human-readable output instead of JSON")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default $XDG_CONFIG_HOME/bibhtml/config.yml)")
	rootCmd.Version = Version
}

// mustLoadConfig loads configuration, exits on error.
func mustLoadConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		if errors.Is(err, config.ErrConfigNotFound) {
			fmt.Fprintln(os.Stderr, config.HelpfulConfigMessage())
		}
		exitWithError(ExitConfigError, "loading config: %v", err)
	}
	return cfg
}

// mustLoadCategories returns the effective category table, exits on error.
func mustLoadCategories(cfg *config.Config) category.Table {
	table, err := cfg.CategoryTable()
	if err != nil {
		exitWithError(ExitConfigError, "loading categories: %v", err)
	}
	return table
}

// mustOpenDatabase opens the search index, exits if it has not been built.
// The caller is responsible for calling Close() on the returned DB.
func mustOpenDatabase(cfg *config.Config) *storage.DB {
	dbPath := cfg.DBPath()
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		exitWithError(ExitConfigError, "index not found at %s\n\nRun 'bibhtml index <bib>' to build it.", dbPath)
	}
	db, err := storage.OpenDB(dbPath)
	if err != nil {
		exitWithError(ExitError, "opening database: %v", err)
	}
	return db
}
