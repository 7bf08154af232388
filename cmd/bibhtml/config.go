package main

import (
	"fmt"

	"github.com/mmbios/bibhtml/internal/config"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the effective configuration",
	Long: `Show the configuration after the config file, .env and environment
overrides (BIBHTML_LINK_BASE, BIBHTML_DATA_DIR) are applied.`,
	Args: cobra.NoArgs,
	RunE: runConfig,
}

// ConfigResponse is the response for the config command.
type ConfigResponse struct {
	Path           string `json:"path"`
	LinkBase       string `json:"link_base"`
	CategoriesFile string `json:"categories_file,omitempty"`
	Categories     int    `json:"categories"`
	DataDir        string `json:"data_dir"`
	Workers        int    `json:"workers"`
}

func runConfig(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	table := mustLoadCategories(cfg)

	resp := ConfigResponse{
		Path:           config.Path(),
		LinkBase:       cfg.LinkBase,
		CategoriesFile: cfg.CategoriesFile,
		Categories:     len(table),
		DataDir:        cfg.DataDir,
		Workers:        cfg.Workers,
	}
	if !humanOutput {
		outputJSON(resp)
		return nil
	}

	fmt.Printf("config:          %s\n", resp.Path)
	fmt.Printf("link-base:       %s\n", resp.LinkBase)
	fmt.Printf("categories-file: %s\n", resp.CategoriesFile)
	fmt.Printf("data-dir:        %s\n", resp.DataDir)
	fmt.Printf("workers:         %d\n", resp.Workers)
	fmt.Printf("\ncategories:\n")
	for _, code := range table.Codes() {
		c := table[code]
		fmt.Printf("  %-14s %-5s %-8s %s\n", code, c.Label, c.Class, c.Path)
	}
	return nil
}
