package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/mmbios/bibhtml/internal/storage"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(indexCmd)
}

var indexCmd = &cobra.Command{
	Use:   "index <bib>",
	Short: "Store converted references and rebuild the search index",
	Long: `Convert a BibTeX file, store the references as JSONL in the data
directory and rebuild the SQLite search index from them.

The data directory is data_dir in the config file, BIBHTML_DATA_DIR, or
$XDG_DATA_HOME/bibhtml.`,
	Args: cobra.ExactArgs(1),
	RunE: runIndex,
}

// IndexResult is the response for the index command.
type IndexResult struct {
	Status     string      `json:"status"`
	References int         `json:"references"`
	RefsPath   string      `json:"refs_path"`
	DBPath     string      `json:"db_path"`
	ByYear     map[int]int `json:"by_year"`
}

func runIndex(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	bib := mustLoadBibliography(args[0], cfg.Workers)
	bib.warn()

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		exitWithError(ExitError, "creating data directory: %v", err)
	}
	if err := storage.WriteAll(cfg.RefsPath(), bib.Refs); err != nil {
		exitWithError(ExitError, "writing references: %v", err)
	}

	db, err := storage.OpenDB(cfg.DBPath())
	if err != nil {
		exitWithError(ExitError, "opening database: %v", err)
	}
	defer db.Close()

	count, err := db.RebuildFromJSONL(cfg.RefsPath())
	if err != nil {
		exitWithError(ExitError, "rebuilding index: %v", err)
	}
	byYear, err := db.CountByYear()
	if err != nil {
		exitWithError(ExitError, "counting references: %v", err)
	}

	result := IndexResult{
		Status:     "indexed",
		References: count,
		RefsPath:   cfg.RefsPath(),
		DBPath:     cfg.DBPath(),
		ByYear:     byYear,
	}
	if !humanOutput {
		outputJSON(result)
		return nil
	}

	fmt.Printf("Indexed %s %s into %s\n", formatCount(count), plural(count, "reference"), result.DBPath)
	years := make([]int, 0, len(byYear))
	for y := range byYear {
		years = append(years, y)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(years)))
	for _, y := range years {
		fmt.Printf("  %d: %d\n", y, byYear[y])
	}
	return nil
}
