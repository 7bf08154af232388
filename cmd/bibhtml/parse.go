package main

import (
	"fmt"

	"github.com/mmbios/bibhtml/internal/bibtex"
	"github.com/spf13/cobra"
)

var parseWorkers int

func init() {
	parseCmd.Flags().IntVar(&parseWorkers, "workers", 0, "Parse entries on this many goroutines (default from config)")
	rootCmd.AddCommand(parseCmd)
}

var parseCmd = &cobra.Command{
	Use:   "parse <bib>",
	Short: "Show the records parsed from a BibTeX file",
	Long: `Parse a BibTeX file and show the raw records, rejected entries and
dropped field values, without building references.`,
	Args: cobra.ExactArgs(1),
	RunE: runParse,
}

// ParseResult is the response for the parse command.
type ParseResult struct {
	Records  []*bibtex.Record     `json:"records"`
	Rejected []*bibtex.FieldError `json:"rejected"`
	Warnings []*bibtex.ValueError `json:"warnings"`
	Skipped  int                  `json:"skipped"`
}

func runParse(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	workers := parseWorkers
	if workers == 0 {
		workers = cfg.Workers
	}
	bib := mustLoadBibliography(args[0], workers)
	res := bib.Result

	if !humanOutput {
		out := ParseResult{
			Records:  res.Records,
			Rejected: res.Rejected,
			Warnings: res.Warnings,
			Skipped:  res.Skipped,
		}
		if out.Records == nil {
			out.Records = []*bibtex.Record{}
		}
		if out.Rejected == nil {
			out.Rejected = []*bibtex.FieldError{}
		}
		if out.Warnings == nil {
			out.Warnings = []*bibtex.ValueError{}
		}
		outputJSON(out)
		return nil
	}

	fmt.Printf("%d %s, %d rejected, %d %s, %d skipped\n\n",
		len(res.Records), plural(len(res.Records), "record"),
		len(res.Rejected), len(res.Warnings), plural(len(res.Warnings), "warning"), res.Skipped)
	for _, rec := range res.Records {
		fmt.Printf("%5d  %-13s %s\n", rec.Line, rec.Kind, rec.Key)
		fmt.Printf("       %s (%s)\n", truncateString(rec.Value(bibtex.FieldTitle), ParseTitleMaxLen), rec.Value(bibtex.FieldYear))
	}
	for _, e := range res.Rejected {
		fmt.Printf("rejected: %v\n", e)
	}
	for _, e := range res.Warnings {
		fmt.Printf("warning: %v\n", e)
	}
	return nil
}
