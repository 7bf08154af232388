package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mmbios/bibhtml/internal/config"
	"github.com/mmbios/bibhtml/internal/render"
	"github.com/mmbios/bibhtml/internal/watch"
	"github.com/spf13/cobra"
)

var (
	convertOutput  string
	convertWorkers int
	convertWatch   bool
)

func init() {
	convertCmd.Flags().StringVarP(&convertOutput, "output", "o", "", "Output HTML file (default: input with .html extension)")
	convertCmd.Flags().IntVar(&convertWorkers, "workers", 0, "Parse entries on this many goroutines (default from config)")
	convertCmd.Flags().BoolVar(&convertWatch, "watch", false, "Rebuild whenever the bibliography changes")
	rootCmd.AddCommand(convertCmd)
}

var convertCmd = &cobra.Command{
	Use:   "convert <bib>",
	Short: "Convert a BibTeX file to the publications HTML",
	Long: `Convert a BibTeX file to the publications HTML fragment.

Entries missing an author or year are left out and reported. A malformed
bibliography (an unclosed entry, a field without a value) is an error and no
output is written.

Examples:
  bibhtml convert library.bib
  bibhtml convert library.bib -o publications.html
  bibhtml convert library.bib --watch`,
	Args: cobra.ExactArgs(1),
	RunE: runConvert,
}

// ConvertResult is the response for the convert command.
type ConvertResult struct {
	Status     string `json:"status"`
	Input      string `json:"input"`
	Output     string `json:"output"`
	References int    `json:"references"`
	Years      int    `json:"years"`
	Rejected   int    `json:"rejected"`
	Warnings   int    `json:"warnings"`
	Skipped    int    `json:"skipped"`
	Bytes      int    `json:"bytes"`
}

func runConvert(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	opts := render.Options{LinkBase: cfg.LinkBase, Categories: mustLoadCategories(cfg)}
	workers := convertWorkers
	if workers == 0 {
		workers = cfg.Workers
	}

	input := args[0]
	output := convertOutput
	if output == "" {
		output = defaultOutputPath(input)
	}

	if convertWatch {
		return watchConvert(input, output, opts, workers, cfg)
	}

	result, err := convertFile(input, output, opts, workers)
	if err != nil {
		exitWithError(exitCodeFor(err), "converting %s: %v", input, err)
	}
	printConvertResult(result)
	return nil
}

// convertFile renders input to output and reports what was written.
func convertFile(input, output string, opts render.Options, workers int) (*ConvertResult, error) {
	bib, err := loadBibliography(input, workers)
	if err != nil {
		return nil, err
	}
	bib.warn()

	html, err := render.HTML(bib.Refs, opts)
	if err != nil {
		return nil, fmt.Errorf("rendering: %w", err)
	}
	if err := os.WriteFile(output, []byte(html), 0644); err != nil {
		return nil, fmt.Errorf("writing output: %w", err)
	}

	return &ConvertResult{
		Status:     "converted",
		Input:      input,
		Output:     output,
		References: len(bib.Refs),
		Years:      len(render.GroupByYear(bib.Refs)),
		Rejected:   len(bib.Result.Rejected) + len(bib.RefErrs),
		Warnings:   len(bib.Result.Warnings),
		Skipped:    bib.Result.Skipped,
		Bytes:      len(html),
	}, nil
}

func printConvertResult(r *ConvertResult) {
	if humanOutput {
		fmt.Printf("Wrote %s %s (%d %s) to %s (%s)\n",
			formatCount(r.References), plural(r.References, "reference"),
			r.Years, plural(r.Years, "year"), r.Output, formatSize(r.Bytes))
		if r.Rejected > 0 {
			fmt.Printf("  %d %s left out\n", r.Rejected, plural(r.Rejected, "entry"))
		}
		return
	}
	outputJSON(r)
}

// watchConvert converts once and again on every change until interrupted.
// Conversion errors are reported and the previous output is kept.
func watchConvert(input, output string, opts render.Options, workers int, cfg *config.Config) error {
	files := []string{input}
	if cfg.CategoriesFile != "" {
		files = append(files, cfg.CategoriesFile)
	}

	w, err := watch.New(files, watch.Options{
		OnError: func(err error) { outputError(ExitError, "%v", err) },
	})
	if err != nil {
		exitWithError(ExitError, "watching %s: %v", input, err)
	}
	defer w.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if humanOutput {
		fmt.Fprintf(os.Stderr, "Watching %s (Ctrl-C to stop)\n", input)
	}
	return w.Run(ctx, func(context.Context) error {
		if cfg.CategoriesFile != "" {
			table, err := cfg.CategoryTable()
			if err != nil {
				return err
			}
			opts.Categories = table
		}
		result, err := convertFile(input, output, opts, workers)
		if err != nil {
			return fmt.Errorf("converting %s: %w", input, err)
		}
		printConvertResult(result)
		return nil
	})
}
