package main

import (
	"fmt"
	"os"

	"github.com/mmbios/bibhtml/internal/importer"
	"github.com/mmbios/bibhtml/internal/render"
	"github.com/spf13/cobra"
)

var bibjsonOutput string

func init() {
	bibjsonCmd.Flags().StringVarP(&bibjsonOutput, "output", "o", "", "Output HTML file (default: bibjson input with .html extension)")
	rootCmd.AddCommand(bibjsonCmd)
}

var bibjsonCmd = &cobra.Command{
	Use:   "bibjson <bibjson> <bib>",
	Short: "Convert a CSL-JSON export to the publications HTML",
	Long: `Convert the reference manager's CSL-JSON (BibJSON) export to the
publications HTML fragment.

The JSON export carries no category tags, so they are taken from the BibTeX
export of the same library and matched by PMID.

Examples:
  bibhtml bibjson library.json library.bib
  bibhtml bibjson library.json library.bib -o publications.html`,
	Args: cobra.ExactArgs(2),
	RunE: runBibJSON,
}

// BibJSONResult is the response for the bibjson command.
type BibJSONResult struct {
	Status      string `json:"status"`
	Output      string `json:"output"`
	References  int    `json:"references"`
	Tagged      int    `json:"tagged"`
	Errors      int    `json:"errors"`
	MissingPMID int    `json:"missing_pmid"`
	Bytes       int    `json:"bytes"`
}

func runBibJSON(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	opts := render.Options{LinkBase: cfg.LinkBase, Categories: mustLoadCategories(cfg)}

	jsonPath, bibPath := args[0], args[1]
	output := bibjsonOutput
	if output == "" {
		output = defaultOutputPath(jsonPath)
	}

	data, err := os.ReadFile(jsonPath)
	if err != nil {
		exitWithError(ExitError, "reading %s: %v", jsonPath, err)
	}
	refs, errs := importer.ParseBibJSON(data)
	if refs == nil && len(errs) > 0 {
		exitWithError(ExitDataError, "%v", errs[0])
	}
	for _, e := range errs {
		outputWarning("%s: %v", jsonPath, e)
	}

	bib := mustLoadBibliography(bibPath, cfg.Workers)
	tagged := importer.ApplyTags(refs, importer.TagsByPMID(bib.Result.Records))

	missingPMID := 0
	for _, ref := range refs {
		if ref.PMID == "" {
			missingPMID++
			outputWarning("no PMID for %q, tags cannot be matched", truncateString(ref.Title, SearchTitleMaxLen))
		}
	}

	html, err := render.HTML(refs, opts)
	if err != nil {
		exitWithError(ExitError, "rendering: %v", err)
	}
	if err := os.WriteFile(output, []byte(html), 0644); err != nil {
		exitWithError(ExitError, "writing output: %v", err)
	}

	result := BibJSONResult{
		Status:      "converted",
		Output:      output,
		References:  len(refs),
		Tagged:      tagged,
		Errors:      len(errs),
		MissingPMID: missingPMID,
		Bytes:       len(html),
	}
	if humanOutput {
		fmt.Printf("Wrote %s %s (%d tagged) to %s (%s)\n",
			formatCount(result.References), plural(result.References, "reference"),
			result.Tagged, output, formatSize(result.Bytes))
	} else {
		outputJSON(result)
	}
	return nil
}
