package main

import (
	"fmt"
	"strings"

	"github.com/mmbios/bibhtml/internal/export"
	"github.com/mmbios/bibhtml/internal/reference"
	"github.com/spf13/cobra"
)

var exportKeys string

func init() {
	exportCmd.Flags().StringVar(&exportKeys, "keys", "", "Export only the given citation keys (comma-separated)")
	rootCmd.AddCommand(exportCmd)
}

var exportCmd = &cobra.Command{
	Use:   "export <bib>",
	Short: "Rewrite a bibliography in canonical BibTeX",
	Long: `Rewrite the accepted entries of a BibTeX file in the reference manager's
layout, with only the fields the publications page uses.

Examples:
  bibhtml export library.bib > clean.bib
  bibhtml export library.bib --keys Czech2017,Faeder2016`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	bib := mustLoadBibliography(args[0], cfg.Workers)
	bib.warn()

	refs := bib.Refs
	if exportKeys != "" {
		byKey := make(map[string]reference.Reference, len(refs))
		for _, ref := range refs {
			if _, ok := byKey[ref.Key]; !ok {
				byKey[ref.Key] = ref
			}
		}
		refs = nil
		for _, key := range strings.Split(exportKeys, ",") {
			key = strings.TrimSpace(key)
			ref, ok := byKey[key]
			if !ok {
				exitWithError(ExitError, "unknown key: %s", key)
			}
			refs = append(refs, ref)
		}
	}

	// BibTeX is always text output, never JSON
	fmt.Print(export.ToBibTeXList(refs))
	return nil
}
