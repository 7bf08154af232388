package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/mmbios/bibhtml/internal/bibtex"
	"github.com/mmbios/bibhtml/internal/export"
	"github.com/mmbios/bibhtml/internal/importer"
	"github.com/spf13/cobra"
)

var checkBibJSON string

func init() {
	checkCmd.Flags().StringVar(&checkBibJSON, "bibjson", "", "Cross-check against the CSL-JSON export of the same library")
	rootCmd.AddCommand(checkCmd)
}

var checkCmd = &cobra.Command{
	Use:   "check <bib>",
	Short: "Check a bibliography for problems",
	Long: `Check a BibTeX file for entries that would be left out of the page,
dropped field values, duplicate DOIs and, with --bibjson, entries that differ
between the BibTeX and CSL-JSON exports.

Exits with status 3 if any problem is found.`,
	Args: cobra.ExactArgs(1),
	RunE: runCheck,
}

// CheckResult is the response for the check command.
type CheckResult struct {
	Status     string       `json:"status"`
	References int          `json:"references"`
	Issues     []CheckIssue `json:"issues"`
}

// CheckIssue represents a single issue found during check.
type CheckIssue struct {
	Type   string   `json:"type"`
	Key    string   `json:"key,omitempty"`
	Keys   []string `json:"keys,omitempty"`
	Line   int      `json:"line,omitempty"`
	DOI    string   `json:"doi,omitempty"`
	Field  string   `json:"field,omitempty"`
	Reason string   `json:"reason,omitempty"`
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	bib, err := loadBibliography(args[0], cfg.Workers)
	if err != nil {
		if !bibtex.IsStructural(err) {
			exitWithError(ExitError, "reading %s: %v", args[0], err)
		}
		result := CheckResult{Status: "malformed", Issues: []CheckIssue{{Type: "malformed", Reason: err.Error()}}}
		var se *bibtex.StructuralError
		if errors.As(err, &se) {
			result.Issues[0].Line = se.Line
			result.Issues[0].Reason = se.Msg
		}
		printCheckResult(result)
		os.Exit(ExitDataError)
	}

	issues := bibliographyIssues(bib)

	if checkBibJSON != "" {
		data, err := os.ReadFile(checkBibJSON)
		if err != nil {
			exitWithError(ExitError, "reading %s: %v", checkBibJSON, err)
		}
		jsonRefs, errs := importer.ParseBibJSON(data)
		for _, e := range errs {
			issues = append(issues, CheckIssue{Type: "invalid_bibjson_entry", Reason: e.Error()})
		}
		for _, d := range export.CrossCheck(bib.Refs, jsonRefs) {
			issues = append(issues, CheckIssue{Type: d.Kind, Key: d.Key, Reason: d.Detail})
		}
	}

	result := CheckResult{Status: "ok", References: len(bib.Refs), Issues: issues}
	if len(issues) > 0 {
		result.Status = "issues"
	}
	if result.Issues == nil {
		result.Issues = []CheckIssue{}
	}
	printCheckResult(result)
	if len(issues) > 0 {
		os.Exit(ExitDataError)
	}
	return nil
}

// bibliographyIssues lists the problems found in the BibTeX file alone.
func bibliographyIssues(bib *bibliography) []CheckIssue {
	var issues []CheckIssue
	for _, e := range bib.Result.Rejected {
		fields := make([]string, len(e.Missing))
		for i, f := range e.Missing {
			fields[i] = string(f)
		}
		issues = append(issues, CheckIssue{
			Type:   "missing_field",
			Key:    e.Key,
			Line:   e.Line,
			Field:  strings.Join(fields, ","),
			Reason: "entry left out",
		})
	}
	for _, e := range bib.Result.Warnings {
		issues = append(issues, CheckIssue{
			Type:   "invalid_value",
			Key:    e.Key,
			Line:   e.Line,
			Field:  e.Field,
			Reason: e.Reason,
		})
	}
	for _, e := range bib.RefErrs {
		issues = append(issues, CheckIssue{Type: "invalid_reference", Reason: e.Error()})
	}
	for _, d := range export.NewIndex(bib.Refs).Duplicates() {
		issues = append(issues, CheckIssue{Type: "duplicate_doi", DOI: d.DOI, Keys: d.Keys})
	}
	return issues
}

func printCheckResult(r CheckResult) {
	if !humanOutput {
		outputJSON(r)
		return
	}
	if len(r.Issues) == 0 {
		fmt.Printf("OK: %s %s, no issues\n", formatCount(r.References), plural(r.References, "reference"))
		return
	}
	fmt.Printf("Found %d %s:\n", len(r.Issues), plural(len(r.Issues), "issue"))
	for _, is := range r.Issues {
		var parts []string
		if is.Line > 0 {
			parts = append(parts, fmt.Sprintf("line %d", is.Line))
		}
		if is.Key != "" {
			parts = append(parts, is.Key)
		}
		if len(is.Keys) > 0 {
			parts = append(parts, strings.Join(is.Keys, ", "))
		}
		if is.Field != "" {
			parts = append(parts, is.Field)
		}
		if is.DOI != "" {
			parts = append(parts, is.DOI)
		}
		if is.Reason != "" {
			parts = append(parts, is.Reason)
		}
		fmt.Printf("  [%s] %s\n", is.Type, strings.Join(parts, ": "))
	}
}
