package main

import (
	"fmt"
	"os"

	"github.com/mmbios/bibhtml/internal/bibtex"
	"github.com/mmbios/bibhtml/internal/reference"
)

// bibliography is a parsed BibTeX file and the references built from it.
type bibliography struct {
	Path    string
	Size    int
	Result  *bibtex.Result
	Refs    []reference.Reference
	RefErrs []error
}

// loadBibliography reads and parses a BibTeX file. A structural error is
// returned as is so callers can tell it apart with bibtex.IsStructural.
func loadBibliography(path string, workers int) (*bibliography, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading bibliography: %w", err)
	}

	var res *bibtex.Result
	if workers > 1 {
		res, err = bibtex.ParseConcurrent(string(data), workers)
	} else {
		res, err = bibtex.Parse(string(data))
	}
	if err != nil {
		return nil, err
	}

	refs, refErrs := reference.FromRecords(res.Records)
	return &bibliography{
		Path:    path,
		Size:    len(data),
		Result:  res,
		Refs:    refs,
		RefErrs: refErrs,
	}, nil
}

// mustLoadBibliography loads a bibliography, exits on error.
func mustLoadBibliography(path string, workers int) *bibliography {
	bib, err := loadBibliography(path, workers)
	if err != nil {
		exitWithError(exitCodeFor(err), "parsing %s: %v", path, err)
	}
	return bib
}

// exitCodeFor maps a load error to an exit code.
func exitCodeFor(err error) int {
	if bibtex.IsStructural(err) {
		return ExitDataError
	}
	return ExitError
}

// Problems returns every rejected entry, dropped value and reference error.
func (b *bibliography) Problems() []error {
	var out []error
	for _, e := range b.Result.Rejected {
		out = append(out, e)
	}
	for _, e := range b.Result.Warnings {
		out = append(out, e)
	}
	return append(out, b.RefErrs...)
}

// warn prints the bibliography's problems to stderr.
func (b *bibliography) warn() {
	for _, p := range b.Problems() {
		outputWarning("%s: %v", b.Path, p)
	}
}
