// Package importer reads references from the CSL-JSON (BibJSON) export of the
// reference manager and joins them with tags from the BibTeX export.
package importer

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/mmbios/bibhtml/internal/bibtex"
	"github.com/mmbios/bibhtml/internal/reference"
)

// FlexibleString can unmarshal from either string or number JSON values.
type FlexibleString string

func (f *FlexibleString) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*f = ""
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = FlexibleString(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*f = FlexibleString(n.String())
		return nil
	}

	return fmt.Errorf("cannot unmarshal %s into FlexibleString", string(data))
}

func (f FlexibleString) String() string {
	return string(f)
}

// CSLName is one CSL-JSON name.
type CSLName struct {
	Family  string `json:"family"`
	Given   string `json:"given"`
	Literal string `json:"literal"`
}

// CSLItem is the subset of a CSL-JSON item the publications page uses.
type CSLItem struct {
	ID             FlexibleString `json:"id"`
	Type           string         `json:"type"`
	Title          string         `json:"title"`
	ContainerTitle string         `json:"container-title"`
	Publisher      string         `json:"publisher"`
	Author         []CSLName      `json:"author"`
	Issued         struct {
		DateParts [][]FlexibleString `json:"date-parts"`
	} `json:"issued"`
	Volume FlexibleString `json:"volume"`
	Issue  FlexibleString `json:"issue"`
	Page   string         `json:"page"`
	DOI    string         `json:"DOI"`
	PMID   FlexibleString `json:"PMID"`
	URL    string         `json:"URL"`
}

// Year returns the first date part of the issued date.
func (it CSLItem) Year() string {
	if len(it.Issued.DateParts) == 0 || len(it.Issued.DateParts[0]) == 0 {
		return ""
	}
	return it.Issued.DateParts[0][0].String()
}

// ParseBibJSON parses a CSL-JSON array and returns references. Entries that
// cannot be converted are reported and skipped.
func ParseBibJSON(data []byte) ([]reference.Reference, []error) {
	var items []CSLItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, []error{fmt.Errorf("parsing BibJSON: %w", err)}
	}

	var refs []reference.Reference
	var errs []error

	for i, item := range items {
		ref, err := itemToReference(item)
		if err != nil {
			errs = append(errs, fmt.Errorf("entry %d (%s): %w", i+1, item.ID, err))
			continue
		}
		refs = append(refs, ref)
	}

	return refs, errs
}

func itemToReference(item CSLItem) (reference.Reference, error) {
	if item.Title == "" {
		return reference.Reference{}, fmt.Errorf("missing required field 'title'")
	}
	yearText := item.Year()
	if yearText == "" {
		return reference.Reference{}, fmt.Errorf("missing required field 'issued'")
	}
	year, err := strconv.Atoi(yearText)
	if err != nil {
		return reference.Reference{}, fmt.Errorf("invalid year: %s", yearText)
	}

	authors := make([]reference.Author, 0, len(item.Author))
	for _, a := range item.Author {
		authors = append(authors, reference.AuthorFromParts(a.Family, a.Given, a.Literal))
	}

	kind := "article"
	if item.Type == "paper-conference" {
		kind = "inproceedings"
	}

	return reference.Reference{
		Kind:      kind,
		Key:       item.ID.String(),
		Authors:   authors,
		Title:     reference.CleanTitle(item.Title),
		Journal:   item.ContainerTitle,
		Publisher: item.Publisher,
		Volume:    item.Volume.String(),
		Issue:     item.Issue.String(),
		Pages:     reference.NormalizePages(item.Page),
		Year:      year,
		DOI:       item.DOI,
		PMID:      item.PMID.String(),
		URL:       reference.FirstToken(item.URL),
		Source: reference.ImportSource{
			Type: "bibjson",
			ID:   item.ID.String(),
		},
	}, nil
}

// TagsByPMID collects the category tags of BibTeX records keyed by PMID.
// Records without a PMID or without tags are skipped.
func TagsByPMID(records []*bibtex.Record) map[string][]string {
	tags := make(map[string][]string)
	for _, rec := range records {
		pmid, ok := rec.Get(bibtex.FieldPMID)
		if !ok {
			continue
		}
		if t := reference.SplitTags(rec.Value(bibtex.FieldTags)); len(t) > 0 {
			tags[pmid] = t
		}
	}
	return tags
}

// ApplyTags attaches tags to the references whose PMID appears in tags and
// returns the number of references updated.
func ApplyTags(refs []reference.Reference, tags map[string][]string) int {
	n := 0
	for i := range refs {
		if t, ok := tags[refs[i].PMID]; ok && refs[i].PMID != "" {
			refs[i].Tags = append([]string(nil), t...)
			n++
		}
	}
	return n
}
