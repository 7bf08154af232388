package reference

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mmbios/bibhtml/internal/bibtex"
	"golang.org/x/net/html"
)

// CleanTitle removes embedded HTML tags and protective braces, then a single
// trailing period.
func CleanTitle(s string) string {
	s = strings.TrimSpace(stripBraces(StripTags(s)))
	return strings.TrimSuffix(s, ".")
}

// CleanText removes protective braces from free text such as journal names.
func CleanText(s string) string {
	return strings.TrimSpace(stripBraces(s))
}

// StripTags drops HTML markup from s and keeps its text verbatim. Input is
// trusted bibliography text, not arbitrary HTML.
func StripTags(s string) string {
	if !strings.Contains(s, "<") {
		return s
	}
	var b strings.Builder
	z := html.NewTokenizer(strings.NewReader(s))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return b.String()
		case html.TextToken:
			b.Write(z.Raw())
		}
	}
}

// NormalizePages turns a "--" range separator into a single hyphen.
func NormalizePages(s string) string {
	return strings.ReplaceAll(s, "--", "-")
}

// VolumeIssue combines volume and issue into "v(i):", "v:" or "(i):".
func VolumeIssue(volume, issue string) string {
	switch {
	case volume != "" && issue != "":
		return volume + "(" + issue + "):"
	case volume != "":
		return volume + ":"
	case issue != "":
		return "(" + issue + "):"
	}
	return ""
}

// SplitTags splits a comma-separated tag list.
func SplitTags(s string) []string {
	var tags []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

// FirstToken returns s up to its first whitespace.
func FirstToken(s string) string {
	if f := strings.Fields(s); len(f) > 0 {
		return f[0]
	}
	return ""
}

func stripBraces(s string) string {
	if !strings.ContainsAny(s, "{}") {
		return s
	}
	return strings.NewReplacer("{", "", "}", "").Replace(s)
}

// FromRecord applies the field rules to a parsed record.
func FromRecord(rec *bibtex.Record) (Reference, error) {
	author, ok := rec.Get(bibtex.FieldAuthor)
	if !ok {
		return Reference{}, fmt.Errorf("missing required field 'author'")
	}
	yearText, ok := rec.Get(bibtex.FieldYear)
	if !ok {
		return Reference{}, fmt.Errorf("missing required field 'year'")
	}
	year, err := strconv.Atoi(yearText)
	if err != nil {
		return Reference{}, fmt.Errorf("invalid year: %s", yearText)
	}

	return Reference{
		Kind:      rec.Kind.String(),
		Key:       rec.Key,
		Authors:   ParseAuthors(author),
		Title:     CleanTitle(rec.Value(bibtex.FieldTitle)),
		Journal:   CleanText(rec.Value(bibtex.FieldJournal)),
		Publisher: CleanText(rec.Value(bibtex.FieldPublisher)),
		Volume:    rec.Value(bibtex.FieldVolume),
		Issue:     rec.Value(bibtex.FieldNumber),
		Pages:     NormalizePages(rec.Value(bibtex.FieldPages)),
		Year:      year,
		DOI:       rec.Value(bibtex.FieldDOI),
		PMID:      rec.Value(bibtex.FieldPMID),
		URL:       FirstToken(rec.Value(bibtex.FieldURL)),
		Tags:      SplitTags(rec.Value(bibtex.FieldTags)),
		Source: ImportSource{
			Type: "bibtex",
			ID:   rec.Key,
		},
	}, nil
}

// FromRecords converts parsed records, collecting per-record errors.
func FromRecords(recs []*bibtex.Record) ([]Reference, []error) {
	var refs []Reference
	var errs []error
	for i, rec := range recs {
		ref, err := FromRecord(rec)
		if err != nil {
			errs = append(errs, fmt.Errorf("entry %d (%s): %w", i+1, rec.Key, err))
			continue
		}
		refs = append(refs, ref)
	}
	return refs, errs
}
