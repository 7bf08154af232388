// Package export writes references back out as BibTeX and cross-checks
// reference sets from different sources.
package export

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mmbios/bibhtml/internal/reference"
)

// ToBibTeX converts a reference to the reference manager's BibTeX layout:
// one unindented field per line in key order. Parsing the result gives back
// the same reference.
func ToBibTeX(ref reference.Reference) string {
	var fields []string
	add := func(key, value string) {
		if value != "" {
			fields = append(fields, fmt.Sprintf("%s = {%s}", key, value))
		}
	}

	add("author", formatAuthors(ref.Authors))
	add("doi", ref.DOI)
	add("journal", escapeLatex(ref.Journal))
	add("mendeley-tags", strings.Join(ref.Tags, ","))
	add("number", ref.Issue)
	add("pages", ref.Pages)
	add("pmid", ref.PMID)
	add("publisher", ref.Publisher)
	if ref.Title != "" {
		add("title", "{"+escapeLatex(ref.Title)+"}")
	}
	add("url", ref.URL)
	add("volume", ref.Volume)
	add("year", strconv.Itoa(ref.Year))

	return fmt.Sprintf("@%s{%s,\n%s\n}\n", entryType(ref), citationKey(ref), strings.Join(fields, ",\n"))
}

// ToBibTeXList converts multiple references to BibTeX format.
func ToBibTeXList(refs []reference.Reference) string {
	var entries []string
	for _, ref := range refs {
		entries = append(entries, ToBibTeX(ref))
	}
	return strings.Join(entries, "\n")
}

// entryType returns the BibTeX entry type for a reference.
func entryType(ref reference.Reference) string {
	if ref.Kind == "inproceedings" {
		return "inproceedings"
	}
	return "article"
}

// citationKey falls back to SurnameYear when the reference has no key.
func citationKey(ref reference.Reference) string {
	if ref.Key != "" {
		return ref.Key
	}
	name := "anon"
	if len(ref.Authors) > 0 {
		a := ref.Authors[0]
		name = a.Surname
		if a.IsInstitution() {
			name = a.Literal
		}
	}
	return strings.Join(strings.Fields(name), "") + strconv.Itoa(ref.Year)
}

// formatAuthors formats authors as "Surname, J. A. and {Institution}".
func formatAuthors(authors []reference.Author) string {
	var formatted []string
	for _, a := range authors {
		switch {
		case a.IsInstitution():
			formatted = append(formatted, "{"+escapeLatex(a.Literal)+"}")
		case a.Initials == "":
			formatted = append(formatted, escapeLatex(a.Surname)+",")
		default:
			formatted = append(formatted, fmt.Sprintf("%s, %s", escapeLatex(a.Surname), spellInitials(a.Initials)))
		}
	}
	return strings.Join(formatted, " and ")
}

// spellInitials turns "JA" into "J. A.".
func spellInitials(initials string) string {
	parts := make([]string, 0, len(initials))
	for _, r := range initials {
		parts = append(parts, string(r)+".")
	}
	return strings.Join(parts, " ")
}

// latexReplacer writes characters in the escaped forms the parser reads back.
var latexReplacer = strings.NewReplacer(
	"&", `{\&}`,
	"%", `{\%}`,
	"#", `{\#}`,
	"_", `{\_}`,
	"μ", `$\mu$`,
)

// escapeLatex escapes special LaTeX characters in free text.
func escapeLatex(s string) string {
	return latexReplacer.Replace(s)
}
