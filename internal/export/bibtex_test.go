package export

import (
	"reflect"
	"strings"
	"testing"

	"github.com/mmbios/bibhtml/internal/bibtex"
	"github.com/mmbios/bibhtml/internal/reference"
)

func sampleRef() reference.Reference {
	return reference.Reference{
		Kind: "article",
		Key:  "Czech2017",
		Authors: []reference.Author{
			{Surname: "Czech", Initials: "JA"},
			{Surname: "van der Waals", Initials: "JD"},
			{Literal: "The MCell Team"},
		},
		Title:   "Ca_2 & 10% of μM channels",
		Journal: "Biophys J",
		Volume:  "112",
		Issue:   "3",
		Pages:   "100-110",
		Year:    2017,
		DOI:     "10.1000/xyz",
		PMID:    "123456",
		URL:     "http://example.org/paper",
		Tags:    []string{"MMBIOS1-TRD1", "INPRESS"},
		Source:  reference.ImportSource{Type: "bibtex", ID: "Czech2017"},
	}
}

func TestToBibTeX_Layout(t *testing.T) {
	got := ToBibTeX(sampleRef())

	if !strings.HasPrefix(got, "@article{Czech2017,\n") {
		t.Errorf("ToBibTeX() should start with @article{Czech2017, got:\n%s", got)
	}
	for _, want := range []string{
		`author = {Czech, J. A. and van der Waals, J. D. and {The MCell Team}},`,
		`title = {{Ca{\_}2 {\&} 10{\%} of $\mu$M channels}},`,
		`mendeley-tags = {MMBIOS1-TRD1,INPRESS},`,
		`number = {3},`,
		"year = {2017}\n}",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("ToBibTeX() should contain %q, got:\n%s", want, got)
		}
	}
	if strings.Index(got, "author =") > strings.Index(got, "doi =") {
		t.Errorf("fields are not in key order:\n%s", got)
	}
}

func TestToBibTeX_RoundTrip(t *testing.T) {
	refs := []reference.Reference{sampleRef()}
	minimal := reference.Reference{
		Kind:    "inproceedings",
		Key:     "Smith2015",
		Authors: []reference.Author{{Surname: "Smith"}},
		Title:   "A Conference Paper",
		Year:    2015,
		Source:  reference.ImportSource{Type: "bibtex", ID: "Smith2015"},
	}
	refs = append(refs, minimal)

	res, err := bibtex.Parse(ToBibTeXList(refs))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(res.Warnings) > 0 || len(res.Rejected) > 0 {
		t.Fatalf("Parse() warnings = %v, rejected = %v", res.Warnings, res.Rejected)
	}
	got, errs := reference.FromRecords(res.Records)
	if len(errs) > 0 {
		t.Fatalf("FromRecords() errors = %v", errs)
	}
	if !reflect.DeepEqual(got, refs) {
		t.Errorf("round trip =\n%+v\nwant\n%+v", got, refs)
	}
}

func TestCitationKey(t *testing.T) {
	tests := []struct {
		name string
		ref  reference.Reference
		want string
	}{
		{"explicit", reference.Reference{Key: "K1", Year: 2020}, "K1"},
		{"surname", reference.Reference{Authors: []reference.Author{{Surname: "van Dyke", Initials: "A"}}, Year: 2020}, "vanDyke2020"},
		{"institution", reference.Reference{Authors: []reference.Author{{Literal: "MCell Team"}}, Year: 2019}, "MCellTeam2019"},
		{"no authors", reference.Reference{Year: 2018}, "anon2018"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := citationKey(tt.ref); got != tt.want {
				t.Errorf("citationKey() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormatAuthors(t *testing.T) {
	tests := []struct {
		name    string
		authors []reference.Author
		want    string
	}{
		{"single author", []reference.Author{{Surname: "Smith", Initials: "J"}}, "Smith, J."},
		{"two authors", []reference.Author{{Surname: "Smith", Initials: "J"}, {Surname: "Doe", Initials: "JM"}}, "Smith, J. and Doe, J. M."},
		{"surname only", []reference.Author{{Surname: "Smith"}}, "Smith,"},
		{"institution", []reference.Author{{Literal: "WHO"}}, "{WHO}"},
		{"accented initial", []reference.Author{{Surname: "Tóth", Initials: "Á"}}, "Tóth, Á."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatAuthors(tt.authors); got != tt.want {
				t.Errorf("formatAuthors() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEscapeLatex(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"plain", "plain"},
		{"A & B", `A {\&} B`},
		{"50%", `50{\%}`},
		{"x_1 #2", `x{\_}1 {\#}2`},
		{"5 μm", `5 $\mu$m`},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := escapeLatex(tt.input); got != tt.want {
				t.Errorf("escapeLatex(%q) = %q, want %q", tt.input, got, tt.want)
			}
			if back := bibtex.ReplaceTeXSymbols(escapeLatex(tt.input)); back != tt.input {
				t.Errorf("ReplaceTeXSymbols(escapeLatex(%q)) = %q", tt.input, back)
			}
		})
	}
}
