package importer

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"

	"github.com/mmbios/bibhtml/internal/bibtex"
	"github.com/mmbios/bibhtml/internal/reference"
)

func TestFlexibleString_String(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"string year", `"2017"`, "2017"},
		{"number year", `2017`, "2017"},
		{"null value", `null`, ""},
		{"float number", `2017.0`, "2017.0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var f FlexibleString
			if err := json.Unmarshal([]byte(tt.input), &f); err != nil {
				t.Fatalf("UnmarshalJSON() error = %v", err)
			}
			if got := f.String(); got != tt.want {
				t.Errorf("String() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFlexibleString_InvalidInput(t *testing.T) {
	for _, input := range []string{`[1,2,3]`, `{"key": "value"}`} {
		var f FlexibleString
		if err := json.Unmarshal([]byte(input), &f); err == nil {
			t.Errorf("UnmarshalJSON() expected error for input %s", input)
		}
	}
}

func TestParseBibJSON_ValidEntry(t *testing.T) {
	data := []byte(`[{
		"id": "czech2017",
		"type": "article-journal",
		"title": "Rapid creation of <i>Monte Carlo</i> models.",
		"container-title": "Biophys J",
		"author": [
			{"family": "Czech", "given": "Jacob A."},
			{"literal": "The MCell Team"}
		],
		"issued": {"date-parts": [[2017, 3]]},
		"volume": 112,
		"issue": "3",
		"page": "100--110",
		"DOI": "10.1000/xyz",
		"PMID": "123456",
		"URL": "http://example.org/paper http://mirror.example.org"
	}]`)

	refs, errs := ParseBibJSON(data)
	if len(errs) > 0 {
		t.Fatalf("ParseBibJSON() returned errors: %v", errs)
	}
	if len(refs) != 1 {
		t.Fatalf("ParseBibJSON() returned %d refs, want 1", len(refs))
	}

	want := reference.Reference{
		Kind: "article",
		Key:  "czech2017",
		Authors: []reference.Author{
			{Surname: "Czech", Initials: "JA"},
			{Literal: "The MCell Team"},
		},
		Title:   "Rapid creation of Monte Carlo models",
		Journal: "Biophys J",
		Volume:  "112",
		Issue:   "3",
		Pages:   "100-110",
		Year:    2017,
		DOI:     "10.1000/xyz",
		PMID:    "123456",
		URL:     "http://example.org/paper",
		Source:  reference.ImportSource{Type: "bibjson", ID: "czech2017"},
	}
	if !reflect.DeepEqual(refs[0], want) {
		t.Errorf("ParseBibJSON() =\n%+v\nwant\n%+v", refs[0], want)
	}
}

func TestParseBibJSON_StringYearAndConference(t *testing.T) {
	data := []byte(`[{"id": 7, "type": "paper-conference", "title": "T", "issued": {"date-parts": [["2015"]]}}]`)
	refs, errs := ParseBibJSON(data)
	if len(errs) > 0 {
		t.Fatalf("ParseBibJSON() returned errors: %v", errs)
	}
	if refs[0].Year != 2015 || refs[0].Kind != "inproceedings" || refs[0].Key != "7" {
		t.Errorf("ref = %+v", refs[0])
	}
}

func TestParseBibJSON_EntryErrors(t *testing.T) {
	tests := []struct {
		name    string
		json    string
		wantErr string
	}{
		{"missing title", `{"id": "a", "issued": {"date-parts": [[2017]]}}`, "missing required field 'title'"},
		{"missing issued", `{"id": "a", "title": "T"}`, "missing required field 'issued'"},
		{"bad year", `{"id": "a", "title": "T", "issued": {"date-parts": [["soon"]]}}`, "invalid year: soon"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := []byte(`[` + tt.json + `, {"id": "ok", "title": "Good", "issued": {"date-parts": [[2016]]}}]`)
			refs, errs := ParseBibJSON(data)
			if len(errs) != 1 {
				t.Fatalf("got %d errors, want 1: %v", len(errs), errs)
			}
			if !strings.Contains(errs[0].Error(), tt.wantErr) {
				t.Errorf("error = %q, want it to contain %q", errs[0], tt.wantErr)
			}
			if !strings.HasPrefix(errs[0].Error(), "entry 1 (a)") {
				t.Errorf("error = %q, want entry prefix", errs[0])
			}
			if len(refs) != 1 || refs[0].Key != "ok" {
				t.Errorf("refs = %+v, want the valid entry only", refs)
			}
		})
	}
}

func TestParseBibJSON_InvalidJSON(t *testing.T) {
	refs, errs := ParseBibJSON([]byte(`{not json`))
	if refs != nil || len(errs) != 1 {
		t.Fatalf("ParseBibJSON() = %v, %v", refs, errs)
	}
	if !strings.Contains(errs[0].Error(), "parsing BibJSON") {
		t.Errorf("error = %q", errs[0])
	}
}

func TestTagsByPMIDAndApplyTags(t *testing.T) {
	records := []*bibtex.Record{
		bibtex.NewRecord(bibtex.Article, "a", map[bibtex.Field]string{
			bibtex.FieldPMID: "111",
			bibtex.FieldTags: "MMBIOS1-TRD1, INPRESS",
		}),
		bibtex.NewRecord(bibtex.Article, "b", map[bibtex.Field]string{
			bibtex.FieldTags: "MMBIOS1-TRD2",
		}),
		bibtex.NewRecord(bibtex.Article, "c", map[bibtex.Field]string{
			bibtex.FieldPMID: "333",
		}),
	}
	tags := TagsByPMID(records)
	want := map[string][]string{"111": {"MMBIOS1-TRD1", "INPRESS"}}
	if !reflect.DeepEqual(tags, want) {
		t.Errorf("TagsByPMID() = %v, want %v", tags, want)
	}

	refs := []reference.Reference{{PMID: "111"}, {PMID: "222"}, {}}
	if n := ApplyTags(refs, tags); n != 1 {
		t.Errorf("ApplyTags() = %d, want 1", n)
	}
	if !reflect.DeepEqual(refs[0].Tags, []string{"MMBIOS1-TRD1", "INPRESS"}) {
		t.Errorf("refs[0].Tags = %v", refs[0].Tags)
	}
	if refs[1].Tags != nil || refs[2].Tags != nil {
		t.Error("tags applied to unmatched references")
	}
}
