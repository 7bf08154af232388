package main

import (
	"testing"

	"github.com/mmbios/bibhtml/internal/reference"
)

func TestDefaultOutputPath(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"library.bib", "library.html"},
		{"data/mmbios.bib", "data/mmbios.html"},
		{"export.json", "export.html"},
		{"noext", "noext.html"},
		{"dir.v2/refs", "dir.v2/refs.html"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := defaultOutputPath(tt.input); got != tt.want {
				t.Errorf("defaultOutputPath(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestTruncateString(t *testing.T) {
	tests := []struct {
		name   string
		s      string
		maxLen int
		want   string
	}{
		{"short", "Title", 10, "Title"},
		{"exact", "0123456789", 10, "0123456789"},
		{"long", "Spatial modeling of cell signaling", 10, "Spatial..."},
		{"multibyte", "Čech complexes of proteins", 8, "Čech ..."},
		{"empty", "", 5, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := truncateString(tt.s, tt.maxLen); got != tt.want {
				t.Errorf("truncateString(%q, %d) = %q, want %q", tt.s, tt.maxLen, got, tt.want)
			}
		})
	}
}

func TestFormatAuthorsShort(t *testing.T) {
	authors := []reference.Author{
		{Surname: "Czech", Initials: "J"},
		{Surname: "Faeder", Initials: "JR"},
		{Surname: "Bahar", Initials: "I"},
		{Literal: "MMBioS Consortium"},
	}
	tests := []struct {
		name     string
		authors  []reference.Author
		maxCount int
		want     string
	}{
		{"none", nil, 3, ""},
		{"one", authors[:1], 3, "Czech J"},
		{"at limit", authors[:3], 3, "Czech J, Faeder JR, Bahar I"},
		{"over limit", authors, 2, "Czech J, Faeder JR, et al."},
		{"institution", authors[3:], 3, "MMBioS Consortium"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatAuthorsShort(tt.authors, tt.maxCount); got != tt.want {
				t.Errorf("formatAuthorsShort() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPlural(t *testing.T) {
	tests := []struct {
		n    int
		word string
		want string
	}{
		{0, "reference", "references"},
		{1, "reference", "reference"},
		{2, "reference", "references"},
		{1, "entry", "entry"},
		{2, "entry", "entries"},
		{2, "key", "keys"},
		{3, "year", "years"},
	}
	for _, tt := range tests {
		if got := plural(tt.n, tt.word); got != tt.want {
			t.Errorf("plural(%d, %q) = %q, want %q", tt.n, tt.word, got, tt.want)
		}
	}
}

func TestFormatCount(t *testing.T) {
	if got := formatCount(1234); got != "1,234" {
		t.Errorf("formatCount(1234) = %q, want %q", got, "1,234")
	}
	if got := formatSize(2048); got != "2.0 kB" {
		t.Errorf("formatSize(2048) = %q, want %q", got, "2.0 kB")
	}
}
