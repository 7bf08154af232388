package bibtex

import (
	"reflect"
	"strings"
	"testing"
)

func TestSplitEntries(t *testing.T) {
	src := "preamble\n@article{a,\nyear={1}\n}\n  @book{b,\n}\n@article{c,\n}"
	chunks := splitEntries(src)
	if len(chunks) != 4 {
		t.Fatalf("splitEntries() returned %d chunks, want 4", len(chunks))
	}
	wantLines := []int{1, 2, 5, 7}
	for i, c := range chunks {
		if c.line != wantLines[i] {
			t.Errorf("chunk %d line = %d, want %d", i, c.line, wantLines[i])
		}
	}
	var joined strings.Builder
	for _, c := range chunks {
		joined.WriteString(c.text)
	}
	if joined.String() != src {
		t.Error("chunks do not reassemble the source")
	}
}

func TestParseConcurrent_MatchesParse(t *testing.T) {
	src := fullEntry + `
@comment{ignored}
@inproceedings{Conf,
author = {Doe, Jane},
title = {{A {talk}}},
volume = {x1},
year = {2019}
}
@article{NoYear,
author = {A, B.}
}
` + `@article{x, author={A, B.}, title={{T}}, year={2020}}` + "\n"

	want, err := Parse(src)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	for _, workers := range []int{0, 1, 3, 16} {
		got, err := ParseConcurrent(src, workers)
		if err != nil {
			t.Fatalf("ParseConcurrent(%d) error = %v", workers, err)
		}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("ParseConcurrent(%d) = %+v\nwant %+v", workers, got, want)
		}
	}
}

func TestParseConcurrent_StructuralError(t *testing.T) {
	src := fullEntry + "@article{Cut,\nauthor = {A, B.},\n" + fullEntry
	_, seqErr := Parse(src)
	res, err := ParseConcurrent(src, 4)
	if err == nil {
		t.Fatal("ParseConcurrent() expected error")
	}
	if res != nil {
		t.Error("ParseConcurrent() returned records with a structural error")
	}
	if seqErr == nil || err.Error() != seqErr.Error() {
		t.Errorf("ParseConcurrent() error = %v, Parse() error = %v", err, seqErr)
	}
}
