// Package bibtex parses the BibTeX dialect written by the reference manager
// into structured records.
package bibtex

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Kind is the entry type of a record.
type Kind int

const (
	Article Kind = iota + 1
	InProceedings
)

func (k Kind) String() string {
	switch k {
	case Article:
		return "article"
	case InProceedings:
		return "inproceedings"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// kindOf maps an entry type name to a Kind. Types other than article and
// inproceedings are not records.
func kindOf(typ string) (Kind, bool) {
	switch strings.ToLower(typ) {
	case "article":
		return Article, true
	case "inproceedings":
		return InProceedings, true
	}
	return 0, false
}

// Field names a recognized record field.
type Field string

const (
	FieldAuthor    Field = "author"
	FieldTitle     Field = "title"
	FieldJournal   Field = "journal"
	FieldPublisher Field = "publisher"
	FieldVolume    Field = "volume"
	FieldNumber    Field = "number"
	FieldPages     Field = "pages"
	FieldDOI       Field = "doi"
	FieldPMID      Field = "pmid"
	FieldURL       Field = "url"
	FieldYear      Field = "year"
	FieldTags      Field = "tags"
)

// Fields lists every recognized field in canonical order.
var Fields = []Field{
	FieldAuthor, FieldTitle, FieldJournal, FieldPublisher,
	FieldVolume, FieldNumber, FieldPages,
	FieldDOI, FieldPMID, FieldURL, FieldYear, FieldTags,
}

// RequiredFields must be present for a record to be accepted.
var RequiredFields = []Field{FieldAuthor, FieldYear}

// Record is one parsed bibliography entry. Fields not found in the source are
// absent rather than empty.
type Record struct {
	Kind Kind
	Key  string // citation key
	Line int    // line of the entry-start marker

	values map[Field]string
}

// NewRecord builds a finalized record from field values.
func NewRecord(kind Kind, key string, values map[Field]string) *Record {
	rec := &Record{Kind: kind, Key: key, values: make(map[Field]string, len(values))}
	for f, v := range values {
		rec.values[f] = v
	}
	return rec
}

func newRecord(kind Kind, key string, line int) *Record {
	return &Record{Kind: kind, Key: key, Line: line, values: make(map[Field]string)}
}

// Get returns the value of f and whether it was present.
func (r *Record) Get(f Field) (string, bool) {
	v, ok := r.values[f]
	return v, ok
}

// Value returns the value of f, or "" if absent.
func (r *Record) Value(f Field) string {
	return r.values[f]
}

// Has reports whether f is present.
func (r *Record) Has(f Field) bool {
	_, ok := r.values[f]
	return ok
}

// Present returns the fields present in canonical order.
func (r *Record) Present() []Field {
	var out []Field
	for _, f := range Fields {
		if r.Has(f) {
			out = append(out, f)
		}
	}
	return out
}

// Map returns a copy of the field values.
func (r *Record) Map() map[Field]string {
	out := make(map[Field]string, len(r.values))
	for f, v := range r.values {
		out[f] = v
	}
	return out
}

func (r *Record) set(f Field, v string) {
	r.values[f] = v
}

// missing returns the required fields the record lacks.
func (r *Record) missing() []Field {
	var out []Field
	for _, f := range RequiredFields {
		if !r.Has(f) {
			out = append(out, f)
		}
	}
	return out
}

// MarshalJSON encodes the record as a flat object of its present fields.
func (r *Record) MarshalJSON() ([]byte, error) {
	type recordJSON struct {
		Kind   string           `json:"kind"`
		Key    string           `json:"key,omitempty"`
		Line   int              `json:"line,omitempty"`
		Fields map[Field]string `json:"fields"`
	}
	return json.Marshal(recordJSON{
		Kind:   r.Kind.String(),
		Key:    r.Key,
		Line:   r.Line,
		Fields: r.values,
	})
}
