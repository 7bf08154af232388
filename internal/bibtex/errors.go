package bibtex

import (
	"errors"
	"fmt"
	"strings"
)

// ErrStructural is wrapped by every StructuralError.
var ErrStructural = errors.New("malformed bibliography")

// StructuralError aborts a parse. Entry boundaries cannot be recovered past it.
type StructuralError struct {
	Line    int
	Msg     string
	Context string // source text around Line
}

func (e *StructuralError) Error() string {
	if e.Context == "" {
		return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
	}
	return fmt.Sprintf("line %d: %s\n%s", e.Line, e.Msg, e.Context)
}

func (e *StructuralError) Unwrap() error {
	return ErrStructural
}

// FieldError rejects one entry that lacks a required field.
type FieldError struct {
	Key     string
	Line    int
	Missing []Field
}

func (e *FieldError) Error() string {
	names := make([]string, len(e.Missing))
	for i, f := range e.Missing {
		names[i] = string(f)
	}
	return fmt.Sprintf("entry %q (line %d): missing required field %s",
		e.Key, e.Line, strings.Join(names, ", "))
}

// ValueError reports a malformed field value. The field is treated as absent.
type ValueError struct {
	Key    string
	Line   int
	Field  string // source key as written
	Value  string
	Reason string
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("entry %q (line %d): field %s = %q: %s",
		e.Key, e.Line, e.Field, e.Value, e.Reason)
}

// IsStructural reports whether err aborted a parse.
func IsStructural(err error) bool {
	return errors.Is(err, ErrStructural)
}
