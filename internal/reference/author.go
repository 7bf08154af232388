package reference

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Author is one name from an author list. Institutional names have no
// surname and are kept whole in Literal.
type Author struct {
	Surname  string `json:"surname,omitempty"`
	Initials string `json:"initials,omitempty"`
	Literal  string `json:"literal,omitempty"`
}

// IsInstitution reports whether the author is an institutional name.
func (a Author) IsInstitution() bool {
	return a.Surname == ""
}

// String formats the author as "Surname Initials", e.g. "Czech JA".
func (a Author) String() string {
	if a.IsInstitution() {
		return a.Literal
	}
	if a.Initials == "" {
		return a.Surname
	}
	return a.Surname + " " + a.Initials
}

// ParseAuthors splits a BibTeX author list on " and ".
func ParseAuthors(s string) []Author {
	var authors []Author
	for _, name := range strings.Split(s, " and ") {
		if name = strings.TrimSpace(name); name == "" {
			continue
		}
		authors = append(authors, ParseAuthor(name))
	}
	return authors
}

// ParseAuthor parses "Surname, Given Names" or "Given Names Surname".
func ParseAuthor(name string) Author {
	name = strings.TrimSpace(name)
	if inner, ok := protected(name); ok {
		return Author{Literal: inner}
	}

	if surname, given, ok := strings.Cut(name, ","); ok {
		surname = stripBraces(strings.TrimSpace(surname))
		if surname == "" {
			return Author{Literal: name}
		}
		return Author{Surname: surname, Initials: upperLetters(given)}
	}

	parts := strings.Fields(name)
	if len(parts) < 2 {
		return Author{Literal: name}
	}
	var initials strings.Builder
	for _, p := range parts[:len(parts)-1] {
		r, _ := utf8.DecodeRuneInString(p)
		initials.WriteRune(r)
	}
	return Author{Surname: stripBraces(parts[len(parts)-1]), Initials: initials.String()}
}

// AuthorFromParts builds an author from separate surname and given names, as
// CSL-JSON stores them. A missing surname makes the author institutional.
func AuthorFromParts(surname, given, literal string) Author {
	surname = strings.TrimSpace(surname)
	if surname == "" {
		return Author{Literal: strings.TrimSpace(literal)}
	}
	return Author{Surname: surname, Initials: upperLetters(given)}
}

// upperLetters returns the upper-case letters of s in order.
func upperLetters(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsUpper(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// protected returns the text inside a brace pair that encloses all of s.
// BibTeX uses such pairs to keep corporate names whole.
func protected(s string) (string, bool) {
	if len(s) < 2 || s[0] != '{' || s[len(s)-1] != '}' {
		return "", false
	}
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 && i != len(s)-1 {
				return "", false
			}
		}
	}
	return strings.TrimSpace(s[1 : len(s)-1]), true
}
