package bibtex

import (
	"strings"
	"unicode"
)

type grammar int

const (
	// grammarStructured values end at the first closing brace and may not
	// contain braces.
	grammarStructured grammar = iota + 1
	// grammarNumeric values are structured values made only of digits.
	grammarNumeric
	// grammarFreeText values may hold unmatched brace groups and are captured
	// to the end of the line when the braces do not balance.
	grammarFreeText
)

type rule struct {
	field   Field
	grammar grammar
	// wraps is the number of brace pairs around a free-text value.
	wraps int
	// firstToken keeps only the text before the first whitespace.
	firstToken bool
}

// fieldRules is the closed set of source keys the grammar understands. Every
// other key is discarded.
var fieldRules = map[string]rule{
	"author":        {field: FieldAuthor, grammar: grammarFreeText, wraps: 1},
	"title":         {field: FieldTitle, grammar: grammarFreeText, wraps: 2},
	"journal":       {field: FieldJournal, grammar: grammarFreeText, wraps: 1},
	"doi":           {field: FieldDOI, grammar: grammarStructured},
	"mendeley-tags": {field: FieldTags, grammar: grammarStructured},
	"pages":         {field: FieldPages, grammar: grammarStructured},
	"pmid":          {field: FieldPMID, grammar: grammarStructured},
	"publisher":     {field: FieldPublisher, grammar: grammarStructured},
	"url":           {field: FieldURL, grammar: grammarStructured, firstToken: true},
	"volume":        {field: FieldVolume, grammar: grammarNumeric},
	"number":        {field: FieldNumber, grammar: grammarNumeric},
	"year":          {field: FieldYear, grammar: grammarNumeric},
}

func lookupRule(key string) (rule, bool) {
	r, ok := fieldRules[strings.ToLower(key)]
	return r, ok
}

func isKeyByte(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	return strings.IndexByte("_-:.+", c) >= 0
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func (p *parser) readKey() string {
	start := p.pos
	for !p.eof() && isKeyByte(p.src[p.pos]) {
		p.pos++
	}
	return p.src[start:p.pos]
}

// skipInline skips blanks on the current line.
func (p *parser) skipInline() {
	for !p.eof() && (p.src[p.pos] == ' ' || p.src[p.pos] == '\t') {
		p.pos++
	}
}

// skipSeparators skips whitespace and the commas between fields.
func (p *parser) skipSeparators() {
	for !p.eof() {
		switch p.src[p.pos] {
		case ' ', '\t', '\n', '\r', ',':
			p.pos++
		default:
			return
		}
	}
}

// matchBrace returns the offset of the brace closing the one at open,
// searching no further than limit.
func (p *parser) matchBrace(open, limit int) (int, bool) {
	depth := 0
	for i := open; i < limit; i++ {
		switch p.src[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i, true
			}
		}
	}
	return 0, false
}

// closesField reports whether the text after a value at end is only the
// punctuation that may follow a field: a comma, the entry's closing brace or
// the end of the line.
func (p *parser) closesField(end int) bool {
	rest := strings.TrimLeft(p.src[end:p.lineEnd(end)], " \t\r")
	return rest == "" || rest[0] == ',' || rest[0] == '}'
}

func (p *parser) readBare() string {
	start := p.pos
	for !p.eof() && !strings.ContainsRune(" \t\r\n,}", rune(p.src[p.pos])) {
		p.pos++
	}
	return p.src[start:p.pos]
}

// readStructured reads a value at p.pos that must not contain braces. It
// reports false, after recording a warning and skipping the value, when the
// value is malformed.
func (p *parser) readStructured(key string) (string, bool) {
	at := p.pos
	switch p.src[at] {
	case '{':
		lim := p.limit(at)
		if i := strings.IndexAny(p.src[at+1:lim], "{}"); i >= 0 && p.src[at+1+i] == '}' {
			p.pos = at + i + 2
			return strings.TrimSpace(p.src[at+1 : at+1+i]), true
		}
		if end, ok := p.matchBrace(at, lim); ok && p.closesField(end+1) {
			p.pos = end + 1
			p.warn(at, key, p.src[at+1:end], "braces are not allowed in this field")
			return "", false
		}
		le := p.lineEnd(at)
		p.pos = le
		p.warn(at, key, p.src[at:le], "unterminated value")
		return "", false
	case '"':
		le := p.lineEnd(at)
		if i := strings.IndexByte(p.src[at+1:le], '"'); i >= 0 {
			p.pos = at + i + 2
			return strings.TrimSpace(p.src[at+1 : at+1+i]), true
		}
		p.pos = le
		p.warn(at, key, p.src[at:le], "unterminated value")
		return "", false
	default:
		return p.readBare(), true
	}
}

func (p *parser) parseStructured(key string, r rule) {
	v, ok := p.readStructured(key)
	if !ok || v == "" {
		return
	}
	if r.firstToken {
		if i := strings.IndexFunc(v, unicode.IsSpace); i >= 0 {
			v = v[:i]
		}
	}
	p.cur.set(r.field, v)
}

func (p *parser) parseNumeric(key string, r rule) {
	at := p.pos
	v, ok := p.readStructured(key)
	if !ok {
		return
	}
	if !isDigits(v) {
		p.warn(at, key, v, "not a number")
		return
	}
	p.cur.set(r.field, v)
}

// parseFreeText captures an author, title or journal value. A value whose
// braces balance on its own line is taken as is. Otherwise the rest of the
// line is taken and the field's closing punctuation removed from its end.
// Unpaired braces are dropped from such an author list so they cannot merge
// with a name.
func (p *parser) parseFreeText(r rule) {
	at := p.pos
	le := p.lineEnd(at)
	var v string
	switch p.src[at] {
	case '{':
		if end, ok := p.matchBrace(at, le); ok && p.closesField(end+1) {
			v = p.src[at+1 : end]
			p.pos = end + 1
			if r.wraps > 1 {
				v = unwrapBraces(v)
			}
			break
		}
		v = strings.TrimRight(p.src[at+1:le], " \t\r")
		v = strings.TrimSuffix(v, ",")
		v = strings.TrimSuffix(v, "}")
		if r.wraps > 1 && strings.HasPrefix(v, "{") {
			v = strings.TrimSuffix(v[1:], "}")
		}
		if r.field == FieldAuthor {
			v = dropUnpaired(v)
		}
		p.pos = le
	case '"':
		if i := strings.IndexByte(p.src[at+1:le], '"'); i >= 0 {
			v = p.src[at+1 : at+1+i]
			p.pos = at + i + 2
		} else {
			v = strings.TrimRight(p.src[at+1:le], " \t\r")
			v = strings.TrimSuffix(strings.TrimSuffix(v, ","), `"`)
			p.pos = le
		}
		if r.wraps > 1 {
			v = unwrapBraces(v)
		}
	default:
		v = p.readBare()
	}
	if v = strings.TrimSpace(v); v != "" {
		p.cur.set(r.field, v)
	}
}

// discardValue skips the value of a field outside the grammar.
func (p *parser) discardValue() {
	at := p.pos
	switch p.src[at] {
	case '{':
		if end, ok := p.matchBrace(at, p.limit(at)); ok && p.closesField(end+1) {
			p.pos = end + 1
			return
		}
		p.pos = p.lineEnd(at)
	case '"':
		le := p.lineEnd(at)
		if i := strings.IndexByte(p.src[at+1:le], '"'); i >= 0 {
			p.pos = at + i + 2
			return
		}
		p.pos = le
	default:
		p.readBare()
	}
}

// unwrapBraces removes one brace pair enclosing all of s.
func unwrapBraces(s string) string {
	if len(s) < 2 || s[0] != '{' || s[len(s)-1] != '}' {
		return s
	}
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 && i != len(s)-1 {
				return s
			}
		}
	}
	return s[1 : len(s)-1]
}

// dropUnpaired removes every brace in s that has no partner.
func dropUnpaired(s string) string {
	if !strings.ContainsAny(s, "{}") {
		return s
	}
	drop := make(map[int]bool)
	var open []int
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '{':
			open = append(open, i)
		case '}':
			if len(open) == 0 {
				drop[i] = true
				continue
			}
			open = open[:len(open)-1]
		}
	}
	for _, i := range open {
		drop[i] = true
	}
	if len(drop) == 0 {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if !drop[i] {
			b.WriteByte(s[i])
		}
	}
	return b.String()
}
