package bibtex

import (
	"fmt"
	"sort"
	"strings"
)

// Result is the outcome of parsing one bibliography source.
type Result struct {
	Records  []*Record     // accepted records in source order
	Rejected []*FieldError // entries missing a required field
	Warnings []*ValueError // malformed values that were dropped
	Skipped  int           // entries of other types (@comment, @book, ...)
}

// Parse parses bibliography text. A structural error aborts the parse and no
// records are returned; field and value errors are collected in the Result.
func Parse(src string) (*Result, error) {
	return parseText(Preprocess(src), 1)
}

// parseText parses preprocessed text whose first line is firstLine.
func parseText(src string, firstLine int) (*Result, error) {
	p := newParser(src, firstLine)
	if err := p.parse(); err != nil {
		return nil, err
	}
	return p.res, nil
}

// parser holds the state of a single parse call.
type parser struct {
	src       string
	pos       int
	firstLine int
	lines     []int // offset of each line start
	entries   []int // offsets of lines whose first non-blank byte is '@'

	cur *Record
	res *Result
}

func newParser(src string, firstLine int) *parser {
	p := &parser{src: src, firstLine: firstLine, res: &Result{}}
	p.lines = append(p.lines, 0)
	for i := 0; i < len(src); i++ {
		if src[i] == '\n' {
			p.lines = append(p.lines, i+1)
		}
	}
	for _, off := range p.lines {
		if rest := strings.TrimLeft(src[off:], " \t"); strings.HasPrefix(rest, "@") {
			p.entries = append(p.entries, off)
		}
	}
	return p
}

func (p *parser) parse() error {
	for {
		at := strings.IndexByte(p.src[p.pos:], '@')
		if at < 0 {
			return nil
		}
		p.pos += at
		if err := p.parseEntry(); err != nil {
			return err
		}
	}
}

// parseEntry parses the entry whose '@' is at p.pos.
func (p *parser) parseEntry() error {
	start := p.pos
	p.pos++
	typ := p.readKey()
	p.skipInline()
	if typ == "" || p.eof() || p.src[p.pos] != '{' {
		// A stray '@' outside an entry is ignored like any other junk.
		p.pos = start + 1
		return nil
	}

	kind, ok := kindOf(typ)
	if !ok {
		p.res.Skipped++
		if end, ok := p.matchBrace(p.pos, p.limit(p.pos)); ok {
			p.pos = end + 1
		} else {
			p.pos = p.limit(p.pos)
		}
		return nil
	}
	p.pos++

	keyEnd := p.pos
	for keyEnd < len(p.src) && !strings.ContainsRune(",}\n", rune(p.src[keyEnd])) {
		keyEnd++
	}
	p.cur = newRecord(kind, strings.TrimSpace(p.src[p.pos:keyEnd]), p.lineOf(start))
	p.pos = keyEnd
	if !p.eof() && p.src[p.pos] == ',' {
		p.pos++
	}

	for {
		p.skipSeparators()
		if p.eof() || p.atEntryLine() {
			key := p.cur.Key
			p.cur = nil
			return p.structural(start, "entry %q is not closed", key)
		}
		if p.src[p.pos] == '}' {
			p.pos++
			p.finalize()
			return nil
		}
		if err := p.parseField(); err != nil {
			p.cur = nil
			return err
		}
	}
}

// parseField parses one `key = value` assignment inside the current entry.
func (p *parser) parseField() error {
	fieldStart := p.pos
	key := p.readKey()
	if key == "" {
		return p.structural(fieldStart, "unexpected %q in entry %q", p.src[p.pos], p.cur.Key)
	}
	p.skipInline()
	if p.eof() || p.src[p.pos] != '=' {
		return p.structural(fieldStart, "field %q has no '='", key)
	}
	p.pos++
	p.skipInline()
	if p.eof() || strings.ContainsRune(",}\n", rune(p.src[p.pos])) {
		return p.structural(fieldStart, "field %q has no value", key)
	}

	rule, ok := lookupRule(key)
	if !ok {
		p.discardValue()
		return nil
	}
	switch rule.grammar {
	case grammarStructured:
		p.parseStructured(key, rule)
	case grammarNumeric:
		p.parseNumeric(key, rule)
	case grammarFreeText:
		p.parseFreeText(rule)
	}
	return nil
}

// finalize closes the current record and either accepts or rejects it.
func (p *parser) finalize() {
	rec := p.cur
	p.cur = nil
	if missing := rec.missing(); len(missing) > 0 {
		p.res.Rejected = append(p.res.Rejected, &FieldError{Key: rec.Key, Line: rec.Line, Missing: missing})
		return
	}
	p.res.Records = append(p.res.Records, rec)
}

func (p *parser) warn(at int, key, value, reason string) {
	p.res.Warnings = append(p.res.Warnings, &ValueError{
		Key:    p.cur.Key,
		Line:   p.lineOf(at),
		Field:  key,
		Value:  value,
		Reason: reason,
	})
}

func (p *parser) structural(at int, format string, args ...interface{}) error {
	return &StructuralError{
		Line:    p.lineOf(at),
		Msg:     fmt.Sprintf(format, args...),
		Context: p.context(at),
	}
}

func (p *parser) eof() bool {
	return p.pos >= len(p.src)
}

// lineIndex returns the 0-based index of the line containing off.
func (p *parser) lineIndex(off int) int {
	return sort.Search(len(p.lines), func(i int) bool { return p.lines[i] > off }) - 1
}

func (p *parser) lineOf(off int) int {
	return p.firstLine + p.lineIndex(off)
}

// lineEnd returns the offset of the newline ending the line containing off.
func (p *parser) lineEnd(off int) int {
	if i := strings.IndexByte(p.src[off:], '\n'); i >= 0 {
		return off + i
	}
	return len(p.src)
}

// limit returns the start of the next entry line after off. No value scan may
// run past it.
func (p *parser) limit(off int) int {
	i := sort.Search(len(p.entries), func(i int) bool { return p.entries[i] > off })
	if i < len(p.entries) {
		return p.entries[i]
	}
	return len(p.src)
}

func (p *parser) atEntryLine() bool {
	i := p.lineIndex(p.pos)
	if strings.TrimLeft(p.src[p.lines[i]:p.pos], " \t") != "" {
		return false
	}
	j := sort.SearchInts(p.entries, p.lines[i])
	return j < len(p.entries) && p.entries[j] == p.lines[i]
}

// context returns up to three lines of source starting at the line of off,
// stopping at the next entry.
func (p *parser) context(off int) string {
	const maxLines, maxWidth = 3, 120
	i := p.lineIndex(off)
	lim := p.limit(off)
	var out []string
	for n := 0; n < maxLines && i+n < len(p.lines); n++ {
		start := p.lines[i+n]
		if n > 0 && start >= lim {
			break
		}
		line := strings.TrimRight(p.src[start:p.lineEnd(start)], " \t")
		if r := []rune(line); len(r) > maxWidth {
			line = string(r[:maxWidth]) + "..."
		}
		out = append(out, "\t"+line)
	}
	return strings.Join(out, "\n")
}
