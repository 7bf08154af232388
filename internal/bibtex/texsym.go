package bibtex

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// texSymbols maps the TeX escapes the reference manager emits to literal text.
// No replacement contains a key, so substitution is idempotent.
var texSymbols = [][2]string{
	{`{\'{a}}`, "á"},
	{`{\'{e}}`, "é"},
	{`{\'{i}}`, "í"},
	{`{\"{u}}`, "ű"},
	{`{\^{i}}`, "î"},
	{`{\v{c}}`, "č"},
	{`{\'{o}}`, "ó"},
	{`{\"{o}}`, "ó"},
	{`{\{o}}`, "ø"},
	{`{\o}`, "ø"},
	{`{\%}`, "%"},
	{`{\#}`, "#"},
	{`{\_}`, "_"},
	{`{\~{}}`, "~"},
	{`{\textless}`, ""},
	{`{\&}`, "&"},
	{`{\textgreater}`, ""},
	{`$\mu$`, "μ"},
}

var texReplacer = func() *strings.Replacer {
	pairs := make([]string, 0, 2*len(texSymbols))
	for _, s := range texSymbols {
		pairs = append(pairs, s[0], s[1])
	}
	return strings.NewReplacer(pairs...)
}()

// ReplaceTeXSymbols substitutes known TeX escapes with their characters.
func ReplaceTeXSymbols(s string) string {
	return texReplacer.Replace(s)
}

// Preprocess prepares raw source text for the grammar: line endings are
// normalized, TeX escapes replaced and the result put in NFC form.
func Preprocess(src string) string {
	src = strings.ReplaceAll(src, "\r\n", "\n")
	return norm.NFC.String(ReplaceTeXSymbols(src))
}
