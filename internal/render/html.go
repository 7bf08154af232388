// Package render writes references as the HTML fragment embedded in the
// publications page.
package render

import (
	"bytes"
	"html/template"

	"github.com/mmbios/bibhtml/internal/category"
	"github.com/mmbios/bibhtml/internal/reference"
)

// DefaultLinkBase is prefixed to category paths when no base is configured.
const DefaultLinkBase = "http://mmbios.org"

// compiledTemplate is parsed at init time to fail fast on template errors.
var compiledTemplate *template.Template

func init() {
	compiledTemplate = template.Must(template.New("page").Parse(pageTemplate))
}

// Options configures HTML generation.
type Options struct {
	LinkBase   string         // prefix for category links
	Categories category.Table // nil means category.Default()
}

// DefaultOptions returns the options used by the publications page.
func DefaultOptions() Options {
	return Options{
		LinkBase:   DefaultLinkBase,
		Categories: category.Default(),
	}
}

type pageData struct {
	Groups []groupData
}

type groupData struct {
	Year    int
	Entries []entryData
}

type entryData struct {
	Authors     []string
	Year        int
	Title       string
	URL         string
	Journal     string
	VolumeIssue string
	Pages       string
	DOI         string
	PMID        string
	Links       []category.Link
	InPress     bool
}

// HasLocation reports whether the volume/issue/pages fragment is present.
func (e entryData) HasLocation() bool {
	return e.VolumeIssue != "" || e.Pages != ""
}

// HTML renders refs grouped by year, newest first.
func HTML(refs []reference.Reference, opts Options) (string, error) {
	table := opts.Categories
	if table == nil {
		table = category.Default()
	}

	var data pageData
	for _, g := range GroupByYear(refs) {
		gd := groupData{Year: g.Year}
		for _, ref := range g.References {
			gd.Entries = append(gd.Entries, newEntry(ref, table, opts.LinkBase))
		}
		data.Groups = append(data.Groups, gd)
	}

	var buf bytes.Buffer
	if err := compiledTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func newEntry(ref reference.Reference, table category.Table, linkBase string) entryData {
	authors := make([]string, len(ref.Authors))
	for i, a := range ref.Authors {
		authors[i] = a.String()
	}
	links, inPress := table.Resolve(ref.Tags, linkBase)
	return entryData{
		Authors:     authors,
		Year:        ref.Year,
		Title:       ref.Title,
		URL:         ref.URL,
		Journal:     ref.Journal,
		VolumeIssue: ref.VolumeIssue(),
		Pages:       ref.Pages,
		DOI:         ref.DOI,
		PMID:        ref.PMID,
		Links:       links,
		InPress:     inPress,
	}
}

const pageTemplate = `<meta charset="UTF-8">
{{range .Groups}}<h1 id="{{.Year}}"><span style="color: #993300;">{{.Year}}</span>
</h1>
<div class="biblio">
	<ul>
{{range .Entries}}		<li>
			<p>{{template "entry" .}}
			</p>
		</li>
{{end}}	</ul>
</div>
{{end}}
{{- define "entry" -}}
{{range $i, $a := .Authors}}{{if $i}}, {{end}}<span class="author">{{$a}}</span>{{end}}.
{{- ""}} <span class="pubdate">({{.Year}}) </span>
{{- ""}} <span class="title" style="color: #2ebbbd;">{{if .URL}}<a href="{{.URL}}">{{.Title}}</a>{{else}}{{.Title}}{{end}}</span>.
{{- if .Journal}} <i><span class="journal">{{.Journal}}</span></i>.{{end}}
{{- if .HasLocation}} {{if .VolumeIssue}}<span class="volume">{{.VolumeIssue}}</span>{{end}}{{if .Pages}}<span class="mpgn">{{.Pages}}</span>{{end}}.{{end}}
{{- if .DOI}} doi: {{.DOI}}.{{end}}
{{- if .PMID}} <span class="pmid">PMID:{{.PMID}}</span>{{end}}
{{- range .Links}} <a href="{{.Href}}" class="{{.Class}}">{{.Label}}</a>{{end}}
{{- if .InPress}} in press{{end}}
{{- end}}`
