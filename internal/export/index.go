package export

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mmbios/bibhtml/internal/reference"
)

// Index looks references up by identifier.
type Index struct {
	refs  []reference.Reference
	DOIs  map[string][]int // normalized DOI to reference positions
	PMIDs map[string][]int
}

// NewIndex indexes refs by normalized DOI and by PMID.
func NewIndex(refs []reference.Reference) *Index {
	idx := &Index{
		refs:  refs,
		DOIs:  make(map[string][]int),
		PMIDs: make(map[string][]int),
	}
	for i, ref := range refs {
		if doi := normalizeDOI(ref.DOI); doi != "" {
			idx.DOIs[doi] = append(idx.DOIs[doi], i)
		}
		if pmid := strings.TrimSpace(ref.PMID); pmid != "" {
			idx.PMIDs[pmid] = append(idx.PMIDs[pmid], i)
		}
	}
	return idx
}

// Lookup finds the reference matching ref by PMID, then by DOI.
func (idx *Index) Lookup(ref reference.Reference) (reference.Reference, bool) {
	if pos, ok := idx.PMIDs[strings.TrimSpace(ref.PMID)]; ok {
		return idx.refs[pos[0]], true
	}
	if pos, ok := idx.DOIs[normalizeDOI(ref.DOI)]; ok {
		return idx.refs[pos[0]], true
	}
	return reference.Reference{}, false
}

// Duplicate is a DOI shared by more than one reference.
type Duplicate struct {
	DOI  string   `json:"doi"`
	Keys []string `json:"keys"`
}

// Duplicates lists DOIs that appear on more than one reference, sorted by DOI.
func (idx *Index) Duplicates() []Duplicate {
	var dups []Duplicate
	for doi, pos := range idx.DOIs {
		if len(pos) < 2 {
			continue
		}
		d := Duplicate{DOI: doi}
		for _, i := range pos {
			d.Keys = append(d.Keys, idx.refs[i].Key)
		}
		dups = append(dups, d)
	}
	sort.Slice(dups, func(i, j int) bool { return dups[i].DOI < dups[j].DOI })
	return dups
}

// Discrepancy kinds.
const (
	MissingFromBibTeX  = "missing_from_bibtex"
	MissingFromBibJSON = "missing_from_bibjson"
	YearMismatch       = "year_mismatch"
	TitleMismatch      = "title_mismatch"
)

// Discrepancy is a difference between the BibTeX and BibJSON exports.
type Discrepancy struct {
	Kind   string `json:"kind"`
	Key    string `json:"key"`
	Detail string `json:"detail"`
}

// CrossCheck compares the two exports of the same library. References are
// matched by PMID, then by DOI. References with neither identifier are not
// compared.
func CrossCheck(bib, json []reference.Reference) []Discrepancy {
	var out []Discrepancy
	bibIdx := NewIndex(bib)
	jsonIdx := NewIndex(json)

	for _, j := range json {
		if !hasID(j) {
			continue
		}
		b, ok := bibIdx.Lookup(j)
		if !ok {
			out = append(out, Discrepancy{MissingFromBibTeX, j.Key, identify(j)})
			continue
		}
		if b.Year != j.Year {
			out = append(out, Discrepancy{YearMismatch, b.Key, fmt.Sprintf("bibtex %d, bibjson %d", b.Year, j.Year)})
		}
		if !sameTitle(b.Title, j.Title) {
			out = append(out, Discrepancy{TitleMismatch, b.Key, fmt.Sprintf("bibtex %q, bibjson %q", b.Title, j.Title)})
		}
	}
	for _, b := range bib {
		if !hasID(b) {
			continue
		}
		if _, ok := jsonIdx.Lookup(b); !ok {
			out = append(out, Discrepancy{MissingFromBibJSON, b.Key, identify(b)})
		}
	}
	return out
}

func hasID(ref reference.Reference) bool {
	return strings.TrimSpace(ref.PMID) != "" || normalizeDOI(ref.DOI) != ""
}

func identify(ref reference.Reference) string {
	if ref.PMID != "" {
		return "PMID " + ref.PMID
	}
	return "doi " + ref.DOI
}

// sameTitle compares titles ignoring case and spacing.
func sameTitle(a, b string) bool {
	return strings.EqualFold(strings.Join(strings.Fields(a), " "), strings.Join(strings.Fields(b), " "))
}

// normalizeDOI normalizes a DOI for comparison.
// Removes common prefixes like "https://doi.org/" and lowercases.
func normalizeDOI(doi string) string {
	doi = strings.TrimSpace(doi)
	doi = strings.TrimPrefix(doi, "https://doi.org/")
	doi = strings.TrimPrefix(doi, "http://doi.org/")
	doi = strings.TrimPrefix(doi, "doi.org/")
	doi = strings.TrimPrefix(doi, "DOI:")
	doi = strings.TrimPrefix(doi, "doi:")
	return strings.ToLower(doi)
}
