package render

import (
	"sort"

	"github.com/mmbios/bibhtml/internal/reference"
)

// YearGroup is the run of references published in one year.
type YearGroup struct {
	Year       int
	References []reference.Reference
}

// GroupByYear orders refs newest year first and groups them by year. The
// relative order of references within a year is kept. refs is not modified.
func GroupByYear(refs []reference.Reference) []YearGroup {
	sorted := make([]reference.Reference, len(refs))
	copy(sorted, refs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Year > sorted[j].Year
	})

	var groups []YearGroup
	for _, ref := range sorted {
		if n := len(groups); n > 0 && groups[n-1].Year == ref.Year {
			groups[n-1].References = append(groups[n-1].References, ref)
			continue
		}
		groups = append(groups, YearGroup{Year: ref.Year, References: []reference.Reference{ref}})
	}
	return groups
}
