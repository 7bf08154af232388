// Package reference defines the cleaned publication types rendered into the
// publications page.
package reference

// Reference is a publication ready for rendering.
type Reference struct {
	// Identity
	Kind string `json:"kind"`          // article, inproceedings
	Key  string `json:"key,omitempty"` // citation key from the source

	// Metadata
	Authors   []Author `json:"authors"`
	Title     string   `json:"title"`
	Journal   string   `json:"journal,omitempty"`
	Publisher string   `json:"publisher,omitempty"`
	Volume    string   `json:"volume,omitempty"`
	Issue     string   `json:"issue,omitempty"`
	Pages     string   `json:"pages,omitempty"`
	Year      int      `json:"year"`

	// Identifiers
	DOI  string `json:"doi,omitempty"`
	PMID string `json:"pmid,omitempty"`
	URL  string `json:"url,omitempty"`

	// Category codes, resolved by the renderer
	Tags []string `json:"tags,omitempty"`

	Source ImportSource `json:"source"`
}

// ImportSource tracks where a reference was read from.
type ImportSource struct {
	Type string `json:"type"` // bibtex, bibjson
	ID   string `json:"id"`   // citation key or CSL item id
}

// VolumeIssue returns the combined volume/issue token for display.
func (r Reference) VolumeIssue() string {
	return VolumeIssue(r.Volume, r.Issue)
}
