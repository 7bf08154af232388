// Package category resolves publication tag codes to the research areas they
// link to on the publications page.
package category

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// InPressPrefix marks a tag that flags the publication as in press.
const InPressPrefix = "INPRESS"

// CSS classes used by the default table.
const (
	ClassTRD = "trd_pub"
	ClassDBP = "dbp_pub"
	ClassCSP = "csp_pub"
)

// Category is the display form of one tag code.
type Category struct {
	Label string `yaml:"label" json:"label"`
	Class string `yaml:"class" json:"class"`
	Path  string `yaml:"path" json:"path"`
}

// Table maps tag codes to categories.
type Table map[string]Category

// Link is a resolved tag ready for rendering.
type Link struct {
	Code  string
	Label string
	Class string
	Href  string
}

const (
	pathTRD = "research/technology-research-and-development/"
	pathDBP = "research/driving-biomedical-projects/"
	pathCSP = "research/collaboration-service"
)

// Default returns the built-in category table.
func Default() Table {
	return Table{
		"MMBIOS1-DBP1": {"DBP1", ClassDBP, pathDBP + "glutamate-transport"},
		"MMBIOS1-DBP2": {"DBP2", ClassDBP, pathDBP + "synaptic-signaling"},
		"MMBIOS1-DBP3": {"DBP3", ClassDBP, pathDBP + "dat-function"},
		"MMBIOS1-DBP4": {"DBP4", ClassDBP, pathDBP + "t-cell-signaling"},
		"MMBIOS1-DBP5": {"DBP5", ClassDBP, pathDBP + "neural-circuits"},

		"MMBIOS2-DBP1": {"DBP1", ClassDBP, pathDBP + "glutamate-transport"},
		"MMBIOS2-DBP2": {"DBP2", ClassDBP, pathDBP + "synaptic-signaling"},
		"MMBIOS2-DBP3": {"DBP3", ClassDBP, pathDBP + "dat-function"},
		"MMBIOS2-DBP4": {"DBP4", ClassDBP, pathDBP + "t-cell-signaling"},
		"MMBIOS2-DBP5": {"DBP5", ClassDBP, pathDBP + "neural-circuits"},

		"MMBIOS1-TRD1": {"MM", ClassTRD, pathTRD + "molecular-modeling"},
		"MMBIOS1-TRD2": {"CM", ClassTRD, pathTRD + "cell-modeling"},
		"MMBIOS1-TRD3": {"IP", ClassTRD, pathTRD + "image-processing"},

		"MMBIOS2-TRD1": {"MM", ClassTRD, pathTRD + "molecular-modeling"},
		"MMBIOS2-TRD2": {"CM", ClassTRD, pathTRD + "cell-modeling"},
		"MMBIOS2-TRD3": {"RBM", ClassTRD, pathTRD + "rule-based-modeling"},
		"MMBIOS2-TRD4": {"IP", ClassTRD, pathTRD + "image-processing"},

		"MMBIOS1-CSP": {"CSP", ClassCSP, pathCSP},
		"MMBIOS2-CSP": {"CSP", ClassCSP, pathCSP},
	}
}

// LoadFile reads a YAML table of the form
//
//	MMBIOS1-TRD1: {label: MM, class: trd_pub, path: research/...}
func LoadFile(path string) (Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading category table: %w", err)
	}
	var t Table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parsing category table: %w", err)
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// Validate checks that every category has a label and a class.
func (t Table) Validate() error {
	for _, code := range t.Codes() {
		c := t[code]
		if c.Label == "" {
			return fmt.Errorf("category %s: missing label", code)
		}
		if c.Class == "" {
			return fmt.Errorf("category %s: missing class", code)
		}
	}
	return nil
}

// Merge returns a copy of t with the entries of other added or replaced.
func (t Table) Merge(other Table) Table {
	out := make(Table, len(t)+len(other))
	for k, v := range t {
		out[k] = v
	}
	for k, v := range other {
		out[k] = v
	}
	return out
}

// Codes returns the table's codes in sorted order.
func (t Table) Codes() []string {
	codes := make([]string, 0, len(t))
	for k := range t {
		codes = append(codes, k)
	}
	sort.Strings(codes)
	return codes
}

// Resolve maps tag codes to links in tag order. Unknown codes are dropped.
// inPress is true if any code carries the in-press marker.
func (t Table) Resolve(codes []string, linkBase string) (links []Link, inPress bool) {
	base := strings.TrimSuffix(linkBase, "/")
	for _, code := range codes {
		code = strings.TrimSpace(code)
		if strings.HasPrefix(code, InPressPrefix) {
			inPress = true
			continue
		}
		c, ok := t[code]
		if !ok {
			continue
		}
		href := c.Path
		if base != "" {
			href = base + "/" + strings.TrimPrefix(c.Path, "/")
		}
		links = append(links, Link{Code: code, Label: c.Label, Class: c.Class, Href: href})
	}
	return links, inPress
}
