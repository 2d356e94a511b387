package energy

import (
	"errors"
	"fmt"
)

// ErrUnknownLabel is returned when the upstream feed reports a fuel-type
// label that is missing from the catalog.
var ErrUnknownLabel = errors.New("unknown fuel source label")

// SourceMeta describes one fuel source in the fixed catalog: its stable
// canonical name, how to display it, and whether it counts as renewable.
type SourceMeta struct {
	Name      string `json:"name"`
	Display   string `json:"display"`
	Color     string `json:"color"`
	Renewable bool   `json:"renewable"`
}

// Catalog maps upstream display labels (as the grid operator reports them)
// to source metadata. The upstream vocabulary is fixed and known, so this is
// an immutable table, not a mutable registry.
var Catalog = map[string]SourceMeta{
	"Coal and Lignite": {Name: "coal", Display: "Coal", Color: "#000000", Renewable: false},
	"Hydro":            {Name: "hydro", Display: "Hydro", Color: "#36A2EB", Renewable: true},
	"Natural Gas":      {Name: "natural_gas", Display: "Natural Gas", Color: "#9966FF", Renewable: false},
	"Nuclear":          {Name: "nuclear", Display: "Nuclear", Color: "#FFCD56", Renewable: true},
	"Other":            {Name: "other", Display: "Other", Color: "#C9CBCF", Renewable: true},
	"Power Storage":    {Name: "power_storage", Display: "Power Storage", Color: "#FF6384", Renewable: true},
	"Solar":            {Name: "solar", Display: "Solar", Color: "#FF9F40", Renewable: true},
	"Wind":             {Name: "wind", Display: "Wind", Color: "#4BC0C0", Renewable: true},
}

// RenderOrder is the priority order in which sources are stacked on the
// dashboard chart. Sources not listed here are appended alphabetically.
var RenderOrder = []string{
	"nuclear",
	"coal",
	"natural_gas",
	"other",
	"hydro",
	"wind",
	"solar",
	"power_storage",
}

// MetaForLabel resolves an upstream label into catalog metadata.
func MetaForLabel(label string) (SourceMeta, error) {
	meta, ok := Catalog[label]
	if !ok {
		return SourceMeta{}, fmt.Errorf("%w: %q", ErrUnknownLabel, label)
	}
	return meta, nil
}

// MetaForName resolves a canonical source name into catalog metadata.
func MetaForName(name string) (SourceMeta, bool) {
	for _, meta := range Catalog {
		if meta.Name == name {
			return meta, true
		}
	}
	return SourceMeta{}, false
}

// Labels returns all known upstream labels, in no particular order.
func Labels() []string {
	labels := make([]string, 0, len(Catalog))
	for label := range Catalog {
		labels = append(labels, label)
	}
	return labels
}
