package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

// Entry is a resolved catalog item. Generated entries have no backing
// file; their name selects a procedural generator instead.
type Entry struct {
	Category  string
	Name      string
	Path      string
	Generated bool
}

// Catalog maps category -> sound name -> resource path. A null path
// marks a procedurally generated sound (noise colors, tones) rather
// than a file-backed one.
type Catalog map[string]map[string]*string

// Default returns the built-in catalog: generated noise colors, a few
// generated reference tones, and the stock ambience recordings.
func Default() Catalog {
	path := func(s string) *string { return &s }
	return Catalog{
		"noise": {
			"white": nil,
			"pink":  nil,
			"brown": nil,
		},
		"tone": {
			"220": nil,
			"440": nil,
			"528": nil,
		},
		"ambience": {
			"rain":      path("sounds/rain.wav"),
			"ocean":     path("sounds/ocean.wav"),
			"forest":    path("sounds/forest.wav"),
			"fireplace": path("sounds/fireplace.wav"),
			"cafe":      path("sounds/cafe.wav"),
		},
	}
}

// Load reads a catalog from a JSON file.
func Load(path string) (Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}
	var c Catalog
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("catalog: parsing %s: %w", path, err)
	}
	return c, nil
}

// Resolve looks up a sound by category and name.
func (c Catalog) Resolve(category, name string) (Entry, error) {
	sounds, ok := c[category]
	if !ok {
		return Entry{}, fmt.Errorf("catalog: unknown category %q", category)
	}
	p, ok := sounds[name]
	if !ok {
		return Entry{}, fmt.Errorf("catalog: unknown sound %q in category %q", name, category)
	}
	e := Entry{Category: category, Name: name}
	if p == nil {
		e.Generated = true
	} else {
		e.Path = *p
	}
	return e, nil
}

// Categories returns category names in sorted order.
func (c Catalog) Categories() []string {
	out := make([]string, 0, len(c))
	for cat := range c {
		out = append(out, cat)
	}
	sort.Strings(out)
	return out
}

// Names returns the sound names of a category in sorted order.
func (c Catalog) Names(category string) []string {
	sounds := c[category]
	out := make([]string, 0, len(sounds))
	for name := range sounds {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
