package trs

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

// Layout maps item id to its current transform.
type Layout map[int]Transform

// Clone returns an independent copy.
func (l Layout) Clone() Layout {
	out := make(Layout, len(l))
	for id, t := range l {
		out[id] = t
	}
	return out
}

// IDs returns the layout's ids in ascending order.
func (l Layout) IDs() []int {
	ids := make([]int, 0, len(l))
	for id := range l {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// ManifestEntry is one placed item in layout.json. The id/position/orientation
// fields match the oracle's bulk response shape so a saved layout can be fed
// back as a fixed placement.
type ManifestEntry struct {
	ID          int         `json:"id"`
	Name        string      `json:"name,omitempty"`
	Position    Position    `json:"position"`
	Orientation Orientation `json:"orientation"`
	Quaternion  *[4]float64 `json:"quaternion,omitempty"`
}

type manifestFile struct {
	Products []ManifestEntry `json:"products"`
}

// SaveLayout writes the layout to path as {"products": [...]}, ordered by id.
// names is optional.
func SaveLayout(path string, layout Layout, names map[int]string) error {
	entries := make([]ManifestEntry, 0, len(layout))
	for _, id := range layout.IDs() {
		t := layout[id]
		q := [4]float64(t.Quaternion())
		entries = append(entries, ManifestEntry{
			ID:          id,
			Name:        names[id],
			Position:    t.Position,
			Orientation: t.Orientation,
			Quaternion:  &q,
		})
	}

	data, err := json.MarshalIndent(manifestFile{Products: entries}, "", "  ")
	if err != nil {
		return fmt.Errorf("trs: encode layout: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("trs: write %s: %w", path, err)
	}
	return nil
}

// LoadLayout reads a layout written by SaveLayout (or any file in the
// oracle's bulk response shape). Entries with non-finite values are rejected.
func LoadLayout(path string) (Layout, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("trs: read %s: %w", path, err)
	}

	var f manifestFile
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("trs: parse %s: %w", path, err)
	}

	layout := make(Layout, len(f.Products))
	for _, e := range f.Products {
		t, err := Compose(e.Position, e.Orientation)
		if err != nil {
			return nil, fmt.Errorf("trs: %s: item %d: %w", path, e.ID, err)
		}
		layout[e.ID] = t
	}
	return layout, nil
}
