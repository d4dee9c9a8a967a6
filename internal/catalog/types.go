package catalog

// DefaultDisplayName labels items whose search result carries no display name.
const DefaultDisplayName = "furniture"

// Vertex is a normalized (0–1) image coordinate of a detection box corner.
type Vertex struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Footprint is an approximate floor-plane size in meters. It is a hint for
// the oracle only; nothing enforces it geometrically.
type Footprint struct {
	Width float64 `json:"width"`
	Depth float64 `json:"height"`
}

// PlaceableItem is one catalog-matched furniture candidate. Immutable for the
// lifetime of a session.
type PlaceableItem struct {
	ID          int // position in the normalized list
	DisplayName string
	Category    string
	Score       float64
	Footprint   *Footprint // nil when the result had no detection box
	BoundingBox []Vertex
	AssetRef    string // opaque id for the asset cache, e.g. "35"
}
