package oracle

import (
	"context"

	"homey-layout/internal/catalog"
	"homey-layout/internal/trs"
)

// Granularity selects the response shape requested from the oracle.
type Granularity int

const (
	// Bulk asks for a "products" array covering any number of items.
	Bulk Granularity = iota
	// Single asks for one "product" object for the target item.
	Single
)

func (g Granularity) String() string {
	if g == Single {
		return "single"
	}
	return "bulk"
}

// Phase selects what the oracle is asked to produce.
type Phase int

const (
	// PhasePlacement asks for structured transforms.
	PhasePlacement Phase = iota
	// PhaseGuidance asks for free-form placement advice with no JSON.
	PhaseGuidance
)

// Room is the rectangular room footprint in meters.
type Room struct {
	Width float64
	Depth float64
}

// ItemInfo is the per-item metadata sent to the oracle.
type ItemInfo struct {
	ID          int                `json:"id"`
	Name        string             `json:"name"`
	Footprint   *catalog.Footprint `json:"footprint,omitempty"`
	BoundingBox []catalog.Vertex   `json:"boundingBox,omitempty"`
}

// Placement is one item's transform as exchanged with the oracle.
type Placement struct {
	ID          int             `json:"id"`
	Position    trs.Position    `json:"position"`
	Orientation trs.Orientation `json:"orientation"`
}

// Batch is a set of proposed placements in response order. It may hold
// unknown ids, duplicates and non-finite values; callers validate.
type Batch []Placement

// Message is one turn of a carried-forward conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request is one oracle call. The JSON-tagged fields form the structured
// payload embedded in the prompt; the rest steer how the prompt is built.
type Request struct {
	Items       []ItemInfo  `json:"items"`
	SceneImage  string      `json:"-"` // data URL, sent as an image part
	Instruction string      `json:"instruction,omitempty"`
	PriorLayout []Placement `json:"priorLayout,omitempty"`

	Room        Room        `json:"-"`
	Granularity Granularity `json:"-"`
	Phase       Phase       `json:"-"`
	TargetID    int         `json:"-"` // Single only
	FloorPlan   string      `json:"-"`
	History     []Message   `json:"-"`
}

// Reply is a successful oracle answer.
type Reply struct {
	Batch    Batch  // PhasePlacement
	Guidance string // PhaseGuidance
	Content  string // raw assistant text, for conversation history
}

// Oracle proposes placements. Implementations never retry internally;
// failures are *Error values.
type Oracle interface {
	RequestPlacement(ctx context.Context, req Request) (Reply, error)
}

// ItemsFrom converts catalog items into oracle metadata.
func ItemsFrom(items []catalog.PlaceableItem) []ItemInfo {
	out := make([]ItemInfo, len(items))
	for i, it := range items {
		out[i] = ItemInfo{
			ID:          it.ID,
			Name:        it.DisplayName,
			Footprint:   it.Footprint,
			BoundingBox: it.BoundingBox,
		}
	}
	return out
}

// PlacementsFrom converts a layout into placements ordered by id.
func PlacementsFrom(l trs.Layout) []Placement {
	ids := l.IDs()
	out := make([]Placement, len(ids))
	for i, id := range ids {
		t := l[id].Round(trs.DefaultPrecision)
		out[i] = Placement{ID: id, Position: t.Position, Orientation: t.Orientation}
	}
	return out
}
