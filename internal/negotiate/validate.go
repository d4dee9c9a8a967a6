package negotiate

import (
	"slices"

	"homey-layout/internal/trs"
)

// Drop reasons, also used as metric labels.
const (
	dropUnknownID = "unknown_id"
	dropNonFinite = "non_finite"
	dropOffTarget = "off_target"
)

// validation is the outcome of checking one oracle batch.
type validation struct {
	accepted map[int]trs.Transform
	order    []int          // accepted ids in first-seen response order
	dropped  map[string]int // reason → count
}

// validate keeps placements for known ids with finite values. For
// duplicate ids the later entry replaces the earlier one. A single-item
// proposal keeps at most one placement, for its target.
func validate(prop Proposal, known map[int]bool) validation {
	v := validation{
		accepted: make(map[int]trs.Transform, len(prop.Batch)),
		dropped:  make(map[string]int),
	}
	for _, p := range prop.Batch {
		if prop.Single && p.ID != prop.TargetID {
			v.dropped[dropOffTarget]++
			continue
		}
		if !known[p.ID] {
			v.dropped[dropUnknownID]++
			continue
		}
		t, err := trs.Compose(p.Position, p.Orientation)
		if err != nil {
			v.dropped[dropNonFinite]++
			continue
		}
		if _, seen := v.accepted[p.ID]; !seen {
			v.order = append(v.order, p.ID)
		}
		v.accepted[p.ID] = t
	}
	return v
}

func (v validation) droppedTotal() int {
	n := 0
	for _, c := range v.dropped {
		n += c
	}
	return n
}

func sortInts(s []int) {
	slices.Sort(s)
}
