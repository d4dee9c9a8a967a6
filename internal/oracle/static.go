package oracle

import (
	"context"
	"encoding/json"
	"sync"

	"homey-layout/internal/trs"
)

// Static is an Oracle that serves a fixed layout. Each placement is handed
// out once; after that the oracle reports ErrEmptyResponse, which ends a
// negotiation as converged. Guidance requests get a fixed sentence.
type Static struct {
	mu     sync.Mutex
	batch  Batch
	served map[int]bool
}

// NewStatic serves batch in order.
func NewStatic(batch Batch) *Static {
	return &Static{batch: batch, served: make(map[int]bool)}
}

// StaticFromLayout serves a saved layout ordered by id.
func StaticFromLayout(l trs.Layout) *Static {
	return NewStatic(Batch(PlacementsFrom(l)))
}

// RequestPlacement implements Oracle.
func (s *Static) RequestPlacement(ctx context.Context, req Request) (Reply, error) {
	if err := ctx.Err(); err != nil {
		return Reply{}, transportErr("static", err)
	}
	if req.Phase == PhaseGuidance {
		const text = "Keep the current arrangement."
		return Reply{Guidance: text, Content: text}, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var out Batch
	for _, p := range s.batch {
		if s.served[p.ID] || (req.Granularity == Single && p.ID != req.TargetID) {
			continue
		}
		out = append(out, p)
	}
	if len(out) == 0 {
		return Reply{}, emptyErr("static layout exhausted")
	}
	for _, p := range out {
		s.served[p.ID] = true
	}

	if req.Granularity == Single {
		out = out[len(out)-1:]
		content, _ := json.Marshal(map[string]Placement{"product": out[0]})
		return Reply{Batch: out, Content: string(content)}, nil
	}
	content, _ := json.Marshal(map[string]Batch{"products": out})
	return Reply{Batch: out, Content: string(content)}, nil
}
