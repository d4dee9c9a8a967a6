package negotiate

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"

	"homey-layout/internal/catalog"
	"homey-layout/internal/oracle"
)

// Strategy names accepted by NewStrategy.
const (
	StrategyBulk     = "bulk"
	StrategySingle   = "single"
	StrategyTwoPhase = "two-phase"
)

// firstRoundInstruction is sent when nothing has been placed yet.
const firstRoundInstruction = "Place all models into scene"

// maxHistoryMessages bounds the conversation carried between rounds.
const maxHistoryMessages = 16

// CallFunc performs one bounded oracle call on behalf of a strategy.
type CallFunc func(ctx context.Context, req oracle.Request) (oracle.Reply, error)

// Round is what a strategy sees of the current round.
type Round struct {
	Iteration int
	Items     []catalog.PlaceableItem // sorted by id
	Placed    map[int]bool            // ids that have had a transform accepted
	Base      oracle.Request          // items, room, image, prior layout, floor plan
	Call      CallFunc
}

// Proposal is what a strategy brings back from the oracle for one round.
type Proposal struct {
	Batch oracle.Batch
	// Single restricts the round to TargetID; entries for other ids are
	// dropped during validation.
	Single   bool
	TargetID int
}

// Strategy decides how one round talks to the oracle. Every round ends
// with a single proposal or an error. Strategies may keep state
// across the rounds of one session and must not be shared between sessions.
type Strategy interface {
	Name() string
	Run(ctx context.Context, r Round) (Proposal, error)
}

// NewStrategy returns a fresh strategy by name.
func NewStrategy(name string) (Strategy, error) {
	switch name {
	case StrategyBulk, "":
		return bulk{}, nil
	case StrategySingle:
		return &singleItem{}, nil
	case StrategyTwoPhase:
		return twoPhase{}, nil
	}
	return nil, fmt.Errorf("negotiate: unknown strategy %q (want %s, %s or %s)", name, StrategyBulk, StrategySingle, StrategyTwoPhase)
}

// StrategyNames lists the accepted strategy names.
func StrategyNames() []string {
	return []string{StrategyBulk, StrategySingle, StrategyTwoPhase}
}

// bulk asks for every item's placement in one structured request.
type bulk struct{}

func (bulk) Name() string { return StrategyBulk }

func (bulk) Run(ctx context.Context, r Round) (Proposal, error) {
	req := r.Base
	req.Granularity = oracle.Bulk
	req.Phase = oracle.PhasePlacement
	if len(r.Placed) == 0 {
		req.Instruction = firstRoundInstruction
	}
	reply, err := r.Call(ctx, req)
	if err != nil {
		return Proposal{}, err
	}
	return Proposal{Batch: reply.Batch}, nil
}

// singleItem places one item per round and carries the conversation
// forward so the oracle sees its earlier answers.
type singleItem struct {
	history []oracle.Message
}

func (*singleItem) Name() string { return StrategySingle }

func (s *singleItem) Run(ctx context.Context, r Round) (Proposal, error) {
	if len(r.Items) == 0 {
		return Proposal{}, nil
	}

	// An empty answer means the oracle has nothing for that item; ask about
	// the next one. The round is empty only when no item gets an answer.
	var err error
	for _, target := range targetOrder(r) {
		var reply oracle.Reply
		reply, err = s.ask(ctx, r, target)
		if err == nil {
			return Proposal{Batch: reply.Batch, Single: true, TargetID: target}, nil
		}
		if !errors.Is(err, oracle.ErrEmptyResponse) {
			return Proposal{}, err
		}
	}
	return Proposal{}, err
}

func (s *singleItem) ask(ctx context.Context, r Round, target int) (oracle.Reply, error) {
	req := r.Base
	req.Granularity = oracle.Single
	req.Phase = oracle.PhasePlacement
	req.TargetID = target
	req.History = slices.Clone(s.history)

	reply, err := r.Call(ctx, req)
	if err != nil {
		return oracle.Reply{}, err
	}

	if prompt, err := oracle.UserPrompt(req); err == nil {
		s.history = append(s.history,
			oracle.Message{Role: "user", Content: prompt},
			oracle.Message{Role: "assistant", Content: reply.Content},
		)
		if over := len(s.history) - maxHistoryMessages; over > 0 {
			s.history = slices.Clone(s.history[over:])
		}
	}
	return reply, nil
}

// targetOrder lists every item once: unplaced ids lowest first, then the
// placed ones starting from a position that advances with the iteration.
func targetOrder(r Round) []int {
	order := make([]int, 0, len(r.Items))
	for _, it := range r.Items {
		if !r.Placed[it.ID] {
			order = append(order, it.ID)
		}
	}
	start := (r.Iteration - 1) % len(r.Items)
	for i := range r.Items {
		it := r.Items[(start+i)%len(r.Items)]
		if r.Placed[it.ID] {
			order = append(order, it.ID)
		}
	}
	return order
}

// twoPhase places everything directly on the first round. Later rounds
// first ask for free-form guidance on the current scene, then ask for that
// guidance as structured transforms without resending the image.
type twoPhase struct{}

func (twoPhase) Name() string { return StrategyTwoPhase }

func (twoPhase) Run(ctx context.Context, r Round) (Proposal, error) {
	place := r.Base
	place.Granularity = oracle.Bulk
	place.Phase = oracle.PhasePlacement
	place.SceneImage = ""

	if r.Iteration == 1 {
		place.Instruction = firstRoundInstruction
		reply, err := r.Call(ctx, place)
		if err != nil {
			return Proposal{}, err
		}
		return Proposal{Batch: reply.Batch}, nil
	}

	guide := r.Base
	guide.Phase = oracle.PhaseGuidance
	advice, err := r.Call(ctx, guide)
	if err != nil {
		return Proposal{}, err
	}

	place.Instruction = advice.Guidance
	reply, err := r.Call(ctx, place)
	if err != nil {
		return Proposal{}, err
	}
	return Proposal{Batch: reply.Batch}, nil
}

func sortedItems(items []catalog.PlaceableItem) []catalog.PlaceableItem {
	out := slices.Clone(items)
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
