package oracle

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"homey-layout/internal/catalog"
	"homey-layout/internal/trs"
)

func TestFloorPlan(t *testing.T) {
	layout := trs.Layout{
		0:  {Position: trs.Position{X: 0.1, Z: 0.1}},
		1:  {Position: trs.Position{X: 0.9, Z: 0.9}},
		2:  {Position: trs.Position{X: 5, Z: 0.5}},
		11: {Position: trs.Position{X: 0.6, Z: 0.1}},
	}
	plan := FloorPlan(Room{Width: 1, Depth: 1}, layout, nil, 0.25)
	assert.Equal(t, "0.b.\n....\n....\n...1\noutside the room: 2\n", plan)
}

func TestFloorPlanFootprintAndOverlap(t *testing.T) {
	layout := trs.Layout{
		0: {Position: trs.Position{X: 0.5, Z: 0.5}},
		1: {Position: trs.Position{X: 0.5, Z: 0.625}, Orientation: trs.Orientation{RotationY: 90}},
	}
	footprints := map[int]*catalog.Footprint{
		0: {Width: 0.5, Depth: 0.25},
		1: {Width: 0.25, Depth: 0.5},
	}
	plan := FloorPlan(Room{Width: 1, Depth: 1}, layout, footprints, 0.25)
	// Item 1 is turned a quarter, so its 0.5 m side runs along x and it
	// shares row 2 with item 0.
	assert.Equal(t, "....\n.00.\n.**.\n....\n", plan)
}

func TestFloorPlanDegenerateRoom(t *testing.T) {
	assert.Empty(t, FloorPlan(Room{}, trs.Layout{}, nil, 0))
}

func TestStaticServesOnce(t *testing.T) {
	s := NewStatic(Batch{
		{ID: 0, Position: trs.Position{X: 0.5, Z: 0.5}},
		{ID: 1, Position: trs.Position{X: 3, Z: 0.5}},
	})
	ctx := context.Background()

	reply, err := s.RequestPlacement(ctx, Request{})
	require.NoError(t, err)
	assert.Len(t, reply.Batch, 2)
	assert.Contains(t, reply.Content, `"products"`)

	_, err = s.RequestPlacement(ctx, Request{})
	assert.ErrorIs(t, err, ErrEmptyResponse)

	guide, err := s.RequestPlacement(ctx, Request{Phase: PhaseGuidance})
	require.NoError(t, err)
	assert.NotEmpty(t, guide.Guidance)
}

func TestStaticSingleTargets(t *testing.T) {
	s := StaticFromLayout(trs.Layout{
		0: {Position: trs.Position{X: 1}},
		1: {Position: trs.Position{X: 2}},
	})
	ctx := context.Background()

	reply, err := s.RequestPlacement(ctx, Request{Granularity: Single, TargetID: 1})
	require.NoError(t, err)
	require.Len(t, reply.Batch, 1)
	assert.Equal(t, 1, reply.Batch[0].ID)
	assert.Contains(t, reply.Content, `"product"`)

	_, err = s.RequestPlacement(ctx, Request{Granularity: Single, TargetID: 1})
	assert.ErrorIs(t, err, ErrEmptyResponse)

	reply, err = s.RequestPlacement(ctx, Request{Granularity: Single, TargetID: 0})
	require.NoError(t, err)
	assert.Equal(t, 0, reply.Batch[0].ID)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = s.RequestPlacement(cancelled, Request{})
	assert.ErrorIs(t, err, ErrTransport)
}
