package raster

import (
	"context"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"homey-layout/internal/asset"
	"homey-layout/internal/mathutil"
	"homey-layout/internal/mesh"
)

// box returns a closed axis-aligned box model of the given half size.
func box(half float32) *asset.Model {
	verts := [][3]float32{
		{-half, -half, -half}, {half, -half, -half}, {half, half, -half}, {-half, half, -half},
		{-half, -half, half}, {half, -half, half}, {half, half, half}, {-half, half, half},
	}
	faces := [][4]int32{
		{0, 1, 2, 3}, {4, 5, 6, 7}, {0, 1, 5, 4},
		{2, 3, 7, 6}, {1, 2, 6, 5}, {0, 3, 7, 4},
	}
	var tris []mesh.Triangle
	for _, f := range faces {
		tris = append(tris,
			mesh.Triangle{VI: [3]int32{f[0], f[1], f[2]}, TI: [3]int32{-1, -1, -1}},
			mesh.Triangle{VI: [3]int32{f[0], f[2], f[3]}, TI: [3]int32{-1, -1, -1}},
		)
	}
	return &asset.Model{Ref: "box", Meshes: []mesh.Mesh{{Name: "box", Verts: verts, Tris: tris}}}
}

func newTestRenderer() *Renderer {
	return New(Options{Width: 64, Height: 64, Supersample: 2, RoomWidth: 3.5, RoomDepth: 3.5})
}

func TestSnapshotEmptyRoomDrawsFloor(t *testing.T) {
	r := newTestRenderer()
	img, err := r.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 64, 64), img.Bounds())

	// The camera looks at the room center, which is floor.
	assert.NotEqual(t, background, img.NRGBAAt(32, 32))
	// Top-left corner looks past the room.
	assert.Equal(t, background, img.NRGBAAt(0, 0))
}

func TestSnapshotReflectsTransforms(t *testing.T) {
	r := newTestRenderer()
	require.NoError(t, r.AddObject(0, box(0.4)))

	// Identity placement keeps the box at the room corner, off-center.
	before, err := r.Snapshot(context.Background())
	require.NoError(t, err)
	floorPx := before.NRGBAAt(32, 32)

	m := mathutil.Translation(mathutil.Vec3{1.75, 0.4, 1.75})
	require.NoError(t, r.SetTransform(0, m))
	after, err := r.Snapshot(context.Background())
	require.NoError(t, err)
	assert.NotEqual(t, floorPx, after.NRGBAAt(32, 32))

	r.RemoveObject(0)
	assert.Equal(t, 0, r.Len())
	cleared, err := r.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, floorPx, cleared.NRGBAAt(32, 32))
}

func TestSetTransformUnknown(t *testing.T) {
	r := newTestRenderer()
	err := r.SetTransform(3, mathutil.Mat4Identity())
	assert.ErrorIs(t, err, ErrUnknownObject)

	assert.Error(t, r.AddObject(1, nil))
}

func TestAddObjectTwiceKeepsTransform(t *testing.T) {
	r := newTestRenderer()
	require.NoError(t, r.AddObject(2, box(0.2)))
	m := mathutil.Translation(mathutil.Vec3{1, 0, 1})
	require.NoError(t, r.SetTransform(2, m))
	require.NoError(t, r.AddObject(2, box(0.3)))

	assert.Equal(t, 1, r.Len())
	assert.Equal(t, m, r.objects[2].world)
}

func TestSnapshotCancelled(t *testing.T) {
	r := newTestRenderer()
	require.NoError(t, r.AddObject(0, box(0.4)))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := r.Snapshot(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRasterizeTriangleDepthTest(t *testing.T) {
	fb := NewFrameBuffer(8, 8, color.NRGBA{})
	lc := DefaultLightConfig(mathutil.Vec3{0, -1, -1})
	px := []float64{0, 8, 0}
	py := []float64{0, 0, 8}
	vi := [3]int{0, 1, 2}
	ti := [3]int{-1, -1, -1}

	near := &Surface{Base: color.NRGBA{R: 255, A: 255}, Shade: 1}
	far := &Surface{Base: color.NRGBA{B: 255, A: 255}, Shade: 1}

	RasterizeTriangle(fb, px, py, []float64{2, 2, 2}, vi, ti, near, &lc)
	RasterizeTriangle(fb, px, py, []float64{1, 1, 1}, vi, ti, far, &lc)

	img := fb.Image()
	got := img.NRGBAAt(1, 1)
	assert.Greater(t, got.R, got.B)
	assert.Equal(t, uint8(255), got.A)
	// Outside the triangle stays clear.
	assert.Equal(t, color.NRGBA{}, img.NRGBAAt(7, 7))
}
