package viewmatrix

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"homey-layout/internal/mathutil"
)

func TestRoomCameraLooksAtCenter(t *testing.T) {
	cam := RoomCamera(3.5, 3.5)
	assert.Equal(t, mathutil.Vec3{1.75, 5, 6.75}, cam.Eye)

	view := cam.View()
	assert.True(t, view.Rotation().IsRotation(1e-9))

	// Target sits on the view axis, 5√2 m ahead.
	v := view.MulPoint(cam.Target)
	assert.InDelta(t, 0, v[0], 1e-9)
	assert.InDelta(t, 0, v[1], 1e-9)
	assert.InDelta(t, -5*1.4142135623730951, v[2], 1e-9)

	p := cam.NewProjector(200, 100)
	x, y, _, ok := p.Project(cam.Target)
	require.True(t, ok)
	assert.InDelta(t, 100, x, 1e-9)
	assert.InDelta(t, 50, y, 1e-9)
}

func TestProjectOrientation(t *testing.T) {
	p := RoomCamera(4, 4).NewProjector(100, 100)
	center := mathutil.Vec3{2, 0, 2}

	cx, cy, cz, ok := p.Project(center)
	require.True(t, ok)

	// +X is screen right, raised points are screen up, nearer points have larger inverse depth.
	x, _, _, _ := p.Project(center.Add(mathutil.Vec3{0.5, 0, 0}))
	assert.Greater(t, x, cx)
	_, y, _, _ := p.Project(center.Add(mathutil.Vec3{0, 0.5, 0}))
	assert.Less(t, y, cy)
	_, _, z, _ := p.Project(center.Add(mathutil.Vec3{0, 0, 1}))
	assert.Greater(t, z, cz)
}

func TestProjectBehindCamera(t *testing.T) {
	cam := RoomCamera(4, 4)
	p := cam.NewProjector(64, 64)

	_, _, _, ok := p.Project(cam.Eye.Add(mathutil.Vec3{0, 1, 1}))
	assert.False(t, ok)

	verts := [][3]float32{{2, 0, 2}, {2, 5, 7.5}}
	_, _, pz, visible := p.ProjectVertices(verts, mathutil.Mat4Identity())
	assert.False(t, visible)
	assert.Positive(t, pz[0])
}
