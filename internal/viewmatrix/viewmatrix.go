package viewmatrix

import (
	"math"

	"homey-layout/internal/mathutil"
)

// DefaultFOV is the vertical field of view in degrees.
const DefaultFOV = 60.0

// Near is the closest view-space depth that gets projected.
const Near = 0.05

// Camera is a pinhole camera looking from Eye toward Target.
type Camera struct {
	Eye    mathutil.Vec3
	Target mathutil.Vec3
	Up     mathutil.Vec3
	FOV    float64 // vertical, degrees
}

// RoomCamera returns the snapshot camera for a width × depth room: raised
// 5 m and pulled back 5 m from the room center, so it looks down at 45°.
func RoomCamera(width, depth float64) Camera {
	center := mathutil.Vec3{width / 2, 0, depth / 2}
	return Camera{
		Eye:    center.Add(mathutil.Vec3{0, 5, 5}),
		Target: center,
		Up:     mathutil.Vec3{0, 1, 0},
		FOV:    DefaultFOV,
	}
}

// View returns the world→view matrix (camera at origin looking down -Z).
func (c Camera) View() mathutil.Mat4 {
	f := c.Target.Sub(c.Eye).Normalize()
	up := c.Up
	if up.Len() == 0 {
		up = mathutil.Vec3{0, 1, 0}
	}
	s := f.Cross(up).Normalize()
	u := s.Cross(f)

	// Rows are the camera basis; translation moves the eye to the origin.
	r := mathutil.Mat3{
		s[0], s[1], s[2],
		u[0], u[1], u[2],
		-f[0], -f[1], -f[2],
	}
	return mathutil.FromMat3Translation(r, r.MulVec3(c.Eye).Scale(-1))
}

// Projector maps world points to screen pixels for one frame.
type Projector struct {
	view  mathutil.Mat4
	focal float64
	halfW float64
	halfH float64
}

// NewProjector prepares projection into a width × height pixel target.
func (c Camera) NewProjector(width, height int) Projector {
	fov := c.FOV
	if fov <= 0 {
		fov = DefaultFOV
	}
	halfH := float64(height) / 2
	return Projector{
		view:  c.View(),
		focal: halfH / math.Tan(mathutil.Deg2Rad(fov/2)),
		halfW: float64(width) / 2,
		halfH: halfH,
	}
}

// Project returns screen x, y and an inverse depth (larger is nearer).
// ok is false for points closer than Near or behind the camera.
func (p Projector) Project(world mathutil.Vec3) (x, y, invDepth float64, ok bool) {
	v := p.view.MulPoint(world)
	d := -v[2]
	if d < Near {
		return 0, 0, 0, false
	}
	x = p.halfW + v[0]*p.focal/d
	y = p.halfH - v[1]*p.focal/d
	return x, y, 1 / d, true
}

// ProjectVertices transforms mesh vertices by world and projects them.
// Returns px, py, pz slices (screen X, screen Y, inverse depth) and false
// when any vertex falls behind the near plane.
func (p Projector) ProjectVertices(verts [][3]float32, world mathutil.Mat4) ([]float64, []float64, []float64, bool) {
	n := len(verts)
	px := make([]float64, n)
	py := make([]float64, n)
	pz := make([]float64, n)

	visible := true
	for i := range verts {
		v := mathutil.Vec3{float64(verts[i][0]), float64(verts[i][1]), float64(verts[i][2])}
		x, y, z, ok := p.Project(world.MulPoint(v))
		if !ok {
			visible = false
			z = math.Inf(-1)
		}
		px[i], py[i], pz[i] = x, y, z
	}
	return px, py, pz, visible
}
