package mesh

import (
	"math"

	"homey-layout/internal/mathutil"
)

// Triangle holds index triples into a mesh's vertex and texcoord arrays.
// TI entries are -1 when the face had no texcoords.
type Triangle struct {
	VI [3]int32
	TI [3]int32
}

// Mesh holds the geometry of one object/group within an asset file.
type Mesh struct {
	Name    string
	Verts   [][3]float32
	UVs     [][2]float32
	Tris    []Triangle
	TexPath string // material/texture reference (e.g. "oak_veneer")
}

// Bounds returns the axis-aligned bounds of all vertices. Empty input yields
// a zero box.
func Bounds(meshes []Mesh) (min, max mathutil.Vec3) {
	min = mathutil.Vec3{math.Inf(1), math.Inf(1), math.Inf(1)}
	max = mathutil.Vec3{math.Inf(-1), math.Inf(-1), math.Inf(-1)}
	seen := false
	for _, m := range meshes {
		for _, v := range m.Verts {
			p := mathutil.Vec3{float64(v[0]), float64(v[1]), float64(v[2])}
			min = min.Min(p)
			max = max.Max(p)
			seen = true
		}
	}
	if !seen {
		return mathutil.Vec3{}, mathutil.Vec3{}
	}
	return min, max
}

// TriangleCount sums triangles across meshes.
func TriangleCount(meshes []Mesh) int {
	n := 0
	for _, m := range meshes {
		n += len(m.Tris)
	}
	return n
}
