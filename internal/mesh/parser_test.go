package mesh

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const chairOBJ = `# chair
mtllib chair.mtl
o Seat
v 0 0 0
v 1 0 0
v 1 1 0
v 0 1 0
vt 0 0
vt 1 0
vt 1 1
vt 0 1
vn 0 0 1
usemtl oak_veneer
f 1/1/1 2/2/1 3/3/1 4/4/1
o Leg
v 0 0 -1
v 0.1 0 -1
v 0.1 0.1 -1
f -3 -2 -1
`

func TestParseSplitsObjectsAndFansPolygons(t *testing.T) {
	meshes, err := Parse(strings.NewReader(chairOBJ), "chair.obj")
	require.NoError(t, err)
	require.Len(t, meshes, 2)

	seat := meshes[0]
	assert.Equal(t, "Seat", seat.Name)
	assert.Equal(t, "oak_veneer", seat.TexPath)
	assert.Len(t, seat.Verts, 4)
	assert.Len(t, seat.UVs, 4)
	require.Len(t, seat.Tris, 2)
	assert.Equal(t, [3]int32{0, 1, 2}, seat.Tris[0].VI)
	assert.Equal(t, [3]int32{0, 2, 3}, seat.Tris[1].VI)

	leg := meshes[1]
	assert.Equal(t, "Leg", leg.Name)
	// usemtl carries over to later objects until changed.
	assert.Equal(t, "oak_veneer", leg.TexPath)
	require.Len(t, leg.Tris, 1)
	assert.Equal(t, [3]int32{-1, -1, -1}, leg.Tris[0].TI)
	assert.Equal(t, [3]float32{0.1, 0.1, -1}, leg.Verts[2])

	assert.Equal(t, 3, TriangleCount(meshes))
}

func TestParseUsemtlSplitsGroup(t *testing.T) {
	src := `v 0 0 0
v 1 0 0
v 0 1 0
usemtl fabric
f 1 2 3
usemtl metal
f 3 2 1
`
	meshes, err := Parse(strings.NewReader(src), "x.obj")
	require.NoError(t, err)
	require.Len(t, meshes, 2)
	assert.Equal(t, "fabric", meshes[0].TexPath)
	assert.Equal(t, "metal", meshes[1].TexPath)
}

func TestParseErrors(t *testing.T) {
	cases := []struct {
		name string
		src  string
	}{
		{"index out of range", "v 0 0 0\nf 1 2 3\n"},
		{"short vertex", "v 0 0\n"},
		{"bad float", "v 0 zero 0\n"},
		{"two corner face", "v 0 0 0\nv 1 0 0\nf 1 2\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tc.src), "bad.obj")
			require.Error(t, err)
			assert.False(t, errors.Is(err, ErrNoGeometry))
		})
	}
}

func TestParseNoGeometry(t *testing.T) {
	_, err := Parse(strings.NewReader("# nothing\nv 0 0 0\n"), "empty.obj")
	assert.ErrorIs(t, err, ErrNoGeometry)
}

func TestBounds(t *testing.T) {
	meshes, err := Parse(strings.NewReader(chairOBJ), "chair.obj")
	require.NoError(t, err)

	lo, hi := Bounds(meshes)
	assert.InDelta(t, 0, lo[0], 1e-6)
	assert.InDelta(t, 0, lo[1], 1e-6)
	assert.InDelta(t, -1, lo[2], 1e-6)
	assert.InDelta(t, 1, hi[0], 1e-6)
	assert.InDelta(t, 1, hi[1], 1e-6)
	assert.InDelta(t, 0, hi[2], 1e-6)

	lo, hi = Bounds(nil)
	assert.Zero(t, lo)
	assert.Zero(t, hi)
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chair.obj")
	require.NoError(t, os.WriteFile(path, []byte(chairOBJ), 0o644))

	meshes, err := ParseFile(path)
	require.NoError(t, err)
	assert.Len(t, meshes, 2)

	_, err = ParseFile(filepath.Join(t.TempDir(), "missing.obj"))
	assert.Error(t, err)
}
