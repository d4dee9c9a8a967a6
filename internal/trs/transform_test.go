package trs

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"homey-layout/internal/mathutil"
)

func TestIdentityRenderMatrixStandsAssetUpright(t *testing.T) {
	m := Identity().RenderMatrix()

	// Authored +Z (up in the asset) maps to room +Y.
	up := m.MulPoint(mathutil.Vec3{0, 0, 1})
	assert.InDelta(t, 0, up[0], 1e-12)
	assert.InDelta(t, 1, up[1], 1e-12)
	assert.InDelta(t, 0, up[2], 1e-12)
	assert.Equal(t, mathutil.Vec3{}, m.Translation())
}

func TestRenderMatrixOrder(t *testing.T) {
	tr, err := Compose(Position{X: 1, Y: 0, Z: 2}, Orientation{RotationY: 90})
	require.NoError(t, err)

	m := tr.RenderMatrix()
	assert.Equal(t, mathutil.Vec3{1, 0, 2}, m.Translation())

	// Asset +X: upright correction leaves it alone, Ry(90°) turns it to -Z.
	p := m.MulPoint(mathutil.Vec3{1, 0, 0})
	assert.InDelta(t, 1, p[0], 1e-9)
	assert.InDelta(t, 0, p[1], 1e-9)
	assert.InDelta(t, 1, p[2], 1e-9)

	// Asset +Z is up after correction and stays up under a yaw.
	p = m.MulPoint(mathutil.Vec3{0, 0, 1})
	assert.InDelta(t, 1, p[0], 1e-9)
	assert.InDelta(t, 1, p[1], 1e-9)
	assert.InDelta(t, 2, p[2], 1e-9)
}

func TestComposeRejectsNonFinite(t *testing.T) {
	cases := []struct {
		name   string
		pos    Position
		orient Orientation
	}{
		{"nan position", Position{X: math.NaN()}, Orientation{}},
		{"inf position", Position{Z: math.Inf(1)}, Orientation{}},
		{"nan rotation", Position{}, Orientation{RotationY: math.NaN()}},
		{"neg inf rotation", Position{}, Orientation{RotationZ: math.Inf(-1)}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Compose(tc.pos, tc.orient)
			assert.ErrorIs(t, err, ErrNonFinite)
		})
	}
}

func TestRound(t *testing.T) {
	tr := Transform{
		Position:    Position{X: 1.23456, Y: -0.004, Z: 2.005},
		Orientation: Orientation{RotationY: 89.999},
	}
	r := tr.Round(DefaultPrecision)
	assert.InDelta(t, 1.23, r.Position.X, 1e-12)
	assert.InDelta(t, 0, r.Position.Y, 1e-12)
	assert.InDelta(t, 90, r.Orientation.RotationY, 1e-12)
}

func genTransform(rt *rapid.T) Transform {
	return Transform{
		Position: Position{
			X: rapid.Float64Range(-10, 10).Draw(rt, "x"),
			Y: rapid.Float64Range(-10, 10).Draw(rt, "y"),
			Z: rapid.Float64Range(-10, 10).Draw(rt, "z"),
		},
		Orientation: Orientation{
			RotationX: rapid.Float64Range(-360, 360).Draw(rt, "rx"),
			RotationY: rapid.Float64Range(-360, 360).Draw(rt, "ry"),
			RotationZ: rapid.Float64Range(-360, 360).Draw(rt, "rz"),
		},
	}
}

func TestProperty_RenderMatrixDeterministic(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		tr := genTransform(rt)
		composed, err := Compose(tr.Position, tr.Orientation)
		require.NoError(rt, err)

		a := composed.RenderMatrix()
		b := composed.RenderMatrix()
		for i := range a {
			if math.Float64bits(a[i]) != math.Float64bits(b[i]) {
				rt.Fatalf("element %d differs: %v vs %v", i, a[i], b[i])
			}
		}
	})
}

func TestProperty_RenderMatrixIsRigid(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		tr := genTransform(rt)
		m := tr.RenderMatrix()
		assert.True(rt, m.Rotation().IsRotation(1e-9))
		assert.Equal(rt, tr.Position.Vec(), m.Translation())
		assert.Equal(rt, [4]float64{0, 0, 0, 1}, [4]float64{m[12], m[13], m[14], m[15]})
	})
}

func TestProperty_QuaternionMatchesMatrix(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		tr := genTransform(rt)
		want := tr.RotationMatrix()
		got := mathutil.QuatToMat3(tr.Quaternion())
		for i := range want {
			assert.InDelta(rt, want[i], got[i], 1e-9)
		}
	})
}

func TestLayoutSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "layout.json")
	layout := Layout{
		0: {Position: Position{X: 0.5, Z: 0.5}, Orientation: Orientation{RotationY: 90}},
		2: {Position: Position{X: 3, Z: 1.75}},
	}
	require.NoError(t, SaveLayout(path, layout, map[int]string{0: "Sofa"}))

	loaded, err := LoadLayout(path)
	require.NoError(t, err)
	assert.Equal(t, layout, loaded)
	assert.Equal(t, []int{0, 2}, loaded.IDs())
}

func TestLoadLayoutMissingFile(t *testing.T) {
	_, err := LoadLayout(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}
