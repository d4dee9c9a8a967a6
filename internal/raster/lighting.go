package raster

import (
	"math"

	"homey-layout/internal/mathutil"
)

// LightConfig holds precomputed lighting parameters. Directions are in room
// space (Y up).
type LightConfig struct {
	LightDir mathutil.Vec3
	RimDir   mathutil.Vec3
	HalfMain mathutil.Vec3 // precomputed half-vector for Blinn-Phong
	Ambient  float64
	Hemi     float64
	Direct   float64
	Rim      float64
	SpecInt  float64
	SpecPow  float64
	Exposure float64
	InvGamma float64
}

// DefaultLightConfig returns a soft interior key light from above plus a
// cool rim from behind.
func DefaultLightConfig(viewDir mathutil.Vec3) LightConfig {
	lightDir := mathutil.Vec3{0.35, 1, 0.45}.Normalize()
	rimDir := mathutil.Vec3{-0.6, 0.5, -0.8}.Normalize()
	halfMain := lightDir.Sub(viewDir.Normalize()).Normalize()

	return LightConfig{
		LightDir: lightDir,
		RimDir:   rimDir,
		HalfMain: halfMain,
		Ambient:  0.45,
		Hemi:     0.35,
		Direct:   0.90,
		Rim:      0.25,
		SpecInt:  0.20,
		SpecPow:  16.0,
		Exposure: 1.0,
		InvGamma: 1.0 / 2.2,
	}
}

// ComputeShade returns the combined lighting scalar for a face normal.
func (lc *LightConfig) ComputeShade(normal mathutil.Vec3) float64 {
	// Lambertian (abs for double-sided)
	ndlMain := math.Abs(normal.Dot(lc.LightDir))
	ndlRim := math.Abs(normal.Dot(lc.RimDir))

	// Hemisphere fill: floor-facing and ceiling-facing surfaces get more sky.
	hemi := math.Abs(normal[1])*0.5 + 0.5
	hemiLight := hemi * lc.Hemi

	// Blinn-Phong specular
	ndh := math.Abs(normal.Dot(lc.HalfMain))
	spec := math.Pow(ndh, lc.SpecPow) * lc.SpecInt

	return lc.Ambient + hemiLight + ndlMain*lc.Direct + ndlRim*lc.Rim + spec
}

// Precomputed sRGB-to-linear lookup table (256 entries).
var srgbToLinear [256]float64

func init() {
	for i := 0; i < 256; i++ {
		srgbToLinear[i] = math.Pow(float64(i)/255.0, 2.2)
	}
}

// ACESTonemap applies ACES Filmic tone mapping to a linear value.
func ACESTonemap(x float64) float64 {
	return (x * (2.51*x + 0.03)) / (x*(2.43*x+0.59) + 0.14)
}
