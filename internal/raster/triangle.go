package raster

import (
	"image"
	"image/color"
	"math"
)

// Surface describes how a triangle's pixels are colored.
type Surface struct {
	UVs   [][2]float32
	Tex   *image.NRGBA // nil for flat color
	Base  color.NRGBA  // used when Tex is nil or a corner has no texcoord
	Shade float64      // flat lighting factor from LightConfig.ComputeShade
}

// RasterizeTriangle rasterizes one triangle into fb with texture mapping,
// z-buffer, sRGB-correct shading and ACES tone mapping. pz holds inverse
// depth, so larger values win.
//
// This is the hot path and does not allocate.
func RasterizeTriangle(
	fb *FrameBuffer,
	px, py, pz []float64,
	vi [3]int, ti [3]int,
	s *Surface,
	lc *LightConfig,
) {
	nv := len(px)
	for _, i := range vi {
		if i < 0 || i >= nv {
			return
		}
	}

	x0, y0, z0 := px[vi[0]], py[vi[0]], pz[vi[0]]
	x1, y1, z1 := px[vi[1]], py[vi[1]], pz[vi[1]]
	x2, y2, z2 := px[vi[2]], py[vi[2]], pz[vi[2]]

	nuv := len(s.UVs)
	hasUV := s.Tex != nil
	for _, i := range ti {
		if i < 0 || i >= nuv {
			hasUV = false
			break
		}
	}

	var u0, v0, u1, v1, u2, v2 float64
	if hasUV {
		u0, v0 = float64(s.UVs[ti[0]][0]), float64(s.UVs[ti[0]][1])
		u1, v1 = float64(s.UVs[ti[1]][0]), float64(s.UVs[ti[1]][1])
		u2, v2 = float64(s.UVs[ti[2]][0]), float64(s.UVs[ti[2]][1])
	}

	// Bounding box
	minX := int(math.Floor(math.Min(math.Min(x0, x1), x2)))
	maxX := int(math.Ceil(math.Max(math.Max(x0, x1), x2)))
	minY := int(math.Floor(math.Min(math.Min(y0, y1), y2)))
	maxY := int(math.Ceil(math.Max(math.Max(y0, y1), y2)))

	if minX < 0 {
		minX = 0
	}
	if maxX >= fb.Width {
		maxX = fb.Width - 1
	}
	if minY < 0 {
		minY = 0
	}
	if maxY >= fb.Height {
		maxY = fb.Height - 1
	}
	if minX > maxX || minY > maxY {
		return
	}

	// Barycentric setup
	det := (y1-y2)*(x0-x2) + (x2-x1)*(y0-y2)
	if det > -1e-8 && det < 1e-8 {
		return
	}
	invDet := 1.0 / det

	dy12 := y1 - y2
	dx21 := x2 - x1
	dy20 := y2 - y0
	dx02 := x0 - x2

	shade := s.Shade * lc.Exposure
	invGamma := lc.InvGamma

	for sy := minY; sy <= maxY; sy++ {
		dsy := float64(sy) + 0.5 - y2
		rowOff := sy * fb.Width
		for sx := minX; sx <= maxX; sx++ {
			dsx := float64(sx) + 0.5 - x2
			w0 := (dy12*dsx + dx21*dsy) * invDet
			w1 := (dy20*dsx + dx02*dsy) * invDet
			w2 := 1.0 - w0 - w1

			if w0 < -0.001 || w1 < -0.001 || w2 < -0.001 {
				continue
			}

			z := w0*z0 + w1*z1 + w2*z2
			zIdx := rowOff + sx
			if z <= fb.ZBuf[zIdx] {
				continue
			}

			var cr, cg, cb, ca uint8
			if hasUV {
				// Perspective-correct texcoords.
				iz := 1 / z
				u := (w0*u0*z0 + w1*u1*z1 + w2*u2*z2) * iz
				v := (w0*v0*z0 + w1*v1*z1 + w2*v2*z2) * iz
				cr, cg, cb, ca = SampleTexture(s.Tex, u, v)
			} else {
				cr, cg, cb, ca = s.Base.R, s.Base.G, s.Base.B, s.Base.A
			}

			// Skip transparent texels
			if ca < 8 {
				continue
			}
			fb.ZBuf[zIdx] = z

			fr := math.Pow(ACESTonemap(srgbToLinear[cr]*shade), invGamma)
			fg := math.Pow(ACESTonemap(srgbToLinear[cg]*shade), invGamma)
			ffb := math.Pow(ACESTonemap(srgbToLinear[cb]*shade), invGamma)

			pxIdx := zIdx * 4
			fb.Color[pxIdx] = clamp255(fr * 255)
			fb.Color[pxIdx+1] = clamp255(fg * 255)
			fb.Color[pxIdx+2] = clamp255(ffb * 255)
			fb.Color[pxIdx+3] = 255
		}
	}
}

func clamp255(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v + 0.5)
}
