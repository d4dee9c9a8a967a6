package raster

import (
	"image"
	"image/color"

	"homey-layout/internal/mathutil"
	"homey-layout/internal/mesh"
	"homey-layout/internal/viewmatrix"
)

// drawRoom draws the floor and the two walls facing the camera.
func (r *Renderer) drawRoom(fb *FrameBuffer, proj viewmatrix.Projector, lc *LightConfig) {
	W, D, H := float32(r.opts.RoomWidth), float32(r.opts.RoomDepth), float32(WallHeight)
	if W <= 0 || D <= 0 {
		return
	}
	quad := []mesh.Triangle{
		{VI: [3]int32{0, 1, 2}, TI: [3]int32{-1, -1, -1}},
		{VI: [3]int32{0, 2, 3}, TI: [3]int32{-1, -1, -1}},
	}
	id := mathutil.Mat4Identity()

	floor := [][3]float32{{0, 0, 0}, {W, 0, 0}, {W, 0, D}, {0, 0, D}}
	back := [][3]float32{{0, 0, 0}, {W, 0, 0}, {W, H, 0}, {0, H, 0}}
	left := [][3]float32{{0, 0, 0}, {0, 0, D}, {0, H, D}, {0, H, 0}}

	r.drawMesh(fb, proj, lc, back, nil, quad, "", wallColor, id)
	r.drawMesh(fb, proj, lc, left, nil, quad, "", wallColor, id)
	r.drawMesh(fb, proj, lc, floor, nil, quad, "", floorColor, id)
}

func (r *Renderer) drawMesh(
	fb *FrameBuffer,
	proj viewmatrix.Projector,
	lc *LightConfig,
	verts [][3]float32,
	uvs [][2]float32,
	tris []mesh.Triangle,
	texPath string,
	base color.NRGBA,
	world mathutil.Mat4,
) {
	if len(verts) == 0 {
		return
	}
	px, py, pz, visible := proj.ProjectVertices(verts, world)

	var tex *image.NRGBA
	if r.opts.Textures != nil && texPath != "" {
		tex = r.opts.Textures.Resolve(texPath)
	}
	s := Surface{UVs: uvs, Tex: tex, Base: base}
	if tex != nil {
		s.Base = averageColor(tex)
	}

	for _, tri := range tris {
		vi := [3]int{int(tri.VI[0]), int(tri.VI[1]), int(tri.VI[2])}
		if !visible && (pz[vi[0]] <= 0 || pz[vi[1]] <= 0 || pz[vi[2]] <= 0) {
			continue
		}
		s.Shade = lc.ComputeShade(faceNormal(verts, vi, world))
		ti := [3]int{int(tri.TI[0]), int(tri.TI[1]), int(tri.TI[2])}
		RasterizeTriangle(fb, px, py, pz, vi, ti, &s, lc)
	}
}

// faceNormal returns the world-space unit normal of a triangle.
func faceNormal(verts [][3]float32, vi [3]int, world mathutil.Mat4) mathutil.Vec3 {
	var p [3]mathutil.Vec3
	for k, i := range vi {
		if i < 0 || i >= len(verts) {
			return mathutil.Vec3{0, 1, 0}
		}
		v := verts[i]
		p[k] = world.MulPoint(mathutil.Vec3{float64(v[0]), float64(v[1]), float64(v[2])})
	}
	n := p[1].Sub(p[0]).Cross(p[2].Sub(p[0]))
	if n.Len() < 1e-12 {
		return mathutil.Vec3{0, 1, 0}
	}
	return n.Normalize()
}

func averageColor(tex *image.NRGBA) color.NRGBA {
	b := tex.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return palette[len(palette)-1]
	}

	var sumR, sumG, sumB float64
	for y := 0; y < h; y++ {
		off := y * tex.Stride
		for x := 0; x < w; x++ {
			i := off + x*4
			sumR += float64(tex.Pix[i])
			sumG += float64(tex.Pix[i+1])
			sumB += float64(tex.Pix[i+2])
		}
	}
	n := float64(w * h)
	return color.NRGBA{R: uint8(sumR/n + 0.5), G: uint8(sumG/n + 0.5), B: uint8(sumB/n + 0.5), A: 255}
}
