package main

import (
	"flag"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"homey-layout/internal/mathutil"
	"homey-layout/internal/mesh"
	"homey-layout/internal/texture"
)

func main() {
	texDir := flag.String("textures", "", "Texture directory (default: next to each asset)")
	unitScale := flag.Float64("unit-scale", 0.3048, "Asset units to meters")
	flag.Parse()

	for _, arg := range flag.Args() {
		meshes, err := mesh.ParseFile(arg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Parse error %s: %v\n", arg, err)
			continue
		}
		dir := *texDir
		if dir == "" {
			dir = filepath.Dir(arg)
		}
		cache := texture.NewCache(texture.BuildIndex(dir))

		fmt.Printf("\n=== %s (meshes=%d triangles=%d) ===\n", arg, len(meshes), mesh.TriangleCount(meshes))
		for i, m := range meshes {
			printMesh(i, m, cache)
		}

		lo, hi := mesh.Bounds(meshes)
		fmt.Printf("--- asset space ---\n  %s\n", box(lo, hi, 1))

		// Same correction the scene applies at the identity placement.
		var uLo, uHi mathutil.Vec3
		uLo = mathutil.Vec3{math.Inf(1), math.Inf(1), math.Inf(1)}
		uHi = mathutil.Vec3{math.Inf(-1), math.Inf(-1), math.Inf(-1)}
		for _, m := range meshes {
			for _, v := range m.Verts {
				p := mathutil.UprightCorrection.MulVec3(mathutil.Vec3{float64(v[0]), float64(v[1]), float64(v[2])})
				uLo, uHi = uLo.Min(p), uHi.Max(p)
			}
		}
		fmt.Printf("--- upright, meters (x%.4f) ---\n  %s\n", *unitScale, box(uLo, uHi, *unitScale))
	}
}

func printMesh(i int, m mesh.Mesh, cache *texture.Cache) {
	texInfo := "none"
	if m.TexPath != "" {
		texInfo = m.TexPath + " MISSING"
		if tex := cache.Resolve(m.TexPath); tex != nil {
			b := tex.Bounds()
			texInfo = fmt.Sprintf("%s %dx%d", m.TexPath, b.Dx(), b.Dy())
		}
	}
	uv := "no"
	if len(m.UVs) > 0 {
		uv = "yes"
	}
	fmt.Printf("  Mesh[%d] %q: v=%d t=%d uv=%s tex=%s\n", i, m.Name, len(m.Verts), len(m.Tris), uv, texInfo)
}

func box(lo, hi mathutil.Vec3, scale float64) string {
	size := hi.Sub(lo).Scale(scale)
	lo, hi = lo.Scale(scale), hi.Scale(scale)
	return fmt.Sprintf("size=(%.3f,%.3f,%.3f) min=(%.3f,%.3f,%.3f) max=(%.3f,%.3f,%.3f)",
		size[0], size[1], size[2], lo[0], lo[1], lo[2], hi[0], hi[1], hi[2])
}
