package mesh

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// ErrNoGeometry is returned for files that parse but contain no faces.
var ErrNoGeometry = errors.New("mesh: no geometry")

// ParseFile reads a Wavefront OBJ file.
func ParseFile(path string) ([]Mesh, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("mesh: open %s: %w", path, err)
	}
	defer f.Close()
	return Parse(f, path)
}

// Parse reads the OBJ subset furniture assets use: v, vt, f (triangles, quads
// and larger polygons fanned from the first corner, negative indices
// allowed), usemtl, o and g. Normals and everything else are ignored.
// Vertex and texcoord pools are global in OBJ; each returned Mesh gets its
// own compacted copy.
func Parse(r io.Reader, name string) ([]Mesh, error) {
	p := &parser{name: name}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || line[0] == '#' {
			continue
		}
		fields := strings.Fields(line)
		if err := p.handle(fields); err != nil {
			return nil, fmt.Errorf("mesh: %s:%d: %w", name, lineNo, err)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("mesh: read %s: %w", name, err)
	}

	meshes := p.finish()
	if len(meshes) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoGeometry, name)
	}
	return meshes, nil
}

type corner struct {
	v, vt int // zero-based into the global pools, vt = -1 when absent
}

type group struct {
	name    string
	texPath string
	faces   [][3]corner
}

type parser struct {
	name   string
	verts  [][3]float32
	uvs    [][2]float32
	groups []*group
	cur    *group
	mtl    string
}

func (p *parser) handle(fields []string) error {
	switch fields[0] {
	case "v":
		if len(fields) < 4 {
			return fmt.Errorf("vertex needs 3 coordinates")
		}
		var v [3]float32
		for k := 0; k < 3; k++ {
			f, err := strconv.ParseFloat(fields[1+k], 32)
			if err != nil {
				return fmt.Errorf("vertex: %w", err)
			}
			v[k] = float32(f)
		}
		p.verts = append(p.verts, v)
	case "vt":
		if len(fields) < 2 {
			return fmt.Errorf("texcoord needs u")
		}
		var uv [2]float32
		for k := 0; k < 2 && 1+k < len(fields); k++ {
			f, err := strconv.ParseFloat(fields[1+k], 32)
			if err != nil {
				return fmt.Errorf("texcoord: %w", err)
			}
			uv[k] = float32(f)
		}
		p.uvs = append(p.uvs, uv)
	case "o", "g":
		name := ""
		if len(fields) > 1 {
			name = strings.Join(fields[1:], " ")
		}
		p.cur = &group{name: name, texPath: p.mtl}
		p.groups = append(p.groups, p.cur)
	case "usemtl":
		if len(fields) > 1 {
			p.mtl = fields[1]
		}
		if p.cur == nil || len(p.cur.faces) > 0 {
			name := ""
			if p.cur != nil {
				name = p.cur.name
			}
			p.cur = &group{name: name}
			p.groups = append(p.groups, p.cur)
		}
		p.cur.texPath = p.mtl
	case "f":
		if len(fields) < 4 {
			return fmt.Errorf("face needs at least 3 corners")
		}
		corners := make([]corner, 0, len(fields)-1)
		for _, tok := range fields[1:] {
			c, err := p.parseCorner(tok)
			if err != nil {
				return err
			}
			corners = append(corners, c)
		}
		if p.cur == nil {
			p.cur = &group{texPath: p.mtl}
			p.groups = append(p.groups, p.cur)
		}
		for i := 1; i+1 < len(corners); i++ {
			p.cur.faces = append(p.cur.faces, [3]corner{corners[0], corners[i], corners[i+1]})
		}
	}
	return nil
}

func (p *parser) parseCorner(tok string) (corner, error) {
	parts := strings.Split(tok, "/")
	v, err := resolveIndex(parts[0], len(p.verts))
	if err != nil {
		return corner{}, fmt.Errorf("face vertex %q: %w", tok, err)
	}
	c := corner{v: v, vt: -1}
	if len(parts) > 1 && parts[1] != "" {
		vt, err := resolveIndex(parts[1], len(p.uvs))
		if err != nil {
			return corner{}, fmt.Errorf("face texcoord %q: %w", tok, err)
		}
		c.vt = vt
	}
	return c, nil
}

// resolveIndex converts a 1-based (or negative, relative) OBJ index.
func resolveIndex(s string, n int) (int, error) {
	i, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	switch {
	case i > 0 && i <= n:
		return i - 1, nil
	case i < 0 && -i <= n:
		return n + i, nil
	}
	return 0, fmt.Errorf("index %d out of range (%d defined)", i, n)
}

func (p *parser) finish() []Mesh {
	var meshes []Mesh
	for _, g := range p.groups {
		if len(g.faces) == 0 {
			continue
		}
		m := Mesh{Name: g.name, TexPath: g.texPath}
		vmap := make(map[int]int32)
		tmap := make(map[int]int32)
		for _, face := range g.faces {
			var tri Triangle
			for k, c := range face {
				vi, ok := vmap[c.v]
				if !ok {
					vi = int32(len(m.Verts))
					vmap[c.v] = vi
					m.Verts = append(m.Verts, p.verts[c.v])
				}
				tri.VI[k] = vi
				tri.TI[k] = -1
				if c.vt >= 0 {
					ti, ok := tmap[c.vt]
					if !ok {
						ti = int32(len(m.UVs))
						tmap[c.vt] = ti
						m.UVs = append(m.UVs, p.uvs[c.vt])
					}
					tri.TI[k] = ti
				}
			}
			m.Tris = append(m.Tris, tri)
		}
		meshes = append(meshes, m)
	}
	return meshes
}
