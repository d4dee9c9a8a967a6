package raster

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"slices"
	"sync"

	"homey-layout/internal/asset"
	"homey-layout/internal/mathutil"
	"homey-layout/internal/postprocess"
	"homey-layout/internal/texture"
	"homey-layout/internal/viewmatrix"
)

// ErrUnknownObject is returned by SetTransform for ids never added.
var ErrUnknownObject = errors.New("raster: unknown object")

// WallHeight is the height of the back and left walls drawn for context.
const WallHeight = 2.5

var (
	floorColor = color.NRGBA{R: 196, G: 178, B: 150, A: 255}
	wallColor  = color.NRGBA{R: 226, G: 222, B: 214, A: 255}
	background = color.NRGBA{R: 40, G: 42, B: 48, A: 255}

	// palette tints untextured objects so items stay distinguishable.
	palette = []color.NRGBA{
		{R: 170, G: 110, B: 70, A: 255},
		{R: 90, G: 120, B: 160, A: 255},
		{R: 120, G: 150, B: 90, A: 255},
		{R: 160, G: 90, B: 120, A: 255},
		{R: 200, G: 170, B: 80, A: 255},
		{R: 100, G: 100, B: 100, A: 255},
	}
)

// Options configures the snapshot renderer.
type Options struct {
	Width       int
	Height      int
	Supersample int
	RoomWidth   float64
	RoomDepth   float64
	UnitScale   float64 // asset units to meters
	Textures    texture.Resolver
}

type object struct {
	model *asset.Model
	world mathutil.Mat4
}

// Renderer is a software rasterizer holding the scene's objects. It is safe
// for concurrent use.
type Renderer struct {
	mu      sync.Mutex
	opts    Options
	cam     viewmatrix.Camera
	scale   mathutil.Mat4
	objects map[int]*object
}

// New creates a renderer for a room of the given size.
func New(opts Options) *Renderer {
	if opts.Width <= 0 {
		opts.Width = 512
	}
	if opts.Height <= 0 {
		opts.Height = opts.Width
	}
	if opts.Supersample <= 0 {
		opts.Supersample = 1
	}
	if opts.UnitScale <= 0 {
		opts.UnitScale = 1
	}
	return &Renderer{
		opts:    opts,
		cam:     viewmatrix.RoomCamera(opts.RoomWidth, opts.RoomDepth),
		scale:   mathutil.UniformScale(opts.UnitScale),
		objects: make(map[int]*object),
	}
}

// AddObject instantiates model under id at the identity placement. Adding
// an id twice replaces its model and keeps its transform.
func (r *Renderer) AddObject(id int, model *asset.Model) error {
	if model == nil {
		return fmt.Errorf("raster: add object %d: nil model", id)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if obj, ok := r.objects[id]; ok {
		obj.model = model
		return nil
	}
	r.objects[id] = &object{model: model, world: mathutil.Mat4Identity()}
	return nil
}

// SetTransform sets the object's render matrix (room placement).
func (r *Renderer) SetTransform(id int, m mathutil.Mat4) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	obj, ok := r.objects[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownObject, id)
	}
	obj.world = m
	return nil
}

// RemoveObject drops id from the scene. Unknown ids are ignored.
func (r *Renderer) RemoveObject(id int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.objects, id)
}

// Len returns the number of objects in the scene.
func (r *Renderer) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.objects)
}

// Snapshot renders the room and every object from the room camera.
func (r *Renderer) Snapshot(ctx context.Context) (*image.NRGBA, error) {
	r.mu.Lock()
	ids := make([]int, 0, len(r.objects))
	frame := make(map[int]object, len(r.objects))
	for id, obj := range r.objects {
		ids = append(ids, id)
		frame[id] = *obj
	}
	r.mu.Unlock()
	slices.Sort(ids)

	w := r.opts.Width * r.opts.Supersample
	h := r.opts.Height * r.opts.Supersample
	fb := NewFrameBuffer(w, h, background)
	proj := r.cam.NewProjector(w, h)
	lc := DefaultLightConfig(r.cam.Target.Sub(r.cam.Eye))

	r.drawRoom(fb, proj, &lc)

	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		obj := frame[id]
		world := mathutil.Mat4Mul(obj.world, r.scale)
		base := palette[id%len(palette)]
		for _, m := range obj.model.Meshes {
			r.drawMesh(fb, proj, &lc, m.Verts, m.UVs, m.Tris, m.TexPath, base, world)
		}
	}

	img := fb.Image()
	if r.opts.Supersample > 1 {
		img = postprocess.Downsample(img, r.opts.Width, r.opts.Height)
	}
	return img, nil
}
