package asset

import (
	"context"
	"errors"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"homey-layout/internal/filter"
	"homey-layout/internal/mathutil"
	"homey-layout/internal/mesh"
)

// ErrUnavailable wraps every fetch or parse failure.
var ErrUnavailable = errors.New("asset: unavailable")

// DefaultCacheSize bounds the number of parsed models kept in memory.
const DefaultCacheSize = 64

// Model is a parsed furniture asset.
type Model struct {
	Ref    string
	Meshes []mesh.Mesh
	Min    mathutil.Vec3
	Max    mathutil.Vec3
}

// Loader resolves an asset ref to a parsed model.
type Loader interface {
	Load(ctx context.Context, ref string) (*Model, error)
}

// Cache loads models from a Source and keeps the most recently used ones.
// Concurrent loads of one ref share a single fetch. Failures are not cached.
type Cache struct {
	src    Source
	models *lru.Cache[string, *Model]
	group  singleflight.Group
}

// NewCache wraps src with an LRU of the given size (DefaultCacheSize if <= 0).
func NewCache(src Source, size int) (*Cache, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	models, err := lru.New[string, *Model](size)
	if err != nil {
		return nil, fmt.Errorf("asset: cache: %w", err)
	}
	return &Cache{src: src, models: models}, nil
}

// Load returns the parsed model for ref.
func (c *Cache) Load(ctx context.Context, ref string) (*Model, error) {
	if m, ok := c.models.Get(ref); ok {
		return m, nil
	}

	v, err, _ := c.group.Do(ref, func() (any, error) {
		if m, ok := c.models.Get(ref); ok {
			return m, nil
		}
		m, err := c.fetch(ctx, ref)
		if err != nil {
			return nil, err
		}
		c.models.Add(ref, m)
		return m, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Model), nil
}

// Len reports how many models are cached.
func (c *Cache) Len() int {
	return c.models.Len()
}

func (c *Cache) fetch(ctx context.Context, ref string) (*Model, error) {
	rc, err := c.src.Open(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrUnavailable, ref, err)
	}
	defer rc.Close()

	meshes, err := mesh.Parse(rc, ref)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrUnavailable, ref, err)
	}
	meshes = filter.StripHelpers(meshes)
	lo, hi := mesh.Bounds(meshes)
	return &Model{Ref: ref, Meshes: meshes, Min: lo, Max: hi}, nil
}
