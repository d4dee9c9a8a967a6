package scene

import (
	"context"
	"errors"
	"fmt"
	"image"
	"slices"
	"strconv"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"homey-layout/internal/asset"
	"homey-layout/internal/catalog"
	"homey-layout/internal/mathutil"
	"homey-layout/internal/trs"
)

var (
	// ErrNotPresent means a transform was applied before the item's asset
	// was instantiated. Seeing it indicates a sequencing bug in the caller.
	ErrNotPresent = errors.New("scene: item not present")
	// ErrAssetUnavailable means the item's asset could not be fetched or parsed.
	ErrAssetUnavailable = errors.New("scene: asset unavailable")
)

// Renderer is the scene graph the tracker drives.
type Renderer interface {
	AddObject(id int, model *asset.Model) error
	SetTransform(id int, m mathutil.Mat4) error
	RemoveObject(id int)
	Snapshot(ctx context.Context) (*image.NRGBA, error)
}

// Entry is the tracked state of one placeable item.
type Entry struct {
	Item      catalog.PlaceableItem
	Present   bool
	Transform trs.Transform
}

// Tracker records which items are in the scene and where they sit.
// Methods are safe for concurrent use; EnsurePresent calls for one id are
// collapsed into a single asset load.
type Tracker struct {
	renderer Renderer
	assets   asset.Loader
	logger   *zap.Logger

	mu      sync.Mutex
	entries map[int]*Entry
	loads   singleflight.Group
}

// NewTracker creates an empty tracker.
func NewTracker(renderer Renderer, assets asset.Loader, logger *zap.Logger) *Tracker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tracker{
		renderer: renderer,
		assets:   assets,
		logger:   logger,
		entries:  make(map[int]*Entry),
	}
}

// EnsurePresent instantiates item's asset at the identity transform unless
// it is already in the scene. Failures wrap ErrAssetUnavailable and leave
// the item absent, so a later call may retry.
func (t *Tracker) EnsurePresent(ctx context.Context, item catalog.PlaceableItem) error {
	if t.Present(item.ID) {
		return nil
	}

	_, err, _ := t.loads.Do(strconv.Itoa(item.ID), func() (any, error) {
		if t.Present(item.ID) {
			return nil, nil
		}
		return nil, t.instantiate(ctx, item)
	})
	return err
}

func (t *Tracker) instantiate(ctx context.Context, item catalog.PlaceableItem) error {
	if item.AssetRef == "" {
		return fmt.Errorf("%w: item %d has no asset ref", ErrAssetUnavailable, item.ID)
	}
	model, err := t.assets.Load(ctx, item.AssetRef)
	if err != nil {
		return fmt.Errorf("%w: item %d: %w", ErrAssetUnavailable, item.ID, err)
	}

	identity := trs.Identity()
	if err := t.renderer.AddObject(item.ID, model); err != nil {
		return fmt.Errorf("%w: item %d: %w", ErrAssetUnavailable, item.ID, err)
	}
	if err := t.renderer.SetTransform(item.ID, identity.RenderMatrix()); err != nil {
		t.renderer.RemoveObject(item.ID)
		return fmt.Errorf("%w: item %d: %w", ErrAssetUnavailable, item.ID, err)
	}

	t.mu.Lock()
	t.entries[item.ID] = &Entry{Item: item, Present: true, Transform: identity}
	t.mu.Unlock()

	t.logger.Debug("item instantiated",
		zap.Int("item_id", item.ID),
		zap.String("asset_ref", item.AssetRef),
		zap.Int("meshes", len(model.Meshes)),
	)
	return nil
}

// ApplyTransform moves a present item. The change is visible to the next
// Snapshot.
func (t *Tracker) ApplyTransform(id int, tr trs.Transform) error {
	if err := tr.Validate(); err != nil {
		return fmt.Errorf("scene: item %d: %w", id, err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[id]
	if !ok || !e.Present {
		return fmt.Errorf("%w: %d", ErrNotPresent, id)
	}
	if err := t.renderer.SetTransform(id, tr.RenderMatrix()); err != nil {
		return fmt.Errorf("scene: item %d: %w", id, err)
	}
	e.Transform = tr
	return nil
}

// Remove takes an item out of the scene. Unknown ids are ignored.
func (t *Tracker) Remove(id int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.entries[id]; !ok {
		return
	}
	delete(t.entries, id)
	t.renderer.RemoveObject(id)
}

// Snapshot renders the current scene.
func (t *Tracker) Snapshot(ctx context.Context) (*image.NRGBA, error) {
	img, err := t.renderer.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("scene: snapshot: %w", err)
	}
	return img, nil
}

// Present reports whether id's asset is in the scene.
func (t *Tracker) Present(id int) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[id]
	return ok && e.Present
}

// Layout returns the current transform of every present item.
func (t *Tracker) Layout() trs.Layout {
	t.mu.Lock()
	defer t.mu.Unlock()
	l := make(trs.Layout, len(t.entries))
	for id, e := range t.entries {
		if e.Present {
			l[id] = e.Transform
		}
	}
	return l
}

// Entries returns a copy of all entries ordered by id.
func (t *Tracker) Entries() []Entry {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Entry, 0, len(t.entries))
	for _, e := range t.entries {
		out = append(out, *e)
	}
	slices.SortFunc(out, func(a, b Entry) int { return a.Item.ID - b.Item.ID })
	return out
}
