package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"strings"
)

// ErrCatalogEmpty means the search result produced no usable item.
var ErrCatalogEmpty = errors.New("catalog: no usable items")

// Options scales normalized detection boxes into room meters.
type Options struct {
	RoomWidth float64
	RoomDepth float64
}

// Product search response schema (Vision API product search).
type apiResponse struct {
	Responses []struct {
		ProductSearchResults *searchResults `json:"productSearchResults"`
	} `json:"responses"`
}

type searchResults struct {
	Results               []productResult `json:"results"`
	ProductGroupedResults []groupedResult `json:"productGroupedResults"`
}

type groupedResult struct {
	BoundingPoly *struct {
		NormalizedVertices []struct {
			X *float64 `json:"x"`
			Y *float64 `json:"y"`
		} `json:"normalizedVertices"`
	} `json:"boundingPoly"`
	Results []productResult `json:"results"`
}

type productResult struct {
	Product struct {
		Name            string `json:"name"`
		DisplayName     string `json:"displayName"`
		ProductCategory string `json:"productCategory"`
	} `json:"product"`
	Score float64 `json:"score"`
	Image string  `json:"image"`
}

// ParseFile reads a product search result from disk and normalizes it.
func ParseFile(path string, opts Options) ([]PlaceableItem, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: read %s: %w", path, err)
	}
	items, err := Normalize(raw, opts)
	if err != nil {
		return nil, fmt.Errorf("catalog: %s: %w", path, err)
	}
	return items, nil
}

// Normalize turns a raw product search result into an ordered list of
// placeable items. Accepted shapes: the full API response, a bare
// productSearchResults object, a list of grouped results, or a flat list of
// scored results. Grouped results win over the flat list when both exist.
func Normalize(raw []byte, opts Options) ([]PlaceableItem, error) {
	res, err := decode(raw)
	if err != nil {
		return nil, err
	}

	var items []PlaceableItem
	if len(res.ProductGroupedResults) > 0 {
		for _, g := range res.ProductGroupedResults {
			top, ok := topRanked(g.Results)
			if !ok {
				continue
			}
			it, ok := toItem(top, groupVertices(g), opts)
			if !ok {
				continue
			}
			items = append(items, it)
		}
	} else {
		for _, r := range res.Results {
			it, ok := toItem(r, nil, opts)
			if !ok {
				continue
			}
			items = append(items, it)
		}
	}

	if len(items) == 0 {
		return nil, ErrCatalogEmpty
	}
	for i := range items {
		items[i].ID = i
	}
	return items, nil
}

func decode(raw []byte) (*searchResults, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, ErrCatalogEmpty
	}

	if trimmed[0] == '[' {
		// A bare list: grouped entries carry their own "results".
		var probe []map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &probe); err != nil {
			return nil, fmt.Errorf("catalog: parse list: %w", err)
		}
		if len(probe) > 0 {
			if _, grouped := probe[0]["results"]; grouped {
				var groups []groupedResult
				if err := json.Unmarshal(trimmed, &groups); err != nil {
					return nil, fmt.Errorf("catalog: parse grouped list: %w", err)
				}
				return &searchResults{ProductGroupedResults: groups}, nil
			}
		}
		var flat []productResult
		if err := json.Unmarshal(trimmed, &flat); err != nil {
			return nil, fmt.Errorf("catalog: parse flat list: %w", err)
		}
		return &searchResults{Results: flat}, nil
	}

	var api apiResponse
	if err := json.Unmarshal(trimmed, &api); err != nil {
		return nil, fmt.Errorf("catalog: parse response: %w", err)
	}
	for _, r := range api.Responses {
		if r.ProductSearchResults != nil {
			return r.ProductSearchResults, nil
		}
	}

	var bare searchResults
	if err := json.Unmarshal(trimmed, &bare); err != nil {
		return nil, fmt.Errorf("catalog: parse results: %w", err)
	}
	return &bare, nil
}

// topRanked returns the highest-scoring candidate; ties keep the earlier one.
func topRanked(results []productResult) (productResult, bool) {
	if len(results) == 0 {
		return productResult{}, false
	}
	best := results[0]
	for _, r := range results[1:] {
		if r.Score > best.Score {
			best = r
		}
	}
	return best, true
}

func groupVertices(g groupedResult) []Vertex {
	if g.BoundingPoly == nil {
		return nil
	}
	verts := make([]Vertex, 0, len(g.BoundingPoly.NormalizedVertices))
	for _, v := range g.BoundingPoly.NormalizedVertices {
		// The API omits zero coordinates.
		var vx, vy float64
		if v.X != nil {
			vx = *v.X
		}
		if v.Y != nil {
			vy = *v.Y
		}
		verts = append(verts, Vertex{X: vx, Y: vy})
	}
	return verts
}

func toItem(r productResult, box []Vertex, opts Options) (PlaceableItem, bool) {
	ref, ok := ExtractAssetRef(r.Image)
	if !ok {
		return PlaceableItem{}, false
	}
	name := strings.TrimSpace(r.Product.DisplayName)
	if name == "" {
		name = DefaultDisplayName
	}
	return PlaceableItem{
		DisplayName: name,
		Category:    r.Product.ProductCategory,
		Score:       r.Score,
		Footprint:   footprint(box, opts),
		BoundingBox: box,
		AssetRef:    ref,
	}, true
}

func footprint(box []Vertex, opts Options) *Footprint {
	if len(box) < 2 {
		return nil
	}
	minX, maxX := math.Inf(1), math.Inf(-1)
	minY, maxY := math.Inf(1), math.Inf(-1)
	for _, v := range box {
		minX = math.Min(minX, v.X)
		maxX = math.Max(maxX, v.X)
		minY = math.Min(minY, v.Y)
		maxY = math.Max(maxY, v.Y)
	}
	w, d := opts.RoomWidth, opts.RoomDepth
	if w <= 0 {
		w = 1
	}
	if d <= 0 {
		d = 1
	}
	return &Footprint{Width: (maxX - minX) * w, Depth: (maxY - minY) * d}
}

// ExtractAssetRef pulls the asset number out of a product image resource
// name such as "projects/p/locations/l/products/product_id35/referenceImages/image35".
// The first "/"-separated component starting with "product_id" or "image"
// that contains digits wins.
func ExtractAssetRef(image string) (string, bool) {
	for _, part := range strings.Split(image, "/") {
		if !strings.HasPrefix(part, "product_id") && !strings.HasPrefix(part, "image") {
			continue
		}
		var digits strings.Builder
		for _, r := range part {
			if r >= '0' && r <= '9' {
				digits.WriteRune(r)
			}
		}
		if digits.Len() > 0 {
			return digits.String(), true
		}
	}
	return "", false
}
