package texture

import (
	"os"
	"path/filepath"
	"strings"
)

// rank orders extensions for the same stem; formats with alpha win over JPEG.
var rank = map[string]int{
	".jpg":  1,
	".jpeg": 1,
	".tga":  2,
	".png":  3,
}

// Index maps lowercase texture stems to filesystem paths.
type Index struct {
	entries map[string]string // stem.lower() → full path
}

// BuildIndex scans dirs recursively for PNG, JPEG and TGA files. Missing
// directories are skipped.
func BuildIndex(dirs ...string) *Index {
	idx := &Index{entries: make(map[string]string)}

	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
			if err != nil || d.IsDir() {
				return nil
			}
			ext := strings.ToLower(filepath.Ext(path))
			r, ok := rank[ext]
			if !ok {
				return nil
			}
			stem := strings.ToLower(strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)))

			existing, exists := idx.entries[stem]
			if !exists || r > rank[strings.ToLower(filepath.Ext(existing))] {
				idx.entries[stem] = path
			}
			return nil
		})
	}

	return idx
}

// ResolvePath returns the filesystem path for a texture name, or ("", false).
func (idx *Index) ResolvePath(texName string) (string, bool) {
	// Material names may carry a path or extension ("maps\\oak.jpg" → "oak").
	texName = strings.ReplaceAll(texName, "\\", "/")
	base := filepath.Base(texName)
	stem := strings.ToLower(strings.TrimSuffix(base, filepath.Ext(base)))

	path, ok := idx.entries[stem]
	return path, ok
}

// Len returns the number of indexed textures.
func (idx *Index) Len() int {
	return len(idx.entries)
}
