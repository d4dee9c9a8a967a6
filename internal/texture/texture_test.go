package texture

import (
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePNG(t *testing.T, path string, c color.NRGBA) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	for i := 0; i < 4; i++ {
		img.SetNRGBA(i%2, i/2, c)
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func writeJPEG(t *testing.T, path string) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, jpeg.Encode(f, img, nil))
}

func TestIndexPrefersAlphaFormats(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "maps")
	require.NoError(t, os.MkdirAll(sub, 0o755))
	writeJPEG(t, filepath.Join(dir, "Oak.jpg"))
	writePNG(t, filepath.Join(sub, "oak.png"), color.NRGBA{R: 200, A: 255})
	writeJPEG(t, filepath.Join(sub, "fabric.jpeg"))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))

	idx := BuildIndex(dir, filepath.Join(dir, "missing"))
	assert.Equal(t, 2, idx.Len())

	path, ok := idx.ResolvePath(`textures\OAK.tga`)
	require.True(t, ok)
	assert.Equal(t, filepath.Join(sub, "oak.png"), path)

	_, ok = idx.ResolvePath("walnut")
	assert.False(t, ok)
}

func TestCacheResolve(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "red.png"), color.NRGBA{R: 255, A: 255})
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.png"), []byte("not a png"), 0o644))

	c := NewCache(BuildIndex(dir))

	img := c.Resolve("red")
	require.NotNil(t, img)
	assert.Equal(t, color.NRGBA{R: 255, A: 255}, img.NRGBAAt(1, 1))
	assert.Same(t, img, c.Resolve("red.png"))

	assert.Nil(t, c.Resolve("broken"))
	assert.Nil(t, c.Resolve("absent"))

	var nilCache *Cache
	assert.Nil(t, nilCache.Resolve("red"))
}

func TestToNRGBARebases(t *testing.T) {
	src := image.NewGray(image.Rect(3, 3, 5, 6))
	src.SetGray(3, 3, color.Gray{Y: 128})

	dst := ToNRGBA(src)
	assert.Equal(t, image.Rect(0, 0, 2, 3), dst.Rect)
	assert.Equal(t, color.NRGBA{R: 128, G: 128, B: 128, A: 255}, dst.NRGBAAt(0, 0))
}
