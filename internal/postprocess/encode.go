package postprocess

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"

	"github.com/HugoSmits86/nativewebp"
)

// EncodeWebP writes img as lossless WebP.
func EncodeWebP(w io.Writer, img image.Image) error {
	if err := nativewebp.Encode(w, img, nil); err != nil {
		return fmt.Errorf("postprocess: webp encode: %w", err)
	}
	return nil
}

// DataURL encodes img as a base64 WebP data URL, the form chat-completion
// APIs accept for inline images.
func DataURL(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := EncodeWebP(&buf, img); err != nil {
		return "", err
	}
	return "data:image/webp;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// SaveWebP writes img to path, creating parent directories.
func SaveWebP(path string, img image.Image) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := EncodeWebP(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
