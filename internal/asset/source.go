package asset

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// DefaultExt is the file extension appended to asset refs.
const DefaultExt = ".obj"

// Source opens the raw bytes of an asset by reference.
type Source interface {
	Open(ctx context.Context, ref string) (io.ReadCloser, error)
}

// fileName maps an asset ref to a file name, rejecting refs that would
// escape the directory.
func fileName(ref, ext string) (string, error) {
	if ref == "" || strings.ContainsAny(ref, `/\`) || ref == "." || ref == ".." {
		return "", fmt.Errorf("asset: invalid ref %q", ref)
	}
	if ext == "" {
		ext = DefaultExt
	}
	return ref + ext, nil
}

// DirSource reads assets from a local directory as <dir>/<ref><ext>.
type DirSource struct {
	Dir string
	Ext string
}

// Open implements Source.
func (s DirSource) Open(ctx context.Context, ref string) (io.ReadCloser, error) {
	name, err := fileName(ref, s.Ext)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(filepath.Join(s.Dir, name))
	if err != nil {
		return nil, fmt.Errorf("asset: open %s: %w", ref, err)
	}
	return f, nil
}

// HTTPSource downloads assets from an object-storage base URL into CacheDir.
// A file already present in CacheDir is used without a download.
type HTTPSource struct {
	BaseURL  string
	CacheDir string
	Ext      string
	Client   *http.Client
	Logger   *zap.Logger
}

// Open implements Source.
func (s *HTTPSource) Open(ctx context.Context, ref string) (io.ReadCloser, error) {
	name, err := fileName(ref, s.Ext)
	if err != nil {
		return nil, err
	}
	local := filepath.Join(s.CacheDir, name)
	if f, err := os.Open(local); err == nil {
		s.logger().Debug("asset cached locally", zap.String("ref", ref), zap.String("path", local))
		return f, nil
	}

	if err := s.download(ctx, name, local); err != nil {
		return nil, fmt.Errorf("asset: download %s: %w", ref, err)
	}
	return os.Open(local)
}

func (s *HTTPSource) download(ctx context.Context, name, local string) error {
	u, err := url.JoinPath(s.BaseURL, name)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %s", resp.Status)
	}

	if err := os.MkdirAll(s.CacheDir, 0755); err != nil {
		return err
	}
	// Write to a temp file first so an interrupted download never leaves a
	// truncated file that later runs would treat as cached.
	tmp, err := os.CreateTemp(s.CacheDir, name+".*.part")
	if err != nil {
		return err
	}
	n, copyErr := io.Copy(tmp, resp.Body)
	closeErr := tmp.Close()
	if err := errors.Join(copyErr, closeErr); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), local); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	s.logger().Info("asset downloaded", zap.String("url", u), zap.Int64("bytes", n))
	return nil
}

func (s *HTTPSource) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}
