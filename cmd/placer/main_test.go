package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"homey-layout/internal/catalog"
)

const search = `{"results": [
  {"product": {"displayName": "Sofa"}, "score": 0.9, "image": "image12"},
  {"product": {"displayName": ""}, "score": 0.5, "image": "image7"}
]}`

func TestCatalogCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "search.json")
	require.NoError(t, os.WriteFile(path, []byte(search), 0644))

	var out bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"catalog", "--json", path})
	require.NoError(t, cmd.Execute())

	var items []catalog.PlaceableItem
	require.NoError(t, json.Unmarshal(out.Bytes(), &items))
	require.Len(t, items, 2)
	assert.Equal(t, "Sofa", items[0].DisplayName)
	assert.Equal(t, "12", items[0].AssetRef)
	assert.Equal(t, catalog.DefaultDisplayName, items[1].DisplayName)
	assert.Equal(t, 1, items[1].ID)
}

func TestRunCommandStaticLayout(t *testing.T) {
	dir := t.TempDir()
	searchPath := filepath.Join(dir, "search.json")
	require.NoError(t, os.WriteFile(searchPath, []byte(search), 0644))
	layoutPath := filepath.Join(dir, "fixed.json")
	require.NoError(t, os.WriteFile(layoutPath, []byte(`{"products":[{"id":0,"position":{"x":1,"y":0,"z":1},"orientation":{"rotationX":0,"rotationY":45,"rotationZ":0}}]}`), 0644))
	cfgPath := filepath.Join(dir, "placer.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("render:\n  width: 32\n  supersample: 1\nlog:\n  level: error\n"), 0644))

	outDir := filepath.Join(dir, "out")
	var out bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"run", "--config", cfgPath, "--search", searchPath, "--static-layout", layoutPath, "--out", outDir})
	require.NoError(t, cmd.Execute())

	assert.Contains(t, out.String(), "converged")
	for _, name := range []string{"layout.json", "snapshot.webp", "metrics.prom"} {
		assert.FileExists(t, filepath.Join(outDir, name))
	}
	prom, err := os.ReadFile(filepath.Join(outDir, "metrics.prom"))
	require.NoError(t, err)
	assert.Contains(t, string(prom), "placer_")
}
