package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadAndResolve(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "placer.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
room:
  width: 4
  depth: 3.5
negotiation:
  strategy: two-phase
  oracle_timeout: 30s
oracle:
  model: gpt-4o-mini
  api_key_env: PLACER_TEST_KEY
assets:
  dir: models
log:
  format: json
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	cfg.Resolve(Flags{MaxIterations: 3}, dir)

	assert.Equal(t, RoomConfig{Width: 4, Depth: 3.5}, cfg.Room)
	assert.Equal(t, "two-phase", cfg.Negotiation.Strategy)
	assert.Equal(t, 3, cfg.Negotiation.MaxIterations)
	assert.Equal(t, 30*time.Second, cfg.Negotiation.OracleTimeout)
	assert.Equal(t, "gpt-4o-mini", cfg.Oracle.Model)
	assert.Equal(t, filepath.Join(dir, "models"), cfg.Assets.Dir)
	assert.Equal(t, []string{filepath.Join(dir, "models")}, cfg.Assets.TextureDirs)
	assert.Equal(t, filepath.Join(dir, "out"), cfg.OutputDir)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.InDelta(t, 0.3048, cfg.Assets.UnitScale, 1e-12)

	t.Setenv("PLACER_TEST_KEY", "sk-test")
	assert.Equal(t, "sk-test", cfg.APIKey())
}

func TestResolveDefaults(t *testing.T) {
	var cfg Config
	cfg.Resolve(Flags{}, "")

	assert.Equal(t, 5, cfg.Negotiation.MaxIterations)
	assert.Equal(t, "bulk", cfg.Negotiation.Strategy)
	assert.Equal(t, 4, cfg.Negotiation.AssetWorkers)
	assert.Equal(t, DefaultAPIKeyEnv, cfg.Oracle.APIKeyEnv)
	assert.Equal(t, 512, cfg.Render.Width)
	assert.Equal(t, 512, cfg.Render.Height)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, "placer", cfg.Metrics.Namespace)
	assert.Equal(t, "metrics.prom", cfg.Metrics.Textfile)
	assert.Equal(t, runtime.NumCPU(), cfg.Workers)
	assert.Equal(t, "out", cfg.OutputDir)
}

func TestResolveFlagsWin(t *testing.T) {
	cfg := Config{Negotiation: NegotiationConfig{Strategy: "bulk", MaxIterations: 9}}
	cfg.Resolve(Flags{Strategy: "single", MaxIterations: 2, StaticLayout: "/tmp/l.json", OutputDir: "/tmp/o", LogLevel: "debug"}, "/base")

	assert.Equal(t, "single", cfg.Negotiation.Strategy)
	assert.Equal(t, 2, cfg.Negotiation.MaxIterations)
	assert.Equal(t, "/tmp/l.json", cfg.Oracle.StaticLayout)
	assert.Equal(t, "/tmp/o", cfg.OutputDir)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("room: [1, 2"), 0o644))
	_, err = Load(path)
	assert.Error(t, err)
}
