package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultAPIKeyEnv names the environment variable holding the oracle key.
const DefaultAPIKeyEnv = "OPENAI_API_KEY"

// Config holds every setting of a placement run.
type Config struct {
	Room        RoomConfig        `yaml:"room"`
	Negotiation NegotiationConfig `yaml:"negotiation"`
	Oracle      OracleConfig      `yaml:"oracle"`
	Assets      AssetConfig       `yaml:"assets"`
	Render      RenderConfig      `yaml:"render"`
	Log         LogConfig         `yaml:"log"`
	Metrics     MetricsConfig     `yaml:"metrics"`
	OutputDir   string            `yaml:"output_dir"`
	Workers     int               `yaml:"workers"` // concurrent sessions in batch mode
}

// RoomConfig is the room extent in meters.
type RoomConfig struct {
	Width float64 `yaml:"width"`
	Depth float64 `yaml:"depth"`
}

type NegotiationConfig struct {
	MaxIterations int           `yaml:"max_iterations"`
	Strategy      string        `yaml:"strategy"` // bulk, single or two-phase
	SendImage     bool          `yaml:"send_image"`
	FloorPlan     bool          `yaml:"floor_plan"`
	FloorPlanCell float64       `yaml:"floor_plan_cell"`
	OracleTimeout time.Duration `yaml:"oracle_timeout"`
	AssetWorkers  int           `yaml:"asset_workers"`
}

type OracleConfig struct {
	Endpoint          string        `yaml:"endpoint"`
	Model             string        `yaml:"model"`
	APIKeyEnv         string        `yaml:"api_key_env"`
	Temperature       float64       `yaml:"temperature"`
	MaxTokens         int           `yaml:"max_tokens"`
	Timeout           time.Duration `yaml:"timeout"`
	RequestsPerMinute float64       `yaml:"requests_per_minute"`
	StaticLayout      string        `yaml:"static_layout"` // serve a saved layout instead of calling the API
}

type AssetConfig struct {
	Dir         string   `yaml:"dir"`      // local asset directory
	BaseURL     string   `yaml:"base_url"` // remote object storage; downloads land in CacheDir
	CacheDir    string   `yaml:"cache_dir"`
	Ext         string   `yaml:"ext"`
	UnitScale   float64  `yaml:"unit_scale"` // asset units to meters
	CacheSize   int      `yaml:"cache_size"`
	TextureDirs []string `yaml:"texture_dirs"`
}

type RenderConfig struct {
	Width       int `yaml:"width"`
	Height      int `yaml:"height"`
	Supersample int `yaml:"supersample"`
}

type LogConfig struct {
	Level       string   `yaml:"level"`
	Format      string   `yaml:"format"` // json or console
	OutputPaths []string `yaml:"output_paths"`
}

type MetricsConfig struct {
	Namespace string `yaml:"namespace"`
	Textfile  string `yaml:"textfile"` // file name inside the output dir; "-" disables
}

// Load reads a YAML config file. Fields not set in the file keep their
// zero values until Resolve.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// Flags holds CLI flag values that override config file settings.
type Flags struct {
	OutputDir     string
	Strategy      string
	MaxIterations int
	StaticLayout  string
	LogLevel      string
	Workers       int
}

// Resolve applies flag overrides and fills empty fields with defaults.
// Relative paths are resolved against baseDir, usually the config file's
// directory.
func (c *Config) Resolve(flags Flags, baseDir string) {
	if flags.OutputDir != "" {
		c.OutputDir = flags.OutputDir
	}
	if flags.Strategy != "" {
		c.Negotiation.Strategy = flags.Strategy
	}
	if flags.MaxIterations > 0 {
		c.Negotiation.MaxIterations = flags.MaxIterations
	}
	if flags.StaticLayout != "" {
		c.Oracle.StaticLayout = flags.StaticLayout
	}
	if flags.LogLevel != "" {
		c.Log.Level = flags.LogLevel
	}
	if flags.Workers > 0 {
		c.Workers = flags.Workers
	}

	if c.Room.Width <= 0 {
		c.Room.Width = 5
	}
	if c.Room.Depth <= 0 {
		c.Room.Depth = 5
	}

	n := &c.Negotiation
	if n.MaxIterations <= 0 {
		n.MaxIterations = 5
	}
	if n.Strategy == "" {
		n.Strategy = "bulk"
	}
	if n.FloorPlanCell <= 0 {
		n.FloorPlanCell = 0.25
	}
	if n.OracleTimeout <= 0 {
		n.OracleTimeout = 90 * time.Second
	}
	if n.AssetWorkers <= 0 {
		n.AssetWorkers = 4
	}

	o := &c.Oracle
	if o.APIKeyEnv == "" {
		o.APIKeyEnv = DefaultAPIKeyEnv
	}

	a := &c.Assets
	if a.Dir == "" && a.BaseURL == "" {
		a.Dir = "assets"
	}
	if a.CacheDir == "" {
		a.CacheDir = filepath.Join(os.TempDir(), "placer-assets")
	}
	if a.UnitScale <= 0 {
		a.UnitScale = 0.3048
	}
	if a.CacheSize <= 0 {
		a.CacheSize = 64
	}

	r := &c.Render
	if r.Width <= 0 {
		r.Width = 512
	}
	if r.Height <= 0 {
		r.Height = r.Width
	}
	if r.Supersample <= 0 {
		r.Supersample = 2
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "console"
	}
	if len(c.Log.OutputPaths) == 0 {
		c.Log.OutputPaths = []string{"stderr"}
	}

	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = "placer"
	}
	if c.Metrics.Textfile == "" {
		c.Metrics.Textfile = "metrics.prom"
	}

	if c.OutputDir == "" {
		c.OutputDir = "out"
	}
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}

	if baseDir != "" {
		c.OutputDir = resolvePath(baseDir, c.OutputDir)
		c.Oracle.StaticLayout = resolvePath(baseDir, c.Oracle.StaticLayout)
		a.Dir = resolvePath(baseDir, a.Dir)
		a.CacheDir = resolvePath(baseDir, a.CacheDir)
		for i, d := range a.TextureDirs {
			a.TextureDirs[i] = resolvePath(baseDir, d)
		}
	}
	if len(a.TextureDirs) == 0 && a.Dir != "" {
		a.TextureDirs = []string{a.Dir}
	}
}

// APIKey reads the oracle key from the configured environment variable.
func (c *Config) APIKey() string {
	return os.Getenv(c.Oracle.APIKeyEnv)
}

func resolvePath(base, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}
