package batch

import (
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"homey-layout/internal/asset"
	"homey-layout/internal/config"
	"homey-layout/internal/metrics"
	"homey-layout/internal/oracle"
	"homey-layout/internal/texture"
	"homey-layout/internal/trs"
)

// Env holds the resources shared by every session of a run.
type Env struct {
	Config   config.Config
	Assets   asset.Loader
	Textures texture.Resolver
	// NewOracle returns the oracle for one session. Static oracles hand out
	// each placement once, so sessions must not share them.
	NewOracle func() (oracle.Oracle, error)
	Logger    *zap.Logger
	Metrics   *metrics.Recorder
}

// NewEnv wires the asset cache, texture index and oracle from a resolved
// config. rec may be nil.
func NewEnv(cfg config.Config, logger *zap.Logger, rec *metrics.Recorder) (Env, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var src asset.Source
	if cfg.Assets.BaseURL != "" {
		src = &asset.HTTPSource{
			BaseURL:  cfg.Assets.BaseURL,
			CacheDir: cfg.Assets.CacheDir,
			Ext:      cfg.Assets.Ext,
			Logger:   logger.Named("asset"),
		}
	} else {
		src = asset.DirSource{Dir: cfg.Assets.Dir, Ext: cfg.Assets.Ext}
	}
	cache, err := asset.NewCache(src, cfg.Assets.CacheSize)
	if err != nil {
		return Env{}, fmt.Errorf("batch: asset cache: %w", err)
	}

	index := texture.BuildIndex(cfg.Assets.TextureDirs...)
	logger.Debug("texture index built", zap.Int("textures", index.Len()))

	newOracle, err := oracleFactory(cfg, logger.Named("oracle"))
	if err != nil {
		return Env{}, err
	}

	return Env{
		Config:    cfg,
		Assets:    cache,
		Textures:  texture.NewCache(index),
		NewOracle: newOracle,
		Logger:    logger,
		Metrics:   rec,
	}, nil
}

func oracleFactory(cfg config.Config, logger *zap.Logger) (func() (oracle.Oracle, error), error) {
	if path := cfg.Oracle.StaticLayout; path != "" {
		layout, err := trs.LoadLayout(path)
		if err != nil {
			return nil, fmt.Errorf("batch: static layout: %w", err)
		}
		logger.Info("using static layout", zap.String("path", path), zap.Int("items", len(layout)))
		return func() (oracle.Oracle, error) {
			return oracle.StaticFromLayout(layout), nil
		}, nil
	}

	key := cfg.APIKey()
	if key == "" {
		return nil, fmt.Errorf("batch: no oracle API key in $%s and no static layout", cfg.Oracle.APIKeyEnv)
	}
	client := oracle.NewClient(oracle.Config{
		Endpoint:          cfg.Oracle.Endpoint,
		Model:             cfg.Oracle.Model,
		APIKey:            key,
		Temperature:       cfg.Oracle.Temperature,
		MaxTokens:         cfg.Oracle.MaxTokens,
		Timeout:           cfg.Oracle.Timeout,
		RequestsPerMinute: cfg.Oracle.RequestsPerMinute,
	}, &http.Client{}, logger)
	return func() (oracle.Oracle, error) { return client, nil }, nil
}

func (e Env) logger() *zap.Logger {
	if e.Logger == nil {
		return zap.NewNop()
	}
	return e.Logger
}
