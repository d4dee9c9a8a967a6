package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"homey-layout/internal/config"
	"homey-layout/internal/logging"
	"homey-layout/internal/metrics"
)

type rootFlags struct {
	configFile string
	logLevel   string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var rf rootFlags
	cmd := &cobra.Command{
		Use:           "placer",
		Short:         "Negotiate furniture layouts with a placement oracle",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	cmd.PersistentFlags().StringVar(&rf.configFile, "config", "", "Path to placer.yaml")
	cmd.PersistentFlags().StringVar(&rf.logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	cmd.AddCommand(newRunCommand(&rf))
	cmd.AddCommand(newBatchCommand(&rf))
	cmd.AddCommand(newCatalogCommand(&rf))
	return cmd
}

// loadConfig reads the config file if one was given and applies flags and
// defaults. Relative paths resolve against the config file's directory.
func loadConfig(rf *rootFlags, flags config.Flags) (config.Config, error) {
	var cfg config.Config
	baseDir := ""
	if rf.configFile != "" {
		var err error
		cfg, err = config.Load(rf.configFile)
		if err != nil {
			return config.Config{}, err
		}
		baseDir = filepath.Dir(rf.configFile)
	}
	flags.LogLevel = rf.logLevel
	cfg.Resolve(flags, baseDir)
	return cfg, nil
}

// app bundles what every subcommand needs after config load.
type app struct {
	cfg      config.Config
	logger   *zap.Logger
	registry *prometheus.Registry
	metrics  *metrics.Recorder
}

func setup(rf *rootFlags, flags config.Flags) (*app, error) {
	cfg, err := loadConfig(rf, flags)
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(cfg.Log)
	if err != nil {
		return nil, err
	}
	reg := prometheus.NewRegistry()
	rec, err := metrics.New(cfg.Metrics.Namespace, reg)
	if err != nil {
		return nil, err
	}
	return &app{cfg: cfg, logger: logger, registry: reg, metrics: rec}, nil
}

// writeMetrics dumps the registry next to the other outputs.
func (rt *app) writeMetrics() {
	if rt.cfg.Metrics.Textfile == "-" {
		return
	}
	path := filepath.Join(rt.cfg.OutputDir, rt.cfg.Metrics.Textfile)
	if err := os.MkdirAll(rt.cfg.OutputDir, 0755); err != nil {
		rt.logger.Warn("metrics not written", zap.Error(err))
		return
	}
	if err := metrics.WriteTextfile(path, rt.registry); err != nil {
		rt.logger.Warn("metrics not written", zap.Error(err))
		return
	}
	rt.logger.Debug("metrics written", zap.String("path", path))
}

func printf(cmd *cobra.Command, format string, args ...any) {
	fmt.Fprintf(cmd.OutOrStdout(), format, args...)
}
