package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"homey-layout/internal/batch"
	"homey-layout/internal/config"
	"homey-layout/internal/negotiate"
)

func newBatchCommand(rf *rootFlags) *cobra.Command {
	var flags config.Flags
	cmd := &cobra.Command{
		Use:   "batch <search.json>...",
		Short: "Furnish several rooms concurrently",
		Long: "Runs one session per search result. Each session writes into a subdirectory " +
			"named after its file; manifest.json summarizes every session.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := setup(rf, flags)
			if err != nil {
				return err
			}
			defer rt.logger.Sync() //nolint:errcheck

			env, err := batch.NewEnv(rt.cfg, rt.logger, rt.metrics)
			if err != nil {
				return err
			}

			jobs := make([]batch.Job, len(args))
			for i, path := range args {
				name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
				jobs[i] = batch.Job{Name: fmt.Sprintf("%03d-%s", i, name), SearchPath: path}
			}

			printf(cmd, "Sessions: %d, Workers: %d, Strategy: %s\n", len(jobs), rt.cfg.Workers, rt.cfg.Negotiation.Strategy)
			printf(cmd, "Output: %s\n", rt.cfg.OutputDir)
			printf(cmd, "------------------------------------------------------------\n")

			start := time.Now()
			outcomes := batch.Run(cmd.Context(), env, jobs, rt.cfg.Workers)
			rt.writeMetrics()

			printf(cmd, "------------------------------------------------------------\n")
			printf(cmd, "Done in %.1fs\n", time.Since(start).Seconds())

			failed := 0
			for _, o := range outcomes {
				printf(cmd, "  %-24s %-10s rounds=%d placed=%d/%d\n", o.Job, o.State, o.Rounds, o.Placed, o.Items)
				if o.Error != "" {
					failed++
					printf(cmd, "    error: %s\n", o.Error)
				}
			}

			if err := os.MkdirAll(rt.cfg.OutputDir, 0755); err != nil {
				return err
			}
			manifestPath := filepath.Join(rt.cfg.OutputDir, "manifest.json")
			if err := batch.WriteManifest(manifestPath, outcomes); err != nil {
				rt.logger.Warn("manifest write failed", zap.Error(err))
			} else {
				printf(cmd, "Manifest: %s\n", manifestPath)
			}

			if failed > 0 {
				return fmt.Errorf("%d of %d sessions did not finish cleanly", failed, len(jobs))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&flags.OutputDir, "out", "", "Output directory")
	cmd.Flags().StringVar(&flags.Strategy, "strategy", "", "Round strategy: "+strings.Join(negotiate.StrategyNames(), ", "))
	cmd.Flags().IntVar(&flags.MaxIterations, "max-iterations", 0, "Round ceiling")
	cmd.Flags().StringVar(&flags.StaticLayout, "static-layout", "", "Serve this saved layout instead of calling the oracle API")
	cmd.Flags().IntVar(&flags.Workers, "workers", 0, "Concurrent sessions (default: NumCPU)")
	return cmd
}
