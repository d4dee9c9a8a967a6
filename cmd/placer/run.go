package main

import (
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"homey-layout/internal/batch"
	"homey-layout/internal/config"
	"homey-layout/internal/negotiate"
)

func newRunCommand(rf *rootFlags) *cobra.Command {
	var (
		flags  config.Flags
		search string
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Furnish one room from a product search result",
		Long: "Loads the search result, negotiates a layout with the oracle and writes " +
			"layout.json, snapshot.webp and the metrics textfile into the output directory.",
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

			out, runErr := batch.RunSession(cmd.Context(), env, batch.Job{SearchPath: search})
			rt.writeMetrics()

			if runErr == nil && out.Items == 0 {
				printf(cmd, "No placeable items in %s.\n", search)
				return nil
			}
			printf(cmd, "Session:  %s\n", out.SessionID)
			printf(cmd, "State:    %s after %d rounds\n", out.State, out.Rounds)
			printf(cmd, "Placed:   %d/%d (%d pending)\n", out.Placed, out.Items, out.Pending)
			if out.Layout != "" {
				printf(cmd, "Layout:   %s\n", out.Layout)
			}
			if out.Snapshot != "" {
				printf(cmd, "Snapshot: %s\n", out.Snapshot)
			}
			if runErr != nil {
				rt.logger.Error("session did not finish cleanly", zap.Error(runErr))
			}
			return runErr
		},
	}
	cmd.Flags().StringVar(&search, "search", "", "Product search result JSON")
	cmd.Flags().StringVar(&flags.OutputDir, "out", "", "Output directory")
	cmd.Flags().StringVar(&flags.Strategy, "strategy", "", "Round strategy: "+strings.Join(negotiate.StrategyNames(), ", "))
	cmd.Flags().IntVar(&flags.MaxIterations, "max-iterations", 0, "Round ceiling")
	cmd.Flags().StringVar(&flags.StaticLayout, "static-layout", "", "Serve this saved layout instead of calling the oracle API")
	_ = cmd.MarkFlagRequired("search")
	return cmd
}
