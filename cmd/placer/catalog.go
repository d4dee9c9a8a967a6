package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"homey-layout/internal/catalog"
	"homey-layout/internal/config"
)

func newCatalogCommand(rf *rootFlags) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "catalog <search.json>",
		Short: "Print the placeable items of a product search result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(rf, config.Flags{})
			if err != nil {
				return err
			}
			items, err := catalog.ParseFile(args[0], catalog.Options{
				RoomWidth: cfg.Room.Width,
				RoomDepth: cfg.Room.Depth,
			})
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(items)
			}
			for _, it := range items {
				fp := "-"
				if it.Footprint != nil {
					fp = formatFootprint(it.Footprint)
				}
				printf(cmd, "%3d  %-28s asset=%-8s score=%.3f footprint=%s\n", it.ID, it.DisplayName, it.AssetRef, it.Score, fp)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of a table")
	return cmd
}

func formatFootprint(f *catalog.Footprint) string {
	return fmt.Sprintf("%.2fx%.2fm", f.Width, f.Depth)
}
