package batch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"homey-layout/internal/catalog"
	"homey-layout/internal/negotiate"
	"homey-layout/internal/oracle"
	"homey-layout/internal/postprocess"
	"homey-layout/internal/raster"
	"homey-layout/internal/scene"
	"homey-layout/internal/trs"
)

// Output file names inside a session directory.
const (
	LayoutFile   = "layout.json"
	SnapshotFile = "snapshot.webp"
)

// Job is one search result to furnish.
type Job struct {
	Name       string // output subdirectory; empty writes into the output dir itself
	SearchPath string
}

// Outcome summarizes one finished session.
type Outcome struct {
	Job       string `json:"job"`
	Search    string `json:"search"`
	SessionID string `json:"session_id,omitempty"`
	State     string `json:"state"`
	Rounds    int    `json:"rounds"`
	Items     int    `json:"items"`
	Placed    int    `json:"placed"`
	Pending   int    `json:"pending"`
	Layout    string `json:"layout,omitempty"`
	Snapshot  string `json:"snapshot,omitempty"`
	Error     string `json:"error,omitempty"`
}

// RunSession loads the job's catalog, negotiates a layout and writes the
// layout and final snapshot. A search result with no usable items is a
// no-op: the outcome stays idle and no error is returned. Outputs are written for every terminal state
// that got past catalog loading; the returned error is the session's.
func RunSession(ctx context.Context, env Env, job Job) (Outcome, error) {
	cfg := env.Config
	out := Outcome{Job: job.Name, Search: job.SearchPath, State: negotiate.Idle.String()}
	log := env.logger().With(zap.String("job", job.Name))

	items, err := catalog.ParseFile(job.SearchPath, catalog.Options{
		RoomWidth: cfg.Room.Width,
		RoomDepth: cfg.Room.Depth,
	})
	if errors.Is(err, catalog.ErrCatalogEmpty) {
		log.Info("nothing to place", zap.String("search", job.SearchPath))
		return out, nil
	}
	if err != nil {
		out.Error = err.Error()
		return out, err
	}
	out.Items = len(items)

	or, err := env.NewOracle()
	if err != nil {
		out.Error = err.Error()
		return out, err
	}

	renderer := raster.New(raster.Options{
		Width:       cfg.Render.Width,
		Height:      cfg.Render.Height,
		Supersample: cfg.Render.Supersample,
		RoomWidth:   cfg.Room.Width,
		RoomDepth:   cfg.Room.Depth,
		UnitScale:   cfg.Assets.UnitScale,
		Textures:    env.Textures,
	})
	tracker := scene.NewTracker(renderer, env.Assets, log.Named("scene"))

	room := oracle.Room{Width: cfg.Room.Width, Depth: cfg.Room.Depth}
	engine, err := negotiate.New(negotiate.Config{
		MaxIterations: cfg.Negotiation.MaxIterations,
		Room:          room,
		Strategy:      cfg.Negotiation.Strategy,
		SendImage:     cfg.Negotiation.SendImage,
		FloorPlan:     cfg.Negotiation.FloorPlan,
		FloorPlanCell: cfg.Negotiation.FloorPlanCell,
		OracleTimeout: cfg.Negotiation.OracleTimeout,
		AssetWorkers:  cfg.Negotiation.AssetWorkers,
	}, tracker, or, log, env.Metrics)
	if err != nil {
		out.Error = err.Error()
		return out, err
	}

	res, runErr := engine.Start(ctx, items)
	out.SessionID = res.SessionID
	out.State = res.State.String()
	out.Rounds = len(res.Rounds)
	out.Placed = len(res.Layout)
	out.Pending = len(res.Pending)
	if runErr != nil {
		out.Error = runErr.Error()
	}

	dir := filepath.Join(cfg.OutputDir, job.Name)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return out, fmt.Errorf("batch: %w", err)
	}

	names := make(map[int]string, len(items))
	for _, it := range items {
		names[it.ID] = it.DisplayName
	}
	layoutPath := filepath.Join(dir, LayoutFile)
	if err := trs.SaveLayout(layoutPath, res.Layout, names); err != nil {
		return out, err
	}
	out.Layout = layoutPath

	// The final picture is taken even when the session was cancelled.
	img, err := tracker.Snapshot(context.WithoutCancel(ctx))
	if err != nil {
		log.Warn("final snapshot failed", zap.Error(err))
	} else {
		snapPath := filepath.Join(dir, SnapshotFile)
		if err := postprocess.SaveWebP(snapPath, img); err != nil {
			return out, err
		}
		out.Snapshot = snapPath
	}

	return out, runErr
}
