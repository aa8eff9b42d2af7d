package app

import (
	"context"
	"log/slog"

	"impactgraph/internal/core/watcher"
	"impactgraph/internal/data/source"
	"impactgraph/internal/shared/util"
)

// StartWatcher watches the project root and applies every debounced batch
// of changes, reporting each result through the update handler.
func (a *App) StartWatcher(ctx context.Context) error {
	limiter := util.NewLimiter(a.Config.Watch.RateLimit, a.Config.Watch.Burst)
	w, err := watcher.NewWatcher(a.root, a.Config.Watch.Debounce, a.ignore, limiter, func(paths []string) {
		a.HandleChanges(ctx, paths)
	})
	if err != nil {
		return err
	}
	if prev := a.activeWatcher.Swap(w); prev != nil {
		if err := prev.Close(); err != nil {
			slog.Warn("closing previous watcher failed", "error", err)
		}
	}
	return w.Watch()
}

// HandleChanges turns project-relative paths into a change set, applies it
// and computes its impact.
func (a *App) HandleChanges(ctx context.Context, paths []string) {
	if len(paths) == 0 {
		return
	}
	cs := source.ChangeSetFromPaths(a.root, paths)
	snap, err := a.Apply(ctx, cs)
	if err != nil {
		slog.Warn("incremental update failed", "paths", len(paths), "error", err)
		a.emitUpdate(Update{Snapshot: a.Snapshot(), Err: err})
		return
	}
	res := a.ComputeImpact(ctx, snap, cs)
	slog.Info("applied changes",
		"version", snap.Version(),
		"changed", len(res.Changed),
		"affected", res.TotalAffected,
		"score", res.Score,
	)
	a.emitUpdate(Update{Snapshot: snap, Result: res})
}
