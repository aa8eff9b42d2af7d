package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"impactgraph/internal/data/queue"
	"impactgraph/internal/engine/graph"
)

const (
	persistQueueCapacity = 16
	persistBatchSize     = 8
	persistFlushInterval = 200 * time.Millisecond
)

func (a *App) startPersistWorker() {
	if a.store == nil || a.workerCancel != nil {
		return
	}
	a.persistQueue = queue.NewMemoryQueue[*graph.Snapshot](persistQueueCapacity)
	ctx, cancel := context.WithCancel(context.Background())
	a.workerCancel = cancel
	a.workerDone = make(chan struct{})
	go a.runPersistWorker(ctx)
}

func (a *App) enqueuePersist(snap *graph.Snapshot) {
	if a.persistQueue == nil {
		return
	}
	if a.persistQueue.Enqueue(snap) == queue.EnqueueDropped {
		// A later snapshot supersedes this one, so the next save covers it.
		slog.Warn("snapshot persist queue full, dropping", "version", snap.Version())
	}
}

func (a *App) runPersistWorker(ctx context.Context) {
	defer close(a.workerDone)

	for {
		batch, err := a.persistQueue.DequeueBatch(ctx, persistBatchSize, persistFlushInterval)
		if errors.Is(err, context.Canceled) {
			return
		}
		if err != nil && !errors.Is(err, io.EOF) {
			slog.Warn("snapshot persist dequeue failed", "error", err)
			continue
		}
		if len(batch) > 0 {
			// Only the newest snapshot of a batch is worth writing.
			a.persistSnapshot(batch[len(batch)-1])
		}
		if errors.Is(err, io.EOF) {
			return
		}
	}
}

func (a *App) persistSnapshot(snap *graph.Snapshot) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := a.store.Save(ctx, a.projectKey, snap); err != nil {
		slog.Warn("snapshot save failed", "version", snap.Version(), "error", err)
		return
	}
	if keep := a.Config.Store.Keep; keep > 0 {
		removed, err := a.store.Prune(ctx, a.projectKey, keep)
		if err != nil {
			slog.Warn("snapshot prune failed", "error", err)
			return
		}
		if removed > 0 {
			slog.Debug("pruned snapshots", "removed", removed)
		}
	}
}

// stopPersistWorker drains queued snapshots before returning, unless ctx
// expires first.
func (a *App) stopPersistWorker(ctx context.Context) error {
	if a.persistQueue == nil || a.workerDone == nil {
		return nil
	}
	_ = a.persistQueue.Close()
	select {
	case <-a.workerDone:
	case <-ctx.Done():
		a.workerCancel()
		<-a.workerDone
		return ctx.Err()
	}
	a.workerCancel()
	return nil
}
