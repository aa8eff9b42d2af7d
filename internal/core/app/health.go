package app

import (
	"context"
	"fmt"
	"time"
)

type HealthStatus struct {
	Status     string            `json:"status"`
	Timestamp  time.Time         `json:"timestamp"`
	Components map[string]string `json:"components"`
}

type HealthService struct {
	app *App
}

func NewHealthService(app *App) *HealthService {
	return &HealthService{app: app}
}

func (s *HealthService) Check(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:     "up",
		Timestamp:  time.Now().UTC(),
		Components: make(map[string]string),
	}

	snap := s.app.Snapshot()
	if snap.Version() == 0 {
		status.Status = "degraded"
		status.Components["graph"] = "no snapshot published"
	} else {
		status.Components["graph"] = fmt.Sprintf("ok (version %d, %d files, %d edges)", snap.Version(), snap.Len(), snap.EdgeCount())
	}

	if s.app.registry != nil {
		status.Components["parser"] = "ok"
	} else {
		status.Status = "degraded"
		status.Components["parser"] = "missing"
	}

	stats := s.app.CacheStats()
	status.Components["cache"] = fmt.Sprintf("ok (%d entries, %d hits, %d misses)", stats.Len, stats.Hits, stats.Misses)

	if s.app.store != nil {
		if _, err := s.app.store.List(ctx, s.app.projectKey); err != nil {
			status.Status = "degraded"
			status.Components["snapshot_store"] = "error: " + err.Error()
		} else {
			status.Components["snapshot_store"] = "ok"
		}
	} else if s.app.Config.Store.Enabled {
		status.Status = "degraded"
		status.Components["snapshot_store"] = "missing but enabled in config"
	}

	return status
}
