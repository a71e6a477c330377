// Package jobs adapts the sync service's sweeps to the scheduler's Job
// interface.
package jobs

import (
	"context"

	"fundtrack-backend/internal/application/sync"
)

// HistorySyncJob runs the daily incremental NAV history sweep.
type HistorySyncJob struct {
	Sync *sync.Service
}

func (j *HistorySyncJob) Name() string { return "history-sync" }

func (j *HistorySyncJob) Run(ctx context.Context) error {
	return j.Sync.SyncAllHistory(ctx)
}

// EstimateRefreshJob runs the intraday estimate sweep.
type EstimateRefreshJob struct {
	Sync *sync.Service
}

func (j *EstimateRefreshJob) Name() string { return "estimate-refresh" }

func (j *EstimateRefreshJob) Run(ctx context.Context) error {
	return j.Sync.UpdateAllEstimates(ctx)
}
