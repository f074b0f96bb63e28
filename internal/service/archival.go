package service

import (
	"context"
	"time"

	"github.com/hushcampus-dev/hushcampus/internal/domain"
	"github.com/hushcampus-dev/hushcampus/internal/logger"
)

// ArchivalSweeper marks posts past the age threshold as archived. It runs
// periodically; archived posts stay readable, they are never deleted here.
type ArchivalSweeper struct {
	archiver         Archiver
	threshold        time.Duration
	now              Clock
	lastCleanupStats ArchivalStats
}

// ArchivalStats tracks metrics from the last sweep.
type ArchivalStats struct {
	RunAt         time.Time
	PostsArchived int
	DurationMs    int64
}

// Archiver defines the store operation needed for the sweep.
type Archiver interface {
	ArchiveOlderThan(cutoff time.Time) int
}

// ActivitySampler records one engagement snapshot. The sweeper samples on
// its cadence when the archiver supports it.
type ActivitySampler interface {
	RecordActivitySample() domain.ActivitySample
}

// NewArchivalSweeper creates a sweeper archiving posts older than threshold.
func NewArchivalSweeper(archiver Archiver, threshold time.Duration, now Clock) *ArchivalSweeper {
	if now == nil {
		now = SystemClock
	}
	return &ArchivalSweeper{
		archiver:  archiver,
		threshold: threshold,
		now:       now,
	}
}

// StartBackgroundSweep starts a background goroutine that runs the sweep
// periodically until the context is cancelled.
func (a *ArchivalSweeper) StartBackgroundSweep(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	logger.Log.Info("started archival sweeper",
		"component", "archival",
		"interval", interval,
		"threshold", a.threshold)

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				a.RunSweep()
				stats := a.GetLastStats()
				logger.Log.Info("archival sweep completed",
					"component", "archival",
					"posts_archived", stats.PostsArchived,
					"duration_ms", stats.DurationMs)
			case <-ctx.Done():
				logger.Log.Info("archival sweeper shutting down gracefully",
					"component", "archival")
				return
			}
		}
	}()
}

// RunSweep executes a single archival cycle. Posts strictly older than the
// threshold are archived; a post exactly at the boundary is left alone.
func (a *ArchivalSweeper) RunSweep() int {
	startTime := a.now()
	cutoff := startTime.Add(-a.threshold)

	archived := a.archiver.ArchiveOlderThan(cutoff)
	if sampler, ok := a.archiver.(ActivitySampler); ok {
		sampler.RecordActivitySample()
	}

	a.lastCleanupStats = ArchivalStats{
		RunAt:         startTime,
		PostsArchived: archived,
		DurationMs:    time.Since(startTime).Milliseconds(),
	}
	return archived
}

// GetLastStats returns statistics from the last sweep run.
func (a *ArchivalSweeper) GetLastStats() ArchivalStats {
	return a.lastCleanupStats
}
