package app

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/yourusername/appcatalog/internal/domain"
	"github.com/yourusername/appcatalog/pkg/logger"
)

// Updater runs the full update pipeline: catalog synchronization,
// new-app seeding, picks refresh and the monthly stats update. Only one
// run proceeds at a time.
type Updater struct {
	source       domain.CatalogSource
	synchronizer *Synchronizer
	picks        *PicksService
	stats        *StatsUpdater
	store        domain.Store
	runs         domain.SyncRunRepository
	multiLogger  *logger.MultiLogger
	mu           sync.Mutex
}

// NewUpdater creates a new updater
func NewUpdater(
	source domain.CatalogSource,
	synchronizer *Synchronizer,
	picks *PicksService,
	stats *StatsUpdater,
	store domain.Store,
	runs domain.SyncRunRepository,
	multiLogger *logger.MultiLogger,
) *Updater {
	if multiLogger == nil {
		multiLogger = logger.NewNopMultiLogger()
	}
	return &Updater{
		source:       source,
		synchronizer: synchronizer,
		picks:        picks,
		stats:        stats,
		store:        store,
		runs:         runs,
		multiLogger:  multiLogger,
	}
}

// Run executes the pipeline and records it as a SyncRun. It returns
// ErrUpdateInProgress without doing anything when a run is active.
// Once started, a run is not cancelled with ctx: a committed catalog
// always gets its stats update.
func (u *Updater) Run(ctx context.Context, trigger domain.SyncTrigger) (*domain.SyncRun, error) {
	if !u.mu.TryLock() {
		return nil, domain.ErrUpdateInProgress
	}
	defer u.mu.Unlock()
	ctx = context.WithoutCancel(ctx)

	run := domain.NewSyncRun(trigger)
	if err := u.runs.Create(run); err != nil {
		return nil, fmt.Errorf("failed to record sync run: %w", err)
	}
	u.multiLogger.LogSyncEvent("sync_started",
		zap.String("run_id", run.ID),
		zap.String("trigger", string(trigger)))

	execErr := u.execute(ctx, run)
	if execErr != nil {
		run.MarkFailed(execErr)
		u.multiLogger.LogAppError("Update failed",
			zap.String("run_id", run.ID),
			zap.Error(execErr))
	} else {
		run.MarkCompleted()
		u.multiLogger.LogSyncEvent("sync_completed",
			zap.String("run_id", run.ID),
			zap.Int("added_stable", run.AddedStable),
			zap.Int("added_beta", run.AddedBeta),
			zap.Int("removed", run.Removed),
			zap.Int("stats_apps", run.StatsApps))
	}

	if err := u.runs.Update(run); err != nil {
		u.multiLogger.LogAppError("Failed to record sync run result",
			zap.String("run_id", run.ID),
			zap.Error(err))
	}

	if execErr != nil {
		return run, fmt.Errorf("update %s failed: %w", run.ID, execErr)
	}
	return run, nil
}

func (u *Updater) execute(ctx context.Context, run *domain.SyncRun) error {
	stable, err := u.source.Load(ctx, domain.ChannelStable)
	if err != nil {
		return fmt.Errorf("failed to load stable catalog: %w", err)
	}
	beta, err := u.source.Load(ctx, domain.ChannelBeta)
	if err != nil {
		return fmt.Errorf("failed to load beta catalog: %w", err)
	}

	result, err := u.synchronizer.Synchronize(ctx, domain.Catalog{Stable: stable, Beta: beta})
	if err != nil {
		return err
	}
	run.AddedStable = len(result.AddedStable)
	run.AddedBeta = len(result.AddedBeta)
	run.Removed = len(result.Removed)

	if err := u.seedNewApps(ctx, result); err != nil {
		return fmt.Errorf("failed to seed new apps: %w", err)
	}

	if err := u.picks.Update(ctx); err != nil {
		// stale picks are still served
		u.multiLogger.LogAppError("Picks refresh failed",
			zap.String("run_id", run.ID),
			zap.Error(err))
	}

	n, err := u.stats.Update(ctx)
	if err != nil {
		return err
	}
	run.StatsApps = n
	return nil
}

// seedNewApps ranks freshly added ids by the timestamp of their summary
func (u *Updater) seedNewApps(ctx context.Context, result *SyncResult) error {
	seeds := []struct {
		channel domain.Channel
		ids     []string
	}{
		{domain.ChannelStable, result.AddedStable},
		{domain.ChannelBeta, result.AddedBeta},
	}

	return u.store.Update(ctx, func(tx domain.Tx) error {
		for _, seed := range seeds {
			scores := make(map[string]float64, len(seed.ids))
			for _, id := range seed.ids {
				var summary domain.AppSummary
				found, err := getJSON(ctx, tx, summaryKey(id), &summary)
				if err != nil {
					return err
				}
				if !found {
					continue
				}
				channelSummary := summary.Stable
				if seed.channel == domain.ChannelBeta {
					channelSummary = summary.Beta
				}
				if channelSummary != nil {
					scores[id] = float64(channelSummary.Timestamp)
				}
			}
			if err := tx.ZAdd(ctx, newAppsKey(seed.channel), scores); err != nil {
				return err
			}
		}
		return nil
	})
}

// LatestRuns returns the most recent sync runs
func (u *Updater) LatestRuns(limit int) ([]*domain.SyncRun, error) {
	return u.runs.Latest(limit)
}
