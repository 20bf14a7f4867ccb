package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/yourusername/appcatalog/internal/domain"
	"github.com/yourusername/appcatalog/pkg/logger"
)

// StatsUpdater refreshes the stored per-app monthly totals and the
// catalog-wide daily counters
type StatsUpdater struct {
	store       domain.Store
	aggregator  *Aggregator
	config      *domain.StatsConfig
	multiLogger *logger.MultiLogger
	now         func() time.Time
}

// NewStatsUpdater creates a new stats updater
func NewStatsUpdater(store domain.Store, aggregator *Aggregator, config *domain.StatsConfig, multiLogger *logger.MultiLogger) *StatsUpdater {
	if multiLogger == nil {
		multiLogger = logger.NewNopMultiLogger()
	}
	return &StatsUpdater{
		store:       store,
		aggregator:  aggregator,
		config:      config,
		multiLogger: multiLogger,
		now:         time.Now,
	}
}

// SetClock overrides the clock that anchors the trailing window
func (u *StatsUpdater) SetClock(now func() time.Time) {
	u.now = now
}

// Update aggregates the trailing monthly window and stores
// downloads_last_month (gross installs) per app plus the global stats.
// Any fetch failure aborts the update; nothing is written in that case.
// It returns the number of apps with stats.
func (u *StatsUpdater) Update(ctx context.Context) (int, error) {
	start, end := trailingWindow(u.now(), u.config.MonthlyDays)

	period, err := u.aggregator.Aggregate(ctx, start, end)
	if err != nil {
		return 0, fmt.Errorf("stats aggregation failed: %w", err)
	}

	values := make(map[string]string, len(period.Refs)+1)
	for appID, arches := range period.Refs {
		values[appStatsKey(appID)] = mustJSON(domain.AppStats{DownloadsLastMonth: arches.GrossInstalls()})
	}
	values[keyGlobalStats] = mustJSON(globalStats(period))

	if err := u.store.Update(ctx, func(tx domain.Tx) error {
		return tx.MSet(ctx, values)
	}); err != nil {
		return 0, fmt.Errorf("failed to store stats: %w", err)
	}

	u.multiLogger.LogStatsEvent("stats_updated",
		zap.String("start", start.Format(domain.DateLayout)),
		zap.String("end", end.Format(domain.DateLayout)),
		zap.Int("days_with_data", len(period.Days)),
		zap.Int("apps", len(period.Refs)))

	return len(period.Refs), nil
}

func globalStats(period *domain.Period) domain.GlobalStats {
	stats := domain.GlobalStats{
		Countries:      period.Countries,
		Downloads:      make(map[string]int64, len(period.Days)),
		Updates:        make(map[string]int64, len(period.Days)),
		DeltaDownloads: make(map[string]int64, len(period.Days)),
	}
	for _, day := range period.Days {
		date := day.Date.Format(domain.DateLayout)
		stats.Downloads[date] = day.Downloads
		stats.Updates[date] = day.Updates
		stats.DeltaDownloads[date] = day.DeltaDownloads
	}
	return stats
}
