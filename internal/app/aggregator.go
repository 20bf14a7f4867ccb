package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/yourusername/appcatalog/internal/domain"
)

// Aggregator sums daily stats snapshots over a date range
type Aggregator struct {
	fetcher domain.StatsFetcher
	logger  *zap.Logger
}

// NewAggregator creates a new aggregator
func NewAggregator(fetcher domain.StatsFetcher, logger *zap.Logger) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Aggregator{fetcher: fetcher, logger: logger}
}

// Aggregate sums per-app, per-arch counters for every date in [start, end].
// Dates without data contribute nothing. A date whose fetch fails is
// skipped; the failures are combined into the returned error, which
// comes back together with the totals of the remaining dates. Callers
// that need the full window treat a non-nil error as fatal.
func (a *Aggregator) Aggregate(ctx context.Context, start, end time.Time) (*domain.Period, error) {
	start, end = startOfDay(start), startOfDay(end)
	period := &domain.Period{
		Start:     start,
		End:       end,
		Refs:      domain.StatsTotals{},
		Countries: map[string]int64{},
	}

	var errs error
	for date := start; !date.After(end); date = date.AddDate(0, 0, 1) {
		if err := ctx.Err(); err != nil {
			return period, multierr.Append(errs, err)
		}

		snap, err := a.fetcher.Fetch(ctx, date)
		if err != nil {
			a.logger.Warn("Skipping stats date",
				zap.String("date", date.Format(domain.DateLayout)),
				zap.Error(err))
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", date.Format(domain.DateLayout), err))
			continue
		}
		if snap == nil {
			continue
		}
		addSnapshot(period, date, snap)
	}

	return period, errs
}

func addSnapshot(period *domain.Period, date time.Time, snap *domain.DailySnapshot) {
	for appID, arches := range snap.Refs {
		totals, ok := period.Refs[appID]
		if !ok {
			totals = domain.ArchCounters{}
			period.Refs[appID] = totals
		}
		for arch, counters := range arches {
			sum := totals[arch]
			sum.Add(counters)
			totals[arch] = sum
		}
	}

	for country, n := range snap.Countries {
		period.Countries[country] += n
	}

	period.Days = append(period.Days, domain.DaySummary{
		Date:           date,
		Downloads:      snap.Downloads,
		Updates:        snap.Updates,
		DeltaDownloads: snap.DeltaDownloads,
	})
}
