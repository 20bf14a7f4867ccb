package app

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/yourusername/appcatalog/internal/domain"
	"github.com/yourusername/appcatalog/pkg/logger"
)

// Popularity ranks apps by net new installs over a trailing window and
// caches each ranking in the store
type Popularity struct {
	store       domain.KV
	aggregator  *Aggregator
	config      *domain.PopularConfig
	multiLogger *logger.MultiLogger
	now         func() time.Time
}

// NewPopularity creates a new popularity ranking cache
func NewPopularity(store domain.KV, aggregator *Aggregator, config *domain.PopularConfig, multiLogger *logger.MultiLogger) *Popularity {
	if multiLogger == nil {
		multiLogger = logger.NewNopMultiLogger()
	}
	return &Popularity{
		store:       store,
		aggregator:  aggregator,
		config:      config,
		multiLogger: multiLogger,
		now:         time.Now,
	}
}

// SetClock overrides the clock that anchors the window
func (p *Popularity) SetClock(now func() time.Time) {
	p.now = now
}

// MaxDays is the longest window Get will aggregate
func (p *Popularity) MaxDays() int {
	return p.config.MaxDays
}

// Get returns the most popular app ids over the last days days (the
// configured default when days <= 0, clamped to MaxDays). Rankings
// computed while some dates failed to fetch are returned but not cached.
func (p *Popularity) Get(ctx context.Context, days int) ([]string, error) {
	if days <= 0 {
		days = p.config.Days
	}
	if p.config.MaxDays > 0 && days > p.config.MaxDays {
		days = p.config.MaxDays
	}
	start, end := trailingWindow(p.now(), days)
	key := popularKey(start, end)

	var cached []string
	found, err := getJSON(ctx, p.store, key, &cached)
	if err != nil {
		p.multiLogger.Stats().Warn("Discarding unreadable popularity cache", zap.String("key", key), zap.Error(err))
	} else if found {
		return cached, nil
	}

	period, aggErr := p.aggregator.Aggregate(ctx, start, end)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}

	ranking := Rank(period.Refs, p.config.Items)
	if aggErr != nil {
		p.multiLogger.LogAppError("Popularity computed from partial stats",
			zap.String("key", key),
			zap.Error(aggErr))
		return ranking, nil
	}

	if err := p.store.Set(ctx, key, mustJSON(ranking), p.config.TTL); err != nil {
		p.multiLogger.Stats().Warn("Failed to cache popularity ranking", zap.String("key", key), zap.Error(err))
		return ranking, nil
	}
	p.multiLogger.LogStatsEvent("popularity_computed",
		zap.String("key", key),
		zap.Int("apps", len(ranking)))

	return ranking, nil
}

// Rank orders application ids by descending net installs and keeps
// the first limit. Runtime and extension refs are excluded. Ties keep
// ascending id order.
func Rank(totals domain.StatsTotals, limit int) []string {
	ids := make([]string, 0, len(totals))
	for id := range totals {
		if domain.IsApplication(id) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	keys := make(map[string]int64, len(ids))
	for _, id := range ids {
		keys[id] = totals[id].NetInstalls()
	}
	sort.SliceStable(ids, func(i, j int) bool {
		return keys[ids[i]] > keys[ids[j]]
	})

	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	return ids
}
