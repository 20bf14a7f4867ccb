package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/appcatalog/internal/domain"
)

func newTestStatsUpdater(t *testing.T, fetcher *fakeFetcher, now time.Time) (*StatsUpdater, domain.Store) {
	t.Helper()
	store := setupTestStore(t)
	config := &domain.StatsConfig{MonthlyDays: 30}
	updater := NewStatsUpdater(store, NewAggregator(fetcher, nil), config, nil)
	updater.SetClock(func() time.Time { return now })
	return updater, store
}

func TestStatsUpdater_StoresGrossInstalls(t *testing.T) {
	fetcher := newFakeFetcher()
	for d := 8; d <= 10; d++ {
		fetcher.set(day(2024, 3, d), domain.StatsTotals{
			"org.example.Foo": {"x86_64": counters(10, 5)},
		})
	}
	updater, store := newTestStatsUpdater(t, fetcher, time.Date(2024, 3, 10, 15, 0, 0, 0, time.Local))
	ctx := context.Background()

	n, err := updater.Update(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 30, fetcher.callCount())

	var stats domain.AppStats
	found, err := getJSON(ctx, store, "app_stats:org.example.Foo", &stats)
	require.NoError(t, err)
	require.True(t, found)
	// gross installs; updates are not subtracted
	assert.Equal(t, int64(30), stats.DownloadsLastMonth)
}

func TestStatsUpdater_StoresGlobalStats(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.setSnapshot(day(2024, 3, 10), &domain.DailySnapshot{
		Refs:      domain.StatsTotals{},
		Downloads: 50, Updates: 20, DeltaDownloads: 4,
		Countries: map[string]int64{"BR": 9},
	})
	updater, store := newTestStatsUpdater(t, fetcher, time.Date(2024, 3, 10, 15, 0, 0, 0, time.Local))
	ctx := context.Background()

	_, err := updater.Update(ctx)
	require.NoError(t, err)

	var global domain.GlobalStats
	found, err := getJSON(ctx, store, "stats", &global)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, int64(50), global.Downloads["2024-03-10"])
	assert.Equal(t, int64(20), global.Updates["2024-03-10"])
	assert.Equal(t, int64(4), global.DeltaDownloads["2024-03-10"])
	assert.Equal(t, int64(9), global.Countries["BR"])
}

func TestStatsUpdater_FailureIsFatal(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.set(day(2024, 3, 9), domain.StatsTotals{"org.example.Foo": {"x86_64": counters(10, 5)}})
	fetcher.fail(day(2024, 3, 10), errors.New("bad gateway"))
	updater, store := newTestStatsUpdater(t, fetcher, time.Date(2024, 3, 10, 15, 0, 0, 0, time.Local))
	ctx := context.Background()

	_, err := updater.Update(ctx)
	require.Error(t, err)

	exists, err := store.Exists(ctx, "app_stats:org.example.Foo")
	require.NoError(t, err)
	assert.False(t, exists)
}
