package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yourusername/appcatalog/internal/domain"
	"github.com/yourusername/appcatalog/internal/infrastructure"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock(t time.Time) *testClock { return &testClock{now: t} }

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func setupTestStore(t *testing.T, opts ...infrastructure.StoreOption) *infrastructure.SQLiteStore {
	t.Helper()
	store, err := infrastructure.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.Local)
}

// fakeFetcher serves snapshots keyed by YYYY-MM-DD
type fakeFetcher struct {
	mu        sync.Mutex
	snapshots map[string]*domain.DailySnapshot
	errs      map[string]error
	calls     int
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		snapshots: map[string]*domain.DailySnapshot{},
		errs:      map[string]error{},
	}
}

func (f *fakeFetcher) set(date time.Time, refs domain.StatsTotals) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snapshots[date.Format(domain.DateLayout)] = &domain.DailySnapshot{Refs: refs}
}

func (f *fakeFetcher) setSnapshot(date time.Time, snap *domain.DailySnapshot) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snapshots[date.Format(domain.DateLayout)] = snap
}

func (f *fakeFetcher) fail(date time.Time, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[date.Format(domain.DateLayout)] = err
}

func (f *fakeFetcher) Fetch(ctx context.Context, date time.Time) (*domain.DailySnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	key := date.Format(domain.DateLayout)
	if err := f.errs[key]; err != nil {
		return nil, err
	}
	return f.snapshots[key], nil
}

func (f *fakeFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// fakeSource returns fixed catalogs
type fakeSource struct {
	stable map[string]*domain.AppRecord
	beta   map[string]*domain.AppRecord
	err    error
}

func (s *fakeSource) Load(ctx context.Context, channel domain.Channel) (map[string]*domain.AppRecord, error) {
	if s.err != nil {
		return nil, s.err
	}
	if channel == domain.ChannelBeta {
		return s.beta, nil
	}
	return s.stable, nil
}

// fakePicksSource serves picks from memory
type fakePicksSource struct {
	picks   map[string]string
	err     error
	onFetch func()
}

func (s *fakePicksSource) FetchPick(ctx context.Context, name string) ([]byte, bool, error) {
	if s.onFetch != nil {
		s.onFetch()
	}
	if s.err != nil {
		return nil, false, s.err
	}
	data, ok := s.picks[name]
	return []byte(data), ok, nil
}

func desktopApp(id, name string, categories ...string) *domain.AppRecord {
	return &domain.AppRecord{
		ID:         id,
		Name:       name,
		Summary:    name + " summary",
		Type:       domain.TypeDesktop,
		Categories: categories,
		Releases:   []domain.Release{{Version: "1.0", Timestamp: 1700000000}},
	}
}

func catalogOf(stable []*domain.AppRecord, beta []*domain.AppRecord) domain.Catalog {
	c := domain.Catalog{Stable: map[string]*domain.AppRecord{}, Beta: map[string]*domain.AppRecord{}}
	for _, rec := range stable {
		c.Stable[rec.ID] = rec
	}
	for _, rec := range beta {
		c.Beta[rec.ID] = rec
	}
	return c
}

func counters(installs, updates int64) domain.Counters {
	return domain.Counters{installs, updates}
}

func setAppStats(t *testing.T, store domain.KV, downloads map[string]int64) {
	t.Helper()
	values := map[string]string{}
	for id, n := range downloads {
		values[appStatsKey(id)] = fmt.Sprintf(`{"downloads_last_month":%d}`, n)
	}
	require.NoError(t, store.MSet(context.Background(), values))
}

// faultyStore fails SAdd on one set inside Update transactions
type faultyStore struct {
	domain.Store
	failSet string
}

func (s *faultyStore) Update(ctx context.Context, fn func(tx domain.Tx) error) error {
	return s.Store.Update(ctx, func(tx domain.Tx) error {
		return fn(&faultyTx{Tx: tx, failSet: s.failSet})
	})
}

type faultyTx struct {
	domain.Tx
	failSet string
}

func (tx *faultyTx) SAdd(ctx context.Context, set string, members ...string) error {
	if set == tx.failSet {
		return errors.New("disk I/O error")
	}
	return tx.Tx.SAdd(ctx, set, members...)
}

// readOnlyKV rejects every Set
type readOnlyKV struct {
	domain.KV
}

func (kv readOnlyKV) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return errors.New("database is locked")
}
