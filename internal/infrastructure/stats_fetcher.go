package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/yourusername/appcatalog/internal/domain"
	"go.uber.org/zap"
)

// StatsFetcher retrieves daily stats snapshots over HTTP(S) or from a
// file:// tree laid out as <base>/YYYY/MM/DD.json. Remote payloads are
// cached in the store: briefly for today, longer for past dates.
type StatsFetcher struct {
	baseURL string
	config  *domain.StatsConfig
	cache   domain.KV
	client  *http.Client
	logger  *zap.Logger
	now     func() time.Time
}

// NewStatsFetcher creates a new stats fetcher
func NewStatsFetcher(config *domain.StatsConfig, cache domain.KV, logger *zap.Logger) *StatsFetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatsFetcher{
		baseURL: strings.TrimSuffix(config.BaseURL, "/"),
		config:  config,
		cache:   cache,
		client:  &http.Client{},
		logger:  logger,
		now:     time.Now,
	}
}

// SetClock overrides the clock used to decide which date is today
func (f *StatsFetcher) SetClock(now func() time.Time) {
	f.now = now
}

// SnapshotURL returns the canonical locator of the snapshot for date
func (f *StatsFetcher) SnapshotURL(date time.Time) string {
	return f.baseURL + date.Format("/2006/01/02.json")
}

func cacheKey(date time.Time) string {
	return "stats:date:" + date.Format(domain.DateLayout)
}

// Fetch returns the snapshot for date, or nil when no data exists for it
func (f *StatsFetcher) Fetch(ctx context.Context, date time.Time) (*domain.DailySnapshot, error) {
	u, err := url.Parse(f.SnapshotURL(date))
	if err != nil {
		return nil, fmt.Errorf("invalid stats url: %w", err)
	}

	if u.Scheme == "file" {
		return f.fetchFile(u.Path)
	}

	key := cacheKey(date)
	if cached, found, err := f.cache.Get(ctx, key); err != nil {
		f.logger.Warn("Stats cache read failed", zap.String("key", key), zap.Error(err))
	} else if found {
		snap, err := domain.DecodeSnapshot([]byte(cached))
		if err == nil {
			return snap, nil
		}
		f.logger.Warn("Discarding corrupt cached stats", zap.String("key", key), zap.Error(err))
	}

	body, found, err := f.download(ctx, u.String())
	if err != nil || !found {
		return nil, err
	}

	snap, err := domain.DecodeSnapshot(body)
	if err != nil {
		return nil, err
	}

	if err := f.cache.Set(ctx, key, string(body), f.ttlFor(date)); err != nil {
		f.logger.Warn("Failed to cache stats", zap.String("key", key), zap.Error(err))
	}
	return snap, nil
}

func (f *StatsFetcher) fetchFile(path string) (*domain.DailySnapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read stats file: %w", err)
	}
	return domain.DecodeSnapshot(data)
}

// ttlFor returns the cache lifetime: same-day data may still be appended to
func (f *StatsFetcher) ttlFor(date time.Time) time.Duration {
	now := f.now()
	y, m, d := date.Date()
	ty, tm, td := now.Date()
	if y == ty && m == tm && d == td {
		return f.config.TodayTTL
	}
	return f.config.PastTTL
}

// retryableError marks failures worth another attempt
type retryableError struct {
	err error
}

func (e *retryableError) Error() string { return e.err.Error() }
func (e *retryableError) Unwrap() error { return e.err }

func (f *StatsFetcher) download(ctx context.Context, rawURL string) ([]byte, bool, error) {
	var lastErr error
	for attempt := 0; attempt <= f.config.MaxRetries; attempt++ {
		if attempt > 0 {
			f.logger.Info("Retrying stats fetch",
				zap.String("url", rawURL),
				zap.Int("attempt", attempt),
				zap.Int("max_retries", f.config.MaxRetries))

			select {
			case <-time.After(f.config.RetryDelay):
			case <-ctx.Done():
				return nil, false, ctx.Err()
			}
		}

		body, found, err := f.get(ctx, rawURL)
		if err == nil {
			return body, found, nil
		}

		lastErr = err
		var retryable *retryableError
		if !errors.As(err, &retryable) {
			break
		}
		f.logger.Warn("Stats fetch attempt failed",
			zap.String("url", rawURL),
			zap.Int("attempt", attempt),
			zap.Error(err))
	}
	return nil, false, fmt.Errorf("failed to fetch %s: %w", rawURL, lastErr)
}

func (f *StatsFetcher) get(ctx context.Context, rawURL string) ([]byte, bool, error) {
	if f.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.config.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, false, err
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, false, &retryableError{err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, false, nil
	case resp.StatusCode >= 500:
		return nil, false, &retryableError{err: fmt.Errorf("unexpected status: %s", resp.Status)}
	case resp.StatusCode != http.StatusOK:
		return nil, false, fmt.Errorf("unexpected status: %s", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, false, &retryableError{err: err}
	}
	return body, true, nil
}
