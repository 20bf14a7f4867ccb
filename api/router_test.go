package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/yourusername/appcatalog/internal/app"
	"github.com/yourusername/appcatalog/internal/domain"
	"github.com/yourusername/appcatalog/internal/infrastructure"
)

type stubSource struct {
	stable map[string]*domain.AppRecord
}

func (s *stubSource) Load(ctx context.Context, channel domain.Channel) (map[string]*domain.AppRecord, error) {
	if channel == domain.ChannelBeta {
		return map[string]*domain.AppRecord{}, nil
	}
	return s.stable, nil
}

type stubFetcher struct {
	refs domain.StatsTotals
}

func (f *stubFetcher) Fetch(ctx context.Context, date time.Time) (*domain.DailySnapshot, error) {
	return &domain.DailySnapshot{Refs: f.refs, Downloads: 3}, nil
}

type stubPicks struct{}

func (stubPicks) FetchPick(ctx context.Context, name string) ([]byte, bool, error) {
	if name == "apps" {
		return []byte(`["org.example.Maps"]`), true, nil
	}
	return nil, false, nil
}

type testServer struct {
	handler http.Handler
}

func setupTestServer(t *testing.T) *testServer {
	t.Helper()
	store, err := infrastructure.NewSQLiteStore(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	config := domain.DefaultConfig()
	config.Stats.MonthlyDays = 2
	config.Popular.Days = 2
	config.Picks.DataDir = t.TempDir()

	source := &stubSource{stable: map[string]*domain.AppRecord{
		"org.example.Maps": {
			ID: "org.example.Maps", Name: "Maps", Summary: "Find places", Type: domain.TypeDesktop,
			DeveloperName: "Example", Categories: []string{"Utility"},
			Releases: []domain.Release{{Version: "1.2", Timestamp: 1700000000}},
		},
		"org.example.Chess": {
			ID: "org.example.Chess", Name: "Chess", Summary: "Play chess", Type: domain.TypeDesktop,
			Categories: []string{"Game"},
			Releases:   []domain.Release{{Version: "3", Timestamp: 1600000000}},
		},
	}}
	fetcher := &stubFetcher{refs: domain.StatsTotals{
		"org.example.Maps":  {"x86_64": {5, 1}},
		"org.example.Chess": {"x86_64": {9, 0}},
	}}

	aggregator := app.NewAggregator(fetcher, nil)
	catalog := app.NewCatalogService(store, &config.Recent, nil)
	synchronizer := app.NewSynchronizer(store, nil)
	synchronizer.OnSync(catalog.InvalidateCaches)
	picks := app.NewPicksService(store, stubPicks{}, &config.Picks, nil)
	stats := app.NewStatsUpdater(store, aggregator, &config.Stats, nil)
	updater := app.NewUpdater(source, synchronizer, picks, stats, store, store.SyncRuns(), nil)

	services := Services{
		Catalog:    catalog,
		Popularity: app.NewPopularity(store, aggregator, &config.Popular, nil),
		Picks:      picks,
		Feeds:      app.NewFeedBuilder(store, &config.Feeds),
		Updater:    updater,
		Version:    "test",
	}
	return &testServer{handler: SetupRouter(services, zaptest.NewLogger(t), nil)}
}

func (s *testServer) do(t *testing.T, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	s.handler.ServeHTTP(rr, httptest.NewRequest(method, path, nil))
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), rr.Body.String())
	return v
}

func TestRouter_Status(t *testing.T) {
	srv := setupTestServer(t)

	rr := srv.do(t, http.MethodGet, "/status")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"OK"}`, rr.Body.String())

	rr = srv.do(t, http.MethodGet, "/nowhere")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestRouter_UpdateThenQuery(t *testing.T) {
	srv := setupTestServer(t)

	rr := srv.do(t, http.MethodPost, "/update")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	run := decode[domain.SyncRun](t, rr)
	assert.Equal(t, domain.SyncCompleted, run.Status)
	assert.Equal(t, 2, run.AddedStable)

	tests := []struct {
		name string
		path string
		code int
		want string
	}{
		{"list appstream", "/appstream", http.StatusOK, `["org.example.Chess","org.example.Maps"]`},
		{"invalid channel", "/appstream?type=nightly", http.StatusBadRequest, ""},
		{"category", "/category/Utility", http.StatusOK, `["org.example.Maps"]`},
		{"unknown category", "/category/Games", http.StatusUnprocessableEntity, ""},
		{"developers", "/developer", http.StatusOK, `["Example"]`},
		{"developer", "/developer/Example", http.StatusOK, `["org.example.Maps"]`},
		{"unknown developer", "/developer/Nobody", http.StatusNotFound, ""},
		{"recently updated", "/collection/recently-updated", http.StatusOK, `["org.example.Maps","org.example.Chess"]`},
		{"recently updated limit", "/collection/recently-updated/1", http.StatusOK, `["org.example.Maps"]`},
		{"bad limit", "/collection/recently-updated/zero", http.StatusUnprocessableEntity, ""},
		{"app stats", "/stats/org.example.Maps", http.StatusOK, `{"downloads_last_month":10}`},
		{"missing app stats", "/stats/org.example.None", http.StatusNotFound, ""},
		{"pick", "/picks/apps", http.StatusOK, `["org.example.Maps"]`},
		{"missing pick", "/picks/games", http.StatusNotFound, ""},
		{"popular", "/popular", http.StatusOK, `["org.example.Chess","org.example.Maps"]`},
		{"popular days", "/popular/1", http.StatusOK, `["org.example.Chess","org.example.Maps"]`},
		{"popular window too long", "/popular/91", http.StatusUnprocessableEntity, ""},
		{"missing appstream", "/appstream/org.example.None", http.StatusNotFound, ""},
		{"missing summary", "/summary/org.example.None", http.StatusNotFound, ""},
		{"beta record absent", "/appstream/org.example.Maps?type=beta", http.StatusNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := srv.do(t, http.MethodGet, tt.path)
			assert.Equal(t, tt.code, rr.Code, rr.Body.String())
			if tt.want != "" {
				assert.JSONEq(t, tt.want, rr.Body.String())
			}
		})
	}
}

func TestRouter_Records(t *testing.T) {
	srv := setupTestServer(t)
	require.Equal(t, http.StatusOK, srv.do(t, http.MethodPost, "/update").Code)

	rr := srv.do(t, http.MethodGet, "/appstream/org.example.Maps")
	require.Equal(t, http.StatusOK, rr.Code)
	presence := decode[domain.ChannelPresence](t, rr)
	require.NotNil(t, presence.Stable)
	assert.Equal(t, "Maps", presence.Stable.Name)
	assert.Nil(t, presence.Beta)

	rr = srv.do(t, http.MethodGet, "/summary/org.example.Maps")
	require.Equal(t, http.StatusOK, rr.Code)
	summary := decode[domain.AppSummary](t, rr)
	require.NotNil(t, summary.Stable)
	assert.Equal(t, "1.2", summary.Stable.Version)

	rr = srv.do(t, http.MethodGet, "/search/maps")
	require.Equal(t, http.StatusOK, rr.Code)
	results := decode[[]domain.SearchResult](t, rr)
	require.Len(t, results, 1)
	assert.Equal(t, "org.example.Maps", results[0].ID)
	assert.Equal(t, int64(10), results[0].Downloads)

	rr = srv.do(t, http.MethodGet, "/stats")
	require.Equal(t, http.StatusOK, rr.Code)
	global := decode[domain.GlobalStats](t, rr)
	assert.Len(t, global.Downloads, 2)

	rr = srv.do(t, http.MethodGet, "/feed/recently-updated")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "application/rss+xml")
	assert.Contains(t, rr.Body.String(), "<title>Maps</title>")
}

func TestRouter_Health(t *testing.T) {
	srv := setupTestServer(t)
	require.Equal(t, http.StatusOK, srv.do(t, http.MethodPost, "/update").Code)

	rr := srv.do(t, http.MethodGet, "/health")
	require.Equal(t, http.StatusOK, rr.Code)

	var health struct {
		Status    string `json:"status"`
		Scheduler struct {
			Running bool `json:"running"`
		} `json:"scheduler"`
		Runs []domain.SyncRun `json:"runs"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &health))
	assert.Equal(t, "ok", health.Status)
	assert.False(t, health.Scheduler.Running)
	require.Len(t, health.Runs, 1)
	assert.Equal(t, domain.SyncCompleted, health.Runs[0].Status)
}

func TestRouter_Logs(t *testing.T) {
	srv := setupTestServer(t)

	rr := srv.do(t, http.MethodGet, "/logs/categories")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"categories":["sync","stats","error"]}`, rr.Body.String())

	rr = srv.do(t, http.MethodGet, "/logs/download")
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = srv.do(t, http.MethodGet, "/logs/sync?date=yesterday")
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = srv.do(t, http.MethodGet, "/logs/sync/search")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
