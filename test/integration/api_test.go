//go:build integration

package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/yourusername/appcatalog/api"
	"github.com/yourusername/appcatalog/internal/app"
	"github.com/yourusername/appcatalog/internal/infrastructure"
	"github.com/yourusername/appcatalog/pkg/logger"
)

const stableCatalog = `
org.gnome.Maps:
  name: Maps
  summary: Find places around the world
  description: <p>Maps gives you quick access to maps all across the world.</p>
  developer_name: The GNOME Project
  type: desktop
  categories: [Utility, Education]
  releases:
    - {version: "45.0", timestamp: 1700000000}
    - {version: "44.2", timestamp: 1690000000}
org.gnome.Chess:
  name: Chess
  summary: Play the classic two-player board game
  developer_name: The GNOME Project
  type: desktop
  categories: [Game]
  releases:
    - {version: "43.1", timestamp: 1680000000}
org.example.Tool:
  name: Tool
  summary: A command line tool
  type: console-application
`

const betaCatalog = `
org.gnome.Maps:
  name: Maps (Beta)
  summary: Find places around the world
  type: desktop
  categories: [Utility]
  releases:
    - {version: "46.alpha", timestamp: 1710000000}
`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func writeSnapshot(t *testing.T, dir string, date time.Time, body string) {
	t.Helper()
	writeFile(t, filepath.Join(dir, date.Format("2006/01/02")+".json"), body)
}

func setupTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	root := t.TempDir()

	writeFile(t, filepath.Join(root, "appstream", "stable.yaml"), stableCatalog)
	writeFile(t, filepath.Join(root, "appstream", "beta.yaml"), betaCatalog)
	writeFile(t, filepath.Join(root, "picks", "apps.json"), `["org.gnome.Maps"]`)

	statsDir := filepath.Join(root, "stats")
	today := time.Now()
	writeSnapshot(t, statsDir, today, `{"refs":{"org.gnome.Maps":{"x86_64":[40,10]},"org.gnome.Chess":{"x86_64":[20,0]}},"downloads":60,"countries":{"DE":5}}`)
	writeSnapshot(t, statsDir, today.AddDate(0, 0, -1), `{"refs":{"org.gnome.Maps":{"aarch64":[5,0]},"org.freedesktop.Platform/x86_64/23.08":{"x86_64":[999,0]}},"downloads":5}`)

	configPath := filepath.Join(root, "config.yaml")
	writeFile(t, configPath, fmt.Sprintf(`
store:
  database_path: %s
catalog:
  appstream_dir: %s
stats:
  base_url: file://%s
  monthly_days: 30
popular:
  days: 7
picks:
  data_dir: %s
  remote_url: http://127.0.0.1:1
feeds:
  site_url: https://apps.example.org
logging:
  logs_dir: %s
`, filepath.Join(root, "catalog.db"), filepath.Join(root, "appstream"), statsDir,
		filepath.Join(root, "picks"), filepath.Join(root, "logs")))

	config, err := app.LoadConfig(configPath)
	require.NoError(t, err)
	config.Stats.MaxRetries = 0
	config.Stats.Timeout = time.Second

	multiLog, err := logger.NewMultiLogger(logger.MultiLoggerConfig{Level: "info", LogsDir: config.Logging.LogsDir})
	require.NoError(t, err)
	t.Cleanup(func() { multiLog.Close() })

	store, err := infrastructure.NewSQLiteStore(config.Store.DatabasePath)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	fetcher := infrastructure.NewStatsFetcher(&config.Stats, store, nil)
	aggregator := app.NewAggregator(fetcher, nil)
	catalog := app.NewCatalogService(store, &config.Recent, nil)
	synchronizer := app.NewSynchronizer(store, multiLog)
	synchronizer.OnSync(catalog.InvalidateCaches)
	picks := app.NewPicksService(store, infrastructure.NewHTTPPicksSource(config.Picks.RemoteURL, time.Second), &config.Picks, nil)
	require.NoError(t, picks.Initialize(context.Background()))

	updater := app.NewUpdater(
		infrastructure.NewFileCatalogSource(config.Catalog.AppstreamDir),
		synchronizer,
		picks,
		app.NewStatsUpdater(store, aggregator, &config.Stats, multiLog),
		store,
		store.SyncRuns(),
		multiLog,
	)

	router := api.SetupRouter(api.Services{
		Catalog:    catalog,
		Popularity: app.NewPopularity(store, aggregator, &config.Popular, multiLog),
		Picks:      picks,
		Feeds:      app.NewFeedBuilder(store, &config.Feeds),
		Updater:    updater,
		Version:    "integration",
	}, zap.NewNop(), multiLog)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server
}

func get(t *testing.T, url string, v interface{}) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if v != nil && resp.StatusCode == http.StatusOK {
		require.NoError(t, json.Unmarshal(body, v), string(body))
	}
	return resp.StatusCode
}

func TestAPI_EndToEnd(t *testing.T) {
	server := setupTestServer(t)

	resp, err := http.Post(server.URL+"/update", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var run map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&run))
	assert.Equal(t, "completed", run["status"])
	assert.Equal(t, float64(3), run["added_stable"])
	assert.Equal(t, float64(1), run["added_beta"])

	var ids []string
	assert.Equal(t, http.StatusOK, get(t, server.URL+"/appstream", &ids))
	assert.Equal(t, []string{"org.example.Tool", "org.gnome.Chess", "org.gnome.Maps"}, ids)

	// runtime refs are excluded; net installs rank Maps (35) over Chess (20)
	assert.Equal(t, http.StatusOK, get(t, server.URL+"/popular", &ids))
	assert.Equal(t, []string{"org.gnome.Maps", "org.gnome.Chess"}, ids)

	assert.Equal(t, http.StatusOK, get(t, server.URL+"/category/Utility?type=beta", &ids))
	assert.Equal(t, []string{"org.gnome.Maps"}, ids)

	assert.Equal(t, http.StatusOK, get(t, server.URL+"/developer/The%20GNOME%20Project", &ids))
	assert.Equal(t, []string{"org.gnome.Maps", "org.gnome.Chess"}, ids)

	var stats map[string]int64
	assert.Equal(t, http.StatusOK, get(t, server.URL+"/stats/org.gnome.Maps", &stats))
	assert.Equal(t, int64(45), stats["downloads_last_month"])

	var results []map[string]interface{}
	assert.Equal(t, http.StatusOK, get(t, server.URL+"/search/world", &results))
	require.Len(t, results, 1)
	assert.Equal(t, "org.gnome.Maps", results[0]["id"])

	var beta map[string]interface{}
	assert.Equal(t, http.StatusOK, get(t, server.URL+"/appstream/org.gnome.Maps?type=beta", &beta))
	assert.Equal(t, "Maps (Beta)", beta["name"])

	assert.Equal(t, http.StatusOK, get(t, server.URL+"/picks/apps", &ids))
	assert.Equal(t, []string{"org.gnome.Maps"}, ids)

	assert.Equal(t, http.StatusUnprocessableEntity, get(t, server.URL+"/category/Unknown", nil))
	assert.Equal(t, http.StatusNotFound, get(t, server.URL+"/summary/org.example.Missing", nil))

	resp, err = http.Get(server.URL + "/feed/new")
	require.NoError(t, err)
	defer resp.Body.Close()
	feed, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(feed), "https://apps.example.org/apps/details/org.gnome.Maps")

	var logs struct {
		Count int `json:"count"`
	}
	assert.Equal(t, http.StatusOK, get(t, server.URL+"/logs/sync", &logs))
	assert.Greater(t, logs.Count, 0)
}
