package app

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/yourusername/appcatalog/internal/domain"
)

// Store key layout
const (
	keyAppsIndex       = "apps:index"
	keyBetaIndex       = "apps:beta:index"
	keyCategoriesIndex = "categories:index"
	keyDevelopersIndex = "developers:index"
	keyTypesIndex      = "types:index"
	keyGlobalStats     = "stats"

	keyRecentlyUpdated     = "recently_updated_zset"
	keyRecentlyUpdatedBeta = "recently_updated_beta_zset"
	keyNewApps             = "new_apps_zset"
	keyNewAppsBeta         = "new_apps_beta_zset"

	appPrefix = "apps:"
)

func appKey(id string) string { return appPrefix + id }
func summaryKey(id string) string { return "summary:" + id }
func appStatsKey(id string) string { return "app_stats:" + id }
func categoryKey(c string) string { return "categories:" + c }
func developerKey(d string) string { return "developers:" + d }
func typeKey(t string) string { return "types:" + t }
func pickKey(name string) string { return "picks:" + name }
func popularKey(start, end time.Time) string {
	return fmt.Sprintf("popular:%s-%s", start.Format(domain.DateLayout), end.Format(domain.DateLayout))
}

// recentKey returns the recently-updated sorted set of a channel
func recentKey(channel domain.Channel) string {
	if channel == domain.ChannelBeta {
		return keyRecentlyUpdatedBeta
	}
	return keyRecentlyUpdated
}

// newAppsKey returns the new-apps sorted set of a channel
func newAppsKey(channel domain.Channel) string {
	if channel == domain.ChannelBeta {
		return keyNewAppsBeta
	}
	return keyNewApps
}

func stripAppPrefix(members []string) []string {
	ids := make([]string, 0, len(members))
	for _, m := range members {
		ids = append(ids, strings.TrimPrefix(m, appPrefix))
	}
	return ids
}

func withAppPrefix(ids []string) []string {
	members := make([]string, 0, len(ids))
	for _, id := range ids {
		members = append(members, appKey(id))
	}
	return members
}

// getJSON decodes the value at key into v
func getJSON(ctx context.Context, kv domain.KV, key string, v interface{}) (bool, error) {
	raw, found, err := kv.Get(ctx, key)
	if err != nil || !found {
		return false, err
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return false, fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return true, nil
}

func mustJSON(v interface{}) string {
	data, err := json.Marshal(v)
	if err != nil {
		// only called with plain data types
		panic(err)
	}
	return string(data)
}

// startOfDay truncates t to midnight in its own location
func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// trailingWindow returns [end-days+1, end] for the day containing now
func trailingWindow(now time.Time, days int) (time.Time, time.Time) {
	end := startOfDay(now)
	return end.AddDate(0, 0, -(days - 1)), end
}
