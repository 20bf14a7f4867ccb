package app

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"

	"github.com/yourusername/appcatalog/internal/domain"
)

const (
	searchLimit        = 50
	defaultRecentLimit = 100
)

// CatalogService answers read-only queries over the synchronized catalog
type CatalogService struct {
	store  domain.Store
	recent *expirable.LRU[string, []string]
	logger *zap.Logger
}

// NewCatalogService creates a new catalog query service
func NewCatalogService(store domain.Store, config *domain.RecentConfig, logger *zap.Logger) *CatalogService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogService{
		store:  store,
		recent: expirable.NewLRU[string, []string](config.CacheSize, nil, config.CacheTTL),
		logger: logger,
	}
}

// InvalidateCaches drops every cached query result. Registered as a
// synchronization hook.
func (s *CatalogService) InvalidateCaches() {
	s.recent.Purge()
}

// ListAppstream returns the sorted ids of a channel
func (s *CatalogService) ListAppstream(ctx context.Context, channel domain.Channel) ([]string, error) {
	var ids []string
	err := s.store.View(ctx, func(kv domain.KV) error {
		set, err := channelIDs(ctx, kv, channel)
		if err != nil {
			return err
		}
		ids = make([]string, 0, len(set))
		for id := range set {
			ids = append(ids, id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(ids)
	return ids, nil
}

// GetAppstream returns the stored records of one app
func (s *CatalogService) GetAppstream(ctx context.Context, appID string) (*domain.ChannelPresence, bool, error) {
	var presence domain.ChannelPresence
	found, err := getJSON(ctx, s.store, appKey(appID), &presence)
	if err != nil || !found {
		return nil, false, err
	}
	return &presence, true, nil
}

// GetSummary returns the release summary of one app
func (s *CatalogService) GetSummary(ctx context.Context, appID string) (*domain.AppSummary, bool, error) {
	var summary domain.AppSummary
	found, err := getJSON(ctx, s.store, summaryKey(appID), &summary)
	if err != nil || !found {
		return nil, false, err
	}
	return &summary, true, nil
}

// GetCategory returns the ids in a category, most downloaded first
func (s *CatalogService) GetCategory(ctx context.Context, category domain.Category, channel domain.Channel) ([]string, error) {
	return s.indexMembers(ctx, categoryKey(string(category)), channel)
}

// GetDevelopers returns every developer name, sorted
func (s *CatalogService) GetDevelopers(ctx context.Context) ([]string, error) {
	developers, err := s.store.SMembers(ctx, keyDevelopersIndex)
	if err != nil {
		return nil, err
	}
	sort.Strings(developers)
	return developers, nil
}

// GetDeveloper returns the ids published by a developer, most downloaded first
func (s *CatalogService) GetDeveloper(ctx context.Context, developer string, channel domain.Channel) ([]string, error) {
	return s.indexMembers(ctx, developerKey(developer), channel)
}

// indexMembers reads a stable-derived index set, keeps the ids present in
// channel and orders them by monthly downloads
func (s *CatalogService) indexMembers(ctx context.Context, key string, channel domain.Channel) ([]string, error) {
	var ids []string
	err := s.store.View(ctx, func(kv domain.KV) error {
		members, err := kv.SMembers(ctx, key)
		if err != nil || len(members) == 0 {
			return err
		}
		ids = stripAppPrefix(members)

		if channel != domain.ChannelStable {
			present, err := channelIDs(ctx, kv, channel)
			if err != nil {
				return err
			}
			ids = filterIDs(ids, present)
		}

		downloads, err := downloadsByID(ctx, kv, ids)
		if err != nil {
			return err
		}
		sortByDownloads(ids, downloads)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if ids == nil {
		ids = []string{}
	}
	return ids, nil
}

// Search looks up desktop apps by free text. Name matches come first,
// then matches on any field; a single alphabetic word with no match
// falls back to prefix matching. Results are ordered by monthly downloads.
func (s *CatalogService) Search(ctx context.Context, query string, channel domain.Channel) ([]domain.SearchResult, error) {
	query = CleanQuery(query)
	if query == "" {
		return []domain.SearchResult{}, nil
	}

	ids, err := s.searchIDs(ctx, query)
	if err != nil {
		return nil, err
	}
	results := []domain.SearchResult{}
	if len(ids) == 0 {
		return results, nil
	}

	err = s.store.View(ctx, func(kv domain.KV) error {
		keys := make([]string, 0, len(ids))
		for _, id := range ids {
			keys = append(keys, appKey(id))
		}
		records, err := kv.MGet(ctx, keys...)
		if err != nil {
			return err
		}
		downloads, err := downloadsByID(ctx, kv, ids)
		if err != nil {
			return err
		}

		for _, id := range ids {
			raw, ok := records[appKey(id)]
			if !ok {
				continue
			}
			var presence domain.ChannelPresence
			if err := json.Unmarshal([]byte(raw), &presence); err != nil {
				return fmt.Errorf("failed to decode %s: %w", appKey(id), err)
			}
			rec := presence.Record(channel)
			if rec == nil {
				continue
			}
			results = append(results, domain.SearchResult{
				ID:        id,
				Name:      rec.Name,
				Summary:   rec.Summary,
				Icon:      rec.Icon,
				Downloads: downloads[id],
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Downloads > results[j].Downloads
	})
	s.logger.Debug("Search",
		zap.String("query", query),
		zap.String("channel", string(channel)),
		zap.Int("results", len(results)))
	return results, nil
}

func (s *CatalogService) searchIDs(ctx context.Context, query string) ([]string, error) {
	index := s.store.Index()

	byName, err := index.Query(ctx, query, domain.QueryOptions{Field: domain.FieldName, Limit: searchLimit})
	if err != nil {
		return nil, fmt.Errorf("name query failed: %w", err)
	}
	generic, err := index.Query(ctx, query, domain.QueryOptions{Limit: searchLimit})
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	ids := append(byName, generic...)

	if len(ids) == 0 && isAlpha(query) {
		ids, err = index.Query(ctx, query, domain.QueryOptions{Prefix: true, Limit: searchLimit})
		if err != nil {
			return nil, fmt.Errorf("prefix query failed: %w", err)
		}
	}

	seen := make(map[string]bool, len(ids))
	unique := make([]string, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			unique = append(unique, id)
		}
	}
	if len(unique) > searchLimit {
		unique = unique[:searchLimit]
	}
	return unique, nil
}

var (
	queryRewriter = strings.NewReplacer("-", " ", ".*", "*")
	queryReserved = strings.NewReplacer(
		"@", "", "!", "", "{", "", "}", "", "(", "", ")", "", "|", "",
		"=", "", ">", "", "[", "", "]", "", ":", "", ";", "", "*", "",
	)
)

// CleanQuery removes characters with special meaning in query syntax
func CleanQuery(query string) string {
	return strings.TrimSpace(queryReserved.Replace(queryRewriter.Replace(query)))
}

func isAlpha(s string) bool {
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return s != ""
}

// GetRecentlyUpdated returns up to limit ids ordered by newest release.
// Results are cached until the next synchronization or the cache TTL.
func (s *CatalogService) GetRecentlyUpdated(ctx context.Context, limit int, channel domain.Channel) ([]string, error) {
	if limit <= 0 {
		limit = defaultRecentLimit
	}
	cacheKey := fmt.Sprintf("%s:%d", channel, limit)
	if ids, ok := s.recent.Get(cacheKey); ok {
		return ids, nil
	}

	ids := []string{}
	err := s.store.View(ctx, func(kv domain.KV) error {
		var ranked []domain.ScoredMember
		keys := []string{recentKey(channel)}
		if channel == domain.ChannelStableAndBeta {
			keys = []string{keyRecentlyUpdated, keyRecentlyUpdatedBeta}
		}
		for _, key := range keys {
			members, err := kv.ZRevRange(ctx, key, 0, limit-1)
			if err != nil {
				return err
			}
			ranked = append(ranked, members...)
		}
		sort.SliceStable(ranked, func(i, j int) bool {
			return ranked[i].Score > ranked[j].Score
		})

		seen := map[string]bool{}
		for _, m := range ranked {
			if seen[m.Member] || len(ids) == limit {
				continue
			}
			seen[m.Member] = true

			var presence domain.ChannelPresence
			found, err := getJSON(ctx, kv, appKey(m.Member), &presence)
			if err != nil {
				return err
			}
			if found && presence.Record(channel) != nil {
				ids = append(ids, m.Member)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.recent.Add(cacheKey, ids)
	return ids, nil
}

// GetAppStats returns the stored monthly stats of one app
func (s *CatalogService) GetAppStats(ctx context.Context, appID string) (*domain.AppStats, bool, error) {
	var stats domain.AppStats
	found, err := getJSON(ctx, s.store, appStatsKey(appID), &stats)
	if err != nil || !found {
		return nil, false, err
	}
	return &stats, true, nil
}

// GetGlobalStats returns the stored catalog-wide stats
func (s *CatalogService) GetGlobalStats(ctx context.Context) (*domain.GlobalStats, bool, error) {
	var stats domain.GlobalStats
	found, err := getJSON(ctx, s.store, keyGlobalStats, &stats)
	if err != nil || !found {
		return nil, false, err
	}
	return &stats, true, nil
}

// AppCount returns the number of stable desktop and console applications
func (s *CatalogService) AppCount(ctx context.Context) (int64, error) {
	var total int64
	err := s.store.View(ctx, func(kv domain.KV) error {
		for _, t := range []string{domain.TypeDesktop, domain.TypeConsoleApplication} {
			n, err := kv.SCard(ctx, typeKey(t))
			if err != nil {
				return err
			}
			total += n
		}
		return nil
	})
	return total, err
}

// channelIDs returns the ids present in a channel
func channelIDs(ctx context.Context, kv domain.KV, channel domain.Channel) (map[string]bool, error) {
	keys := []string{keyAppsIndex}
	switch channel {
	case domain.ChannelBeta:
		keys = []string{keyBetaIndex}
	case domain.ChannelStableAndBeta:
		keys = []string{keyAppsIndex, keyBetaIndex}
	}

	ids := map[string]bool{}
	for _, key := range keys {
		members, err := kv.SMembers(ctx, key)
		if err != nil {
			return nil, err
		}
		for _, id := range stripAppPrefix(members) {
			ids[id] = true
		}
	}
	return ids, nil
}

func filterIDs(ids []string, keep map[string]bool) []string {
	out := ids[:0]
	for _, id := range ids {
		if keep[id] {
			out = append(out, id)
		}
	}
	return out
}

// downloadsByID returns downloads_last_month per id; ids without stats count zero
func downloadsByID(ctx context.Context, kv domain.KV, ids []string) (map[string]int64, error) {
	downloads := make(map[string]int64, len(ids))
	if len(ids) == 0 {
		return downloads, nil
	}

	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, appStatsKey(id))
	}
	values, err := kv.MGet(ctx, keys...)
	if err != nil {
		return nil, err
	}

	for _, id := range ids {
		raw, ok := values[appStatsKey(id)]
		if !ok {
			continue
		}
		var stats domain.AppStats
		if err := json.Unmarshal([]byte(raw), &stats); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", appStatsKey(id), err)
		}
		downloads[id] = stats.DownloadsLastMonth
	}
	return downloads, nil
}

// sortByDownloads orders ids by descending downloads, ties by id
func sortByDownloads(ids []string, downloads map[string]int64) {
	sort.Strings(ids)
	sort.SliceStable(ids, func(i, j int) bool {
		return downloads[ids[i]] > downloads[ids[j]]
	})
}
