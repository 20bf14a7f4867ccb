package app

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/yourusername/appcatalog/internal/domain"
	"github.com/yourusername/appcatalog/pkg/logger"
	"github.com/yourusername/appcatalog/pkg/sanitize"
)

// SyncResult reports which ids a synchronization added or removed
type SyncResult struct {
	AddedStable []string
	AddedBeta   []string
	Removed     []string
}

// Synchronizer installs a freshly parsed catalog and rebuilds every
// derived index in one store transaction
type Synchronizer struct {
	store       domain.Store
	multiLogger *logger.MultiLogger
	mu          sync.Mutex
	hooks       []func()
}

// NewSynchronizer creates a new synchronizer
func NewSynchronizer(store domain.Store, multiLogger *logger.MultiLogger) *Synchronizer {
	if multiLogger == nil {
		multiLogger = logger.NewNopMultiLogger()
	}
	return &Synchronizer{store: store, multiLogger: multiLogger}
}

// OnSync registers a hook run after every committed synchronization
func (s *Synchronizer) OnSync(hook func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hooks = append(s.hooks, hook)
}

// previousState is what the store held before a synchronization
type previousState struct {
	stable    map[string]bool
	beta      map[string]bool
	indexKeys []string
}

// Synchronize replaces the stored catalog with catalog. Either every
// change is committed or none is.
func (s *Synchronizer) Synchronize(ctx context.Context, catalog domain.Catalog) (*SyncResult, error) {
	merged := catalog.Merge()
	ids := make([]string, 0, len(merged))
	for id := range merged {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var result *SyncResult
	err := s.store.Update(ctx, func(tx domain.Tx) error {
		prev, err := readPreviousState(ctx, tx)
		if err != nil {
			return err
		}

		// stale category, developer and type keys must not survive
		if err := tx.Delete(ctx, prev.indexKeys...); err != nil {
			return fmt.Errorf("failed to clear indexes: %w", err)
		}

		if err := writeCatalog(ctx, tx, ids, merged); err != nil {
			return err
		}

		result = diff(prev, catalog, merged)
		if err := removeApps(ctx, tx, prev, catalog, result.Removed); err != nil {
			return err
		}

		return replaceIndexSets(ctx, tx, catalog)
	})
	if err != nil {
		s.multiLogger.LogAppError("Catalog synchronization failed", zap.Error(err))
		return nil, fmt.Errorf("synchronization failed: %w", err)
	}

	s.mu.Lock()
	hooks := append([]func(){}, s.hooks...)
	s.mu.Unlock()
	for _, hook := range hooks {
		hook()
	}

	s.multiLogger.LogSyncEvent("catalog_synchronized",
		zap.Int("apps", len(ids)),
		zap.Int("added_stable", len(result.AddedStable)),
		zap.Int("added_beta", len(result.AddedBeta)),
		zap.Int("removed", len(result.Removed)))

	return result, nil
}

func readPreviousState(ctx context.Context, kv domain.KV) (*previousState, error) {
	prev := &previousState{}

	stable, err := kv.SMembers(ctx, keyAppsIndex)
	if err != nil {
		return nil, fmt.Errorf("failed to read stable index: %w", err)
	}
	beta, err := kv.SMembers(ctx, keyBetaIndex)
	if err != nil {
		return nil, fmt.Errorf("failed to read beta index: %w", err)
	}
	prev.stable = toSet(stripAppPrefix(stable))
	prev.beta = toSet(stripAppPrefix(beta))

	groups := []struct {
		index string
		key   func(string) string
	}{
		{keyCategoriesIndex, categoryKey},
		{keyDevelopersIndex, developerKey},
		{keyTypesIndex, typeKey},
	}
	for _, g := range groups {
		names, err := kv.SMembers(ctx, g.index)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", g.index, err)
		}
		prev.indexKeys = append(prev.indexKeys, g.index)
		for _, name := range names {
			prev.indexKeys = append(prev.indexKeys, g.key(name))
		}
	}
	return prev, nil
}

// writeCatalog stores every record and summary and rebuilds the derived
// indexes. Only stable records feed search, category, developer and type.
func writeCatalog(ctx context.Context, tx domain.Tx, ids []string, merged map[string]domain.ChannelPresence) error {
	values := make(map[string]string, 2*len(ids))
	sets := map[string][]string{}
	recent := map[string]map[string]float64{
		keyRecentlyUpdated:     {},
		keyRecentlyUpdatedBeta: {},
	}

	for _, id := range ids {
		presence := merged[id]
		values[appKey(id)] = mustJSON(presence)
		values[summaryKey(id)] = mustJSON(domain.AppSummary{
			Stable: domain.NewChannelSummary(presence.Stable),
			Beta:   domain.NewChannelSummary(presence.Beta),
		})

		switch presence.Kind() {
		case domain.StableOnly, domain.StableAndBeta:
			rec := presence.Stable
			if err := indexStable(ctx, tx, rec, sets); err != nil {
				return err
			}
			if latest, ok := rec.LatestRelease(); ok {
				recent[keyRecentlyUpdated][id] = float64(latest.Timestamp)
			}
			if presence.Kind() == domain.StableAndBeta {
				addRecent(recent[keyRecentlyUpdatedBeta], presence.Beta)
			}
		case domain.BetaOnly:
			if err := tx.Index().Delete(ctx, id); err != nil {
				return fmt.Errorf("failed to delete search document %s: %w", id, err)
			}
			addRecent(recent[keyRecentlyUpdatedBeta], presence.Beta)
		}
	}

	if err := tx.MSet(ctx, values); err != nil {
		return fmt.Errorf("failed to store records: %w", err)
	}
	for key, members := range sets {
		if err := tx.SAdd(ctx, key, members...); err != nil {
			return fmt.Errorf("failed to write %s: %w", key, err)
		}
	}
	for key, scores := range recent {
		if len(scores) == 0 {
			continue
		}
		if err := tx.ZAdd(ctx, key, scores); err != nil {
			return fmt.Errorf("failed to write %s: %w", key, err)
		}
	}
	return nil
}

func addRecent(scores map[string]float64, rec *domain.AppRecord) {
	if latest, ok := rec.LatestRelease(); ok {
		scores[rec.ID] = float64(latest.Timestamp)
	}
}

func indexStable(ctx context.Context, tx domain.Tx, rec *domain.AppRecord, sets map[string][]string) error {
	member := appKey(rec.ID)

	if rec.Type == domain.TypeDesktop {
		doc := domain.SearchDocument{
			ID:          rec.ID,
			Name:        rec.Name,
			Summary:     rec.Summary,
			Description: sanitize.StripHTML(rec.Description),
			Keywords:    strings.Join(rec.Keywords, " "),
		}
		if err := tx.Index().Upsert(ctx, doc); err != nil {
			return fmt.Errorf("failed to index %s: %w", rec.ID, err)
		}
	} else if err := tx.Index().Delete(ctx, rec.ID); err != nil {
		return fmt.Errorf("failed to delete search document %s: %w", rec.ID, err)
	}

	if rec.DeveloperName != "" {
		sets[keyDevelopersIndex] = appendUnique(sets[keyDevelopersIndex], rec.DeveloperName)
		sets[developerKey(rec.DeveloperName)] = append(sets[developerKey(rec.DeveloperName)], member)
	}
	if rec.Type != "" {
		sets[keyTypesIndex] = appendUnique(sets[keyTypesIndex], rec.Type)
		sets[typeKey(rec.Type)] = append(sets[typeKey(rec.Type)], member)
	}
	for _, category := range rec.Categories {
		if category == "" {
			continue
		}
		sets[keyCategoriesIndex] = appendUnique(sets[keyCategoriesIndex], category)
		sets[categoryKey(category)] = appendUnique(sets[categoryKey(category)], member)
	}
	return nil
}

func diff(prev *previousState, catalog domain.Catalog, merged map[string]domain.ChannelPresence) *SyncResult {
	result := &SyncResult{
		AddedStable: []string{},
		AddedBeta:   []string{},
		Removed:     []string{},
	}
	for id := range catalog.Stable {
		if !prev.stable[id] {
			result.AddedStable = append(result.AddedStable, id)
		}
	}
	for id := range catalog.Beta {
		if !prev.beta[id] {
			result.AddedBeta = append(result.AddedBeta, id)
		}
	}
	for _, old := range []map[string]bool{prev.stable, prev.beta} {
		for id := range old {
			if _, ok := merged[id]; !ok {
				result.Removed = appendUnique(result.Removed, id)
			}
		}
	}
	sort.Strings(result.AddedStable)
	sort.Strings(result.AddedBeta)
	sort.Strings(result.Removed)
	return result
}

// removeApps deletes everything stored for ids gone from every channel and
// drops ids that left a single channel from that channel's rankings
func removeApps(ctx context.Context, tx domain.Tx, prev *previousState, catalog domain.Catalog, removed []string) error {
	for _, id := range removed {
		if err := tx.Delete(ctx, appKey(id), summaryKey(id), appStatsKey(id)); err != nil {
			return fmt.Errorf("failed to delete %s: %w", id, err)
		}
		if err := tx.Index().Delete(ctx, id); err != nil {
			return fmt.Errorf("failed to delete search document %s: %w", id, err)
		}
	}

	leftStable := append([]string{}, removed...)
	for id := range prev.stable {
		if _, ok := catalog.Stable[id]; !ok {
			leftStable = appendUnique(leftStable, id)
		}
	}
	leftBeta := append([]string{}, removed...)
	for id := range prev.beta {
		if _, ok := catalog.Beta[id]; !ok {
			leftBeta = appendUnique(leftBeta, id)
		}
	}

	for _, z := range []struct {
		ids  []string
		keys []string
	}{
		{leftStable, []string{keyRecentlyUpdated, keyNewApps}},
		{leftBeta, []string{keyRecentlyUpdatedBeta, keyNewAppsBeta}},
	} {
		if len(z.ids) == 0 {
			continue
		}
		for _, key := range z.keys {
			if err := tx.ZRem(ctx, key, z.ids...); err != nil {
				return fmt.Errorf("failed to prune %s: %w", key, err)
			}
		}
	}
	return nil
}

func replaceIndexSets(ctx context.Context, tx domain.Tx, catalog domain.Catalog) error {
	if err := tx.Delete(ctx, keyAppsIndex, keyBetaIndex); err != nil {
		return fmt.Errorf("failed to clear id sets: %w", err)
	}
	if err := tx.SAdd(ctx, keyAppsIndex, withAppPrefix(sortedKeys(catalog.Stable))...); err != nil {
		return fmt.Errorf("failed to write stable id set: %w", err)
	}
	if err := tx.SAdd(ctx, keyBetaIndex, withAppPrefix(sortedKeys(catalog.Beta))...); err != nil {
		return fmt.Errorf("failed to write beta id set: %w", err)
	}
	return nil
}

func sortedKeys(m map[string]*domain.AppRecord) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func toSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}

func appendUnique(list []string, value string) []string {
	for _, v := range list {
		if v == value {
			return list
		}
	}
	return append(list, value)
}
