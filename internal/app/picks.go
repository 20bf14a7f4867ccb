package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/yourusername/appcatalog/internal/domain"
)

// DefaultPicks are refreshed from the remote even when no local file exists
var DefaultPicks = []string{"apps", "games"}

// PicksService manages curated id lists stored under picks:<name>
type PicksService struct {
	store   domain.KV
	source  domain.PicksSource
	dataDir string
	logger  *zap.Logger
	names   map[string]bool
}

// NewPicksService creates a new picks service
func NewPicksService(store domain.KV, source domain.PicksSource, config *domain.PicksConfig, logger *zap.Logger) *PicksService {
	if logger == nil {
		logger = zap.NewNop()
	}
	names := map[string]bool{}
	for _, name := range DefaultPicks {
		names[name] = true
	}
	return &PicksService{
		store:   store,
		source:  source,
		dataDir: config.DataDir,
		logger:  logger,
		names:   names,
	}
}

// Initialize loads every <data_dir>/<name>.json into the store. A file
// that cannot be parsed stores an empty pick.
func (p *PicksService) Initialize(ctx context.Context) error {
	files, err := filepath.Glob(filepath.Join(p.dataDir, "*.json"))
	if err != nil {
		return err
	}
	if len(files) == 0 {
		p.logger.Info("No local picks found", zap.String("dir", p.dataDir))
		return nil
	}

	values := make(map[string]string, len(files))
	for _, file := range files {
		name := strings.TrimSuffix(filepath.Base(file), ".json")
		ids, err := readPickFile(file)
		if err != nil {
			p.logger.Warn("Unreadable pick file", zap.String("file", file), zap.Error(err))
			ids = []string{}
		}
		values[pickKey(name)] = mustJSON(ids)
		p.names[name] = true
	}
	return p.store.MSet(ctx, values)
}

func readPickFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return decodePick(data)
}

func decodePick(data []byte) ([]string, error) {
	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, err
	}
	if ids == nil {
		return nil, errors.New("pick is not a list")
	}
	return ids, nil
}

// Update refreshes every known pick from the remote source. Only a found
// pick with a valid id list replaces the stored one.
func (p *PicksService) Update(ctx context.Context) error {
	var errs error
	for _, name := range p.Names() {
		data, found, err := p.source.FetchPick(ctx, name)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		if !found {
			continue
		}
		ids, err := decodePick(data)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("pick %s: %w", name, err))
			continue
		}
		if err := p.store.Set(ctx, pickKey(name), mustJSON(ids), 0); err != nil {
			return err
		}
	}
	return errs
}

// Names returns the known pick names, sorted
func (p *PicksService) Names() []string {
	names := make([]string, 0, len(p.names))
	for name := range p.names {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Get returns the ids of a pick. Missing and empty picks are not found.
func (p *PicksService) Get(ctx context.Context, name string) ([]string, bool, error) {
	var ids []string
	found, err := getJSON(ctx, p.store, pickKey(name), &ids)
	if err != nil || !found || len(ids) == 0 {
		return nil, false, err
	}
	return ids, true, nil
}
