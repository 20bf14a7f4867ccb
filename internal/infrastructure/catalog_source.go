package infrastructure

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/yourusername/appcatalog/internal/domain"
	"gopkg.in/yaml.v3"
)

// FileCatalogSource reads pre-parsed appstream dumps from a directory.
// Each channel lives in <dir>/<channel>.yaml (or .yml / .json) as a
// mapping of app id to record. The stable dump is required; a missing
// beta dump means an empty beta channel.
type FileCatalogSource struct {
	dir string
}

// NewFileCatalogSource creates a new file catalog source
func NewFileCatalogSource(dir string) *FileCatalogSource {
	return &FileCatalogSource{dir: dir}
}

var catalogExtensions = []string{".yaml", ".yml", ".json"}

// Load returns the records of one channel
func (s *FileCatalogSource) Load(ctx context.Context, channel domain.Channel) (map[string]*domain.AppRecord, error) {
	if channel != domain.ChannelStable && channel != domain.ChannelBeta {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidChannel, channel)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for _, ext := range catalogExtensions {
		path := filepath.Join(s.dir, string(channel)+ext)
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("failed to read catalog %s: %w", path, err)
		}
		return decodeCatalog(path, data)
	}

	if channel == domain.ChannelBeta {
		return map[string]*domain.AppRecord{}, nil
	}
	return nil, fmt.Errorf("no %s catalog found in %s", channel, s.dir)
}

func decodeCatalog(path string, data []byte) (map[string]*domain.AppRecord, error) {
	apps := map[string]*domain.AppRecord{}
	var err error
	if filepath.Ext(path) == ".json" {
		err = json.Unmarshal(data, &apps)
	} else {
		err = yaml.Unmarshal(data, &apps)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse catalog %s: %w", path, err)
	}

	for id, rec := range apps {
		if id == "" {
			return nil, fmt.Errorf("catalog %s contains an empty app id", path)
		}
		if rec == nil {
			return nil, fmt.Errorf("catalog %s: app %s has no record", path, id)
		}
		if rec.ID == "" {
			rec.ID = id
		} else if rec.ID != id {
			return nil, fmt.Errorf("catalog %s: key %s does not match record id %s", path, id, rec.ID)
		}
	}
	return apps, nil
}
