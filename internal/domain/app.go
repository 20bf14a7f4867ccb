package domain

import (
	"fmt"
	"strings"
)

// Channel represents a release track
type Channel string

const (
	ChannelStable        Channel = "stable"
	ChannelBeta          Channel = "beta"
	ChannelStableAndBeta Channel = "stable_and_beta"
)

// ParseChannel validates a channel name. An empty name means stable.
func ParseChannel(s string) (Channel, error) {
	switch Channel(s) {
	case "":
		return ChannelStable, nil
	case ChannelStable, ChannelBeta, ChannelStableAndBeta:
		return Channel(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidChannel, s)
}

// App types that get special treatment
const (
	TypeDesktop            = "desktop"
	TypeConsoleApplication = "console-application"
)

// Release is one entry of an app's release history
type Release struct {
	Version   string `json:"version" yaml:"version"`
	Timestamp int64  `json:"timestamp" yaml:"timestamp"`
}

// Screenshot maps a size label (e.g. "624x351") to an image URL
type Screenshot map[string]string

// AppRecord is the parsed appstream metadata of one app in one channel
type AppRecord struct {
	ID            string       `json:"id" yaml:"id"`
	Name          string       `json:"name" yaml:"name"`
	Summary       string       `json:"summary" yaml:"summary"`
	Description   string       `json:"description" yaml:"description"`
	Keywords      []string     `json:"keywords,omitempty" yaml:"keywords"`
	DeveloperName string       `json:"developer_name,omitempty" yaml:"developer_name"`
	Type          string       `json:"type" yaml:"type"`
	Categories    []string     `json:"categories,omitempty" yaml:"categories"`
	Icon          string       `json:"icon,omitempty" yaml:"icon"`
	License       string       `json:"license,omitempty" yaml:"license"`
	Releases      []Release    `json:"releases,omitempty" yaml:"releases"`
	Screenshots   []Screenshot `json:"screenshots,omitempty" yaml:"screenshots"`
}

// LatestRelease returns the newest release by timestamp
func (r *AppRecord) LatestRelease() (Release, bool) {
	if len(r.Releases) == 0 {
		return Release{}, false
	}
	latest := r.Releases[0]
	for _, rel := range r.Releases[1:] {
		if rel.Timestamp > latest.Timestamp {
			latest = rel
		}
	}
	return latest, true
}

// IsApplication reports whether a ref id denotes an application rather
// than a runtime or extension ref (which carry a path separator).
func IsApplication(appID string) bool {
	return !strings.Contains(appID, "/")
}

// PresenceKind tags which channels an app id is present in
type PresenceKind int

const (
	StableOnly PresenceKind = iota + 1
	BetaOnly
	StableAndBeta
)

// ChannelPresence holds the records of one app id across channels.
// At least one of Stable and Beta is set. It is also the stored
// representation of an app.
type ChannelPresence struct {
	Stable *AppRecord `json:"stable,omitempty"`
	Beta   *AppRecord `json:"beta,omitempty"`
}

// Kind returns the presence tag
func (p ChannelPresence) Kind() PresenceKind {
	switch {
	case p.Stable != nil && p.Beta != nil:
		return StableAndBeta
	case p.Stable != nil:
		return StableOnly
	default:
		return BetaOnly
	}
}

// Record returns the record for a single channel
func (p ChannelPresence) Record(channel Channel) *AppRecord {
	switch channel {
	case ChannelBeta:
		return p.Beta
	case ChannelStable:
		return p.Stable
	}
	if p.Stable != nil {
		return p.Stable
	}
	return p.Beta
}

// Catalog is a freshly parsed catalog, one id-keyed mapping per channel
type Catalog struct {
	Stable map[string]*AppRecord
	Beta   map[string]*AppRecord
}

// Merge folds both channels into one id-keyed structure
func (c Catalog) Merge() map[string]ChannelPresence {
	merged := make(map[string]ChannelPresence, len(c.Stable)+len(c.Beta))
	for id, rec := range c.Stable {
		merged[id] = ChannelPresence{Stable: rec}
	}
	for id, rec := range c.Beta {
		p := merged[id]
		p.Beta = rec
		merged[id] = p
	}
	return merged
}

// ChannelSummary is the per-channel part of an app summary
type ChannelSummary struct {
	Timestamp int64  `json:"timestamp"`
	Version   string `json:"version,omitempty"`
	Releases  int    `json:"releases"`
}

// AppSummary is the cached per-app summary across channels
type AppSummary struct {
	Stable *ChannelSummary `json:"stable,omitempty"`
	Beta   *ChannelSummary `json:"beta,omitempty"`
}

// NewChannelSummary derives the summary of one channel record
func NewChannelSummary(rec *AppRecord) *ChannelSummary {
	if rec == nil {
		return nil
	}
	s := &ChannelSummary{Releases: len(rec.Releases)}
	if latest, ok := rec.LatestRelease(); ok {
		s.Timestamp = latest.Timestamp
		s.Version = latest.Version
	}
	return s
}

// SearchResult is one entry returned by catalog search
type SearchResult struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Summary   string `json:"summary"`
	Icon      string `json:"icon,omitempty"`
	Downloads int64  `json:"downloads"`
}
