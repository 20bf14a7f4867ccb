package domain

import (
	"context"
	"time"
)

// CatalogSource produces freshly parsed appstream metadata per channel
type CatalogSource interface {
	// Load returns the id-keyed records of one channel
	Load(ctx context.Context, channel Channel) (map[string]*AppRecord, error)
}

// StatsFetcher retrieves one day of download statistics
type StatsFetcher interface {
	// Fetch returns the snapshot for date, or nil when the date has no data
	Fetch(ctx context.Context, date time.Time) (*DailySnapshot, error)
}

// PicksSource retrieves a curated list of app ids
type PicksSource interface {
	// FetchPick returns the raw JSON of a pick, or found=false when absent
	FetchPick(ctx context.Context, name string) (data []byte, found bool, err error)
}
