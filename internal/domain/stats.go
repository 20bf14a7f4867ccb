package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// DateLayout is the canonical textual form of a stats date
const DateLayout = "2006-01-02"

// Counters is a pair of [new_installs, updates]
type Counters [2]int64

// Installs returns the install counter (index 0 counts installs and updates)
func (c Counters) Installs() int64 { return c[0] }

// Updates returns the update counter
func (c Counters) Updates() int64 { return c[1] }

// Add accumulates other into c elementwise
func (c *Counters) Add(other Counters) {
	c[0] += other[0]
	c[1] += other[1]
}

// UnmarshalJSON accepts a JSON array of at least two integers
func (c *Counters) UnmarshalJSON(data []byte) error {
	var values []int64
	if err := json.Unmarshal(data, &values); err != nil {
		return err
	}
	if len(values) < 2 {
		return fmt.Errorf("counter pair has %d elements", len(values))
	}
	c[0], c[1] = values[0], values[1]
	return nil
}

// ArchCounters maps architecture → counter pair for one app
type ArchCounters map[string]Counters

// NetInstalls is the popularity ranking key: sum of (installs - updates)
// over the given arches, or over all arches when none are given.
func (a ArchCounters) NetInstalls(arches ...string) int64 {
	var total int64
	for arch, c := range a {
		if len(arches) > 0 && !contains(arches, arch) {
			continue
		}
		total += c.Installs() - c.Updates()
	}
	return total
}

// GrossInstalls sums installs across all arches (updates are not subtracted)
func (a ArchCounters) GrossInstalls() int64 {
	var total int64
	for _, c := range a {
		total += c.Installs()
	}
	return total
}

// StatsTotals maps app id → per-arch counters
type StatsTotals map[string]ArchCounters

// DailySnapshot is one day of upstream download statistics
type DailySnapshot struct {
	Refs           StatsTotals      `json:"refs"`
	Downloads      int64            `json:"downloads,omitempty"`
	Updates        int64            `json:"updates,omitempty"`
	DeltaDownloads int64            `json:"delta_downloads,omitempty"`
	Countries      map[string]int64 `json:"countries,omitempty"`
}

// DecodeSnapshot parses an upstream payload. Payloads without refs are malformed.
func DecodeSnapshot(data []byte) (*DailySnapshot, error) {
	var snap DailySnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedSnapshot, err)
	}
	if snap.Refs == nil {
		return nil, fmt.Errorf("%w: missing refs", ErrMalformedSnapshot)
	}
	return &snap, nil
}

// DaySummary holds the top-level counters of one snapshot
type DaySummary struct {
	Date           time.Time
	Downloads      int64
	Updates        int64
	DeltaDownloads int64
}

// Period is the aggregation of snapshots over [Start, End]
type Period struct {
	Start     time.Time
	End       time.Time
	Refs      StatsTotals
	Days      []DaySummary
	Countries map[string]int64
}

// AppStats is the stored per-app stats entry
type AppStats struct {
	DownloadsLastMonth int64 `json:"downloads_last_month"`
}

// GlobalStats is the stored catalog-wide stats entry
type GlobalStats struct {
	Countries      map[string]int64 `json:"countries"`
	Downloads      map[string]int64 `json:"downloads"`
	Updates        map[string]int64 `json:"updates"`
	DeltaDownloads map[string]int64 `json:"delta_downloads"`
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
