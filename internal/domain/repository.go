package domain

import (
	"context"
	"time"
)

// ScoredMember is one entry of a sorted set
type ScoredMember struct {
	Member string
	Score  float64
}

// KV defines the key-value, set and sorted-set primitives of the store.
// Missing keys are not errors: Get reports found=false, SMembers returns
// an empty slice.
type KV interface {
	// Get returns the value of an unexpired key
	Get(ctx context.Context, key string) (string, bool, error)

	// MGet returns the values of every unexpired key found
	MGet(ctx context.Context, keys ...string) (map[string]string, error)

	// Exists reports whether an unexpired key exists
	Exists(ctx context.Context, key string) (bool, error)

	// Set stores a value; ttl <= 0 means no expiry
	Set(ctx context.Context, key, value string, ttl time.Duration) error

	// MSet stores several values without expiry
	MSet(ctx context.Context, values map[string]string) error

	// Delete removes keys of any kind (values, sets, sorted sets)
	Delete(ctx context.Context, keys ...string) error

	// SMembers returns the members of a set
	SMembers(ctx context.Context, set string) ([]string, error)

	// SAdd adds members to a set
	SAdd(ctx context.Context, set string, members ...string) error

	// SCard returns the number of members in a set
	SCard(ctx context.Context, set string) (int64, error)

	// ZAdd sets member scores in a sorted set
	ZAdd(ctx context.Context, key string, scores map[string]float64) error

	// ZRem removes members from a sorted set
	ZRem(ctx context.Context, key string, members ...string) error

	// ZRevRange returns members ranked by descending score, positions start..stop inclusive
	ZRevRange(ctx context.Context, key string, start, stop int) ([]ScoredMember, error)
}

// Tx is a KV view bound to one atomic transaction
type Tx interface {
	KV

	// Index returns the full-text index bound to the transaction
	Index() SearchIndex
}

// Store is the shared storage backend
type Store interface {
	KV

	// Index returns the full-text index
	Index() SearchIndex

	// Update runs fn in one atomic transaction. Readers observe either
	// the state before or after the commit, never a mix. If fn returns
	// an error nothing is committed.
	Update(ctx context.Context, fn func(tx Tx) error) error

	// View runs fn against one consistent read snapshot
	View(ctx context.Context, fn func(kv KV) error) error

	// Close closes the underlying database
	Close() error
}

// SearchDocument is the full-text document of one desktop app
type SearchDocument struct {
	ID          string
	Name        string
	Summary     string
	Description string
	Keywords    string
}

// Search fields
const (
	FieldID          = "id"
	FieldName        = "name"
	FieldSummary     = "summary"
	FieldDescription = "description"
	FieldKeywords    = "keywords"
)

// QueryOptions narrows a full-text query
type QueryOptions struct {
	Field  string // restrict matches to one field, empty for any
	Prefix bool   // match terms by prefix
	Limit  int
}

// SearchIndex is an inverted index over SearchDocuments
type SearchIndex interface {
	// Upsert replaces the document with the same id
	Upsert(ctx context.Context, doc SearchDocument) error

	// Delete removes a document; deleting a missing document is not an error
	Delete(ctx context.Context, id string) error

	// Query returns ids of documents matching every term of text, best first
	Query(ctx context.Context, text string, opts QueryOptions) ([]string, error)
}

// SyncRunRepository defines the interface for sync history persistence
type SyncRunRepository interface {
	// Create creates a new sync run
	Create(run *SyncRun) error

	// Update updates an existing sync run
	Update(run *SyncRun) error

	// FindByID finds a sync run by ID
	FindByID(id string) (*SyncRun, error)

	// Latest returns the most recent runs, newest first
	Latest(limit int) ([]*SyncRun, error)
}
