package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/yourusername/appcatalog/internal/domain"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// batchSize bounds the number of bound parameters per statement
const batchSize = 400

type kvEntry struct {
	Key       string `gorm:"primaryKey;column:entry_key"`
	Value     string `gorm:"type:text;not null"`
	ExpiresAt int64  `gorm:"not null;default:0;index"` // unix nanos, 0 = never
}

func (kvEntry) TableName() string { return "kv_entries" }

type setMember struct {
	SetKey string `gorm:"primaryKey"`
	Member string `gorm:"primaryKey"`
}

func (setMember) TableName() string { return "set_members" }

type zsetMember struct {
	ZKey   string  `gorm:"primaryKey"`
	Member string  `gorm:"primaryKey"`
	Score  float64 `gorm:"not null;index"`
}

func (zsetMember) TableName() string { return "zset_members" }

// StoreOption configures a SQLiteStore
type StoreOption func(*SQLiteStore)

// WithClock overrides the clock used for key expiry
func WithClock(now func() time.Time) StoreOption {
	return func(s *SQLiteStore) {
		s.now = now
	}
}

// SQLiteStore implements domain.Store on top of SQLite
type SQLiteStore struct {
	db  *gorm.DB
	now func() time.Time
	ops
}

// NewSQLiteStore opens (or creates) the store at dbPath
func NewSQLiteStore(dbPath string, opts ...StoreOption) (*SQLiteStore, error) {
	dsn := dbPath
	if dbPath != ":memory:" {
		dsn = fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=5000", dbPath)
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if dbPath == ":memory:" {
		// every connection would otherwise get its own empty database
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get database handle: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}

	if err := db.AutoMigrate(
		&kvEntry{},
		&setMember{},
		&zsetMember{},
		&searchDocument{},
		&searchTerm{},
		&domain.SyncRun{},
	); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	s := &SQLiteStore{db: db, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	s.ops = ops{db: db, now: s.now}
	return s, nil
}

// Index returns the full-text index
func (s *SQLiteStore) Index() domain.SearchIndex {
	return &sqliteIndex{db: s.db}
}

// Update runs fn in one write transaction
func (s *SQLiteStore) Update(ctx context.Context, fn func(tx domain.Tx) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&sqliteTx{ops: ops{db: tx, now: s.now}})
	})
}

// View runs fn against one consistent read snapshot
func (s *SQLiteStore) View(ctx context.Context, fn func(kv domain.KV) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&ops{db: tx, now: s.now})
	})
}

// SyncRuns returns the sync history repository sharing this database
func (s *SQLiteStore) SyncRuns() *SQLiteSyncRunRepository {
	return &SQLiteSyncRunRepository{db: s.db}
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

type sqliteTx struct {
	ops
}

func (t *sqliteTx) Index() domain.SearchIndex {
	return &sqliteIndex{db: t.db}
}

// ops implements domain.KV against either the root handle or a transaction
type ops struct {
	db  *gorm.DB
	now func() time.Time
}

func (o *ops) live(ctx context.Context) *gorm.DB {
	return o.db.WithContext(ctx).Where("expires_at = 0 OR expires_at > ?", o.now().UnixNano())
}

func (o *ops) Get(ctx context.Context, key string) (string, bool, error) {
	var entry kvEntry
	err := o.live(ctx).Where("entry_key = ?", key).First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", false, nil
		}
		return "", false, err
	}
	return entry.Value, true, nil
}

func (o *ops) MGet(ctx context.Context, keys ...string) (map[string]string, error) {
	values := make(map[string]string, len(keys))
	for _, chunk := range chunks(keys) {
		var entries []kvEntry
		if err := o.live(ctx).Where("entry_key IN ?", chunk).Find(&entries).Error; err != nil {
			return nil, err
		}
		for _, e := range entries {
			values[e.Key] = e.Value
		}
	}
	return values, nil
}

func (o *ops) Exists(ctx context.Context, key string) (bool, error) {
	var count int64
	err := o.live(ctx).Model(&kvEntry{}).Where("entry_key = ?", key).Count(&count).Error
	return count > 0, err
}

func (o *ops) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	entry := kvEntry{Key: key, Value: value}
	if ttl > 0 {
		entry.ExpiresAt = o.now().Add(ttl).UnixNano()
	}
	return o.db.WithContext(ctx).Clauses(upsertKV).Create(&entry).Error
}

func (o *ops) MSet(ctx context.Context, values map[string]string) error {
	if len(values) == 0 {
		return nil
	}
	entries := make([]kvEntry, 0, len(values))
	for k, v := range values {
		entries = append(entries, kvEntry{Key: k, Value: v})
	}
	return o.db.WithContext(ctx).Clauses(upsertKV).CreateInBatches(entries, batchSize/3).Error
}

var upsertKV = clause.OnConflict{
	Columns:   []clause.Column{{Name: "entry_key"}},
	DoUpdates: clause.AssignmentColumns([]string{"value", "expires_at"}),
}

func (o *ops) Delete(ctx context.Context, keys ...string) error {
	db := o.db.WithContext(ctx)
	for _, chunk := range chunks(keys) {
		if err := db.Where("entry_key IN ?", chunk).Delete(&kvEntry{}).Error; err != nil {
			return err
		}
		if err := db.Where("set_key IN ?", chunk).Delete(&setMember{}).Error; err != nil {
			return err
		}
		if err := db.Where("z_key IN ?", chunk).Delete(&zsetMember{}).Error; err != nil {
			return err
		}
	}
	return nil
}

func (o *ops) SMembers(ctx context.Context, set string) ([]string, error) {
	members := []string{}
	err := o.db.WithContext(ctx).Model(&setMember{}).
		Where("set_key = ?", set).
		Order("member ASC").
		Pluck("member", &members).Error
	return members, err
}

func (o *ops) SAdd(ctx context.Context, set string, members ...string) error {
	if len(members) == 0 {
		return nil
	}
	rows := make([]setMember, 0, len(members))
	for _, m := range members {
		rows = append(rows, setMember{SetKey: set, Member: m})
	}
	return o.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		CreateInBatches(rows, batchSize/2).Error
}

func (o *ops) SCard(ctx context.Context, set string) (int64, error) {
	var count int64
	err := o.db.WithContext(ctx).Model(&setMember{}).Where("set_key = ?", set).Count(&count).Error
	return count, err
}

func (o *ops) ZAdd(ctx context.Context, key string, scores map[string]float64) error {
	if len(scores) == 0 {
		return nil
	}
	rows := make([]zsetMember, 0, len(scores))
	for m, score := range scores {
		rows = append(rows, zsetMember{ZKey: key, Member: m, Score: score})
	}
	return o.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "z_key"}, {Name: "member"}},
		DoUpdates: clause.AssignmentColumns([]string{"score"}),
	}).CreateInBatches(rows, batchSize/3).Error
}

func (o *ops) ZRem(ctx context.Context, key string, members ...string) error {
	for _, chunk := range chunks(members) {
		if err := o.db.WithContext(ctx).
			Where("z_key = ? AND member IN ?", key, chunk).
			Delete(&zsetMember{}).Error; err != nil {
			return err
		}
	}
	return nil
}

func (o *ops) ZRevRange(ctx context.Context, key string, start, stop int) ([]domain.ScoredMember, error) {
	if start < 0 {
		start = 0
	}
	query := o.db.WithContext(ctx).Where("z_key = ?", key).
		Order("score DESC, member DESC")
	if start > 0 {
		query = query.Offset(start)
	}
	if stop >= 0 {
		if stop < start {
			return []domain.ScoredMember{}, nil
		}
		query = query.Limit(stop - start + 1)
	}

	var rows []zsetMember
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	result := make([]domain.ScoredMember, 0, len(rows))
	for _, r := range rows {
		result = append(result, domain.ScoredMember{Member: r.Member, Score: r.Score})
	}
	return result, nil
}

func chunks(values []string) [][]string {
	var out [][]string
	for len(values) > batchSize {
		out = append(out, values[:batchSize])
		values = values[batchSize:]
	}
	if len(values) > 0 {
		out = append(out, values)
	}
	return out
}

// ============================================================================
// SyncRunRepository implementation
// ============================================================================

// SQLiteSyncRunRepository implements domain.SyncRunRepository
type SQLiteSyncRunRepository struct {
	db *gorm.DB
}

// Create creates a new sync run
func (r *SQLiteSyncRunRepository) Create(run *domain.SyncRun) error {
	return r.db.Create(run).Error
}

// Update updates an existing sync run
func (r *SQLiteSyncRunRepository) Update(run *domain.SyncRun) error {
	return r.db.Save(run).Error
}

// FindByID finds a sync run by ID
func (r *SQLiteSyncRunRepository) FindByID(id string) (*domain.SyncRun, error) {
	var run domain.SyncRun
	err := r.db.First(&run, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &run, nil
}

// Latest returns the most recent runs, newest first
func (r *SQLiteSyncRunRepository) Latest(limit int) ([]*domain.SyncRun, error) {
	var runs []*domain.SyncRun
	err := r.db.Order("started_at DESC").Limit(limit).Find(&runs).Error
	return runs, err
}
