// Package kv is the persistence adapter: whole-snapshot JSON records per
// logical namespace in a local sqlite file. One authoritative writer;
// corrupt or missing records fall back to defaults instead of failing the load.
package kv

import (
	"encoding/json"
	"fmt"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	internallog "github.com/hushcampus-dev/hushcampus/internal/logger"
)

// Logical namespaces. Each one is persisted as a single snapshot record.
const (
	NSPosts          = "posts"
	NSBookmarks      = "bookmarked-post-ids"
	NSReports        = "reports"
	NSNotifications  = "notifications"
	NSLedger         = "reward-ledger"
	NSCommunities    = "communities"
	NSChannels       = "channels"
	NSMemberships    = "memberships"
	NSNotifySettings = "notification-settings"
	NSModerationLog  = "moderation-log"
	NSCrisisRequests = "crisis-requests"
	NSEncryptionKeys = "encryption-key-map"
	NSChannelMeta    = "channel-post-meta"
	NSActivity       = "activity-samples"
	NSSeedVersion    = "seed-version"
)

type record struct {
	Namespace string `gorm:"column:namespace;primaryKey;size:64;not null"`
	Value     []byte `gorm:"column:value;not null"`
	UpdatedAt int64  `gorm:"column:updated_at_ms;not null"`
}

func (record) TableName() string {
	return "kv_records"
}

// Store is the durable local key-value store.
type Store struct {
	db *gorm.DB
}

// Open establishes the sqlite connection and migrates the schema.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("database path is required")
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// single authoritative writer
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&record{}); err != nil {
		return nil, err
	}

	return &Store{db: db}, nil
}

// Save marshals value and overwrites the whole namespace snapshot.
func (s *Store) Save(namespace string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal namespace '%s': %w", namespace, err)
	}

	rec := record{
		Namespace: namespace,
		Value:     data,
		UpdatedAt: time.Now().UnixMilli(),
	}
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "namespace"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at_ms"}),
	}).Create(&rec).Error
}

// Load unmarshals a namespace snapshot into out. A missing record or a
// corrupt payload returns found=false with a nil error: callers fall back
// to their defaults and the corrupt record is dropped.
func (s *Store) Load(namespace string, out any) (bool, error) {
	var rec record
	err := s.db.Where("namespace = ?", namespace).Take(&rec).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return false, nil
		}
		return false, err
	}

	if err := json.Unmarshal(rec.Value, out); err != nil {
		internallog.Log.Warn("dropping corrupt persisted namespace",
			"component", "kv",
			"namespace", namespace,
			"error", err)
		_ = s.Delete(namespace)
		return false, nil
	}
	return true, nil
}

// Delete removes a namespace record entirely.
func (s *Store) Delete(namespace string) error {
	return s.db.Where("namespace = ?", namespace).Delete(&record{}).Error
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
