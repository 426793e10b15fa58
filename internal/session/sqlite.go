package session

import (
	"context"
	"errors"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const tokenKey = "session_token"

// kvEntry is the single-table key-value schema backing SQLiteStore.
type kvEntry struct {
	Key   string `gorm:"primaryKey"`
	Value string
}

func (kvEntry) TableName() string {
	return "kv_entries"
}

// SQLiteStore persists the token in a local sqlite file: it survives
// process restarts but is scoped to one machine account, the closest Go
// analog to a browser's local storage slot.
type SQLiteStore struct {
	db *gorm.DB
}

// NewSQLiteStore opens (creating if needed) the kv database at path.
// Pass ":memory:" for a throwaway store.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&kvEntry{}); err != nil {
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Save(ctx context.Context, token string) error {
	entry := kvEntry{Key: tokenKey, Value: token}
	return s.db.WithContext(ctx).Save(&entry).Error
}

func (s *SQLiteStore) Read(ctx context.Context) string {
	var entry kvEntry
	err := s.db.WithContext(ctx).First(&entry, "key = ?", tokenKey).Error
	if err != nil {
		// Missing row and unavailable backend both read as "no session".
		return ""
	}
	return entry.Value
}

func (s *SQLiteStore) Clear(ctx context.Context) error {
	err := s.db.WithContext(ctx).Delete(&kvEntry{}, "key = ?", tokenKey).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	return err
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
