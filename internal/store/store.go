package store

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// ErrNotFound is returned when no snapshot matches the lookup.
var ErrNotFound = errors.New("snapshot not found")

// Open connects to the sqlite database at path and enables foreign key
// enforcement. The path may be a plain file path or ":memory:".
func Open(path string) (*gorm.DB, error) {
	dsn := path
	if !strings.Contains(dsn, "?") {
		dsn += "?_foreign_keys=on"
	}
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite at %s: %w", path, err)
	}
	return db, nil
}

// Migrate creates or updates the schema. The unique index on
// snapshots.timestamp is the authoritative guard against concurrent
// duplicate ingestion.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&Source{}, &Snapshot{}, &Reading{})
}

// IsDuplicateKey reports whether err is a storage-level uniqueness
// violation. The message fallback covers drivers that the gorm error
// translation misses.
func IsDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key")
}
