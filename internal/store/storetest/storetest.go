// Package storetest provides an isolated in-memory database per test.
package storetest

import (
	"fmt"
	"sync/atomic"
	"testing"

	"gorm.io/gorm"

	"github.com/renewabletx/gridmix/internal/store"
)

var seq atomic.Int64

// DB opens a fresh in-memory sqlite database with the full schema. Each
// call gets its own named shared-cache database so gorm's connection pool
// sees one consistent store without leaking state between tests.
func DB(tb testing.TB) *gorm.DB {
	tb.Helper()

	dsn := fmt.Sprintf("file:gridmixtest%d?mode=memory&cache=shared&_foreign_keys=on", seq.Add(1))
	db, err := store.Open(dsn)
	if err != nil {
		tb.Fatalf("failed to open test db: %v", err)
	}
	if err := store.Migrate(db); err != nil {
		tb.Fatalf("failed to migrate test db: %v", err)
	}

	tb.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}
