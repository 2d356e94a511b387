package store

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

// SnapshotRepo persists and queries generation snapshots.
type SnapshotRepo struct {
	db *gorm.DB
}

func NewSnapshotRepo(db *gorm.DB) *SnapshotRepo {
	return &SnapshotRepo{db: db}
}

// WithTx returns a repo bound to the given transaction handle.
func (r *SnapshotRepo) WithTx(tx *gorm.DB) *SnapshotRepo {
	return &SnapshotRepo{db: tx}
}

// FindByTimestamp returns the snapshot for the given logical timestamp, or
// ErrNotFound.
func (r *SnapshotRepo) FindByTimestamp(timestamp string) (*Snapshot, error) {
	var snap Snapshot
	err := r.db.Preload("Readings.Source").Where("timestamp = ?", timestamp).First(&snap).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &snap, nil
}

// Insert persists a new snapshot with its readings as one statement batch.
// The unique index on timestamp makes the storage engine reject the second
// of two racing inserts; callers detect that with IsDuplicateKey.
func (r *SnapshotRepo) Insert(timestamp string, readings []Reading) (*Snapshot, error) {
	snap := Snapshot{
		Timestamp: timestamp,
		Readings:  readings,
	}
	// Sources were resolved by the registry already; only the readings
	// themselves get written here.
	if err := r.db.Omit("Readings.Source").Create(&snap).Error; err != nil {
		return nil, err
	}
	return &snap, nil
}

// Latest returns the most recently inserted snapshot, or ErrNotFound when
// the store is empty.
func (r *SnapshotRepo) Latest() (*Snapshot, error) {
	var snap Snapshot
	err := r.db.Preload("Readings.Source").Order("created_at DESC").First(&snap).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &snap, nil
}

// QueryByCreationWindow returns snapshots whose insertion time falls in
// [start, end]. The window is bounded by created_at, not the opaque logical
// timestamp, because insertion time is the trustworthy wall clock here.
func (r *SnapshotRepo) QueryByCreationWindow(start, end time.Time) ([]Snapshot, error) {
	var snaps []Snapshot
	err := r.db.Preload("Readings.Source").
		Where("created_at >= ? AND created_at <= ?", start, end).
		Find(&snaps).Error
	if err != nil {
		return nil, err
	}
	return snaps, nil
}
