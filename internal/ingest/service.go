package ingest

import (
	"errors"
	"fmt"
	"sort"

	"gorm.io/gorm"

	"github.com/renewabletx/gridmix/internal/logger"
	"github.com/renewabletx/gridmix/internal/store"
)

// ErrDuplicateSnapshot matches any DuplicateSnapshotError via errors.Is.
var ErrDuplicateSnapshot = errors.New("snapshot already exists")

// DuplicateSnapshotError reports that a snapshot for the given timestamp
// was already ingested. Expected under normal operation whenever the feed
// has not published a new reading since the last poll.
type DuplicateSnapshotError struct {
	Timestamp string
}

func (e *DuplicateSnapshotError) Error() string {
	return fmt.Sprintf("snapshot already exists for timestamp %q", e.Timestamp)
}

func (e *DuplicateSnapshotError) Is(target error) bool {
	return target == ErrDuplicateSnapshot
}

// Item is one (timestamp, mix) pair for batch ingestion.
type Item struct {
	Timestamp string
	Mix       map[string]float64
}

// Service turns raw feed readings into persisted snapshots.
type Service struct {
	db        *gorm.DB
	sources   *store.SourceRepo
	snapshots *store.SnapshotRepo
	log       *logger.Logger
}

func NewService(db *gorm.DB, log *logger.Logger) *Service {
	return &Service{
		db:        db,
		sources:   store.NewSourceRepo(db),
		snapshots: store.NewSnapshotRepo(db),
		log:       log.With("component", "ingest"),
	}
}

// Ingest persists one snapshot with all its readings atomically. A snapshot
// already present for the timestamp yields a DuplicateSnapshotError; an
// unknown source label aborts the whole snapshot. Either the full snapshot
// is committed or nothing is.
func (s *Service) Ingest(timestamp string, mix map[string]float64) (*store.Snapshot, error) {
	ts := NormalizeTimestamp(timestamp)

	var created *store.Snapshot
	err := s.db.Transaction(func(tx *gorm.DB) error {
		snap, err := s.ingestTx(tx, ts, mix)
		if err != nil {
			return err
		}
		created = snap
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// ingestTx runs the ingestion steps inside the caller's transaction.
func (s *Service) ingestTx(tx *gorm.DB, timestamp string, mix map[string]float64) (*store.Snapshot, error) {
	snapshots := s.snapshots.WithTx(tx)

	// Fast path for the common case. The unique index remains the
	// authoritative check for the race between two concurrent writers.
	_, err := snapshots.FindByTimestamp(timestamp)
	if err == nil {
		return nil, &DuplicateSnapshotError{Timestamp: timestamp}
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	sources := s.sources.WithTx(tx)

	labels := make([]string, 0, len(mix))
	for label := range mix {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	readings := make([]store.Reading, 0, len(labels))
	for _, label := range labels {
		src, err := sources.ResolveOrCreate(label)
		if err != nil {
			return nil, err
		}
		readings = append(readings, store.Reading{
			SourceID:  src.ID,
			Source:    *src,
			Megawatts: mix[label],
		})
	}

	snap, err := snapshots.Insert(timestamp, readings)
	if err != nil {
		if store.IsDuplicateKey(err) {
			return nil, &DuplicateSnapshotError{Timestamp: timestamp}
		}
		return nil, err
	}
	return snap, nil
}

// IngestBatch processes items inside one outer transaction. Items whose
// timestamp already exists, whether persisted earlier or earlier in the
// same batch, are skipped rather than aborting the batch; everything else
// commits together.
func (s *Service) IngestBatch(items []Item) ([]*store.Snapshot, error) {
	var created []*store.Snapshot
	err := s.db.Transaction(func(tx *gorm.DB) error {
		for _, item := range items {
			snap, err := s.ingestTx(tx, NormalizeTimestamp(item.Timestamp), item.Mix)
			if err != nil {
				if errors.Is(err, ErrDuplicateSnapshot) {
					s.log.Debug("skipping duplicate snapshot in batch", "timestamp", item.Timestamp)
					continue
				}
				return err
			}
			created = append(created, snap)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}
