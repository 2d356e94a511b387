package ingest_test

import (
	"errors"
	"testing"

	"github.com/renewabletx/gridmix/internal/energy"
	"github.com/renewabletx/gridmix/internal/ingest"
	"github.com/renewabletx/gridmix/internal/logger"
	"github.com/renewabletx/gridmix/internal/store"
	"github.com/renewabletx/gridmix/internal/store/storetest"
)

var sampleMix = map[string]float64{
	"Coal and Lignite": 8000,
	"Hydro":            120,
	"Natural Gas":      20000,
	"Nuclear":          5000,
	"Other":            10,
	"Power Storage":    -250,
	"Solar":            9000,
	"Wind":             11000,
}

func newService(t *testing.T) (*ingest.Service, *store.SnapshotRepo) {
	t.Helper()
	db := storetest.DB(t)
	return ingest.NewService(db, logger.NewNop()), store.NewSnapshotRepo(db)
}

func TestIngestPersistsFullSnapshot(t *testing.T) {
	svc, snapshots := newService(t)

	snap, err := svc.Ingest("2025-05-01 12:00:00", sampleMix)
	if err != nil {
		t.Fatalf("ingest failed: %v", err)
	}
	if len(snap.Readings) != len(sampleMix) {
		t.Fatalf("expected %d readings, got %d", len(sampleMix), len(snap.Readings))
	}

	stored, err := snapshots.FindByTimestamp("2025-05-01 12:00:00")
	if err != nil {
		t.Fatalf("find after ingest failed: %v", err)
	}
	if got, want := stored.TotalMW(), 52880.0; got != want {
		t.Errorf("TotalMW = %v, want %v", got, want)
	}
	// Storage is charging (-250) and still counts toward the renewable sum.
	if got, want := stored.RenewableMW(), 24880.0; got != want {
		t.Errorf("RenewableMW = %v, want %v", got, want)
	}
}

func TestIngestDuplicateTimestamp(t *testing.T) {
	svc, _ := newService(t)

	const ts = "2025-05-01 12:00:00"
	if _, err := svc.Ingest(ts, sampleMix); err != nil {
		t.Fatalf("first ingest failed: %v", err)
	}

	// A different payload for the same timestamp is still a duplicate.
	_, err := svc.Ingest(ts, map[string]float64{"Wind": 42})
	if !errors.Is(err, ingest.ErrDuplicateSnapshot) {
		t.Fatalf("expected ErrDuplicateSnapshot, got %v", err)
	}

	var dup *ingest.DuplicateSnapshotError
	if !errors.As(err, &dup) || dup.Timestamp != ts {
		t.Fatalf("expected DuplicateSnapshotError carrying %q, got %v", ts, err)
	}
}

func TestIngestUnknownLabelAbortsEntirely(t *testing.T) {
	svc, snapshots := newService(t)

	_, err := svc.Ingest("2025-05-01 12:00:00", map[string]float64{
		"Coal and Lignite": 100,
		"Fusion":           9000,
	})
	if !errors.Is(err, energy.ErrUnknownLabel) {
		t.Fatalf("expected ErrUnknownLabel, got %v", err)
	}

	// Nothing may have been persisted, not even the valid coal reading or
	// its lazily created source row.
	if _, err := snapshots.FindByTimestamp("2025-05-01 12:00:00"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected no snapshot persisted, got %v", err)
	}
}

func TestIngestBatchSkipsDuplicates(t *testing.T) {
	svc, _ := newService(t)

	// Pre-existing snapshot.
	if _, err := svc.Ingest("2025-05-01 12:00:00", sampleMix); err != nil {
		t.Fatalf("seed ingest failed: %v", err)
	}

	items := []ingest.Item{
		{Timestamp: "2025-05-01 12:00:00", Mix: sampleMix}, // duplicate of persisted
		{Timestamp: "2025-05-01 12:05:00", Mix: sampleMix},
		{Timestamp: "2025-05-01 12:10:00", Mix: sampleMix},
		{Timestamp: "2025-05-01 12:10:00", Mix: sampleMix}, // duplicate within batch
	}

	created, err := svc.IngestBatch(items)
	if err != nil {
		t.Fatalf("batch ingest failed: %v", err)
	}
	if len(created) != 2 {
		t.Fatalf("expected 2 created snapshots, got %d", len(created))
	}

	timestamps := map[string]bool{}
	for _, snap := range created {
		timestamps[snap.Timestamp] = true
	}
	if !timestamps["2025-05-01 12:05:00"] || !timestamps["2025-05-01 12:10:00"] {
		t.Fatalf("unexpected created timestamps: %v", timestamps)
	}
}

func TestIngestZeroTotalSnapshot(t *testing.T) {
	svc, _ := newService(t)

	snap, err := svc.Ingest("2025-05-01 12:00:00", map[string]float64{
		"Wind":  0,
		"Solar": 0,
	})
	if err != nil {
		t.Fatalf("ingest failed: %v", err)
	}
	if got := snap.RenewablePct(); got != 0 {
		t.Errorf("RenewablePct with zero total = %v, want 0", got)
	}
}

func TestNormalizeTimestamp(t *testing.T) {
	cases := map[string]string{
		"2025-05-01 12:00:00":        "2025-05-01 12:00:00",
		"2025-05-01 12:00:00.123456": "2025-05-01 12:00:00",
		"2025-05-01T12:00:00Z":       "2025-05-01 12:00:00",
		"2025-05-01T14:00:00+02:00":  "2025-05-01 12:00:00",
		"2025-05-01T12:00:00":        "2025-05-01 12:00:00",
		"not a timestamp":            "not a timestamp",
	}
	for raw, want := range cases {
		if got := ingest.NormalizeTimestamp(raw); got != want {
			t.Errorf("NormalizeTimestamp(%q) = %q, want %q", raw, got, want)
		}
	}
}
