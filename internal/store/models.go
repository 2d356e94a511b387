package store

import (
	"time"
)

// Source is one row of the fuel-source dimension table. Rows are created
// lazily on first sighting of a label, never mutated, never deleted.
type Source struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"-"`
	Name      string    `gorm:"uniqueIndex;not null" json:"name"`
	Renewable bool      `gorm:"not null" json:"renewable"`
}

// Reading is one (source, instant) generation measurement in megawatts.
// Negative values occur when storage is charging and are kept as-is.
type Reading struct {
	ID         uint    `gorm:"primaryKey" json:"id"`
	SnapshotID uint    `gorm:"not null;index" json:"snapshotId"`
	SourceID   uint    `gorm:"not null" json:"sourceId"`
	Source     Source  `json:"source"`
	Megawatts  float64 `gorm:"not null;default:0" json:"megawatts"`
}

// Snapshot is one observation instant with its full set of readings.
// Timestamp is the upstream-supplied identifier and is unique at the schema
// level; CreatedAt records wall-clock insertion time and is what bounds
// "recent" for dashboard queries.
type Snapshot struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"index" json:"createdAt"`
	Timestamp string    `gorm:"uniqueIndex;not null" json:"timestamp"`
	Readings  []Reading `gorm:"constraint:OnDelete:CASCADE" json:"readings"`
}

// TotalMW sums generation across all readings.
func (s *Snapshot) TotalMW() float64 {
	var total float64
	for _, r := range s.Readings {
		total += r.Megawatts
	}
	return total
}

// RenewableMW sums generation across readings whose source is renewable.
// Readings must have been loaded with their Source.
func (s *Snapshot) RenewableMW() float64 {
	var total float64
	for _, r := range s.Readings {
		if r.Source.Renewable {
			total += r.Megawatts
		}
	}
	return total
}

// RenewablePct returns the renewable share in percent, 0 when nothing is
// generating.
func (s *Snapshot) RenewablePct() float64 {
	total := s.TotalMW()
	if total == 0 {
		return 0
	}
	return s.RenewableMW() / total * 100
}
