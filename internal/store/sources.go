package store

import (
	"errors"

	"gorm.io/gorm"

	"github.com/renewabletx/gridmix/internal/energy"
)

// SourceRepo is the catalog-backed registry of persisted fuel sources.
type SourceRepo struct {
	db *gorm.DB
}

func NewSourceRepo(db *gorm.DB) *SourceRepo {
	return &SourceRepo{db: db}
}

// WithTx returns a repo bound to the given transaction handle, so registry
// calls participate in the caller's transaction scope.
func (r *SourceRepo) WithTx(tx *gorm.DB) *SourceRepo {
	return &SourceRepo{db: tx}
}

// ResolveOrCreate maps an upstream label to its canonical source row,
// creating the row on first sighting. The row is flushed but not committed;
// the caller owns the transaction boundary. Calling twice with the same
// label inside one transaction returns the same row.
func (r *SourceRepo) ResolveOrCreate(label string) (*Source, error) {
	meta, err := energy.MetaForLabel(label)
	if err != nil {
		return nil, err
	}

	var src Source
	err = r.db.Where("name = ?", meta.Name).First(&src).Error
	if err == nil {
		return &src, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	src = Source{Name: meta.Name, Renewable: meta.Renewable}
	if err := r.db.Create(&src).Error; err != nil {
		return nil, err
	}
	return &src, nil
}

// GetByName looks a source up by canonical name. Absent sources return
// (nil, nil).
func (r *SourceRepo) GetByName(name string) (*Source, error) {
	var src Source
	err := r.db.Where("name = ?", name).First(&src).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &src, nil
}

// List returns all known sources in no particular order.
func (r *SourceRepo) List() ([]Source, error) {
	var sources []Source
	if err := r.db.Find(&sources).Error; err != nil {
		return nil, err
	}
	return sources, nil
}

// Seed ensures every catalog source exists. Used at startup so the
// dimension table is complete before the first feed poll.
func (r *SourceRepo) Seed() error {
	for _, label := range energy.Labels() {
		if _, err := r.ResolveOrCreate(label); err != nil {
			return err
		}
	}
	return nil
}
