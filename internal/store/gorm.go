package store

import (
	"errors"

	"gorm.io/gorm"
)

// Gorm implements every store port on a gorm connection.
type Gorm struct {
	db *gorm.DB
}

// NewGorm creates a gorm-backed store.
func NewGorm(db *gorm.DB) *Gorm {
	return &Gorm{db: db}
}

// DB exposes the underlying connection, for seeding and tests.
func (s *Gorm) DB() *gorm.DB { return s.db }

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

var (
	_ ValueStore        = (*Gorm)(nil)
	_ HierarchyStore    = (*Gorm)(nil)
	_ CatalogStore      = (*Gorm)(nil)
	_ PeriodStore       = (*Gorm)(nil)
	_ ConsolidatedStore = (*Gorm)(nil)
)
