package db

import (
	"github.com/diewo77/go-energy-kpi/internal/models"
	"gorm.io/gorm"
)

// Migrate runs AutoMigrate for all models.
// Call this at application startup or as part of a migration step.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		// Auth & Authorization
		&models.User{},
		&models.Profile{},
		&models.Permission{},
		&models.ProcessAssignment{},
		// Hierarchy
		&models.Organization{},
		&models.Filiere{},
		&models.Filiale{},
		&models.Site{},
		// Catalog
		&models.Processus{},
		&models.Indicator{},
		&models.OrganizationIndicator{},
		// Collection
		&models.CollectionPeriod{},
		&models.IndicatorValue{},
		&models.TransitionLog{},
		&models.IndicatorTarget{},
		&models.ConsolidatedValue{},
	)
}

// Seed initializes the database with required seed data.
// Should be called after Migrate.
func Seed(db *gorm.DB) error {
	return SeedProfiles(db)
}
