package main

import (
	"context"

	"github.com/diewo77/go-energy-kpi/internal/models"
	"github.com/diewo77/go-energy-kpi/internal/services"
	"github.com/diewo77/go-energy-kpi/internal/store"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// generatePeriods creates the 17 periods of year for every organization.
func generatePeriods(ctx context.Context, db *gorm.DB, year int, log logrus.FieldLogger) error {
	var orgs []models.Organization
	if err := db.WithContext(ctx).Order("name").Find(&orgs).Error; err != nil {
		return err
	}
	periods := services.NewPeriodService(store.NewGorm(db), log)
	for _, org := range orgs {
		n, err := periods.GenerateYear(ctx, org.Name, year)
		if err != nil {
			return err
		}
		log.WithFields(logrus.Fields{"organization": org.Name, "year": year, "created": n}).Info("Periods generated")
	}
	return nil
}
