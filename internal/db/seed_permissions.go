package db

import (
	"errors"

	"github.com/diewo77/go-energy-kpi/gate"
	"github.com/diewo77/go-energy-kpi/internal/models"
	"gorm.io/gorm"
)

// SeedPermissions creates the core permissions for the application.
// Called during initial database setup or migration.
func SeedPermissions(db *gorm.DB) error {
	permissions := []struct {
		ResourceType string
		Action       string
		Description  string
	}{
		// Superadmin wildcard
		{"*", "*", "Full system access"},
		// Indicator values
		{models.ResourceIndicatorValue, "*", "All indicator value actions"},
		{models.ResourceIndicatorValue, "list", "List indicator values"},
		{models.ResourceIndicatorValue, "view", "View indicator values and history"},
		{models.ResourceIndicatorValue, "create", "Enter indicator values"},
		{models.ResourceIndicatorValue, "submit", "Submit values for validation"},
		{models.ResourceIndicatorValue, "validate", "Validate submitted values"},
		{models.ResourceIndicatorValue, "reject", "Reject submitted values"},
		// Consolidated views
		{models.ResourceConsolidation, "*", "All consolidated views"},
		{models.ResourceConsolidation, "view", "View consolidated indicators"},
		{models.ResourceConsolidation, "consolidate", "View consolidation including submitted values"},
		// Catalog
		{models.ResourceIndicator, "*", "All catalog actions"},
		{models.ResourceIndicator, "list", "List indicators"},
		// Periods
		{models.ResourcePeriod, "*", "All period actions"},
		{models.ResourcePeriod, "view", "View collection periods"},
	}

	for _, p := range permissions {
		perm := models.Permission{
			ResourceType: p.ResourceType,
			Action:       p.Action,
			Description:  p.Description,
		}
		result := db.Where("resource_type = ? AND action = ?", p.ResourceType, p.Action).
			FirstOrCreate(&perm)
		if result.Error != nil {
			return result.Error
		}
	}
	return nil
}

// SeedProfiles creates the default system profiles with their permissions.
func SeedProfiles(db *gorm.DB) error {
	if err := SeedPermissions(db); err != nil {
		return err
	}

	profiles := []struct {
		Name        string
		Description string
		Permissions []string // "resource:action" format
	}{
		{
			Name:        "admin",
			Description: "Full system administrator with all permissions",
			Permissions: []string{"*:*"},
		},
		{
			Name:        "viewer",
			Description: "Read-only access to consolidated indicators",
			Permissions: []string{
				"consolidation:view",
				"indicator:list",
				"period:view",
			},
		},
		{
			Name:        "contributor",
			Description: "Enter and submit indicator values",
			Permissions: []string{
				"indicator_value:create",
				"indicator_value:submit",
				"indicator_value:view",
				"indicator_value:list",
				"consolidation:view",
				"indicator:list",
				"period:view",
			},
		},
		{
			Name:        "validator",
			Description: "Validate or reject submitted values of assigned processes",
			Permissions: []string{
				"indicator_value:validate",
				"indicator_value:reject",
				"indicator_value:view",
				"indicator_value:list",
				"consolidation:*",
				"indicator:list",
				"period:view",
			},
		},
	}

	for _, p := range profiles {
		var profile models.Profile
		err := db.Where("name = ?", p.Name).First(&profile).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if errors.Is(err, gorm.ErrRecordNotFound) {
			profile = models.Profile{
				Name:        p.Name,
				Description: p.Description,
				IsSystem:    true,
			}
			if err := db.Create(&profile).Error; err != nil {
				return err
			}
		}

		var perms []models.Permission
		for _, code := range p.Permissions {
			parsed, ok := gate.ParsePermission(code)
			if !ok {
				continue
			}
			resource, action := parsed.Parse()
			var perm models.Permission
			if err := db.Where("resource_type = ? AND action = ?", resource, string(action)).First(&perm).Error; err == nil {
				perms = append(perms, perm)
			}
		}
		if err := db.Model(&profile).Association("Permissions").Replace(perms); err != nil {
			return err
		}
	}
	return nil
}
