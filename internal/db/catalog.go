package db

import (
	"fmt"
	"io"
	"os"

	"github.com/diewo77/go-energy-kpi/internal/models"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CatalogFile is the YAML seed of processes, indicators and organizations.
type CatalogFile struct {
	Processes     []ProcessEntry      `yaml:"processes"`
	Organizations []OrganizationEntry `yaml:"organizations"`
}

type ProcessEntry struct {
	Code       string           `yaml:"code"`
	Name       string           `yaml:"name"`
	Indicators []IndicatorEntry `yaml:"indicators"`
}

type IndicatorEntry struct {
	Code        string `yaml:"code"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Unit        string `yaml:"unit"`
	Type        string `yaml:"type"`
	Formula     string `yaml:"formula"`
	Aggregation string `yaml:"aggregation"`
}

// OrganizationEntry describes a hierarchy. Sites listed directly under the
// organization have no filiale.
type OrganizationEntry struct {
	Name       string         `yaml:"name"`
	Filieres   []FiliereEntry `yaml:"filieres"`
	Sites      []string       `yaml:"sites"`
	Indicators []string       `yaml:"indicators"`
}

type FiliereEntry struct {
	Name     string         `yaml:"name"`
	Filiales []FilialeEntry `yaml:"filiales"`
}

type FilialeEntry struct {
	Name  string   `yaml:"name"`
	Sites []string `yaml:"sites"`
}

// LoadCatalogFile reads path and applies it with LoadCatalog.
func LoadCatalogFile(db *gorm.DB, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()
	return LoadCatalog(db, f)
}

// LoadCatalog upserts the catalog read from r. Running it twice leaves the
// database unchanged.
func LoadCatalog(db *gorm.DB, r io.Reader) error {
	var file CatalogFile
	if err := yaml.NewDecoder(r).Decode(&file); err != nil && err != io.EOF {
		return fmt.Errorf("decode catalog: %w", err)
	}
	return db.Transaction(func(tx *gorm.DB) error {
		for _, p := range file.Processes {
			if err := upsertProcess(tx, p); err != nil {
				return err
			}
		}
		for _, o := range file.Organizations {
			if err := upsertOrganization(tx, o); err != nil {
				return err
			}
		}
		return nil
	})
}

func upsertProcess(tx *gorm.DB, p ProcessEntry) error {
	proc := models.Processus{Code: p.Code, Name: p.Name}
	if err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "code"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "updated_at"}),
	}).Create(&proc).Error; err != nil {
		return fmt.Errorf("process %s: %w", p.Code, err)
	}
	for _, i := range p.Indicators {
		ind := models.Indicator{
			Code:        i.Code,
			Name:        i.Name,
			Description: i.Description,
			Unit:        i.Unit,
			Type:        i.Type,
			Formula:     i.Formula,
			ProcessCode: p.Code,
			Aggregation: models.Aggregation(i.Aggregation),
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "code"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"name", "description", "unit", "type", "formula", "process_code", "aggregation", "updated_at",
			}),
		}).Create(&ind).Error; err != nil {
			return fmt.Errorf("indicator %s: %w", i.Code, err)
		}
	}
	return nil
}

func upsertOrganization(tx *gorm.DB, o OrganizationEntry) error {
	var org models.Organization
	if err := tx.Where(models.Organization{Name: o.Name}).FirstOrCreate(&org).Error; err != nil {
		return fmt.Errorf("organization %s: %w", o.Name, err)
	}
	for _, fe := range o.Filieres {
		filiere := models.Filiere{OrganizationID: org.ID, Name: fe.Name}
		if err := tx.Where(filiere).FirstOrCreate(&filiere).Error; err != nil {
			return fmt.Errorf("filiere %s: %w", fe.Name, err)
		}
		for _, fl := range fe.Filiales {
			filiale := models.Filiale{OrganizationID: org.ID, FiliereID: filiere.ID, Name: fl.Name}
			if err := tx.Where(filiale).FirstOrCreate(&filiale).Error; err != nil {
				return fmt.Errorf("filiale %s: %w", fl.Name, err)
			}
			for _, s := range fl.Sites {
				if err := upsertSite(tx, org.ID, &filiale.ID, s); err != nil {
					return err
				}
			}
		}
	}
	for _, s := range o.Sites {
		if err := upsertSite(tx, org.ID, nil, s); err != nil {
			return err
		}
	}
	for _, code := range o.Indicators {
		sel := models.OrganizationIndicator{OrganizationID: org.ID, IndicatorCode: code}
		if err := tx.Where(sel).FirstOrCreate(&sel).Error; err != nil {
			return fmt.Errorf("select %s for %s: %w", code, o.Name, err)
		}
	}
	return nil
}

func upsertSite(tx *gorm.DB, orgID uint, filialeID *uint, name string) error {
	var site models.Site
	err := tx.Where("organization_id = ? AND name = ?", orgID, name).
		Attrs(models.Site{OrganizationID: orgID, FilialeID: filialeID, Name: name}).
		FirstOrCreate(&site).Error
	if err != nil {
		return fmt.Errorf("site %s: %w", name, err)
	}
	return nil
}
