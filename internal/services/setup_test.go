package services

import (
	"context"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/diewo77/go-energy-kpi/internal/db"
	"github.com/diewo77/go-energy-kpi/internal/models"
	"github.com/diewo77/go-energy-kpi/internal/policy"
	"github.com/diewo77/go-energy-kpi/internal/store"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testCatalog = `
processes:
  - code: ENERGY
    name: Energy
    indicators:
      - {code: E1, name: Electricity, unit: kWh, type: consumption}
      - {code: E2, name: Gas, unit: kWh, type: consumption, aggregation: sum}
      - {code: E3, name: Fuel, unit: l, type: consumption, aggregation: average}
  - code: WATER
    name: Water
    indicators:
      - {code: W1, name: Water withdrawal, unit: m3}
organizations:
  - name: Acme
    sites: [Plant1, Plant2]
    indicators: [E1, E2, E3, W1]
  - name: Globex
    filieres:
      - name: Industry
        filiales:
          - name: Steel
            sites: [Forge, Mill]
          - name: Chem
            sites: [Lab]
      - name: Services
        filiales:
          - name: Logistics
            sites: [Depot]
    indicators: [E1, W1]
`

// fixture is a migrated sqlite database with the catalog above, the system
// profiles and generated periods for 2023 and 2024.
type fixture struct {
	db       *gorm.DB
	store    *store.Gorm
	gate     *policy.AuthGate
	workflow *WorkflowService
	periods  *PeriodService
	catalog  *CatalogService
	engine   *ConsolidationService
	log      *logrus.Logger
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.Migrate(gdb))
	require.NoError(t, db.Seed(gdb))
	require.NoError(t, db.LoadCatalog(gdb, strings.NewReader(testCatalog)))

	log := quietLogger()
	s := store.NewGorm(gdb)
	g := policy.NewAuthGate(gdb, 0, log)
	f := &fixture{
		db:       gdb,
		store:    s,
		gate:     g,
		workflow: NewWorkflowService(s, s, s, s, g, log),
		periods:  NewPeriodService(s, log),
		catalog:  NewCatalogService(s),
		engine:   NewConsolidationService(s, s, s, s, log),
		log:      log,
	}
	ctx := context.Background()
	for _, org := range []string{"Acme", "Globex"} {
		for _, year := range []int{2023, 2024} {
			_, err := f.periods.GenerateYear(ctx, org, year)
			require.NoError(t, err)
		}
	}
	return f
}

// user creates an actor with a system profile.
func (f *fixture) user(t *testing.T, email, profile, org string, site *string, processes ...string) uint {
	t.Helper()
	var p models.Profile
	require.NoError(t, f.db.Where("name = ?", profile).First(&p).Error)
	u := models.User{Email: email, ProfileID: &p.ID, Organization: org, SiteName: site}
	require.NoError(t, f.db.Create(&u).Error)
	for _, code := range processes {
		require.NoError(t, f.db.Create(&models.ProcessAssignment{UserID: u.ID, ProcessCode: code}).Error)
	}
	return u.ID
}

// seedValue inserts a value directly in the given status, bypassing the
// workflow. Scope is "" for organization level or "site:X",
// "filiale:Filiere/X", "filiere:X".
func (f *fixture) seedValue(t *testing.T, org, code, scope string, year int, pt models.PeriodType, number *int, value *float64, status models.ValueStatus) *models.IndicatorValue {
	t.Helper()
	ctx := context.Background()
	period, err := f.periods.ResolvePeriod(ctx, org, year, pt, number)
	require.NoError(t, err)
	ind, err := f.store.GetIndicator(ctx, code)
	require.NoError(t, err)

	v := &models.IndicatorValue{
		IndicatorCode: code,
		ProcessCode:   ind.ProcessCode,
		Organization:  org,
		PeriodID:      period.ID,
		Year:          year,
		PeriodType:    pt,
		PeriodNumber:  number,
		Value:         value,
		Status:        status,
	}
	if scope != "" {
		kind, name, _ := strings.Cut(scope, ":")
		switch kind {
		case "site":
			v.SiteName = &name
		case "filiale":
			filiere, filiale, _ := strings.Cut(name, "/")
			v.FiliereName, v.FilialeName = &filiere, &filiale
		case "filiere":
			v.FiliereName = &name
		}
	}
	require.NoError(t, f.store.CreateValue(ctx, v))
	// Distinct created_at so "latest" is deterministic.
	time.Sleep(2 * time.Millisecond)
	return v
}

func ptr[T any](v T) *T { return &v }

func storeQueryAll(org string) store.ValueQuery {
	return store.ValueQuery{Organization: org}
}
