package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/diewo77/go-energy-kpi/auth"
	"github.com/diewo77/go-energy-kpi/internal/db"
	"github.com/diewo77/go-energy-kpi/internal/handlers"
	"github.com/diewo77/go-energy-kpi/internal/models"
	"github.com/diewo77/go-energy-kpi/internal/policy"
	"github.com/diewo77/go-energy-kpi/internal/services"
	"github.com/diewo77/go-energy-kpi/internal/store"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const catalogYAML = `
processes:
  - code: ENERGY
    name: Energy
    indicators:
      - {code: E1, name: Electricity, unit: kWh}
  - code: WATER
    name: Water
    indicators:
      - {code: W1, name: Water withdrawal, unit: m3}
organizations:
  - name: Acme
    sites: [Plant1, Plant2]
    indicators: [W1, E1]
  - name: Globex
    filieres:
      - name: Industry
        filiales:
          - name: Steel
            sites: [Forge]
      - name: Services
        filiales:
          - name: Logistics
            sites: [Depot]
    indicators: [E1]
`

type server struct {
	db      *gorm.DB
	handler http.Handler
	pingErr error
}

func newServer(t *testing.T) *server {
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
	require.NoError(t, db.LoadCatalog(gdb, strings.NewReader(catalogYAML)))

	log := logrus.New()
	log.SetOutput(io.Discard)
	s := store.NewGorm(gdb)
	ag := policy.NewAuthGate(gdb, 0, log)
	periods := services.NewPeriodService(s, log)
	for _, org := range []string{"Acme", "Globex"} {
		_, err := periods.GenerateYear(context.Background(), org, 2024)
		require.NoError(t, err)
	}

	srv := &server{db: gdb}
	hierarchy := services.NewHierarchyService(s)
	cfg := &handlers.RouterConfig{
		AuthGate: ag,
		Health: map[string]handlers.Pinger{
			"database": func(context.Context) error { return srv.pingErr },
		},
		Organization: handlers.NewOrganizationHandler(
			hierarchy,
			services.NewConsolidationService(s, s, s, s, log),
			services.NewCatalogService(s),
			periods,
			ag,
		),
		Values:     handlers.NewValueHandler(services.NewWorkflowService(s, s, s, s, ag, log)),
		AdminUsers: handlers.NewAdminUserHandler(gdb, ag),
	}
	srv.handler = handlers.RequestID(auth.Middleware(cfg.Routes()))
	return srv
}

func (s *server) user(t *testing.T, email, profile string, processes ...string) uint {
	t.Helper()
	var p models.Profile
	require.NoError(t, s.db.Where("name = ?", profile).First(&p).Error)
	u := models.User{Email: email, ProfileID: &p.ID, Organization: "Acme"}
	require.NoError(t, s.db.Create(&u).Error)
	for _, code := range processes {
		require.NoError(t, s.db.Create(&models.ProcessAssignment{UserID: u.ID, ProcessCode: code}).Error)
	}
	return u.ID
}

// do sends a request as actor (0 for anonymous) and returns the recorder.
func (s *server) do(t *testing.T, actor uint, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	if actor != 0 {
		req.Header.Set(auth.ActorHeader, strconv.FormatUint(uint64(actor), 10))
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

type errorBody struct {
	Error   string            `json:"error"`
	Details map[string]string `json:"details"`
}

var errDown = errors.New("connection refused")
