package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/diewo77/go-energy-kpi/internal/config"
	"github.com/diewo77/go-energy-kpi/internal/db"
	"github.com/diewo77/go-energy-kpi/internal/handlers"
	"github.com/diewo77/go-energy-kpi/internal/logger"
	"github.com/diewo77/go-energy-kpi/internal/store"
	"github.com/diewo77/go-energy-kpi/internal/store/mongostore"
	"github.com/sirupsen/logrus"
)

var (
	migrateOnlyFlag = flag.Bool("migrate-only", false, "Run DB migrations and exit")
	seedOnlyFlag    = flag.Bool("seed-only", false, "Run DB seed (profiles and catalog) and exit")
	periodsFlag     = flag.Int("generate-periods", 0, "Generate the collection periods of this year for every organization and exit")
)

func main() {
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}
	logs := logger.NewRegistry(cfg.Log)
	log := logs.App()

	dbConn, err := db.Open(cfg.Database, log)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if *migrateOnlyFlag {
		if err := db.Migrate(dbConn); err != nil {
			log.Fatalf("Migration failed: %v", err)
		}
		log.Info("Migrations completed successfully")
		return
	}

	if cfg.App.Migrations {
		if err := db.Migrate(dbConn); err != nil {
			log.Fatalf("Migration failed: %v", err)
		}
		log.Info("Migrations completed")
	}

	// Seed default data (profiles, permissions) and the indicator catalog
	if err := db.Seed(dbConn); err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}
	if cfg.App.CatalogPath != "" {
		if err := db.LoadCatalogFile(dbConn, cfg.App.CatalogPath); err != nil {
			log.Fatalf("Catalog load failed: %v", err)
		}
		log.WithField("path", cfg.App.CatalogPath).Info("Catalog loaded")
	}
	if *seedOnlyFlag {
		log.Info("Seeding completed successfully")
		return
	}

	if *periodsFlag != 0 {
		if err := generatePeriods(context.Background(), dbConn, *periodsFlag, log); err != nil {
			log.Fatalf("Period generation failed: %v", err)
		}
		return
	}

	sqlDB, err := dbConn.DB()
	if err != nil {
		log.Fatalf("Failed to get database handle: %v", err)
	}
	checks := map[string]handlers.Pinger{"database": sqlDB.PingContext}

	var values store.ValueStore
	if cfg.Mongo.URI != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		client, err := mongostore.Connect(ctx, cfg.Mongo.URI)
		if err != nil {
			cancel()
			log.Fatalf("Failed to connect to MongoDB: %v", err)
		}
		ms := mongostore.New(client.Database(cfg.Mongo.Database))
		if err := ms.EnsureIndexes(ctx); err != nil {
			cancel()
			log.Fatalf("Failed to create MongoDB indexes: %v", err)
		}
		cancel()
		defer client.Disconnect(context.Background())
		values = ms
		checks["mongo"] = func(ctx context.Context) error { return client.Ping(ctx, nil) }
		log.WithField("database", cfg.Mongo.Database).Info("Indicator values stored in MongoDB")
	}

	appHandler := NewApp(cfg, dbConn, values, logs, checks)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      appHandler,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	go func() {
		log.Infof("Server starting on port %s (dev=%v)", cfg.Server.Port, cfg.App.Dev)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Errorf("Error during shutdown: %v", err)
	}
	log.Info("Server stopped gracefully")
}
