package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/andresuchdata/restock/internal/config"
	"github.com/andresuchdata/restock/internal/drive"
	"github.com/andresuchdata/restock/internal/repository/postgres"
	"github.com/andresuchdata/restock/internal/service"
	"github.com/andresuchdata/restock/internal/storage"
	"github.com/andresuchdata/restock/pkg/logger"
	"github.com/gorilla/mux"
)

// Drive ingest server: pulls sales and arrival matrices from Google Drive.
func main() {
	cfg := config.Load()
	logger.SetLevel(cfg.Server.Mode)
	if cfg.App.LogFile != "" {
		logger.EnableFile(cfg.App.LogFile)
	}

	driveService, err := drive.NewService(context.Background(), cfg.Drive.CredentialsJSON)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to initialize Google Drive service")
	}

	db, err := postgres.NewDB(&cfg.Database)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	objectStorage, err := storage.New(cfg.Storage)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("Object storage unavailable")
		objectStorage = storage.NewNoopStorage()
	}

	matrixService := service.NewMatrixService(
		postgres.NewProductRepository(db),
		postgres.NewSalesRepository(db),
		postgres.NewArrivalRepository(db),
		objectStorage,
	)
	ingestService := drive.NewIngestService(driveService, matrixService)

	r := mux.NewRouter()
	drive.NewHandler(driveService, ingestService).RegisterRoutes(r)

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			http.Error(w, "database unreachable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	}).Methods(http.MethodGet)

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	logger.Log.Info().Str("addr", addr).Msg("Drive ingest server starting")
	if err := http.ListenAndServe(addr, r); err != nil {
		logger.Log.Fatal().Err(err).Msg("Drive ingest server stopped")
	}
}
