package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/andresuchdata/restock/internal/api"
	"github.com/andresuchdata/restock/internal/cache"
	"github.com/andresuchdata/restock/internal/config"
	"github.com/andresuchdata/restock/internal/repository/postgres"
	"github.com/andresuchdata/restock/internal/service"
	"github.com/andresuchdata/restock/internal/storage"
	"github.com/andresuchdata/restock/pkg/logger"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg := config.Load()

	logger.SetLevel(cfg.Server.Mode)
	if cfg.App.LogFile != "" {
		logger.EnableFile(cfg.App.LogFile)
	}
	if cfg.Server.Mode == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	if cfg.Database.MigrateOnStart {
		if err := postgres.Migrate(cfg.Database.URL()); err != nil {
			logger.Log.Fatal().Err(err).Msg("Failed to run migrations")
		}
	}

	db, err := postgres.NewDB(&cfg.Database)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	locker, err := cache.NewKeyLocker(cfg.Cache, cfg.Calc.CommitLockTTL())
	if err != nil {
		logger.Log.Warn().Err(err).Msg("Redis unavailable, commits are serialized in-process only")
		locker = cache.NewLocalKeyLocker()
	}

	objectStorage, err := storage.New(cfg.Storage)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("Object storage unavailable, exports will not be archived")
		objectStorage = storage.NewNoopStorage()
	}

	products := postgres.NewProductRepository(db)
	sales := postgres.NewSalesRepository(db)
	arrivals := postgres.NewArrivalRepository(db)

	services := &api.Services{
		Replenishment: service.NewReplenishmentService(products, sales, arrivals, locker, cfg.Calc),
		Arrival:       service.NewArrivalService(arrivals),
		Matrix:        service.NewMatrixService(products, sales, arrivals, objectStorage),
		DB:            db,
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      api.NewRouter(services, cfg.Server.AllowedOrigins),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Log.Info().Str("port", cfg.Server.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	logger.Log.Info().Msg("Server exiting")
}
