// backend-go/cmd/server/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/andresuchdata/sop-dashboard/backend-go/internal/api"
	"github.com/andresuchdata/sop-dashboard/backend-go/internal/cache"
	"github.com/andresuchdata/sop-dashboard/backend-go/internal/config"
	"github.com/andresuchdata/sop-dashboard/backend-go/internal/pipeline/supply"
	"github.com/andresuchdata/sop-dashboard/backend-go/internal/service"
	"github.com/andresuchdata/sop-dashboard/backend-go/pkg/logger"
	"github.com/gin-gonic/gin"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	logger.SetLevel(cfg.App.LogLevel)
	logger.SetFormat(cfg.App.LogFormat)
	if cfg.Server.Mode == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	dashboardCache, err := cache.NewDashboardCache(cfg.Cache)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("dashboard cache unavailable, continuing without it")
		dashboardCache = cache.NewNoopDashboardCache()
	}
	// Dataset IDs are minted per process, so entries from a previous run are unreachable.
	if err := dashboardCache.InvalidateAll(context.Background()); err != nil {
		logger.Log.Warn().Err(err).Msg("failed to clear dashboard cache")
	}

	// Initialize services
	dashboardService := service.NewDashboardService(
		supply.NewPipeline(supply.Config{HeaderScanRows: cfg.App.HeaderScanRows}),
		service.DashboardConfig{DataDir: cfg.App.DataDir, UploadDir: cfg.App.UploadDir},
		cache.NewDatasetCache(),
		dashboardCache,
	)

	// Warm the default dataset; an empty data dir is not fatal.
	if ds, err := dashboardService.LoadDefault(context.Background()); err != nil {
		if errors.Is(err, service.ErrNoData) {
			logger.Log.Info().Str("data_dir", cfg.App.DataDir).Msg("no default workbook found, waiting for uploads")
		} else {
			logger.Log.Warn().Err(err).Str("data_dir", cfg.App.DataDir).Msg("failed to load default workbook")
		}
	} else {
		logger.Log.Info().Str("source", ds.Source).Int("rows", ds.Rows).Msg("default workbook loaded")
	}

	// Initialize HTTP server
	router := api.NewRouter(&api.Services{
		DashboardService: dashboardService,
		MaxUploadBytes:   cfg.App.MaxUploadMB << 20,
	}, cfg.Server.AllowedOrigins)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Log.Info().Str("port", cfg.Server.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
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
