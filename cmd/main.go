package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Leeloo90/storygraph-backend/internal/config"
	"github.com/Leeloo90/storygraph-backend/internal/db"
	"github.com/Leeloo90/storygraph-backend/internal/handlers"
	"github.com/Leeloo90/storygraph-backend/internal/logger"
	"github.com/Leeloo90/storygraph-backend/internal/observability"
	"github.com/Leeloo90/storygraph-backend/internal/repos"
	"github.com/Leeloo90/storygraph-backend/internal/server"
	"github.com/Leeloo90/storygraph-backend/internal/services"
	"github.com/Leeloo90/storygraph-backend/internal/sse"
)

func main() {
	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Config
	cfg, err := config.Load(log)
	if err != nil {
		log.Fatal("Failed to load config", "error", err)
	}

	// Tracing
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	otelShutdown := observability.InitOTel(ctx, log, "storygraph")

	// Database
	dbService, err := db.NewService(cfg.Database, log)
	if err != nil {
		log.Fatal("Database init failed", "error", err)
	}
	if err := dbService.AutoMigrateAll(); err != nil {
		log.Fatal("Database migration failed", "error", err)
	}
	gormDB := dbService.DB()

	// Repos
	log.Info("Setting up repos...")
	projectRepo := repos.NewProjectRepo(gormDB, log)
	unitRepo := repos.NewUnitRepo(gormDB, log)
	assetRepo := repos.NewAssetRepo(gormDB, log)

	// SSE
	hub := sse.NewHub(log)

	// Services
	log.Info("Setting up services...")
	mediaProvider := services.NewAssetMediaProvider(assetRepo)
	assetService := services.NewAssetService(gormDB, log, assetRepo)
	storyService := services.NewStoryService(gormDB, log, unitRepo, projectRepo, mediaProvider, hub)
	projectService := services.NewProjectService(gormDB, log, projectRepo, unitRepo, storyService)

	// Handlers
	projectHandler := handlers.NewProjectHandler(log, projectService, storyService)
	assetHandler := handlers.NewAssetHandler(log, assetService)
	unitHandler := handlers.NewUnitHandler(log, storyService)
	historyHandler := handlers.NewHistoryHandler(log, storyService)
	sseHandler := handlers.NewSSEHandler(log, hub)

	router := server.NewRouter(server.RouterConfig{
		Log:            log,
		AllowedOrigins: cfg.AllowedOrigins,
		ProjectHandler: projectHandler,
		AssetHandler:   assetHandler,
		UnitHandler:    unitHandler,
		HistoryHandler: historyHandler,
		SSEHandler:     sseHandler,
	})

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: router,
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		log.Info("storygraph backend listening", "addr", srv.Addr, "db_driver", cfg.Database.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if otelShutdown != nil {
			if err := otelShutdown(shutdownCtx); err != nil {
				log.Warn("otel shutdown failed", "error", err)
			}
		}
		return srv.Shutdown(shutdownCtx)
	})
	if err := group.Wait(); err != nil {
		log.Fatal("server exited with error", "error", err)
	}
	log.Info("server stopped")
}
