package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/fusecms/engine/internal/api"
	"github.com/fusecms/engine/internal/api/handlers"
	"github.com/fusecms/engine/internal/repository"
	"github.com/fusecms/engine/internal/services"
	"github.com/fusecms/engine/pkg/config"
	"github.com/fusecms/engine/pkg/database"
	"github.com/fusecms/engine/pkg/logger"
)

func main() {
	// Load configuration
	cfg := config.MustLoad()

	// Initialize logger
	log, err := logger.Init(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	log.Info("Starting FuseCMS Relation Engine",
		zap.String("env", cfg.AppEnv),
		zap.String("addr", cfg.HTTPAddr),
	)

	// Connect to database
	ctx := context.Background()
	db, err := database.OpenPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	log.Info("Database connected successfully")

	// Event queue client
	asynqClient := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       0,
	})
	defer asynqClient.Close()
	events := services.NewEventPublisher(asynqClient)

	// Repositories
	defRepo := repository.NewDefinitionRepository(db)
	instanceRepo := repository.NewInstanceRepository(db)
	entryRepo := repository.NewEntryRepository(db)

	// Services
	definitionSvc := services.NewDefinitionService(defRepo, entryRepo)
	relationSvc := services.NewRelationService(defRepo, instanceRepo, entryRepo, events)
	commitSvc := services.NewCommitService(defRepo, instanceRepo, entryRepo, events)
	cascadeSvc := services.NewCascadeService(defRepo, instanceRepo, entryRepo, events)
	pickerSvc := services.NewPickerService(defRepo, instanceRepo, entryRepo)

	// Router
	router := api.NewRouter(api.Dependencies{
		DefinitionsHandler: handlers.NewDefinitionsHandler(definitionSvc, pickerSvc),
		RelationsHandler:   handlers.NewRelationsHandler(relationSvc),
		EntriesHandler:     handlers.NewEntriesHandler(commitSvc, cascadeSvc),
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       90 * time.Second,
	}

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		log.Info("HTTP server starting", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("shutdown signal received", zap.String("signal", sig.String()))
	case err := <-errCh:
		log.Error("server error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown error", zap.Error(err))
	} else {
		log.Info("server exited gracefully")
	}
}
