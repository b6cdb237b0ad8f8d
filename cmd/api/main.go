package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"patientcluster/internal/api"
	"patientcluster/internal/config"
	"patientcluster/internal/container"
	"patientcluster/internal/logger"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := logger.Initialize(appConfig.Logging.JSON); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps, err := container.New(appConfig)
	if err != nil {
		logger.Logger.Fatalw("failed to create container", logger.FieldError, err)
	}
	if err := deps.Connect(ctx); err != nil {
		logger.Logger.Fatalw("failed to initialize database", logger.FieldError, err)
	}
	defer deps.Close()

	srv := &http.Server{
		Addr: ":" + appConfig.API.Port,
		Handler: api.NewServer(api.Config{
			SnapshotPath:   appConfig.Export.SnapshotPath,
			MaxUploadBytes: appConfig.Upload.MaxBytes(),
			Recorder:       deps.Recorder,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Logger.Warnw("API shutdown failed", logger.FieldError, err)
		}
	}()

	logger.Logger.Infow("JSON API listening", logger.FieldAddress, srv.Addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Logger.Errorw("JSON API stopped", logger.FieldError, err)
	}
}
