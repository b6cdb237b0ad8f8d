package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"patientcluster/internal/config"
	"patientcluster/internal/container"
	"patientcluster/internal/logger"
	"patientcluster/ui"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	// Load application configuration
	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := logger.Initialize(appConfig.Logging.JSON); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Cleanup()

	gin.SetMode(appConfig.Server.GinMode)

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

	server, err := ui.NewServer(ui.Options{
		SnapshotPath:   appConfig.Export.SnapshotPath,
		MaxUploadBytes: appConfig.Upload.MaxBytes(),
		Recorder:       deps.Recorder,
	})
	if err != nil {
		logger.Logger.Fatalw("failed to create web UI", logger.FieldError, err)
	}

	if err := server.Start(ctx, ":"+appConfig.Server.Port); err != nil {
		logger.Logger.Errorw("web UI stopped", logger.FieldError, err)
	}
}
