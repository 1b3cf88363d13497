package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"browsercov/internal"
	"browsercov/internal/config"
	"browsercov/internal/container"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	level := internal.ParseLogLevel(appConfig.Log.Level)
	logger := internal.NewLogger(level)
	if appConfig.Log.File != "" {
		logger = internal.NewFileLogger(level, appConfig.Log.File, 10)
	}
	internal.DefaultLogger = logger

	appContainer, err := container.New(appConfig, logger)
	if err != nil {
		log.Fatalf("Failed to create application container: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := appContainer.Preload(ctx); err != nil {
		log.Fatalf("Failed to load %s: %v", appConfig.Ingest.DataFile, err)
	}

	logger.Info("Browser coverage UI on http://localhost:%s, API on http://localhost:%s",
		appConfig.Server.UIPort, appConfig.Server.APIPort)
	if err := appContainer.Run(ctx); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
