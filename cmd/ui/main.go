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

// Serves only the HTML front end on UI_PORT
func main() {
	_ = godotenv.Load()

	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logger := internal.NewLogger(internal.ParseLogLevel(appConfig.Log.Level))

	c, err := container.New(appConfig, logger)
	if err != nil {
		log.Fatal("Failed to create UI app:", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := c.Preload(ctx); err != nil {
		log.Fatal("Failed to load data file:", err)
	}
	if err := c.Serve(ctx, c.UIHTTPServer()); err != nil {
		log.Fatal("Server failed:", err)
	}
}
