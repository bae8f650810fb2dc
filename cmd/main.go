package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/yungbote/certifytrack-backend/internal/app"
	"github.com/yungbote/certifytrack-backend/internal/pkg/logger"
)

func main() {
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

	log.Info("Loading configuration...")
	cfg, err := app.LoadConfig(".")
	if err != nil {
		log.Fatal("Invalid configuration", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to init app", "error", err)
	}
	defer a.Close()

	if err := a.Start(); err != nil {
		log.Fatal("Failed to start background jobs", "error", err)
	}
	if err := a.Run(ctx); err != nil {
		log.Error("Server exited", "error", err)
		a.Close()
		os.Exit(1)
	}
	log.Info("Server stopped")
}
