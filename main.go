package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/viper"

	"pintu/internal/config"
	"pintu/internal/server"
	"pintu/pkg/logger"
)

func main() {
	// --- Configuration ---
	// Read configuration from environment variables
	cfg, err := config.Load(viper.New())
	if err != nil {
		logger.New("pintu").Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	appLog := logger.New(cfg.ServiceName)
	appLog.SetLevel(cfg.LogLevel)

	// --- Initialize store, services and HTTP app ---
	rt, err := server.Bootstrap(context.Background(), cfg, appLog)
	if err != nil {
		appLog.Error("Failed to start application", "error", err)
		os.Exit(1)
	}

	// --- Start HTTP Server ---
	appLog.Info("Starting server", "port", cfg.AppPort, "mode", cfg.RunMode)

	// Graceful shutdown handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := rt.App.Listen(cfg.AppPort); err != nil {
			appLog.Error("Server failed to start", "error", err)
			quit <- syscall.SIGTERM
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	<-quit
	appLog.Info("Shutting down server...")

	if err := rt.Shutdown(); err != nil {
		appLog.Error("Error during shutdown", "error", err)
	}
	appLog.Info("Server gracefully stopped")
}
