package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"

	summarion "github.com/summarion/summarion"
	"github.com/summarion/summarion/internal/config"
	"github.com/summarion/summarion/internal/errortypes"
	"github.com/summarion/summarion/internal/logger"
)

func main() {
	configPath := flag.String("config", config.DefaultConfigFilename, "path to the configuration file")
	flag.Parse()

	// Initialize logging first thing
	appLogger := setupLogging()

	appLogger.Info("Summarion MCP Server - Starting...")

	// Load configuration
	cfg, err := config.LoadConfigWithPath(*configPath)
	if err != nil {
		errortypes.LogError(nil, err)
		appLogger.Fatal("Failed to load configuration")
	}

	// Configure logging based on config
	if cfg.Logging.Level != "" {
		appLogger.SetLevel(logger.ParseLevel(cfg.Logging.Level))
		appLogger.Info("Log level set to %s", cfg.Logging.Level)
	}

	if cfg.Logging.Format == "json" {
		appLogger.SetFormat(logger.JSON)
		appLogger.Info("Log format set to JSON")
	}

	// Build the service
	srv, err := summarion.NewServer(summarion.ServerOptions{Config: cfg})
	if err != nil {
		errortypes.LogError(nil, err)
		appLogger.Fatal("Failed to initialize Summarion server")
	}
	srvLogger := appLogger.WithContext("server")
	srvLogger.Info("Summarion server initialized")

	// Handle graceful shutdown
	setupSignalHandler(srv, appLogger)

	// Start the MCP server (this will block until server is terminated)
	srvLogger.Info("Starting MCP server...")
	if err := srv.Start(); err != nil {
		errortypes.LogError(nil, errortypes.InternalError(err, "MCP server failed"))
		appLogger.Fatal("Failed to start MCP server")
	}
}

// setupLogging configures and returns the application logger
func setupLogging() *logger.Logger {
	// Create default configuration
	logConfig := logger.DefaultConfig()

	// Try to get log level from environment variable
	if levelStr := os.Getenv("LOG_LEVEL"); levelStr != "" {
		logConfig.Level = logger.ParseLevel(levelStr)
	}

	// Create and return logger
	appLogger := logger.New(logConfig)
	logger.SetDefaultLogger(appLogger)

	return appLogger
}

// setupSignalHandler sets up a signal handler for graceful shutdown.
func setupSignalHandler(srv *summarion.Server, log *logger.Logger) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		log.Info("Received shutdown signal, terminating gracefully...")

		if err := srv.Stop(); err != nil {
			errortypes.LogError(nil, errortypes.InternalError(err, "Error stopping server during shutdown"))
		}

		log.Info("Shutdown complete")
		os.Exit(0)
	}()
}
