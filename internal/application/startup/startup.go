// Package startup prepares the application server
package startup

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kirtipatel215/IMS-sub000/internal/application/container"
	"github.com/kirtipatel215/IMS-sub000/internal/infrastructure/observability/logging"
	"github.com/kirtipatel215/IMS-sub000/internal/infrastructure/security"
	"github.com/kirtipatel215/IMS-sub000/internal/presentation/http/server"
	"github.com/kirtipatel215/IMS-sub000/pkg/config"
)

// Initialize performs the complete startup sequence and blocks until a
// shutdown signal arrives.
func Initialize() error {
	setupLogging()

	start := time.Now().UTC()

	log.Println("Starting internship portal backend...")

	// Step 1: Channeled logger
	logger, err := logging.NewChanneledLogger(&logging.LoggerConfig{
		OutputToFile:    config.LogToFile,
		OutputToConsole: true,
		LogDirectory:    config.LogDirectory,
		JSONFormat:      config.LogJSONFormat,
		DefaultLevel:    defaultLogLevel(),
		ChannelLevels:   make(map[logging.Channel]slog.Level),
	})
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logger.Close()

	logger.LogStartupPhase("logging", time.Since(start), true, nil)

	// Step 2: Session token secret. A generated secret invalidates sessions
	// on restart, which is acceptable for a dev setup but logged loudly.
	if config.JWTSecret == "" {
		secret, err := security.GenerateSecureKey(32)
		if err != nil {
			return fmt.Errorf("failed to generate session secret: %w", err)
		}
		config.JWTSecret = secret
		logger.Startup().Warn("JWT_SECRET not set, generated an ephemeral secret for this run")
	}

	// Step 3: Dependency injection container
	containerStart := time.Now()
	appContainer, err := container.NewContainer(logger)
	if err != nil {
		return fmt.Errorf("failed to build container: %w", err)
	}
	defer appContainer.Close()

	logger.LogStartupPhase("container", time.Since(containerStart), true,
		map[string]any{"degraded": appContainer.Degraded})

	// Step 4: Invalidation hub
	go appContainer.Broadcaster.Run()
	logger.Startup().Info("Invalidation hub started")

	// Step 5: HTTP server
	serverStart := time.Now()
	httpServer := server.New(config.Port, appContainer)
	logger.LogStartupPhase("http-server", time.Since(serverStart), true,
		map[string]any{"port": config.Port})

	gracefulShutdown := make(chan os.Signal, 1)
	signal.Notify(gracefulShutdown, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.System().Info("Starting HTTP server", "address", ":"+config.Port)
		if err := httpServer.Start(); err != nil {
			logger.System().Error("HTTP server failed", "error", err.Error())
		}
	}()

	logger.Startup().Info("Application startup complete",
		"totalDuration", time.Since(start),
		"degraded", appContainer.Degraded,
		"port", config.Port)

	<-gracefulShutdown
	logger.Shutdown().Info("Shutdown signal received, starting graceful shutdown...")

	shutdownStart := time.Now()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Stop(shutdownCtx); err != nil {
		logger.Shutdown().Error("Error during server shutdown", "error", err.Error())
	} else {
		logger.Shutdown().Info("HTTP server stopped successfully")
	}

	logger.Shutdown().Info("Application shutdown complete",
		"totalUptime", time.Since(start),
		"shutdownDuration", time.Since(shutdownStart))

	return nil
}

// setupLogging configures application logging
func setupLogging() {
	if os.Getenv("GIN_MODE") == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	log.SetFlags(log.LstdFlags | log.Lshortfile)
}

func defaultLogLevel() slog.Level {
	if config.VerboseLogging {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}
