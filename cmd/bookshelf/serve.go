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

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"bookshelf/internal/catalog"
	"bookshelf/internal/delivery/rest"
	"bookshelf/internal/delivery/ui"
	"bookshelf/internal/events"
	"bookshelf/internal/service"
	"bookshelf/internal/storage"
	"bookshelf/internal/telemetry"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the web server (default)",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	// 1. Setup Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if !verbose {
		gin.SetMode(gin.ReleaseMode)
	}

	metrics, err := telemetry.NewProvider(ctx, cfg.Telemetry, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		if err := metrics.Shutdown(context.Background()); err != nil {
			logger.Warn("telemetry shutdown failed", zap.Error(err))
		}
	}()

	// 2. Initialize storage
	bookStore, highlightStore, closeStore, err := openStorage(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	// 3. Initialize Components
	logger.Info("Initializing components...")
	broker := events.NewBroker(64)
	defer broker.Close()
	client := catalog.NewClient(cfg.Catalog, logger)

	// 4. Initialize The Engine
	coreService := service.NewService(*cfg, client, bookStore, highlightStore, broker, logger)

	// 5. Start the Engine in the background
	go func() {
		if err := coreService.Start(ctx); err != nil {
			logger.Error("Core service error", zap.Error(err))
			cancel() // Trigger shutdown on critical service error
		}
	}()

	// 6. Initialize and Start the HTTP Server
	server := rest.NewServer(cfg.Server.Port, coreService, logger, ui.NewHandlers(coreService, logger))
	serverErr := make(chan error, 1)
	go func() {
		logger.Info("HTTP server starting", zap.String("port", cfg.Server.Port))
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// 7. Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	var runErr error
	select {
	case <-quit:
		logger.Info("Shutdown signal received. Shutting down gracefully...")
	case err := <-serverErr:
		runErr = fmt.Errorf("http server failed: %w", err)
	case <-ctx.Done():
		runErr = errors.New("core service stopped unexpectedly")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Stop(shutdownCtx); err != nil {
		logger.Warn("Error during HTTP server shutdown", zap.Error(err))
	}

	coreService.Stop()
	cancel()

	logger.Info("Server shut down.")
	return runErr
}

// openStorage connects to MongoDB when database.uri is set and falls back to
// in-memory stores otherwise.
func openStorage(ctx context.Context) (service.BookStorage, service.HighlightStorage, func(), error) {
	if cfg.Database.URI == "" {
		logger.Info("No database configured, using in-memory storage")
		return storage.NewMemoryBookStorage(), storage.NewMemoryHighlightStorage(), func() {}, nil
	}

	logger.Info("Connecting to MongoDB...", zap.String("database", cfg.Database.Name))
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Database.URI))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, nil, fmt.Errorf("failed to reach MongoDB: %w", err)
	}

	db := client.Database(cfg.Database.Name)
	closeFn := func() {
		if err := client.Disconnect(context.Background()); err != nil {
			logger.Warn("MongoDB disconnect failed", zap.Error(err))
		}
	}
	return storage.NewMongoBookStorage(db, cfg.Database.Collection),
		storage.NewMongoHighlightStorage(db, cfg.Database.HighlightCollection),
		closeFn, nil
}
