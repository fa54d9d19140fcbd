package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/castral/stocktake/internal/config"
	"github.com/castral/stocktake/internal/domain/agent"
	"github.com/castral/stocktake/internal/domain/stock"
	"github.com/castral/stocktake/internal/domain/submission"
	"github.com/castral/stocktake/internal/sqlite"
	"github.com/castral/stocktake/internal/transport"
)

func main() {
	// Optional .env for local development
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Log.Level),
	}))

	// Mobile clients expect plain JSON numbers for quantities
	decimal.MarshalJSONWithoutQuotes = true

	if err := ensureDBDir(cfg.DB.Path); err != nil {
		logger.Error("failed to prepare database path", "error", err)
		os.Exit(1)
	}

	db, err := sqlite.New(cfg.DB.Path)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.RunMigrations(); err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	agentRepo := sqlite.NewAgentRepository(db)
	projectRepo := sqlite.NewProjectRepository(db)
	rackRepo := sqlite.NewRackRepository(db)
	locationRepo := sqlite.NewLocationRepository(db)
	lotRepo := sqlite.NewLotRepository(db)
	quantRepo := sqlite.NewQuantRepository(db)
	submissionRepo := sqlite.NewSubmissionRepository(db)
	scanLineRepo := sqlite.NewScanLineRepository(db)

	agentSvc := agent.NewService(agentRepo, projectRepo, rackRepo, logger)
	stockSvc := stock.NewService(lotRepo, locationRepo, quantRepo, scanLineRepo, logger)
	submissionSvc := submission.NewService(submissionRepo, scanLineRepo, lotRepo, projectRepo, quantRepo, logger)

	router := transport.NewServer(agentSvc, submissionSvc, stockSvc, logger)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	httpServer := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		logger.Info("server listening", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
		}
	}()

	waitForShutdown(logger, httpServer)
}

func ensureDBDir(path string) error {
	if path == ":memory:" || path == "" {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func waitForShutdown(logger *slog.Logger, server *http.Server) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	logger.Info("shutting down")
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
