package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/sellerbridge/marketsync/internal/config"
	"github.com/sellerbridge/marketsync/internal/db"
	"github.com/sellerbridge/marketsync/internal/importer"
	"github.com/sellerbridge/marketsync/internal/logging"
	appmiddleware "github.com/sellerbridge/marketsync/internal/middleware"
	"github.com/sellerbridge/marketsync/internal/repository"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load(".")
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	conn, err := db.NewConnection(ctx, cfg.Database)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer conn.Close()

	if err := db.RunMigrations(cfg.Database, "./migrations"); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	listingRepo := repository.NewListingRepository(conn.Pool)
	orderRepo := repository.NewOrderRepository(conn.Pool)
	runRepo := repository.NewSyncRunRepository(conn.Pool)
	logRepo := repository.NewImportLogRepository(conn.Pool)

	artifacts, err := importer.NewArtifactStore(
		cfg.Import.IncomingDir,
		cfg.Import.ProcessedDir,
		cfg.Import.ErrorDir,
	)
	if err != nil {
		slog.Error("failed to prepare artifact directories", "error", err)
		os.Exit(1)
	}

	service := importer.NewService(listingRepo, orderRepo, runRepo, logRepo, artifacts, importer.Options{
		MaxRows:     cfg.Import.MaxRows,
		MaxFileSize: cfg.Import.MaxFileSize,
		ChunkSize:   cfg.Import.ChunkSize,
		Workers:     cfg.Import.Workers,
		RunTimeout:  cfg.Import.RunTimeout,
	})
	handler := importer.NewHandler(service, cfg.Import.MaxFileSize)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
	})

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(appmiddleware.RequestLogger)
	r.Use(corsHandler.Handler)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Route("/api", handler.Register)

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		slog.Info("starting server", "addr", cfg.Server.Addr())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server exited")
}
