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

	"github.com/AxelPerrin/TP-ADMINISTRATION-BDD/internal/app"
	httpDelivery "github.com/AxelPerrin/TP-ADMINISTRATION-BDD/internal/delivery/http"
	"github.com/AxelPerrin/TP-ADMINISTRATION-BDD/internal/infrastructure/persistence"
	"github.com/AxelPerrin/TP-ADMINISTRATION-BDD/internal/usecase"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, log, err := app.Bootstrap()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer log.Sync()

	log.Info("Starting Open Food Facts API",
		"environment", cfg.Server.Environment,
		"port", cfg.Server.Port,
		"database", cfg.Database.Driver,
		"cache", cfg.Cache.Type,
		"cache_ttl", cfg.Cache.TTL,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := app.OpenDatabase(cfg, log)
	if err != nil {
		log.Error("Failed to open database", "error", err)
		return 1
	}
	defer app.CloseDatabase(db, log)

	sqlDB, err := db.DB()
	if err != nil {
		log.Error("Failed to get database handle", "error", err)
		return 1
	}

	responseCache, err := app.NewCache(ctx, cfg.Cache)
	if err != nil {
		log.Error("Failed to initialize cache", "error", err)
		return 1
	}
	defer responseCache.Close()

	catalogService := usecase.NewCatalogService(
		persistence.NewCatalogRepository(db),
		responseCache,
		log,
		usecase.CatalogServiceConfig{CacheTTL: cfg.Cache.TTL},
	)

	handler := httpDelivery.NewHandler(catalogService, persistence.NewHealthChecker(sqlDB, 2*time.Second), log)
	router := httpDelivery.SetupRouter(cfg, handler, log)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("Server listening", "addr", srv.Addr)
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			log.Error("Server stopped", "error", err)
			return 1
		}
		return 0
	case <-ctx.Done():
	}

	log.Info("Shutting down", "grace", cfg.Server.ShutdownGrace)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownGrace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Graceful shutdown failed", "error", err)
		return 1
	}
	return 0
}
