package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/jafarshop/backoffice/internal/api"
	"github.com/jafarshop/backoffice/internal/carrier"
	"github.com/jafarshop/backoffice/internal/config"
	"github.com/jafarshop/backoffice/internal/domain"
	"github.com/jafarshop/backoffice/internal/logger"
	"github.com/jafarshop/backoffice/internal/repository"
	"github.com/jafarshop/backoffice/internal/repository/memory"
	"github.com/jafarshop/backoffice/internal/repository/postgres"
	"github.com/jafarshop/backoffice/internal/service"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.NewForEnvironment(cfg.Environment, cfg.LogLevel)
	defer log.Sync()

	repos, cleanup, err := openRepositories(cfg, log)
	if err != nil {
		log.Fatal("Failed to open storage", zap.Error(err))
	}
	defer cleanup()

	sessions, closeSessions, err := openSessionCache(cfg, log)
	if err != nil {
		log.Fatal("Failed to connect to redis", zap.Error(err))
	}
	defer closeSessions()

	client := carrier.NewClient(cfg.Carrier, sessions, log)
	locations := domain.ParsePickupLocations(cfg.Fulfillment.PickupLocations)

	orders := service.NewOrderService(repos, cfg.Fulfillment.Timezone, log)
	shipments := service.NewShipmentService(client, repos, locations, log)
	bulk := service.NewBulkService(orders, shipments, repos, log)

	router := api.NewRouter(cfg, repos, api.Services{
		Orders:    orders,
		Shipments: shipments,
		Bulk:      bulk,
	}, log)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 2 * time.Minute,
	}

	go func() {
		log.Info("Server starting",
			zap.String("port", cfg.Port),
			zap.String("storage", cfg.StorageDriver),
			zap.Int("pickup_locations", len(locations)),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	log.Info("Server exited")
}

func openRepositories(cfg *config.Config, log *zap.Logger) (*repository.Repositories, func(), error) {
	if cfg.StorageDriver == "memory" {
		repos := memory.NewRepositories()
		if cfg.BootstrapAPIKey != "" {
			hash, err := bcrypt.GenerateFromPassword([]byte(cfg.BootstrapAPIKey), 10)
			if err != nil {
				return nil, nil, fmt.Errorf("failed to hash bootstrap key: %w", err)
			}
			operator := &domain.Operator{Name: "bootstrap", APIKeyHash: string(hash), IsActive: true}
			if err := repos.Operator.Create(context.Background(), operator); err != nil {
				return nil, nil, err
			}
		}
		log.Warn("Using in-memory storage, data is lost on restart")
		return repos, func() {}, nil
	}

	db, err := postgres.NewConnection(cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	return postgres.NewRepositories(db, log), func() { db.Close() }, nil
}

func openSessionCache(cfg *config.Config, log *zap.Logger) (carrier.SessionCache, func(), error) {
	if !cfg.Redis.Enabled() {
		return carrier.NewInMemorySessionCache(), func() {}, nil
	}

	cache, err := carrier.NewRedisSessionCache(cfg.Redis)
	if err != nil {
		return nil, nil, err
	}
	log.Info("Carrier sessions cached in redis", zap.String("host", cfg.Redis.Host))
	return cache, func() { cache.Close() }, nil
}
