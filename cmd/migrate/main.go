package main

import (
	"fmt"
	"os"

	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"

	"github.com/jafarshop/backoffice/internal/config"
	"github.com/jafarshop/backoffice/internal/repository/postgres"
	"github.com/jafarshop/backoffice/migrations"
)

func main() {
	direction := "up"
	if len(os.Args) > 1 {
		direction = os.Args[1]
	}
	if direction != "up" && direction != "down" {
		fmt.Println("Usage: go run cmd/migrate/main.go [up|down]")
		os.Exit(1)
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	db, err := postgres.NewConnection(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	source, err := iofs.New(migrations.FS, ".")
	if err != nil {
		logger.Fatal("Failed to open embedded migrations", zap.Error(err))
	}

	driver, err := migratepg.WithInstance(db, &migratepg.Config{})
	if err != nil {
		logger.Fatal("Failed to create postgres driver", zap.Error(err))
	}

	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		logger.Fatal("Failed to create migrate instance", zap.Error(err))
	}

	logger.Info("Running migrations", zap.String("direction", direction))
	if direction == "up" {
		err = m.Up()
	} else {
		err = m.Down()
	}
	if err == migrate.ErrNoChange {
		logger.Info("No migrations to apply")
		return
	}
	if err != nil {
		logger.Fatal("Migration failed", zap.Error(err))
	}

	version, dirty, err := m.Version()
	if err != nil && err != migrate.ErrNilVersion {
		logger.Fatal("Failed to get migration version", zap.Error(err))
	}
	logger.Info("Migrations completed",
		zap.Uint("version", version),
		zap.Bool("dirty", dirty),
	)
}
