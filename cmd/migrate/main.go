package main

import (
	"flag"
	"os"

	"github.com/countrycache/countrycache/internal/config"
	"github.com/countrycache/countrycache/internal/database"
	"github.com/countrycache/countrycache/pkg/logger"
)

func main() {
	direction := flag.String("direction", "up", "migration direction: up or down")
	flag.Parse()

	logger.Init(os.Getenv("LOG_LEVEL"))
	defer logger.Sync()

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	if cfg.Store.Driver != config.DriverPostgres {
		logger.Fatalf("migrations apply to STORE_DRIVER=postgres only (got %q)", cfg.Store.Driver)
	}

	if err := database.Migrate(cfg.Postgres.DSN, *direction); err != nil {
		logger.Fatalf("migrate %s: %v", *direction, err)
	}
	logger.Infof("migrations applied (%s)", *direction)
}
