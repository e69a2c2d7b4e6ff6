package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"nocarchive-service/internal/infrastructure/config"
	"nocarchive-service/internal/infrastructure/persistence"
	ifrepo "nocarchive-service/internal/interface/repository"
	"nocarchive-service/pkg/logger"
)

// Deletes every captured flight, crew edge, history entry and daily sync
// status. Scheduled legs, IOE assignments and crew identities stay.
func main() {
	confirm := flag.Bool("confirm", false, "actually delete; without this flag nothing happens")
	flag.Parse()

	if !*confirm {
		fmt.Fprintln(os.Stderr, "refusing to delete captured flight data without -confirm")
		os.Exit(1)
	}

	log := logger.NewLogger()
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config", "error", err)
	}

	db, err := persistence.NewDatabase(cfg.DatabaseDSN, cfg.SQLitePath)
	if err != nil {
		log.Fatal("Failed to open entity store", "error", err)
	}
	if err := ifrepo.AutoMigrate(db); err != nil {
		log.Fatal("Failed to migrate entity store", "error", err)
	}

	if err := ifrepo.NewGormFlightRepository(db).PurgeAll(context.Background()); err != nil {
		log.Fatal("Purge failed", "error", err)
	}
	log.Info("Captured flight data cleared")
}
