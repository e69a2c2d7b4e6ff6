package main

import (
	"context"
	"flag"

	"nocarchive-service/internal/infrastructure/config"
	"nocarchive-service/internal/infrastructure/persistence"
	ifrepo "nocarchive-service/internal/interface/repository"
	"nocarchive-service/internal/usecase"
	"nocarchive-service/pkg/logger"
)

// Prunes flight change history down to the most recent capture bursts of
// each flight.
func main() {
	keep := flag.Int("keep", 5, "number of capture bursts to keep per flight")
	flag.Parse()

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

	history := usecase.NewHistoryUsecase(ifrepo.NewGormFlightRepository(db), log)
	result, err := history.Prune(context.Background(), *keep)
	if err != nil {
		log.Fatal("Prune failed", "error", err)
	}
	log.Info("Done",
		"flights", result.FlightsTouched,
		"clusters_removed", result.ClustersRemoved,
		"entries_removed", result.EntriesRemoved)
}
