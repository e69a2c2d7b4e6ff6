package main

import (
	"context"
	"flag"

	"nocarchive-service/internal/infrastructure/config"
	"nocarchive-service/internal/infrastructure/persistence"
	ifrepo "nocarchive-service/internal/interface/repository"
	"nocarchive-service/internal/usecase"
	"nocarchive-service/pkg/logger"
	"nocarchive-service/pkg/metrics"
	"nocarchive-service/pkg/utils"
)

// Loads pairing-schedule and IOE-assignment text reports into the entity
// store, replacing whatever the previous ingestion loaded.
func main() {
	var (
		pairingsDir = flag.String("pairings", "", "directory of pairing report .txt files (default from config)")
		ioeDir      = flag.String("ioe", "", "directory of IOE assignment .txt files (default from config)")
	)
	flag.Parse()

	log := logger.NewLogger()
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config", "error", err)
	}
	if *pairingsDir == "" {
		*pairingsDir = cfg.PairingsDir
	}
	if *ioeDir == "" {
		*ioeDir = cfg.IOEDir
	}

	db, err := persistence.NewDatabase(cfg.DatabaseDSN, cfg.SQLitePath)
	if err != nil {
		log.Fatal("Failed to open entity store", "error", err)
	}
	if err := ifrepo.AutoMigrate(db); err != nil {
		log.Fatal("Failed to migrate entity store", "error", err)
	}

	ingest := usecase.NewIngestUsecase(
		ifrepo.NewGormScheduleRepository(db),
		utils.NewPairingParser(log),
		utils.NewIOEParser(log),
		log,
		metrics.NewMetrics("nocarchive_ingest"),
	)

	stats, err := ingest.IngestAll(context.Background(), *pairingsDir, *ioeDir)
	if err != nil {
		log.Fatal("Ingestion failed", "error", err)
	}
	log.Info("Done",
		"pairing_files", stats.PairingFiles,
		"blocks", stats.PairingBlocks,
		"legs", stats.ScheduledLegs,
		"ioe_files", stats.IOEFiles,
		"assignments", stats.Assignments)
}
