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

// Mirrors the full entity store to the cloud document store, or restores
// the entity store from it with -restore.
func main() {
	restore := flag.Bool("restore", false, "restore the entity store from the mirror instead of uploading")
	flag.Parse()

	log := logger.NewLogger()
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config", "error", err)
	}

	ctx := context.Background()

	db, err := persistence.NewDatabase(cfg.DatabaseDSN, cfg.SQLitePath)
	if err != nil {
		log.Fatal("Failed to open entity store", "error", err)
	}
	if err := ifrepo.AutoMigrate(db); err != nil {
		log.Fatal("Failed to migrate entity store", "error", err)
	}

	log.Info("Connecting to MongoDB")
	mongoClient, err := persistence.NewMongoClient(ctx, cfg.MongoURI, cfg.MongoUser, cfg.MongoPassword)
	if err != nil {
		log.Fatal("Failed to connect to MongoDB", "error", err)
	}
	defer mongoClient.Disconnect(ctx)

	mirror := usecase.NewMirrorUsecase(
		ifrepo.NewGormFlightRepository(db),
		ifrepo.NewGormCrewRepository(db),
		ifrepo.NewGormScheduleRepository(db),
		ifrepo.NewGormMetadataRepository(db),
		ifrepo.NewMongoDocumentStore(persistence.GetDatabase(mongoClient, cfg.MongoDB)),
		log,
	)

	var stats *usecase.MirrorStats
	if *restore {
		stats, err = mirror.Restore(ctx)
	} else {
		stats, err = mirror.UploadAll(ctx)
	}
	if err != nil {
		log.Fatal("Mirror run failed", "error", err)
	}
	log.Info("Done",
		"flights", stats.Flights,
		"pairings", stats.Pairings,
		"assignments", stats.Assignments,
		"metadata", stats.Metadata)
}
