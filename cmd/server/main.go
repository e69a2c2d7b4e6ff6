package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync/atomic"
	"syscall"
	"time"

	"nocarchive-service/internal/domain/entity"
	"nocarchive-service/internal/domain/repository"
	"nocarchive-service/internal/infrastructure/config"
	"nocarchive-service/internal/infrastructure/persistence"
	"nocarchive-service/internal/infrastructure/portal"
	ifrepo "nocarchive-service/internal/interface/repository"
	"nocarchive-service/internal/usecase"
	"nocarchive-service/pkg/logger"
	"nocarchive-service/pkg/metrics"
	"nocarchive-service/pkg/utils"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	// Create logger
	log := logger.NewLogger()
	log.Info("Starting NOC Archive Service")

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config", "error", err)
	}

	// Set up context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Set up entity store
	db, err := persistence.NewDatabase(cfg.DatabaseDSN, cfg.SQLitePath)
	if err != nil {
		log.Fatal("Failed to open entity store", "error", err)
	}
	if err := ifrepo.AutoMigrate(db); err != nil {
		log.Fatal("Failed to migrate entity store", "error", err)
	}

	// Set up repositories
	flightRepo := ifrepo.NewGormFlightRepository(db)
	crewRepo := ifrepo.NewGormCrewRepository(db)
	scheduleRepo := ifrepo.NewGormScheduleRepository(db)
	metaRepo := ifrepo.NewGormMetadataRepository(db)

	seedMetadataDefaults(ctx, metaRepo, cfg, log)

	m := metrics.NewMetrics("nocarchive")

	// Set up the optional cloud mirror
	var mirror *usecase.MirrorUsecase
	if cfg.EnableCloudSync {
		log.Info("Connecting to MongoDB")
		mongoClient, err := persistence.NewMongoClient(ctx, cfg.MongoURI, cfg.MongoUser, cfg.MongoPassword)
		if err != nil {
			log.Fatal("Failed to connect to MongoDB", "error", err)
		}
		defer func() {
			if err := mongoClient.Disconnect(context.Background()); err != nil {
				log.Error("MongoDB disconnect error", "error", err)
			}
		}()
		docStore := ifrepo.NewMongoDocumentStore(persistence.GetDatabase(mongoClient, cfg.MongoDB))
		mirror = usecase.NewMirrorUsecase(flightRepo, crewRepo, scheduleRepo, metaRepo, docStore, log)
	}

	// Set up the capture pipeline
	processor := usecase.NewCaptureProcessor(flightRepo, crewRepo, utils.NewBoardParser(log), log, m)
	audit := usecase.NewAuditEngine(flightRepo, scheduleRepo, log)

	var sweeps *usecase.SweepController
	if cfg.PortalBaseURL != "" {
		source := portal.NewClient(cfg.PortalBaseURL, cfg.PortalUsername, cfg.PortalPassword, log)
		sweeps = usecase.NewSweepController(source, processor, metaRepo, mirror, log, m)

		scheduler := usecase.NewScheduler(sweeps, metaRepo, cfg.ScrapeIntervalHours, cfg.ScrapeDays, log)
		go scheduler.Run(ctx)
	} else {
		log.Warn("No portal configured, capture sweeps disabled")
	}

	// Set up HTTP server
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("Healthy"))
	})
	mux.HandleFunc("/status", statusHandler(cfg, metaRepo, log))
	mux.HandleFunc("/sync", syncHandler(ctx, cfg, sweeps, log))
	mux.HandleFunc("/audit", auditHandler(audit, log))

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      mux,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	// Start HTTP server in a goroutine
	go func() {
		log.Info("Starting HTTP server", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server error", "error", err)
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	log.Info("Received signal", "signal", sig)

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", "error", err)
	}

	cancel()
	log.Info("NOC Archive Service stopped")
}

// seedMetadataDefaults writes the configured scheduling defaults into app
// metadata so operators can edit them at runtime. Existing values win.
func seedMetadataDefaults(ctx context.Context, metaRepo repository.MetadataRepository, cfg *config.Config, log logger.Logger) {
	defaults := map[string]string{
		entity.MetaScrapeIntervalHours: strconv.Itoa(cfg.ScrapeIntervalHours),
		entity.MetaScrapeDays:          strconv.Itoa(cfg.ScrapeDays),
		entity.MetaCloudSyncEnabled:    strconv.FormatBool(cfg.EnableCloudSync),
	}
	for key, value := range defaults {
		if metaRepo.GetOrDefault(ctx, key, "") != "" {
			continue
		}
		if err := metaRepo.Set(ctx, key, value); err != nil {
			log.Error("Failed to seed metadata default", "key", key, "error", err)
		}
	}
}

func statusHandler(cfg *config.Config, metaRepo repository.MetadataRepository, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		payload := map[string]interface{}{
			"version":              cfg.AppVersion,
			"last_successful_sync": metaRepo.GetOrDefault(ctx, entity.MetaLastSuccessfulSync, ""),
			"next_scheduled_sync":  metaRepo.GetOrDefault(ctx, entity.MetaNextScheduledScrape, ""),
		}
		if latest, err := metaRepo.LatestSyncStatus(ctx); err != nil {
			log.Error("Failed to read sync status", "error", err)
		} else if latest != nil {
			payload["latest_day"] = latest.Date.Format("2006-01-02")
			payload["latest_day_status"] = latest.Status
			payload["latest_day_flights"] = latest.FlightsFound
		}
		writeJSON(w, http.StatusOK, payload)
	}
}

// syncHandler triggers an immediate sweep. Only one manual sweep runs at a
// time; overlapping requests are rejected.
func syncHandler(appCtx context.Context, cfg *config.Config, sweeps *usecase.SweepController, log logger.Logger) http.HandlerFunc {
	var running atomic.Bool
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if sweeps == nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{"error": "no portal configured"})
			return
		}
		var singleDay *time.Time
		if v := r.URL.Query().Get("date"); v != "" {
			day, err := time.ParseInLocation("2006-01-02", v, time.UTC)
			if err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]interface{}{"error": "date must be YYYY-MM-DD"})
				return
			}
			singleDay = &day
		}
		if !running.CompareAndSwap(false, true) {
			writeJSON(w, http.StatusConflict, map[string]interface{}{"error": "sweep already running"})
			return
		}
		go func() {
			defer running.Store(false)
			var err error
			if singleDay != nil {
				err = sweeps.SweepRange(appCtx, *singleDay, 1)
			} else {
				err = sweeps.SweepRange(appCtx, time.Now(), cfg.ScrapeDays)
			}
			if err != nil {
				log.Error("Manual sweep failed", "error", err)
			}
		}()
		writeJSON(w, http.StatusAccepted, map[string]interface{}{"status": "sweep started"})
	}
}

func auditHandler(audit *usecase.AuditEngine, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		now := time.Now()
		year, month := utils.CurrentBidPeriod(now)
		if v := r.URL.Query().Get("year"); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				year = n
			}
		}
		if v := r.URL.Query().Get("month"); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				month = n
			}
		}

		report, err := audit.Run(r.Context(), year, month, now)
		if err != nil {
			log.Error("Audit run failed", "error", err)
			writeJSON(w, http.StatusInternalServerError, map[string]interface{}{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, report)
	}
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}
