package usecase

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"nocarchive-service/internal/domain/entity"
	"nocarchive-service/internal/domain/repository"
	"nocarchive-service/internal/infrastructure/portal"
	"nocarchive-service/pkg/logger"
	"nocarchive-service/pkg/metrics"
	"nocarchive-service/pkg/utils"
)

// SweepController drives capture sweeps over a window of days. Each day is
// fetched twice, local view first, then UTC. A lost portal session is
// recreated and the day retried once; bad credentials abort the sweep.
type SweepController struct {
	source    portal.BoardSource
	processor *CaptureProcessor
	metaRepo  repository.MetadataRepository
	mirror    *MirrorUsecase
	logger    logger.Logger
	metrics   *metrics.Metrics
}

// NewSweepController creates a new sweep controller
func NewSweepController(
	source portal.BoardSource,
	processor *CaptureProcessor,
	metaRepo repository.MetadataRepository,
	mirror *MirrorUsecase,
	logger logger.Logger,
	m *metrics.Metrics,
) *SweepController {
	return &SweepController{
		source:    source,
		processor: processor,
		metaRepo:  metaRepo,
		mirror:    mirror,
		logger:    logger,
		metrics:   m,
	}
}

// SweepRange captures today plus the following days-1 days. Per-day
// failures mark that day failed and move on; authentication failures abort
// the whole sweep.
func (s *SweepController) SweepRange(ctx context.Context, start time.Time, days int) error {
	started := time.Now()

	if err := s.source.Login(ctx); err != nil {
		s.metrics.SweepsTotal.WithLabelValues("failed").Inc()
		return fmt.Errorf("sweep login: %w", err)
	}

	var firstErr error
	for i := 0; i < days; i++ {
		day := utils.Midnight(start.AddDate(0, 0, i))
		if err := s.SweepDate(ctx, day); err != nil {
			if errors.Is(err, portal.ErrAuthFailed) || ctx.Err() != nil {
				s.metrics.SweepsTotal.WithLabelValues("failed").Inc()
				return err
			}
			s.logger.Error("Sweep day failed", "day", day.Format("2006-01-02"), "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	s.metrics.SweepDuration.Observe(time.Since(started).Seconds())
	if firstErr != nil {
		s.metrics.SweepsTotal.WithLabelValues("partial").Inc()
		return firstErr
	}

	if err := s.metaRepo.Set(ctx, entity.MetaLastSuccessfulSync, time.Now().Format(entity.MetaTimeLayout)); err != nil {
		s.logger.Error("Failed to record sync timestamp", "error", err)
	}
	s.metrics.SweepsTotal.WithLabelValues("success").Inc()
	s.logger.Info("Sweep complete", "days", days, "duration", time.Since(started).String())
	return nil
}

// SweepDate captures one day: local pass then UTC backfill, then the
// per-day sync status row, then the optional cloud mirror for that day.
func (s *SweepController) SweepDate(ctx context.Context, day time.Time) error {
	day = utils.Midnight(day)

	s.upsertStatus(ctx, day, 0, entity.SyncInProgress)

	localHTML, err := s.fetchWithRetry(ctx, day, portal.ModeLocal)
	if err != nil {
		s.upsertStatus(ctx, day, 0, entity.SyncFailed)
		return err
	}
	result, err := s.processor.ProcessLocal(ctx, localHTML, day)
	if err != nil {
		s.upsertStatus(ctx, day, 0, entity.SyncFailed)
		return err
	}

	utcHTML, err := s.fetchWithRetry(ctx, day, portal.ModeUTC)
	if err != nil {
		// The local pass already landed; the day still counts as captured.
		s.logger.Error("UTC fetch failed, keeping local capture", "day", day.Format("2006-01-02"), "error", err)
	} else if err := s.processor.BackfillUTC(ctx, utcHTML, day, result); err != nil {
		s.logger.Error("UTC backfill failed, keeping local capture", "day", day.Format("2006-01-02"), "error", err)
	}

	found := result.Created + result.Updated + result.Unchanged
	s.upsertStatus(ctx, day, found, entity.SyncSuccess)

	if s.mirror != nil && s.cloudSyncEnabled(ctx) {
		if _, err := s.mirror.UploadDay(ctx, day); err != nil {
			s.logger.Error("Cloud mirror upload failed", "day", day.Format("2006-01-02"), "error", err)
		}
	}
	return nil
}

// fetchWithRetry fetches one (day, mode) page, recreating the session and
// retrying once when the portal dropped it.
func (s *SweepController) fetchWithRetry(ctx context.Context, day time.Time, mode portal.Mode) (string, error) {
	html, err := s.source.Fetch(ctx, day, mode)
	if err == nil {
		return html, nil
	}
	if !errors.Is(err, portal.ErrSessionLost) {
		return "", err
	}

	s.logger.Warn("Portal session lost, recreating", "day", day.Format("2006-01-02"), "mode", string(mode))
	if err := s.source.Restart(ctx); err != nil {
		return "", err
	}
	if err := s.source.Login(ctx); err != nil {
		return "", err
	}
	return s.source.Fetch(ctx, day, mode)
}

// cloudSyncEnabled re-reads the live setting so toggling it applies
// without a restart.
func (s *SweepController) cloudSyncEnabled(ctx context.Context) bool {
	v, err := strconv.ParseBool(s.metaRepo.GetOrDefault(ctx, entity.MetaCloudSyncEnabled, "false"))
	return err == nil && v
}

func (s *SweepController) upsertStatus(ctx context.Context, day time.Time, found int, status string) {
	err := s.metaRepo.UpsertSyncStatus(ctx, &entity.DailySyncStatus{
		Date:          day,
		LastScrapedAt: time.Now(),
		FlightsFound:  found,
		Status:        status,
	})
	if err != nil {
		s.logger.Error("Failed to upsert sync status", "day", day.Format("2006-01-02"), "error", err)
	}
}
