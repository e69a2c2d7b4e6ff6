package usecase

import (
	"context"
	"strconv"
	"time"

	"nocarchive-service/internal/domain/entity"
	"nocarchive-service/internal/domain/repository"
	"nocarchive-service/pkg/logger"
)

// pollInterval bounds how stale a metadata-driven schedule change can be.
const pollInterval = 5 * time.Minute

// Scheduler runs sweeps on the interval stored in app metadata. The
// interval, the window size and the next-due timestamp are re-read every
// poll, so operators can change them at runtime through the metadata table.
type Scheduler struct {
	sweeps          *SweepController
	metaRepo        repository.MetadataRepository
	defaultInterval int
	defaultDays     int
	logger          logger.Logger
}

// NewScheduler creates a new sweep scheduler
func NewScheduler(
	sweeps *SweepController,
	metaRepo repository.MetadataRepository,
	defaultIntervalHours, defaultDays int,
	logger logger.Logger,
) *Scheduler {
	return &Scheduler{
		sweeps:          sweeps,
		metaRepo:        metaRepo,
		defaultInterval: defaultIntervalHours,
		defaultDays:     defaultDays,
		logger:          logger,
	}
}

// Run blocks until ctx is cancelled, sweeping whenever the stored
// next-due timestamp has passed.
func (s *Scheduler) Run(ctx context.Context) {
	s.tick(ctx, time.Now())

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Scheduler stopped")
			return
		case now := <-ticker.C:
			s.tick(ctx, now)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context, now time.Time) {
	next, ok := s.nextDue(ctx)
	if ok && now.Before(next) {
		return
	}

	days := s.intSetting(ctx, entity.MetaScrapeDays, s.defaultDays)
	if err := s.sweeps.SweepRange(ctx, now, days); err != nil {
		s.logger.Error("Scheduled sweep failed", "error", err)
	}

	interval := s.intSetting(ctx, entity.MetaScrapeIntervalHours, s.defaultInterval)
	next = now.Add(time.Duration(interval) * time.Hour)
	if err := s.metaRepo.Set(ctx, entity.MetaNextScheduledScrape, next.Format(entity.MetaTimeLayout)); err != nil {
		s.logger.Error("Failed to store next sweep time", "error", err)
	}
	s.logger.Info("Next sweep scheduled", "at", next.Format(entity.MetaTimeLayout))
}

// nextDue reads the stored next-sweep timestamp. A missing or malformed
// value means a sweep is due now.
func (s *Scheduler) nextDue(ctx context.Context) (time.Time, bool) {
	raw := s.metaRepo.GetOrDefault(ctx, entity.MetaNextScheduledScrape, "")
	if raw == "" {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation(entity.MetaTimeLayout, raw, time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func (s *Scheduler) intSetting(ctx context.Context, key string, fallback int) int {
	n, err := strconv.Atoi(s.metaRepo.GetOrDefault(ctx, key, strconv.Itoa(fallback)))
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
