package repository

import (
	"context"
	"time"

	"nocarchive-service/internal/domain/entity"
)

// ScheduleRepository defines the interface for scheduled legs and IOE
// assignments. Scheduled rows are immutable; re-ingestion deletes all rows
// and re-inserts from a fresh file.
type ScheduleRepository interface {
	InsertScheduled(ctx context.Context, legs []*entity.ScheduledFlight) error
	DeleteAllScheduled(ctx context.Context) (int64, error)
	// LegsByPairingStart matches on the exact pairing instance.
	LegsByPairingStart(ctx context.Context, pairingNumber string, startDate time.Time) ([]*entity.ScheduledFlight, error)
	// LegsByPairingWindow is the fallback for schedule-data gaps: any leg of
	// the pairing dated within [start, end].
	LegsByPairingWindow(ctx context.Context, pairingNumber string, start, end time.Time) ([]*entity.ScheduledFlight, error)
	// FindByFlightDate resolves a bare flight number and date back to its
	// scheduled leg. Returns nil, nil when none match.
	FindByFlightDate(ctx context.Context, flightNumber string, date time.Time) (*entity.ScheduledFlight, error)
	ListScheduledInRange(ctx context.Context, start, end time.Time) ([]*entity.ScheduledFlight, error)
	ListAllScheduled(ctx context.Context) ([]*entity.ScheduledFlight, error)

	InsertAssignments(ctx context.Context, assignments []*entity.IOEAssignment) error
	DeleteAllAssignments(ctx context.Context) (int64, error)
	AssignmentsInRange(ctx context.Context, start, end time.Time) ([]*entity.IOEAssignment, error)
	ListAllAssignments(ctx context.Context) ([]*entity.IOEAssignment, error)
}

// MetadataRepository defines the interface for app metadata and per-day
// sync status.
type MetadataRepository interface {
	Get(ctx context.Context, key string) (string, error)
	GetOrDefault(ctx context.Context, key, fallback string) string
	Set(ctx context.Context, key, value string) error

	UpsertSyncStatus(ctx context.Context, status *entity.DailySyncStatus) error
	SyncStatusFor(ctx context.Context, day time.Time) (*entity.DailySyncStatus, error)
	LatestSyncStatus(ctx context.Context) (*entity.DailySyncStatus, error)
}
