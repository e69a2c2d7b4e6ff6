package repository

import (
	"context"
	"time"

	"nocarchive-service/internal/domain/entity"
)

// FlightRepository defines the interface for captured-flight operations
type FlightRepository interface {
	// FindByKey matches on (flight_number, date), refined by the route
	// airports when both are supplied. Returns nil, nil when no row matches.
	FindByKey(ctx context.Context, flightNumber string, date time.Time, depAirport, arrAirport string) (*entity.Flight, error)

	// FindByAliases returns the first flight on the given date whose number
	// is any of the candidates. Returns nil, nil when none match.
	FindByAliases(ctx context.Context, candidates []string, date time.Time) (*entity.Flight, error)

	Create(ctx context.Context, flight *entity.Flight) error
	Update(ctx context.Context, flight *entity.Flight) error
	UpdateUTCTimes(ctx context.Context, flightID uint, scheduledDep, scheduledArr *time.Time) error

	// ReplaceCrew atomically deletes every crew edge of the flight and
	// inserts the given set.
	ReplaceCrew(ctx context.Context, flightID uint, crew []entity.CrewAssignment) error
	CrewOnBoard(ctx context.Context, flightID uint) ([]entity.CrewOnBoard, error)

	ListByDateRange(ctx context.Context, start, end time.Time) ([]*entity.Flight, error)
	ListAll(ctx context.Context) ([]*entity.Flight, error)
	CountByDate(ctx context.Context, day time.Time) (int64, error)

	AppendHistory(ctx context.Context, h *entity.FlightHistory) error
	HistoryForFlight(ctx context.Context, flightID uint) ([]*entity.FlightHistory, error)
	// ListHistory returns all history entries, most recent first.
	ListHistory(ctx context.Context) ([]*entity.FlightHistory, error)
	DeleteHistoryByIDs(ctx context.Context, ids []uint) (int64, error)

	// PurgeAll removes every flight, crew edge, history entry and daily
	// sync-status row. Crew identities and schedules are left intact.
	PurgeAll(ctx context.Context) error
}

// CrewRepository defines the interface for crew identity operations
type CrewRepository interface {
	// FindOrCreate dedupes by employee ID, falling back to name when the
	// employee ID is empty.
	FindOrCreate(ctx context.Context, employeeID, name string) (*entity.CrewMember, error)
	FindByEmployeeID(ctx context.Context, employeeID string) (*entity.CrewMember, error)
	FindByID(ctx context.Context, id uint) (*entity.CrewMember, error)
}
