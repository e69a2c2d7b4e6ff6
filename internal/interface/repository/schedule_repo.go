package repository

import (
	"context"
	"errors"
	"time"

	"nocarchive-service/internal/domain/entity"
	"nocarchive-service/internal/domain/repository"

	"gorm.io/gorm"
)

// GormScheduleRepository implements the ScheduleRepository interface
type GormScheduleRepository struct {
	db *gorm.DB
}

// NewGormScheduleRepository creates a new GORM schedule repository
func NewGormScheduleRepository(db *gorm.DB) repository.ScheduleRepository {
	return &GormScheduleRepository{
		db: db,
	}
}

// ScheduledFlights GORM model for database mapping
type ScheduledFlights struct {
	ID                 uint      `gorm:"primaryKey"`
	PairingNumber      string    `gorm:"column:pairing_number;index"`
	FlightNumber       string    `gorm:"column:flight_number;index"`
	Date               time.Time `gorm:"column:date;index"`
	DepartureAirport   string    `gorm:"column:departure_airport"`
	ArrivalAirport     string    `gorm:"column:arrival_airport"`
	ScheduledDeparture string    `gorm:"column:scheduled_departure"`
	ScheduledArrival   string    `gorm:"column:scheduled_arrival"`
	BlockTime          string    `gorm:"column:block_time"`
	TotalCredit        string    `gorm:"column:total_credit"`
	PairingStartDate   time.Time `gorm:"column:pairing_start_date;index"`
	IsDeadhead         bool      `gorm:"column:is_deadhead"`
}

// TableName overrides the default table name
func (ScheduledFlights) TableName() string {
	return "scheduled_flights"
}

// IOEAssignments GORM model for database mapping
type IOEAssignments struct {
	ID            uint      `gorm:"primaryKey"`
	EmployeeID    string    `gorm:"column:employee_id;index"`
	PairingNumber string    `gorm:"column:pairing_number"`
	StartDate     time.Time `gorm:"column:start_date;index"`
}

// TableName overrides the default table name
func (IOEAssignments) TableName() string {
	return "ioe_assignments"
}

// InsertScheduled bulk-inserts scheduled legs
func (r *GormScheduleRepository) InsertScheduled(ctx context.Context, legs []*entity.ScheduledFlight) error {
	if len(legs) == 0 {
		return nil
	}
	models := make([]ScheduledFlights, 0, len(legs))
	for _, leg := range legs {
		models = append(models, ScheduledFlights{
			PairingNumber:      leg.PairingNumber,
			FlightNumber:       leg.FlightNumber,
			Date:               leg.Date,
			DepartureAirport:   leg.DepartureAirport,
			ArrivalAirport:     leg.ArrivalAirport,
			ScheduledDeparture: leg.ScheduledDeparture,
			ScheduledArrival:   leg.ScheduledArrival,
			BlockTime:          leg.BlockTime,
			TotalCredit:        leg.TotalCredit,
			PairingStartDate:   leg.PairingStartDate,
			IsDeadhead:         leg.IsDeadhead,
		})
	}
	return r.db.WithContext(ctx).CreateInBatches(&models, 200).Error
}

// DeleteAllScheduled removes every scheduled leg, for bulk re-ingestion
func (r *GormScheduleRepository) DeleteAllScheduled(ctx context.Context) (int64, error) {
	result := r.db.WithContext(ctx).Exec("DELETE FROM scheduled_flights")
	return result.RowsAffected, result.Error
}

// LegsByPairingStart matches on the exact pairing instance
func (r *GormScheduleRepository) LegsByPairingStart(ctx context.Context, pairingNumber string, startDate time.Time) ([]*entity.ScheduledFlight, error) {
	var rows []ScheduledFlights
	result := r.db.WithContext(ctx).
		Where("pairing_number = ?", pairingNumber).
		Where("pairing_start_date = ?", startDate).
		Order("date, scheduled_departure").
		Find(&rows)
	if result.Error != nil {
		return nil, result.Error
	}
	return scheduledToEntities(rows), nil
}

// LegsByPairingWindow is the fallback for schedule-data gaps
func (r *GormScheduleRepository) LegsByPairingWindow(ctx context.Context, pairingNumber string, start, end time.Time) ([]*entity.ScheduledFlight, error) {
	var rows []ScheduledFlights
	result := r.db.WithContext(ctx).
		Where("pairing_number = ?", pairingNumber).
		Where("date >= ? AND date <= ?", start, end).
		Order("date, scheduled_departure").
		Find(&rows)
	if result.Error != nil {
		return nil, result.Error
	}
	return scheduledToEntities(rows), nil
}

// FindByFlightDate resolves a bare flight number and date to its
// scheduled leg
func (r *GormScheduleRepository) FindByFlightDate(ctx context.Context, flightNumber string, date time.Time) (*entity.ScheduledFlight, error) {
	var row ScheduledFlights
	err := r.db.WithContext(ctx).
		Where("flight_number = ?", flightNumber).
		Where("date = ?", date).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	e := scheduledToEntity(row)
	return &e, nil
}

// ListScheduledInRange returns legs dated in [start, end)
func (r *GormScheduleRepository) ListScheduledInRange(ctx context.Context, start, end time.Time) ([]*entity.ScheduledFlight, error) {
	var rows []ScheduledFlights
	result := r.db.WithContext(ctx).
		Where("date >= ? AND date < ?", start, end).
		Order("date, scheduled_departure").
		Find(&rows)
	if result.Error != nil {
		return nil, result.Error
	}
	return scheduledToEntities(rows), nil
}

// ListAllScheduled returns every scheduled leg
func (r *GormScheduleRepository) ListAllScheduled(ctx context.Context) ([]*entity.ScheduledFlight, error) {
	var rows []ScheduledFlights
	result := r.db.WithContext(ctx).Order("pairing_number, pairing_start_date, date").Find(&rows)
	if result.Error != nil {
		return nil, result.Error
	}
	return scheduledToEntities(rows), nil
}

// InsertAssignments bulk-inserts IOE assignments
func (r *GormScheduleRepository) InsertAssignments(ctx context.Context, assignments []*entity.IOEAssignment) error {
	if len(assignments) == 0 {
		return nil
	}
	models := make([]IOEAssignments, 0, len(assignments))
	for _, a := range assignments {
		models = append(models, IOEAssignments{
			EmployeeID:    a.EmployeeID,
			PairingNumber: a.PairingNumber,
			StartDate:     a.StartDate,
		})
	}
	return r.db.WithContext(ctx).CreateInBatches(&models, 200).Error
}

// DeleteAllAssignments removes every IOE assignment, for bulk re-ingestion
func (r *GormScheduleRepository) DeleteAllAssignments(ctx context.Context) (int64, error) {
	result := r.db.WithContext(ctx).Exec("DELETE FROM ioe_assignments")
	return result.RowsAffected, result.Error
}

// AssignmentsInRange returns assignments starting in [start, end)
func (r *GormScheduleRepository) AssignmentsInRange(ctx context.Context, start, end time.Time) ([]*entity.IOEAssignment, error) {
	var rows []IOEAssignments
	result := r.db.WithContext(ctx).
		Where("start_date >= ? AND start_date < ?", start, end).
		Order("start_date").
		Find(&rows)
	if result.Error != nil {
		return nil, result.Error
	}
	return assignmentsToEntities(rows), nil
}

// ListAllAssignments returns every IOE assignment
func (r *GormScheduleRepository) ListAllAssignments(ctx context.Context) ([]*entity.IOEAssignment, error) {
	var rows []IOEAssignments
	result := r.db.WithContext(ctx).Order("start_date").Find(&rows)
	if result.Error != nil {
		return nil, result.Error
	}
	return assignmentsToEntities(rows), nil
}

func scheduledToEntity(m ScheduledFlights) entity.ScheduledFlight {
	return entity.ScheduledFlight{
		ID:                 m.ID,
		PairingNumber:      m.PairingNumber,
		FlightNumber:       m.FlightNumber,
		Date:               m.Date,
		DepartureAirport:   m.DepartureAirport,
		ArrivalAirport:     m.ArrivalAirport,
		ScheduledDeparture: m.ScheduledDeparture,
		ScheduledArrival:   m.ScheduledArrival,
		BlockTime:          m.BlockTime,
		TotalCredit:        m.TotalCredit,
		PairingStartDate:   m.PairingStartDate,
		IsDeadhead:         m.IsDeadhead,
	}
}

func scheduledToEntities(rows []ScheduledFlights) []*entity.ScheduledFlight {
	out := make([]*entity.ScheduledFlight, 0, len(rows))
	for i := range rows {
		e := scheduledToEntity(rows[i])
		out = append(out, &e)
	}
	return out
}

func assignmentsToEntities(rows []IOEAssignments) []*entity.IOEAssignment {
	out := make([]*entity.IOEAssignment, 0, len(rows))
	for i := range rows {
		out = append(out, &entity.IOEAssignment{
			ID:            rows[i].ID,
			EmployeeID:    rows[i].EmployeeID,
			PairingNumber: rows[i].PairingNumber,
			StartDate:     rows[i].StartDate,
		})
	}
	return out
}
