package repository

import (
	"context"
	"errors"
	"time"

	"nocarchive-service/internal/domain/entity"
	"nocarchive-service/internal/domain/repository"

	"gorm.io/gorm"
)

// GormFlightRepository implements the FlightRepository interface
type GormFlightRepository struct {
	db *gorm.DB
}

// NewGormFlightRepository creates a new GORM flight repository
func NewGormFlightRepository(db *gorm.DB) repository.FlightRepository {
	return &GormFlightRepository{
		db: db,
	}
}

// Flights GORM model for database mapping
type Flights struct {
	ID           uint      `gorm:"primaryKey"`
	FlightNumber string    `gorm:"column:flight_number;index"`
	Date         time.Time `gorm:"column:date;index"`

	ScheduledDeparture *time.Time `gorm:"column:scheduled_departure"`
	ScheduledArrival   *time.Time `gorm:"column:scheduled_arrival"`
	ActualDeparture    *time.Time `gorm:"column:actual_departure"`
	ActualArrival      *time.Time `gorm:"column:actual_arrival"`

	ScheduledDepartureUTC *time.Time `gorm:"column:scheduled_departure_utc"`
	ScheduledArrivalUTC   *time.Time `gorm:"column:scheduled_arrival_utc"`
	ActualDepartureUTC    *time.Time `gorm:"column:actual_departure_utc"`
	ActualArrivalUTC      *time.Time `gorm:"column:actual_arrival_utc"`

	STARaw           string `gorm:"column:sta_raw"`
	TailNumber       string `gorm:"column:tail_number"`
	DepartureAirport string `gorm:"column:departure_airport"`
	ArrivalAirport   string `gorm:"column:arrival_airport"`
	AircraftType     string `gorm:"column:aircraft_type"`
	Version          string `gorm:"column:version"`
	Status           string `gorm:"column:status"`

	PaxData   string `gorm:"column:pax_data"`
	LoadData  string `gorm:"column:load_data"`
	NotesData string `gorm:"column:notes_data"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName overrides the default table name
func (Flights) TableName() string {
	return "flights"
}

// FlightCrew GORM model for the flight<->crew association edge
type FlightCrew struct {
	FlightID uint   `gorm:"column:flight_id;primaryKey"`
	CrewID   uint   `gorm:"column:crew_id;primaryKey"`
	Role     string `gorm:"column:role"`
	Flags    string `gorm:"column:flags"`
}

// TableName overrides the default table name
func (FlightCrew) TableName() string {
	return "flight_crew"
}

// FlightHistories GORM model for the append-only change log
type FlightHistories struct {
	ID          uint      `gorm:"primaryKey"`
	FlightID    uint      `gorm:"column:flight_id;index"`
	Timestamp   time.Time `gorm:"column:timestamp"`
	Changes     string    `gorm:"column:changes_json"`
	Description string    `gorm:"column:description"`
}

// TableName overrides the default table name
func (FlightHistories) TableName() string {
	return "flight_history"
}

// FindByKey matches on (flight_number, date), refined by route airports
// when both are supplied
func (r *GormFlightRepository) FindByKey(ctx context.Context, flightNumber string, date time.Time, depAirport, arrAirport string) (*entity.Flight, error) {
	var rows []Flights
	result := r.db.WithContext(ctx).
		Where("flight_number = ?", flightNumber).
		Where("date = ?", date).
		Find(&rows)
	if result.Error != nil {
		return nil, result.Error
	}
	if len(rows) == 0 {
		return nil, nil
	}

	// Same flight number can serve two route legs on one day; only the
	// airports disambiguate them.
	if depAirport != "" && arrAirport != "" {
		for i := range rows {
			if rows[i].DepartureAirport == depAirport && rows[i].ArrivalAirport == arrAirport {
				return flightToEntity(&rows[i]), nil
			}
		}
		if len(rows) > 1 {
			return nil, nil
		}
		// Single candidate missing route data is still the same flight.
		if rows[0].DepartureAirport == "" || rows[0].ArrivalAirport == "" {
			return flightToEntity(&rows[0]), nil
		}
		return nil, nil
	}

	return flightToEntity(&rows[0]), nil
}

// FindByAliases returns the first flight on the date whose number is any
// of the candidates
func (r *GormFlightRepository) FindByAliases(ctx context.Context, candidates []string, date time.Time) (*entity.Flight, error) {
	var row Flights
	result := r.db.WithContext(ctx).
		Where("flight_number IN ?", candidates).
		Where("date = ?", date).
		First(&row)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return flightToEntity(&row), nil
}

// Create inserts a new flight
func (r *GormFlightRepository) Create(ctx context.Context, flight *entity.Flight) error {
	model := flightToModel(flight)
	result := r.db.WithContext(ctx).Create(model)
	if result.Error != nil {
		return result.Error
	}
	flight.ID = model.ID
	flight.CreatedAt = model.CreatedAt
	flight.UpdatedAt = model.UpdatedAt
	return nil
}

// Update saves all scalar fields of an existing flight
func (r *GormFlightRepository) Update(ctx context.Context, flight *entity.Flight) error {
	model := flightToModel(flight)
	return r.db.WithContext(ctx).Save(model).Error
}

// UpdateUTCTimes overwrites only the UTC time-pair fields
func (r *GormFlightRepository) UpdateUTCTimes(ctx context.Context, flightID uint, scheduledDep, scheduledArr *time.Time) error {
	return r.db.WithContext(ctx).Model(&Flights{}).
		Where("id = ?", flightID).
		Updates(map[string]interface{}{
			"scheduled_departure_utc": scheduledDep,
			"scheduled_arrival_utc":   scheduledArr,
		}).Error
}

// ReplaceCrew atomically rebuilds the crew edge set of a flight
func (r *GormFlightRepository) ReplaceCrew(ctx context.Context, flightID uint, crew []entity.CrewAssignment) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("flight_id = ?", flightID).Delete(&FlightCrew{}).Error; err != nil {
			return err
		}
		if len(crew) == 0 {
			return nil
		}
		models := make([]FlightCrew, 0, len(crew))
		for _, c := range crew {
			models = append(models, FlightCrew{
				FlightID: flightID,
				CrewID:   c.CrewID,
				Role:     c.Role,
				Flags:    c.Flags,
			})
		}
		return tx.Create(&models).Error
	})
}

// CrewOnBoard returns the denormalized roster of a flight
func (r *GormFlightRepository) CrewOnBoard(ctx context.Context, flightID uint) ([]entity.CrewOnBoard, error) {
	var rows []entity.CrewOnBoard
	result := r.db.WithContext(ctx).
		Table("flight_crew").
		Select("crew.employee_id AS employee_id, crew.name AS name, flight_crew.role AS role, flight_crew.flags AS flags").
		Joins("JOIN crew ON crew.id = flight_crew.crew_id").
		Where("flight_crew.flight_id = ?", flightID).
		Scan(&rows)
	if result.Error != nil {
		return nil, result.Error
	}
	return rows, nil
}

// ListByDateRange returns flights with date in [start, end)
func (r *GormFlightRepository) ListByDateRange(ctx context.Context, start, end time.Time) ([]*entity.Flight, error) {
	var rows []Flights
	result := r.db.WithContext(ctx).
		Where("date >= ? AND date < ?", start, end).
		Order("date, flight_number").
		Find(&rows)
	if result.Error != nil {
		return nil, result.Error
	}
	out := make([]*entity.Flight, 0, len(rows))
	for i := range rows {
		out = append(out, flightToEntity(&rows[i]))
	}
	return out, nil
}

// ListAll returns every captured flight ordered by date
func (r *GormFlightRepository) ListAll(ctx context.Context) ([]*entity.Flight, error) {
	var rows []Flights
	result := r.db.WithContext(ctx).Order("date, flight_number").Find(&rows)
	if result.Error != nil {
		return nil, result.Error
	}
	out := make([]*entity.Flight, 0, len(rows))
	for i := range rows {
		out = append(out, flightToEntity(&rows[i]))
	}
	return out, nil
}

// CountByDate counts flights dated within one calendar day
func (r *GormFlightRepository) CountByDate(ctx context.Context, day time.Time) (int64, error) {
	var count int64
	result := r.db.WithContext(ctx).Model(&Flights{}).
		Where("date >= ? AND date < ?", day, day.AddDate(0, 0, 1)).
		Count(&count)
	return count, result.Error
}

// AppendHistory writes one change-log entry
func (r *GormFlightRepository) AppendHistory(ctx context.Context, h *entity.FlightHistory) error {
	model := FlightHistories{
		FlightID:    h.FlightID,
		Timestamp:   h.Timestamp,
		Changes:     h.Changes,
		Description: h.Description,
	}
	result := r.db.WithContext(ctx).Create(&model)
	if result.Error != nil {
		return result.Error
	}
	h.ID = model.ID
	return nil
}

// HistoryForFlight returns a flight's change log, most recent first
func (r *GormFlightRepository) HistoryForFlight(ctx context.Context, flightID uint) ([]*entity.FlightHistory, error) {
	var rows []FlightHistories
	result := r.db.WithContext(ctx).
		Where("flight_id = ?", flightID).
		Order("timestamp DESC").
		Find(&rows)
	if result.Error != nil {
		return nil, result.Error
	}
	return historyToEntities(rows), nil
}

// ListHistory returns all history entries, most recent first
func (r *GormFlightRepository) ListHistory(ctx context.Context) ([]*entity.FlightHistory, error) {
	var rows []FlightHistories
	result := r.db.WithContext(ctx).Order("timestamp DESC").Find(&rows)
	if result.Error != nil {
		return nil, result.Error
	}
	return historyToEntities(rows), nil
}

// DeleteHistoryByIDs removes the given history entries
func (r *GormFlightRepository) DeleteHistoryByIDs(ctx context.Context, ids []uint) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).Where("id IN ?", ids).Delete(&FlightHistories{})
	return result.RowsAffected, result.Error
}

// PurgeAll removes all captured flight data, leaving schedules,
// assignments and crew identities intact
func (r *GormFlightRepository) PurgeAll(ctx context.Context) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, stmt := range []string{
			"DELETE FROM flight_crew",
			"DELETE FROM flight_history",
			"DELETE FROM flights",
			"DELETE FROM daily_sync_status",
		} {
			if err := tx.Exec(stmt).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func flightToModel(f *entity.Flight) *Flights {
	return &Flights{
		ID:                    f.ID,
		FlightNumber:          f.FlightNumber,
		Date:                  f.Date,
		ScheduledDeparture:    f.ScheduledDeparture,
		ScheduledArrival:      f.ScheduledArrival,
		ActualDeparture:       f.ActualDeparture,
		ActualArrival:         f.ActualArrival,
		ScheduledDepartureUTC: f.ScheduledDepartureUTC,
		ScheduledArrivalUTC:   f.ScheduledArrivalUTC,
		ActualDepartureUTC:    f.ActualDepartureUTC,
		ActualArrivalUTC:      f.ActualArrivalUTC,
		STARaw:                f.STARaw,
		TailNumber:            f.TailNumber,
		DepartureAirport:      f.DepartureAirport,
		ArrivalAirport:        f.ArrivalAirport,
		AircraftType:          f.AircraftType,
		Version:               f.Version,
		Status:                f.Status,
		PaxData:               f.PaxData,
		LoadData:              f.LoadData,
		NotesData:             f.NotesData,
		CreatedAt:             f.CreatedAt,
		UpdatedAt:             f.UpdatedAt,
	}
}

func flightToEntity(m *Flights) *entity.Flight {
	return &entity.Flight{
		ID:                    m.ID,
		FlightNumber:          m.FlightNumber,
		Date:                  m.Date,
		ScheduledDeparture:    m.ScheduledDeparture,
		ScheduledArrival:      m.ScheduledArrival,
		ActualDeparture:       m.ActualDeparture,
		ActualArrival:         m.ActualArrival,
		ScheduledDepartureUTC: m.ScheduledDepartureUTC,
		ScheduledArrivalUTC:   m.ScheduledArrivalUTC,
		ActualDepartureUTC:    m.ActualDepartureUTC,
		ActualArrivalUTC:      m.ActualArrivalUTC,
		STARaw:                m.STARaw,
		TailNumber:            m.TailNumber,
		DepartureAirport:      m.DepartureAirport,
		ArrivalAirport:        m.ArrivalAirport,
		AircraftType:          m.AircraftType,
		Version:               m.Version,
		Status:                m.Status,
		PaxData:               m.PaxData,
		LoadData:              m.LoadData,
		NotesData:             m.NotesData,
		CreatedAt:             m.CreatedAt,
		UpdatedAt:             m.UpdatedAt,
	}
}

func historyToEntities(rows []FlightHistories) []*entity.FlightHistory {
	out := make([]*entity.FlightHistory, 0, len(rows))
	for i := range rows {
		out = append(out, &entity.FlightHistory{
			ID:          rows[i].ID,
			FlightID:    rows[i].FlightID,
			Timestamp:   rows[i].Timestamp,
			Changes:     rows[i].Changes,
			Description: rows[i].Description,
		})
	}
	return out
}
