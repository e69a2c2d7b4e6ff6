package entity

import "time"

// Flight is one observed flight instance from the operations board.
// Date is the canonical local departure day at midnight, not the day the
// capture ran, so red-eye legs key consistently across capture boundaries.
type Flight struct {
	ID           uint
	FlightNumber string
	Date         time.Time

	// Times, local view
	ScheduledDeparture *time.Time
	ScheduledArrival   *time.Time
	ActualDeparture    *time.Time
	ActualArrival      *time.Time

	// Times, UTC view (back-filled by the UTC capture pass)
	ScheduledDepartureUTC *time.Time
	ScheduledArrivalUTC   *time.Time
	ActualDepartureUTC    *time.Time
	ActualArrivalUTC      *time.Time

	STARaw           string // raw STA cell, e.g. "0042 : 16DEC25"
	TailNumber       string
	DepartureAirport string
	ArrivalAirport   string
	AircraftType     string
	Version          string
	Status           string

	// Free-text operational blocks
	PaxData   string
	LoadData  string
	NotesData string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// CrewMember is a deduplicated crew identity. EmployeeID maps to exactly
// one record for the life of the system.
type CrewMember struct {
	ID         uint
	EmployeeID string
	Name       string
	CreatedAt  time.Time
}

// CrewAssignment is one flight<->crew edge with per-edge attributes. The
// full edge set of a flight is replaced on every capture.
type CrewAssignment struct {
	FlightID uint
	CrewID   uint
	Role     string
	Flags    string // free-text tag string, e.g. "IOE, L"
}

// CrewOnBoard is the denormalized roster view of one flight, used for
// snapshots and reports.
type CrewOnBoard struct {
	EmployeeID string `json:"employee_id"`
	Name       string `json:"name"`
	Role       string `json:"role"`
	Flags      string `json:"flags"`
}

// FlightHistory is one append-only change-log entry for a flight. Changes
// holds a JSON change-set; Description is the human summary.
type FlightHistory struct {
	ID          uint
	FlightID    uint
	Timestamp   time.Time
	Changes     string
	Description string
}
