package entity

import "time"

// ScheduledFlight is one planned leg of a pairing instance. Rows are
// immutable once ingested; re-ingestion bulk-deletes and re-inserts.
type ScheduledFlight struct {
	ID                 uint
	PairingNumber      string // e.g. "I0001"
	FlightNumber       string
	Date               time.Time
	DepartureAirport   string
	ArrivalAirport     string
	ScheduledDeparture string // "HH:MM"
	ScheduledArrival   string // "HH:MM", may be empty
	BlockTime          string // "H:MM" or "HH:MM"
	TotalCredit        string // "HH:MM"
	PairingStartDate   time.Time
	IsDeadhead         bool
}

// IOEAssignment declares that a trainee is scheduled to fly a specific
// pairing instance as part of supervised training.
type IOEAssignment struct {
	ID            uint
	EmployeeID    string
	PairingNumber string
	StartDate     time.Time
}
