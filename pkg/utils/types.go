package utils

import "time"

// BoardFlight is one flight entry parsed from an operations-board snapshot.
type BoardFlight struct {
	FlightNumber     string
	Date             time.Time // local departure day, midnight
	STD              *time.Time
	STA              *time.Time
	STARaw           string
	TailNumber       string
	DepartureAirport string
	ArrivalAirport   string
	AircraftType     string
	Version          string
	Status           string
	PaxData          string
	LoadData         string
	NotesData        string
	Crew             []BoardCrew
}

// BoardCrew is one crew-roster line parsed from a board entry.
type BoardCrew struct {
	Role       string
	EmployeeID string
	Name       string
	Flags      string
}

// PairingLeg is one flight leg inside a pairing block, with the day offset
// already resolved against the block's inheritance rule.
type PairingLeg struct {
	Day            int
	FlightNumber   string
	DepAirport     string
	DepTime        string // "HH:MM"
	ArrAirport     string
	ArrTime        string // "HH:MM", may be empty
	IsDeadhead     bool
	BlockTime      string
	CreditTime     string
}

// PairingBlock is one parsed pairing template with its start-day grid.
type PairingBlock struct {
	PairingNumber string
	Category      string
	Month         time.Time // first of the report's stated month
	Legs          []PairingLeg
	StartDays     []int
	TotalCredit   string
}

// IOERecord is one parsed IOE assignment.
type IOERecord struct {
	EmployeeID    string
	PairingNumber string
	StartDate     time.Time
}

// carrierPrefixes are the two carrier-code variants the board applies to
// flight numbers that pairing files record bare. Longest first so that
// stripping "C5" wins over "C".
var carrierPrefixes = []string{"C5", "C"}

// FlightNumberAliases returns the candidate board spellings of a scheduled
// flight number: the bare number plus each carrier-prefixed variant.
func FlightNumberAliases(flightNumber string) []string {
	aliases := []string{flightNumber}
	for _, p := range carrierPrefixes {
		aliases = append(aliases, p+flightNumber)
	}
	return aliases
}

// StripCarrierPrefix reverses the aliasing: it maps a board flight number
// back to the bare number used by pairing files.
func StripCarrierPrefix(flightNumber string) string {
	for _, p := range carrierPrefixes {
		if len(flightNumber) > len(p) && flightNumber[:len(p)] == p {
			return flightNumber[len(p):]
		}
	}
	return flightNumber
}
