package entity

import "time"

// LegStatus classifies one scheduled leg of an audited IOE assignment.
type LegStatus string

const (
	LegFutureVerified   LegStatus = "Future (IOE Verified)"
	LegFutureUnverified LegStatus = "Future"
	LegFutureNotScraped LegStatus = "Future (Not Scraped)"
	LegInProgress       LegStatus = "In Progress (Not Scraped)"
	LegNotScraped       LegStatus = "Not Scraped"
	LegStudentMissing   LegStatus = "Student Missing"
	LegVerified         LegStatus = "Flown (IOE Verified)"
	LegFlownNoIOE       LegStatus = "Flown (No IOE Flags)"
)

// LegAudit is the audit outcome for one scheduled leg.
type LegAudit struct {
	FlightNumber string
	Date         time.Time
	Status       LegStatus
	Detail       string
	IOECrew      []string // "Name (Role)" for every IOE-flagged crew member
}

// AssignmentAudit is the audit outcome for one IOE assignment.
type AssignmentAudit struct {
	EmployeeID    string
	PairingNumber string
	StartDate     time.Time
	Legs          []LegAudit
	LegsVerified  int
	NoScheduleData bool
}

// AuditTotals aggregates one audit run.
type AuditTotals struct {
	Assignments     int
	Legs            int
	Verified        int
	Future          int
	FlownWithoutIOE int
	VerifiedRate    float64
	FutureRate      float64
}

// UnscheduledIOE is a captured flight carrying a pilot IOE flag whose
// pairing is not on the period's official assignment list.
type UnscheduledIOE struct {
	Date          time.Time
	FlightNumber  string
	PairingNumber string
	EmployeeID    string
	Name          string
	Role          string
	Flags         string
	Route         string
	TailNumber    string
}

// AdHocPairing aggregates IOE-flagged legs flown under a pairing that is
// not on the official assignment list.
type AdHocPairing struct {
	PairingNumber string
	TotalLegs     int
	IOELegs       int
	FirstDate     time.Time
	LastDate      time.Time
}

// AuditReport is the full output of one audit run over a bid period.
type AuditReport struct {
	Year           int
	Month          int
	PeriodStart    time.Time
	PeriodEnd      time.Time
	Assignments    []AssignmentAudit
	Totals         AuditTotals
	UnscheduledIOE []UnscheduledIOE
	AdHocPairings  []AdHocPairing
}

// PairingCorrelation is one scheduled leg joined to its captured flight,
// if any, for the scheduled-vs-actual report.
type PairingCorrelation struct {
	Date          time.Time
	PairingNumber string
	FlightNumber  string
	Route         string
	ScheduledTime string
	BlockTime     string
	TotalCredit   string
	IsDeadhead    bool
	Flown         bool
	ActualCrew    []string
}
