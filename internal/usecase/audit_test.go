package usecase

import (
	"context"
	"testing"
	"time"

	"nocarchive-service/internal/domain/entity"
	"nocarchive-service/internal/domain/repository"
	ifrepo "nocarchive-service/internal/interface/repository"
	"nocarchive-service/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newAuditEnv(t *testing.T) (*AuditEngine, repository.FlightRepository, repository.CrewRepository, repository.ScheduleRepository, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	flightRepo := ifrepo.NewGormFlightRepository(db)
	scheduleRepo := ifrepo.NewGormScheduleRepository(db)
	crewRepo := ifrepo.NewGormCrewRepository(db)
	engine := NewAuditEngine(flightRepo, scheduleRepo, logger.NewNop())
	return engine, flightRepo, crewRepo, scheduleRepo, db
}

func addCapturedFlight(t *testing.T, flightRepo repository.FlightRepository, crewRepo repository.CrewRepository, number string, date time.Time, roster []entity.CrewOnBoard) *entity.Flight {
	t.Helper()
	ctx := context.Background()
	flight := &entity.Flight{
		FlightNumber:     number,
		Date:             date,
		DepartureAirport: "GUM",
		ArrivalAirport:   "ROR",
		TailNumber:       "N401CA",
	}
	require.NoError(t, flightRepo.Create(ctx, flight))

	assignments := make([]entity.CrewAssignment, 0, len(roster))
	for _, c := range roster {
		member, err := crewRepo.FindOrCreate(ctx, c.EmployeeID, c.Name)
		require.NoError(t, err)
		assignments = append(assignments, entity.CrewAssignment{
			FlightID: flight.ID,
			CrewID:   member.ID,
			Role:     c.Role,
			Flags:    c.Flags,
		})
	}
	require.NoError(t, flightRepo.ReplaceCrew(ctx, flight.ID, assignments))
	return flight
}

func addScheduledLeg(t *testing.T, scheduleRepo repository.ScheduleRepository, pairing, number string, date, start time.Time) {
	t.Helper()
	require.NoError(t, scheduleRepo.InsertScheduled(context.Background(), []*entity.ScheduledFlight{{
		PairingNumber:      pairing,
		FlightNumber:       number,
		Date:               date,
		DepartureAirport:   "GUM",
		ArrivalAirport:     "ROR",
		ScheduledDeparture: "14:30",
		PairingStartDate:   start,
	}}))
}

func TestAuditVerifiesIOELegThroughAlias(t *testing.T) {
	engine, flightRepo, crewRepo, scheduleRepo, _ := newAuditEnv(t)
	ctx := context.Background()
	start := time.Date(2025, 12, 16, 0, 0, 0, 0, time.UTC)
	now := time.Date(2025, 12, 20, 10, 0, 0, 0, time.UTC)

	addScheduledLeg(t, scheduleRepo, "I0001", "104", start, start)
	require.NoError(t, scheduleRepo.InsertAssignments(ctx, []*entity.IOEAssignment{
		{EmployeeID: "10455", PairingNumber: "I0001", StartDate: start},
	}))

	// The board spells the scheduled 104 as C5104.
	addCapturedFlight(t, flightRepo, crewRepo, "C5104", start, []entity.CrewOnBoard{
		{EmployeeID: "10021", Name: "JOHN SMITH", Role: "CA", Flags: "IOE"},
		{EmployeeID: "10455", Name: "MARY JONES", Role: "FO", Flags: ""},
	})

	report, err := engine.Run(ctx, 2025, 12, now)
	require.NoError(t, err)
	require.Len(t, report.Assignments, 1)
	require.Len(t, report.Assignments[0].Legs, 1)
	assert.Equal(t, entity.LegVerified, report.Assignments[0].Legs[0].Status)
	assert.Equal(t, 1, report.Assignments[0].LegsVerified)
	assert.Equal(t, []string{"JOHN SMITH (CA)"}, report.Assignments[0].Legs[0].IOECrew)
	assert.Equal(t, 1, report.Totals.Verified)

	// The instructor's tag on an officially assigned pairing is not an
	// unscheduled finding.
	assert.Empty(t, report.UnscheduledIOE)
	assert.Empty(t, report.AdHocPairings)
}

func TestAuditFutureLegVerifiesOnFOFlag(t *testing.T) {
	engine, flightRepo, crewRepo, scheduleRepo, _ := newAuditEnv(t)
	ctx := context.Background()
	start := time.Date(2025, 12, 16, 0, 0, 0, 0, time.UTC)
	now := time.Date(2025, 12, 10, 10, 0, 0, 0, time.UTC)

	addScheduledLeg(t, scheduleRepo, "I0001", "104", start, start)
	addScheduledLeg(t, scheduleRepo, "I0001", "105", start.AddDate(0, 0, 1), start)
	require.NoError(t, scheduleRepo.InsertAssignments(ctx, []*entity.IOEAssignment{
		{EmployeeID: "10455", PairingNumber: "I0001", StartDate: start},
	}))

	// The first future leg already shows the trainee's seat tagged; the
	// second only carries the instructor's tag and no trainee yet.
	addCapturedFlight(t, flightRepo, crewRepo, "C5104", start, []entity.CrewOnBoard{
		{EmployeeID: "10021", Name: "JOHN SMITH", Role: "CA", Flags: "IOE"},
		{EmployeeID: "10455", Name: "MARY JONES", Role: "FO", Flags: "IOE"},
	})
	addCapturedFlight(t, flightRepo, crewRepo, "C5105", start.AddDate(0, 0, 1), []entity.CrewOnBoard{
		{EmployeeID: "10021", Name: "JOHN SMITH", Role: "CA", Flags: "IOE"},
	})

	report, err := engine.Run(ctx, 2025, 12, now)
	require.NoError(t, err)
	require.Len(t, report.Assignments[0].Legs, 2)

	statuses := map[string]entity.LegStatus{}
	for _, leg := range report.Assignments[0].Legs {
		statuses[leg.FlightNumber] = leg.Status
	}
	assert.Equal(t, entity.LegFutureVerified, statuses["104"])
	assert.Equal(t, entity.LegFutureUnverified, statuses["105"])
	assert.Equal(t, 2, report.Totals.Future)
}

func TestAuditCabinCrewIOEDoesNotVerify(t *testing.T) {
	engine, flightRepo, crewRepo, scheduleRepo, _ := newAuditEnv(t)
	ctx := context.Background()
	start := time.Date(2025, 12, 16, 0, 0, 0, 0, time.UTC)
	now := time.Date(2025, 12, 20, 10, 0, 0, 0, time.UTC)

	addScheduledLeg(t, scheduleRepo, "I0001", "104", start, start)
	require.NoError(t, scheduleRepo.InsertAssignments(ctx, []*entity.IOEAssignment{
		{EmployeeID: "10455", PairingNumber: "I0001", StartDate: start},
	}))

	addCapturedFlight(t, flightRepo, crewRepo, "C5104", start, []entity.CrewOnBoard{
		{EmployeeID: "10455", Name: "MARY JONES", Role: "FO", Flags: ""},
		{EmployeeID: "20100", Name: "ANA CRUZ", Role: "FA", Flags: "IOE"},
	})

	report, err := engine.Run(ctx, 2025, 12, now)
	require.NoError(t, err)
	require.Len(t, report.Assignments[0].Legs, 1)
	assert.Equal(t, entity.LegFlownNoIOE, report.Assignments[0].Legs[0].Status)
	assert.Empty(t, report.Assignments[0].Legs[0].IOECrew)
}

func TestAuditStudentMissing(t *testing.T) {
	engine, flightRepo, crewRepo, scheduleRepo, _ := newAuditEnv(t)
	ctx := context.Background()
	start := time.Date(2025, 12, 16, 0, 0, 0, 0, time.UTC)
	now := time.Date(2025, 12, 20, 10, 0, 0, 0, time.UTC)

	addScheduledLeg(t, scheduleRepo, "I0001", "104", start, start)
	require.NoError(t, scheduleRepo.InsertAssignments(ctx, []*entity.IOEAssignment{
		{EmployeeID: "10455", PairingNumber: "I0001", StartDate: start},
	}))

	addCapturedFlight(t, flightRepo, crewRepo, "C5104", start, []entity.CrewOnBoard{
		{EmployeeID: "10021", Name: "JOHN SMITH", Role: "CA", Flags: "IOE"},
		{EmployeeID: "10999", Name: "OTHER PILOT", Role: "FO", Flags: ""},
	})

	report, err := engine.Run(ctx, 2025, 12, now)
	require.NoError(t, err)
	assert.Equal(t, entity.LegStudentMissing, report.Assignments[0].Legs[0].Status)
	assert.Equal(t, 0, report.Totals.Verified)
}

func TestAuditClassifiesUncapturedLegsByDate(t *testing.T) {
	engine, _, _, scheduleRepo, _ := newAuditEnv(t)
	ctx := context.Background()
	start := time.Date(2025, 12, 16, 0, 0, 0, 0, time.UTC)
	now := time.Date(2025, 12, 17, 10, 0, 0, 0, time.UTC)

	addScheduledLeg(t, scheduleRepo, "I0001", "104", start, start)                   // past
	addScheduledLeg(t, scheduleRepo, "I0001", "105", start.AddDate(0, 0, 1), start) // today
	addScheduledLeg(t, scheduleRepo, "I0001", "106", start.AddDate(0, 0, 2), start) // future
	require.NoError(t, scheduleRepo.InsertAssignments(ctx, []*entity.IOEAssignment{
		{EmployeeID: "10455", PairingNumber: "I0001", StartDate: start},
	}))

	report, err := engine.Run(ctx, 2025, 12, now)
	require.NoError(t, err)
	require.Len(t, report.Assignments[0].Legs, 3)

	statuses := map[string]entity.LegStatus{}
	for _, leg := range report.Assignments[0].Legs {
		statuses[leg.FlightNumber] = leg.Status
	}
	assert.Equal(t, entity.LegNotScraped, statuses["104"])
	assert.Equal(t, entity.LegInProgress, statuses["105"])
	assert.Equal(t, entity.LegFutureNotScraped, statuses["106"])
	assert.Equal(t, 1, report.Totals.Future)
}

func TestAuditWindowFallbackAndNoScheduleData(t *testing.T) {
	engine, _, _, scheduleRepo, _ := newAuditEnv(t)
	ctx := context.Background()
	start := time.Date(2025, 12, 16, 0, 0, 0, 0, time.UTC)
	now := time.Date(2025, 12, 20, 10, 0, 0, 0, time.UTC)

	// Leg exists two days after the assignment's stated start; the exact
	// start-date match fails and the window fallback must pick it up.
	addScheduledLeg(t, scheduleRepo, "I0001", "104", start.AddDate(0, 0, 2), start.AddDate(0, 0, 2))
	require.NoError(t, scheduleRepo.InsertAssignments(ctx, []*entity.IOEAssignment{
		{EmployeeID: "10455", PairingNumber: "I0001", StartDate: start},
		{EmployeeID: "10456", PairingNumber: "I9999", StartDate: start},
	}))

	report, err := engine.Run(ctx, 2025, 12, now)
	require.NoError(t, err)
	require.Len(t, report.Assignments, 2)

	byPairing := map[string]entity.AssignmentAudit{}
	for _, a := range report.Assignments {
		byPairing[a.PairingNumber] = a
	}
	assert.Len(t, byPairing["I0001"].Legs, 1)
	assert.False(t, byPairing["I0001"].NoScheduleData)
	assert.True(t, byPairing["I9999"].NoScheduleData)
}

func TestAuditFindsUnscheduledIOE(t *testing.T) {
	engine, flightRepo, crewRepo, scheduleRepo, _ := newAuditEnv(t)
	ctx := context.Background()
	start := time.Date(2025, 12, 16, 0, 0, 0, 0, time.UTC)
	now := time.Date(2025, 12, 20, 10, 0, 0, 0, time.UTC)

	// P0400 is in the schedule data but on no official assignment.
	addScheduledLeg(t, scheduleRepo, "P0400", "210", start, start)
	addScheduledLeg(t, scheduleRepo, "P0400", "211", start.AddDate(0, 0, 1), start)

	addCapturedFlight(t, flightRepo, crewRepo, "C5210", start, []entity.CrewOnBoard{
		{EmployeeID: "10021", Name: "JOHN SMITH", Role: "CA", Flags: "IOE"},
		{EmployeeID: "30001", Name: "NEW HIRE", Role: "FO", Flags: "IOE, L"},
	})
	addCapturedFlight(t, flightRepo, crewRepo, "C5211", start.AddDate(0, 0, 1), []entity.CrewOnBoard{
		{EmployeeID: "10022", Name: "LINE CAPTAIN", Role: "CA", Flags: ""},
	})

	report, err := engine.Run(ctx, 2025, 12, now)
	require.NoError(t, err)
	require.Len(t, report.UnscheduledIOE, 2)
	assert.Equal(t, "P0400", report.UnscheduledIOE[0].PairingNumber)
	assert.Equal(t, "C5210", report.UnscheduledIOE[0].FlightNumber)

	// Two tagged crew on one flight count it once; the untagged second
	// flight widens the leg base.
	require.Len(t, report.AdHocPairings, 1)
	assert.Equal(t, "P0400", report.AdHocPairings[0].PairingNumber)
	assert.Equal(t, 1, report.AdHocPairings[0].IOELegs)
	assert.Equal(t, 2, report.AdHocPairings[0].TotalLegs)
	assert.True(t, report.AdHocPairings[0].FirstDate.Equal(start))
	assert.True(t, report.AdHocPairings[0].LastDate.Equal(start.AddDate(0, 0, 1)))
}

func TestCorrelatePairingsMarksFlownLegs(t *testing.T) {
	engine, flightRepo, crewRepo, scheduleRepo, _ := newAuditEnv(t)
	ctx := context.Background()
	start := time.Date(2025, 12, 16, 0, 0, 0, 0, time.UTC)

	addScheduledLeg(t, scheduleRepo, "P0100", "104", start, start)
	addScheduledLeg(t, scheduleRepo, "P0100", "105", start.AddDate(0, 0, 1), start)

	addCapturedFlight(t, flightRepo, crewRepo, "C5104", start, []entity.CrewOnBoard{
		{EmployeeID: "10021", Name: "JOHN SMITH", Role: "CA", Flags: ""},
	})

	correlations, err := engine.CorrelatePairings(ctx, 2025, 12)
	require.NoError(t, err)
	require.Len(t, correlations, 2)
	assert.True(t, correlations[0].Flown)
	assert.Equal(t, []string{"JOHN SMITH (CA)"}, correlations[0].ActualCrew)
	assert.False(t, correlations[1].Flown)
}
