package usecase

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	ifrepo "nocarchive-service/internal/interface/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func standardFields() [][2]string {
	return [][2]string{
		{"STD", "1430"},
		{"STA", "1612"},
		{"Registration", "N401CA"},
		{"Departure", "GUM"},
		{"Arrival", "ROR"},
		{"Type", "AT7"},
		{"Version", "V1"},
		{"Status", "Scheduled"},
	}
}

func TestProcessLocalCreatesWithoutHistory(t *testing.T) {
	db := newTestDB(t)
	processor := newCaptureProcessor(t, db)
	flightRepo := ifrepo.NewGormFlightRepository(db)
	ctx := context.Background()
	day := time.Date(2025, 12, 16, 0, 0, 0, 0, time.UTC)

	html := boardHTML(boardItem("C5104", standardFields(),
		"CA - 10021 JOHN SMITH(IOE, L)",
		"FO - 10455 MARY JONES",
	))

	result, err := processor.ProcessLocal(ctx, html, day)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Created)
	assert.Equal(t, 0, result.Updated)
	assert.Equal(t, 0, result.History)

	flight, err := flightRepo.FindByKey(ctx, "C5104", day, "GUM", "ROR")
	require.NoError(t, err)
	require.NotNil(t, flight)
	assert.Equal(t, "N401CA", flight.TailNumber)
	require.NotNil(t, flight.ScheduledDeparture)
	assert.Equal(t, "2025-12-16 14:30", flight.ScheduledDeparture.Format("2006-01-02 15:04"))

	roster, err := flightRepo.CrewOnBoard(ctx, flight.ID)
	require.NoError(t, err)
	assert.Len(t, roster, 2)

	history, err := flightRepo.HistoryForFlight(ctx, flight.ID)
	require.NoError(t, err)
	assert.Empty(t, history, "first capture must not write history")
}

func TestProcessLocalIdempotent(t *testing.T) {
	db := newTestDB(t)
	processor := newCaptureProcessor(t, db)
	flightRepo := ifrepo.NewGormFlightRepository(db)
	ctx := context.Background()
	day := time.Date(2025, 12, 16, 0, 0, 0, 0, time.UTC)

	html := boardHTML(boardItem("C5104", standardFields(),
		"CA - 10021 JOHN SMITH(IOE)",
	))

	_, err := processor.ProcessLocal(ctx, html, day)
	require.NoError(t, err)
	result, err := processor.ProcessLocal(ctx, html, day)
	require.NoError(t, err)

	assert.Equal(t, 0, result.Created)
	assert.Equal(t, 1, result.Unchanged)
	assert.Equal(t, 0, result.History)

	count, err := flightRepo.CountByDate(ctx, day)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	history, err := flightRepo.ListHistory(ctx)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestRecaptureRecordsFieldDiff(t *testing.T) {
	db := newTestDB(t)
	processor := newCaptureProcessor(t, db)
	flightRepo := ifrepo.NewGormFlightRepository(db)
	ctx := context.Background()
	day := time.Date(2025, 12, 16, 0, 0, 0, 0, time.UTC)

	_, err := processor.ProcessLocal(ctx, boardHTML(boardItem("C5104", standardFields())), day)
	require.NoError(t, err)

	changed := standardFields()
	changed[2] = [2]string{"Registration", "N402CA"}
	changed[7] = [2]string{"Status", "Delayed"}
	result, err := processor.ProcessLocal(ctx, boardHTML(boardItem("C5104", changed)), day)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Updated)
	assert.Equal(t, 1, result.History)

	flight, err := flightRepo.FindByKey(ctx, "C5104", day, "GUM", "ROR")
	require.NoError(t, err)
	require.NotNil(t, flight)
	assert.Equal(t, "N402CA", flight.TailNumber)
	assert.Equal(t, "Delayed", flight.Status)

	history, err := flightRepo.HistoryForFlight(ctx, flight.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)

	var cs changeSet
	require.NoError(t, json.Unmarshal([]byte(history[0].Changes), &cs))
	assert.Equal(t, "N401CA", cs.Fields["tail_number"].Old)
	assert.Equal(t, "N402CA", cs.Fields["tail_number"].New)
	assert.Equal(t, "Scheduled", cs.Fields["status"].Old)
	assert.Nil(t, cs.Crew)
	assert.Contains(t, history[0].Description, "tail_number")
}

func TestRecaptureReplacesCrewAndSnapshotsChange(t *testing.T) {
	db := newTestDB(t)
	processor := newCaptureProcessor(t, db)
	flightRepo := ifrepo.NewGormFlightRepository(db)
	ctx := context.Background()
	day := time.Date(2025, 12, 16, 0, 0, 0, 0, time.UTC)

	_, err := processor.ProcessLocal(ctx, boardHTML(boardItem("C5104", standardFields(),
		"CA - 10021 JOHN SMITH(IOE)",
		"FO - 10455 MARY JONES",
	)), day)
	require.NoError(t, err)

	result, err := processor.ProcessLocal(ctx, boardHTML(boardItem("C5104", standardFields(),
		"CA - 10021 JOHN SMITH(IOE)",
		"FO - 10789 ALAN WONG",
	)), day)
	require.NoError(t, err)
	assert.Equal(t, 1, result.History)

	flight, err := flightRepo.FindByKey(ctx, "C5104", day, "GUM", "ROR")
	require.NoError(t, err)
	require.NotNil(t, flight)

	roster, err := flightRepo.CrewOnBoard(ctx, flight.ID)
	require.NoError(t, err)
	require.Len(t, roster, 2, "old edge set must be fully replaced")
	names := []string{roster[0].Name, roster[1].Name}
	assert.Contains(t, names, "ALAN WONG")
	assert.NotContains(t, names, "MARY JONES")

	history, err := flightRepo.HistoryForFlight(ctx, flight.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)

	var cs changeSet
	require.NoError(t, json.Unmarshal([]byte(history[0].Changes), &cs))
	require.NotNil(t, cs.Crew)
	assert.Len(t, cs.Crew.Old, 2)
	assert.Len(t, cs.Crew.New, 2)
}

func TestCrossMidnightFlightKeysUnderDepartureDay(t *testing.T) {
	db := newTestDB(t)
	processor := newCaptureProcessor(t, db)
	flightRepo := ifrepo.NewGormFlightRepository(db)
	ctx := context.Background()
	day1 := time.Date(2025, 12, 16, 0, 0, 0, 0, time.UTC)
	day2 := day1.AddDate(0, 0, 1)

	fields := [][2]string{
		{"STD", "2355"},
		{"STA", "0042 : 17DEC25"},
		{"Registration", "N401CA"},
		{"Departure", "GUM"},
		{"Arrival", "SPN"},
	}
	_, err := processor.ProcessLocal(ctx, boardHTML(boardItem("C5990", fields)), day1)
	require.NoError(t, err)

	// The next day's board shows the same physical flight with a dated STD
	// cell; it must land on the same row, not a duplicate.
	fieldsNextDay := [][2]string{
		{"STD", "2355 : 16DEC25"},
		{"STA", "0042 : 17DEC25"},
		{"Registration", "N401CA"},
		{"Departure", "GUM"},
		{"Arrival", "SPN"},
	}
	result, err := processor.ProcessLocal(ctx, boardHTML(boardItem("C5990", fieldsNextDay)), day2)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Created)

	count1, err := flightRepo.CountByDate(ctx, day1)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count1)
	count2, err := flightRepo.CountByDate(ctx, day2)
	require.NoError(t, err)
	assert.EqualValues(t, 0, count2)
}

func TestBackfillUTCWritesOnlyUTCFields(t *testing.T) {
	db := newTestDB(t)
	processor := newCaptureProcessor(t, db)
	flightRepo := ifrepo.NewGormFlightRepository(db)
	ctx := context.Background()
	day := time.Date(2025, 12, 16, 0, 0, 0, 0, time.UTC)

	result, err := processor.ProcessLocal(ctx, boardHTML(boardItem("C5104", standardFields())), day)
	require.NoError(t, err)

	utcFields := [][2]string{
		{"STD", "0430"},
		{"STA", "0612"},
		{"Registration", "N999XX"}, // must not overwrite the local value
		{"Departure", "GUM"},
		{"Arrival", "ROR"},
	}
	require.NoError(t, processor.BackfillUTC(ctx, boardHTML(boardItem("C5104", utcFields)), day, result))

	flight, err := flightRepo.FindByKey(ctx, "C5104", day, "GUM", "ROR")
	require.NoError(t, err)
	require.NotNil(t, flight)
	require.NotNil(t, flight.ScheduledDepartureUTC)
	assert.Equal(t, "04:30", flight.ScheduledDepartureUTC.Format("15:04"))
	assert.Equal(t, "N401CA", flight.TailNumber)
	require.NotNil(t, flight.ScheduledDeparture)
	assert.Equal(t, "14:30", flight.ScheduledDeparture.Format("15:04"))
}

func TestBackfillUTCNeverCreates(t *testing.T) {
	db := newTestDB(t)
	processor := newCaptureProcessor(t, db)
	flightRepo := ifrepo.NewGormFlightRepository(db)
	ctx := context.Background()
	day := time.Date(2025, 12, 16, 0, 0, 0, 0, time.UTC)

	require.NoError(t, processor.BackfillUTC(ctx, boardHTML(boardItem("C5104", standardFields())), day, nil))

	count, err := flightRepo.CountByDate(ctx, day)
	require.NoError(t, err)
	assert.EqualValues(t, 0, count)
}
