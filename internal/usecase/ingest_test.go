package usecase

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"nocarchive-service/internal/domain/repository"
	ifrepo "nocarchive-service/internal/interface/repository"
	"nocarchive-service/pkg/logger"
	"nocarchive-service/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pairingFixture = `I0001  Check-In 12:05  CA/FO  December 2025
 Day Flt   Dep          Arr
  1   104 GUM 14:30 ROR 16:12   1:42  5:30
      105 ROR 17:00 GUM 18:40   1:40
  2   106 GUM 09:00 SPN 09:45   0:45
     | 16 18 |
Total Credit: 05:30
`

const ioeFixture = `IOE Assignments Report
======================
Employee  Pairing  Start
10455 I0001 2025-12-16
10456 I0001
2025-12-18
`

func newIngestUsecase(t *testing.T, scheduleRepo repository.ScheduleRepository) *IngestUsecase {
	t.Helper()
	return NewIngestUsecase(
		scheduleRepo,
		utils.NewPairingParser(logger.NewNop()),
		utils.NewIOEParser(logger.NewNop()),
		logger.NewNop(),
		testMetrics,
	)
}

func writeFixture(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestIngestAllLoadsBothReportKinds(t *testing.T) {
	db := newTestDB(t)
	scheduleRepo := ifrepo.NewGormScheduleRepository(db)
	usecase := newIngestUsecase(t, scheduleRepo)
	ctx := context.Background()

	pairingsDir := t.TempDir()
	ioeDir := t.TempDir()
	writeFixture(t, pairingsDir, "december.txt", pairingFixture)
	writeFixture(t, ioeDir, "december.txt", ioeFixture)

	stats, err := usecase.IngestAll(ctx, pairingsDir, ioeDir)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.PairingBlocks)
	assert.Equal(t, 6, stats.ScheduledLegs, "3 legs across 2 start days")
	assert.Equal(t, 2, stats.Assignments)

	start := time.Date(2025, 12, 16, 0, 0, 0, 0, time.UTC)
	legs, err := scheduleRepo.LegsByPairingStart(ctx, "I0001", start)
	require.NoError(t, err)
	require.Len(t, legs, 3)
	assert.Equal(t, "104", legs[0].FlightNumber)
	assert.Equal(t, "1:42", legs[0].BlockTime)
	assert.Equal(t, "05:30", legs[0].TotalCredit)
	assert.True(t, legs[2].Date.Equal(start.AddDate(0, 0, 1)), "day 2 leg lands one day after the start")

	assignments, err := scheduleRepo.ListAllAssignments(ctx)
	require.NoError(t, err)
	require.Len(t, assignments, 2)
	assert.Equal(t, "10455", assignments[0].EmployeeID)
	assert.True(t, assignments[1].StartDate.Equal(start.AddDate(0, 0, 2)))
}

func TestIngestReplacesPreviousLoad(t *testing.T) {
	db := newTestDB(t)
	scheduleRepo := ifrepo.NewGormScheduleRepository(db)
	usecase := newIngestUsecase(t, scheduleRepo)
	ctx := context.Background()

	pairingsDir := t.TempDir()
	ioeDir := t.TempDir()
	writeFixture(t, pairingsDir, "december.txt", pairingFixture)
	writeFixture(t, ioeDir, "december.txt", ioeFixture)

	_, err := usecase.IngestAll(ctx, pairingsDir, ioeDir)
	require.NoError(t, err)
	stats, err := usecase.IngestAll(ctx, pairingsDir, ioeDir)
	require.NoError(t, err)

	assert.EqualValues(t, 6, stats.ScheduledRemoved)
	assert.EqualValues(t, 2, stats.AssignmentsRemoved)

	legs, err := scheduleRepo.ListAllScheduled(ctx)
	require.NoError(t, err)
	assert.Len(t, legs, 6, "re-ingestion must not accumulate rows")
}

func TestIngestFailsOnEmptyDirectory(t *testing.T) {
	db := newTestDB(t)
	usecase := newIngestUsecase(t, ifrepo.NewGormScheduleRepository(db))

	stats := &IngestStats{}
	err := usecase.IngestPairingsDir(context.Background(), t.TempDir(), stats)
	require.Error(t, err)
}
