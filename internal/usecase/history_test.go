package usecase

import (
	"context"
	"fmt"
	"testing"
	"time"

	"nocarchive-service/internal/domain/entity"
	"nocarchive-service/internal/domain/repository"
	ifrepo "nocarchive-service/internal/interface/repository"
	"nocarchive-service/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedHistoryFlight(t *testing.T, flightRepo repository.FlightRepository) *entity.Flight {
	t.Helper()
	flight := &entity.Flight{
		FlightNumber: "C5104",
		Date:         time.Date(2025, 12, 16, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, flightRepo.Create(context.Background(), flight))
	return flight
}

func appendHistoryAt(t *testing.T, flightRepo repository.FlightRepository, flightID uint, at time.Time, n int) {
	t.Helper()
	require.NoError(t, flightRepo.AppendHistory(context.Background(), &entity.FlightHistory{
		FlightID:    flightID,
		Timestamp:   at,
		Changes:     `{"fields":{}}`,
		Description: fmt.Sprintf("entry %d", n),
	}))
}

func TestClustersGroupByCaptureBurst(t *testing.T) {
	db := newTestDB(t)
	flightRepo := ifrepo.NewGormFlightRepository(db)
	usecase := NewHistoryUsecase(flightRepo, logger.NewNop())
	flight := seedHistoryFlight(t, flightRepo)

	base := time.Date(2025, 12, 16, 8, 0, 0, 0, time.UTC)
	// Burst one: three entries two minutes apart.
	appendHistoryAt(t, flightRepo, flight.ID, base, 1)
	appendHistoryAt(t, flightRepo, flight.ID, base.Add(2*time.Minute), 2)
	appendHistoryAt(t, flightRepo, flight.ID, base.Add(4*time.Minute), 3)
	// Burst two: four hours later.
	appendHistoryAt(t, flightRepo, flight.ID, base.Add(4*time.Hour), 4)

	clusters, err := usecase.ClustersForFlight(context.Background(), flight.ID)
	require.NoError(t, err)
	require.Len(t, clusters, 2)

	// Most recent burst first.
	assert.Len(t, clusters[0].Entries, 1)
	assert.Len(t, clusters[1].Entries, 3)
	assert.True(t, base.Equal(clusters[1].Start))
	assert.True(t, base.Add(4*time.Minute).Equal(clusters[1].End))
}

func TestPruneKeepsMostRecentClusters(t *testing.T) {
	db := newTestDB(t)
	flightRepo := ifrepo.NewGormFlightRepository(db)
	usecase := NewHistoryUsecase(flightRepo, logger.NewNop())
	flight := seedHistoryFlight(t, flightRepo)

	base := time.Date(2025, 12, 16, 8, 0, 0, 0, time.UTC)
	appendHistoryAt(t, flightRepo, flight.ID, base, 1)
	appendHistoryAt(t, flightRepo, flight.ID, base.Add(1*time.Minute), 2)
	appendHistoryAt(t, flightRepo, flight.ID, base.Add(6*time.Hour), 3)
	appendHistoryAt(t, flightRepo, flight.ID, base.Add(12*time.Hour), 4)

	result, err := usecase.Prune(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, 1, result.FlightsTouched)
	assert.Equal(t, 1, result.ClustersRemoved)
	assert.EqualValues(t, 2, result.EntriesRemoved)

	remaining, err := flightRepo.HistoryForFlight(context.Background(), flight.ID)
	require.NoError(t, err)
	require.Len(t, remaining, 2)
	assert.Equal(t, "entry 4", remaining[0].Description)
	assert.Equal(t, "entry 3", remaining[1].Description)
}

func TestPruneNoopWhenWithinBudget(t *testing.T) {
	db := newTestDB(t)
	flightRepo := ifrepo.NewGormFlightRepository(db)
	usecase := NewHistoryUsecase(flightRepo, logger.NewNop())
	flight := seedHistoryFlight(t, flightRepo)

	appendHistoryAt(t, flightRepo, flight.ID, time.Date(2025, 12, 16, 8, 0, 0, 0, time.UTC), 1)

	result, err := usecase.Prune(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, 0, result.FlightsTouched)
	assert.EqualValues(t, 0, result.EntriesRemoved)
}
