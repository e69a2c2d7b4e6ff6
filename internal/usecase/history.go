package usecase

import (
	"context"
	"sort"
	"time"

	"nocarchive-service/internal/domain/entity"
	"nocarchive-service/internal/domain/repository"
	"nocarchive-service/pkg/logger"
)

// clusterGap is the maximum spacing between two history entries that still
// belong to the same capture burst.
const clusterGap = 5 * time.Minute

// HistoryCluster groups the history entries one capture burst produced for
// one flight.
type HistoryCluster struct {
	FlightID uint
	Start    time.Time
	End      time.Time
	Entries  []*entity.FlightHistory
}

// PruneResult counts what one prune run removed.
type PruneResult struct {
	FlightsTouched  int
	ClustersRemoved int
	EntriesRemoved  int64
}

// HistoryUsecase reads the change log in capture-burst clusters and prunes
// old bursts.
type HistoryUsecase struct {
	flightRepo repository.FlightRepository
	logger     logger.Logger
}

// NewHistoryUsecase creates a new history usecase
func NewHistoryUsecase(flightRepo repository.FlightRepository, logger logger.Logger) *HistoryUsecase {
	return &HistoryUsecase{
		flightRepo: flightRepo,
		logger:     logger,
	}
}

// ClustersForFlight returns a flight's change log grouped into capture
// bursts, most recent first.
func (u *HistoryUsecase) ClustersForFlight(ctx context.Context, flightID uint) ([]HistoryCluster, error) {
	entries, err := u.flightRepo.HistoryForFlight(ctx, flightID)
	if err != nil {
		return nil, err
	}
	return clusterHistory(flightID, entries), nil
}

// Prune keeps the most recent keep clusters of every flight and deletes
// the entries of all older clusters.
func (u *HistoryUsecase) Prune(ctx context.Context, keep int) (*PruneResult, error) {
	entries, err := u.flightRepo.ListHistory(ctx)
	if err != nil {
		return nil, err
	}

	byFlight := make(map[uint][]*entity.FlightHistory)
	for _, e := range entries {
		byFlight[e.FlightID] = append(byFlight[e.FlightID], e)
	}

	result := &PruneResult{}
	var doomed []uint
	for flightID, flightEntries := range byFlight {
		clusters := clusterHistory(flightID, flightEntries)
		if len(clusters) <= keep {
			continue
		}
		result.FlightsTouched++
		for _, cluster := range clusters[keep:] {
			result.ClustersRemoved++
			for _, e := range cluster.Entries {
				doomed = append(doomed, e.ID)
			}
		}
	}

	removed, err := u.flightRepo.DeleteHistoryByIDs(ctx, doomed)
	if err != nil {
		return nil, err
	}
	result.EntriesRemoved = removed

	u.logger.Info("History prune complete",
		"keep", keep, "flights", result.FlightsTouched,
		"clusters", result.ClustersRemoved, "entries", result.EntriesRemoved)
	return result, nil
}

// clusterHistory splits one flight's entries into bursts, most recent
// first. Entries within clusterGap of their neighbor share a burst.
func clusterHistory(flightID uint, entries []*entity.FlightHistory) []HistoryCluster {
	if len(entries) == 0 {
		return nil
	}
	sorted := make([]*entity.FlightHistory, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Timestamp.After(sorted[j].Timestamp) })

	var clusters []HistoryCluster
	current := HistoryCluster{
		FlightID: flightID,
		Start:    sorted[0].Timestamp,
		End:      sorted[0].Timestamp,
		Entries:  []*entity.FlightHistory{sorted[0]},
	}
	for _, e := range sorted[1:] {
		last := current.Entries[len(current.Entries)-1]
		if last.Timestamp.Sub(e.Timestamp) > clusterGap {
			clusters = append(clusters, current)
			current = HistoryCluster{FlightID: flightID, Start: e.Timestamp, End: e.Timestamp, Entries: nil}
		}
		current.Entries = append(current.Entries, e)
		if e.Timestamp.Before(current.Start) {
			current.Start = e.Timestamp
		}
		if e.Timestamp.After(current.End) {
			current.End = e.Timestamp
		}
	}
	clusters = append(clusters, current)
	return clusters
}
