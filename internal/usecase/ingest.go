package usecase

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"nocarchive-service/internal/domain/entity"
	"nocarchive-service/internal/domain/repository"
	"nocarchive-service/pkg/logger"
	"nocarchive-service/pkg/metrics"
	"nocarchive-service/pkg/utils"
)

// IngestStats counts what one ingestion run loaded.
type IngestStats struct {
	PairingFiles       int
	PairingBlocks      int
	ScheduledLegs      int
	IOEFiles           int
	Assignments        int
	ScheduledRemoved   int64
	AssignmentsRemoved int64
}

// IngestUsecase loads pairing and IOE report text files into the schedule
// store. Ingestion replaces wholesale: the previous scheduled rows are
// deleted before the fresh file contents are inserted.
type IngestUsecase struct {
	scheduleRepo  repository.ScheduleRepository
	pairingParser *utils.PairingParser
	ioeParser     *utils.IOEParser
	logger        logger.Logger
	metrics       *metrics.Metrics
}

// NewIngestUsecase creates a new ingest usecase
func NewIngestUsecase(
	scheduleRepo repository.ScheduleRepository,
	pairingParser *utils.PairingParser,
	ioeParser *utils.IOEParser,
	logger logger.Logger,
	m *metrics.Metrics,
) *IngestUsecase {
	return &IngestUsecase{
		scheduleRepo:  scheduleRepo,
		pairingParser: pairingParser,
		ioeParser:     ioeParser,
		logger:        logger,
		metrics:       m,
	}
}

// IngestPairingsDir parses every text file in dir and replaces the
// scheduled-flight table with the expanded legs.
func (u *IngestUsecase) IngestPairingsDir(ctx context.Context, dir string, stats *IngestStats) error {
	files, err := textFiles(dir)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no pairing files found in %s", dir)
	}

	var legs []*entity.ScheduledFlight
	for _, path := range files {
		content, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		blocks := u.pairingParser.ParsePairingFile(string(content))
		for _, block := range blocks {
			legs = append(legs, u.pairingParser.ExpandBlock(block)...)
		}
		stats.PairingFiles++
		stats.PairingBlocks += len(blocks)
		u.logger.Info("Parsed pairing file", "file", filepath.Base(path), "blocks", len(blocks))
	}

	removed, err := u.scheduleRepo.DeleteAllScheduled(ctx)
	if err != nil {
		return err
	}
	if err := u.scheduleRepo.InsertScheduled(ctx, legs); err != nil {
		return err
	}
	stats.ScheduledRemoved = removed
	stats.ScheduledLegs = len(legs)
	u.metrics.LegsIngested.Add(float64(len(legs)))
	return nil
}

// IngestIOEDir parses every text file in dir and replaces the IOE
// assignment table.
func (u *IngestUsecase) IngestIOEDir(ctx context.Context, dir string, stats *IngestStats) error {
	files, err := textFiles(dir)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no IOE files found in %s", dir)
	}

	var assignments []*entity.IOEAssignment
	for _, path := range files {
		content, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		records := u.ioeParser.ParseIOEFile(string(content))
		for _, rec := range records {
			assignments = append(assignments, &entity.IOEAssignment{
				EmployeeID:    rec.EmployeeID,
				PairingNumber: rec.PairingNumber,
				StartDate:     rec.StartDate,
			})
		}
		stats.IOEFiles++
		u.logger.Info("Parsed IOE file", "file", filepath.Base(path), "records", len(records))
	}

	removed, err := u.scheduleRepo.DeleteAllAssignments(ctx)
	if err != nil {
		return err
	}
	if err := u.scheduleRepo.InsertAssignments(ctx, assignments); err != nil {
		return err
	}
	stats.AssignmentsRemoved = removed
	stats.Assignments = len(assignments)
	return nil
}

// IngestAll loads both report kinds in one run.
func (u *IngestUsecase) IngestAll(ctx context.Context, pairingsDir, ioeDir string) (*IngestStats, error) {
	stats := &IngestStats{}
	if err := u.IngestPairingsDir(ctx, pairingsDir, stats); err != nil {
		return nil, err
	}
	if err := u.IngestIOEDir(ctx, ioeDir, stats); err != nil {
		return nil, err
	}
	u.logger.Info("Ingestion complete",
		"pairing_files", stats.PairingFiles, "legs", stats.ScheduledLegs,
		"ioe_files", stats.IOEFiles, "assignments", stats.Assignments)
	return stats, nil
}

func textFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(e.Name()), ".txt") {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}
