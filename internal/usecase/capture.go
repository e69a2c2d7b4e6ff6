package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"nocarchive-service/internal/domain/entity"
	"nocarchive-service/internal/domain/repository"
	"nocarchive-service/pkg/logger"
	"nocarchive-service/pkg/metrics"
	"nocarchive-service/pkg/utils"
)

// CaptureProcessor applies one operations-board snapshot to the entity
// store: upsert flights, rebuild crew edges, record field-level and
// crew-level change history.
type CaptureProcessor struct {
	flightRepo repository.FlightRepository
	crewRepo   repository.CrewRepository
	parser     *utils.BoardParser
	logger     logger.Logger
	metrics    *metrics.Metrics
}

// NewCaptureProcessor creates a new capture processor
func NewCaptureProcessor(
	flightRepo repository.FlightRepository,
	crewRepo repository.CrewRepository,
	parser *utils.BoardParser,
	logger logger.Logger,
	m *metrics.Metrics,
) *CaptureProcessor {
	return &CaptureProcessor{
		flightRepo: flightRepo,
		crewRepo:   crewRepo,
		parser:     parser,
		logger:     logger,
		metrics:    m,
	}
}

// CaptureResult is the handle returned by the local pass and consumed by
// the UTC backfill, so the second pass does not have to rediscover rows.
type CaptureResult struct {
	Day       time.Time
	FlightIDs map[string]uint
	Created   int
	Updated   int
	Unchanged int
	History   int
}

func captureKey(flightNumber string, date time.Time, dep, arr string) string {
	return fmt.Sprintf("%s|%s|%s|%s", flightNumber, date.Format("2006-01-02"), dep, arr)
}

// ProcessLocal applies the local-time snapshot for one scrape day. The
// local pass is authoritative: it creates rows, overwrites scalar fields
// and rebuilds crew edges. A malformed entry skips that entry only.
func (p *CaptureProcessor) ProcessLocal(ctx context.Context, html string, scrapeDay time.Time) (*CaptureResult, error) {
	flights, err := p.parser.ParseBoard(html, scrapeDay)
	if err != nil {
		return nil, err
	}

	result := &CaptureResult{
		Day:       utils.Midnight(scrapeDay),
		FlightIDs: make(map[string]uint),
	}

	for i := range flights {
		if err := p.upsertFlight(ctx, &flights[i], result); err != nil {
			p.logger.Error("Failed to upsert flight", "flight", flights[i].FlightNumber, "error", err)
			p.metrics.ParseErrors.WithLabelValues("capture").Inc()
		}
	}

	p.logger.Info("Local capture pass complete",
		"day", result.Day.Format("2006-01-02"),
		"created", result.Created, "updated", result.Updated,
		"unchanged", result.Unchanged, "history", result.History)
	return result, nil
}

func (p *CaptureProcessor) upsertFlight(ctx context.Context, bf *utils.BoardFlight, result *CaptureResult) error {
	existing, err := p.flightRepo.FindByKey(ctx, bf.FlightNumber, bf.Date, bf.DepartureAirport, bf.ArrivalAirport)
	if err != nil {
		return err
	}

	newRoster := rosterFromBoard(bf.Crew)

	if existing == nil {
		flight := &entity.Flight{
			FlightNumber:       bf.FlightNumber,
			Date:               bf.Date,
			ScheduledDeparture: bf.STD,
			ScheduledArrival:   bf.STA,
			STARaw:             bf.STARaw,
			TailNumber:         bf.TailNumber,
			DepartureAirport:   bf.DepartureAirport,
			ArrivalAirport:     bf.ArrivalAirport,
			AircraftType:       bf.AircraftType,
			Version:            bf.Version,
			Status:             bf.Status,
			PaxData:            bf.PaxData,
			LoadData:           bf.LoadData,
			NotesData:          bf.NotesData,
		}
		if err := p.flightRepo.Create(ctx, flight); err != nil {
			return err
		}
		// First creation writes no history: there is no prior capture to
		// diff against.
		if err := p.replaceCrew(ctx, flight.ID, bf.Crew); err != nil {
			return err
		}
		result.FlightIDs[captureKey(bf.FlightNumber, bf.Date, bf.DepartureAirport, bf.ArrivalAirport)] = flight.ID
		result.Created++
		p.metrics.FlightsCaptured.Inc()
		return nil
	}

	fieldDiff := diffFields(existing, bf)

	oldRoster, err := p.flightRepo.CrewOnBoard(ctx, existing.ID)
	if err != nil {
		return err
	}
	crewChanged := rosterChanged(oldRoster, newRoster)

	// Scalars are last-writer-wins on every re-capture.
	existing.ScheduledDeparture = bf.STD
	existing.ScheduledArrival = bf.STA
	existing.STARaw = bf.STARaw
	existing.TailNumber = bf.TailNumber
	existing.DepartureAirport = bf.DepartureAirport
	existing.ArrivalAirport = bf.ArrivalAirport
	existing.AircraftType = bf.AircraftType
	existing.Version = bf.Version
	existing.Status = bf.Status
	existing.PaxData = bf.PaxData
	existing.LoadData = bf.LoadData
	existing.NotesData = bf.NotesData
	if err := p.flightRepo.Update(ctx, existing); err != nil {
		return err
	}

	// The roster snapshot fully replaces the edge set regardless of the
	// diff outcome, so stale edges never survive a re-capture.
	if err := p.replaceCrew(ctx, existing.ID, bf.Crew); err != nil {
		return err
	}

	if len(fieldDiff) > 0 || crewChanged {
		if err := p.recordHistory(ctx, existing.ID, fieldDiff, crewChanged, oldRoster, newRoster); err != nil {
			return err
		}
		result.History++
		result.Updated++
		p.metrics.HistoryEntries.Inc()
	} else {
		result.Unchanged++
	}

	result.FlightIDs[captureKey(bf.FlightNumber, bf.Date, bf.DepartureAirport, bf.ArrivalAirport)] = existing.ID
	p.metrics.FlightsCaptured.Inc()
	return nil
}

// BackfillUTC applies the UTC-time snapshot. Only the UTC time-pair
// fields are written; rows never created here. The CaptureResult from the
// local pass short-circuits row rediscovery.
func (p *CaptureProcessor) BackfillUTC(ctx context.Context, html string, scrapeDay time.Time, result *CaptureResult) error {
	flights, err := p.parser.ParseBoard(html, scrapeDay)
	if err != nil {
		return err
	}

	// A red-eye resolves to a different calendar day in the UTC view, so
	// the local pass result is also indexed by number and route alone.
	routeIndex := make(map[string]uint)
	if result != nil {
		for key, id := range result.FlightIDs {
			parts := strings.SplitN(key, "|", 4)
			routeIndex[parts[0]+"|"+parts[2]+"|"+parts[3]] = id
		}
	}

	backfilled := 0
	for i := range flights {
		bf := &flights[i]

		var flightID uint
		if result != nil {
			flightID = result.FlightIDs[captureKey(bf.FlightNumber, bf.Date, bf.DepartureAirport, bf.ArrivalAirport)]
			if flightID == 0 {
				flightID = routeIndex[bf.FlightNumber+"|"+bf.DepartureAirport+"|"+bf.ArrivalAirport]
			}
		}
		if flightID == 0 {
			existing, err := p.flightRepo.FindByKey(ctx, bf.FlightNumber, bf.Date, bf.DepartureAirport, bf.ArrivalAirport)
			if err != nil {
				p.logger.Error("UTC backfill lookup failed", "flight", bf.FlightNumber, "error", err)
				continue
			}
			if existing == nil {
				// The UTC pass never creates flights.
				continue
			}
			flightID = existing.ID
		}

		if err := p.flightRepo.UpdateUTCTimes(ctx, flightID, bf.STD, bf.STA); err != nil {
			p.logger.Error("UTC backfill update failed", "flight", bf.FlightNumber, "error", err)
			continue
		}
		backfilled++
	}

	p.logger.Info("UTC backfill pass complete", "day", utils.Midnight(scrapeDay).Format("2006-01-02"), "backfilled", backfilled)
	return nil
}

func (p *CaptureProcessor) replaceCrew(ctx context.Context, flightID uint, crew []utils.BoardCrew) error {
	assignments := make([]entity.CrewAssignment, 0, len(crew))
	for _, c := range crew {
		member, err := p.crewRepo.FindOrCreate(ctx, c.EmployeeID, c.Name)
		if err != nil {
			return err
		}
		assignments = append(assignments, entity.CrewAssignment{
			FlightID: flightID,
			CrewID:   member.ID,
			Role:     c.Role,
			Flags:    c.Flags,
		})
	}
	return p.flightRepo.ReplaceCrew(ctx, flightID, assignments)
}

type fieldChange struct {
	Old string `json:"old"`
	New string `json:"new"`
}

type crewChange struct {
	Old []entity.CrewOnBoard `json:"old"`
	New []entity.CrewOnBoard `json:"new"`
}

type changeSet struct {
	Fields map[string]fieldChange `json:"fields,omitempty"`
	Crew   *crewChange            `json:"crew,omitempty"`
}

func (p *CaptureProcessor) recordHistory(ctx context.Context, flightID uint, fieldDiff map[string]fieldChange, crewChanged bool, oldRoster, newRoster []entity.CrewOnBoard) error {
	cs := changeSet{Fields: fieldDiff}

	var parts []string
	if len(fieldDiff) > 0 {
		names := make([]string, 0, len(fieldDiff))
		for name := range fieldDiff {
			names = append(names, name)
		}
		sort.Strings(names)
		parts = append(parts, "Updated "+strings.Join(names, ", "))
	}
	if crewChanged {
		// Both full snapshots are stored so consumers can render who left
		// and who joined.
		cs.Crew = &crewChange{Old: oldRoster, New: newRoster}
		parts = append(parts, "crew roster changed")
	}

	payload, err := json.Marshal(cs)
	if err != nil {
		return err
	}
	return p.flightRepo.AppendHistory(ctx, &entity.FlightHistory{
		FlightID:    flightID,
		Timestamp:   time.Now(),
		Changes:     string(payload),
		Description: strings.Join(parts, "; "),
	})
}

// diffFields compares the tracked scalar attributes of a stored flight
// against a fresh board entry. A nil-vs-empty-string pair is not a change.
func diffFields(existing *entity.Flight, bf *utils.BoardFlight) map[string]fieldChange {
	diff := make(map[string]fieldChange)

	compare := func(name, oldVal, newVal string) {
		if oldVal == newVal {
			return
		}
		if oldVal == "" && newVal == "" {
			return
		}
		diff[name] = fieldChange{Old: oldVal, New: newVal}
	}

	compare("tail_number", existing.TailNumber, bf.TailNumber)
	compare("scheduled_departure", timeString(existing.ScheduledDeparture), timeString(bf.STD))
	compare("scheduled_arrival", timeString(existing.ScheduledArrival), timeString(bf.STA))
	compare("departure_airport", existing.DepartureAirport, bf.DepartureAirport)
	compare("arrival_airport", existing.ArrivalAirport, bf.ArrivalAirport)
	compare("aircraft_type", existing.AircraftType, bf.AircraftType)
	compare("version", existing.Version, bf.Version)
	compare("status", existing.Status, bf.Status)

	return diff
}

func timeString(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02 15:04")
}

// rosterFromBoard builds the canonical roster snapshot of a board entry.
func rosterFromBoard(crew []utils.BoardCrew) []entity.CrewOnBoard {
	roster := make([]entity.CrewOnBoard, 0, len(crew))
	for _, c := range crew {
		roster = append(roster, entity.CrewOnBoard{
			EmployeeID: c.EmployeeID,
			Name:       c.Name,
			Role:       c.Role,
			Flags:      c.Flags,
		})
	}
	sortRoster(roster)
	return roster
}

func sortRoster(roster []entity.CrewOnBoard) {
	sort.Slice(roster, func(i, j int) bool {
		if roster[i].Role != roster[j].Role {
			return roster[i].Role < roster[j].Role
		}
		return roster[i].Name < roster[j].Name
	})
}

// rosterChanged compares the canonical serializations of two roster
// snapshots. Two empty rosters never count as changed.
func rosterChanged(oldRoster, newRoster []entity.CrewOnBoard) bool {
	if len(oldRoster) == 0 && len(newRoster) == 0 {
		return false
	}
	sortRoster(oldRoster)
	oldJSON, _ := json.Marshal(oldRoster)
	newJSON, _ := json.Marshal(newRoster)
	return string(oldJSON) != string(newJSON)
}
