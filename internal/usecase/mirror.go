package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"nocarchive-service/internal/domain/entity"
	"nocarchive-service/internal/domain/repository"
	"nocarchive-service/pkg/logger"
	"nocarchive-service/pkg/utils"
)

const (
	mirrorDateLayout = "2006-01-02"
	mirrorTimeLayout = "2006-01-02 15:04"
)

// MirrorStats counts documents moved per category in one mirror run.
type MirrorStats struct {
	Flights     int
	Pairings    int
	Assignments int
	Metadata    int
}

// MirrorUsecase copies the entity store to the cloud document mirror and
// restores it back. One document per flight keeps documents small; legs of
// one pairing instance share a single document.
type MirrorUsecase struct {
	flightRepo   repository.FlightRepository
	crewRepo     repository.CrewRepository
	scheduleRepo repository.ScheduleRepository
	metaRepo     repository.MetadataRepository
	store        repository.DocumentStore
	logger       logger.Logger
}

// NewMirrorUsecase creates a new mirror usecase
func NewMirrorUsecase(
	flightRepo repository.FlightRepository,
	crewRepo repository.CrewRepository,
	scheduleRepo repository.ScheduleRepository,
	metaRepo repository.MetadataRepository,
	store repository.DocumentStore,
	logger logger.Logger,
) *MirrorUsecase {
	return &MirrorUsecase{
		flightRepo:   flightRepo,
		crewRepo:     crewRepo,
		scheduleRepo: scheduleRepo,
		metaRepo:     metaRepo,
		store:        store,
		logger:       logger,
	}
}

// UploadAll mirrors the full entity store.
func (u *MirrorUsecase) UploadAll(ctx context.Context) (*MirrorStats, error) {
	stats := &MirrorStats{}

	flights, err := u.flightRepo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	for _, f := range flights {
		if err := u.uploadFlight(ctx, f); err != nil {
			return nil, err
		}
		stats.Flights++
	}

	n, err := u.uploadPairings(ctx)
	if err != nil {
		return nil, err
	}
	stats.Pairings = n

	assignments, err := u.scheduleRepo.ListAllAssignments(ctx)
	if err != nil {
		return nil, err
	}
	for _, a := range assignments {
		docID := fmt.Sprintf("%s_%s_%s", a.EmployeeID, a.PairingNumber, a.StartDate.Format("20060102"))
		err := u.store.Put(ctx, repository.CollectionIOE, sanitizeDocID(docID), map[string]interface{}{
			"employee_id":    a.EmployeeID,
			"pairing_number": a.PairingNumber,
			"start_date":     a.StartDate.Format(mirrorDateLayout),
		})
		if err != nil {
			return nil, err
		}
		stats.Assignments++
	}

	for _, key := range []string{
		entity.MetaLastSuccessfulSync,
		entity.MetaNextScheduledScrape,
		entity.MetaScrapeIntervalHours,
		entity.MetaScrapeDays,
		entity.MetaCloudSyncEnabled,
	} {
		value := u.metaRepo.GetOrDefault(ctx, key, "")
		if value == "" {
			continue
		}
		if err := u.store.Put(ctx, repository.CollectionMetadata, key, map[string]interface{}{"value": value}); err != nil {
			return nil, err
		}
		stats.Metadata++
	}

	u.logger.Info("Mirror upload complete",
		"flights", stats.Flights, "pairings", stats.Pairings,
		"assignments", stats.Assignments, "metadata", stats.Metadata)
	return stats, nil
}

// UploadDay mirrors the captured flights of one day, used after each sweep
// when cloud sync is enabled.
func (u *MirrorUsecase) UploadDay(ctx context.Context, day time.Time) (int, error) {
	day = utils.Midnight(day)
	flights, err := u.flightRepo.ListByDateRange(ctx, day, day.AddDate(0, 0, 1))
	if err != nil {
		return 0, err
	}
	for _, f := range flights {
		if err := u.uploadFlight(ctx, f); err != nil {
			return 0, err
		}
	}
	return len(flights), nil
}

func (u *MirrorUsecase) uploadFlight(ctx context.Context, f *entity.Flight) error {
	roster, err := u.flightRepo.CrewOnBoard(ctx, f.ID)
	if err != nil {
		return err
	}

	crew := make([]interface{}, 0, len(roster))
	for _, c := range roster {
		crew = append(crew, map[string]interface{}{
			"employee_id": c.EmployeeID,
			"name":        c.Name,
			"role":        c.Role,
			"flags":       c.Flags,
		})
	}

	docID := fmt.Sprintf("%s_%s_%s-%s",
		f.Date.Format(mirrorDateLayout), f.FlightNumber, f.DepartureAirport, f.ArrivalAirport)
	doc := map[string]interface{}{
		"day":                     f.Date.Format(mirrorDateLayout),
		"flight_number":           f.FlightNumber,
		"date":                    f.Date.Format(mirrorDateLayout),
		"scheduled_departure":     mirrorTime(f.ScheduledDeparture),
		"scheduled_arrival":       mirrorTime(f.ScheduledArrival),
		"scheduled_departure_utc": mirrorTime(f.ScheduledDepartureUTC),
		"scheduled_arrival_utc":   mirrorTime(f.ScheduledArrivalUTC),
		"sta_raw":                 f.STARaw,
		"tail_number":             f.TailNumber,
		"departure_airport":       f.DepartureAirport,
		"arrival_airport":         f.ArrivalAirport,
		"aircraft_type":           f.AircraftType,
		"version":                 f.Version,
		"status":                  f.Status,
		"pax_data":                f.PaxData,
		"load_data":               f.LoadData,
		"notes_data":              f.NotesData,
		"crew":                    crew,
	}
	return u.store.Put(ctx, repository.CollectionDailyFlights, sanitizeDocID(docID), doc)
}

func (u *MirrorUsecase) uploadPairings(ctx context.Context) (int, error) {
	legs, err := u.scheduleRepo.ListAllScheduled(ctx)
	if err != nil {
		return 0, err
	}

	type instanceKey struct {
		pairing string
		start   string
	}
	instances := make(map[instanceKey][]*entity.ScheduledFlight)
	for _, leg := range legs {
		key := instanceKey{leg.PairingNumber, leg.PairingStartDate.Format("20060102")}
		instances[key] = append(instances[key], leg)
	}

	count := 0
	for key, legs := range instances {
		sort.Slice(legs, func(i, j int) bool { return legs[i].Date.Before(legs[j].Date) })
		legDocs := make([]interface{}, 0, len(legs))
		for _, leg := range legs {
			legDocs = append(legDocs, map[string]interface{}{
				"flight_number":       leg.FlightNumber,
				"date":                leg.Date.Format(mirrorDateLayout),
				"departure_airport":   leg.DepartureAirport,
				"arrival_airport":     leg.ArrivalAirport,
				"scheduled_departure": leg.ScheduledDeparture,
				"scheduled_arrival":   leg.ScheduledArrival,
				"block_time":          leg.BlockTime,
				"total_credit":        leg.TotalCredit,
				"is_deadhead":         leg.IsDeadhead,
			})
		}
		doc := map[string]interface{}{
			"pairing_number": key.pairing,
			"start_date":     legs[0].PairingStartDate.Format(mirrorDateLayout),
			"legs":           legDocs,
		}
		docID := fmt.Sprintf("%s_%s", key.pairing, key.start)
		if err := u.store.Put(ctx, repository.CollectionPairings, sanitizeDocID(docID), doc); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

// Restore rebuilds the entity store from the mirror. Flights merge into
// the existing store; pairings and assignments are replaced wholesale the
// same way text re-ingestion replaces them.
func (u *MirrorUsecase) Restore(ctx context.Context) (*MirrorStats, error) {
	stats := &MirrorStats{}

	err := u.store.Stream(ctx, repository.CollectionDailyFlights, func(docID string, data map[string]interface{}) error {
		if err := u.restoreFlight(ctx, data); err != nil {
			u.logger.Error("Failed to restore flight document", "doc", docID, "error", err)
			return nil
		}
		stats.Flights++
		return nil
	})
	if err != nil {
		return nil, err
	}

	var scheduled []*entity.ScheduledFlight
	err = u.store.Stream(ctx, repository.CollectionPairings, func(docID string, data map[string]interface{}) error {
		scheduled = append(scheduled, pairingLegsFromDoc(data)...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(scheduled) > 0 {
		if _, err := u.scheduleRepo.DeleteAllScheduled(ctx); err != nil {
			return nil, err
		}
		if err := u.scheduleRepo.InsertScheduled(ctx, scheduled); err != nil {
			return nil, err
		}
	}
	stats.Pairings = len(scheduled)

	var assignments []*entity.IOEAssignment
	err = u.store.Stream(ctx, repository.CollectionIOE, func(docID string, data map[string]interface{}) error {
		start, err := time.ParseInLocation(mirrorDateLayout, docString(data, "start_date"), time.UTC)
		if err != nil {
			return nil
		}
		assignments = append(assignments, &entity.IOEAssignment{
			EmployeeID:    docString(data, "employee_id"),
			PairingNumber: docString(data, "pairing_number"),
			StartDate:     start,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(assignments) > 0 {
		if _, err := u.scheduleRepo.DeleteAllAssignments(ctx); err != nil {
			return nil, err
		}
		if err := u.scheduleRepo.InsertAssignments(ctx, assignments); err != nil {
			return nil, err
		}
	}
	stats.Assignments = len(assignments)

	err = u.store.Stream(ctx, repository.CollectionMetadata, func(docID string, data map[string]interface{}) error {
		if value := docString(data, "value"); value != "" {
			if err := u.metaRepo.Set(ctx, docID, value); err != nil {
				return err
			}
			stats.Metadata++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	u.logger.Info("Mirror restore complete",
		"flights", stats.Flights, "pairing_legs", stats.Pairings,
		"assignments", stats.Assignments, "metadata", stats.Metadata)
	return stats, nil
}

func (u *MirrorUsecase) restoreFlight(ctx context.Context, data map[string]interface{}) error {
	date, err := time.ParseInLocation(mirrorDateLayout, docString(data, "date"), time.UTC)
	if err != nil {
		return fmt.Errorf("bad date in flight document: %w", err)
	}
	flightNumber := docString(data, "flight_number")
	dep := docString(data, "departure_airport")
	arr := docString(data, "arrival_airport")

	flight, err := u.flightRepo.FindByKey(ctx, flightNumber, date, dep, arr)
	if err != nil {
		return err
	}
	if flight == nil {
		flight = &entity.Flight{FlightNumber: flightNumber, Date: date}
	}

	flight.ScheduledDeparture = parseMirrorTime(docString(data, "scheduled_departure"))
	flight.ScheduledArrival = parseMirrorTime(docString(data, "scheduled_arrival"))
	flight.ScheduledDepartureUTC = parseMirrorTime(docString(data, "scheduled_departure_utc"))
	flight.ScheduledArrivalUTC = parseMirrorTime(docString(data, "scheduled_arrival_utc"))
	flight.STARaw = docString(data, "sta_raw")
	flight.TailNumber = docString(data, "tail_number")
	flight.DepartureAirport = dep
	flight.ArrivalAirport = arr
	flight.AircraftType = docString(data, "aircraft_type")
	flight.Version = docString(data, "version")
	flight.Status = docString(data, "status")
	flight.PaxData = docString(data, "pax_data")
	flight.LoadData = docString(data, "load_data")
	flight.NotesData = docString(data, "notes_data")

	if flight.ID == 0 {
		if err := u.flightRepo.Create(ctx, flight); err != nil {
			return err
		}
	} else if err := u.flightRepo.Update(ctx, flight); err != nil {
		return err
	}

	crewDocs, _ := data["crew"].([]interface{})
	assignments := make([]entity.CrewAssignment, 0, len(crewDocs))
	for _, raw := range crewDocs {
		c, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}
		member, err := u.crewRepo.FindOrCreate(ctx, docString(c, "employee_id"), docString(c, "name"))
		if err != nil {
			return err
		}
		assignments = append(assignments, entity.CrewAssignment{
			FlightID: flight.ID,
			CrewID:   member.ID,
			Role:     docString(c, "role"),
			Flags:    docString(c, "flags"),
		})
	}
	return u.flightRepo.ReplaceCrew(ctx, flight.ID, assignments)
}

func pairingLegsFromDoc(data map[string]interface{}) []*entity.ScheduledFlight {
	pairing := docString(data, "pairing_number")
	start, err := time.ParseInLocation(mirrorDateLayout, docString(data, "start_date"), time.UTC)
	if err != nil {
		return nil
	}
	legDocs, _ := data["legs"].([]interface{})

	legs := make([]*entity.ScheduledFlight, 0, len(legDocs))
	for _, raw := range legDocs {
		doc, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}
		date, err := time.ParseInLocation(mirrorDateLayout, docString(doc, "date"), time.UTC)
		if err != nil {
			continue
		}
		deadhead, _ := doc["is_deadhead"].(bool)
		legs = append(legs, &entity.ScheduledFlight{
			PairingNumber:      pairing,
			FlightNumber:       docString(doc, "flight_number"),
			Date:               date,
			DepartureAirport:   docString(doc, "departure_airport"),
			ArrivalAirport:     docString(doc, "arrival_airport"),
			ScheduledDeparture: docString(doc, "scheduled_departure"),
			ScheduledArrival:   docString(doc, "scheduled_arrival"),
			BlockTime:          docString(doc, "block_time"),
			TotalCredit:        docString(doc, "total_credit"),
			PairingStartDate:   start,
			IsDeadhead:         deadhead,
		})
	}
	return legs
}

func docString(data map[string]interface{}, key string) string {
	s, _ := data[key].(string)
	return s
}

func mirrorTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(mirrorTimeLayout)
}

func parseMirrorTime(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.ParseInLocation(mirrorTimeLayout, s, time.UTC)
	if err != nil {
		return nil
	}
	return &t
}

// sanitizeDocID strips path separators that document IDs cannot carry.
func sanitizeDocID(id string) string {
	return strings.ReplaceAll(id, "/", "_")
}
