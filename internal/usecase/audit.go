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

// ioeWindowDays bounds the fallback pairing-instance search when the exact
// start date has no scheduled legs.
const ioeWindowDays = 5

// AuditEngine reconciles planned IOE assignments against captured flight
// records for one bid period.
type AuditEngine struct {
	flightRepo   repository.FlightRepository
	scheduleRepo repository.ScheduleRepository
	logger       logger.Logger
}

// NewAuditEngine creates a new audit engine
func NewAuditEngine(
	flightRepo repository.FlightRepository,
	scheduleRepo repository.ScheduleRepository,
	logger logger.Logger,
) *AuditEngine {
	return &AuditEngine{
		flightRepo:   flightRepo,
		scheduleRepo: scheduleRepo,
		logger:       logger,
	}
}

// Run audits every IOE assignment of the given bid period as of now.
func (e *AuditEngine) Run(ctx context.Context, year, month int, now time.Time) (*entity.AuditReport, error) {
	periodStart, periodEnd, err := utils.BidPeriodRange(year, month)
	if err != nil {
		return nil, err
	}
	today := utils.Midnight(now)

	// Range queries are half-open; the period end day is inclusive.
	assignments, err := e.scheduleRepo.AssignmentsInRange(ctx, periodStart, periodEnd.AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}

	report := &entity.AuditReport{
		Year:        year,
		Month:       month,
		PeriodStart: periodStart,
		PeriodEnd:   periodEnd,
	}

	for _, a := range assignments {
		audit, err := e.auditAssignment(ctx, a, today)
		if err != nil {
			return nil, err
		}
		report.Assignments = append(report.Assignments, *audit)
	}

	report.Totals = tallyTotals(report.Assignments)

	unscheduled, adHoc, err := e.findUnscheduledIOE(ctx, periodStart, periodEnd, assignments)
	if err != nil {
		return nil, err
	}
	report.UnscheduledIOE = unscheduled
	report.AdHocPairings = adHoc

	e.logger.Info("IOE audit complete",
		"period", fmt.Sprintf("%d-%02d", year, month),
		"assignments", report.Totals.Assignments,
		"legs", report.Totals.Legs,
		"verified", report.Totals.Verified,
		"unscheduled", len(unscheduled))
	return report, nil
}

func (e *AuditEngine) auditAssignment(ctx context.Context, a *entity.IOEAssignment, today time.Time) (*entity.AssignmentAudit, error) {
	audit := &entity.AssignmentAudit{
		EmployeeID:    a.EmployeeID,
		PairingNumber: a.PairingNumber,
		StartDate:     a.StartDate,
	}

	legs, err := e.scheduleRepo.LegsByPairingStart(ctx, a.PairingNumber, a.StartDate)
	if err != nil {
		return nil, err
	}
	if len(legs) == 0 {
		// The exact instance is missing from the schedule data; any leg of
		// the pairing near the start date is better than nothing.
		legs, err = e.scheduleRepo.LegsByPairingWindow(ctx, a.PairingNumber, a.StartDate, a.StartDate.AddDate(0, 0, ioeWindowDays))
		if err != nil {
			return nil, err
		}
	}
	if len(legs) == 0 {
		audit.NoScheduleData = true
		return audit, nil
	}

	for _, leg := range legs {
		legAudit, err := e.auditLeg(ctx, a, leg, today)
		if err != nil {
			return nil, err
		}
		audit.Legs = append(audit.Legs, *legAudit)
		if legAudit.Status == entity.LegVerified {
			audit.LegsVerified++
		}
	}
	return audit, nil
}

func (e *AuditEngine) auditLeg(ctx context.Context, a *entity.IOEAssignment, leg *entity.ScheduledFlight, today time.Time) (*entity.LegAudit, error) {
	legAudit := &entity.LegAudit{
		FlightNumber: leg.FlightNumber,
		Date:         leg.Date,
	}
	future := leg.Date.After(today)

	flight, err := e.flightRepo.FindByAliases(ctx, utils.FlightNumberAliases(leg.FlightNumber), leg.Date)
	if err != nil {
		return nil, err
	}
	if flight == nil {
		switch {
		case future:
			legAudit.Status = entity.LegFutureNotScraped
		case leg.Date.Equal(today):
			legAudit.Status = entity.LegInProgress
		default:
			legAudit.Status = entity.LegNotScraped
		}
		return legAudit, nil
	}

	roster, err := e.flightRepo.CrewOnBoard(ctx, flight.ID)
	if err != nil {
		return nil, err
	}

	studentOnBoard := false
	foIOE := false
	for _, c := range roster {
		if c.EmployeeID == a.EmployeeID {
			studentOnBoard = true
		}
		if pilotIOEFlag(c) {
			legAudit.IOECrew = append(legAudit.IOECrew, fmt.Sprintf("%s (%s)", c.Name, c.Role))
			if strings.EqualFold(c.Role, "FO") {
				foIOE = true
			}
		}
	}

	// Future legs skip the student check; verification keys on the FO
	// seat carrying the IOE tag.
	if future {
		if foIOE {
			legAudit.Status = entity.LegFutureVerified
		} else {
			legAudit.Status = entity.LegFutureUnverified
		}
		return legAudit, nil
	}

	if !studentOnBoard {
		legAudit.Status = entity.LegStudentMissing
		legAudit.Detail = fmt.Sprintf("employee %s not on captured roster", a.EmployeeID)
		return legAudit, nil
	}

	if len(legAudit.IOECrew) > 0 {
		legAudit.Status = entity.LegVerified
	} else {
		legAudit.Status = entity.LegFlownNoIOE
	}
	return legAudit, nil
}

// pilotIOEFlag reports whether a roster entry carries a pilot-side IOE
// marker. Cabin crew tags never count toward pilot training verification.
func pilotIOEFlag(c entity.CrewOnBoard) bool {
	if strings.EqualFold(c.Role, "FA") {
		return false
	}
	return strings.Contains(c.Flags, "IOE")
}

func tallyTotals(assignments []entity.AssignmentAudit) entity.AuditTotals {
	totals := entity.AuditTotals{Assignments: len(assignments)}
	for _, a := range assignments {
		for _, leg := range a.Legs {
			totals.Legs++
			switch leg.Status {
			case entity.LegVerified, entity.LegFutureVerified:
				totals.Verified++
			case entity.LegFlownNoIOE:
				totals.FlownWithoutIOE++
			}
			switch leg.Status {
			case entity.LegFutureVerified, entity.LegFutureUnverified, entity.LegFutureNotScraped:
				totals.Future++
			}
		}
	}
	if totals.Legs > 0 {
		totals.VerifiedRate = float64(totals.Verified) / float64(totals.Legs)
		totals.FutureRate = float64(totals.Future) / float64(totals.Legs)
	}
	return totals
}

// findUnscheduledIOE scans every captured flight of the period for pilot
// IOE flags whose pairing is not on the official assignment list, and
// aggregates the off-list pairings.
func (e *AuditEngine) findUnscheduledIOE(ctx context.Context, periodStart, periodEnd time.Time, assignments []*entity.IOEAssignment) ([]entity.UnscheduledIOE, []entity.AdHocPairing, error) {
	officialPairings := make(map[string]bool)
	for _, a := range assignments {
		officialPairings[a.PairingNumber] = true
	}

	flights, err := e.flightRepo.ListByDateRange(ctx, periodStart, periodEnd.AddDate(0, 0, 1))
	if err != nil {
		return nil, nil, err
	}

	var unscheduled []entity.UnscheduledIOE
	type adHocAgg struct {
		totalLegs int
		ioeLegs   int
		firstDate time.Time
		lastDate  time.Time
	}
	adHocByPairing := make(map[string]*adHocAgg)

	for _, f := range flights {
		var pairingNumber string
		leg, err := e.scheduleRepo.FindByFlightDate(ctx, utils.StripCarrierPrefix(f.FlightNumber), f.Date)
		if err != nil {
			return nil, nil, err
		}
		if leg != nil {
			pairingNumber = leg.PairingNumber
		}
		// Any IOE flown under an officially assigned pairing is covered by
		// the assignment audit above.
		if pairingNumber != "" && officialPairings[pairingNumber] {
			continue
		}

		roster, err := e.flightRepo.CrewOnBoard(ctx, f.ID)
		if err != nil {
			return nil, nil, err
		}

		flightHasIOE := false
		for _, c := range roster {
			if !pilotIOEFlag(c) {
				continue
			}
			flightHasIOE = true
			unscheduled = append(unscheduled, entity.UnscheduledIOE{
				Date:          f.Date,
				FlightNumber:  f.FlightNumber,
				PairingNumber: pairingNumber,
				EmployeeID:    c.EmployeeID,
				Name:          c.Name,
				Role:          c.Role,
				Flags:         c.Flags,
				Route:         f.DepartureAirport + "-" + f.ArrivalAirport,
				TailNumber:    f.TailNumber,
			})
		}

		if pairingNumber != "" {
			agg := adHocByPairing[pairingNumber]
			if agg == nil {
				agg = &adHocAgg{firstDate: f.Date, lastDate: f.Date}
				adHocByPairing[pairingNumber] = agg
			}
			// One leg per captured flight regardless of how many crew
			// carry the tag.
			agg.totalLegs++
			if flightHasIOE {
				agg.ioeLegs++
			}
			if f.Date.Before(agg.firstDate) {
				agg.firstDate = f.Date
			}
			if f.Date.After(agg.lastDate) {
				agg.lastDate = f.Date
			}
		}
	}

	var adHoc []entity.AdHocPairing
	for pairing, agg := range adHocByPairing {
		if agg.ioeLegs == 0 {
			continue
		}
		adHoc = append(adHoc, entity.AdHocPairing{
			PairingNumber: pairing,
			TotalLegs:     agg.totalLegs,
			IOELegs:       agg.ioeLegs,
			FirstDate:     agg.firstDate,
			LastDate:      agg.lastDate,
		})
	}
	sort.Slice(adHoc, func(i, j int) bool { return adHoc[i].PairingNumber < adHoc[j].PairingNumber })

	sort.Slice(unscheduled, func(i, j int) bool {
		if !unscheduled[i].Date.Equal(unscheduled[j].Date) {
			return unscheduled[i].Date.Before(unscheduled[j].Date)
		}
		return unscheduled[i].FlightNumber < unscheduled[j].FlightNumber
	})
	return unscheduled, adHoc, nil
}

// CorrelatePairings joins every scheduled leg of the bid period to its
// captured flight, marking which legs were actually observed flown.
func (e *AuditEngine) CorrelatePairings(ctx context.Context, year, month int) ([]entity.PairingCorrelation, error) {
	periodStart, periodEnd, err := utils.BidPeriodRange(year, month)
	if err != nil {
		return nil, err
	}
	legs, err := e.scheduleRepo.ListScheduledInRange(ctx, periodStart, periodEnd.AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}

	correlations := make([]entity.PairingCorrelation, 0, len(legs))
	for _, leg := range legs {
		c := entity.PairingCorrelation{
			Date:          leg.Date,
			PairingNumber: leg.PairingNumber,
			FlightNumber:  leg.FlightNumber,
			Route:         leg.DepartureAirport + "-" + leg.ArrivalAirport,
			ScheduledTime: leg.ScheduledDeparture + "-" + leg.ScheduledArrival,
			BlockTime:     leg.BlockTime,
			TotalCredit:   leg.TotalCredit,
			IsDeadhead:    leg.IsDeadhead,
		}

		flight, err := e.flightRepo.FindByAliases(ctx, utils.FlightNumberAliases(leg.FlightNumber), leg.Date)
		if err != nil {
			return nil, err
		}
		if flight != nil {
			c.Flown = true
			roster, err := e.flightRepo.CrewOnBoard(ctx, flight.ID)
			if err != nil {
				return nil, err
			}
			for _, m := range roster {
				c.ActualCrew = append(c.ActualCrew, fmt.Sprintf("%s (%s)", m.Name, m.Role))
			}
		}
		correlations = append(correlations, c)
	}

	sort.Slice(correlations, func(i, j int) bool {
		if !correlations[i].Date.Equal(correlations[j].Date) {
			return correlations[i].Date.Before(correlations[j].Date)
		}
		if correlations[i].PairingNumber != correlations[j].PairingNumber {
			return correlations[i].PairingNumber < correlations[j].PairingNumber
		}
		return correlations[i].FlightNumber < correlations[j].FlightNumber
	})
	return correlations, nil
}
