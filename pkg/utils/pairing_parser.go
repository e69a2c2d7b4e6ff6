package utils

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"nocarchive-service/internal/domain/entity"
	"nocarchive-service/pkg/logger"
)

// PairingParser extracts pairing blocks from the pairing-schedule report
// format and expands them into dated scheduled flight legs.
//
// The format is loosely delimited and varies across report vintages, so
// extraction is heuristic: a malformed block is dropped with a log line
// rather than failing the whole file.
type PairingParser struct {
	logger logger.Logger
}

// NewPairingParser creates a new pairing parser
func NewPairingParser(logger logger.Logger) *PairingParser {
	return &PairingParser{logger: logger}
}

var (
	// e.g. "I0001  Check-In 12:05  CA/FO ... December 2025"
	pairingHeaderRe = regexp.MustCompile(`^([A-Z]\d{4})\s+Check-In.*?\b(January|February|March|April|May|June|July|August|September|October|November|December)\s+(\d{4})`)
	crewCategoryRe  = regexp.MustCompile(`\b(CA/FO|FO/CA|CA|FO|FA)\b`)

	// Optional leading day-of-month, optional deadhead marker, flight
	// number, departure airport+time, arrival airport and optional time.
	pairingLegRe = regexp.MustCompile(`^\s*(\d{1,2})?\s+(DH\s+)?(\d{3,4})\s+([A-Z]{3})\s+(\d{2}:\d{2})\s+([A-Z]{3})\s*(\d{2}:\d{2})?`)

	pairingGridRe     = regexp.MustCompile(`\|(.*?)\|`)
	pairingGridDayRe  = regexp.MustCompile(`\b(\d{1,2})\b`)
	durationTokenRe   = regexp.MustCompile(`\b\d{1,2}:\d{2}\b`)
	totalCreditLineRe = regexp.MustCompile(`(?i)total\s+credit\D*?(\d{1,3}:\d{2})`)
)

// blockState is the per-block parser state threaded through the line
// dispatch loop.
type blockState struct {
	pairing     string
	category    string
	month       time.Time
	currentDay  int
	legs        []PairingLeg
	startDays   []int
	totalCredit string
}

// ParsePairingFile parses the raw content of one pairing report file and
// returns the committed blocks. Cabin-crew-only blocks are discarded.
func (p *PairingParser) ParsePairingFile(content string) []PairingBlock {
	lines := strings.Split(strings.ReplaceAll(content, "\r\n", "\n"), "\n")

	var blocks []PairingBlock
	var state *blockState

	commit := func() {
		if state == nil {
			return
		}
		if len(state.legs) == 0 || len(state.startDays) == 0 {
			if state.pairing != "" {
				p.logger.Warn("Dropping pairing block with no legs or start days",
					"pairing", state.pairing, "legs", len(state.legs), "startDays", len(state.startDays))
			}
			state = nil
			return
		}
		blocks = append(blocks, PairingBlock{
			PairingNumber: state.pairing,
			Category:      state.category,
			Month:         state.month,
			Legs:          state.legs,
			StartDays:     state.startDays,
			TotalCredit:   state.totalCredit,
		})
		state = nil
	}

	for _, line := range lines {
		if m := pairingHeaderRe.FindStringSubmatch(line); m != nil {
			commit()

			month, err := time.Parse("January 2006", m[2]+" "+m[3])
			if err != nil {
				p.logger.Warn("Pairing header with unparseable month", "line", line)
				continue
			}
			category := ""
			if cm := crewCategoryRe.FindStringSubmatch(line); cm != nil {
				category = cm[1]
			}
			if cabinCrewOnly(category) {
				p.logger.Debug("Skipping cabin-crew pairing", "pairing", m[1], "category", category)
				state = nil
				continue
			}
			state = &blockState{
				pairing:    m[1],
				category:   category,
				month:      month,
				currentDay: 1,
			}
			continue
		}

		if state == nil {
			continue
		}

		// The start-day grid shares lines with leg data; collect it before
		// stripping the framed part off.
		if gm := pairingGridRe.FindStringSubmatch(line); gm != nil {
			for _, dm := range pairingGridDayRe.FindAllStringSubmatch(gm[1], -1) {
				if day, err := strconv.Atoi(dm[1]); err == nil {
					state.startDays = append(state.startDays, day)
				}
			}
		}

		if tm := totalCreditLineRe.FindStringSubmatch(line); tm != nil {
			state.totalCredit = tm[1]
			continue
		}

		// Column caption row, not leg data.
		if strings.Contains(line, "Day") && strings.Contains(line, "Flt") {
			continue
		}

		legPart := strings.SplitN(line, "|", 2)[0]
		p.parseLegLine(state, legPart)
	}
	commit()

	p.logger.Info("Parsed pairing blocks", "count", len(blocks))
	return blocks
}

func (p *PairingParser) parseLegLine(state *blockState, line string) {
	loc := pairingLegRe.FindStringSubmatchIndex(line)
	if loc == nil {
		return
	}
	m := pairingLegRe.FindStringSubmatch(line)

	// Legs on the same day as the prior leg omit the day column.
	if m[1] != "" {
		if day, err := strconv.Atoi(m[1]); err == nil {
			state.currentDay = day
		}
	}

	leg := PairingLeg{
		Day:          state.currentDay,
		FlightNumber: m[3],
		DepAirport:   m[4],
		DepTime:      m[5],
		ArrAirport:   m[6],
		ArrTime:      m[7],
		IsDeadhead:   m[2] != "",
	}

	// Everything after the matched route is the trailing duration-token
	// run: turn, block, duty, credit in some order depending on vintage.
	trailing := durationTokenRe.FindAllString(line[loc[1]:], -1)
	leg.BlockTime, leg.CreditTime = assignDurations(trailing)

	state.legs = append(state.legs, leg)
}

// assignDurations maps the trailing duration tokens of a leg line to
// (block, credit). The token count and meaning vary by report vintage;
// empirically the last two tokens are block and credit when two or more
// are present, and a sole token is the block time.
func assignDurations(tokens []string) (block, credit string) {
	switch {
	case len(tokens) >= 2:
		return tokens[len(tokens)-2], tokens[len(tokens)-1]
	case len(tokens) == 1:
		return tokens[0], ""
	default:
		return "", ""
	}
}

// cabinCrewOnly reports whether a crew category denotes flight-attendant
// crew with no captain or first-officer seat.
func cabinCrewOnly(category string) bool {
	if category == "" {
		return false
	}
	up := strings.ToUpper(category)
	return strings.Contains(up, "FA") && !strings.Contains(up, "CA") && !strings.Contains(up, "FO")
}

// ExpandBlock instantiates a pairing block once per valid trip-start day.
// A start-day candidate is tried in the block's stated month, then the
// prior month, then the following month; the bid period of the stated
// month is the authoritative filter against month overflow. Leg dates are
// the start date plus the leg's day offset minus one.
func (p *PairingParser) ExpandBlock(block PairingBlock) []*entity.ScheduledFlight {
	periodStart, periodEnd, err := BidPeriodRange(block.Month.Year(), int(block.Month.Month()))
	if err != nil {
		p.logger.Warn("Pairing block outside any bid period", "pairing", block.PairingNumber, "error", err)
		return nil
	}

	var out []*entity.ScheduledFlight
	for _, startDay := range block.StartDays {
		startDate, ok := resolveStartDate(block.Month, startDay, periodStart, periodEnd)
		if !ok {
			p.logger.Debug("Rejecting start day outside bid period",
				"pairing", block.PairingNumber, "day", startDay)
			continue
		}

		for _, leg := range block.Legs {
			credit := leg.CreditTime
			if block.TotalCredit != "" {
				// The pairing total overrides the per-leg heuristic.
				credit = block.TotalCredit
			}
			out = append(out, &entity.ScheduledFlight{
				PairingNumber:      block.PairingNumber,
				FlightNumber:       leg.FlightNumber,
				Date:               startDate.AddDate(0, 0, leg.Day-1),
				DepartureAirport:   leg.DepAirport,
				ArrivalAirport:     leg.ArrAirport,
				ScheduledDeparture: leg.DepTime,
				ScheduledArrival:   leg.ArrTime,
				BlockTime:          leg.BlockTime,
				TotalCredit:        credit,
				PairingStartDate:   startDate,
				IsDeadhead:         leg.IsDeadhead,
			})
		}
	}
	return out
}

// resolveStartDate places a day-of-month candidate on the calendar. Trips
// in the tail of the previous calendar month are reported under the
// following month's bid period, hence the prior-month retry.
func resolveStartDate(month time.Time, day int, periodStart, periodEnd time.Time) (time.Time, bool) {
	for _, offset := range []int{0, -1, 1} {
		m := month.AddDate(0, offset, 0)
		candidate, ok := makeDate(m.Year(), m.Month(), day)
		if !ok {
			continue
		}
		if !candidate.Before(periodStart) && !candidate.After(periodEnd) {
			return candidate, true
		}
	}
	return time.Time{}, false
}

// makeDate builds a date, rejecting day values the month does not have.
func makeDate(year int, month time.Month, day int) (time.Time, bool) {
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day || t.Month() != month {
		return time.Time{}, false
	}
	return t, true
}
