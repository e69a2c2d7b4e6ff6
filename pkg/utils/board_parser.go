package utils

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"nocarchive-service/pkg/logger"
)

// BoardParser extracts flight entries from an operations-board HTML
// snapshot. Only the departures panel is read: the arrivals panel lists
// the same physical flights again under the adjacent day.
type BoardParser struct {
	logger logger.Logger
}

// NewBoardParser creates a new board parser
func NewBoardParser(logger logger.Logger) *BoardParser {
	return &BoardParser{logger: logger}
}

var (
	brTagRe        = regexp.MustCompile(`(?i)<br\s*/?>`)
	fourDigitsRe   = regexp.MustCompile(`^\d{4}$`)
	boardDateRe    = regexp.MustCompile(`^(\d{2})([A-Za-z]{3})(\d{2})$`)
)

// ParseBoard parses one board snapshot requested for scrapeDay. A
// malformed flight entry is logged and skipped; siblings keep parsing.
func (p *BoardParser) ParseBoard(html string, scrapeDay time.Time) ([]BoardFlight, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse board html: %w", err)
	}

	day := Midnight(scrapeDay)

	items := doc.Find("div#MasterMain_panelUpper div.ListItem")
	if items.Length() == 0 {
		// Panel id missing on some report vintages.
		items = doc.Find("div.ListItem")
	}

	var flights []BoardFlight
	items.Each(func(_ int, item *goquery.Selection) {
		flight, err := p.parseItem(item, day)
		if err != nil {
			p.logger.Warn("Skipping malformed board entry", "error", err)
			return
		}
		flights = append(flights, *flight)
	})

	p.logger.Info("Parsed operations board", "day", day.Format("2006-01-02"), "flights", len(flights))
	return flights, nil
}

func (p *BoardParser) parseItem(item *goquery.Selection, day time.Time) (*BoardFlight, error) {
	flightNumber := strings.TrimSpace(item.Find("div.ItemHeader table td").First().Text())
	if flightNumber == "" {
		return nil, fmt.Errorf("entry without flight number")
	}

	details := map[string]*goquery.Selection{}
	item.Find("table.ItemChildTableDetails tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() >= 2 {
			key := strings.TrimSpace(cells.Eq(0).Text())
			details[key] = cells.Eq(1)
		}
	})

	text := func(key string) string {
		if cell, ok := details[key]; ok {
			return strings.TrimSpace(cell.Text())
		}
		return ""
	}

	staRaw := text("STA")
	std := ParseBoardTime(day, text("STD"))
	sta := ParseBoardTime(day, staRaw)

	flight := &BoardFlight{
		FlightNumber:     flightNumber,
		Date:             ResolveFlightDate(std, day),
		STD:              std,
		STA:              sta,
		STARaw:           staRaw,
		TailNumber:       text("Registration"),
		DepartureAirport: text("Departure"),
		ArrivalAirport:   text("Arrival"),
		AircraftType:     text("Type"),
		Version:          text("Version"),
		Status:           text("Status"),
		PaxData:          text("Pax"),
		LoadData:         text("Load"),
		NotesData:        text("Notes"),
	}

	if crewCell, ok := details["Crew On Board"]; ok {
		flight.Crew = p.parseCrewBlock(crewCell)
	}

	return flight, nil
}

// parseCrewBlock splits the multi-line roster cell and parses each line.
func (p *BoardParser) parseCrewBlock(cell *goquery.Selection) []BoardCrew {
	html, err := cell.Html()
	if err != nil {
		return nil
	}
	text := brTagRe.ReplaceAllString(html, "\n")
	inner, err := goquery.NewDocumentFromReader(strings.NewReader("<div>" + text + "</div>"))
	if err != nil {
		return nil
	}

	var crew []BoardCrew
	for _, line := range strings.Split(inner.Text(), "\n") {
		if member, ok := ParseCrewLine(line); ok {
			crew = append(crew, member)
		}
	}
	return crew
}

// ParseCrewLine parses one roster line of the form
// "<ROLE> - <EMPLOYEE_ID> <FULL NAME>(<FLAGS>) <emailish-token>".
func ParseCrewLine(line string) (BoardCrew, bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return BoardCrew{}, false
	}
	parts := strings.SplitN(line, " - ", 2)
	if len(parts) < 2 {
		return BoardCrew{}, false
	}
	role := strings.TrimSpace(parts[0])
	rest := strings.TrimSpace(parts[1])

	fields := strings.SplitN(rest, " ", 2)
	employeeID := fields[0]
	name := ""
	if len(fields) > 1 {
		name = strings.TrimSpace(fields[1])
	}

	flags := ""
	if open := strings.Index(name, "("); open != -1 {
		if end := strings.Index(name, ")"); end > open {
			flags = name[open+1 : end]
			name = strings.TrimSpace(name[:open])
		}
	}

	// Some vintages append an email-like artifact after the name.
	nameParts := strings.Fields(name)
	if len(nameParts) > 0 && strings.Contains(nameParts[len(nameParts)-1], "@") {
		name = strings.Join(nameParts[:len(nameParts)-1], " ")
	}

	return BoardCrew{
		Role:       role,
		EmployeeID: employeeID,
		Name:       name,
		Flags:      flags,
	}, true
}

// ParseBoardTime parses a board time cell against the requested day. Two
// forms appear: a 4-digit HHMM same-day value, and the cross-midnight
// combined form "HHMM : DDMMMYY".
func ParseBoardTime(day time.Time, raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	if before, after, found := strings.Cut(raw, " : "); found {
		date, ok := parseBoardDate(strings.TrimSpace(after))
		if !ok {
			return nil
		}
		h, m, ok := parseHHMM(strings.TrimSpace(before))
		if !ok {
			return nil
		}
		t := time.Date(date.Year(), date.Month(), date.Day(), h, m, 0, 0, time.UTC)
		return &t
	}

	if fourDigitsRe.MatchString(raw) {
		h, m, ok := parseHHMM(raw)
		if !ok {
			return nil
		}
		t := time.Date(day.Year(), day.Month(), day.Day(), h, m, 0, 0, time.UTC)
		return &t
	}

	return nil
}

// ResolveFlightDate returns the canonical calendar day a flight is keyed
// under: the midnight of its scheduled local departure, falling back to
// the scrape day when no departure time parsed.
func ResolveFlightDate(std *time.Time, scrapeDay time.Time) time.Time {
	if std != nil {
		return Midnight(*std)
	}
	return Midnight(scrapeDay)
}

func parseHHMM(s string) (int, int, bool) {
	if !fourDigitsRe.MatchString(s) {
		return 0, 0, false
	}
	h, err1 := strconv.Atoi(s[:2])
	m, err2 := strconv.Atoi(s[2:])
	if err1 != nil || err2 != nil || h > 23 || m > 59 {
		return 0, 0, false
	}
	return h, m, true
}

// parseBoardDate parses the "DDMMMYY" form, e.g. "16DEC25".
func parseBoardDate(s string) (time.Time, bool) {
	m := boardDateRe.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, false
	}
	normalized := m[1] + strings.ToUpper(m[2][:1]) + strings.ToLower(m[2][1:]) + m[3]
	t, err := time.Parse("02Jan06", normalized)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
