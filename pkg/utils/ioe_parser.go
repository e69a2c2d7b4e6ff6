package utils

import (
	"regexp"
	"strings"
	"time"

	"nocarchive-service/pkg/logger"
)

// IOEParser extracts IOE assignments from the training-assignment report
// format. Records are an employee ID, a pairing number and a start date,
// either together on one line or with the date on a following line.
type IOEParser struct {
	logger logger.Logger
}

// NewIOEParser creates a new IOE parser
func NewIOEParser(logger logger.Logger) *IOEParser {
	return &IOEParser{logger: logger}
}

var (
	ioeDateRe    = regexp.MustCompile(`\b(\d{4}-\d{2}-\d{2})\b`)
	ioePairingRe = regexp.MustCompile(`^[A-Z]\d{4}$`)
)

// Boilerplate banners and column headers the report interleaves with data.
var ioeBannerPrefixes = []string{"-", "=", "IOE", "Period", "Category", "Employee", "Pairing"}

// ParseIOEFile parses the raw content of one IOE assignment file. Malformed
// lines are logged and skipped.
func (p *IOEParser) ParseIOEFile(content string) []IOERecord {
	lines := strings.Split(strings.ReplaceAll(content, "\r\n", "\n"), "\n")

	var records []IOERecord

	// Split records carry the id/pairing pair on one line and the date on
	// the next, so the most recently seen pair is tracked as state.
	pendingEmployee := ""
	pendingPairing := ""

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if p.isBanner(line) {
			continue
		}

		dateMatch := ioeDateRe.FindString(line)
		parts := strings.Fields(line)

		switch {
		case len(parts) >= 3 && dateMatch != "" && ioePairingRe.MatchString(parts[1]):
			dt, err := time.Parse("2006-01-02", dateMatch)
			if err != nil {
				p.logger.Warn("Skipping IOE line with bad date", "line", line)
				continue
			}
			records = append(records, IOERecord{
				EmployeeID:    parts[0],
				PairingNumber: parts[1],
				StartDate:     dt,
			})
			pendingEmployee = parts[0]
			pendingPairing = parts[1]

		case len(parts) >= 2 && dateMatch == "" && ioePairingRe.MatchString(parts[1]):
			pendingEmployee = parts[0]
			pendingPairing = parts[1]

		case len(parts) == 1 && dateMatch != "":
			if pendingEmployee == "" || pendingPairing == "" {
				p.logger.Warn("Dangling IOE date with no preceding assignment", "line", line)
				continue
			}
			dt, err := time.Parse("2006-01-02", dateMatch)
			if err != nil {
				continue
			}
			records = append(records, IOERecord{
				EmployeeID:    pendingEmployee,
				PairingNumber: pendingPairing,
				StartDate:     dt,
			})
		}
	}

	p.logger.Info("Parsed IOE assignments", "count", len(records))
	return records
}

// isBanner reports whether a line is boilerplate. A banner-like line that
// carries a real date is data, not boilerplate.
func (p *IOEParser) isBanner(line string) bool {
	if ioeDateRe.MatchString(line) {
		return false
	}
	for _, prefix := range ioeBannerPrefixes {
		if strings.HasPrefix(line, prefix) {
			return true
		}
	}
	return false
}
