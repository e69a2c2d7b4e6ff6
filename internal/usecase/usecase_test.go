package usecase

import (
	"path/filepath"
	"strings"
	"testing"

	ifrepo "nocarchive-service/internal/interface/repository"
	"nocarchive-service/pkg/logger"
	"nocarchive-service/pkg/metrics"
	"nocarchive-service/pkg/utils"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var testMetrics = metrics.NewMetrics("nocarchive_test")

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, ifrepo.AutoMigrate(db))
	return db
}

func newCaptureProcessor(t *testing.T, db *gorm.DB) *CaptureProcessor {
	t.Helper()
	return NewCaptureProcessor(
		ifrepo.NewGormFlightRepository(db),
		ifrepo.NewGormCrewRepository(db),
		utils.NewBoardParser(logger.NewNop()),
		logger.NewNop(),
		testMetrics,
	)
}

// boardHTML assembles an operations-board snapshot from entry fragments.
func boardHTML(items ...string) string {
	return `<html><body><div id="MasterMain_panelUpper">` + strings.Join(items, "\n") + `</div></body></html>`
}

// boardItem renders one board entry. fields is an ordered list of
// label/value pairs; crewLines render into the roster cell.
func boardItem(flightNumber string, fields [][2]string, crewLines ...string) string {
	var b strings.Builder
	b.WriteString(`<div class="ListItem"><div class="ItemHeader"><table><tr><td>`)
	b.WriteString(flightNumber)
	b.WriteString(`</td></tr></table></div><table class="ItemChildTableDetails">`)
	for _, kv := range fields {
		b.WriteString(`<tr><td>` + kv[0] + `</td><td>` + kv[1] + `</td></tr>`)
	}
	if len(crewLines) > 0 {
		b.WriteString(`<tr><td>Crew On Board</td><td>` + strings.Join(crewLines, "<br/>") + `</td></tr>`)
	}
	b.WriteString(`</table></div>`)
	return b.String()
}
