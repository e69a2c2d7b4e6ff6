package persistence

import (
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	glogger "gorm.io/gorm/logger"
)

// NewDatabase opens the entity store: Postgres when a DSN is configured,
// a local SQLite file otherwise.
func NewDatabase(postgresDSN, sqlitePath string) (*gorm.DB, error) {
	cfg := &gorm.Config{
		Logger: glogger.Default.LogMode(glogger.Silent),
	}
	if postgresDSN != "" {
		return gorm.Open(postgres.Open(postgresDSN), cfg)
	}
	return gorm.Open(sqlite.Open(sqlitePath), cfg)
}
