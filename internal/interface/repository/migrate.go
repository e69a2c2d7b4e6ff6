package repository

import "gorm.io/gorm"

// AutoMigrate creates or updates the entity-store schema.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&Flights{},
		&Crew{},
		&FlightCrew{},
		&FlightHistories{},
		&ScheduledFlights{},
		&IOEAssignments{},
		&DailySyncStatuses{},
		&AppMetadata{},
	)
}
