package entity

import "time"

// Sync status values for DailySyncStatus.Status.
const (
	SyncSuccess    = "Success"
	SyncFailed     = "Failed"
	SyncInProgress = "In Progress"
)

// Well-known AppMetadata keys. Live configuration is re-read from these
// before every scheduled action so changes apply without a restart.
const (
	MetaLastSuccessfulSync  = "last_successful_sync"
	MetaNextScheduledScrape = "next_scheduled_scrape"
	MetaScrapeIntervalHours = "scrape_interval_hours"
	MetaScrapeDays          = "scrape_days"
	MetaCloudSyncEnabled    = "cloud_sync_enabled"
)

// MetaTimeLayout is the timestamp format stored in AppMetadata values.
const MetaTimeLayout = "2006-01-02 15:04:05"

// DailySyncStatus records the outcome of the latest capture of one day.
type DailySyncStatus struct {
	Date          time.Time // the day captured, at midnight
	LastScrapedAt time.Time
	FlightsFound  int
	Status        string
}

// AppMetadata is a generic string key/value setting.
type AppMetadata struct {
	Key   string
	Value string
}
