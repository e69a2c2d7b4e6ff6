package repository

import (
	"context"
	"errors"
	"time"

	"nocarchive-service/internal/domain/entity"
	"nocarchive-service/internal/domain/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormMetadataRepository implements the MetadataRepository interface
type GormMetadataRepository struct {
	db *gorm.DB
}

// NewGormMetadataRepository creates a new GORM metadata repository
func NewGormMetadataRepository(db *gorm.DB) repository.MetadataRepository {
	return &GormMetadataRepository{
		db: db,
	}
}

// AppMetadata GORM model for database mapping
type AppMetadata struct {
	Key   string `gorm:"column:key;primaryKey"`
	Value string `gorm:"column:value"`
}

// TableName overrides the default table name
func (AppMetadata) TableName() string {
	return "app_metadata"
}

// DailySyncStatuses GORM model for database mapping
type DailySyncStatuses struct {
	Date          time.Time `gorm:"column:date;primaryKey"`
	LastScrapedAt time.Time `gorm:"column:last_scraped_at"`
	FlightsFound  int       `gorm:"column:flights_found"`
	Status        string    `gorm:"column:status"`
}

// TableName overrides the default table name
func (DailySyncStatuses) TableName() string {
	return "daily_sync_status"
}

// Get returns the value for a key, or gorm.ErrRecordNotFound
func (r *GormMetadataRepository) Get(ctx context.Context, key string) (string, error) {
	var row AppMetadata
	err := r.db.WithContext(ctx).Where("key = ?", key).First(&row).Error
	if err != nil {
		return "", err
	}
	return row.Value, nil
}

// GetOrDefault returns the value for a key, or the fallback when unset
func (r *GormMetadataRepository) GetOrDefault(ctx context.Context, key, fallback string) string {
	value, err := r.Get(ctx, key)
	if err != nil {
		return fallback
	}
	return value
}

// Set creates or updates a key in place
func (r *GormMetadataRepository) Set(ctx context.Context, key, value string) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(&AppMetadata{Key: key, Value: value}).Error
}

// UpsertSyncStatus creates or updates the sync record for one day
func (r *GormMetadataRepository) UpsertSyncStatus(ctx context.Context, status *entity.DailySyncStatus) error {
	model := DailySyncStatuses{
		Date:          status.Date,
		LastScrapedAt: status.LastScrapedAt,
		FlightsFound:  status.FlightsFound,
		Status:        status.Status,
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "date"}},
		DoUpdates: clause.AssignmentColumns([]string{"last_scraped_at", "flights_found", "status"}),
	}).Create(&model).Error
}

// SyncStatusFor returns the sync record for one day, nil when absent
func (r *GormMetadataRepository) SyncStatusFor(ctx context.Context, day time.Time) (*entity.DailySyncStatus, error) {
	var row DailySyncStatuses
	err := r.db.WithContext(ctx).Where("date = ?", day).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return syncStatusToEntity(&row), nil
}

// LatestSyncStatus returns the most recently scraped day, nil when none
func (r *GormMetadataRepository) LatestSyncStatus(ctx context.Context) (*entity.DailySyncStatus, error) {
	var row DailySyncStatuses
	err := r.db.WithContext(ctx).Order("last_scraped_at DESC").First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return syncStatusToEntity(&row), nil
}

func syncStatusToEntity(m *DailySyncStatuses) *entity.DailySyncStatus {
	return &entity.DailySyncStatus{
		Date:          m.Date,
		LastScrapedAt: m.LastScrapedAt,
		FlightsFound:  m.FlightsFound,
		Status:        m.Status,
	}
}
