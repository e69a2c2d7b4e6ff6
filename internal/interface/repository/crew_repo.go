package repository

import (
	"context"
	"errors"
	"time"

	"nocarchive-service/internal/domain/entity"
	"nocarchive-service/internal/domain/repository"

	"gorm.io/gorm"
)

// GormCrewRepository implements the CrewRepository interface
type GormCrewRepository struct {
	db *gorm.DB
}

// NewGormCrewRepository creates a new GORM crew repository
func NewGormCrewRepository(db *gorm.DB) repository.CrewRepository {
	return &GormCrewRepository{
		db: db,
	}
}

// Crew GORM model for database mapping
type Crew struct {
	ID         uint   `gorm:"primaryKey"`
	EmployeeID string `gorm:"column:employee_id;uniqueIndex"`
	Name       string `gorm:"column:name;index"`
	CreatedAt  time.Time
}

// TableName overrides the default table name
func (Crew) TableName() string {
	return "crew"
}

// FindOrCreate dedupes by employee ID, falling back to name when the
// employee ID is empty. Identity is immutable once created.
func (r *GormCrewRepository) FindOrCreate(ctx context.Context, employeeID, name string) (*entity.CrewMember, error) {
	var row Crew
	query := r.db.WithContext(ctx)
	if employeeID != "" {
		query = query.Where("employee_id = ?", employeeID)
	} else {
		query = query.Where("name = ?", name)
	}

	err := query.First(&row).Error
	if err == nil {
		return crewToEntity(&row), nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	row = Crew{EmployeeID: employeeID, Name: name}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return nil, err
	}
	return crewToEntity(&row), nil
}

// FindByEmployeeID finds a crew member by employee ID
func (r *GormCrewRepository) FindByEmployeeID(ctx context.Context, employeeID string) (*entity.CrewMember, error) {
	var row Crew
	err := r.db.WithContext(ctx).Where("employee_id = ?", employeeID).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return crewToEntity(&row), nil
}

// FindByID finds a crew member by primary key
func (r *GormCrewRepository) FindByID(ctx context.Context, id uint) (*entity.CrewMember, error) {
	var row Crew
	err := r.db.WithContext(ctx).First(&row, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return crewToEntity(&row), nil
}

func crewToEntity(m *Crew) *entity.CrewMember {
	return &entity.CrewMember{
		ID:         m.ID,
		EmployeeID: m.EmployeeID,
		Name:       m.Name,
		CreatedAt:  m.CreatedAt,
	}
}
