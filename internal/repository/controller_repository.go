package repository

import (
	"context"

	"github.com/yukikurage/watchtower-api/internal/models"
	"gorm.io/gorm"
)

// GormControllerRepository is a GORM implementation of ControllerRepository
type GormControllerRepository struct {
	db *gorm.DB
}

// NewControllerRepository creates a new ControllerRepository
func NewControllerRepository(db *gorm.DB) ControllerRepository {
	return &GormControllerRepository{db: db}
}

// Create creates a new controller
func (r *GormControllerRepository) Create(ctx context.Context, controller *models.Controller) error {
	return r.db.WithContext(ctx).Create(controller).Error
}

// FindByID finds a controller by ID
func (r *GormControllerRepository) FindByID(ctx context.Context, id uint64) (*models.Controller, error) {
	var controller models.Controller
	if err := r.db.WithContext(ctx).First(&controller, id).Error; err != nil {
		return nil, err
	}
	return &controller, nil
}

// List returns controllers ordered by name, then id
func (r *GormControllerRepository) List(ctx context.Context, filter ControllerFilter) ([]models.Controller, error) {
	query := r.db.WithContext(ctx).Model(&models.Controller{})

	if !filter.IncludeInactive {
		query = query.Where("is_active = ?", true)
	}
	if filter.ControllerType != nil {
		query = query.Where("controller_type = ?", *filter.ControllerType)
	}

	var controllers []models.Controller
	if err := query.Order("name ASC").Order("id ASC").Find(&controllers).Error; err != nil {
		return nil, err
	}
	return controllers, nil
}

// Update saves the descriptive fields of a controller
func (r *GormControllerRepository) Update(ctx context.Context, controller *models.Controller) error {
	return r.db.WithContext(ctx).Model(controller).
		Select("name", "note", "controller_type", "is_active").
		Updates(controller).Error
}

// Delete removes a controller and its audit rows in a transaction
func (r *GormControllerRepository) Delete(ctx context.Context, id uint64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("controller_id = ?", id).Delete(&models.StatusLog{}).Error; err != nil {
			return err
		}

		return tx.Delete(&models.Controller{}, id).Error
	})
}

// CountAssignments counts assignments that reference the controller
func (r *GormControllerRepository) CountAssignments(ctx context.Context, id uint64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.ShiftAssignment{}).
		Where("controller_id = ?", id).
		Count(&count).Error
	return count, err
}
