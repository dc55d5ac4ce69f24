package repository

import (
	"context"

	"github.com/yukikurage/watchtower-api/internal/database"
	"github.com/yukikurage/watchtower-api/internal/models"
	"gorm.io/gorm"
)

// GormStatusRepository is a GORM implementation of StatusRepository
type GormStatusRepository struct {
	db *gorm.DB
}

// NewStatusRepository creates a new StatusRepository
func NewStatusRepository(db *gorm.DB) StatusRepository {
	return &GormStatusRepository{db: db}
}

// Transaction runs fn inside a database transaction
func (r *GormStatusRepository) Transaction(ctx context.Context, fn func(tx StatusRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStatusRepository{db: tx})
	})
}

// LockAssignment reads an assignment for update
func (r *GormStatusRepository) LockAssignment(ctx context.Context, id uint64) (*models.ShiftAssignment, error) {
	var assignment models.ShiftAssignment
	if err := forUpdate(r.db.WithContext(ctx)).First(&assignment, id).Error; err != nil {
		return nil, err
	}
	return &assignment, nil
}

// UpdateAssignmentStatus writes the status columns guarded by the previous status
func (r *GormStatusRepository) UpdateAssignmentStatus(ctx context.Context, a *models.ShiftAssignment, from models.Status) error {
	result := r.db.WithContext(ctx).Model(&models.ShiftAssignment{}).
		Where("id = ? AND status = ?", a.ID, from).
		Updates(map[string]any{
			"status":          a.Status,
			"note":            a.Note,
			"last_changed_at": a.LastChangedAt,
			"last_changed_by": a.LastChangedBy,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrStaleStatus
	}
	return nil
}

// LockController reads a controller for update
func (r *GormStatusRepository) LockController(ctx context.Context, id uint64) (*models.Controller, error) {
	var controller models.Controller
	if err := forUpdate(r.db.WithContext(ctx)).First(&controller, id).Error; err != nil {
		return nil, err
	}
	return &controller, nil
}

// UpdateControllerStatus writes the status columns guarded by the previous status
func (r *GormStatusRepository) UpdateControllerStatus(ctx context.Context, c *models.Controller, from models.Status) error {
	result := r.db.WithContext(ctx).Model(&models.Controller{}).
		Where("id = ? AND status = ?", c.ID, from).
		Updates(map[string]any{
			"status":            c.Status,
			"note":              c.Note,
			"status_changed_at": c.StatusChangedAt,
			"status_changed_by": c.StatusChangedBy,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrStaleStatus
	}
	return nil
}

// CreateLog appends an audit row
func (r *GormStatusRepository) CreateLog(ctx context.Context, entry *models.StatusLog) error {
	return r.db.WithContext(ctx).Omit("Assignment", "Controller", "Actor").Create(entry).Error
}

// LatestLog returns the newest audit row matching filter
func (r *GormStatusRepository) LatestLog(ctx context.Context, filter LogFilter) (*models.StatusLog, error) {
	var entry models.StatusLog
	if err := r.filtered(ctx, filter).Scopes(database.NewestFirst).Take(&entry).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

// DeleteLog removes a single audit row
func (r *GormStatusRepository) DeleteLog(ctx context.Context, id uint64) error {
	return r.db.WithContext(ctx).Delete(&models.StatusLog{}, id).Error
}

// ListLogs returns audit rows newest first with their subject and actor
func (r *GormStatusRepository) ListLogs(ctx context.Context, filter LogFilter) ([]models.StatusLog, error) {
	query := r.filtered(ctx, filter).
		Preload("Assignment").
		Preload("Assignment.Controller").
		Preload("Controller").
		Preload("Actor").
		Scopes(database.NewestFirst)

	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var entries []models.StatusLog
	if err := query.Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *GormStatusRepository) filtered(ctx context.Context, filter LogFilter) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&models.StatusLog{}).Select("status_logs.*")

	switch {
	case filter.AssignmentID != nil:
		query = query.Where("status_logs.assignment_id = ?", *filter.AssignmentID)
	case filter.ControllerID != nil:
		query = query.Where("status_logs.controller_id = ?", *filter.ControllerID)
	case filter.ShiftID != nil:
		query = query.
			Joins("JOIN shift_assignments ON shift_assignments.id = status_logs.assignment_id").
			Where("shift_assignments.shift_id = ?", *filter.ShiftID)
	}

	return query
}
