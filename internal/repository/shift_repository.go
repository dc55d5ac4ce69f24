package repository

import (
	"context"
	"time"

	"github.com/yukikurage/watchtower-api/internal/database"
	"github.com/yukikurage/watchtower-api/internal/models"
	"github.com/yukikurage/watchtower-api/internal/utils"
	"gorm.io/gorm"
)

// GormShiftRepository is a GORM implementation of ShiftRepository
type GormShiftRepository struct {
	db *gorm.DB
}

// NewShiftRepository creates a new ShiftRepository
func NewShiftRepository(db *gorm.DB) ShiftRepository {
	return &GormShiftRepository{db: db}
}

// Transaction runs fn inside a database transaction
func (r *GormShiftRepository) Transaction(ctx context.Context, fn func(tx ShiftRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormShiftRepository{db: tx})
	})
}

// Create creates a new shift. An open shift claims the open slot, so a
// second concurrent open fails with gorm.ErrDuplicatedKey.
func (r *GormShiftRepository) Create(ctx context.Context, shift *models.Shift) error {
	if shift.IsOpen() {
		claimed := true
		shift.OpenSlot = &claimed
	}
	return r.db.WithContext(ctx).Create(shift).Error
}

// FindByID finds a shift by ID with optional preloading
func (r *GormShiftRepository) FindByID(ctx context.Context, id uint64, preload ...string) (*models.Shift, error) {
	var shift models.Shift
	if err := withPreloads(r.db.WithContext(ctx), preload).First(&shift, id).Error; err != nil {
		return nil, err
	}
	return &shift, nil
}

// FindOpen finds the most recently opened shift that is still open
func (r *GormShiftRepository) FindOpen(ctx context.Context, preload ...string) (*models.Shift, error) {
	var shift models.Shift
	if err := withPreloads(r.db.WithContext(ctx), preload).
		Where("status = ?", models.ShiftStatusOpen).
		Order("opened_at DESC").
		First(&shift).Error; err != nil {
		return nil, err
	}
	return &shift, nil
}

// List retrieves shifts newest first with filtering and pagination
func (r *GormShiftRepository) List(ctx context.Context, filter ShiftFilter) ([]models.Shift, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Shift{})

	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	listQuery := query.Order("opened_at DESC").Order("id DESC")
	if filter.Page > 0 && filter.PageSize > 0 {
		listQuery = listQuery.Scopes(database.Paginate(utils.PaginationParams{
			Page:   filter.Page,
			Limit:  filter.PageSize,
			Offset: (filter.Page - 1) * filter.PageSize,
		}))
	}

	var shifts []models.Shift
	if err := listQuery.Find(&shifts).Error; err != nil {
		return nil, 0, err
	}

	return shifts, total, nil
}

// LockByID reads a shift and its assignments for update
func (r *GormShiftRepository) LockByID(ctx context.Context, id uint64) (*models.Shift, error) {
	var shift models.Shift
	if err := forUpdate(r.db.WithContext(ctx)).First(&shift, id).Error; err != nil {
		return nil, err
	}

	if err := r.db.WithContext(ctx).
		Where("shift_id = ?", id).
		Order("callsign ASC").
		Find(&shift.Assignments).Error; err != nil {
		return nil, err
	}

	return &shift, nil
}

// MarkClosed closes an open shift
func (r *GormShiftRepository) MarkClosed(ctx context.Context, id uint64, closedAt time.Time) error {
	return r.db.WithContext(ctx).Model(&models.Shift{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":    models.ShiftStatusClosed,
			"closed_at": closedAt,
			"open_slot": nil,
		}).Error
}

// Delete removes a shift and everything it owns in a transaction
func (r *GormShiftRepository) Delete(ctx context.Context, id uint64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		assignmentIDs := tx.Model(&models.ShiftAssignment{}).Select("id").Where("shift_id = ?", id)

		if err := tx.Where("assignment_id IN (?)", assignmentIDs).Delete(&models.StatusLog{}).Error; err != nil {
			return err
		}

		if err := tx.Where("shift_id = ?", id).Delete(&models.ShiftAssignment{}).Error; err != nil {
			return err
		}

		if err := tx.Where("shift_id = ?", id).Delete(&models.ShiftWatchStaff{}).Error; err != nil {
			return err
		}

		return tx.Delete(&models.Shift{}, id).Error
	})
}

// CreateAssignment creates a new assignment
func (r *GormShiftRepository) CreateAssignment(ctx context.Context, assignment *models.ShiftAssignment) error {
	return r.db.WithContext(ctx).Omit("Controller").Create(assignment).Error
}

// FindAssignment finds an assignment by ID with optional preloading
func (r *GormShiftRepository) FindAssignment(ctx context.Context, id uint64, preload ...string) (*models.ShiftAssignment, error) {
	var assignment models.ShiftAssignment
	if err := withPreloads(r.db.WithContext(ctx), preload).First(&assignment, id).Error; err != nil {
		return nil, err
	}
	return &assignment, nil
}

// FindAssignmentByCallsign finds the assignment holding a callsign within a shift
func (r *GormShiftRepository) FindAssignmentByCallsign(ctx context.Context, shiftID uint64, callsign string) (*models.ShiftAssignment, error) {
	var assignment models.ShiftAssignment
	if err := r.db.WithContext(ctx).
		Where("shift_id = ? AND callsign = ?", shiftID, callsign).
		First(&assignment).Error; err != nil {
		return nil, err
	}
	return &assignment, nil
}

// ListAssignments lists a shift's assignments ordered by callsign, then id
func (r *GormShiftRepository) ListAssignments(ctx context.Context, shiftID uint64, status *models.Status) ([]models.ShiftAssignment, error) {
	query := r.db.WithContext(ctx).Preload("Controller").Where("shift_id = ?", shiftID)
	if status != nil {
		query = query.Where("status = ?", *status)
	}

	var assignments []models.ShiftAssignment
	if err := query.Order("callsign ASC").Order("id ASC").Find(&assignments).Error; err != nil {
		return nil, err
	}
	return assignments, nil
}

// DeleteAssignment removes an assignment and its audit rows in a transaction
func (r *GormShiftRepository) DeleteAssignment(ctx context.Context, id uint64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("assignment_id = ?", id).Delete(&models.StatusLog{}).Error; err != nil {
			return err
		}

		return tx.Delete(&models.ShiftAssignment{}, id).Error
	})
}

// FindWatch finds a user's watch entry on a shift
func (r *GormShiftRepository) FindWatch(ctx context.Context, shiftID, userID uint64) (*models.ShiftWatchStaff, error) {
	var watch models.ShiftWatchStaff
	if err := r.db.WithContext(ctx).
		Where("shift_id = ? AND user_id = ?", shiftID, userID).
		First(&watch).Error; err != nil {
		return nil, err
	}
	return &watch, nil
}

// SaveWatch creates or updates a watch entry
func (r *GormShiftRepository) SaveWatch(ctx context.Context, watch *models.ShiftWatchStaff) error {
	return r.db.WithContext(ctx).Omit("User").Save(watch).Error
}
