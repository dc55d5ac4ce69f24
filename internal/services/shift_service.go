package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/sirupsen/logrus"
	"github.com/yukikurage/watchtower-api/internal/clock"
	"github.com/yukikurage/watchtower-api/internal/models"
	"github.com/yukikurage/watchtower-api/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrShiftNotFound      = errors.New("shift not found")
	ErrNoOpenShift        = errors.New("no shift is open")
	ErrShiftAlreadyOpen   = errors.New("another shift is already open")
	ErrShiftAlreadyClosed = errors.New("shift is already closed")
	ErrDuplicateCallsign  = errors.New("callsign is already used in this shift")
	ErrInvalidCallsign    = errors.New("callsign must be 1-10 characters")
	ErrNotOnWatch         = errors.New("user is not on watch for this shift")
)

const maxCallsignLength = 10

// ShiftService handles shift lifecycle, assignments and watch staff
type ShiftService struct {
	shiftRepo      repository.ShiftRepository
	controllerRepo repository.ControllerRepository
	clock          clock.Clock
	log            logrus.FieldLogger
}

// NewShiftService creates a new ShiftService
func NewShiftService(shiftRepo repository.ShiftRepository, controllerRepo repository.ControllerRepository, clk clock.Clock, log logrus.FieldLogger) *ShiftService {
	return &ShiftService{
		shiftRepo:      shiftRepo,
		controllerRepo: controllerRepo,
		clock:          clk,
		log:            log.WithField("component", "shift_service"),
	}
}

// OpenShift opens a new shift. Only one shift may be open at a time.
func (s *ShiftService) OpenShift(ctx context.Context, note string) (*models.Shift, error) {
	var shift *models.Shift

	err := s.shiftRepo.Transaction(ctx, func(tx repository.ShiftRepository) error {
		if _, err := tx.FindOpen(ctx); err == nil {
			return ErrShiftAlreadyOpen
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to check open shift: %w", err)
		}

		shift = &models.Shift{
			Status:   models.ShiftStatusOpen,
			OpenedAt: s.clock.Now(),
			Note:     strings.TrimSpace(note),
		}
		if err := tx.Create(ctx, shift); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrShiftAlreadyOpen
			}
			return fmt.Errorf("failed to create shift: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.WithField("shift_id", shift.ID).Info("Shift opened")
	return shift, nil
}

// CurrentShift returns the open shift with its assignments.
func (s *ShiftService) CurrentShift(ctx context.Context) (*models.Shift, error) {
	shift, err := s.shiftRepo.FindOpen(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoOpenShift
		}
		return nil, fmt.Errorf("failed to find open shift: %w", err)
	}

	assignments, err := s.shiftRepo.ListAssignments(ctx, shift.ID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list assignments: %w", err)
	}
	shift.Assignments = assignments

	return shift, nil
}

// GetShift returns a shift with its assignments and watch staff.
func (s *ShiftService) GetShift(ctx context.Context, id uint64) (*models.Shift, error) {
	shift, err := s.shiftRepo.FindByID(ctx, id, "WatchStaff", "WatchStaff.User")
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrShiftNotFound
		}
		return nil, fmt.Errorf("failed to find shift: %w", err)
	}

	assignments, err := s.shiftRepo.ListAssignments(ctx, shift.ID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list assignments: %w", err)
	}
	shift.Assignments = assignments

	return shift, nil
}

// ListShiftsInput represents filters for listing shifts
type ListShiftsInput struct {
	Status   *models.ShiftStatus
	Page     int
	PageSize int
}

// ListShifts returns shifts newest first and the total count.
func (s *ShiftService) ListShifts(ctx context.Context, input ListShiftsInput) ([]models.Shift, int64, error) {
	shifts, total, err := s.shiftRepo.List(ctx, repository.ShiftFilter{
		Status:   input.Status,
		Page:     input.Page,
		PageSize: input.PageSize,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list shifts: %w", err)
	}
	return shifts, total, nil
}

// CloseShift closes a shift once no assignment blocks it.
func (s *ShiftService) CloseShift(ctx context.Context, id uint64) (*models.Shift, error) {
	var shift *models.Shift

	err := s.shiftRepo.Transaction(ctx, func(tx repository.ShiftRepository) error {
		locked, err := tx.LockByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrShiftNotFound
			}
			return fmt.Errorf("failed to load shift: %w", err)
		}

		if !locked.IsOpen() {
			return ErrShiftAlreadyClosed
		}

		if !CanClose(locked.Assignments) {
			return &NotClosableError{
				ShiftID:  locked.ID,
				Blocking: BlockingAssignments(locked.Assignments),
			}
		}

		now := s.clock.Now()
		if err := tx.MarkClosed(ctx, locked.ID, now); err != nil {
			return fmt.Errorf("failed to close shift: %w", err)
		}

		locked.Status = models.ShiftStatusClosed
		locked.ClosedAt = &now
		locked.OpenSlot = nil
		shift = locked
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.WithField("shift_id", shift.ID).Info("Shift closed")
	return shift, nil
}

// DeleteShift removes a shift with its assignments, their audit rows and watch entries.
func (s *ShiftService) DeleteShift(ctx context.Context, id uint64) error {
	if _, err := s.shiftRepo.FindByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrShiftNotFound
		}
		return fmt.Errorf("failed to find shift: %w", err)
	}

	if err := s.shiftRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete shift: %w", err)
	}

	s.log.WithField("shift_id", id).Info("Shift deleted")
	return nil
}

// AddAssignmentInput represents input for assigning a controller to a callsign
type AddAssignmentInput struct {
	ShiftID      uint64
	ControllerID uint64
	Callsign     string
	Note         string
}

// AddAssignment binds a controller to a callsign on an open shift. New
// assignments start UNKNOWN.
func (s *ShiftService) AddAssignment(ctx context.Context, input AddAssignmentInput) (*models.ShiftAssignment, error) {
	callsign := strings.ToUpper(strings.TrimSpace(input.Callsign))
	if callsign == "" || utf8.RuneCountInString(callsign) > maxCallsignLength {
		return nil, ErrInvalidCallsign
	}

	shift, err := s.shiftRepo.FindByID(ctx, input.ShiftID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrShiftNotFound
		}
		return nil, fmt.Errorf("failed to find shift: %w", err)
	}
	if !shift.IsOpen() {
		return nil, ErrShiftAlreadyClosed
	}

	controller, err := s.controllerRepo.FindByID(ctx, input.ControllerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrControllerNotFound
		}
		return nil, fmt.Errorf("failed to find controller: %w", err)
	}

	if _, err := s.shiftRepo.FindAssignmentByCallsign(ctx, shift.ID, callsign); err == nil {
		return nil, ErrDuplicateCallsign
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check callsign: %w", err)
	}

	assignment := &models.ShiftAssignment{
		ShiftID:      shift.ID,
		ControllerID: controller.ID,
		Callsign:     callsign,
		Status:       models.StatusUnknown,
		Note:         strings.TrimSpace(input.Note),
	}
	if err := s.shiftRepo.CreateAssignment(ctx, assignment); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateCallsign
		}
		return nil, fmt.Errorf("failed to create assignment: %w", err)
	}
	assignment.Controller = *controller

	return assignment, nil
}

// GetAssignment returns an assignment with its controller.
func (s *ShiftService) GetAssignment(ctx context.Context, id uint64) (*models.ShiftAssignment, error) {
	assignment, err := s.shiftRepo.FindAssignment(ctx, id, "Controller")
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAssignmentNotFound
		}
		return nil, fmt.Errorf("failed to find assignment: %w", err)
	}
	return assignment, nil
}

// ListAssignments returns a shift's assignments, optionally filtered by status.
func (s *ShiftService) ListAssignments(ctx context.Context, shiftID uint64, status *models.Status) ([]models.ShiftAssignment, error) {
	if status != nil && !models.ShiftStatuses.Contains(*status) {
		return nil, ErrInvalidStatus
	}

	if _, err := s.shiftRepo.FindByID(ctx, shiftID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrShiftNotFound
		}
		return nil, fmt.Errorf("failed to find shift: %w", err)
	}

	assignments, err := s.shiftRepo.ListAssignments(ctx, shiftID, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list assignments: %w", err)
	}
	return assignments, nil
}

// RemoveAssignment deletes an assignment together with its audit rows.
func (s *ShiftService) RemoveAssignment(ctx context.Context, id uint64) error {
	if _, err := s.shiftRepo.FindAssignment(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAssignmentNotFound
		}
		return fmt.Errorf("failed to find assignment: %w", err)
	}

	if err := s.shiftRepo.DeleteAssignment(ctx, id); err != nil {
		return fmt.Errorf("failed to delete assignment: %w", err)
	}
	return nil
}

// JoinWatch puts a user on watch for a shift. Rejoining after leaving
// reuses the same entry.
func (s *ShiftService) JoinWatch(ctx context.Context, shiftID, userID uint64) (*models.ShiftWatchStaff, error) {
	shift, err := s.shiftRepo.FindByID(ctx, shiftID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrShiftNotFound
		}
		return nil, fmt.Errorf("failed to find shift: %w", err)
	}
	if !shift.IsOpen() {
		return nil, ErrShiftAlreadyClosed
	}

	watch, err := s.shiftRepo.FindWatch(ctx, shiftID, userID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("failed to find watch entry: %w", err)
		}
		watch = &models.ShiftWatchStaff{
			ShiftID: shiftID,
			UserID:  userID,
		}
	}

	if watch.ID != 0 && watch.IsOnDuty {
		return watch, nil
	}

	watch.IsOnDuty = true
	watch.JoinedAt = s.clock.Now()
	watch.LeftAt = nil
	if err := s.shiftRepo.SaveWatch(ctx, watch); err != nil {
		return nil, fmt.Errorf("failed to save watch entry: %w", err)
	}

	return watch, nil
}

// LeaveWatch takes a user off watch.
func (s *ShiftService) LeaveWatch(ctx context.Context, shiftID, userID uint64) (*models.ShiftWatchStaff, error) {
	watch, err := s.shiftRepo.FindWatch(ctx, shiftID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotOnWatch
		}
		return nil, fmt.Errorf("failed to find watch entry: %w", err)
	}

	if !watch.IsOnDuty {
		return watch, nil
	}

	now := s.clock.Now()
	watch.IsOnDuty = false
	watch.LeftAt = &now
	if err := s.shiftRepo.SaveWatch(ctx, watch); err != nil {
		return nil, fmt.Errorf("failed to save watch entry: %w", err)
	}

	return watch, nil
}
