package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yukikurage/watchtower-api/internal/clock"
	"github.com/yukikurage/watchtower-api/internal/constants"
	"github.com/yukikurage/watchtower-api/internal/events"
	"github.com/yukikurage/watchtower-api/internal/models"
	"github.com/yukikurage/watchtower-api/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrInvalidStatus          = errors.New("invalid status")
	ErrAssignmentNotFound     = errors.New("assignment not found")
	ErrControllerNotFound     = errors.New("controller not found")
	ErrConcurrentModification = errors.New("status was modified concurrently")
	ErrUndoNotAllowed         = errors.New("nothing to undo or undo window has elapsed")
)

// SetStatusInput describes a requested status transition.
type SetStatusInput struct {
	Status  models.Status
	ActorID *uint64
	Note    string
}

// StatusEngineOptions configure a StatusEngine.
type StatusEngineOptions struct {
	Mode       models.BoardMode
	UndoWindow time.Duration
	Publisher  events.Publisher
	Logger     logrus.FieldLogger
}

// StatusEngine applies status transitions and keeps the audit log in step
// with them.
type StatusEngine struct {
	statusRepo repository.StatusRepository
	clock      clock.Clock
	mode       models.BoardMode
	undoWindow time.Duration
	publisher  events.Publisher
	log        logrus.FieldLogger
}

// NewStatusEngine creates a new StatusEngine
func NewStatusEngine(statusRepo repository.StatusRepository, clk clock.Clock, opts StatusEngineOptions) *StatusEngine {
	if opts.Mode == "" {
		opts.Mode = models.BoardModeShift
	}
	if opts.UndoWindow <= 0 {
		opts.UndoWindow = constants.DefaultUndoWindow
	}
	if opts.Publisher == nil {
		opts.Publisher = events.NopPublisher{}
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}

	return &StatusEngine{
		statusRepo: statusRepo,
		clock:      clk,
		mode:       opts.Mode,
		undoWindow: opts.UndoWindow,
		publisher:  opts.Publisher,
		log:        opts.Logger.WithField("component", "status_engine"),
	}
}

// Mode returns the board mode controllers are validated against.
func (e *StatusEngine) Mode() models.BoardMode {
	return e.mode
}

// UndoWindow returns the grace period for undo.
func (e *StatusEngine) UndoWindow() time.Duration {
	return e.undoWindow
}

// SetAssignmentStatus moves an assignment to input.Status and records the change.
func (e *StatusEngine) SetAssignmentStatus(ctx context.Context, id uint64, input SetStatusInput) (*models.ShiftAssignment, error) {
	if !models.ShiftStatuses.Contains(input.Status) {
		return nil, ErrInvalidStatus
	}

	var (
		result  *models.ShiftAssignment
		changed bool
		from    models.Status
	)

	err := e.statusRepo.Transaction(ctx, func(tx repository.StatusRepository) error {
		a, err := tx.LockAssignment(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrAssignmentNotFound
			}
			return fmt.Errorf("failed to load assignment: %w", err)
		}

		result = a
		if a.Status == input.Status {
			return nil
		}

		now := e.clock.Now()
		from = a.Status
		a.Status = input.Status
		a.Note = appendNote(a.Note, input.Note)
		a.LastChangedAt = &now
		a.LastChangedBy = input.ActorID

		if err := tx.UpdateAssignmentStatus(ctx, a, from); err != nil {
			return staleOrWrap(err, "failed to update assignment status")
		}

		entry := &models.StatusLog{
			AssignmentID: &a.ID,
			OldStatus:    from,
			NewStatus:    a.Status,
			ChangedBy:    input.ActorID,
			ChangedAt:    now,
			Note:         input.Note,
		}
		if err := tx.CreateLog(ctx, entry); err != nil {
			return fmt.Errorf("failed to write status log: %w", err)
		}

		changed = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if changed {
		event := events.NewStatusChangedEvent(events.SubjectAssignment, result.ID, from, result.Status, *result.LastChangedAt)
		event.ShiftID = &result.ShiftID
		event.Callsign = result.Callsign
		event.ChangedBy = input.ActorID
		e.publish(ctx, event)
	}

	return result, nil
}

// SetControllerStatus moves a controller to input.Status using the board
// mode's enumeration and records the change.
func (e *StatusEngine) SetControllerStatus(ctx context.Context, id uint64, input SetStatusInput) (*models.Controller, error) {
	if !e.mode.ControllerStatuses().Contains(input.Status) {
		return nil, ErrInvalidStatus
	}

	var (
		result  *models.Controller
		changed bool
		from    models.Status
	)

	err := e.statusRepo.Transaction(ctx, func(tx repository.StatusRepository) error {
		c, err := tx.LockController(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrControllerNotFound
			}
			return fmt.Errorf("failed to load controller: %w", err)
		}

		result = c
		if c.Status == input.Status {
			return nil
		}

		now := e.clock.Now()
		from = c.Status
		c.Status = input.Status
		c.Note = appendNote(c.Note, input.Note)
		c.StatusChangedAt = &now
		c.StatusChangedBy = input.ActorID

		if err := tx.UpdateControllerStatus(ctx, c, from); err != nil {
			return staleOrWrap(err, "failed to update controller status")
		}

		entry := &models.StatusLog{
			ControllerID: &c.ID,
			OldStatus:    from,
			NewStatus:    c.Status,
			ChangedBy:    input.ActorID,
			ChangedAt:    now,
			Note:         input.Note,
		}
		if err := tx.CreateLog(ctx, entry); err != nil {
			return fmt.Errorf("failed to write status log: %w", err)
		}

		changed = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if changed {
		event := events.NewStatusChangedEvent(events.SubjectController, result.ID, from, result.Status, *result.StatusChangedAt)
		event.ChangedBy = input.ActorID
		e.publish(ctx, event)
	}

	return result, nil
}

// UndoAssignment reverts the most recent change of an assignment if it is
// still inside the undo window. The audit row of that change is removed.
func (e *StatusEngine) UndoAssignment(ctx context.Context, id uint64) (*models.ShiftAssignment, error) {
	var (
		result   *models.ShiftAssignment
		reverted models.Status
	)

	err := e.statusRepo.Transaction(ctx, func(tx repository.StatusRepository) error {
		a, err := tx.LockAssignment(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrAssignmentNotFound
			}
			return fmt.Errorf("failed to load assignment: %w", err)
		}

		result = a
		if !e.CanUndo(a.LastChangedAt) {
			return ErrUndoNotAllowed
		}

		entry, err := e.latestMatchingLog(ctx, tx, repository.LogFilter{AssignmentID: &a.ID}, a.Status)
		if err != nil {
			return err
		}

		reverted = a.Status
		a.Status = entry.OldStatus
		a.LastChangedAt = nil
		a.LastChangedBy = nil

		if err := tx.UpdateAssignmentStatus(ctx, a, reverted); err != nil {
			return staleOrWrap(err, "failed to revert assignment status")
		}
		if err := tx.DeleteLog(ctx, entry.ID); err != nil {
			return fmt.Errorf("failed to delete status log: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	event := events.NewStatusChangedEvent(events.SubjectAssignment, result.ID, reverted, result.Status, e.clock.Now())
	event.ShiftID = &result.ShiftID
	event.Callsign = result.Callsign
	event.Undo = true
	e.publish(ctx, event)

	return result, nil
}

// UndoController is the board-mode counterpart of UndoAssignment.
func (e *StatusEngine) UndoController(ctx context.Context, id uint64) (*models.Controller, error) {
	var (
		result   *models.Controller
		reverted models.Status
	)

	err := e.statusRepo.Transaction(ctx, func(tx repository.StatusRepository) error {
		c, err := tx.LockController(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrControllerNotFound
			}
			return fmt.Errorf("failed to load controller: %w", err)
		}

		result = c
		if !e.CanUndo(c.StatusChangedAt) {
			return ErrUndoNotAllowed
		}

		entry, err := e.latestMatchingLog(ctx, tx, repository.LogFilter{ControllerID: &c.ID}, c.Status)
		if err != nil {
			return err
		}

		reverted = c.Status
		c.Status = entry.OldStatus
		c.StatusChangedAt = nil
		c.StatusChangedBy = nil

		if err := tx.UpdateControllerStatus(ctx, c, reverted); err != nil {
			return staleOrWrap(err, "failed to revert controller status")
		}
		if err := tx.DeleteLog(ctx, entry.ID); err != nil {
			return fmt.Errorf("failed to delete status log: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	event := events.NewStatusChangedEvent(events.SubjectController, result.ID, reverted, result.Status, e.clock.Now())
	event.Undo = true
	e.publish(ctx, event)

	return result, nil
}

// CanUndo reports whether a change made at lastChangedAt is still inside
// the undo window.
func (e *StatusEngine) CanUndo(lastChangedAt *time.Time) bool {
	if lastChangedAt == nil {
		return false
	}
	return e.clock.Now().Sub(*lastChangedAt) <= e.undoWindow
}

// RemainingUndoSeconds returns the whole seconds left in the undo window,
// never negative.
func (e *StatusEngine) RemainingUndoSeconds(lastChangedAt *time.Time) int {
	if lastChangedAt == nil {
		return 0
	}
	remaining := e.undoWindow - e.clock.Now().Sub(*lastChangedAt)
	if remaining <= 0 {
		return 0
	}
	return int(math.Ceil(remaining.Seconds()))
}

// ListLogs returns audit rows newest first.
func (e *StatusEngine) ListLogs(ctx context.Context, filter repository.LogFilter) ([]models.StatusLog, error) {
	entries, err := e.statusRepo.ListLogs(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list status logs: %w", err)
	}
	return entries, nil
}

// latestMatchingLog returns the newest audit row for the subject, provided
// it records the transition into current.
func (e *StatusEngine) latestMatchingLog(ctx context.Context, tx repository.StatusRepository, filter repository.LogFilter, current models.Status) (*models.StatusLog, error) {
	entry, err := tx.LatestLog(ctx, filter)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUndoNotAllowed
		}
		return nil, fmt.Errorf("failed to load latest status log: %w", err)
	}
	if entry.NewStatus != current {
		return nil, ErrUndoNotAllowed
	}
	return entry, nil
}

func (e *StatusEngine) publish(ctx context.Context, event events.StatusChangedEvent) {
	if err := e.publisher.PublishStatusChanged(ctx, event); err != nil {
		e.log.WithError(err).WithFields(logrus.Fields{
			"subject": event.Subject,
			"id":      event.SubjectID,
		}).Warn("Failed to publish status event")
	}
}

func appendNote(existing, note string) string {
	if note == "" {
		return existing
	}
	if existing == "" {
		return note
	}
	return existing + "\n" + note
}

func staleOrWrap(err error, msg string) error {
	if errors.Is(err, repository.ErrStaleStatus) {
		return ErrConcurrentModification
	}
	return fmt.Errorf("%s: %w", msg, err)
}
