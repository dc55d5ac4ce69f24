package dto

import (
	"time"

	"github.com/yukikurage/watchtower-api/internal/models"
)

// UndoInfo reports the undo window for a change made at lastChangedAt
type UndoInfo interface {
	CanUndo(lastChangedAt *time.Time) bool
	RemainingUndoSeconds(lastChangedAt *time.Time) int
}

// ControllerSummaryDTO is the roster entry embedded in an assignment
type ControllerSummaryDTO struct {
	ID             uint64 `json:"id"`
	Name           string `json:"name"`
	ControllerType string `json:"controller_type"`
}

// AssignmentDTO represents one row on the shift board
type AssignmentDTO struct {
	ID                   uint64                `json:"id"`
	ShiftID              uint64                `json:"shift_id"`
	Callsign             string                `json:"callsign"`
	Status               models.Status         `json:"status"`
	StatusLabel          string                `json:"status_label"`
	IsBlocking           bool                  `json:"is_blocking"`
	Note                 string                `json:"note"`
	LastChangedAt        *time.Time            `json:"last_changed_at"`
	LastChangedBy        *uint64               `json:"last_changed_by"`
	CanUndo              bool                  `json:"can_undo"`
	UndoRemainingSeconds int                   `json:"undo_remaining_seconds"`
	Controller           *ControllerSummaryDTO `json:"controller,omitempty"`
}

// ToAssignmentDTO converts an assignment to DTO
func ToAssignmentDTO(a models.ShiftAssignment, undo UndoInfo) AssignmentDTO {
	out := AssignmentDTO{
		ID:                   a.ID,
		ShiftID:              a.ShiftID,
		Callsign:             a.Callsign,
		Status:               a.Status,
		StatusLabel:          models.ShiftStatuses.Label(a.Status),
		IsBlocking:           a.Status.IsBlocking(),
		Note:                 a.Note,
		LastChangedAt:        a.LastChangedAt,
		LastChangedBy:        a.LastChangedBy,
		CanUndo:              undo.CanUndo(a.LastChangedAt),
		UndoRemainingSeconds: undo.RemainingUndoSeconds(a.LastChangedAt),
	}
	if a.Controller.ID != 0 {
		out.Controller = &ControllerSummaryDTO{
			ID:             a.Controller.ID,
			Name:           a.Controller.Name,
			ControllerType: a.Controller.ControllerType,
		}
	}
	return out
}

// ToAssignmentDTOs converts a list of assignments to DTOs
func ToAssignmentDTOs(assignments []models.ShiftAssignment, undo UndoInfo) []AssignmentDTO {
	out := make([]AssignmentDTO, len(assignments))
	for i, a := range assignments {
		out[i] = ToAssignmentDTO(a, undo)
	}
	return out
}

// WatchStaffDTO represents a user on watch
type WatchStaffDTO struct {
	ShiftID  uint64     `json:"shift_id"`
	UserID   uint64     `json:"user_id"`
	User     *UserDTO   `json:"user,omitempty"`
	IsOnDuty bool       `json:"is_on_duty"`
	JoinedAt time.Time  `json:"joined_at"`
	LeftAt   *time.Time `json:"left_at"`
}

// ToWatchStaffDTO converts a watch entry to DTO
func ToWatchStaffDTO(w models.ShiftWatchStaff) WatchStaffDTO {
	out := WatchStaffDTO{
		ShiftID:  w.ShiftID,
		UserID:   w.UserID,
		IsOnDuty: w.IsOnDuty,
		JoinedAt: w.JoinedAt,
		LeftAt:   w.LeftAt,
	}
	if w.User.ID != 0 {
		user := ToUserDTO(w.User)
		out.User = &user
	}
	return out
}

// ShiftListItemDTO represents a shift in list responses
type ShiftListItemDTO struct {
	ID       uint64             `json:"id"`
	Status   models.ShiftStatus `json:"status"`
	OpenedAt time.Time          `json:"opened_at"`
	ClosedAt *time.Time         `json:"closed_at"`
	Note     string             `json:"note"`
}

// ToShiftListItemDTO converts a shift to its list DTO
func ToShiftListItemDTO(s models.Shift) ShiftListItemDTO {
	return ShiftListItemDTO{
		ID:       s.ID,
		Status:   s.Status,
		OpenedAt: s.OpenedAt,
		ClosedAt: s.ClosedAt,
		Note:     s.Note,
	}
}

// ShiftDTO is the board summary of a shift
type ShiftDTO struct {
	ShiftListItemDTO
	CanClose      bool            `json:"can_close"`
	BlockingCount int             `json:"blocking_count"`
	Assignments   []AssignmentDTO `json:"assignments"`
	WatchStaff    []WatchStaffDTO `json:"watch_staff,omitempty"`
}

// ToShiftDTO converts a shift with its assignments to DTO. canClose and
// blocking come from the closure rule.
func ToShiftDTO(s models.Shift, canClose bool, blocking int, undo UndoInfo) ShiftDTO {
	out := ShiftDTO{
		ShiftListItemDTO: ToShiftListItemDTO(s),
		CanClose:         canClose,
		BlockingCount:    blocking,
		Assignments:      ToAssignmentDTOs(s.Assignments, undo),
	}
	for _, w := range s.WatchStaff {
		out.WatchStaff = append(out.WatchStaff, ToWatchStaffDTO(w))
	}
	return out
}

// ControllerDTO represents a roster entry
type ControllerDTO struct {
	ID                   uint64        `json:"id"`
	Name                 string        `json:"name"`
	Note                 string        `json:"note"`
	ControllerType       string        `json:"controller_type"`
	IsActive             bool          `json:"is_active"`
	Status               models.Status `json:"status"`
	StatusLabel          string        `json:"status_label"`
	StatusChangedAt      *time.Time    `json:"status_changed_at"`
	StatusChangedBy      *uint64       `json:"status_changed_by"`
	CanUndo              bool          `json:"can_undo"`
	UndoRemainingSeconds int           `json:"undo_remaining_seconds"`
}

// ToControllerDTO converts a controller to DTO, labelling its status from statuses
func ToControllerDTO(c models.Controller, statuses models.StatusSet, undo UndoInfo) ControllerDTO {
	return ControllerDTO{
		ID:                   c.ID,
		Name:                 c.Name,
		Note:                 c.Note,
		ControllerType:       c.ControllerType,
		IsActive:             c.IsActive,
		Status:               c.Status,
		StatusLabel:          statuses.Label(c.Status),
		StatusChangedAt:      c.StatusChangedAt,
		StatusChangedBy:      c.StatusChangedBy,
		CanUndo:              undo.CanUndo(c.StatusChangedAt),
		UndoRemainingSeconds: undo.RemainingUndoSeconds(c.StatusChangedAt),
	}
}
