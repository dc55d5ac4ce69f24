package dto

import (
	"time"

	"github.com/yukikurage/watchtower-api/internal/models"
)

// StatusLogDTO represents one audit row
type StatusLogDTO struct {
	ID             uint64        `json:"id"`
	AssignmentID   *uint64       `json:"assignment_id"`
	ControllerID   *uint64       `json:"controller_id"`
	Callsign       string        `json:"callsign,omitempty"`
	ControllerName string        `json:"controller_name,omitempty"`
	OldStatus      models.Status `json:"old_status"`
	NewStatus      models.Status `json:"new_status"`
	ChangedBy      *UserDTO      `json:"changed_by"`
	ChangedAt      time.Time     `json:"changed_at"`
	Note           string        `json:"note"`
}

// ToStatusLogDTO converts an audit row to DTO
func ToStatusLogDTO(entry models.StatusLog) StatusLogDTO {
	out := StatusLogDTO{
		ID:           entry.ID,
		AssignmentID: entry.AssignmentID,
		ControllerID: entry.ControllerID,
		OldStatus:    entry.OldStatus,
		NewStatus:    entry.NewStatus,
		ChangedAt:    entry.ChangedAt,
		Note:         entry.Note,
	}

	switch {
	case entry.Assignment != nil:
		out.Callsign = entry.Assignment.Callsign
		out.ControllerName = entry.Assignment.Controller.Name
	case entry.Controller != nil:
		out.ControllerName = entry.Controller.Name
	}

	if entry.Actor != nil {
		actor := ToUserDTO(*entry.Actor)
		out.ChangedBy = &actor
	}

	return out
}

// ToStatusLogDTOs converts a list of audit rows to DTOs
func ToStatusLogDTOs(entries []models.StatusLog) []StatusLogDTO {
	out := make([]StatusLogDTO, len(entries))
	for i, entry := range entries {
		out[i] = ToStatusLogDTO(entry)
	}
	return out
}
