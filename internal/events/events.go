// Package events publishes status-change notifications for downstream consumers.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/yukikurage/watchtower-api/internal/models"
)

// StatusChangedQueue is the durable queue status events are routed to.
const StatusChangedQueue = "status.changed"

// Subject kinds carried in StatusChangedEvent.Subject.
const (
	SubjectAssignment = "assignment"
	SubjectController = "controller"
)

// StatusChangedEvent is emitted after a status transition or undo commits.
type StatusChangedEvent struct {
	EventID    string        `json:"event_id"`
	Subject    string        `json:"subject"`
	SubjectID  uint64        `json:"subject_id"`
	ShiftID    *uint64       `json:"shift_id,omitempty"`
	Callsign   string        `json:"callsign,omitempty"`
	OldStatus  models.Status `json:"old_status"`
	NewStatus  models.Status `json:"new_status"`
	ChangedBy  *uint64       `json:"changed_by,omitempty"`
	OccurredAt time.Time     `json:"occurred_at"`
	Undo       bool          `json:"undo"`
}

// NewStatusChangedEvent stamps a fresh event id.
func NewStatusChangedEvent(subject string, subjectID uint64, oldStatus, newStatus models.Status, at time.Time) StatusChangedEvent {
	return StatusChangedEvent{
		EventID:    uuid.NewString(),
		Subject:    subject,
		SubjectID:  subjectID,
		OldStatus:  oldStatus,
		NewStatus:  newStatus,
		OccurredAt: at,
	}
}

// Publisher delivers status events. Implementations must be safe for
// concurrent use.
type Publisher interface {
	PublishStatusChanged(ctx context.Context, event StatusChangedEvent) error
}

// NopPublisher drops every event.
type NopPublisher struct{}

// PublishStatusChanged does nothing.
func (NopPublisher) PublishStatusChanged(context.Context, StatusChangedEvent) error {
	return nil
}
