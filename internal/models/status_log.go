package models

import "time"

// StatusLog is one immutable audit row per status change. Exactly one of
// AssignmentID and ControllerID is set.
type StatusLog struct {
	ID           uint64    `gorm:"primarykey" json:"id"`
	AssignmentID *uint64   `gorm:"index" json:"assignment_id"`
	ControllerID *uint64   `gorm:"index" json:"controller_id"`
	OldStatus    Status    `gorm:"type:varchar(20);not null" json:"old_status"`
	NewStatus    Status    `gorm:"type:varchar(20);not null" json:"new_status"`
	ChangedBy    *uint64   `gorm:"index" json:"changed_by"`
	ChangedAt    time.Time `gorm:"not null;index" json:"changed_at"`
	Note         string    `gorm:"type:text" json:"note"`

	// Relations
	Assignment *ShiftAssignment `gorm:"foreignKey:AssignmentID" json:"-"`
	Controller *Controller      `gorm:"foreignKey:ControllerID" json:"-"`
	Actor      *User            `gorm:"foreignKey:ChangedBy" json:"-"`
}
