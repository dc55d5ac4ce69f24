package models

import "time"

type ShiftStatus string

const (
	ShiftStatusOpen   ShiftStatus = "OPEN"
	ShiftStatusClosed ShiftStatus = "CLOSED"
)

// Shift is a bounded duty period. ClosedAt is set iff Status is CLOSED.
type Shift struct {
	ID        uint64      `gorm:"primarykey" json:"id"`
	Status    ShiftStatus `gorm:"type:varchar(10);not null;default:'OPEN';index" json:"status"`
	OpenedAt  time.Time   `gorm:"not null;index" json:"opened_at"`
	ClosedAt  *time.Time  `json:"closed_at"`
	Note      string      `gorm:"type:text" json:"note"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`

	// OpenSlot is true while the shift is open and NULL once closed. Its
	// unique index admits at most one open shift.
	OpenSlot *bool `gorm:"uniqueIndex" json:"-"`

	// Relations
	Assignments []ShiftAssignment `gorm:"foreignKey:ShiftID" json:"assignments,omitempty"`
	WatchStaff  []ShiftWatchStaff `gorm:"foreignKey:ShiftID" json:"watch_staff,omitempty"`
}

// IsOpen reports whether the shift is still open.
func (s Shift) IsOpen() bool {
	return s.Status == ShiftStatusOpen
}
