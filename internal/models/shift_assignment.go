package models

import "time"

// ShiftAssignment binds a controller to a callsign within one shift.
type ShiftAssignment struct {
	ID            uint64     `gorm:"primarykey" json:"id"`
	ShiftID       uint64     `gorm:"not null;uniqueIndex:idx_shift_callsign,priority:1" json:"shift_id"`
	ControllerID  uint64     `gorm:"not null;index" json:"controller_id"`
	Callsign      string     `gorm:"type:varchar(10);not null;uniqueIndex:idx_shift_callsign,priority:2" json:"callsign"`
	Status        Status     `gorm:"type:varchar(20);not null;default:'UNKNOWN'" json:"status"`
	Note          string     `gorm:"type:text" json:"note"`
	LastChangedAt *time.Time `json:"last_changed_at"`
	LastChangedBy *uint64    `gorm:"index" json:"last_changed_by"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`

	// Relations
	Controller Controller `gorm:"foreignKey:ControllerID" json:"controller,omitempty"`
}
