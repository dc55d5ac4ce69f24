package models

import "time"

// Controller is a roster entry, one row on the board.
type Controller struct {
	ID              uint64     `gorm:"primarykey" json:"id"`
	Name            string     `gorm:"type:varchar(120);not null" json:"name"`
	Note            string     `gorm:"type:text" json:"note"`
	ControllerType  string     `gorm:"type:varchar(50);not null;default:''" json:"controller_type"`
	IsActive        bool       `gorm:"not null" json:"is_active"`
	Status          Status     `gorm:"type:varchar(20);not null" json:"status"`
	StatusChangedAt *time.Time `json:"status_changed_at"`
	StatusChangedBy *uint64    `gorm:"index" json:"status_changed_by"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}
