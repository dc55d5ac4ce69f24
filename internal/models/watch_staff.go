package models

import "time"

// ShiftWatchStaff records a user standing watch on a shift.
type ShiftWatchStaff struct {
	ID        uint64     `gorm:"primarykey" json:"id"`
	ShiftID   uint64     `gorm:"not null;uniqueIndex:idx_watch_shift_user,priority:1" json:"shift_id"`
	UserID    uint64     `gorm:"not null;uniqueIndex:idx_watch_shift_user,priority:2" json:"user_id"`
	IsOnDuty  bool       `gorm:"not null" json:"is_on_duty"`
	JoinedAt  time.Time  `gorm:"not null" json:"joined_at"`
	LeftAt    *time.Time `json:"left_at"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`

	// Relations
	User User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}
