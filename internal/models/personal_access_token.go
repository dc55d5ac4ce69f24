package models

import "time"

// PersonalAccessToken is an API credential. Only the SHA-256 hex digest of
// the secret is stored.
type PersonalAccessToken struct {
	ID         uint64     `gorm:"primarykey" json:"id"`
	UserID     uint64     `gorm:"not null;index" json:"user_id"`
	Label      string     `gorm:"type:varchar(80);not null" json:"label"`
	TokenHash  string     `gorm:"type:char(64);uniqueIndex;not null" json:"-"`
	CreatedAt  time.Time  `json:"created_at"`
	ExpiresAt  *time.Time `json:"expires_at"`
	RevokedAt  *time.Time `json:"revoked_at"`
	LastUsedAt *time.Time `json:"last_used_at"`

	// Relations
	User User `gorm:"foreignKey:UserID" json:"-"`
}

// IsRevoked reports whether the token has been revoked.
func (t PersonalAccessToken) IsRevoked() bool {
	return t.RevokedAt != nil
}

// IsExpired reports whether the token has an expiry at or before now.
func (t PersonalAccessToken) IsExpired(now time.Time) bool {
	return t.ExpiresAt != nil && !now.Before(*t.ExpiresAt)
}

// IsActive reports whether the token may authenticate at now.
func (t PersonalAccessToken) IsActive(now time.Time) bool {
	return !t.IsRevoked() && !t.IsExpired(now)
}
