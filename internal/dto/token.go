package dto

import (
	"time"

	"github.com/yukikurage/watchtower-api/internal/models"
)

// TokenDTO represents a personal access token. The digest is never exposed.
type TokenDTO struct {
	ID         uint64     `json:"id"`
	Label      string     `json:"label"`
	CreatedAt  time.Time  `json:"created_at"`
	ExpiresAt  *time.Time `json:"expires_at"`
	RevokedAt  *time.Time `json:"revoked_at"`
	LastUsedAt *time.Time `json:"last_used_at"`
	IsActive   bool       `json:"is_active"`
}

// IssuedTokenDTO carries the raw secret, shown exactly once
type IssuedTokenDTO struct {
	TokenDTO
	Token string `json:"token"`
}

// ToTokenDTO converts a token to DTO
func ToTokenDTO(t models.PersonalAccessToken, now time.Time) TokenDTO {
	return TokenDTO{
		ID:         t.ID,
		Label:      t.Label,
		CreatedAt:  t.CreatedAt,
		ExpiresAt:  t.ExpiresAt,
		RevokedAt:  t.RevokedAt,
		LastUsedAt: t.LastUsedAt,
		IsActive:   t.IsActive(now),
	}
}
