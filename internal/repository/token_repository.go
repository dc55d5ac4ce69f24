package repository

import (
	"context"
	"time"

	"github.com/yukikurage/watchtower-api/internal/models"
	"gorm.io/gorm"
)

// GormTokenRepository is a GORM implementation of TokenRepository
type GormTokenRepository struct {
	db *gorm.DB
}

// NewTokenRepository creates a new TokenRepository
func NewTokenRepository(db *gorm.DB) TokenRepository {
	return &GormTokenRepository{db: db}
}

// Create creates a new token
func (r *GormTokenRepository) Create(ctx context.Context, token *models.PersonalAccessToken) error {
	return r.db.WithContext(ctx).Omit("User").Create(token).Error
}

// FindByID finds a token by ID
func (r *GormTokenRepository) FindByID(ctx context.Context, id uint64) (*models.PersonalAccessToken, error) {
	var token models.PersonalAccessToken
	if err := r.db.WithContext(ctx).First(&token, id).Error; err != nil {
		return nil, err
	}
	return &token, nil
}

// FindByHash finds a token by its digest
func (r *GormTokenRepository) FindByHash(ctx context.Context, hash string) (*models.PersonalAccessToken, error) {
	var token models.PersonalAccessToken
	if err := r.db.WithContext(ctx).InnerJoins("User").
		Where("personal_access_tokens.token_hash = ?", hash).
		First(&token).Error; err != nil {
		return nil, err
	}
	return &token, nil
}

// ListByUser returns a user's tokens newest first
func (r *GormTokenRepository) ListByUser(ctx context.Context, userID uint64) ([]models.PersonalAccessToken, error) {
	var tokens []models.PersonalAccessToken
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").Order("id DESC").
		Find(&tokens).Error; err != nil {
		return nil, err
	}
	return tokens, nil
}

// MarkRevoked sets revoked_at unless the token is already revoked
func (r *GormTokenRepository) MarkRevoked(ctx context.Context, id uint64, at time.Time) error {
	return r.db.WithContext(ctx).Model(&models.PersonalAccessToken{}).
		Where("id = ? AND revoked_at IS NULL", id).
		Update("revoked_at", at).Error
}

// UpdateCredential replaces the digest and expiry and clears revocation
func (r *GormTokenRepository) UpdateCredential(ctx context.Context, id uint64, hash string, expiresAt *time.Time) error {
	return r.db.WithContext(ctx).Model(&models.PersonalAccessToken{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"token_hash": hash,
			"expires_at": expiresAt,
			"revoked_at": nil,
		}).Error
}

// TouchLastUsed records when the token last authenticated a request
func (r *GormTokenRepository) TouchLastUsed(ctx context.Context, id uint64, at time.Time) error {
	return r.db.WithContext(ctx).Model(&models.PersonalAccessToken{}).
		Where("id = ?", id).
		Update("last_used_at", at).Error
}
