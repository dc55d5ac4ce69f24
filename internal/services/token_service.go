package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sirupsen/logrus"
	"github.com/yukikurage/watchtower-api/internal/clock"
	"github.com/yukikurage/watchtower-api/internal/constants"
	"github.com/yukikurage/watchtower-api/internal/models"
	"github.com/yukikurage/watchtower-api/internal/repository"
	"github.com/yukikurage/watchtower-api/internal/utils"
	"gorm.io/gorm"
)

var (
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrTokenNotFound        = errors.New("token not found")
	ErrTokenLabelRequired   = errors.New("token label must be 1-80 characters")
	ErrInvalidTTL           = errors.New("ttl_hours must be positive")
)

const maxTokenLabelLength = 80

// TokenService manages personal access tokens and authenticates bearer secrets
type TokenService struct {
	tokenRepo repository.TokenRepository
	clock     clock.Clock
	log       logrus.FieldLogger
}

// NewTokenService creates a new TokenService
func NewTokenService(tokenRepo repository.TokenRepository, clk clock.Clock, log logrus.FieldLogger) *TokenService {
	return &TokenService{
		tokenRepo: tokenRepo,
		clock:     clk,
		log:       log.WithField("component", "token_service"),
	}
}

// Issue creates a token for a user. The raw secret is returned once and
// never stored.
func (s *TokenService) Issue(ctx context.Context, userID uint64, label string, ttlHours *int) (*models.PersonalAccessToken, string, error) {
	label = strings.TrimSpace(label)
	if label == "" || utf8.RuneCountInString(label) > maxTokenLabelLength {
		return nil, "", ErrTokenLabelRequired
	}

	now := s.clock.Now()
	expiresAt, err := expiryFrom(now, ttlHours)
	if err != nil {
		return nil, "", err
	}

	raw, err := utils.GenerateSecret(constants.TokenSecretBytes)
	if err != nil {
		return nil, "", err
	}

	token := &models.PersonalAccessToken{
		UserID:    userID,
		Label:     label,
		TokenHash: utils.HashSecret(raw),
		CreatedAt: now,
		ExpiresAt: expiresAt,
	}
	if err := s.tokenRepo.Create(ctx, token); err != nil {
		return nil, "", fmt.Errorf("failed to create token: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"token_id": token.ID,
		"user_id":  userID,
	}).Info("Token issued")

	return token, raw, nil
}

// Authenticate resolves a raw secret to its user and token. Unknown,
// revoked, expired and orphaned secrets all fail with ErrAuthenticationFailed.
func (s *TokenService) Authenticate(ctx context.Context, raw string) (*models.User, *models.PersonalAccessToken, error) {
	if raw == "" {
		s.log.Debug("Token rejected: empty secret")
		return nil, nil, ErrAuthenticationFailed
	}

	digest := utils.HashSecret(raw)
	token, err := s.tokenRepo.FindByHash(ctx, digest)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.log.Debug("Token rejected: no match")
			return nil, nil, ErrAuthenticationFailed
		}
		return nil, nil, fmt.Errorf("failed to look up token: %w", err)
	}

	if subtle.ConstantTimeCompare([]byte(token.TokenHash), []byte(digest)) != 1 {
		s.log.WithField("token_id", token.ID).Debug("Token rejected: digest mismatch")
		return nil, nil, ErrAuthenticationFailed
	}

	if token.User.ID == 0 {
		s.log.WithField("token_id", token.ID).Debug("Token rejected: owner missing")
		return nil, nil, ErrAuthenticationFailed
	}

	now := s.clock.Now()
	if token.IsRevoked() {
		s.log.WithField("token_id", token.ID).Debug("Token rejected: revoked")
		return nil, nil, ErrAuthenticationFailed
	}
	if token.IsExpired(now) {
		s.log.WithField("token_id", token.ID).Debug("Token rejected: expired")
		return nil, nil, ErrAuthenticationFailed
	}

	if err := s.tokenRepo.TouchLastUsed(ctx, token.ID, now); err != nil {
		s.log.WithError(err).WithField("token_id", token.ID).Warn("Failed to record token use")
	} else {
		token.LastUsedAt = &now
	}

	return &token.User, token, nil
}

// GetToken returns a token owned by userID.
func (s *TokenService) GetToken(ctx context.Context, userID, id uint64) (*models.PersonalAccessToken, error) {
	token, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if token.UserID != userID {
		return nil, ErrTokenNotFound
	}
	return token, nil
}

// ListTokens returns a user's tokens newest first.
func (s *TokenService) ListTokens(ctx context.Context, userID uint64) ([]models.PersonalAccessToken, error) {
	tokens, err := s.tokenRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tokens: %w", err)
	}
	return tokens, nil
}

// Revoke disables a token. Revoking twice keeps the first revocation time.
func (s *TokenService) Revoke(ctx context.Context, id uint64) (*models.PersonalAccessToken, error) {
	if _, err := s.find(ctx, id); err != nil {
		return nil, err
	}

	if err := s.tokenRepo.MarkRevoked(ctx, id, s.clock.Now()); err != nil {
		return nil, fmt.Errorf("failed to revoke token: %w", err)
	}

	token, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	s.log.WithField("token_id", id).Info("Token revoked")
	return token, nil
}

// Rotate replaces a token's secret in place, clears revocation and
// recomputes expiry. The old secret stops working immediately.
func (s *TokenService) Rotate(ctx context.Context, id uint64, ttlHours *int) (*models.PersonalAccessToken, string, error) {
	expiresAt, err := expiryFrom(s.clock.Now(), ttlHours)
	if err != nil {
		return nil, "", err
	}

	if _, err := s.find(ctx, id); err != nil {
		return nil, "", err
	}

	raw, err := utils.GenerateSecret(constants.TokenSecretBytes)
	if err != nil {
		return nil, "", err
	}

	if err := s.tokenRepo.UpdateCredential(ctx, id, utils.HashSecret(raw), expiresAt); err != nil {
		return nil, "", fmt.Errorf("failed to rotate token: %w", err)
	}

	token, err := s.find(ctx, id)
	if err != nil {
		return nil, "", err
	}

	s.log.WithField("token_id", id).Info("Token rotated")
	return token, raw, nil
}

func (s *TokenService) find(ctx context.Context, id uint64) (*models.PersonalAccessToken, error) {
	token, err := s.tokenRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTokenNotFound
		}
		return nil, fmt.Errorf("failed to find token: %w", err)
	}
	return token, nil
}

func expiryFrom(now time.Time, ttlHours *int) (*time.Time, error) {
	if ttlHours == nil {
		return nil, nil
	}
	if *ttlHours <= 0 {
		return nil, ErrInvalidTTL
	}
	expiresAt := now.Add(time.Duration(*ttlHours) * time.Hour)
	return &expiresAt, nil
}
