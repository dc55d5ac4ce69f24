package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/yukikurage/watchtower-api/internal/constants"
	apierrors "github.com/yukikurage/watchtower-api/internal/errors"
	"github.com/yukikurage/watchtower-api/internal/models"
	"github.com/yukikurage/watchtower-api/internal/services"
)

// TokenAuthenticator resolves a raw bearer secret to its owner
type TokenAuthenticator interface {
	Authenticate(ctx context.Context, raw string) (*models.User, *models.PersonalAccessToken, error)
}

// UserLoader resolves a session's user ID to a live account
type UserLoader interface {
	GetUser(ctx context.Context, id uint64) (*models.User, error)
}

// RequireAuth accepts either a session cookie or an Authorization: Bearer
// header. A bearer header, when present, takes precedence over the session.
// A session whose user no longer exists is cleared and rejected.
func RequireAuth(tokens TokenAuthenticator, users UserLoader, log logrus.FieldLogger) gin.HandlerFunc {
	log = log.WithField("component", "auth")

	return func(c *gin.Context) {
		if header := c.GetHeader("Authorization"); header != "" {
			raw, ok := parseBearer(header)
			if !ok {
				rejectBearer(c)
				return
			}

			user, token, err := tokens.Authenticate(c.Request.Context(), raw)
			if err != nil {
				if !errors.Is(err, services.ErrAuthenticationFailed) {
					log.WithError(err).Error("Token lookup failed")
				}
				rejectBearer(c)
				return
			}

			c.Set(constants.ContextKeyUserID, user.ID)
			c.Set(constants.ContextKeyToken, token)
			c.Next()
			return
		}

		session := sessions.Default(c)
		userID, ok := toUserID(session.Get(constants.ContextKeyUserID))
		if !ok {
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}

		user, err := users.GetUser(c.Request.Context(), userID)
		if err != nil {
			if !errors.Is(err, services.ErrUserNotFound) {
				log.WithError(err).Error("Session user lookup failed")
				apierrors.InternalError(c, "")
				c.Abort()
				return
			}

			session.Clear()
			if err := session.Save(); err != nil {
				log.WithError(err).Warn("Failed to clear stale session")
			}
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}

		// Store user ID in context for easy access in handlers
		c.Set(constants.ContextKeyUserID, user.ID)
		c.Next()
	}
}

func parseBearer(header string) (string, bool) {
	scheme, raw, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, constants.BearerScheme) {
		return "", false
	}
	raw = strings.TrimSpace(raw)
	return raw, raw != ""
}

func rejectBearer(c *gin.Context) {
	c.Header("WWW-Authenticate", `Bearer realm="watchtower"`)
	apierrors.Unauthorized(c, "Invalid or expired token")
	c.Abort()
}

// GetUserID retrieves the current user ID from context
func GetUserID(c *gin.Context) (uint64, bool) {
	userID, exists := c.Get(constants.ContextKeyUserID)
	if !exists {
		return 0, false
	}
	return toUserID(userID)
}

func toUserID(userID any) (uint64, bool) {
	switch v := userID.(type) {
	case uint64:
		return v, v != 0
	case uint:
		return uint64(v), true
	case int:
		if v < 0 {
			return 0, false
		}
		return uint64(v), true
	default:
		return 0, false
	}
}

// GetToken returns the token that authenticated the request, if any
func GetToken(c *gin.Context) (*models.PersonalAccessToken, bool) {
	v, exists := c.Get(constants.ContextKeyToken)
	if !exists {
		return nil, false
	}
	token, ok := v.(*models.PersonalAccessToken)
	return token, ok
}
