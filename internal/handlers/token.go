package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/yukikurage/watchtower-api/internal/clock"
	"github.com/yukikurage/watchtower-api/internal/dto"
	apierrors "github.com/yukikurage/watchtower-api/internal/errors"
	"github.com/yukikurage/watchtower-api/internal/middleware"
	"github.com/yukikurage/watchtower-api/internal/services"
)

// TokenHandler exposes the personal access token lifecycle of the current user
type TokenHandler struct {
	tokenService *services.TokenService
	clock        clock.Clock
	log          logrus.FieldLogger
}

func NewTokenHandler(tokenService *services.TokenService, clk clock.Clock, log logrus.FieldLogger) *TokenHandler {
	return &TokenHandler{
		tokenService: tokenService,
		clock:        clk,
		log:          log.WithField("component", "token_handler"),
	}
}

type issueTokenRequest struct {
	Label    string `json:"label" binding:"required"`
	TTLHours *int   `json:"ttl_hours"`
}

type rotateTokenRequest struct {
	TTLHours *int `json:"ttl_hours"`
}

// ListTokens returns the caller's tokens, newest first. Secrets are never included.
func (h *TokenHandler) ListTokens(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		apierrors.Unauthorized(c, "")
		return
	}

	tokens, err := h.tokenService.ListTokens(c.Request.Context(), userID)
	if err != nil {
		respondServiceError(c, h.log, err, nil)
		return
	}

	now := h.clock.Now()
	out := make([]dto.TokenDTO, 0, len(tokens))
	for _, t := range tokens {
		out = append(out, dto.ToTokenDTO(t, now))
	}
	c.JSON(http.StatusOK, gin.H{"tokens": out})
}

// IssueToken creates a token. The raw secret appears in this response only.
func (h *TokenHandler) IssueToken(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		apierrors.Unauthorized(c, "")
		return
	}

	var req issueTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	token, raw, err := h.tokenService.Issue(c.Request.Context(), userID, req.Label, req.TTLHours)
	if err != nil {
		respondServiceError(c, h.log, err, nil)
		return
	}

	c.JSON(http.StatusCreated, dto.IssuedTokenDTO{
		TokenDTO: dto.ToTokenDTO(*token, h.clock.Now()),
		Token:    raw,
	})
}

// RevokeToken revokes one of the caller's tokens
func (h *TokenHandler) RevokeToken(c *gin.Context) {
	id, ok := h.ownedTokenID(c)
	if !ok {
		return
	}

	token, err := h.tokenService.Revoke(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, h.log, err, nil)
		return
	}

	c.JSON(http.StatusOK, dto.ToTokenDTO(*token, h.clock.Now()))
}

// RotateToken replaces the secret of one of the caller's tokens
func (h *TokenHandler) RotateToken(c *gin.Context) {
	id, ok := h.ownedTokenID(c)
	if !ok {
		return
	}

	var req rotateTokenRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			apierrors.BadRequest(c, "Invalid request body")
			return
		}
	}

	token, raw, err := h.tokenService.Rotate(c.Request.Context(), id, req.TTLHours)
	if err != nil {
		respondServiceError(c, h.log, err, nil)
		return
	}

	c.JSON(http.StatusOK, dto.IssuedTokenDTO{
		TokenDTO: dto.ToTokenDTO(*token, h.clock.Now()),
		Token:    raw,
	})
}

// ownedTokenID parses :id and checks the token belongs to the caller.
// Other users' tokens answer 404.
func (h *TokenHandler) ownedTokenID(c *gin.Context) (uint64, bool) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		apierrors.Unauthorized(c, "")
		return 0, false
	}

	id, ok := middleware.ParseIDParam(c, "id")
	if !ok {
		apierrors.BadRequest(c, "Invalid token ID")
		return 0, false
	}

	if _, err := h.tokenService.GetToken(c.Request.Context(), userID, id); err != nil {
		respondServiceError(c, h.log, err, nil)
		return 0, false
	}
	return id, true
}
