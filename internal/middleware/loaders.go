package middleware

import (
	"context"
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	apierrors "github.com/yukikurage/watchtower-api/internal/errors"
	"github.com/yukikurage/watchtower-api/internal/models"
	"github.com/yukikurage/watchtower-api/internal/services"
)

const (
	ContextKeyShift      = "shift"
	ContextKeyAssignment = "assignment"
)

// ShiftLoader is the slice of the shift service the loaders need
type ShiftLoader interface {
	GetShift(ctx context.Context, id uint64) (*models.Shift, error)
	GetAssignment(ctx context.Context, id uint64) (*models.ShiftAssignment, error)
}

// ParseIDParam reads a positive numeric path parameter
func ParseIDParam(c *gin.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}

// RequireShift loads the shift named by :id into the context
func RequireShift(shifts ShiftLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		shiftID, ok := ParseIDParam(c, "id")
		if !ok {
			apierrors.BadRequest(c, "Invalid shift ID")
			c.Abort()
			return
		}

		shift, err := shifts.GetShift(c.Request.Context(), shiftID)
		if err != nil {
			if errors.Is(err, services.ErrShiftNotFound) {
				apierrors.NotFound(c, "Shift not found")
			} else {
				apierrors.InternalError(c, "")
			}
			c.Abort()
			return
		}

		c.Set(ContextKeyShift, shift)
		c.Next()
	}
}

// RequireAssignment loads the assignment named by :id into the context
func RequireAssignment(shifts ShiftLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		assignmentID, ok := ParseIDParam(c, "id")
		if !ok {
			apierrors.BadRequest(c, "Invalid assignment ID")
			c.Abort()
			return
		}

		assignment, err := shifts.GetAssignment(c.Request.Context(), assignmentID)
		if err != nil {
			if errors.Is(err, services.ErrAssignmentNotFound) {
				apierrors.NotFound(c, "Assignment not found")
			} else {
				apierrors.InternalError(c, "")
			}
			c.Abort()
			return
		}

		c.Set(ContextKeyAssignment, assignment)
		c.Next()
	}
}

func GetShift(c *gin.Context) (*models.Shift, bool) {
	v, exists := c.Get(ContextKeyShift)
	if !exists {
		return nil, false
	}
	shift, ok := v.(*models.Shift)
	return shift, ok
}

func GetAssignment(c *gin.Context) (*models.ShiftAssignment, bool) {
	v, exists := c.Get(ContextKeyAssignment)
	if !exists {
		return nil, false
	}
	assignment, ok := v.(*models.ShiftAssignment)
	return assignment, ok
}
