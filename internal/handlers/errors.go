package handlers

import (
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/yukikurage/watchtower-api/internal/constants"
	apierrors "github.com/yukikurage/watchtower-api/internal/errors"
	"github.com/yukikurage/watchtower-api/internal/models"
	"github.com/yukikurage/watchtower-api/internal/services"
)

// notClosableDetails is the details payload of a NOT_CLOSABLE response
type notClosableDetails struct {
	ShiftID   uint64   `json:"shift_id"`
	Blocking  []string `json:"blocking_callsigns"`
	Remaining int      `json:"blocking_count"`
}

// respondServiceError maps service errors onto the API error envelope.
// statuses is the enumeration reported back on INVALID_STATUS.
func respondServiceError(c *gin.Context, log logrus.FieldLogger, err error, statuses models.StatusSet) {
	var notClosable *services.NotClosableError

	switch {
	case errors.As(err, &notClosable):
		apierrors.NotClosable(c, notClosable.Reason(), notClosableDetails{
			ShiftID:   notClosable.ShiftID,
			Blocking:  notClosable.Callsigns(),
			Remaining: len(notClosable.Blocking),
		})

	case errors.Is(err, services.ErrInvalidStatus):
		apierrors.InvalidStatus(c, err.Error(), statuses)

	case errors.Is(err, services.ErrAssignmentNotFound),
		errors.Is(err, services.ErrControllerNotFound),
		errors.Is(err, services.ErrShiftNotFound),
		errors.Is(err, services.ErrNoOpenShift),
		errors.Is(err, services.ErrTokenNotFound),
		errors.Is(err, services.ErrUserNotFound),
		errors.Is(err, services.ErrNotOnWatch):
		apierrors.NotFound(c, err.Error())

	case errors.Is(err, services.ErrConcurrentModification):
		apierrors.ConcurrentModification(c, "")

	case errors.Is(err, services.ErrDuplicateCallsign),
		errors.Is(err, services.ErrShiftAlreadyOpen),
		errors.Is(err, services.ErrShiftAlreadyClosed),
		errors.Is(err, services.ErrControllerInUse),
		errors.Is(err, services.ErrUsernameTaken):
		apierrors.Conflict(c, err.Error())

	case errors.Is(err, services.ErrInvalidCallsign),
		errors.Is(err, services.ErrControllerNameRequired),
		errors.Is(err, services.ErrControllerNoteTooLong),
		errors.Is(err, services.ErrTokenLabelRequired),
		errors.Is(err, services.ErrInvalidTTL),
		errors.Is(err, services.ErrUsernameRequired),
		errors.Is(err, services.ErrIncorrectPassword):
		apierrors.BadRequest(c, err.Error())

	case errors.Is(err, services.ErrPasswordTooShort):
		apierrors.BadRequest(c, fmt.Sprintf("Password must be at least %d characters", constants.MinPasswordLength))

	case errors.Is(err, services.ErrInvalidCredentials),
		errors.Is(err, services.ErrAuthenticationFailed):
		apierrors.Unauthorized(c, err.Error())

	default:
		log.WithError(err).WithField("path", c.FullPath()).Error("Request failed")
		apierrors.InternalError(c, "")
	}
}
