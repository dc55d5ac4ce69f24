package services

import (
	"fmt"
	"strings"

	"github.com/yukikurage/watchtower-api/internal/models"
)

// CanClose reports whether a shift with these assignments may be closed.
// Any single ON_DUTY or UNKNOWN assignment blocks closure.
func CanClose(assignments []models.ShiftAssignment) bool {
	for _, a := range assignments {
		if a.Status.IsBlocking() {
			return false
		}
	}
	return true
}

// BlockingAssignments returns the assignments that prevent closure, in input order.
func BlockingAssignments(assignments []models.ShiftAssignment) []models.ShiftAssignment {
	var blocking []models.ShiftAssignment
	for _, a := range assignments {
		if a.Status.IsBlocking() {
			blocking = append(blocking, a)
		}
	}
	return blocking
}

// NotClosableError is returned when a shift still has blocking assignments.
type NotClosableError struct {
	ShiftID  uint64
	Blocking []models.ShiftAssignment
}

func (e *NotClosableError) Error() string {
	return fmt.Sprintf("shift %d cannot be closed: %s", e.ShiftID, e.Reason())
}

// Reason explains which callsigns block closure.
func (e *NotClosableError) Reason() string {
	callsigns := e.Callsigns()
	noun := "assignments are"
	if len(callsigns) == 1 {
		noun = "assignment is"
	}
	return fmt.Sprintf("%d %s still on duty or unconfirmed (%s)", len(callsigns), noun, strings.Join(callsigns, ", "))
}

// Callsigns lists the blocking callsigns.
func (e *NotClosableError) Callsigns() []string {
	callsigns := make([]string, 0, len(e.Blocking))
	for _, a := range e.Blocking {
		callsigns = append(callsigns, a.Callsign)
	}
	return callsigns
}
