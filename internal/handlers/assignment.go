package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/yukikurage/watchtower-api/internal/constants"
	"github.com/yukikurage/watchtower-api/internal/dto"
	apierrors "github.com/yukikurage/watchtower-api/internal/errors"
	"github.com/yukikurage/watchtower-api/internal/middleware"
	"github.com/yukikurage/watchtower-api/internal/models"
	"github.com/yukikurage/watchtower-api/internal/repository"
	"github.com/yukikurage/watchtower-api/internal/services"
	"github.com/yukikurage/watchtower-api/internal/utils"
)

// AssignmentHandler changes and reverts assignment statuses
type AssignmentHandler struct {
	shiftService *services.ShiftService
	engine       *services.StatusEngine
	log          logrus.FieldLogger
}

func NewAssignmentHandler(shiftService *services.ShiftService, engine *services.StatusEngine, log logrus.FieldLogger) *AssignmentHandler {
	return &AssignmentHandler{
		shiftService: shiftService,
		engine:       engine,
		log:          log.WithField("component", "assignment_handler"),
	}
}

// setStatusRequest is shared by assignment and controller status changes
type setStatusRequest struct {
	Status string `json:"status" binding:"required"`
	Note   string `json:"note" binding:"max=500"`
}

// undoResponse reports whether an undo happened and the entity afterwards
type undoResponse struct {
	Undone bool `json:"undone"`
	Entity any  `json:"entity"`
}

func actorID(c *gin.Context) *uint64 {
	if id, ok := middleware.GetUserID(c); ok {
		return &id
	}
	return nil
}

// SetStatus moves an assignment to a new status
func (h *AssignmentHandler) SetStatus(c *gin.Context) {
	assignment, ok := middleware.GetAssignment(c)
	if !ok {
		apierrors.NotFound(c, "Assignment not found")
		return
	}

	var req setStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	updated, err := h.engine.SetAssignmentStatus(c.Request.Context(), assignment.ID, services.SetStatusInput{
		Status:  models.Status(req.Status),
		ActorID: actorID(c),
		Note:    req.Note,
	})
	if err != nil {
		respondServiceError(c, h.log, err, models.ShiftStatuses)
		return
	}
	updated.Controller = assignment.Controller

	c.JSON(http.StatusOK, dto.ToAssignmentDTO(*updated, h.engine))
}

// Undo reverts the latest change when still inside the undo window.
// An ineligible undo is not an error: it answers undone=false.
func (h *AssignmentHandler) Undo(c *gin.Context) {
	assignment, ok := middleware.GetAssignment(c)
	if !ok {
		apierrors.NotFound(c, "Assignment not found")
		return
	}

	reverted, err := h.engine.UndoAssignment(c.Request.Context(), assignment.ID)
	switch {
	case errors.Is(err, services.ErrUndoNotAllowed):
		c.JSON(http.StatusOK, undoResponse{
			Undone: false,
			Entity: dto.ToAssignmentDTO(*assignment, h.engine),
		})
	case err != nil:
		respondServiceError(c, h.log, err, models.ShiftStatuses)
	default:
		reverted.Controller = assignment.Controller
		c.JSON(http.StatusOK, undoResponse{
			Undone: true,
			Entity: dto.ToAssignmentDTO(*reverted, h.engine),
		})
	}
}

// ListLogs returns the assignment's audit rows, newest first
func (h *AssignmentHandler) ListLogs(c *gin.Context) {
	assignment, ok := middleware.GetAssignment(c)
	if !ok {
		apierrors.NotFound(c, "Assignment not found")
		return
	}

	limit := utils.GetLogLimit(c, constants.DefaultAssignmentLogLimit, constants.MaxLogLimit)
	entries, err := h.engine.ListLogs(c.Request.Context(), repository.LogFilter{
		AssignmentID: &assignment.ID,
		Limit:        limit,
	})
	if err != nil {
		respondServiceError(c, h.log, err, nil)
		return
	}

	c.JSON(http.StatusOK, gin.H{"logs": dto.ToStatusLogDTOs(entries)})
}

// DeleteAssignment removes the assignment and its audit rows
func (h *AssignmentHandler) DeleteAssignment(c *gin.Context) {
	assignment, ok := middleware.GetAssignment(c)
	if !ok {
		apierrors.NotFound(c, "Assignment not found")
		return
	}

	if err := h.shiftService.RemoveAssignment(c.Request.Context(), assignment.ID); err != nil {
		respondServiceError(c, h.log, err, nil)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Assignment removed successfully"})
}
