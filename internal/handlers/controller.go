package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/yukikurage/watchtower-api/internal/dto"
	apierrors "github.com/yukikurage/watchtower-api/internal/errors"
	"github.com/yukikurage/watchtower-api/internal/middleware"
	"github.com/yukikurage/watchtower-api/internal/models"
	"github.com/yukikurage/watchtower-api/internal/services"
)

// ControllerHandler manages the controller roster and board-mode statuses
type ControllerHandler struct {
	controllerService *services.ControllerService
	engine            *services.StatusEngine
	log               logrus.FieldLogger
}

func NewControllerHandler(controllerService *services.ControllerService, engine *services.StatusEngine, log logrus.FieldLogger) *ControllerHandler {
	return &ControllerHandler{
		controllerService: controllerService,
		engine:            engine,
		log:               log.WithField("component", "controller_handler"),
	}
}

type controllerRequest struct {
	Name           string `json:"name" binding:"required,max=100"`
	Note           string `json:"note"`
	ControllerType string `json:"controller_type" binding:"max=50"`
	IsActive       *bool  `json:"is_active"`
}

func (r controllerRequest) input() services.ControllerInput {
	return services.ControllerInput{
		Name:           r.Name,
		Note:           r.Note,
		ControllerType: r.ControllerType,
		IsActive:       r.IsActive,
	}
}

func (h *ControllerHandler) toDTO(controller models.Controller) dto.ControllerDTO {
	return dto.ToControllerDTO(controller, h.controllerService.Statuses(), h.engine)
}

// ListControllers returns active controllers by default.
// ?include_inactive=true returns the whole roster.
func (h *ControllerHandler) ListControllers(c *gin.Context) {
	includeInactive, _ := strconv.ParseBool(c.DefaultQuery("include_inactive", "false"))

	controllers, err := h.controllerService.ListControllers(c.Request.Context(), services.ListControllersInput{
		ControllerType:  c.Query("controller_type"),
		IncludeInactive: includeInactive,
	})
	if err != nil {
		respondServiceError(c, h.log, err, nil)
		return
	}

	out := make([]dto.ControllerDTO, 0, len(controllers))
	for _, controller := range controllers {
		out = append(out, h.toDTO(controller))
	}
	c.JSON(http.StatusOK, gin.H{
		"controllers": out,
		"statuses":    h.controllerService.Statuses(),
	})
}

func (h *ControllerHandler) CreateController(c *gin.Context) {
	var req controllerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	controller, err := h.controllerService.CreateController(c.Request.Context(), req.input())
	if err != nil {
		respondServiceError(c, h.log, err, nil)
		return
	}

	c.JSON(http.StatusCreated, h.toDTO(*controller))
}

func (h *ControllerHandler) UpdateController(c *gin.Context) {
	id, ok := middleware.ParseIDParam(c, "id")
	if !ok {
		apierrors.BadRequest(c, "Invalid controller ID")
		return
	}

	var req controllerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	controller, err := h.controllerService.UpdateController(c.Request.Context(), id, req.input())
	if err != nil {
		respondServiceError(c, h.log, err, nil)
		return
	}

	c.JSON(http.StatusOK, h.toDTO(*controller))
}

func (h *ControllerHandler) DeleteController(c *gin.Context) {
	id, ok := middleware.ParseIDParam(c, "id")
	if !ok {
		apierrors.BadRequest(c, "Invalid controller ID")
		return
	}

	if err := h.controllerService.DeleteController(c.Request.Context(), id); err != nil {
		respondServiceError(c, h.log, err, nil)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Controller deleted successfully"})
}

// SetStatus moves a controller to a new board status
func (h *ControllerHandler) SetStatus(c *gin.Context) {
	id, ok := middleware.ParseIDParam(c, "id")
	if !ok {
		apierrors.BadRequest(c, "Invalid controller ID")
		return
	}

	var req setStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	controller, err := h.engine.SetControllerStatus(c.Request.Context(), id, services.SetStatusInput{
		Status:  models.Status(req.Status),
		ActorID: actorID(c),
		Note:    req.Note,
	})
	if err != nil {
		respondServiceError(c, h.log, err, h.controllerService.Statuses())
		return
	}

	c.JSON(http.StatusOK, h.toDTO(*controller))
}

// Undo reverts the controller's latest status change inside the undo window
func (h *ControllerHandler) Undo(c *gin.Context) {
	id, ok := middleware.ParseIDParam(c, "id")
	if !ok {
		apierrors.BadRequest(c, "Invalid controller ID")
		return
	}

	reverted, err := h.engine.UndoController(c.Request.Context(), id)
	if errors.Is(err, services.ErrUndoNotAllowed) {
		current, getErr := h.controllerService.GetController(c.Request.Context(), id)
		if getErr != nil {
			respondServiceError(c, h.log, getErr, nil)
			return
		}
		c.JSON(http.StatusOK, undoResponse{Undone: false, Entity: h.toDTO(*current)})
		return
	}
	if err != nil {
		respondServiceError(c, h.log, err, h.controllerService.Statuses())
		return
	}

	c.JSON(http.StatusOK, undoResponse{Undone: true, Entity: h.toDTO(*reverted)})
}
