package handlers

import (
	"context"
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

// ShiftHandler serves the shift board: shifts, their assignments,
// audit rows and watch staff.
type ShiftHandler struct {
	shiftService *services.ShiftService
	engine       *services.StatusEngine
	log          logrus.FieldLogger
}

func NewShiftHandler(shiftService *services.ShiftService, engine *services.StatusEngine, log logrus.FieldLogger) *ShiftHandler {
	return &ShiftHandler{
		shiftService: shiftService,
		engine:       engine,
		log:          log.WithField("component", "shift_handler"),
	}
}

func (h *ShiftHandler) toShiftDTO(shift models.Shift) dto.ShiftDTO {
	blocking := services.BlockingAssignments(shift.Assignments)
	return dto.ToShiftDTO(shift, len(blocking) == 0, len(blocking), h.engine)
}

// GetCurrentShift returns the open shift with its board summary
func (h *ShiftHandler) GetCurrentShift(c *gin.Context) {
	shift, err := h.shiftService.CurrentShift(c.Request.Context())
	if err != nil {
		respondServiceError(c, h.log, err, nil)
		return
	}

	c.JSON(http.StatusOK, h.toShiftDTO(*shift))
}

// ListShifts returns shifts newest first, optionally filtered by status
func (h *ShiftHandler) ListShifts(c *gin.Context) {
	var status *models.ShiftStatus
	if raw := c.Query("status"); raw != "" {
		s := models.ShiftStatus(raw)
		if s != models.ShiftStatusOpen && s != models.ShiftStatusClosed {
			apierrors.BadRequest(c, "status must be OPEN or CLOSED")
			return
		}
		status = &s
	}

	params := utils.GetPaginationParams(c)
	shifts, total, err := h.shiftService.ListShifts(c.Request.Context(), services.ListShiftsInput{
		Status:   status,
		Page:     params.Page,
		PageSize: params.Limit,
	})
	if err != nil {
		respondServiceError(c, h.log, err, nil)
		return
	}

	items := make([]dto.ShiftListItemDTO, 0, len(shifts))
	for _, s := range shifts {
		items = append(items, dto.ToShiftListItemDTO(s))
	}

	c.JSON(http.StatusOK, gin.H{
		"shifts": items,
		"pagination": utils.PaginationResponse{
			Page:  params.Page,
			Limit: params.Limit,
			Total: total,
		},
	})
}

// OpenShift opens a new shift
func (h *ShiftHandler) OpenShift(c *gin.Context) {
	type OpenShiftRequest struct {
		Note string `json:"note" binding:"max=500"`
	}

	var req OpenShiftRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			apierrors.BadRequest(c, "Invalid request body")
			return
		}
	}

	shift, err := h.shiftService.OpenShift(c.Request.Context(), req.Note)
	if err != nil {
		respondServiceError(c, h.log, err, nil)
		return
	}

	c.JSON(http.StatusCreated, h.toShiftDTO(*shift))
}

// GetShift returns a shift loaded by RequireShift
func (h *ShiftHandler) GetShift(c *gin.Context) {
	shift, ok := middleware.GetShift(c)
	if !ok {
		apierrors.NotFound(c, "Shift not found")
		return
	}

	c.JSON(http.StatusOK, h.toShiftDTO(*shift))
}

// CloseShift closes a shift. Blocked closes answer 409 NOT_CLOSABLE.
func (h *ShiftHandler) CloseShift(c *gin.Context) {
	shift, ok := middleware.GetShift(c)
	if !ok {
		apierrors.NotFound(c, "Shift not found")
		return
	}

	closed, err := h.shiftService.CloseShift(c.Request.Context(), shift.ID)
	if err != nil {
		respondServiceError(c, h.log, err, nil)
		return
	}

	c.JSON(http.StatusOK, h.toShiftDTO(*closed))
}

// DeleteShift removes a shift and everything recorded against it
func (h *ShiftHandler) DeleteShift(c *gin.Context) {
	shift, ok := middleware.GetShift(c)
	if !ok {
		apierrors.NotFound(c, "Shift not found")
		return
	}

	if err := h.shiftService.DeleteShift(c.Request.Context(), shift.ID); err != nil {
		respondServiceError(c, h.log, err, nil)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Shift deleted successfully"})
}

// ListAssignments returns the shift's assignments, optionally by status
func (h *ShiftHandler) ListAssignments(c *gin.Context) {
	shift, ok := middleware.GetShift(c)
	if !ok {
		apierrors.NotFound(c, "Shift not found")
		return
	}

	var status *models.Status
	if raw := c.Query("status"); raw != "" {
		s := models.Status(raw)
		status = &s
	}

	assignments, err := h.shiftService.ListAssignments(c.Request.Context(), shift.ID, status)
	if err != nil {
		respondServiceError(c, h.log, err, models.ShiftStatuses)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"assignments": dto.ToAssignmentDTOs(assignments, h.engine),
	})
}

// AddAssignment binds a controller to a callsign on the shift
func (h *ShiftHandler) AddAssignment(c *gin.Context) {
	type AddAssignmentRequest struct {
		ControllerID uint64 `json:"controller_id" binding:"required"`
		Callsign     string `json:"callsign" binding:"required"`
		Note         string `json:"note"`
	}

	shift, ok := middleware.GetShift(c)
	if !ok {
		apierrors.NotFound(c, "Shift not found")
		return
	}

	var req AddAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	assignment, err := h.shiftService.AddAssignment(c.Request.Context(), services.AddAssignmentInput{
		ShiftID:      shift.ID,
		ControllerID: req.ControllerID,
		Callsign:     req.Callsign,
		Note:         req.Note,
	})
	if err != nil {
		respondServiceError(c, h.log, err, nil)
		return
	}

	c.JSON(http.StatusCreated, dto.ToAssignmentDTO(*assignment, h.engine))
}

// ListLogs returns the shift's audit rows, newest first
func (h *ShiftHandler) ListLogs(c *gin.Context) {
	shift, ok := middleware.GetShift(c)
	if !ok {
		apierrors.NotFound(c, "Shift not found")
		return
	}

	limit := utils.GetLogLimit(c, constants.DefaultLogLimit, constants.MaxLogLimit)
	entries, err := h.engine.ListLogs(c.Request.Context(), repository.LogFilter{
		ShiftID: &shift.ID,
		Limit:   limit,
	})
	if err != nil {
		respondServiceError(c, h.log, err, nil)
		return
	}

	c.JSON(http.StatusOK, gin.H{"logs": dto.ToStatusLogDTOs(entries)})
}

// JoinWatch puts the caller on watch for the shift
func (h *ShiftHandler) JoinWatch(c *gin.Context) {
	h.watch(c, h.shiftService.JoinWatch)
}

// LeaveWatch takes the caller off watch for the shift
func (h *ShiftHandler) LeaveWatch(c *gin.Context) {
	h.watch(c, h.shiftService.LeaveWatch)
}

func (h *ShiftHandler) watch(c *gin.Context, op func(ctx context.Context, shiftID, userID uint64) (*models.ShiftWatchStaff, error)) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		apierrors.Unauthorized(c, "")
		return
	}
	shift, ok := middleware.GetShift(c)
	if !ok {
		apierrors.NotFound(c, "Shift not found")
		return
	}

	entry, err := op(c.Request.Context(), shift.ID, userID)
	if err != nil {
		respondServiceError(c, h.log, err, nil)
		return
	}

	c.JSON(http.StatusOK, dto.ToWatchStaffDTO(*entry))
}
