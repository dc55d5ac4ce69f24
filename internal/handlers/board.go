package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/yukikurage/watchtower-api/internal/constants"
	"github.com/yukikurage/watchtower-api/internal/dto"
	"github.com/yukikurage/watchtower-api/internal/models"
	"github.com/yukikurage/watchtower-api/internal/repository"
	"github.com/yukikurage/watchtower-api/internal/services"
	"github.com/yukikurage/watchtower-api/internal/utils"
)

// BoardHandler serves board-wide reads
type BoardHandler struct {
	engine *services.StatusEngine
	log    logrus.FieldLogger
}

func NewBoardHandler(engine *services.StatusEngine, log logrus.FieldLogger) *BoardHandler {
	return &BoardHandler{
		engine: engine,
		log:    log.WithField("component", "board_handler"),
	}
}

// Health reports liveness
func (h *BoardHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "watchtower",
	})
}

// ListStatuses returns the shift statuses and the controller statuses of
// the configured mode
func (h *BoardHandler) ListStatuses(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"mode":                h.engine.Mode(),
		"statuses":            models.ShiftStatuses,
		"controller_statuses": h.engine.Mode().ControllerStatuses(),
		"undo_window_seconds": int(h.engine.UndoWindow().Seconds()),
	})
}

// ListLogs returns the most recent audit rows across the board
func (h *BoardHandler) ListLogs(c *gin.Context) {
	limit := utils.GetLogLimit(c, constants.DefaultLogLimit, constants.MaxLogLimit)

	entries, err := h.engine.ListLogs(c.Request.Context(), repository.LogFilter{Limit: limit})
	if err != nil {
		respondServiceError(c, h.log, err, nil)
		return
	}

	c.JSON(http.StatusOK, gin.H{"logs": dto.ToStatusLogDTOs(entries)})
}
