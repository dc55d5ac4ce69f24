package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"github.com/yukikurage/watchtower-api/internal/dto"
	"github.com/yukikurage/watchtower-api/internal/models"
	"github.com/yukikurage/watchtower-api/internal/testutil"
)

// ShiftHandlerTestSuite drives the board through the HTTP surface
type ShiftHandlerTestSuite struct {
	suite.Suite
	env *testEnv
}

// SetupTest runs before each test
func (suite *ShiftHandlerTestSuite) SetupTest() {
	suite.env = setupTestEnv(suite.T())
}

func (suite *ShiftHandlerTestSuite) openShift() dto.ShiftDTO {
	w := suite.env.do(suite.T(), http.MethodPost, "/api/shifts", map[string]string{"note": "night"})
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	return decode[dto.ShiftDTO](suite.T(), w)
}

func (suite *ShiftHandlerTestSuite) addAssignment(shiftID uint64, callsign string) dto.AssignmentDTO {
	controller := testutil.CreateController(suite.T(), suite.env.db, "Controller "+callsign, models.StatusUnknown)
	w := suite.env.do(suite.T(), http.MethodPost, fmt.Sprintf("/api/shifts/%d/assignments", shiftID), map[string]any{
		"controller_id": controller.ID,
		"callsign":      callsign,
	})
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	return decode[dto.AssignmentDTO](suite.T(), w)
}

func (suite *ShiftHandlerTestSuite) setStatus(id uint64, status string) dto.AssignmentDTO {
	w := suite.env.do(suite.T(), http.MethodPost, fmt.Sprintf("/api/assignments/%d/status", id), map[string]string{"status": status})
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	return decode[dto.AssignmentDTO](suite.T(), w)
}

// TestHealth verifies the public health probe
func (suite *ShiftHandlerTestSuite) TestHealth() {
	w := suite.env.doWith(suite.T(), http.MethodGet, "/health", nil, "")
	suite.Require().Equal(http.StatusOK, w.Code)

	body := decode[map[string]string](suite.T(), w)
	assert.Equal(suite.T(), "healthy", body["status"])
	assert.Equal(suite.T(), "watchtower", body["service"])
}

// TestCurrentShift_NoneOpen verifies 404 when nothing is open
func (suite *ShiftHandlerTestSuite) TestCurrentShift_NoneOpen() {
	w := suite.env.do(suite.T(), http.MethodGet, "/api/shifts/current", nil)
	suite.Require().Equal(http.StatusNotFound, w.Code)
	assert.Equal(suite.T(), "NOT_FOUND", decode[errorBody](suite.T(), w).Code)
}

// TestOpenShift_Conflict verifies a second open shift is refused
func (suite *ShiftHandlerTestSuite) TestOpenShift_Conflict() {
	suite.openShift()

	w := suite.env.do(suite.T(), http.MethodPost, "/api/shifts", nil)
	suite.Require().Equal(http.StatusConflict, w.Code)
	assert.Equal(suite.T(), "CONFLICT", decode[errorBody](suite.T(), w).Code)
}

// TestSetStatus_Responses verifies success, invalid status, unknown and malformed IDs
func (suite *ShiftHandlerTestSuite) TestSetStatus_Responses() {
	shift := suite.openShift()
	a := suite.addAssignment(shift.ID, "alpha")
	assert.Equal(suite.T(), "ALPHA", a.Callsign)
	assert.Equal(suite.T(), models.StatusUnknown, a.Status)
	assert.True(suite.T(), a.IsBlocking)

	updated := suite.setStatus(a.ID, "OFF_DUTY")
	assert.Equal(suite.T(), models.StatusOffDuty, updated.Status)
	assert.Equal(suite.T(), "Off duty", updated.StatusLabel)
	assert.False(suite.T(), updated.IsBlocking)
	assert.True(suite.T(), updated.CanUndo)
	assert.Equal(suite.T(), 20, updated.UndoRemainingSeconds)
	suite.Require().NotNil(updated.LastChangedBy)
	assert.Equal(suite.T(), suite.env.user.ID, *updated.LastChangedBy)

	w := suite.env.do(suite.T(), http.MethodPost, fmt.Sprintf("/api/assignments/%d/status", a.ID), map[string]string{"status": "ASLEEP"})
	suite.Require().Equal(http.StatusBadRequest, w.Code)
	body := decode[errorBody](suite.T(), w)
	assert.Equal(suite.T(), "INVALID_STATUS", body.Code)
	var allowed []models.StatusInfo
	suite.Require().NoError(json.Unmarshal(body.Details, &allowed))
	assert.Len(suite.T(), allowed, len(models.ShiftStatuses))

	w = suite.env.do(suite.T(), http.MethodPost, "/api/assignments/9999/status", map[string]string{"status": "SICK"})
	assert.Equal(suite.T(), http.StatusNotFound, w.Code)

	w = suite.env.do(suite.T(), http.MethodPost, "/api/assignments/abc/status", map[string]string{"status": "SICK"})
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)

	w = suite.env.do(suite.T(), http.MethodPost, fmt.Sprintf("/api/assignments/%d/status", a.ID), map[string]string{})
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
}

// TestUndo verifies undone=true inside the window and undone=false afterwards
func (suite *ShiftHandlerTestSuite) TestUndo() {
	shift := suite.openShift()
	a := suite.addAssignment(shift.ID, "B1")
	suite.setStatus(a.ID, "ON_DUTY")

	suite.env.clock.Advance(5 * time.Second)
	w := suite.env.do(suite.T(), http.MethodPost, fmt.Sprintf("/api/assignments/%d/undo", a.ID), nil)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	var undone struct {
		Undone bool              `json:"undone"`
		Entity dto.AssignmentDTO `json:"entity"`
	}
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &undone))
	assert.True(suite.T(), undone.Undone)
	assert.Equal(suite.T(), models.StatusUnknown, undone.Entity.Status)
	assert.False(suite.T(), undone.Entity.CanUndo)

	w = suite.env.do(suite.T(), http.MethodPost, fmt.Sprintf("/api/assignments/%d/undo", a.ID), nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &undone))
	assert.False(suite.T(), undone.Undone)
	assert.Equal(suite.T(), models.StatusUnknown, undone.Entity.Status)

	suite.setStatus(a.ID, "SICK")
	suite.env.clock.Advance(21 * time.Second)
	w = suite.env.do(suite.T(), http.MethodPost, fmt.Sprintf("/api/assignments/%d/undo", a.ID), nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &undone))
	assert.False(suite.T(), undone.Undone)
	assert.Equal(suite.T(), models.StatusSick, undone.Entity.Status)
}

// TestCloseShift_NotClosable verifies the blocking callsigns are reported
func (suite *ShiftHandlerTestSuite) TestCloseShift_NotClosable() {
	shift := suite.openShift()
	a := suite.addAssignment(shift.ID, "A")
	b := suite.addAssignment(shift.ID, "B")
	suite.addAssignment(shift.ID, "C")
	suite.setStatus(a.ID, "ON_DUTY")
	suite.setStatus(b.ID, "VACATION")

	w := suite.env.do(suite.T(), http.MethodGet, "/api/shifts/current", nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	current := decode[dto.ShiftDTO](suite.T(), w)
	assert.False(suite.T(), current.CanClose)
	assert.Equal(suite.T(), 2, current.BlockingCount)
	suite.Require().Len(current.Assignments, 3)

	w = suite.env.do(suite.T(), http.MethodPost, fmt.Sprintf("/api/shifts/%d/close", shift.ID), nil)
	suite.Require().Equal(http.StatusConflict, w.Code)
	body := decode[errorBody](suite.T(), w)
	assert.Equal(suite.T(), "NOT_CLOSABLE", body.Code)

	var details notClosableDetails
	suite.Require().NoError(json.Unmarshal(body.Details, &details))
	assert.Equal(suite.T(), []string{"A", "C"}, details.Blocking)
	assert.Equal(suite.T(), 2, details.Remaining)
}

// TestEndToEnd verifies a shift can be worked and closed over HTTP
func (suite *ShiftHandlerTestSuite) TestEndToEnd() {
	shift := suite.openShift()
	a := suite.addAssignment(shift.ID, "A")
	b := suite.addAssignment(shift.ID, "B")

	suite.setStatus(a.ID, "ON_DUTY")
	suite.setStatus(a.ID, "OFF_DUTY")
	suite.setStatus(b.ID, "SICK")

	w := suite.env.do(suite.T(), http.MethodGet, fmt.Sprintf("/api/shifts/%d/logs", shift.ID), nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	logs := decode[struct {
		Logs []dto.StatusLogDTO `json:"logs"`
	}](suite.T(), w)
	suite.Require().Len(logs.Logs, 3)
	assert.Equal(suite.T(), "B", logs.Logs[0].Callsign)

	w = suite.env.do(suite.T(), http.MethodPost, fmt.Sprintf("/api/shifts/%d/close", shift.ID), nil)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	closed := decode[dto.ShiftDTO](suite.T(), w)
	assert.Equal(suite.T(), models.ShiftStatusClosed, closed.Status)
	suite.Require().NotNil(closed.ClosedAt)

	w = suite.env.do(suite.T(), http.MethodPost, fmt.Sprintf("/api/shifts/%d/close", shift.ID), nil)
	assert.Equal(suite.T(), http.StatusConflict, w.Code)

	w = suite.env.do(suite.T(), http.MethodGet, "/api/shifts?status=CLOSED", nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	listed := decode[struct {
		Shifts []dto.ShiftListItemDTO `json:"shifts"`
	}](suite.T(), w)
	suite.Require().Len(listed.Shifts, 1)
	assert.Equal(suite.T(), shift.ID, listed.Shifts[0].ID)
}

// TestAssignmentLogs_Limit verifies the default of five and the explicit limit
func (suite *ShiftHandlerTestSuite) TestAssignmentLogs_Limit() {
	shift := suite.openShift()
	a := suite.addAssignment(shift.ID, "L1")

	statuses := []string{"ON_DUTY", "OFF_DUTY", "SICK", "VACATION", "ON_DUTY", "OFF_DUTY", "UNKNOWN"}
	for _, s := range statuses {
		suite.env.clock.Advance(time.Second)
		suite.setStatus(a.ID, s)
	}

	type logsBody struct {
		Logs []dto.StatusLogDTO `json:"logs"`
	}

	w := suite.env.do(suite.T(), http.MethodGet, fmt.Sprintf("/api/assignments/%d/logs", a.ID), nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	body := decode[logsBody](suite.T(), w)
	suite.Require().Len(body.Logs, 5)
	assert.Equal(suite.T(), models.StatusUnknown, body.Logs[0].NewStatus)

	w = suite.env.do(suite.T(), http.MethodGet, fmt.Sprintf("/api/assignments/%d/logs?limit=2", a.ID), nil)
	suite.Require().Len(decode[logsBody](suite.T(), w).Logs, 2)

	w = suite.env.do(suite.T(), http.MethodGet, "/api/logs", nil)
	suite.Require().Len(decode[logsBody](suite.T(), w).Logs, len(statuses))
}

// TestDeleteShift verifies the shift disappears with its assignments
func (suite *ShiftHandlerTestSuite) TestDeleteShift() {
	shift := suite.openShift()
	a := suite.addAssignment(shift.ID, "D1")

	w := suite.env.do(suite.T(), http.MethodDelete, fmt.Sprintf("/api/shifts/%d", shift.ID), nil)
	suite.Require().Equal(http.StatusOK, w.Code)

	w = suite.env.do(suite.T(), http.MethodGet, fmt.Sprintf("/api/shifts/%d", shift.ID), nil)
	assert.Equal(suite.T(), http.StatusNotFound, w.Code)

	w = suite.env.do(suite.T(), http.MethodGet, fmt.Sprintf("/api/assignments/%d/logs", a.ID), nil)
	assert.Equal(suite.T(), http.StatusNotFound, w.Code)
}

// TestWatch verifies join and leave for the caller
func (suite *ShiftHandlerTestSuite) TestWatch() {
	shift := suite.openShift()

	w := suite.env.do(suite.T(), http.MethodPost, fmt.Sprintf("/api/shifts/%d/watch/leave", shift.ID), nil)
	assert.Equal(suite.T(), http.StatusNotFound, w.Code)

	w = suite.env.do(suite.T(), http.MethodPost, fmt.Sprintf("/api/shifts/%d/watch/join", shift.ID), nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	joined := decode[dto.WatchStaffDTO](suite.T(), w)
	assert.True(suite.T(), joined.IsOnDuty)
	assert.Equal(suite.T(), suite.env.user.ID, joined.UserID)

	w = suite.env.do(suite.T(), http.MethodGet, fmt.Sprintf("/api/shifts/%d", shift.ID), nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	detail := decode[dto.ShiftDTO](suite.T(), w)
	suite.Require().Len(detail.WatchStaff, 1)
	suite.Require().NotNil(detail.WatchStaff[0].User)
	assert.Equal(suite.T(), "operator", detail.WatchStaff[0].User.Username)

	w = suite.env.do(suite.T(), http.MethodPost, fmt.Sprintf("/api/shifts/%d/watch/leave", shift.ID), nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	assert.False(suite.T(), decode[dto.WatchStaffDTO](suite.T(), w).IsOnDuty)
}

// TestShiftHandlerTestSuite runs the test suite
func TestShiftHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(ShiftHandlerTestSuite))
}
