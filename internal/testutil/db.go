// Package testutil holds shared fixtures for package tests.
package testutil

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/watchtower-api/internal/database"
	"github.com/yukikurage/watchtower-api/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Epoch is the fixed instant mock clocks start at.
var Epoch = time.Date(2024, time.March, 4, 6, 0, 0, 0, time.UTC)

// NewLogger returns a logger that records entries instead of printing them.
func NewLogger() (*logrus.Logger, *test.Hook) {
	log, hook := test.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)
	return log, hook
}

// NewTestDB opens a migrated in-memory database. The pool is capped at one
// connection so every query sees the same memory database.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	log, _ := NewLogger()
	require.NoError(t, database.Migrate(db, log))

	return db
}

// CreateUser inserts a user with an unusable password hash.
func CreateUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()

	user := &models.User{Username: username, PasswordHash: "x"}
	require.NoError(t, db.Create(user).Error)
	return user
}

// CreateController inserts an active controller in the given status.
func CreateController(t *testing.T, db *gorm.DB, name string, status models.Status) *models.Controller {
	t.Helper()

	controller := &models.Controller{Name: name, IsActive: true, Status: status}
	require.NoError(t, db.Create(controller).Error)
	return controller
}

// CreateShift inserts a shift in the given state.
func CreateShift(t *testing.T, db *gorm.DB, status models.ShiftStatus) *models.Shift {
	t.Helper()

	shift := &models.Shift{Status: status, OpenedAt: Epoch}
	if status == models.ShiftStatusClosed {
		closed := Epoch.Add(8 * time.Hour)
		shift.ClosedAt = &closed
	}
	require.NoError(t, db.Create(shift).Error)
	return shift
}

// CreateAssignment inserts an assignment for a fresh controller.
func CreateAssignment(t *testing.T, db *gorm.DB, shiftID uint64, callsign string, status models.Status) *models.ShiftAssignment {
	t.Helper()

	controller := CreateController(t, db, "Controller "+callsign, models.StatusUnknown)
	assignment := &models.ShiftAssignment{
		ShiftID:      shiftID,
		ControllerID: controller.ID,
		Callsign:     callsign,
		Status:       status,
	}
	require.NoError(t, db.Omit("Controller").Create(assignment).Error)
	return assignment
}

// NullLogger returns a logger that discards everything.
func NullLogger() *logrus.Logger {
	log, _ := test.NewNullLogger()
	return log
}
