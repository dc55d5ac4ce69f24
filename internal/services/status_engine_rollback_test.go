package services

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/watchtower-api/internal/clock"
	"github.com/yukikurage/watchtower-api/internal/models"
	"github.com/yukikurage/watchtower-api/internal/repository"
	"github.com/yukikurage/watchtower-api/internal/testutil"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupMockEngine(t *testing.T) (*StatusEngine, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	db, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	log, _ := testutil.NewLogger()
	engine := NewStatusEngine(repository.NewStatusRepository(db), clock.NewMock(testutil.Epoch), StatusEngineOptions{
		Mode:   models.BoardModeShift,
		Logger: log,
	})
	return engine, mock
}

func expectLockedAssignment(mock sqlmock.Sqlmock, status models.Status) {
	rows := sqlmock.NewRows([]string{"id", "shift_id", "controller_id", "callsign", "status", "note"}).
		AddRow(1, 1, 1, "O1", string(status), "")
	mock.ExpectQuery("SELECT \\* FROM `shift_assignments` .* FOR UPDATE").WillReturnRows(rows)
}

// TestSetAssignmentStatus_RollsBackWhenLogInsertFails verifies the status
// update never commits without its audit row
func TestSetAssignmentStatus_RollsBackWhenLogInsertFails(t *testing.T) {
	engine, mock := setupMockEngine(t)

	mock.ExpectBegin()
	expectLockedAssignment(mock, models.StatusUnknown)
	mock.ExpectExec("UPDATE `shift_assignments` SET").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO `status_logs`").WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	_, err := engine.SetAssignmentStatus(context.Background(), 1, SetStatusInput{Status: models.StatusOnDuty})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to write status log")
	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestSetAssignmentStatus_StaleWrite verifies a lost compare-and-swap surfaces
// as a concurrent modification and rolls back
func TestSetAssignmentStatus_StaleWrite(t *testing.T) {
	engine, mock := setupMockEngine(t)

	mock.ExpectBegin()
	expectLockedAssignment(mock, models.StatusUnknown)
	mock.ExpectExec("UPDATE `shift_assignments` SET").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, err := engine.SetAssignmentStatus(context.Background(), 1, SetStatusInput{Status: models.StatusOnDuty})
	assert.ErrorIs(t, err, ErrConcurrentModification)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestSetAssignmentStatus_CommitsBothWrites verifies the happy path shares one transaction
func TestSetAssignmentStatus_CommitsBothWrites(t *testing.T) {
	engine, mock := setupMockEngine(t)

	mock.ExpectBegin()
	expectLockedAssignment(mock, models.StatusUnknown)
	mock.ExpectExec("UPDATE `shift_assignments` SET").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO `status_logs`").WillReturnResult(sqlmock.NewResult(7, 1))
	mock.ExpectCommit()

	result, err := engine.SetAssignmentStatus(context.Background(), 1, SetStatusInput{Status: models.StatusOnDuty})
	require.NoError(t, err)
	assert.Equal(t, models.StatusOnDuty, result.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}
