package repository

import (
	"context"
	"errors"
	"time"

	"github.com/yukikurage/watchtower-api/internal/models"
)

// ErrStaleStatus is returned by compare-and-swap status writes when the row
// no longer holds the expected previous status.
var ErrStaleStatus = errors.New("repository: status changed concurrently")

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create creates a new user
	Create(ctx context.Context, user *models.User) error

	// FindByID finds a user by ID
	FindByID(ctx context.Context, id uint64) (*models.User, error)

	// FindByUsername finds a user by username
	FindByUsername(ctx context.Context, username string) (*models.User, error)

	// UpdatePasswordHash replaces a user's stored password hash
	UpdatePasswordHash(ctx context.Context, id uint64, hash string) error

	// Delete removes a user, nulls every audit reference to them and
	// deletes their tokens and watch entries
	Delete(ctx context.Context, id uint64) error
}

// ControllerFilter holds filtering options for listing controllers
type ControllerFilter struct {
	ControllerType  *string
	IncludeInactive bool
}

// ControllerRepository defines the interface for roster data access
type ControllerRepository interface {
	Create(ctx context.Context, controller *models.Controller) error
	FindByID(ctx context.Context, id uint64) (*models.Controller, error)
	List(ctx context.Context, filter ControllerFilter) ([]models.Controller, error)

	// Update saves descriptive fields only; status columns go through StatusRepository
	Update(ctx context.Context, controller *models.Controller) error

	// Delete removes a controller and its board-mode audit rows
	Delete(ctx context.Context, id uint64) error

	// CountAssignments counts assignments referencing the controller
	CountAssignments(ctx context.Context, id uint64) (int64, error)
}

// ShiftFilter holds filtering options for listing shifts
type ShiftFilter struct {
	Status   *models.ShiftStatus
	Page     int
	PageSize int
}

// ShiftRepository defines the interface for shift, assignment and watch data access
type ShiftRepository interface {
	// Transaction runs fn with a repository bound to a single transaction
	Transaction(ctx context.Context, fn func(tx ShiftRepository) error) error

	Create(ctx context.Context, shift *models.Shift) error
	FindByID(ctx context.Context, id uint64, preload ...string) (*models.Shift, error)
	FindOpen(ctx context.Context, preload ...string) (*models.Shift, error)
	List(ctx context.Context, filter ShiftFilter) ([]models.Shift, int64, error)

	// LockByID reads a shift and its assignments with a row lock
	LockByID(ctx context.Context, id uint64) (*models.Shift, error)

	// MarkClosed sets the shift CLOSED at closedAt
	MarkClosed(ctx context.Context, id uint64, closedAt time.Time) error

	// Delete removes the shift with its assignments, their audit rows and watch entries
	Delete(ctx context.Context, id uint64) error

	CreateAssignment(ctx context.Context, assignment *models.ShiftAssignment) error
	FindAssignment(ctx context.Context, id uint64, preload ...string) (*models.ShiftAssignment, error)
	FindAssignmentByCallsign(ctx context.Context, shiftID uint64, callsign string) (*models.ShiftAssignment, error)
	ListAssignments(ctx context.Context, shiftID uint64, status *models.Status) ([]models.ShiftAssignment, error)

	// DeleteAssignment removes an assignment together with its audit rows
	DeleteAssignment(ctx context.Context, id uint64) error

	FindWatch(ctx context.Context, shiftID, userID uint64) (*models.ShiftWatchStaff, error)
	SaveWatch(ctx context.Context, watch *models.ShiftWatchStaff) error
}

// LogFilter selects audit rows. At most one parent filter should be set.
type LogFilter struct {
	AssignmentID *uint64
	ControllerID *uint64
	ShiftID      *uint64
	Limit        int
}

// StatusRepository owns status columns and the append-only audit log
type StatusRepository interface {
	// Transaction runs fn with a repository bound to a single transaction
	Transaction(ctx context.Context, fn func(tx StatusRepository) error) error

	// LockAssignment reads an assignment with a row lock
	LockAssignment(ctx context.Context, id uint64) (*models.ShiftAssignment, error)

	// UpdateAssignmentStatus writes the status columns of a, provided the
	// row still holds from. Returns ErrStaleStatus otherwise.
	UpdateAssignmentStatus(ctx context.Context, a *models.ShiftAssignment, from models.Status) error

	// LockController reads a controller with a row lock
	LockController(ctx context.Context, id uint64) (*models.Controller, error)

	// UpdateControllerStatus is the controller counterpart of UpdateAssignmentStatus
	UpdateControllerStatus(ctx context.Context, c *models.Controller, from models.Status) error

	// CreateLog appends an audit row
	CreateLog(ctx context.Context, entry *models.StatusLog) error

	// LatestLog returns the newest audit row matching filter
	LatestLog(ctx context.Context, filter LogFilter) (*models.StatusLog, error)

	// DeleteLog removes one audit row; only undo calls this
	DeleteLog(ctx context.Context, id uint64) error

	// ListLogs returns audit rows newest first
	ListLogs(ctx context.Context, filter LogFilter) ([]models.StatusLog, error)
}

// TokenRepository defines the interface for personal access token data access
type TokenRepository interface {
	Create(ctx context.Context, token *models.PersonalAccessToken) error
	FindByID(ctx context.Context, id uint64) (*models.PersonalAccessToken, error)

	// FindByHash finds a token by exact digest match, preloading its user
	FindByHash(ctx context.Context, hash string) (*models.PersonalAccessToken, error)

	ListByUser(ctx context.Context, userID uint64) ([]models.PersonalAccessToken, error)

	// MarkRevoked sets revoked_at only where it is still null
	MarkRevoked(ctx context.Context, id uint64, at time.Time) error

	// UpdateCredential replaces hash and expiry and clears revocation
	UpdateCredential(ctx context.Context, id uint64, hash string, expiresAt *time.Time) error

	TouchLastUsed(ctx context.Context, id uint64, at time.Time) error
}
