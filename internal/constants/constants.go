package constants

import "time"

// Context and session keys
const (
	ContextKeyUserID  = "user_id"
	ContextKeyToken   = "api_token"
	SessionCookieName = "watchtower_session"
)

// Auth
const (
	MinPasswordLength = 8
	TokenSecretBytes  = 32
	BearerScheme      = "Bearer"
)

// Pagination
const (
	MinPageSize     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Audit log limits
const (
	DefaultAssignmentLogLimit = 5
	DefaultLogLimit           = 50
	MaxLogLimit               = 200
)

// DefaultUndoWindow is the grace period after a status change during which it can be reverted.
const DefaultUndoWindow = 20 * time.Second
