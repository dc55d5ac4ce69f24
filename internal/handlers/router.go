package handlers

import (
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/yukikurage/watchtower-api/internal/clock"
	"github.com/yukikurage/watchtower-api/internal/constants"
	"github.com/yukikurage/watchtower-api/internal/middleware"
	"github.com/yukikurage/watchtower-api/internal/services"
)

// RouterDeps carries everything the HTTP layer needs
type RouterDeps struct {
	AuthService       *services.AuthService
	TokenService      *services.TokenService
	ShiftService      *services.ShiftService
	ControllerService *services.ControllerService
	StatusEngine      *services.StatusEngine
	SessionStore      sessions.Store
	Clock             clock.Clock
	Logger            logrus.FieldLogger

	// RateLimitPerMinute throttles bearer requests per client IP; 0 disables it
	RateLimitPerMinute int
}

// SetupRouter builds the gin engine with every route registered
func SetupRouter(deps RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(deps.Logger))
	r.Use(gin.Recovery())
	r.Use(sessions.Sessions(constants.SessionCookieName, deps.SessionStore))

	authHandler := NewAuthHandler(deps.AuthService, deps.Logger)
	tokenHandler := NewTokenHandler(deps.TokenService, deps.Clock, deps.Logger)
	shiftHandler := NewShiftHandler(deps.ShiftService, deps.StatusEngine, deps.Logger)
	assignmentHandler := NewAssignmentHandler(deps.ShiftService, deps.StatusEngine, deps.Logger)
	controllerHandler := NewControllerHandler(deps.ControllerService, deps.StatusEngine, deps.Logger)
	boardHandler := NewBoardHandler(deps.StatusEngine, deps.Logger)

	requireAuth := middleware.RequireAuth(deps.TokenService, deps.AuthService, deps.Logger)

	r.GET("/health", boardHandler.Health)

	api := r.Group("/api")
	api.Use(middleware.BearerRateLimit(deps.RateLimitPerMinute))
	{
		// Auth routes (public except /me and /password)
		auth := api.Group("/auth")
		{
			auth.POST("/signup", authHandler.Signup)
			auth.POST("/login", authHandler.Login)
			auth.POST("/logout", authHandler.Logout)
			auth.GET("/me", requireAuth, authHandler.GetCurrentUser)
			auth.POST("/password", requireAuth, authHandler.ChangePassword)
		}

		protected := api.Group("")
		protected.Use(requireAuth)

		tokens := protected.Group("/tokens")
		{
			tokens.GET("", tokenHandler.ListTokens)
			tokens.POST("", tokenHandler.IssueToken)
			tokens.POST("/:id/revoke", tokenHandler.RevokeToken)
			tokens.POST("/:id/rotate", tokenHandler.RotateToken)
		}

		protected.GET("/statuses", boardHandler.ListStatuses)
		protected.GET("/logs", boardHandler.ListLogs)

		requireShift := middleware.RequireShift(deps.ShiftService)
		shifts := protected.Group("/shifts")
		{
			shifts.GET("", shiftHandler.ListShifts)
			shifts.POST("", shiftHandler.OpenShift)
			shifts.GET("/current", shiftHandler.GetCurrentShift)
			shifts.GET("/:id", requireShift, shiftHandler.GetShift)
			shifts.POST("/:id/close", requireShift, shiftHandler.CloseShift)
			shifts.DELETE("/:id", requireShift, shiftHandler.DeleteShift)
			shifts.GET("/:id/assignments", requireShift, shiftHandler.ListAssignments)
			shifts.POST("/:id/assignments", requireShift, shiftHandler.AddAssignment)
			shifts.GET("/:id/logs", requireShift, shiftHandler.ListLogs)
			shifts.POST("/:id/watch/join", requireShift, shiftHandler.JoinWatch)
			shifts.POST("/:id/watch/leave", requireShift, shiftHandler.LeaveWatch)
		}

		assignments := protected.Group("/assignments/:id")
		assignments.Use(middleware.RequireAssignment(deps.ShiftService))
		{
			assignments.POST("/status", assignmentHandler.SetStatus)
			assignments.POST("/undo", assignmentHandler.Undo)
			assignments.GET("/logs", assignmentHandler.ListLogs)
			assignments.DELETE("", assignmentHandler.DeleteAssignment)
		}

		controllers := protected.Group("/controllers")
		{
			controllers.GET("", controllerHandler.ListControllers)
			controllers.POST("", controllerHandler.CreateController)
			controllers.PUT("/:id", controllerHandler.UpdateController)
			controllers.DELETE("/:id", controllerHandler.DeleteController)
			controllers.POST("/:id/status", controllerHandler.SetStatus)
			controllers.POST("/:id/undo", controllerHandler.Undo)
		}
	}

	return r
}
