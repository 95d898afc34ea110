package router

import (
	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"

	apiHandler "github.com/planline/backend/api/handler"
)

type Handlers struct {
	Auth         *apiHandler.AuthHandler
	Profile      *apiHandler.ProfileHandler
	Task         *apiHandler.TaskHandler
	Event        *apiHandler.EventHandler
	Notification *apiHandler.NotificationHandler
	Invitation   *apiHandler.InvitationHandler
	Health       *apiHandler.HealthHandler
}

func New(handlers Handlers, authMiddleware func(fasthttp.RequestHandler) fasthttp.RequestHandler) *router.Router {
	r := router.New()

	r.GET("/health", handlers.Health.Check)

	// Auth routes
	r.POST("/api/v1/auth/login", handlers.Auth.Login)
	r.POST("/api/v1/auth/refresh", handlers.Auth.Refresh)

	// Protected routes
	r.GET("/api/v1/profile", authMiddleware(handlers.Profile.GetProfile))
	r.PUT("/api/v1/profile", authMiddleware(handlers.Profile.UpdateProfile))

	r.GET("/api/v1/tasks", authMiddleware(handlers.Task.GetTasks))
	r.POST("/api/v1/tasks", authMiddleware(handlers.Task.CreateTask))
	r.GET("/api/v1/tasks/{id}", authMiddleware(handlers.Task.GetTask))
	r.PUT("/api/v1/tasks/{id}", authMiddleware(handlers.Task.UpdateTask))
	r.DELETE("/api/v1/tasks/{id}", authMiddleware(handlers.Task.DeleteTask))

	r.GET("/api/v1/events/calendar", authMiddleware(handlers.Event.GetCalendar))
	r.GET("/api/v1/events/{id}", authMiddleware(handlers.Event.GetEvent))
	r.DELETE("/api/v1/events/{id}", authMiddleware(handlers.Event.DeleteEvent))
	r.PATCH("/api/v1/events/{id}/status", authMiddleware(handlers.Event.UpdateStatus))
	r.POST("/api/v1/events/{id}/collaborators", authMiddleware(handlers.Event.AddCollaborator))
	r.DELETE("/api/v1/events/{id}/collaborators/{collaboratorId}", authMiddleware(handlers.Event.RemoveCollaborator))

	r.GET("/api/v1/notifications", authMiddleware(handlers.Notification.GetNotifications))
	r.GET("/api/v1/notifications/unread-count", authMiddleware(handlers.Notification.GetUnreadCount))
	r.PATCH("/api/v1/notifications/read-all", authMiddleware(handlers.Notification.MarkAllRead))
	r.PATCH("/api/v1/notifications/{id}/read", authMiddleware(handlers.Notification.MarkRead))
	r.DELETE("/api/v1/notifications/{id}", authMiddleware(handlers.Notification.DeleteNotification))

	r.GET("/api/v1/invitations", authMiddleware(handlers.Invitation.GetInvitations))
	r.POST("/api/v1/invitations", authMiddleware(handlers.Invitation.SendInvitation))
	r.POST("/api/v1/invitations/{id}/accept", authMiddleware(handlers.Invitation.AcceptInvitation))
	r.POST("/api/v1/invitations/{id}/reject", authMiddleware(handlers.Invitation.RejectInvitation))

	return r
}
