package main

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ciecnow/backend/internal/auth"
	"github.com/ciecnow/backend/internal/calendar"
	"github.com/ciecnow/backend/internal/categories"
	"github.com/ciecnow/backend/internal/events"
	"github.com/ciecnow/backend/internal/meetings"
	"github.com/ciecnow/backend/internal/middleware"
	"github.com/ciecnow/backend/internal/models"
	"github.com/ciecnow/backend/internal/orchestrator"
	"github.com/ciecnow/backend/internal/organizations"
	"github.com/ciecnow/backend/internal/participants"
	"github.com/ciecnow/backend/internal/permissions"
	"github.com/ciecnow/backend/internal/realtime"
	"github.com/ciecnow/backend/internal/reports"
	"github.com/ciecnow/backend/internal/snapshot"
	"github.com/ciecnow/backend/internal/store"
	"github.com/ciecnow/backend/internal/users"
	"github.com/ciecnow/backend/internal/views"
	"github.com/ciecnow/backend/pkg/response"
)

// notifier queues account notifications for the worker.
type notifier interface {
	users.InviteNotifier
	auth.ResetNotifier
}

// app is everything the router needs. flyers and dispatcher may be nil; their endpoints then answer 503.
type app struct {
	store        store.Store
	fetcher      *snapshot.Fetcher
	orchestrator *orchestrator.Orchestrator
	jwt          *auth.JWTService
	resets       auth.ResetTokens
	notifier     notifier
	flyers       events.FlyerStore
	dispatcher   events.Dispatcher
	hub          *realtime.Hub
	calendar     calendar.Config
	pageCapacity int
	corsOrigins  string
	logger       *zap.Logger
}

func newRouter(a *app) *gin.Engine {
	authHandler := auth.NewHandler(a.store, a.jwt, a.resets, a.notifier, a.logger)
	userHandler := users.NewHandler(a.store, a.resets, a.notifier, a.logger)
	viewHandler := views.NewHandler(views.NewNavigator())
	snapshotHandler := snapshot.NewHandler(a.fetcher, a.logger)
	calendarHandler := calendar.NewHandler(a.fetcher, a.calendar, a.logger)
	reportHandler := reports.NewHandler(a.fetcher, a.pageCapacity, a.logger)
	participantHandler := participants.NewHandler(a.fetcher, a.orchestrator, a.logger)
	companyHandler := organizations.NewHandler(a.fetcher)
	categoryHandler := categories.NewHandler(a.fetcher, a.orchestrator, a.logger)
	meetingHandler := meetings.NewHandler(a.fetcher, a.orchestrator, a.logger)
	eventHandler := events.NewHandler(a.fetcher, a.orchestrator, a.flyers, a.dispatcher, a.logger)

	can := middleware.RequireCapability

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(a.corsOrigins))
	router.Use(middleware.Logger(a.logger))

	// Health
	router.GET("/health", func(c *gin.Context) {
		response.OK(c, gin.H{"status": "ok", "refreshed_at": a.fetcher.Snapshot().RefreshedAt})
	})

	// Public calendar feed for subscription from calendar apps
	router.GET("/calendar.ics", calendarHandler.Feed)

	authGroup := router.Group("/auth")
	{
		authGroup.POST("/signup", authHandler.Signup)
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/password/reset", authHandler.RequestReset)
		authGroup.POST("/password/confirm", authHandler.ConfirmReset)
	}

	// WebSocket (token in query; no Authorization header required)
	router.GET("/ws", realtime.ServeWs(a.hub, a.fetcher, func(token string) (uuid.UUID, error) {
		claims, err := a.jwt.Validate(token)
		if err != nil {
			return uuid.Nil, err
		}
		return claims.UserID, nil
	}, a.logger))

	// Protected API (JWT and profile required)
	api := router.Group("")
	api.Use(middleware.JWT(a.jwt), middleware.Profile(a.store, a.logger))
	{
		api.GET("/auth/me", userHandler.Me)
		api.GET("/views", viewHandler.Get)
		api.POST("/views/navigate", viewHandler.Navigate)

		api.GET("/snapshot", can(permissions.View, permissions.Agenda), snapshotHandler.Status)
		api.POST("/snapshot/refresh", can(permissions.View, permissions.Agenda), snapshotHandler.Refresh)
		api.GET("/agenda", can(permissions.View, permissions.Agenda), calendarHandler.Agenda)

		// Participants
		api.GET("/participants", can(permissions.View, permissions.Participants), participantHandler.List)
		api.GET("/participants/:id", can(permissions.View, permissions.Participants), participantHandler.Get)
		api.POST("/participants", can(permissions.Create, permissions.Participants), participantHandler.Create)
		api.PUT("/participants/:id", can(permissions.Update, permissions.Participants), participantHandler.Update)
		api.DELETE("/participants/:id", can(permissions.Delete, permissions.Participants), participantHandler.Delete)

		// Companies (read-only affiliation list)
		api.GET("/companies", can(permissions.View, permissions.Companies), companyHandler.List)
		api.GET("/companies/:id", can(permissions.View, permissions.Companies), companyHandler.Get)

		// Commissions and event categories
		for path, kind := range map[string]models.CategoryKind{
			"/commissions":      models.CategoryKindMeeting,
			"/event-categories": models.CategoryKindEvent,
		} {
			api.GET(path, can(permissions.View, permissions.Categories), categoryHandler.List(kind))
			api.POST(path, can(permissions.Create, permissions.Categories), categoryHandler.Create(kind))
			api.PUT(path+"/:id", can(permissions.Update, permissions.Categories), categoryHandler.Update(kind))
			api.DELETE(path+"/:id", can(permissions.Delete, permissions.Categories), categoryHandler.Delete(kind))
		}
		api.GET("/commissions/:id/members", can(permissions.View, permissions.Categories), categoryHandler.Members)

		// Meetings
		api.GET("/meetings", can(permissions.View, permissions.Meetings), meetingHandler.List)
		api.GET("/meetings/:id", can(permissions.View, permissions.Meetings), meetingHandler.Get)
		api.POST("/meetings", can(permissions.Create, permissions.Meetings), meetingHandler.Create)
		api.PUT("/meetings/:id", can(permissions.Update, permissions.Meetings), meetingHandler.Update)
		api.DELETE("/meetings/:id", can(permissions.Delete, permissions.Meetings), meetingHandler.Delete)

		// Events
		api.GET("/events", can(permissions.View, permissions.Events), eventHandler.List)
		api.GET("/events/:id", can(permissions.View, permissions.Events), eventHandler.Get)
		api.POST("/events", can(permissions.Create, permissions.Events), eventHandler.Create)
		api.PUT("/events/:id", can(permissions.Update, permissions.Events), eventHandler.Update)
		api.DELETE("/events/:id", can(permissions.Delete, permissions.Events), eventHandler.Delete)
		api.GET("/events/:id/flyer", can(permissions.View, permissions.Events), eventHandler.Flyer)
		api.POST("/events/:id/flyer", can(permissions.Update, permissions.Events), eventHandler.UploadFlyer)
		api.POST("/events/:id/invitations/dispatch", can(permissions.Update, permissions.Events), eventHandler.DispatchInvitations)

		// Exports and stats
		api.GET("/reports/activities.csv", can(permissions.Export, permissions.Reports), reportHandler.ActivitiesCSV)
		api.GET("/reports/memberships.csv", can(permissions.Export, permissions.Reports), reportHandler.MembershipsCSV)
		api.GET("/reports/activities", can(permissions.Export, permissions.Reports), reportHandler.Pages)
		api.GET("/reports/activities/pages/:n", can(permissions.Export, permissions.Reports), reportHandler.Page)
		api.GET("/stats", can(permissions.View, permissions.Stats), reportHandler.Stats)

		// User administration
		admin := api.Group("/admin", can(permissions.Manage, permissions.Users))
		admin.GET("/users", userHandler.List)
		admin.PATCH("/users/:id", userHandler.Update)
		admin.POST("/users/invite", userHandler.Invite)
		admin.GET("/roles", userHandler.Roles)
	}
	return router
}
