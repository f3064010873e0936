// Package server assembles the HTTP surface: REST routes, the websocket endpoint and
// operational endpoints.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-realtime-api/internal/authz"
	"github.com/noah-isme/sma-realtime-api/internal/handler"
	"github.com/noah-isme/sma-realtime-api/internal/middleware"
	"github.com/noah-isme/sma-realtime-api/internal/models"
	"github.com/noah-isme/sma-realtime-api/internal/service"
	"github.com/noah-isme/sma-realtime-api/pkg/config"
	"github.com/noah-isme/sma-realtime-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/sma-realtime-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/sma-realtime-api/pkg/middleware/requestid"
)

// ReadinessCheck reports whether a backing dependency is reachable.
type ReadinessCheck func(ctx context.Context) error

// Handlers groups the REST handlers and the websocket endpoint.
type Handlers struct {
	Auth          *handler.AuthHandler
	Students      *handler.StudentHandler
	Classes       *handler.ClassHandler
	Assignments   *handler.AssignmentHandler
	Attendance    *handler.AttendanceHandler
	Grades        *handler.GradeHandler
	Events        *handler.EventHandler
	Announcements *handler.AnnouncementHandler
	Realtime      http.Handler
}

// Options carries everything the router needs.
type Options struct {
	Config   *config.Config
	Logger   *zap.Logger
	Tokens   middleware.TokenValidator
	Guard    *authz.Guard
	Metrics  *service.MetricsService
	Ready    map[string]ReadinessCheck
	Handlers Handlers
}

// NewRouter builds the gin engine.
func NewRouter(opts Options) *gin.Engine {
	cfg := opts.Config
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(opts.Logger))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(opts.Metrics))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", readiness(opts.Ready))
	r.GET("/metrics", gin.WrapH(opts.Metrics.Handler()))
	r.GET("/ws", gin.WrapH(opts.Handlers.Realtime))
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.WithResponseMeta())
	h := opts.Handlers
	api.POST("/auth/login", h.Auth.Login)

	secured := api.Group("")
	secured.Use(middleware.JWT(opts.Tokens))

	member := middleware.Authorize(opts.Guard)
	staff := middleware.Authorize(opts.Guard, models.RoleAdmin, models.RoleTeacher)

	secured.GET("/students", member, h.Students.List)
	secured.GET("/students/:studentId", member, h.Students.Get)
	secured.GET("/parents/me/children", middleware.Authorize(opts.Guard, models.RoleParent), h.Students.Children)
	secured.GET("/classes", member, h.Classes.List)

	secured.GET("/assignments", member, h.Assignments.List)
	secured.POST("/assignments", staff, h.Assignments.Create)
	secured.PUT("/assignments/:id", staff, h.Assignments.Update)
	secured.DELETE("/assignments/:id", staff, h.Assignments.Delete)

	secured.GET("/attendance", member, h.Attendance.List)
	secured.POST("/classes/:classId/attendance", staff, h.Attendance.Mark)
	secured.GET("/grades", member, h.Grades.List)
	secured.POST("/classes/:classId/grades", staff, h.Grades.Record)

	secured.GET("/events", member, h.Events.List)
	secured.POST("/events", staff, h.Events.Create)
	secured.PUT("/events/:id", staff, h.Events.Update)
	secured.DELETE("/events/:id", staff, h.Events.Delete)

	secured.GET("/announcements", member, h.Announcements.List)
	secured.GET("/announcements/unread-count", member, h.Announcements.UnreadCount)
	secured.POST("/announcements", staff, h.Announcements.Create)
	secured.PUT("/announcements/:id", staff, h.Announcements.Update)
	secured.DELETE("/announcements/:id", staff, h.Announcements.Delete)
	secured.POST("/announcements/:id/read", member, h.Announcements.MarkRead)
	secured.PATCH("/announcements/:id/archive", staff, h.Announcements.Archive)

	return r
}

func readiness(checks map[string]ReadinessCheck) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		results := gin.H{}
		for name, check := range checks {
			if err := check(ctx); err != nil {
				status = http.StatusServiceUnavailable
				results[name] = err.Error()
				continue
			}
			results[name] = "ok"
		}
		state := "ready"
		if status != http.StatusOK {
			state = "not_ready"
		}
		c.JSON(status, gin.H{"status": state, "checks": results})
	}
}
