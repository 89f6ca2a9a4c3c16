package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/scantrak/internal/server/handlers"
)

// Handlers groups the HTTP adapters mounted by New.
type Handlers struct {
	Sessions *handlers.SessionHandler
	Workflow *handlers.WorkflowHandler
	Admin    *handlers.AdminHandler
}

// New wires the Gin engine with required routes and middlewares.
func New(h Handlers, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(zapLoggerMiddleware(logger))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api/v1")
	api.POST("/sessions", h.Sessions.Open)

	authed := api.Group("", h.Sessions.Authenticate())
	authed.GET("/state", h.Workflow.State)
	authed.DELETE("/session", h.Sessions.Close)
	authed.POST("/role", h.Workflow.SelectRole)

	scanner := authed.Group("/scanner")
	scanner.POST("/frame", h.Workflow.Frame)
	scanner.POST("/text", h.Workflow.Text)
	scanner.POST("/error", h.Workflow.CameraError)
	scanner.POST("/retry", h.Workflow.Retry)
	scanner.POST("/cancel", h.Workflow.Cancel)
	scanner.POST("/cart", h.Workflow.ViewCart)

	cart := authed.Group("/cart")
	cart.POST("/scan-another", h.Workflow.ScanAnother)
	cart.DELETE("/items/:tempId", h.Workflow.RemoveItem)
	cart.POST("/submit", h.Workflow.Submit)
	authed.PUT("/form", h.Workflow.UpdateForm)

	admin := authed.Group("/admin")
	admin.POST("/toggle", h.Admin.Toggle)
	admin.GET("/records", h.Admin.Records)
	admin.GET("/stream", h.Admin.Stream)

	authed.GET("/notices", h.Workflow.Notices)
	authed.DELETE("/notices/:id", h.Workflow.DismissNotice)

	if logger != nil {
		logger.Info("router initialized")
	}

	return r
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}
		logger.Info("request completed", fields...)
	}
}
