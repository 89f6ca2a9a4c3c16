package handlers

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/scantrak/internal/service/workflow"
)

// AdminHandler serves the admin view and its live records feed.
type AdminHandler struct {
	keepAlive time.Duration
	logger    *zap.Logger
}

// NewAdminHandler constructs the admin HTTP adapter.
func NewAdminHandler(keepAlive time.Duration, logger *zap.Logger) *AdminHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if keepAlive <= 0 {
		keepAlive = 15 * time.Second
	}
	return &AdminHandler{keepAlive: keepAlive, logger: logger}
}

// Toggle switches between the welcome and admin views.
func (h *AdminHandler) Toggle(c *gin.Context) {
	ctrl := currentSession(c).Controller

	if err := ctrl.ToggleAdmin(c.Request.Context()); err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error(), "state": ctrl.State()})
		return
	}
	c.JSON(http.StatusOK, ctrl.State())
}

// Records returns the latest feed snapshot, newest first.
func (h *AdminHandler) Records(c *gin.Context) {
	records, _, active := currentSession(c).Controller.AdminFeed()
	if !active {
		c.JSON(http.StatusConflict, gin.H{"error": workflow.ErrInvalidTransition.Error()})
		return
	}
	c.JSON(http.StatusOK, records)
}

// Stream pushes the record set as server-sent events whenever it changes. The
// stream ends when the client leaves or the session leaves the admin view.
func (h *AdminHandler) Stream(c *gin.Context) {
	sess := currentSession(c)

	records, changed, active := sess.Controller.AdminFeed()
	if !active {
		c.JSON(http.StatusConflict, gin.H{"error": workflow.ErrInvalidTransition.Error()})
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	ticker := time.NewTicker(h.keepAlive)
	defer ticker.Stop()

	pending := true
	c.Stream(func(w io.Writer) bool {
		if pending {
			pending = false
			sess.Touch(time.Now())
			c.SSEvent("records", records)
			return true
		}

		select {
		case <-c.Request.Context().Done():
			return false
		case now := <-ticker.C:
			sess.Touch(now)
			c.SSEvent("ping", fmt.Sprint(now.Unix()))
			return true
		case <-changed:
			records, changed, active = sess.Controller.AdminFeed()
			if !active {
				c.SSEvent("closed", gin.H{"view": sess.Controller.View()})
				return false
			}
			sess.Touch(time.Now())
			c.SSEvent("records", records)
			return true
		}
	})

	h.logger.Debug("admin stream ended", zap.String("session_id", sess.ID))
}
