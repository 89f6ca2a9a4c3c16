package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/scantrak/internal/decoder"
	"github.com/mamadbah2/scantrak/internal/domain/models"
	"github.com/mamadbah2/scantrak/internal/service/workflow"
)

// WorkflowHandler exposes the per-session workflow actions.
type WorkflowHandler struct {
	logger *zap.Logger
}

// NewWorkflowHandler constructs the workflow HTTP adapter.
func NewWorkflowHandler(logger *zap.Logger) *WorkflowHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WorkflowHandler{logger: logger}
}

type roleRequest struct {
	Role string `json:"role" binding:"required"`
}

type textRequest struct {
	Text string `json:"text" binding:"required"`
}

type cameraErrorRequest struct {
	Kind    string `json:"kind" binding:"required"`
	Message string `json:"message"`
}

type formRequest struct {
	MemberName string `json:"memberName"`
	MemberID   string `json:"memberId"`
}

// State returns the session snapshot.
func (h *WorkflowHandler) State(c *gin.Context) {
	c.JSON(http.StatusOK, currentSession(c).Controller.State())
}

// SelectRole starts the scanner for the chosen role.
func (h *WorkflowHandler) SelectRole(c *gin.Context) {
	var req roleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	ctrl := currentSession(c).Controller
	h.respond(c, ctrl, ctrl.SelectRole(models.Role(req.Role)))
}

// Frame decodes an uploaded camera frame.
func (h *WorkflowHandler) Frame(c *gin.Context) {
	sess := currentSession(c)

	header, err := c.FormFile("frame")
	if err != nil {
		h.badRequest(c, err)
		return
	}
	file, err := header.Open()
	if err != nil {
		h.badRequest(c, err)
		return
	}
	defer file.Close()

	found, err := sess.Decoder.FeedFrame(file)
	switch {
	case errors.Is(err, decoder.ErrNotRunning):
		h.fail(c, sess.Controller, err)
		return
	case err != nil:
		h.badRequest(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"found": found, "state": sess.Controller.State()})
}

// Text feeds QR text decoded on the client.
func (h *WorkflowHandler) Text(c *gin.Context) {
	var req textRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	sess := currentSession(c)
	h.respond(c, sess.Controller, sess.Decoder.FeedText(req.Text))
}

// CameraError reports a client-side camera failure.
func (h *WorkflowHandler) CameraError(c *gin.Context) {
	var req cameraErrorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	sess := currentSession(c)
	err := decoder.CameraError(decoder.ErrorKind(req.Kind), req.Message)
	h.respond(c, sess.Controller, sess.Decoder.ReportError(err))
}

// Retry restarts the camera after a failure.
func (h *WorkflowHandler) Retry(c *gin.Context) {
	ctrl := currentSession(c).Controller
	h.respond(c, ctrl, ctrl.RetryScanner())
}

// Cancel leaves the scanner.
func (h *WorkflowHandler) Cancel(c *gin.Context) {
	ctrl := currentSession(c).Controller
	h.respond(c, ctrl, ctrl.Cancel())
}

// ViewCart leaves the scanner for the cart.
func (h *WorkflowHandler) ViewCart(c *gin.Context) {
	ctrl := currentSession(c).Controller
	h.respond(c, ctrl, ctrl.ViewCart())
}

// ScanAnother reopens the scanner from the cart.
func (h *WorkflowHandler) ScanAnother(c *gin.Context) {
	ctrl := currentSession(c).Controller
	h.respond(c, ctrl, ctrl.ScanAnother())
}

// RemoveItem drops a cart entry by temp ID.
func (h *WorkflowHandler) RemoveItem(c *gin.Context) {
	ctrl := currentSession(c).Controller
	h.respond(c, ctrl, ctrl.RemoveItem(c.Param("tempId")))
}

// UpdateForm stores the member fields.
func (h *WorkflowHandler) UpdateForm(c *gin.Context) {
	var req formRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	ctrl := currentSession(c).Controller
	h.respond(c, ctrl, ctrl.UpdateForm(req.MemberName, req.MemberID))
}

// Submit writes the cart to the record store.
func (h *WorkflowHandler) Submit(c *gin.Context) {
	ctrl := currentSession(c).Controller

	n, err := ctrl.Submit(c.Request.Context())
	if err != nil {
		h.fail(c, ctrl, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"submitted": n, "state": ctrl.State()})
}

// Notices lists the pending notices.
func (h *WorkflowHandler) Notices(c *gin.Context) {
	c.JSON(http.StatusOK, currentSession(c).Controller.Notices())
}

// DismissNotice removes a notice.
func (h *WorkflowHandler) DismissNotice(c *gin.Context) {
	if !currentSession(c).Controller.DismissNotice(c.Param("id")) {
		c.JSON(http.StatusNotFound, gin.H{"error": "notice not found"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *WorkflowHandler) respond(c *gin.Context, ctrl *workflow.Controller, err error) {
	if err != nil {
		h.fail(c, ctrl, err)
		return
	}
	c.JSON(http.StatusOK, ctrl.State())
}

func (h *WorkflowHandler) fail(c *gin.Context, ctrl *workflow.Controller, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError && status != http.StatusBadGateway {
		h.logger.Error("workflow action failed", zap.String("path", c.FullPath()), zap.Error(err))
	}
	c.JSON(status, gin.H{"error": err.Error(), "state": ctrl.State()})
}

func (h *WorkflowHandler) badRequest(c *gin.Context, err error) {
	h.logger.Warn("invalid request", zap.String("path", c.FullPath()), zap.Error(err))
	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
}
