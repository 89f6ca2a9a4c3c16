package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/scantrak/internal/service/session"
)

const sessionKey = "scantrak.session"

var errMissingToken = errors.New("missing bearer token")

// Sessions is the session registry seen by the HTTP layer.
type Sessions interface {
	Open(ctx context.Context) (*session.Session, error)
	Lookup(token string) (*session.Session, error)
	Close(id string) bool
}

// SessionHandler opens and closes sessions and authenticates requests.
type SessionHandler struct {
	sessions Sessions
	logger   *zap.Logger
}

// NewSessionHandler constructs the session HTTP adapter.
func NewSessionHandler(sessions Sessions, logger *zap.Logger) *SessionHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionHandler{sessions: sessions, logger: logger}
}

// Open creates a session and returns its bearer token.
func (h *SessionHandler) Open(c *gin.Context) {
	sess, err := h.sessions.Open(c.Request.Context())
	if err != nil {
		h.logger.Error("failed to open session", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unable to open session"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"sessionId": sess.ID,
		"token":     sess.Token,
		"state":     sess.Controller.State(),
	})
}

// Close ends the caller's session.
func (h *SessionHandler) Close(c *gin.Context) {
	sess := currentSession(c)
	h.sessions.Close(sess.ID)
	c.Status(http.StatusNoContent)
}

// Authenticate resolves the bearer token and stores the session on the context.
func (h *SessionHandler) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			token, ok = c.GetQuery("token")
		}
		if !ok || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errMissingToken.Error()})
			return
		}

		sess, err := h.sessions.Lookup(token)
		if err != nil {
			h.logger.Debug("rejected session token", zap.Error(err))
			c.AbortWithStatusJSON(statusFor(err), gin.H{"error": "unknown or expired session"})
			return
		}

		c.Set(sessionKey, sess)
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	return strings.TrimSpace(token), true
}

func currentSession(c *gin.Context) *session.Session {
	return c.MustGet(sessionKey).(*session.Session)
}
