// Package session keeps the live workflow sessions of the server.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mamadbah2/scantrak/internal/decoder"
	"github.com/mamadbah2/scantrak/internal/identity"
	"github.com/mamadbah2/scantrak/internal/service/workflow"
)

// ErrUnknownSession is returned for tokens whose session is gone or never existed.
var ErrUnknownSession = errors.New("unknown session")

// Session is one client's workflow with its own decode loop.
type Session struct {
	ID         string
	Token      string
	Controller *workflow.Controller
	Decoder    *decoder.Stream

	lastSeen atomic.Int64
}

// LastSeen returns the time of the last request made with this session.
func (s *Session) LastSeen() time.Time {
	return time.UnixMilli(s.lastSeen.Load())
}

// Touch marks the session as used at now. Long-lived requests call it to keep
// the session from being evicted.
func (s *Session) Touch(now time.Time) {
	s.lastSeen.Store(now.UnixMilli())
}

// Registry maps session IDs to sessions.
type Registry struct {
	sessions map[string]*Session
	mu       sync.RWMutex

	issuer    *identity.Issuer
	gateway   workflow.Gateway
	idleTTL   time.Duration
	noticeTTL time.Duration
	logger    *zap.Logger
	now       func() time.Time
}

// NewRegistry creates an empty registry. Sessions share the gateway and nothing else.
func NewRegistry(issuer *identity.Issuer, gateway workflow.Gateway, idleTTL, noticeTTL time.Duration, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		sessions:  make(map[string]*Session),
		issuer:    issuer,
		gateway:   gateway,
		idleTTL:   idleTTL,
		noticeTTL: noticeTTL,
		logger:    logger,
		now:       time.Now,
	}
}

// Open creates a session in the welcome view and its bearer token.
func (r *Registry) Open(ctx context.Context) (*Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	id := uuid.NewString()
	token, err := r.issuer.Issue(id, identity.KindSession)
	if err != nil {
		return nil, fmt.Errorf("open session: %w", err)
	}

	logger := r.logger.With(zap.String("session_id", id))
	stream := decoder.NewStream(logger.Named("decoder"))
	controller := workflow.NewController(stream, r.gateway, r.issuer.Anonymous(), logger,
		workflow.WithNoticeTTL(r.noticeTTL),
		workflow.WithClock(r.now),
	)

	sess := &Session{ID: id, Token: token, Controller: controller, Decoder: stream}
	sess.Touch(r.now())

	r.mu.Lock()
	r.sessions[id] = sess
	r.mu.Unlock()

	logger.Info("session opened")
	return sess, nil
}

// Lookup resolves a bearer token to its live session and marks it as used.
func (r *Registry) Lookup(token string) (*Session, error) {
	claims, err := r.issuer.Parse(token, identity.KindSession)
	if err != nil {
		return nil, err
	}

	sess, ok := r.Get(claims.Subject)
	if !ok {
		return nil, ErrUnknownSession
	}
	sess.Touch(r.now())
	return sess, nil
}

// Get returns the session with the given ID.
func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sess, ok := r.sessions[id]
	return sess, ok
}

// Close ends a session and releases its decoder and subscription.
func (r *Registry) Close(id string) bool {
	r.mu.Lock()
	sess, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()

	if !ok {
		return false
	}
	sess.Controller.Close()
	r.logger.Info("session closed", zap.String("session_id", id))
	return true
}

// EvictIdle closes every session not used since the idle TTL and returns how many were closed.
func (r *Registry) EvictIdle(now time.Time) int {
	cutoff := now.Add(-r.idleTTL)

	r.mu.Lock()
	var idle []*Session
	for id, sess := range r.sessions {
		if sess.LastSeen().Before(cutoff) {
			idle = append(idle, sess)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()

	for _, sess := range idle {
		sess.Controller.Close()
	}
	if len(idle) > 0 {
		r.logger.Info("evicted idle sessions", zap.Int("count", len(idle)))
	}
	return len(idle)
}

// CloseAll ends every session, typically on shutdown.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[string]*Session)
	r.mu.Unlock()

	for _, sess := range sessions {
		sess.Controller.Close()
	}
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
