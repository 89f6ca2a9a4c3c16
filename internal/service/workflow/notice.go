package workflow

import (
	"time"

	"github.com/google/uuid"
)

// Severity grades a notice.
type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Notice is a transient user-facing message. Values are never modified after Push.
type Notice struct {
	ID        string    `json:"id"`
	Message   string    `json:"message"`
	Severity  Severity  `json:"severity"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// NoticeQueue holds the pending notices of a session. Notices disappear after
// their TTL or when dismissed.
type NoticeQueue struct {
	ttl   time.Duration
	now   func() time.Time
	items []Notice
}

// NewNoticeQueue builds a queue whose notices live for ttl.
func NewNoticeQueue(ttl time.Duration, now func() time.Time) *NoticeQueue {
	if now == nil {
		now = time.Now
	}
	return &NoticeQueue{ttl: ttl, now: now}
}

// Push enqueues a notice and returns it.
func (q *NoticeQueue) Push(message string, severity Severity) Notice {
	created := q.now()
	n := Notice{
		ID:        uuid.NewString(),
		Message:   message,
		Severity:  severity,
		CreatedAt: created,
		ExpiresAt: created.Add(q.ttl),
	}
	q.items = append(q.items, n)
	return n
}

// Pending prunes expired notices and returns the rest, oldest first.
func (q *NoticeQueue) Pending() []Notice {
	now := q.now()
	kept := q.items[:0]
	for _, n := range q.items {
		if now.Before(n.ExpiresAt) {
			kept = append(kept, n)
		}
	}
	q.items = kept

	out := make([]Notice, len(kept))
	copy(out, kept)
	return out
}

// Dismiss removes a notice by ID.
func (q *NoticeQueue) Dismiss(id string) bool {
	for i, n := range q.items {
		if n.ID == id {
			q.items = append(q.items[:i], q.items[i+1:]...)
			return true
		}
	}
	return false
}
