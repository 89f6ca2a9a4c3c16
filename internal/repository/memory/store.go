// Package memory is an in-process record store used when no MongoDB URI is configured.
package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/mamadbah2/scantrak/internal/domain/models"
)

// Store keeps submitted records in memory and fans out changes to subscribers.
type Store struct {
	mu      sync.Mutex
	records []models.SubmittedRecord
	lastTS  int64
	subs    map[int]func([]models.SubmittedRecord)
	nextSub int
	now     func() time.Time

	// deliverMu orders notifications so subscribers always end on the latest set.
	deliverMu sync.Mutex
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		subs: make(map[int]func([]models.SubmittedRecord)),
		now:  time.Now,
	}
}

// Write appends a record with a strictly increasing millisecond timestamp.
func (s *Store) Write(ctx context.Context, record models.SubmittedRecord) (models.SubmittedRecord, error) {
	if err := ctx.Err(); err != nil {
		return models.SubmittedRecord{}, err
	}

	s.mu.Lock()
	ts := s.now().UnixMilli()
	if ts <= s.lastTS {
		ts = s.lastTS + 1
	}
	s.lastTS = ts
	record.Timestamp = ts
	s.records = append(s.records, record)
	s.mu.Unlock()

	s.notify()
	return record, nil
}

// Subscribe delivers the current set immediately and again after every write.
func (s *Store) Subscribe(ctx context.Context, onChange func([]models.SubmittedRecord)) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.deliverMu.Lock()
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = onChange
	snapshot := slices.Clone(s.records)
	s.mu.Unlock()
	onChange(snapshot)
	s.deliverMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.subs, id)
		})
	}, nil
}

// List returns every record, newest first.
func (s *Store) List(ctx context.Context) ([]models.SubmittedRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	out := slices.Clone(s.records)
	s.mu.Unlock()

	slices.Reverse(out)
	return out, nil
}

// Subscribers returns the number of live subscriptions.
func (s *Store) Subscribers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

func (s *Store) notify() {
	s.deliverMu.Lock()
	defer s.deliverMu.Unlock()

	s.mu.Lock()
	snapshot := slices.Clone(s.records)
	subs := make([]func([]models.SubmittedRecord), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(slices.Clone(snapshot))
	}
}
