package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mamadbah2/scantrak/internal/domain/models"
	"github.com/mamadbah2/scantrak/internal/service/reporting"
	"github.com/mamadbah2/scantrak/pkg/clients/notify"
)

type fakeEvictor struct{ calls int }

func (f *fakeEvictor) EvictIdle(time.Time) int {
	f.calls++
	return 0
}

type fakeNotifier struct {
	sent []notify.DigestRequest
	err  error
}

func (f *fakeNotifier) SendDigest(_ context.Context, req notify.DigestRequest) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, req)
	return nil
}

type fixedLister []models.SubmittedRecord

func (l fixedLister) List(context.Context) ([]models.SubmittedRecord, error) {
	return l, nil
}

func TestSendDigestCoversLastDay(t *testing.T) {
	until := time.Date(2026, 3, 2, 20, 0, 0, 0, time.UTC)
	records := fixedLister{
		{MemberID: "M1", MemberName: "Awa", Role: models.RoleApplicator, Timestamp: until.Add(-time.Hour).UnixMilli()},
		{MemberID: "M2", MemberName: "Old", Role: models.RoleCustomer, Timestamp: until.Add(-25 * time.Hour).UnixMilli()},
	}
	n := &fakeNotifier{}
	s := NewScheduler(&fakeEvictor{}, reporting.NewService(records, nil, nil), n, "0 20 * * *", "megakem", nil, nil)

	if err := s.SendDigest(context.Background(), until); err != nil {
		t.Fatalf("SendDigest() error = %v", err)
	}
	if len(n.sent) != 1 {
		t.Fatalf("sent = %d, want 1", len(n.sent))
	}
	got := n.sent[0]
	if got.Total != 1 || got.App != "megakem" || !got.Since.Equal(until.Add(-24*time.Hour)) {
		t.Errorf("digest = %+v", got)
	}
}

func TestSendDigestPropagatesNotifierError(t *testing.T) {
	n := &fakeNotifier{err: errors.New("down")}
	s := NewScheduler(&fakeEvictor{}, reporting.NewService(fixedLister{}, nil, nil), n, "0 20 * * *", "megakem", nil, nil)

	if err := s.SendDigest(context.Background(), time.Now()); err == nil {
		t.Fatal("SendDigest() error = nil, want notifier error")
	}
}

func TestStartRejectsBadDigestSchedule(t *testing.T) {
	s := NewScheduler(&fakeEvictor{}, reporting.NewService(fixedLister{}, nil, nil), &fakeNotifier{}, "every tuesday", "megakem", nil, nil)
	if err := s.Start(); err == nil {
		s.Stop()
		t.Fatal("Start() error = nil, want schedule parse error")
	}
}

func TestEvictionJobCallsEvictor(t *testing.T) {
	e := &fakeEvictor{}
	s := NewScheduler(e, nil, nil, "", "megakem", nil, nil)
	s.evictIdleSessions()
	if e.calls != 1 {
		t.Fatalf("EvictIdle calls = %d, want 1", e.calls)
	}
}
