package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/mamadbah2/scantrak/internal/service/reporting"
	"github.com/mamadbah2/scantrak/pkg/clients/notify"
)

const evictionSpec = "@every 1m"

// Evictor closes idle sessions.
type Evictor interface {
	EvictIdle(now time.Time) int
}

// Scheduler manages scheduled tasks.
type Scheduler struct {
	cron         *cron.Cron
	evictor      Evictor
	reportingSvc *reporting.Service
	notifier     notify.Notifier
	digestSpec   string
	app          string
	logger       *zap.Logger
	now          func() time.Time
}

// NewScheduler creates a new scheduler running in loc. A nil notifier disables the digest job.
func NewScheduler(evictor Evictor, reportingSvc *reporting.Service, notifier notify.Notifier, digestSpec, app string, loc *time.Location, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.UTC
	}

	return &Scheduler{
		cron:         cron.New(cron.WithLocation(loc)),
		evictor:      evictor,
		reportingSvc: reportingSvc,
		notifier:     notifier,
		digestSpec:   digestSpec,
		app:          app,
		logger:       logger,
		now:          time.Now,
	}
}

// Start registers the jobs and starts the cron loop.
func (s *Scheduler) Start() error {
	s.logger.Info("starting scheduler")

	if _, err := s.cron.AddFunc(evictionSpec, s.evictIdleSessions); err != nil {
		return err
	}

	if s.notifier != nil && s.reportingSvc != nil {
		if _, err := s.cron.AddFunc(s.digestSpec, s.sendDailyDigest); err != nil {
			return err
		}
	} else {
		s.logger.Info("digest job disabled, no notifier configured")
	}

	s.cron.Start()
	return nil
}

// Stop stops the scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

func (s *Scheduler) evictIdleSessions() {
	if n := s.evictor.EvictIdle(s.now()); n > 0 {
		s.logger.Debug("idle sessions evicted", zap.Int("count", n))
	}
}

func (s *Scheduler) sendDailyDigest() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := s.SendDigest(ctx, s.now()); err != nil {
		s.logger.Error("failed to send daily digest", zap.Error(err))
		return
	}
	s.logger.Info("daily digest sent successfully")
}

// SendDigest summarizes the 24 hours before until and posts it.
func (s *Scheduler) SendDigest(ctx context.Context, until time.Time) error {
	since := until.Add(-24 * time.Hour)

	summary, err := s.reportingSvc.Summarize(ctx, since, until)
	if err != nil {
		return err
	}

	return s.notifier.SendDigest(ctx, notify.DigestRequest{
		App:   s.app,
		Text:  s.reportingSvc.Render(summary),
		Since: since,
		Until: until,
		Total: summary.Total,
	})
}
