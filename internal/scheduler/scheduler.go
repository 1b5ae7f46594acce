// Package scheduler runs the process-local periodic jobs: keeping the
// catalog snapshots warm and pre-creating the daily challenge so the
// first join of the day doesn't pay selection latency.
package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

type Scheduler struct {
	cron   *cron.Cron
	ctx    context.Context
	cancel context.CancelFunc
	log    *zap.Logger

	warmFunc    func(ctx context.Context)
	prepareFunc func(ctx context.Context) error
}

func New(log *zap.Logger) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:   cron.New(cron.WithLocation(time.UTC)),
		ctx:    ctx,
		cancel: cancel,
		log:    log,
	}
}

// SetWarmFunction sets the hourly catalog warm-up.
func (s *Scheduler) SetWarmFunction(f func(ctx context.Context)) {
	s.warmFunc = f
}

// SetPrepareFunction sets the daily challenge pre-creation.
func (s *Scheduler) SetPrepareFunction(f func(ctx context.Context) error) {
	s.prepareFunc = f
}

func (s *Scheduler) Start() error {
	if s.warmFunc != nil {
		if _, err := s.cron.AddFunc("@hourly", func() {
			s.log.Debug("hourly catalog warm-up")
			s.warmFunc(s.ctx)
		}); err != nil {
			return err
		}
	}

	if s.prepareFunc != nil {
		// Shortly after midnight UTC, once the date key has rolled.
		if _, err := s.cron.AddFunc("5 0 * * *", func() {
			s.log.Info("preparing today's challenge")
			if err := s.prepareFunc(s.ctx); err != nil {
				s.log.Warn("challenge preparation failed", zap.Error(err))
			}
		}); err != nil {
			return err
		}
	}

	s.cron.Start()
	s.log.Info("scheduler started")
	return nil
}

func (s *Scheduler) Stop() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
	s.cancel()
	s.log.Info("scheduler stopped")
}
