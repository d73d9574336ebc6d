package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Scheduler runs the daily batch on an in-process cron schedule, for
// deployments without an external trigger.
type Scheduler struct {
	cron      *cron.Cron
	ctx       context.Context
	cancel    context.CancelFunc
	batchFunc func(ctx context.Context) error
	log       *zap.Logger
}

func New(log *zap.Logger) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		cron:   cron.New(cron.WithLocation(time.UTC)),
		ctx:    ctx,
		cancel: cancel,
		log:    log.Named("scheduler"),
	}
}

// SetBatchFunction sets the function the schedule fires.
func (s *Scheduler) SetBatchFunction(f func(ctx context.Context) error) {
	s.batchFunc = f
}

// Start registers the cron spec and launches the scheduler.
func (s *Scheduler) Start(spec string) error {
	if s.batchFunc == nil {
		s.log.Warn("batch function not set, scheduler will not run the daily batch")
		return nil
	}

	_, err := s.cron.AddFunc(spec, func() {
		s.log.Info("scheduled daily batch triggered", zap.String("spec", spec))
		if err := s.batchFunc(s.ctx); err != nil {
			s.log.Error("scheduled daily batch failed", zap.Error(err))
		}
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	s.log.Info("scheduler started", zap.String("spec", spec))
	return nil
}

// Stop halts the scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	if s.cron != nil {
		ctx := s.cron.Stop()
		<-ctx.Done()
	}
	if s.cancel != nil {
		s.cancel()
	}
	s.log.Info("scheduler stopped")
}

// IsRunning reports whether any schedule is registered.
func (s *Scheduler) IsRunning() bool {
	return s.cron != nil && len(s.cron.Entries()) > 0
}
