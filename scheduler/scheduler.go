// Package scheduler runs the scrape job on a cron schedule.
package scheduler

import (
	"context"
	"sync/atomic"

	"github.com/robfig/cron/v3"

	"ecaytracker/utils"
)

// Job is one scheduled unit of work.
type Job func(ctx context.Context) error

// Scheduler runs a Job on a cron spec, skipping a tick while the previous
// run is still in progress.
type Scheduler struct {
	cron    *cron.Cron
	logger  *utils.Logger
	job     Job
	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
}

// New creates a Scheduler for job. Nothing runs until Start.
func New(logger *utils.Logger, job Job) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:   cron.New(),
		logger: logger,
		job:    job,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start registers the job under spec (standard five-field cron syntax or
// a descriptor such as "@every 6h") and starts the cron loop.
func (s *Scheduler) Start(spec string) error {
	if _, err := s.cron.AddFunc(spec, s.RunOnce); err != nil {
		return err
	}
	s.cron.Start()
	s.logger.Info("[scheduler] Started (cron: %s)", spec)
	return nil
}

// RunOnce runs the job now unless a run is already in progress.
func (s *Scheduler) RunOnce() {
	if !s.running.CompareAndSwap(false, true) {
		s.logger.Warn("[scheduler] Previous run still in progress, skipping")
		return
	}
	defer s.running.Store(false)

	s.logger.Info("[scheduler] Job starting")
	if err := s.job(s.ctx); err != nil {
		s.logger.Error("[scheduler] Job failed: %v", err)
		return
	}
	s.logger.Info("[scheduler] Job completed")
}

// Stop cancels any running job and waits for it to return.
func (s *Scheduler) Stop() {
	s.cancel()
	<-s.cron.Stop().Done()
	s.logger.Info("[scheduler] Stopped")
}
