package cron

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Job is one recurring sweep registration.
type Job struct {
	Name     string
	Interval time.Duration
	Fn       func(ctx context.Context) error
}

// Scheduler drives the reconciliation jobs on fixed tickers, one
// goroutine per job. Run dedup is the Fence's concern, not the
// scheduler's.
type Scheduler struct {
	jobs   []Job
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	mu     sync.Mutex
}

func NewScheduler() *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		jobs:   make([]Job, 0),
		ctx:    ctx,
		cancel: cancel,
	}
}

// AddJob registers a job; call before Start.
func (s *Scheduler) AddJob(name string, interval time.Duration, fn func(ctx context.Context) error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.jobs = append(s.jobs, Job{
		Name:     name,
		Interval: interval,
		Fn:       fn,
	})
	slog.Info("Sweep job registered", "name", name, "interval", interval)
}

// Start launches every registered job. Each runs once immediately, then
// on its interval.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, job := range s.jobs {
		s.wg.Add(1)
		go s.runJob(job)
	}

	slog.Info("Sweep scheduler started", "job_count", len(s.jobs))
}

// Stop cancels all jobs and waits for in-flight runs to finish.
func (s *Scheduler) Stop() {
	slog.Info("Stopping sweep scheduler...")
	s.cancel()
	s.wg.Wait()
	slog.Info("Sweep scheduler stopped")
}

func (s *Scheduler) runJob(job Job) {
	defer s.wg.Done()

	ticker := time.NewTicker(job.Interval)
	defer ticker.Stop()

	s.executeJob(job)

	for {
		select {
		case <-s.ctx.Done():
			slog.Info("Sweep job stopping", "name", job.Name)
			return
		case <-ticker.C:
			s.executeJob(job)
		}
	}
}

func (s *Scheduler) executeJob(job Job) {
	start := time.Now()
	slog.Debug("Sweep job starting", "name", job.Name)

	if err := job.Fn(s.ctx); err != nil {
		slog.Error("Sweep job failed", "name", job.Name, "error", err, "duration", time.Since(start))
	} else {
		slog.Debug("Sweep job completed", "name", job.Name, "duration", time.Since(start))
	}
}

// RunOnce runs every registered job a single time on the caller's
// context, outside the ticker loops.
func (s *Scheduler) RunOnce(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, job := range s.jobs {
		if err := job.Fn(ctx); err != nil {
			slog.Error("Sweep job failed", "name", job.Name, "error", err)
		}
	}
}
