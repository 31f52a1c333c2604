package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Job is a scheduled task. It receives the scheduler's context.
type Job struct {
	Name     string
	Schedule string
	Run      func(ctx context.Context) error
	// Timeout bounds a single run; zero means no limit.
	Timeout time.Duration
}

// Scheduler runs jobs on cron schedules. Runs of the same job never overlap.
type Scheduler struct {
	logger *slog.Logger
	jobs   []Job

	mu      sync.Mutex
	running bool
	cron    *cron.Cron
	cancel  context.CancelFunc
}

func NewScheduler(logger *slog.Logger, jobs ...Job) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{logger: logger, jobs: jobs}
}

// Start registers every job and starts the cron loop. Returns an error if
// already running or a schedule does not parse.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return fmt.Errorf("scheduler is already running")
	}

	c := cron.New(cron.WithLogger(cronLogger{s.logger}), cron.WithChain(
		cron.Recover(cronLogger{s.logger}),
		cron.SkipIfStillRunning(cronLogger{s.logger}),
	))
	runCtx, cancel := context.WithCancel(ctx)
	for _, j := range s.jobs {
		if _, err := c.AddFunc(j.Schedule, s.wrap(runCtx, j)); err != nil {
			cancel()
			return fmt.Errorf("schedule %s %q: %w", j.Name, j.Schedule, err)
		}
	}

	c.Start()
	s.cron, s.cancel, s.running = c, cancel, true
	s.logger.InfoContext(ctx, "Scheduler started", "jobs", len(s.jobs))
	return nil
}

func (s *Scheduler) wrap(ctx context.Context, j Job) func() {
	return func() {
		if err := s.RunNow(ctx, j); err != nil {
			s.logger.ErrorContext(ctx, "Scheduled job failed", "job", j.Name, "error", err)
		}
	}
}

// RunNow executes j immediately in the calling goroutine.
func (s *Scheduler) RunNow(ctx context.Context, j Job) error {
	if j.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.Timeout)
		defer cancel()
	}
	start := time.Now()
	err := j.Run(ctx)
	s.logger.InfoContext(ctx, "Scheduled job finished",
		"job", j.Name,
		"duration_ms", time.Since(start).Milliseconds(),
		"success", err == nil)
	return err
}

// Stop cancels running jobs and waits for them, or for ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	c, cancel := s.cron, s.cancel
	s.running = false
	s.mu.Unlock()

	cancel()
	done := c.Stop().Done()
	select {
	case <-done:
		s.logger.InfoContext(ctx, "Scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.WarnContext(ctx, "Scheduler stop timed out")
		return ctx.Err()
	}
}

func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct{ l *slog.Logger }

func (c cronLogger) Info(msg string, keysAndValues ...any) {
	c.l.Debug("cron: "+msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...any) {
	c.l.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
