package reconcile

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/yungbote/certifytrack-backend/internal/observability"
	"github.com/yungbote/certifytrack-backend/internal/pkg/dbctx"
	"github.com/yungbote/certifytrack-backend/internal/pkg/logger"
)

const (
	DefaultSchedule = "15 2 * * *"
	defaultTimeout  = 4 * time.Minute
)

// Recomputer rewrites stored enrollment progress from the published task set.
type Recomputer interface {
	RecomputeAll(dbc dbctx.Context) (int, error)
}

type Config struct {
	// Schedule is a standard five-field cron expression. Empty means DefaultSchedule, "off" disables the job.
	Schedule string
	Timeout  time.Duration
	Metrics  *observability.Metrics
}

// Job periodically repairs enrollment progress that drifted when tasks were published, unpublished or
// deleted.
type Job struct {
	log      *logger.Logger
	target   Recomputer
	schedule string
	timeout  time.Duration
	metrics  *observability.Metrics

	mu      sync.Mutex
	cron    *cron.Cron
	lastRun time.Time
	lastN   int
	lastErr error
}

func New(baseLog *logger.Logger, target Recomputer, cfg Config) (*Job, error) {
	if target == nil {
		return nil, fmt.Errorf("reconcile: recomputer is required")
	}
	schedule := strings.TrimSpace(cfg.Schedule)
	if schedule == "" {
		schedule = DefaultSchedule
	}
	if !strings.EqualFold(schedule, "off") {
		if _, err := cron.ParseStandard(schedule); err != nil {
			return nil, fmt.Errorf("reconcile: parse schedule %q: %w", schedule, err)
		}
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Job{
		log:      baseLog.With("component", "ProgressReconciler"),
		target:   target,
		schedule: schedule,
		timeout:  timeout,
		metrics:  cfg.Metrics,
	}, nil
}

func (j *Job) Enabled() bool { return !strings.EqualFold(j.schedule, "off") }

// Start schedules the job until ctx is done or Stop is called. It is a no-op when disabled or already
// started.
func (j *Job) Start(ctx context.Context) error {
	if !j.Enabled() {
		j.log.Info("Progress reconcile disabled")
		return nil
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.cron != nil {
		return nil
	}
	c := cron.New(cron.WithChain(cron.Recover(cronLogger{j.log}), cron.SkipIfStillRunning(cronLogger{j.log})))
	if _, err := c.AddFunc(j.schedule, func() { j.run(ctx) }); err != nil {
		return fmt.Errorf("reconcile: add cron: %w", err)
	}
	c.Start()
	j.cron = c
	j.log.Info("Progress reconcile scheduled", "schedule", j.schedule)

	go func() {
		<-ctx.Done()
		j.Stop()
	}()
	return nil
}

// Stop halts scheduling and waits for a running pass to finish.
func (j *Job) Stop() {
	j.mu.Lock()
	c := j.cron
	j.cron = nil
	j.mu.Unlock()
	if c == nil {
		return
	}
	<-c.Stop().Done()
}

// RunOnce performs a single pass and returns how many enrollments changed.
func (j *Job) RunOnce(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()

	start := time.Now()
	n, err := j.target.RecomputeAll(dbctx.New(ctx))

	j.mu.Lock()
	j.lastRun, j.lastN, j.lastErr = start, n, err
	j.mu.Unlock()

	if err != nil {
		return n, fmt.Errorf("reconcile: %w", err)
	}
	return n, nil
}

// LastRun reports the start time, change count and error of the most recent pass.
func (j *Job) LastRun() (time.Time, int, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.lastRun, j.lastN, j.lastErr
}

func (j *Job) run(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	start := time.Now()
	n, err := j.RunOnce(ctx)
	j.metrics.ObserveReconcile(n, err, time.Since(start))
	if err != nil {
		j.log.Error("Progress reconcile failed", "error", err, "updated", n, "duration", time.Since(start))
		return
	}
	j.log.Info("Progress reconcile finished", "updated", n, "duration", time.Since(start))
}

// cronLogger adapts *logger.Logger to cron.Logger.
type cronLogger struct{ log *logger.Logger }

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
