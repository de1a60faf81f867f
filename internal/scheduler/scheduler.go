package scheduler

import (
	"context"
	"fmt"
	"time"

	"anoa.com/blogapp/pkg/logger"
	"anoa.com/blogapp/pkg/metrics"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Job is a unit of background maintenance work.
type Job interface {
	Name() string
	// Schedule is a cron spec such as "0 3 * * *" or "@every 1h". An empty
	// schedule registers the job for on-demand runs only.
	Schedule() string
	Run(ctx context.Context) error
}

type Scheduler struct {
	cron    *cron.Cron
	jobs    []Job
	timeout time.Duration
}

func New(timeout time.Duration) *Scheduler {
	return &Scheduler{
		cron:    cron.New(),
		timeout: timeout,
	}
}

// Register adds a job and schedules it when it has a schedule.
func (s *Scheduler) Register(job Job) error {
	entry := logger.Log.WithFields(logrus.Fields{"job": job.Name(), "schedule": job.Schedule()})

	if spec := job.Schedule(); spec != "" {
		if _, err := s.cron.AddFunc(spec, func() { s.execute(context.Background(), job) }); err != nil {
			return fmt.Errorf("schedule %s: %w", job.Name(), err)
		}
		entry.Info("job scheduled")
	} else {
		entry.Info("job registered for on-demand runs")
	}

	s.jobs = append(s.jobs, job)
	return nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	logger.Log.WithField("jobs", len(s.jobs)).Info("scheduler started")
}

// Stop prevents new runs and waits for running jobs to finish or ctx to end.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
		logger.Log.Warn("scheduler stopped before running jobs finished")
	}
}

// RunByName runs a registered job immediately.
func (s *Scheduler) RunByName(ctx context.Context, name string) error {
	for _, job := range s.jobs {
		if job.Name() == name {
			return s.execute(ctx, job)
		}
	}
	return fmt.Errorf("job %q not registered", name)
}

func (s *Scheduler) Jobs() []string {
	names := make([]string, len(s.jobs))
	for i, job := range s.jobs {
		names[i] = job.Name()
	}
	return names
}

func (s *Scheduler) execute(ctx context.Context, job Job) error {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	startedAt := time.Now()
	err := job.Run(ctx)
	metrics.JobRuns.WithLabelValues(job.Name(), metrics.Result(err)).Inc()
	entry := logger.Log.WithFields(logrus.Fields{
		"job":         job.Name(),
		"duration_ms": time.Since(startedAt).Milliseconds(),
	})
	if err != nil {
		entry.WithError(err).Error("job failed")
		return err
	}
	entry.Info("job completed")
	return nil
}

// Func adapts a function to Job.
type Func struct {
	JobName string
	Spec    string
	Fn      func(ctx context.Context) error
}

func (f Func) Name() string                  { return f.JobName }
func (f Func) Schedule() string              { return f.Spec }
func (f Func) Run(ctx context.Context) error { return f.Fn(ctx) }
