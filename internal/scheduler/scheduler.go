// Package scheduler runs periodic maintenance jobs with robfig/cron
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/storykeeper/backend/internal/models"
	"go.uber.org/zap"
)

// Default schedules in standard cron syntax
const (
	ResetTokenSchedule   = "*/30 * * * *"
	RefreshTokenSchedule = "15 3 * * *"
	TagRecountSchedule   = "0 * * * *"
	BinPurgeSchedule     = "30 4 * * *"
)

// ErrUnknownJob is returned by RunNow for names that were never added
var ErrUnknownJob = errors.New("unknown job")

// jobTimeout bounds a single run of any job
const jobTimeout = 10 * time.Minute

// Job is a named periodic function
type Job struct {
	Name string
	Spec string
	Run  func(ctx context.Context) error
}

// Scheduler wraps a cron runner and logs every job run
type Scheduler struct {
	cron   *cron.Cron
	jobs   map[string]Job
	logger *zap.Logger
}

// NewScheduler creates an idle scheduler
func NewScheduler(logger *zap.Logger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(),
		jobs:   make(map[string]Job),
		logger: logger,
	}
}

// Add validates the schedule and registers the job
func (s *Scheduler) Add(job Job) error {
	schedule, err := cron.ParseStandard(job.Spec)
	if err != nil {
		return fmt.Errorf("invalid schedule %q for job %s: %w", job.Spec, job.Name, err)
	}
	if _, exists := s.jobs[job.Name]; exists {
		return fmt.Errorf("job %s already registered", job.Name)
	}

	s.jobs[job.Name] = job
	s.cron.Schedule(schedule, cron.FuncJob(func() { s.execute(job) }))
	return nil
}

// Start runs the registered jobs in the background
func (s *Scheduler) Start() {
	s.logger.Info("Scheduler started", zap.Int("jobs", len(s.jobs)))
	s.cron.Start()
}

// Stop stops scheduling and waits for running jobs until ctx is done
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		s.logger.Info("Scheduler stopped")
	case <-ctx.Done():
		s.logger.Warn("Scheduler stopped before running jobs finished")
	}
}

// RunNow executes a registered job synchronously
func (s *Scheduler) RunNow(ctx context.Context, name string) error {
	job, ok := s.jobs[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownJob, name)
	}
	return job.Run(ctx)
}

func (s *Scheduler) execute(job Job) {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	start := time.Now()
	if err := job.Run(ctx); err != nil {
		s.logger.Error("Scheduled job failed", zap.String("job", job.Name), zap.Duration("duration", time.Since(start)), zap.Error(err))
		return
	}
	s.logger.Debug("Scheduled job finished", zap.String("job", job.Name), zap.Duration("duration", time.Since(start)))
}

// ResetTokenCleaner removes used or expired password reset tokens
type ResetTokenCleaner interface {
	DeleteExpired(ctx context.Context, now time.Time) (int, error)
}

// RefreshTokenCleaner removes refresh tokens issued before a cutoff
type RefreshTokenCleaner interface {
	DeleteExpiredTokens(ctx context.Context, expiryTime time.Time) (int, error)
}

// TagRecounter recomputes every tag usage counter
type TagRecounter interface {
	RecountAll(ctx context.Context) (int, error)
}

// BinPurger purges stories that stayed in the recycling bin too long
type BinPurger interface {
	PurgeExpired(ctx context.Context, retention time.Duration) (*models.BatchResult, error)
}

// Maintenance holds the collaborators of the built-in jobs
type Maintenance struct {
	ResetTokens   ResetTokenCleaner
	RefreshTokens RefreshTokenCleaner
	// RefreshTokenTTL is the refresh token lifetime, older rows can no longer be used
	RefreshTokenTTL time.Duration
	Tags            TagRecounter
	Bin             BinPurger
	// BinRetention disables the bin auto purge when zero
	BinRetention time.Duration
	Now          func() time.Time
}

// Jobs returns the maintenance jobs enabled by m
func (m Maintenance) Jobs(logger *zap.Logger) []Job {
	now := m.Now
	if now == nil {
		now = time.Now
	}

	var jobs []Job
	if m.ResetTokens != nil {
		jobs = append(jobs, Job{Name: "reset-token-gc", Spec: ResetTokenSchedule, Run: func(ctx context.Context) error {
			n, err := m.ResetTokens.DeleteExpired(ctx, now())
			if err != nil {
				return err
			}
			logger.Info("Removed stale password reset tokens", zap.Int("count", n))
			return nil
		}})
	}
	if m.RefreshTokens != nil && m.RefreshTokenTTL > 0 {
		jobs = append(jobs, Job{Name: "refresh-token-gc", Spec: RefreshTokenSchedule, Run: func(ctx context.Context) error {
			n, err := m.RefreshTokens.DeleteExpiredTokens(ctx, now().Add(-m.RefreshTokenTTL))
			if err != nil {
				return err
			}
			logger.Info("Removed expired refresh tokens", zap.Int("count", n))
			return nil
		}})
	}
	if m.Tags != nil {
		jobs = append(jobs, Job{Name: "tag-recount", Spec: TagRecountSchedule, Run: func(ctx context.Context) error {
			_, err := m.Tags.RecountAll(ctx)
			return err
		}})
	}
	if m.Bin != nil && m.BinRetention > 0 {
		jobs = append(jobs, Job{Name: "bin-purge", Spec: BinPurgeSchedule, Run: func(ctx context.Context) error {
			result, err := m.Bin.PurgeExpired(ctx, m.BinRetention)
			if err != nil {
				return err
			}
			logger.Info("Purged expired recycling bin stories", zap.Int("affected", result.Affected), zap.Int("requested", len(result.Results)))
			return nil
		}})
	}
	return jobs
}
