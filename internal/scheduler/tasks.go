package scheduler

import (
	"context"

	"tunneld/pkg/dlock"
	"tunneld/pkg/logger"
)

// Default task names. External callers use them with ForceExecuteTask.
const (
	TaskHourlyArchive = "hourly-archive"
	TaskDailyCleanup  = "daily-cleanup"
	TaskDeepCleanup   = "deep-cleanup"
)

// registerDefaults wires the built-in maintenance tasks. Each body runs under
// a per-task distributed lock so multiple panel replicas never execute the
// same job concurrently.
func (s *Scheduler) registerDefaults() {
	if s.archiver != nil {
		s.RegisterTask(Task{
			Name: TaskHourlyArchive,
			Rule: ParseRule(s.cfg.ArchiveRule),
			Run: s.withLock("jobs:hourly-archive-lock", func(ctx context.Context) error {
				return s.archiver.ExecuteHourlyArchive(ctx)
			}),
		})
	}

	if s.cleanup != nil {
		s.RegisterTask(Task{
			Name: TaskDailyCleanup,
			Rule: ParseRule(s.cfg.CleanupRule),
			Run: s.withLock("jobs:daily-cleanup-lock", func(ctx context.Context) error {
				return s.cleanup.ExecuteScheduledCleanup(ctx)
			}),
		})

		s.RegisterTask(Task{
			Name: TaskDeepCleanup,
			Rule: ParseRule(s.cfg.DeepRule),
			Run: s.withLock("jobs:deep-cleanup-lock", func(ctx context.Context) error {
				return s.cleanup.ExecuteDeepCleanup(ctx)
			}),
		})
	}
}

// withLock wraps a task body with a distributed lock. Losing the race is not
// an error: another replica is running the job, so this run is skipped.
func (s *Scheduler) withLock(lockKey string, body func(ctx context.Context) error) func(ctx context.Context) error {
	lock := dlock.NewRedisLock(s.rdb, lockKey)

	return func(ctx context.Context) error {
		acquired, err := lock.TryLock(ctx)
		if err != nil {
			return err
		}
		if !acquired {
			logger.InfoCtx(ctx, "lock %s held by another instance, skipping this run", lockKey)
			return nil
		}
		defer func() {
			if err := lock.Unlock(context.Background()); err != nil {
				logger.WarnCtx(ctx, "failed to release lock %s: %v", lockKey, err)
			}
		}()

		return body(ctx)
	}
}
