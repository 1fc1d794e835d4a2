package scheduler

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"tunneld/pkg/logger"

	"github.com/go-redis/redis/v8"
)

// Archiver is the archive pipeline as seen by the scheduler
type Archiver interface {
	ExecuteHourlyArchive(ctx context.Context) error
}

// CleanupManager is the retention engine as seen by the scheduler. It is an
// opaque dependency; only these operations matter here.
type CleanupManager interface {
	ExecuteScheduledCleanup(ctx context.Context) error
	ExecuteDeepCleanup(ctx context.Context) error
	ExecuteStartupCleanup(ctx context.Context) error
}

// Config controls the poll loop and execution bounds
type Config struct {
	PollInterval time.Duration // due-task scan period
	TaskTimeout  time.Duration // default per-execution wall-clock bound
	ArchiveRule  string        // recurrence for the hourly archive sweep
	CleanupRule  string        // recurrence for daily cleanup
	DeepRule     string        // recurrence for deep cleanup
}

func (c *Config) applyDefaults() {
	if c.PollInterval <= 0 {
		c.PollInterval = time.Minute
	}
	if c.TaskTimeout <= 0 {
		c.TaskTimeout = 30 * time.Minute
	}
	if c.ArchiveRule == "" {
		c.ArchiveRule = "hourly"
	}
	if c.CleanupRule == "" {
		c.CleanupRule = "daily 03:30"
	}
	if c.DeepRule == "" {
		c.DeepRule = "weekly sunday 02:00"
	}
}

// Scheduler runs a small set of named recurring tasks, each on its own
// recurrence schedule, with mutual exclusion per task and a hard execution
// timeout. Individual task failures are counted and never stop the loop.
type Scheduler struct {
	cfg      Config
	archiver Archiver
	cleanup  CleanupManager
	rdb      *redis.Client // nil degrades job locks to single-instance mode

	mu    sync.RWMutex // guards the registry map only
	tasks map[string]*taskEntry

	stats *Stats

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started bool
}

// New creates a scheduler bound to the provided lifecycle context. Either
// collaborator may be nil; the corresponding default tasks are then not
// registered. A nil Redis client runs the default jobs without distributed
// locking.
func New(parent context.Context, cfg Config, archiver Archiver, cleanup CleanupManager, rdb *redis.Client) *Scheduler {
	cfg.applyDefaults()
	ctx, cancel := context.WithCancel(parent)
	return &Scheduler{
		cfg:      cfg,
		archiver: archiver,
		cleanup:  cleanup,
		rdb:      rdb,
		tasks:    make(map[string]*taskEntry),
		stats:    NewStats(),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// RegisterTask computes the task's first next-run and inserts it into the
// registry. Re-registration under the same name overwrites. Must be called
// before Start for the task to be picked up on the first poll.
func (s *Scheduler) RegisterTask(task Task) {
	if task.Name == "" || task.Run == nil {
		logger.Warnf("ignoring task registration with empty name or body")
		return
	}

	entry := newTaskEntry(task, time.Now())

	s.mu.Lock()
	_, replaced := s.tasks[task.Name]
	s.tasks[task.Name] = entry
	s.mu.Unlock()

	if replaced {
		logger.Warnf("task %s re-registered, previous definition replaced", task.Name)
	}
	logger.Infof("registered task %s (%s), first run at %s",
		task.Name, task.Rule, entry.status().NextRun)
}

// Start registers the default tasks and launches the poll loop
func (s *Scheduler) Start() {
	if s.started {
		return
	}
	s.started = true

	s.registerDefaults()

	s.wg.Add(1)
	go s.pollLoop()

	logger.Infof("scheduler started (poll=%v timeout=%v)", s.cfg.PollInterval, s.cfg.TaskTimeout)
}

// pollLoop scans for due tasks once per poll interval
func (s *Scheduler) pollLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.dispatchDue(time.Now())
		}
	}
}

// dispatchDue launches every due, non-running task on its own goroutine. The
// registry read lock is released before any execution starts.
func (s *Scheduler) dispatchDue(now time.Time) {
	s.mu.RLock()
	entries := make([]*taskEntry, 0, len(s.tasks))
	for _, entry := range s.tasks {
		entries = append(entries, entry)
	}
	s.mu.RUnlock()

	for _, entry := range entries {
		if entry.tryStart(now) {
			s.wg.Add(1)
			go func(entry *taskEntry) {
				defer s.wg.Done()
				s.execute(entry)
			}(entry)
		}
	}
}

// execute runs one claimed task body under the execution timeout, then rolls
// the task's schedule forward and updates the scheduler-wide stats. The
// caller must have claimed the running flag.
func (s *Scheduler) execute(entry *taskEntry) {
	name := entry.task.Name

	timeout := entry.task.Timeout
	if timeout <= 0 {
		timeout = s.cfg.TaskTimeout
	}

	// derived from the lifecycle context so shutdown cancels in-flight bodies
	runCtx, cancel := context.WithTimeout(s.ctx, timeout)
	defer cancel()

	started := time.Now()
	logger.InfoCtx(runCtx, "task %s started", name)

	err := entry.task.Run(runCtx)
	if err == nil && runCtx.Err() != nil {
		// a body that swallows cancellation still counts as failed
		err = runCtx.Err()
	}

	elapsed := time.Since(started)
	now := time.Now()
	entry.finish(started, err, now)

	s.stats.apply(func(d *statsData) {
		d.totalRuns++
		d.runsByTask[name]++
		d.lastRunDuration = elapsed
		if err != nil {
			d.failedRuns++
			d.lastError = fmt.Sprintf("%s: %v", name, err)
			d.lastErrorTime = now
		} else {
			d.successfulRuns++
		}
	})

	if err != nil {
		logger.WarnCtx(runCtx, "task %s failed after %v: %v", name, elapsed, err)
	} else {
		logger.InfoCtx(runCtx, "task %s completed in %v", name, elapsed)
	}
}

// ForceExecuteTask triggers a task outside the normal polling cadence. The
// only synchronous error is an unknown name; a force on a running task is a
// no-op thanks to the running-flag guard.
func (s *Scheduler) ForceExecuteTask(name string) error {
	s.mu.RLock()
	entry, ok := s.tasks[name]
	s.mu.RUnlock()

	if !ok {
		return fmt.Errorf("task not found: %s", name)
	}

	if !entry.tryForceStart() {
		logger.Warnf("task %s is already running, force execution skipped", name)
		return nil
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.execute(entry)
	}()

	logger.Infof("task %s force execution triggered", name)
	return nil
}

// ExecuteStartupCleanup runs the one-shot boot-time cleanup, outside the
// recurring schedule. No-op when no cleanup manager is configured.
func (s *Scheduler) ExecuteStartupCleanup(ctx context.Context) error {
	if s.cleanup == nil {
		return nil
	}
	return s.cleanup.ExecuteStartupCleanup(ctx)
}

// GetStats returns a consistent snapshot of the scheduler counters plus the
// status of every registered task, sorted by name
func (s *Scheduler) GetStats() StatsSnapshot {
	snap := s.stats.Snapshot()

	s.mu.RLock()
	tasks := make([]TaskStatus, 0, len(s.tasks))
	for _, entry := range s.tasks {
		tasks = append(tasks, entry.status())
	}
	s.mu.RUnlock()

	sort.Slice(tasks, func(i, j int) bool { return tasks[i].Name < tasks[j].Name })
	snap.Tasks = tasks
	return snap
}

// Close cancels the lifecycle context, which stops the poll loop and cancels
// in-flight task executions, then waits for them to exit. Close is expected
// to be called at most once.
func (s *Scheduler) Close() {
	s.cancel()
	s.wg.Wait()
	logger.Infof("scheduler stopped")
}
