package scheduler

import (
	"context"
	"sync"
	"time"
)

// Task is the immutable descriptor registered with the scheduler. Timeout
// overrides the scheduler-wide default when positive.
type Task struct {
	Name    string
	Rule    Rule
	Timeout time.Duration
	Run     func(ctx context.Context) error
}

// runState is the mutable side of a registered task. It lives behind the
// entry's own lock so reading one task's status never contends with another
// task's execution.
type runState struct {
	lastRun       time.Time
	nextRun       time.Time
	runCount      int64
	errorCount    int64
	lastError     string
	lastErrorTime time.Time
	running       bool
}

// taskEntry pairs a descriptor with its run-state
type taskEntry struct {
	task Task

	mu    sync.Mutex
	state runState
}

func newTaskEntry(task Task, now time.Time) *taskEntry {
	e := &taskEntry{task: task}
	e.state.nextRun = task.Rule.Next(now)
	return e
}

// tryStart claims the running flag if the task is due and not already
// running. The claim and the check are one critical section, so two pollers
// can never both launch the same task.
func (e *taskEntry) tryStart(now time.Time) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state.running || e.state.nextRun.After(now) {
		return false
	}
	e.state.running = true
	return true
}

// tryForceStart claims the running flag regardless of the schedule
func (e *taskEntry) tryForceStart() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state.running {
		return false
	}
	e.state.running = true
	return true
}

// finish clears the running flag and rolls the schedule forward in a single
// critical section
func (e *taskEntry) finish(started time.Time, err error, now time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.state.running = false
	e.state.lastRun = started
	e.state.nextRun = e.task.Rule.Next(now)
	e.state.runCount++
	if err != nil {
		e.state.errorCount++
		e.state.lastError = err.Error()
		e.state.lastErrorTime = now
	}
}

// TaskStatus is the externally visible state of one registered task
type TaskStatus struct {
	Name       string `json:"name"`
	Rule       string `json:"rule"`
	LastRun    string `json:"last_run,omitempty"`
	NextRun    string `json:"next_run"`
	RunCount   int64  `json:"run_count"`
	ErrorCount int64  `json:"error_count"`
	Running    bool   `json:"running"`
	LastError  string `json:"last_error,omitempty"`
}

func (e *taskEntry) status() TaskStatus {
	e.mu.Lock()
	defer e.mu.Unlock()

	st := TaskStatus{
		Name:       e.task.Name,
		Rule:       e.task.Rule.String(),
		NextRun:    e.state.nextRun.Format(statsTimeLayout),
		RunCount:   e.state.runCount,
		ErrorCount: e.state.errorCount,
		Running:    e.state.running,
		LastError:  e.state.lastError,
	}
	if !e.state.lastRun.IsZero() {
		st.LastRun = e.state.lastRun.Format(statsTimeLayout)
	}
	return st
}
