package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// waitFor polls cond until it holds or the timeout expires
func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

type fakeArchiver struct {
	calls int64
}

func (f *fakeArchiver) ExecuteHourlyArchive(ctx context.Context) error {
	atomic.AddInt64(&f.calls, 1)
	return nil
}

type fakeCleanup struct {
	scheduled int64
	deep      int64
	startup   int64
	err       error
}

func (f *fakeCleanup) ExecuteScheduledCleanup(ctx context.Context) error {
	atomic.AddInt64(&f.scheduled, 1)
	return f.err
}

func (f *fakeCleanup) ExecuteDeepCleanup(ctx context.Context) error {
	atomic.AddInt64(&f.deep, 1)
	return f.err
}

func (f *fakeCleanup) ExecuteStartupCleanup(ctx context.Context) error {
	atomic.AddInt64(&f.startup, 1)
	return f.err
}

func TestForceExecuteUnknownTask(t *testing.T) {
	s := New(context.Background(), Config{}, nil, nil, nil)
	err := s.ForceExecuteTask("no-such-task")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestForceExecuteRunsTask(t *testing.T) {
	s := New(context.Background(), Config{}, nil, nil, nil)
	defer s.Close()

	var runs int64
	s.RegisterTask(Task{
		Name: "manual",
		Rule: Daily(3, 30),
		Run: func(ctx context.Context) error {
			atomic.AddInt64(&runs, 1)
			return nil
		},
	})

	require.NoError(t, s.ForceExecuteTask("manual"))
	waitFor(t, 2*time.Second, func() bool { return atomic.LoadInt64(&runs) == 1 })

	waitFor(t, 2*time.Second, func() bool { return s.GetStats().TotalRuns == 1 })
	snap := s.GetStats()
	assert.Equal(t, int64(1), snap.SuccessfulRuns)
	assert.Equal(t, int64(0), snap.FailedRuns)
	assert.Equal(t, int64(1), snap.RunsByTask["manual"])
}

func TestForceExecuteWhileRunningIsNoOp(t *testing.T) {
	s := New(context.Background(), Config{}, nil, nil, nil)
	defer s.Close()

	started := make(chan struct{})
	release := make(chan struct{})
	var runs int64
	s.RegisterTask(Task{
		Name: "slow",
		Rule: Daily(3, 30),
		Run: func(ctx context.Context) error {
			atomic.AddInt64(&runs, 1)
			close(started)
			<-release
			return nil
		},
	})

	require.NoError(t, s.ForceExecuteTask("slow"))
	<-started

	// second trigger while running: accepted but skipped
	require.NoError(t, s.ForceExecuteTask("slow"))
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int64(1), atomic.LoadInt64(&runs))

	close(release)
	waitFor(t, 2*time.Second, func() bool { return s.GetStats().TotalRuns == 1 })
}

func TestPollLoopDispatchesDueTask(t *testing.T) {
	s := New(context.Background(), Config{PollInterval: 10 * time.Millisecond}, nil, nil, nil)

	var runs int64
	s.RegisterTask(Task{
		Name: "frequent",
		Rule: Every(time.Millisecond),
		Run: func(ctx context.Context) error {
			atomic.AddInt64(&runs, 1)
			return nil
		},
	})

	s.Start()
	waitFor(t, 2*time.Second, func() bool { return atomic.LoadInt64(&runs) >= 2 })
	s.Close()

	snap := s.GetStats()
	assert.Equal(t, snap.TotalRuns, snap.SuccessfulRuns)
}

func TestTaskErrorCountedAndLoopSurvives(t *testing.T) {
	s := New(context.Background(), Config{PollInterval: 10 * time.Millisecond}, nil, nil, nil)

	var bad, good int64
	s.RegisterTask(Task{
		Name: "bad",
		Rule: Every(time.Millisecond),
		Run: func(ctx context.Context) error {
			atomic.AddInt64(&bad, 1)
			return errors.New("backend unavailable")
		},
	})
	s.RegisterTask(Task{
		Name: "good",
		Rule: Every(time.Millisecond),
		Run: func(ctx context.Context) error {
			atomic.AddInt64(&good, 1)
			return nil
		},
	})

	s.Start()
	waitFor(t, 2*time.Second, func() bool {
		return atomic.LoadInt64(&bad) >= 2 && atomic.LoadInt64(&good) >= 2
	})
	s.Close()

	snap := s.GetStats()
	assert.NotZero(t, snap.FailedRuns)
	assert.NotZero(t, snap.SuccessfulRuns)
	assert.Contains(t, snap.LastErrorMessage, "backend unavailable")

	for _, task := range snap.Tasks {
		if task.Name == "bad" {
			assert.NotZero(t, task.ErrorCount)
			assert.Contains(t, task.LastError, "backend unavailable")
		}
	}
}

func TestTaskTimeoutCountsAsFailure(t *testing.T) {
	s := New(context.Background(), Config{}, nil, nil, nil)
	defer s.Close()

	s.RegisterTask(Task{
		Name:    "stuck",
		Rule:    Daily(3, 30),
		Timeout: 20 * time.Millisecond,
		Run: func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		},
	})

	require.NoError(t, s.ForceExecuteTask("stuck"))
	waitFor(t, 2*time.Second, func() bool { return s.GetStats().FailedRuns == 1 })
}

func TestTaskSwallowingTimeoutStillCountsAsFailure(t *testing.T) {
	s := New(context.Background(), Config{}, nil, nil, nil)
	defer s.Close()

	s.RegisterTask(Task{
		Name:    "swallower",
		Rule:    Daily(3, 30),
		Timeout: 10 * time.Millisecond,
		Run: func(ctx context.Context) error {
			<-ctx.Done()
			return nil // pretends everything is fine
		},
	})

	require.NoError(t, s.ForceExecuteTask("swallower"))
	waitFor(t, 2*time.Second, func() bool { return s.GetStats().FailedRuns == 1 })
	assert.Zero(t, s.GetStats().SuccessfulRuns)
}

func TestDefaultTasksRegistered(t *testing.T) {
	s := New(context.Background(), Config{
		PollInterval: time.Hour, // poll never fires during the test
	}, &fakeArchiver{}, &fakeCleanup{}, nil)

	s.Start()
	defer s.Close()

	snap := s.GetStats()
	names := make([]string, 0, len(snap.Tasks))
	for _, task := range snap.Tasks {
		names = append(names, task.Name)
	}
	assert.ElementsMatch(t, []string{TaskHourlyArchive, TaskDailyCleanup, TaskDeepCleanup}, names)

	// tasks come back sorted by name
	assert.Equal(t, []string{TaskDailyCleanup, TaskDeepCleanup, TaskHourlyArchive}, names)
}

func TestForceExecuteDefaultTaskReachesCollaborator(t *testing.T) {
	archiver := &fakeArchiver{}
	s := New(context.Background(), Config{PollInterval: time.Hour}, archiver, &fakeCleanup{}, nil)
	s.Start()
	defer s.Close()

	require.NoError(t, s.ForceExecuteTask(TaskHourlyArchive))
	waitFor(t, 2*time.Second, func() bool { return atomic.LoadInt64(&archiver.calls) == 1 })
}

func TestExecuteStartupCleanupDelegates(t *testing.T) {
	cl := &fakeCleanup{}
	s := New(context.Background(), Config{}, nil, cl, nil)
	require.NoError(t, s.ExecuteStartupCleanup(context.Background()))
	assert.Equal(t, int64(1), atomic.LoadInt64(&cl.startup))

	// without a cleanup manager the call is a no-op
	bare := New(context.Background(), Config{}, nil, nil, nil)
	require.NoError(t, bare.ExecuteStartupCleanup(context.Background()))
}

func TestRegisterTaskIgnoresInvalid(t *testing.T) {
	s := New(context.Background(), Config{}, nil, nil, nil)
	s.RegisterTask(Task{Name: "", Run: func(ctx context.Context) error { return nil }})
	s.RegisterTask(Task{Name: "no-body"})
	assert.Empty(t, s.GetStats().Tasks)
}

func TestTaskStatusRollsScheduleForward(t *testing.T) {
	s := New(context.Background(), Config{}, nil, nil, nil)
	defer s.Close()

	s.RegisterTask(Task{
		Name: "rolling",
		Rule: Daily(3, 30),
		Run:  func(ctx context.Context) error { return nil },
	})

	before := s.GetStats().Tasks[0]
	require.NoError(t, s.ForceExecuteTask("rolling"))
	waitFor(t, 2*time.Second, func() bool { return s.GetStats().Tasks[0].RunCount == 1 })

	after := s.GetStats().Tasks[0]
	assert.NotEmpty(t, after.LastRun)
	assert.False(t, after.Running)
	assert.Equal(t, before.NextRun, after.NextRun) // daily schedule unchanged by a forced run within the same day
}
