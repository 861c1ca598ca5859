package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/quantafolio/pkg/logger"
)

type fakeJob struct {
	name     string
	schedule string
	runs     int32
	failures int32 // number of leading runs that fail
	block    bool
}

func (j *fakeJob) Name() string     { return j.name }
func (j *fakeJob) Schedule() string { return j.schedule }

func (j *fakeJob) Run(ctx context.Context) error {
	n := atomic.AddInt32(&j.runs, 1)
	if j.block {
		<-ctx.Done()
		return ctx.Err()
	}
	if n <= atomic.LoadInt32(&j.failures) {
		return errors.New("boom")
	}
	return nil
}

func TestAddJob_Duplicate(t *testing.T) {
	s := New(logger.Nop())

	require.NoError(t, s.AddJob(&fakeJob{name: "a", schedule: "@every 1h"}))
	assert.Error(t, s.AddJob(&fakeJob{name: "a", schedule: "@every 1h"}))
	assert.ElementsMatch(t, []string{"a"}, s.GetAllJobs())
}

func TestAddJob_InvalidSchedule(t *testing.T) {
	s := New(logger.Nop())
	assert.Error(t, s.AddJob(&fakeJob{name: "bad", schedule: "not a schedule"}))
	assert.Empty(t, s.GetAllJobs())
}

func TestRemoveJob(t *testing.T) {
	s := New(logger.Nop())
	require.NoError(t, s.AddJob(&fakeJob{name: "a", schedule: "@every 1h"}))

	require.NoError(t, s.RemoveJob("a"))
	assert.Empty(t, s.GetAllJobs())
	assert.Empty(t, s.cron.Entries())
	assert.Error(t, s.RemoveJob("a"))
}

func TestRunJob_RecordsHistory(t *testing.T) {
	s := New(logger.Nop())
	job := &fakeJob{name: "a", schedule: "@every 1h", failures: 1}
	require.NoError(t, s.AddJob(job))

	first, err := s.RunJob("a")
	require.NoError(t, err)
	assert.False(t, first.Success)
	assert.Equal(t, "boom", first.Error)

	second, err := s.RunJob("a")
	require.NoError(t, err)
	assert.True(t, second.Success)

	history, err := s.GetJobHistory("a")
	require.NoError(t, err)
	assert.Len(t, history.Results, 2)

	stats := s.GetJobStats()["a"]
	assert.Equal(t, 2, stats.TotalRuns)
	assert.Equal(t, 1, stats.FailureCount)
	assert.InDelta(t, 0.5, stats.SuccessRate, 1e-9)
	require.NotNil(t, stats.LastSuccess)
	assert.Nil(t, stats.LastFailure)
}

func TestRunJob_Retry(t *testing.T) {
	s := New(logger.Nop()).WithRetry(2, time.Millisecond)
	job := &fakeJob{name: "a", schedule: "@every 1h", failures: 2}
	require.NoError(t, s.AddJob(job))

	result, err := s.RunJob("a")
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, int32(3), atomic.LoadInt32(&job.runs))
}

func TestRunJob_Unknown(t *testing.T) {
	_, err := New(logger.Nop()).RunJob("missing")
	assert.Error(t, err)
}

func TestRunJob_Timeout(t *testing.T) {
	s := New(logger.Nop()).WithJobTimeout(20 * time.Millisecond)
	require.NoError(t, s.AddJob(&fakeJob{name: "slow", schedule: "@every 1h", block: true}))

	result, err := s.RunJob("slow")
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "deadline")
}

func TestStartStop_RunsOnSchedule(t *testing.T) {
	s := New(logger.Nop())
	job := &fakeJob{name: "tick", schedule: "@every 1s"}
	require.NoError(t, s.AddJob(job))

	s.Start()
	assert.Eventually(t, func() bool {
		return atomic.LoadInt32(&job.runs) > 0
	}, 3*time.Second, 50*time.Millisecond)
	s.Stop()

	runs := atomic.LoadInt32(&job.runs)
	time.Sleep(1200 * time.Millisecond)
	assert.Equal(t, runs, atomic.LoadInt32(&job.runs))
}

func TestJobHistory_KeepsLast100(t *testing.T) {
	h := &JobHistory{}
	for i := 0; i < 150; i++ {
		h.AddResult(JobResult{JobName: "a", Success: i%2 == 0})
	}

	assert.Len(t, h.Results, 100)
	assert.Len(t, h.GetLatestResults(5), 5)
	assert.Len(t, h.GetLatestResults(500), 100)
	assert.InDelta(t, 0.5, h.GetSuccessRate(), 1e-9)
	assert.Len(t, h.GetFailedResults(), 50)
}
