package scheduler

import (
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubJob struct {
	runs int
	err  error
}

func (s *stubJob) Run() error   { s.runs++; return s.err }
func (s *stubJob) Name() string { return "stub" }

func TestAddJob(t *testing.T) {
	sched := New(zerolog.Nop())

	require.NoError(t, sched.AddJob("0 0 7 * * MON", &stubJob{}))
	require.NoError(t, sched.AddJob("@hourly", &stubJob{}))

	err := sched.AddJob("not a cron expression", &stubJob{})
	assert.Error(t, err)
}

func TestRunNow(t *testing.T) {
	sched := New(zerolog.Nop())

	job := &stubJob{}
	require.NoError(t, sched.RunNow(job))
	assert.Equal(t, 1, job.runs)

	failing := &stubJob{err: fmt.Errorf("boom")}
	err := sched.RunNow(failing)
	assert.Error(t, err)
	assert.Equal(t, 1, failing.runs)
}

func TestBatchCollectJobName(t *testing.T) {
	job := NewBatchCollectJob(nil, zerolog.Nop())
	assert.Equal(t, "weekly-stockprice-batch", job.Name())
}
