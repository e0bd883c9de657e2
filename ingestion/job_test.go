package ingestion

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestJob_WaitReturnsResult(t *testing.T) {
	job := newJob("run-1")
	boom := errors.New("boom")

	go job.complete(7, boom)

	n, err := job.Wait(context.Background())
	assert.Equal(t, 7, n)
	assert.ErrorIs(t, err, boom)
	assert.True(t, job.Accepted())
	assert.Equal(t, "run-1", job.ID())
}

func TestJob_WaitHonorsContext(t *testing.T) {
	job := newJob("run-1")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := job.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	select {
	case <-job.Done():
		t.Fatal("job should still be running")
	default:
	}
}

func TestRejectedJob(t *testing.T) {
	job := rejectedJob()

	assert.False(t, job.Accepted())
	assert.Empty(t, job.ID())
	n, err := job.Wait(context.Background())
	assert.Zero(t, n)
	assert.ErrorIs(t, err, ErrAlreadyRunning)
}
