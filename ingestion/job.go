package ingestion

import "context"

// Job is the handle returned by Pipeline.Start.
type Job struct {
	id        string
	accepted  bool
	done      chan struct{}
	processed int
	err       error
}

func newJob(id string) *Job {
	return &Job{
		id:       id,
		accepted: true,
		done:     make(chan struct{}),
	}
}

// rejectedJob is already complete and yields zero.
func rejectedJob() *Job {
	j := &Job{done: make(chan struct{}), err: ErrAlreadyRunning}
	close(j.done)
	return j
}

func (j *Job) complete(processed int, err error) {
	j.processed = processed
	j.err = err
	close(j.done)
}

// ID returns the run id, or "" for a rejected trigger.
func (j *Job) ID() string {
	return j.id
}

// Accepted reports whether the trigger started a run.
func (j *Job) Accepted() bool {
	return j.accepted
}

// Done is closed when the run finishes.
func (j *Job) Done() <-chan struct{} {
	return j.done
}

// Wait blocks until the run finishes or ctx is done, returning the number
// of chunks committed and the error that aborted the run, if any.
// Cancelling ctx stops the wait, not the run.
func (j *Job) Wait(ctx context.Context) (int, error) {
	select {
	case <-j.done:
		return j.processed, j.err
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}
