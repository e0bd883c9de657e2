package ingestion

import "time"

// Status is a snapshot of the pipeline's job state. Snapshots are never
// modified after they are published.
type Status struct {
	Running        bool `json:"running"`
	ProcessedCount int  `json:"processedCount"`
	TotalCount     int  `json:"totalCount"`
	ChangedCount   int  `json:"changedCount"`

	RunID         string    `json:"runId,omitempty"`
	StartedAt     time.Time `json:"startedAt,omitzero"`
	FinishedAt    time.Time `json:"finishedAt,omitzero"`
	FailedBatches int       `json:"failedBatches"`
}

// Status returns the most recent snapshot, whether or not a run is active.
func (p *Pipeline) Status() Status {
	return *p.state.Load()
}

// publish replaces the snapshot with a modified copy. Only the goroutine
// holding the run lock calls it.
func (p *Pipeline) publish(mutate func(*Status)) {
	next := *p.state.Load()
	mutate(&next)
	p.state.Store(&next)
}
