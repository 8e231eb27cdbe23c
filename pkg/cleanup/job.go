package cleanup

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// PipelineFactory builds a pipeline from the configuration current at the
// time of the call.
type PipelineFactory func() (*Pipeline, error)

// Job serializes pipeline runs triggered by the scheduler and the HTTP
// endpoint. A run started while another is in flight is rejected.
type Job struct {
	factory PipelineFactory
	mu      sync.Mutex
	running atomic.Bool

	lastMu     sync.RWMutex
	lastReport *Report
	lastErr    error
	lastRun    time.Time
}

// NewJob creates a job over factory.
func NewJob(factory PipelineFactory) *Job {
	return &Job{factory: factory}
}

// Run executes one pipeline run, or returns ErrRunInProgress.
func (j *Job) Run(ctx context.Context) (*Report, error) {
	if !j.mu.TryLock() {
		return nil, ErrRunInProgress
	}
	defer j.mu.Unlock()
	j.running.Store(true)
	defer j.running.Store(false)

	p, err := j.factory()
	if err != nil {
		j.record(nil, err)
		return nil, err
	}

	report, err := p.Run(ctx)
	j.record(report, err)
	return report, err
}

func (j *Job) record(report *Report, err error) {
	j.lastMu.Lock()
	defer j.lastMu.Unlock()
	j.lastReport, j.lastErr, j.lastRun = report, err, time.Now()
}

// Running reports whether a run is in flight.
func (j *Job) Running() bool {
	return j.running.Load()
}

// Last returns the most recent report, when it finished, and its error. A run
// whose pipeline could not be built has a nil report and a non-nil error.
func (j *Job) Last() (*Report, time.Time, error) {
	j.lastMu.RLock()
	defer j.lastMu.RUnlock()
	return j.lastReport, j.lastRun, j.lastErr
}
