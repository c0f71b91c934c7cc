// Package reconcile mirrors the primary system's active jobs onto the recorder.
package reconcile

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MimeLyc/dvr-mirror/internal/metrics"
	"github.com/MimeLyc/dvr-mirror/internal/recorder"
	"github.com/MimeLyc/dvr-mirror/internal/state"
	"github.com/MimeLyc/dvr-mirror/pkg/log"
)

// JobSource snapshots the primary system. An error means no snapshot was
// taken, which is different from an empty snapshot.
type JobSource interface {
	ListActiveJobs(ctx context.Context) (state.ActiveJobSet, error)
}

// Recorder applies start and stop actions. Implementations check the live
// recorder status before acting, which makes repeated calls safe.
type Recorder interface {
	StartRecording(ctx context.Context, basename, logicalName string) recorder.Outcome
	StopRecording(ctx context.Context, basename, logicalName string) recorder.Outcome
}

// CycleResult summarizes one reconciliation cycle.
type CycleResult struct {
	ID         string        `json:"id"`
	StartedAt  time.Time     `json:"started_at"`
	Duration   time.Duration `json:"duration"`
	Started    int           `json:"started"`
	Stopped    int           `json:"stopped"`
	ActiveJobs int           `json:"active_jobs"`
	Error      string        `json:"error,omitempty"`
}

// Engine reconciles the recorder against the primary one cycle at a time.
type Engine struct {
	source   JobSource
	recorder Recorder
	holder   *state.Holder
	metrics  *metrics.Metrics
	now      func() time.Time

	mu   sync.RWMutex
	last *CycleResult
}

// Option configures an Engine.
type Option func(*Engine)

// WithMetrics records cycle results and the active job gauge on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// WithClock replaces time.Now for cycle timestamps and durations.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// NewEngine builds an engine over holder. The holder's loaded state is the
// previous snapshot for the first cycle.
func NewEngine(source JobSource, rec Recorder, holder *state.Holder, opts ...Option) *Engine {
	e := &Engine{
		source:   source,
		recorder: rec,
		holder:   holder,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.metrics.SetActiveJobs(len(holder.Read()))
	return e
}

// RunCycle performs one fetch, diff, act and persist pass. Failures are logged
// and never returned; a failed fetch leaves the stored state untouched.
func (e *Engine) RunCycle(ctx context.Context) {
	result := CycleResult{
		ID:        uuid.NewString(),
		StartedAt: e.now(),
	}
	defer func() {
		result.Duration = e.now().Sub(result.StartedAt)
		e.record(result)
	}()

	current, err := e.source.ListActiveJobs(ctx)
	if err != nil {
		log.Error("[cycle %s] Failed to fetch active jobs, keeping previous state: %v", result.ID, err)
		result.Error = err.Error()
		result.ActiveJobs = len(e.holder.Read())
		e.metrics.ObserveCycle(metrics.CycleFetchFailed, e.now().Sub(result.StartedAt))
		return
	}

	e.holder.ApplyCycle(ctx, current, func(previous state.ActiveJobSet) {
		diff := Diff(previous, current)
		if !diff.Empty() {
			log.Info("[cycle %s] %d new jobs, %d stopped jobs", result.ID, len(diff.NewJobs), len(diff.StoppedJobs))
		}

		for _, key := range diff.NewJobs {
			rec := current[key]
			log.Info("[cycle %s] New job %s on ingest %s (%s): %s",
				result.ID, key.JobID, key.IngestID, rec.LogicalName, rec.Basename)
			if e.recorder.StartRecording(ctx, rec.Basename, rec.LogicalName) == recorder.OutcomeStarted {
				result.Started++
			}
		}

		for _, key := range diff.StoppedJobs {
			rec := previous[key]
			log.Info("[cycle %s] Job %s on ingest %s (%s) is no longer active",
				result.ID, key.JobID, key.IngestID, rec.LogicalName)
			if e.recorder.StopRecording(ctx, rec.Basename, rec.LogicalName) == recorder.OutcomeStopped {
				result.Stopped++
			}
		}
	})

	result.ActiveJobs = len(current)
	e.metrics.SetActiveJobs(len(current))
	e.metrics.ObserveCycle(metrics.CycleOK, e.now().Sub(result.StartedAt))
}

// LastCycle returns the most recent cycle result, if any cycle has run.
func (e *Engine) LastCycle() (CycleResult, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.last == nil {
		return CycleResult{}, false
	}
	return *e.last, true
}

// Snapshot returns the state as of the last completed cycle.
func (e *Engine) Snapshot() state.ActiveJobSet {
	return e.holder.Read()
}

func (e *Engine) record(result CycleResult) {
	e.mu.Lock()
	e.last = &result
	e.mu.Unlock()
}
