package reconcile

import "github.com/MimeLyc/dvr-mirror/internal/state"

// DiffResult is the set difference between two snapshots.
type DiffResult struct {
	// NewJobs are keys present now but not before.
	NewJobs []state.JobKey
	// StoppedJobs are keys present before but not now.
	StoppedJobs []state.JobKey
}

func (d DiffResult) Empty() bool {
	return len(d.NewJobs) == 0 && len(d.StoppedJobs) == 0
}

// Diff computes current − previous and previous − current, each sorted.
func Diff(previous, current state.ActiveJobSet) DiffResult {
	var ret DiffResult
	for key := range current {
		if _, ok := previous[key]; !ok {
			ret.NewJobs = append(ret.NewJobs, key)
		}
	}
	for key := range previous {
		if _, ok := current[key]; !ok {
			ret.StoppedJobs = append(ret.StoppedJobs, key)
		}
	}
	state.SortKeys(ret.NewJobs)
	state.SortKeys(ret.StoppedJobs)
	return ret
}
