package scheduler

import (
	"time"

	"github.com/mesh-intelligence/keepitup/pkg/types"
)

// NextRun returns when task runs next after a run at now. A candidate time
// inside a suspension interval moves to the end of that interval. Pass nil
// intervals when suspension is disabled.
func NextRun(task *types.NetworkTask, now time.Time, intervals []*types.Interval) time.Time {
	return deferSuspended(now.Add(task.IntervalDuration()), intervals)
}

// firstRun returns when a task that is already running should fire after a
// restart: one interval after its last run, or immediately when that time
// has passed.
func firstRun(task *types.NetworkTask, now time.Time, intervals []*types.Interval) time.Time {
	at := now
	if !task.LastScheduled.IsZero() {
		if due := task.LastScheduled.Add(task.IntervalDuration()); due.After(now) {
			at = due
		}
	}
	return deferSuspended(at, intervals)
}

// deferSuspended moves ts past every interval it falls into. Intervals that
// touch are walked one after another.
func deferSuspended(ts time.Time, intervals []*types.Interval) time.Time {
	for range len(intervals) {
		iv := types.ActiveInterval(intervals, ts)
		if iv == nil {
			break
		}
		ts = iv.NextEnd(ts)
	}
	return ts
}
