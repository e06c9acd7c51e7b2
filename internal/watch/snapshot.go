package watch

import (
	"context"
	"errors"
	"time"

	"github.com/mesh-intelligence/keepitup/pkg/types"
)

// Row is one task line of the dashboard.
type Row struct {
	Task *types.NetworkTask
	Last *types.LogEntry
}

// NextRun estimates the next run of a running task from its last run.
// Zero when the task is stopped or never ran.
func (r Row) NextRun() time.Time {
	if !r.Task.Running || r.Task.LastScheduled.IsZero() {
		return time.Time{}
	}
	return r.Task.LastScheduled.Add(r.Task.IntervalDuration())
}

// Snapshot is the dashboard state read from the store.
type Snapshot struct {
	Rows    []Row
	TakenAt time.Time
}

// StoreLoader reads every task with its newest log entry.
func StoreLoader(store types.Store) func(ctx context.Context) (Snapshot, error) {
	return func(ctx context.Context) (Snapshot, error) {
		tasks, err := store.Tasks()
		if err != nil {
			return Snapshot{}, err
		}
		logs, err := store.Logs()
		if err != nil {
			return Snapshot{}, err
		}
		list, err := tasks.List()
		if err != nil {
			return Snapshot{}, err
		}

		snap := Snapshot{Rows: make([]Row, 0, len(list)), TakenAt: time.Now()}
		for _, task := range list {
			if err := ctx.Err(); err != nil {
				return Snapshot{}, err
			}
			last, err := logs.Latest(task.ID)
			if err != nil && !errors.Is(err, types.ErrNotFound) {
				return Snapshot{}, err
			}
			snap.Rows = append(snap.Rows, Row{Task: task, Last: last})
		}
		return snap, nil
	}
}
