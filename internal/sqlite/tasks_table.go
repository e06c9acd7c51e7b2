package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/mesh-intelligence/keepitup/pkg/types"
)

// Compile-time interface check.
var _ types.TaskTable = (*tasksTable)(nil)

// tasksTable implements types.TaskTable. Indexes stay dense 0..n-1 across
// insert, move and delete.
type tasksTable struct {
	backend *Backend
}

const taskColumns = `id, task_index, scheduler_id, name, address, port, access_type,
    interval_minutes, notification, running, last_scheduled`

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(s rowScanner) (*types.NetworkTask, error) {
	var (
		t             types.NetworkTask
		accessType    string
		notification  int
		running       int
		lastScheduled sql.NullString
	)
	err := s.Scan(&t.ID, &t.Index, &t.SchedulerID, &t.Name, &t.Address, &t.Port, &accessType,
		&t.Interval, &notification, &running, &lastScheduled)
	if err != nil {
		return nil, err
	}
	t.AccessType = types.AccessType(accessType)
	t.Notification = notification != 0
	t.Running = running != 0
	if lastScheduled.Valid {
		ts, err := parseTime(lastScheduled.String)
		if err != nil {
			return nil, fmt.Errorf("parsing last_scheduled of task %d: %w", t.ID, err)
		}
		t.LastScheduled = ts
	}
	return &t, nil
}

// Insert validates the task and stores it at the end of the list with a
// fresh scheduler id.
func (tt *tasksTable) Insert(task *types.NetworkTask) (*types.NetworkTask, error) {
	if task == nil {
		return nil, types.ErrInvalidID
	}
	if err := task.Validate(); err != nil {
		return nil, err
	}

	var stored *types.NetworkTask
	err := tt.backend.write(func(tx *sql.Tx) error {
		var err error
		stored, err = tt.backend.insertTaskTx(tx, task)
		return err
	})
	if err != nil {
		return nil, err
	}
	return stored, nil
}

// insertTaskTx appends a copy of task within tx. ID, Index and SchedulerID
// of the input are ignored.
func (b *Backend) insertTaskTx(tx *sql.Tx, task *types.NetworkTask) (*types.NetworkTask, error) {
	var next int
	if err := tx.QueryRow("SELECT COALESCE(MAX(task_index) + 1, 0) FROM network_tasks").Scan(&next); err != nil {
		return nil, fmt.Errorf("reading next task index: %w", err)
	}
	schedulerID, err := b.generateSchedulerIDTx(tx)
	if err != nil {
		return nil, err
	}

	res, err := tx.Exec(
		`INSERT INTO network_tasks (task_index, scheduler_id, name, address, port, access_type,
            interval_minutes, notification, running, last_scheduled)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		next, schedulerID, task.Name, task.Address, task.Port, string(task.AccessType),
		task.Interval, boolInt(task.Notification), boolInt(task.Running), nullTime(task.LastScheduled),
	)
	if err != nil {
		return nil, fmt.Errorf("inserting task: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("reading task id: %w", err)
	}

	stored := *task
	stored.ID = id
	stored.Index = next
	stored.SchedulerID = schedulerID
	return &stored, nil
}

// Update overwrites name, address, port, access type, interval and the
// notification flag.
func (tt *tasksTable) Update(task *types.NetworkTask) error {
	if task == nil || task.ID <= 0 {
		return types.ErrInvalidID
	}
	if err := task.Validate(); err != nil {
		return err
	}
	return tt.backend.write(func(tx *sql.Tx) error {
		res, err := tx.Exec(
			`UPDATE network_tasks SET name = ?, address = ?, port = ?, access_type = ?,
                interval_minutes = ?, notification = ? WHERE id = ?`,
			task.Name, task.Address, task.Port, string(task.AccessType),
			task.Interval, boolInt(task.Notification), task.ID,
		)
		if err != nil {
			return fmt.Errorf("updating task %d: %w", task.ID, err)
		}
		return requireAffected(res)
	})
}

// Get returns the task with the given ID.
func (tt *tasksTable) Get(id int64) (*types.NetworkTask, error) {
	if id <= 0 {
		return nil, types.ErrInvalidID
	}
	var task *types.NetworkTask
	err := tt.backend.read(func(db *sql.DB) error {
		var err error
		task, err = scanTask(db.QueryRow("SELECT "+taskColumns+" FROM network_tasks WHERE id = ?", id))
		return notFound(err)
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

// List returns every task ordered by Index.
func (tt *tasksTable) List() ([]*types.NetworkTask, error) {
	var tasks []*types.NetworkTask
	err := tt.backend.read(func(db *sql.DB) error {
		var err error
		tasks, err = listTasks(db)
		return err
	})
	return tasks, err
}

// queryer is satisfied by *sql.DB and *sql.Tx.
type queryer interface {
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

func listTasks(q queryer) ([]*types.NetworkTask, error) {
	rows, err := q.Query("SELECT " + taskColumns + " FROM network_tasks ORDER BY task_index, id")
	if err != nil {
		return nil, fmt.Errorf("listing tasks: %w", err)
	}
	defer rows.Close()

	tasks := []*types.NetworkTask{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning task: %w", err)
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// Delete removes the task and its dependent rows. Following tasks move up
// by one index.
func (tt *tasksTable) Delete(id int64) error {
	if id <= 0 {
		return types.ErrInvalidID
	}
	return tt.backend.write(func(tx *sql.Tx) error {
		var index int
		err := tx.QueryRow("SELECT task_index FROM network_tasks WHERE id = ?", id).Scan(&index)
		if err != nil {
			return notFound(err)
		}
		if _, err := tx.Exec("DELETE FROM network_tasks WHERE id = ?", id); err != nil {
			return fmt.Errorf("deleting task %d: %w", id, err)
		}
		if _, err := tx.Exec("UPDATE network_tasks SET task_index = task_index - 1 WHERE task_index > ?", index); err != nil {
			return fmt.Errorf("compacting task indexes: %w", err)
		}
		return nil
	})
}

// DeleteAll removes every task. Logs and access type data cascade.
func (tt *tasksTable) DeleteAll() error {
	return tt.backend.write(func(tx *sql.Tx) error {
		_, err := tx.Exec("DELETE FROM network_tasks")
		return err
	})
}

// SetRunning flips the running flag. Starting a stopped task draws a fresh
// scheduler id, so timers armed for the earlier run no longer match.
func (tt *tasksTable) SetRunning(id int64, running bool) error {
	if id <= 0 {
		return types.ErrInvalidID
	}
	return tt.backend.write(func(tx *sql.Tx) error {
		var current int
		if err := tx.QueryRow("SELECT running FROM network_tasks WHERE id = ?", id).Scan(&current); err != nil {
			return notFound(err)
		}
		if !running || current != 0 {
			_, err := tx.Exec("UPDATE network_tasks SET running = ? WHERE id = ?", boolInt(running), id)
			if err != nil {
				return fmt.Errorf("updating running flag of task %d: %w", id, err)
			}
			return nil
		}

		schedulerID, err := tt.backend.generateSchedulerIDTx(tx)
		if err != nil {
			return err
		}
		_, err = tx.Exec("UPDATE network_tasks SET running = 1, scheduler_id = ? WHERE id = ?", schedulerID, id)
		if err != nil {
			return fmt.Errorf("starting task %d: %w", id, err)
		}
		return nil
	})
}

func (tt *tasksTable) SetLastScheduled(id int64, at time.Time) error {
	if id <= 0 {
		return types.ErrInvalidID
	}
	return tt.backend.write(func(tx *sql.Tx) error {
		res, err := tx.Exec("UPDATE network_tasks SET last_scheduled = ? WHERE id = ?", nullTime(at), id)
		if err != nil {
			return fmt.Errorf("updating last run of task %d: %w", id, err)
		}
		return requireAffected(res)
	})
}

// Move places the task at newIndex. Indexes outside 0..n-1 are clamped.
func (tt *tasksTable) Move(id int64, newIndex int) error {
	if id <= 0 {
		return types.ErrInvalidID
	}
	return tt.backend.write(func(tx *sql.Tx) error {
		var oldIndex, count int
		if err := tx.QueryRow("SELECT task_index FROM network_tasks WHERE id = ?", id).Scan(&oldIndex); err != nil {
			return notFound(err)
		}
		if err := tx.QueryRow("SELECT COUNT(*) FROM network_tasks").Scan(&count); err != nil {
			return fmt.Errorf("counting tasks: %w", err)
		}
		newIndex = max(0, min(newIndex, count-1))
		if newIndex == oldIndex {
			return nil
		}

		var err error
		if newIndex > oldIndex {
			_, err = tx.Exec("UPDATE network_tasks SET task_index = task_index - 1 WHERE task_index > ? AND task_index <= ?", oldIndex, newIndex)
		} else {
			_, err = tx.Exec("UPDATE network_tasks SET task_index = task_index + 1 WHERE task_index >= ? AND task_index < ?", newIndex, oldIndex)
		}
		if err != nil {
			return fmt.Errorf("shifting task indexes: %w", err)
		}
		if _, err := tx.Exec("UPDATE network_tasks SET task_index = ? WHERE id = ?", newIndex, id); err != nil {
			return fmt.Errorf("moving task %d: %w", id, err)
		}
		return nil
	})
}

// requireAffected returns ErrNotFound when res touched no rows.
func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return types.ErrNotFound
	}
	return nil
}

// taskExists reports whether the task row exists.
func taskExists(q queryer, id int64) (bool, error) {
	var one int
	err := q.QueryRow("SELECT 1 FROM network_tasks WHERE id = ?", id).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking task %d: %w", id, err)
	}
	return true, nil
}
