package sqlite

import (
	"database/sql"
	"fmt"

	"github.com/mesh-intelligence/keepitup/pkg/types"
)

// Compile-time interface check.
var _ types.LogTable = (*logsTable)(nil)

// logsTable implements types.LogTable. Each insert trims the task's log to
// the configured LogMaxEntries.
type logsTable struct {
	backend *Backend
}

const logColumns = "id, network_task_id, success, timestamp, message"

func scanLog(s rowScanner) (*types.LogEntry, error) {
	var (
		e       types.LogEntry
		success int
		ts      string
	)
	if err := s.Scan(&e.ID, &e.NetworkTaskID, &success, &ts, &e.Message); err != nil {
		return nil, err
	}
	e.Success = success != 0
	parsed, err := parseTime(ts)
	if err != nil {
		return nil, fmt.Errorf("parsing timestamp of log %d: %w", e.ID, err)
	}
	e.Timestamp = parsed
	return &e, nil
}

// Insert stores the entry. A zero Timestamp is set to the current time.
func (lt *logsTable) Insert(entry *types.LogEntry) (*types.LogEntry, error) {
	if entry == nil || entry.NetworkTaskID <= 0 {
		return nil, types.ErrInvalidID
	}
	stored := *entry
	if stored.Timestamp.IsZero() {
		stored.Timestamp = lt.backend.nowUTC()
	}

	err := lt.backend.write(func(tx *sql.Tx) error {
		ok, err := taskExists(tx, stored.NetworkTaskID)
		if err != nil {
			return err
		}
		if !ok {
			return types.ErrNotFound
		}
		id, err := insertLogTx(tx, &stored)
		if err != nil {
			return err
		}
		stored.ID = id
		return trimLogsTx(tx, stored.NetworkTaskID, lt.backend.config.LogMaxEntries)
	})
	if err != nil {
		return nil, err
	}
	return &stored, nil
}

func insertLogTx(tx *sql.Tx, e *types.LogEntry) (int64, error) {
	res, err := tx.Exec(
		"INSERT INTO logs (network_task_id, success, timestamp, message) VALUES (?, ?, ?, ?)",
		e.NetworkTaskID, boolInt(e.Success), formatTime(e.Timestamp), e.Message,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting log entry: %w", err)
	}
	return res.LastInsertId()
}

// trimLogsTx deletes every entry of the task except the newest maxEntries.
// maxEntries <= 0 keeps everything.
func trimLogsTx(tx *sql.Tx, taskID int64, maxEntries int) error {
	if maxEntries <= 0 {
		return nil
	}
	_, err := tx.Exec(
		`DELETE FROM logs WHERE id IN (
            SELECT id FROM logs WHERE network_task_id = ?
            ORDER BY timestamp DESC, id DESC LIMIT -1 OFFSET ?)`,
		taskID, maxEntries,
	)
	if err != nil {
		return fmt.Errorf("trimming logs of task %d: %w", taskID, err)
	}
	return nil
}

// List returns the newest entries first. limit <= 0 returns all entries.
func (lt *logsTable) List(taskID int64, limit int) ([]*types.LogEntry, error) {
	if taskID <= 0 {
		return nil, types.ErrInvalidID
	}
	if limit <= 0 {
		limit = -1
	}
	var entries []*types.LogEntry
	err := lt.backend.read(func(db *sql.DB) error {
		var err error
		entries, err = listLogs(db, taskID, limit)
		return err
	})
	return entries, err
}

func listLogs(q queryer, taskID int64, limit int) ([]*types.LogEntry, error) {
	rows, err := q.Query(
		"SELECT "+logColumns+" FROM logs WHERE network_task_id = ? ORDER BY timestamp DESC, id DESC LIMIT ?",
		taskID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing logs of task %d: %w", taskID, err)
	}
	defer rows.Close()

	entries := []*types.LogEntry{}
	for rows.Next() {
		e, err := scanLog(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (lt *logsTable) Latest(taskID int64) (*types.LogEntry, error) {
	if taskID <= 0 {
		return nil, types.ErrInvalidID
	}
	var entry *types.LogEntry
	err := lt.backend.read(func(db *sql.DB) error {
		var err error
		entry, err = scanLog(db.QueryRow(
			"SELECT "+logColumns+" FROM logs WHERE network_task_id = ? ORDER BY timestamp DESC, id DESC LIMIT 1",
			taskID,
		))
		return notFound(err)
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

func (lt *logsTable) Count(taskID int64) (int, error) {
	var n int
	err := lt.backend.read(func(db *sql.DB) error {
		return db.QueryRow("SELECT COUNT(*) FROM logs WHERE network_task_id = ?", taskID).Scan(&n)
	})
	return n, err
}

func (lt *logsTable) DeleteForTask(taskID int64) error {
	if taskID <= 0 {
		return types.ErrInvalidID
	}
	return lt.backend.write(func(tx *sql.Tx) error {
		_, err := tx.Exec("DELETE FROM logs WHERE network_task_id = ?", taskID)
		return err
	})
}

func (lt *logsTable) DeleteAll() error {
	return lt.backend.write(func(tx *sql.Tx) error {
		_, err := tx.Exec("DELETE FROM logs")
		return err
	})
}
