package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	msqlite "modernc.org/sqlite"
	sqlitelib "modernc.org/sqlite/lib"
)

// schemaVersion is stored in PRAGMA user_version.
const schemaVersion = 1

// Schema DDL for all tables.
const (
	createNetworkTasks = `CREATE TABLE IF NOT EXISTS network_tasks (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    task_index INTEGER NOT NULL,
    scheduler_id INTEGER NOT NULL UNIQUE,
    name TEXT NOT NULL DEFAULT '',
    address TEXT NOT NULL,
    port INTEGER NOT NULL DEFAULT 0,
    access_type TEXT NOT NULL,
    interval_minutes INTEGER NOT NULL,
    notification INTEGER NOT NULL DEFAULT 0,
    running INTEGER NOT NULL DEFAULT 0,
    last_scheduled TEXT
);`

	createLogs = `CREATE TABLE IF NOT EXISTS logs (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    network_task_id INTEGER NOT NULL,
    success INTEGER NOT NULL,
    timestamp TEXT NOT NULL,
    message TEXT NOT NULL DEFAULT '',
    FOREIGN KEY (network_task_id) REFERENCES network_tasks(id) ON DELETE CASCADE
);`

	createSchedulerIDs = `CREATE TABLE IF NOT EXISTS scheduler_ids (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    scheduler_id INTEGER NOT NULL UNIQUE,
    created_at TEXT NOT NULL
);`

	createSuspensionIntervals = `CREATE TABLE IF NOT EXISTS suspension_intervals (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    start_hour INTEGER NOT NULL,
    start_minute INTEGER NOT NULL,
    end_hour INTEGER NOT NULL,
    end_minute INTEGER NOT NULL
);`

	createAccessTypeData = `CREATE TABLE IF NOT EXISTS access_type_data (
    network_task_id INTEGER PRIMARY KEY,
    ping_count INTEGER NOT NULL,
    ping_package_size INTEGER NOT NULL,
    connect_count INTEGER NOT NULL,
    stop_on_success INTEGER NOT NULL DEFAULT 0,
    ignore_ssl_error INTEGER NOT NULL DEFAULT 0,
    FOREIGN KEY (network_task_id) REFERENCES network_tasks(id) ON DELETE CASCADE
);`
)

// Index DDL.
const (
	indexTasksIndex = `CREATE INDEX IF NOT EXISTS idx_network_tasks_index ON network_tasks(task_index);`
	indexLogsTask   = `CREATE INDEX IF NOT EXISTS idx_logs_task_timestamp ON logs(network_task_id, timestamp DESC, id DESC);`
)

var schemaStatements = []string{
	createNetworkTasks,
	createLogs,
	createSchedulerIDs,
	createSuspensionIntervals,
	createAccessTypeData,
	indexTasksIndex,
	indexLogsTask,
}

// dropOrder lists tables children first.
var dropOrder = []string{
	"access_type_data",
	"logs",
	"network_tasks",
	"scheduler_ids",
	"suspension_intervals",
}

// Drop retry parameters.
const (
	dropRetries    = 3
	dropRetryPause = 100 * time.Millisecond
)

// timeLayout is a fixed width UTC layout so stored timestamps sort
// lexically in time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// migrate creates missing tables and records the schema version. A database
// written by a newer release is rejected.
func migrate(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("reading schema version: %w", err)
	}
	if version > schemaVersion {
		return fmt.Errorf("database schema version %d is newer than supported version %d", version, schemaVersion)
	}
	for _, stmt := range schemaStatements {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	if version < schemaVersion {
		if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", schemaVersion)); err != nil {
			return fmt.Errorf("writing schema version: %w", err)
		}
	}
	return nil
}

// dropTable drops a table, retrying while SQLite reports the database as
// busy or locked.
func dropTable(db *sql.DB, table string) error {
	var err error
	for attempt := range dropRetries {
		if attempt > 0 {
			time.Sleep(dropRetryPause)
		}
		_, err = db.Exec("DROP TABLE IF EXISTS " + table)
		if err == nil || !isBusy(err) {
			break
		}
	}
	if err != nil {
		return fmt.Errorf("dropping %s: %w", table, err)
	}
	return nil
}

// isBusy reports whether err is SQLITE_BUSY or SQLITE_LOCKED.
func isBusy(err error) bool {
	var se *msqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	switch se.Code() & 0xff {
	case sqlitelib.SQLITE_BUSY, sqlitelib.SQLITE_LOCKED:
		return true
	}
	return false
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(timeLayout, s)
}

// nullTime stores the zero time as NULL.
func nullTime(t time.Time) sql.NullString {
	if t.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(t), Valid: true}
}

func boolInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
