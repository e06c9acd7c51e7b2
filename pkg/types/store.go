package types

import (
	"errors"
	"time"
)

// Store defines the interface for backend-agnostic access to KeepItUp data.
// Callers attach to a backend, access tables, and detach when done.
type Store interface {
	// Attach connects the Store to the backend described by config.
	// Creates the DataDir if it does not exist. Returns ErrAlreadyAttached
	// if called while already attached.
	Attach(config Config) error

	// Detach releases backend resources. Idempotent: multiple calls succeed.
	// After Detach, table accessors return ErrStoreDetached.
	Detach() error

	Tasks() (TaskTable, error)
	Logs() (LogTable, error)
	SchedulerIDs() (SchedulerIDTable, error)
	Intervals() (IntervalTable, error)
	AccessTypeData() (AccessTypeDataTable, error)
}

// TaskTable stores network tasks ordered by their Index.
type TaskTable interface {
	// Insert validates and stores a new task. It assigns the ID, the next
	// free Index and a never used scheduler id. The stored task is returned.
	Insert(task *NetworkTask) (*NetworkTask, error)

	// Update overwrites the editable fields of an existing task. Index and
	// SchedulerID are not changed.
	Update(task *NetworkTask) error

	// Get returns the task with the given ID or ErrNotFound.
	Get(id int64) (*NetworkTask, error)

	// List returns all tasks ordered by Index.
	List() ([]*NetworkTask, error)

	// Delete removes the task, its logs and its access type data, and
	// closes the gap in the index sequence.
	Delete(id int64) error

	// DeleteAll removes every task together with dependent rows.
	DeleteAll() error

	// SetRunning flips the running flag of a task. Starting a stopped task
	// assigns it a never used scheduler id.
	SetRunning(id int64, running bool) error

	// SetLastScheduled records when a task last ran.
	SetLastScheduled(id int64, at time.Time) error

	// Move places a task at newIndex, shifting the tasks in between.
	Move(id int64, newIndex int) error
}

// LogTable stores probe results with a bounded number of entries per task.
type LogTable interface {
	// Insert stores an entry and trims the task's log to the configured cap.
	Insert(entry *LogEntry) (*LogEntry, error)

	// List returns the newest entries of a task first. limit <= 0 means all.
	List(taskID int64, limit int) ([]*LogEntry, error)

	// Latest returns the newest entry of a task or ErrNotFound.
	Latest(taskID int64) (*LogEntry, error)

	// Count returns the number of entries stored for a task.
	Count(taskID int64) (int, error)

	DeleteForTask(taskID int64) error
	DeleteAll() error
}

// SchedulerIDTable hands out scheduler ids that are unique over the
// lifetime of the database.
type SchedulerIDTable interface {
	// Generate returns a fresh id and records it in the history.
	Generate() (int, error)

	// Exists reports whether the id was ever handed out.
	Exists(id int) (bool, error)

	// Count returns the number of ids handed out so far.
	Count() (int, error)
}

// IntervalTable stores suspension intervals. Stored intervals never overlap.
type IntervalTable interface {
	Insert(interval *Interval) (*Interval, error)
	Update(interval *Interval) error
	Get(id int64) (*Interval, error)

	// List returns all intervals ordered by start time.
	List() ([]*Interval, error)

	Delete(id int64) error
	DeleteAll() error
}

// AccessTypeDataTable stores the per task probe parameters.
type AccessTypeDataTable interface {
	// Get returns the stored data or the defaults when none is stored.
	Get(taskID int64) (*AccessTypeData, error)

	// Set validates and upserts the data for its task.
	Set(data *AccessTypeData) error

	Delete(taskID int64) error
}

// Store lifecycle errors.
var (
	ErrStoreDetached   = errors.New("store is detached")
	ErrAlreadyAttached = errors.New("store is already attached")
)

// Table operation errors.
var (
	ErrNotFound             = errors.New("entity not found")
	ErrInvalidID            = errors.New("invalid entity ID")
	ErrSchedulerIDExhausted = errors.New("no unused scheduler id found")
)

// Validation errors.
var (
	ErrInvalidAddress        = errors.New("invalid address")
	ErrInvalidPort           = errors.New("port must be between 0 and 65535")
	ErrInvalidInterval       = errors.New("invalid interval")
	ErrInvalidAccessType     = errors.New("invalid access type")
	ErrIntervalOverlap       = errors.New("interval overlaps an existing interval")
	ErrInvalidAccessTypeData = errors.New("invalid access type data")
	ErrInvalidPreferences    = errors.New("invalid preferences")
	ErrInvalidBackup         = errors.New("invalid backup document")
	ErrInvalidTime           = errors.New("invalid time of day")
)
