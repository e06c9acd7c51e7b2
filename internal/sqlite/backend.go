// Package sqlite implements the SQLite storage backend for KeepItUp.
// Network tasks, their logs, probe parameters, scheduler id history and
// suspension intervals live in a single keepitup.db file in the data
// directory.
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/keepitup/pkg/types"
)

// DBFileName is the database file created in the data directory.
const DBFileName = "keepitup.db"

// dsnPragmas are appended to the database path when opening the connection.
// The verb takes the busy timeout in milliseconds.
const dsnPragmas = "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(%d)&_pragma=foreign_keys(1)&_pragma=synchronous(NORMAL)"

const defaultBusyTimeout = 5 * time.Second

// Compile-time interface check.
var _ types.Store = (*Backend)(nil)

// Backend implements types.Store on top of SQLite.
type Backend struct {
	mu       sync.RWMutex
	attached bool
	config   types.Config
	db       *sql.DB

	// int32N draws scheduler id candidates in [0, n).
	int32N      func(n int32) int32
	now         func() time.Time
	busyTimeout time.Duration
}

// Option customizes a Backend.
type Option func(*Backend)

// WithRandom replaces the random source used for scheduler ids.
func WithRandom(int32N func(n int32) int32) Option {
	return func(b *Backend) { b.int32N = int32N }
}

// WithClock replaces the clock used for history timestamps.
func WithClock(now func() time.Time) Option {
	return func(b *Backend) { b.now = now }
}

// WithBusyTimeout sets how long a statement waits on a lock held by another
// connection before SQLite reports the database as busy.
func WithBusyTimeout(d time.Duration) Option {
	return func(b *Backend) { b.busyTimeout = d }
}

// NewBackend creates a new SQLite backend instance.
// The backend is not attached; call Attach with a Config to initialize.
func NewBackend(opts ...Option) *Backend {
	b := &Backend{
		int32N:      rand.Int32N,
		now:         time.Now,
		busyTimeout: defaultBusyTimeout,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Attach opens keepitup.db in config.DataDir, creating the directory and
// the schema as needed. Returns ErrAlreadyAttached if already attached.
func (b *Backend) Attach(config types.Config) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.attached {
		return types.ErrAlreadyAttached
	}

	if err := config.Validate(); err != nil {
		return err
	}

	dataDir := config.DataDir
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}

	db, err := sql.Open("sqlite", filepath.Join(dataDir, DBFileName)+fmt.Sprintf(dsnPragmas, b.busyTimeout.Milliseconds()))
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}

	// SQLite doesn't handle multiple writers well.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := migrate(db); err != nil {
		db.Close()
		return fmt.Errorf("applying schema: %w", err)
	}

	b.db = db
	b.config = config
	b.attached = true
	return nil
}

// Detach closes the database. After Detach, all operations return
// ErrStoreDetached. Detach is idempotent.
func (b *Backend) Detach() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil
	}

	b.attached = false
	if b.db != nil {
		err := b.db.Close()
		b.db = nil
		return err
	}
	return nil
}

// Path returns the database file path of the attached backend.
func (b *Backend) Path() (string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.attached {
		return "", types.ErrStoreDetached
	}
	dataDir := b.config.DataDir
	if dataDir == "" {
		dataDir = "."
	}
	return filepath.Join(dataDir, DBFileName), nil
}

// SetLogMaxEntries changes the per task log cap applied on future inserts.
func (b *Backend) SetLogMaxEntries(n int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.config.LogMaxEntries = n
}

// Reset drops every table and recreates an empty schema. The scheduler id
// history is dropped too.
func (b *Backend) Reset() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return types.ErrStoreDetached
	}
	for _, table := range dropOrder {
		if err := dropTable(b.db, table); err != nil {
			return err
		}
	}
	if _, err := b.db.Exec("PRAGMA user_version = 0"); err != nil {
		return fmt.Errorf("resetting schema version: %w", err)
	}
	return migrate(b.db)
}

// Tasks returns the network task table.
func (b *Backend) Tasks() (types.TaskTable, error) {
	if err := b.checkAttached(); err != nil {
		return nil, err
	}
	return &tasksTable{backend: b}, nil
}

// Logs returns the log table.
func (b *Backend) Logs() (types.LogTable, error) {
	if err := b.checkAttached(); err != nil {
		return nil, err
	}
	return &logsTable{backend: b}, nil
}

// SchedulerIDs returns the scheduler id history table.
func (b *Backend) SchedulerIDs() (types.SchedulerIDTable, error) {
	if err := b.checkAttached(); err != nil {
		return nil, err
	}
	return &schedulerIDsTable{backend: b}, nil
}

// Intervals returns the suspension interval table.
func (b *Backend) Intervals() (types.IntervalTable, error) {
	if err := b.checkAttached(); err != nil {
		return nil, err
	}
	return &intervalsTable{backend: b}, nil
}

// AccessTypeData returns the probe parameter table.
func (b *Backend) AccessTypeData() (types.AccessTypeDataTable, error) {
	if err := b.checkAttached(); err != nil {
		return nil, err
	}
	return &accessTypeDataTable{backend: b}, nil
}

func (b *Backend) checkAttached() error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.attached {
		return types.ErrStoreDetached
	}
	return nil
}

// read runs fn against the database under the read lock.
func (b *Backend) read(fn func(db *sql.DB) error) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.attached {
		return types.ErrStoreDetached
	}
	return fn(b.db)
}

// write runs fn inside a transaction under the read lock. The single
// connection pool serializes concurrent transactions.
func (b *Backend) write(fn func(tx *sql.Tx) error) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.attached {
		return types.ErrStoreDetached
	}

	tx, err := b.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// nowUTC returns the backend clock in UTC.
func (b *Backend) nowUTC() time.Time {
	return b.now().UTC()
}

// notFound maps sql.ErrNoRows to types.ErrNotFound.
func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return types.ErrNotFound
	}
	return err
}
