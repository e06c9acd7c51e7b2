package sqlite

import (
	"database/sql"
	"fmt"
	"math"

	"github.com/mesh-intelligence/keepitup/pkg/types"
)

// maxSchedulerIDRetries bounds the number of random draws per id.
const maxSchedulerIDRetries = 100

// Compile-time interface check.
var _ types.SchedulerIDTable = (*schedulerIDsTable)(nil)

// schedulerIDsTable is the history of scheduler ids ever handed out.
// Rows are never deleted while the database exists.
type schedulerIDsTable struct {
	backend *Backend
}

// Generate draws and records a new id.
func (st *schedulerIDsTable) Generate() (int, error) {
	var id int
	err := st.backend.write(func(tx *sql.Tx) error {
		var err error
		id, err = st.backend.generateSchedulerIDTx(tx)
		return err
	})
	return id, err
}

// generateSchedulerIDTx draws random positive ids until one is not in the
// history, records it and returns it.
func (b *Backend) generateSchedulerIDTx(tx *sql.Tx) (int, error) {
	for range maxSchedulerIDRetries {
		candidate := int(b.int32N(math.MaxInt32-1)) + 1

		var one int
		err := tx.QueryRow("SELECT 1 FROM scheduler_ids WHERE scheduler_id = ?", candidate).Scan(&one)
		if err == nil {
			continue
		}
		if err != sql.ErrNoRows {
			return 0, fmt.Errorf("checking scheduler id: %w", err)
		}

		if _, err := tx.Exec(
			"INSERT INTO scheduler_ids (scheduler_id, created_at) VALUES (?, ?)",
			candidate, formatTime(b.nowUTC()),
		); err != nil {
			return 0, fmt.Errorf("recording scheduler id: %w", err)
		}
		return candidate, nil
	}
	return 0, types.ErrSchedulerIDExhausted
}

func (st *schedulerIDsTable) Exists(id int) (bool, error) {
	var exists bool
	err := st.backend.read(func(db *sql.DB) error {
		var one int
		err := db.QueryRow("SELECT 1 FROM scheduler_ids WHERE scheduler_id = ?", id).Scan(&one)
		switch {
		case err == sql.ErrNoRows:
			return nil
		case err != nil:
			return fmt.Errorf("checking scheduler id: %w", err)
		}
		exists = true
		return nil
	})
	return exists, err
}

func (st *schedulerIDsTable) Count() (int, error) {
	var n int
	err := st.backend.read(func(db *sql.DB) error {
		return db.QueryRow("SELECT COUNT(*) FROM scheduler_ids").Scan(&n)
	})
	return n, err
}
