package sqlite

import (
	"database/sql"
	"fmt"

	"github.com/mesh-intelligence/keepitup/pkg/types"
)

// Compile-time interface check.
var _ types.IntervalTable = (*intervalsTable)(nil)

// intervalsTable implements types.IntervalTable. Inserts and updates run
// the overlap check against the stored set inside the write transaction.
type intervalsTable struct {
	backend *Backend
}

const intervalColumns = "id, start_hour, start_minute, end_hour, end_minute"

func scanInterval(s rowScanner) (*types.Interval, error) {
	var iv types.Interval
	if err := s.Scan(&iv.ID, &iv.Start.Hour, &iv.Start.Minute, &iv.End.Hour, &iv.End.Minute); err != nil {
		return nil, err
	}
	return &iv, nil
}

func listIntervals(q queryer) ([]*types.Interval, error) {
	rows, err := q.Query("SELECT " + intervalColumns + " FROM suspension_intervals ORDER BY start_hour, start_minute, id")
	if err != nil {
		return nil, fmt.Errorf("listing intervals: %w", err)
	}
	defer rows.Close()

	intervals := []*types.Interval{}
	for rows.Next() {
		iv, err := scanInterval(rows)
		if err != nil {
			return nil, err
		}
		intervals = append(intervals, iv)
	}
	return intervals, rows.Err()
}

// Insert validates the interval and stores it unless it overlaps a stored one.
func (it *intervalsTable) Insert(interval *types.Interval) (*types.Interval, error) {
	if interval == nil {
		return nil, types.ErrInvalidInterval
	}
	if err := interval.Validate(); err != nil {
		return nil, err
	}

	stored := *interval
	stored.ID = 0
	err := it.backend.write(func(tx *sql.Tx) error {
		id, err := insertIntervalTx(tx, &stored)
		if err != nil {
			return err
		}
		stored.ID = id
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &stored, nil
}

func insertIntervalTx(tx *sql.Tx, iv *types.Interval) (int64, error) {
	existing, err := listIntervals(tx)
	if err != nil {
		return 0, err
	}
	if err := types.CheckOverlap(existing, iv); err != nil {
		return 0, err
	}
	res, err := tx.Exec(
		"INSERT INTO suspension_intervals (start_hour, start_minute, end_hour, end_minute) VALUES (?, ?, ?, ?)",
		iv.Start.Hour, iv.Start.Minute, iv.End.Hour, iv.End.Minute,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting interval: %w", err)
	}
	return res.LastInsertId()
}

func (it *intervalsTable) Update(interval *types.Interval) error {
	if interval == nil || interval.ID <= 0 {
		return types.ErrInvalidID
	}
	if err := interval.Validate(); err != nil {
		return err
	}
	return it.backend.write(func(tx *sql.Tx) error {
		existing, err := listIntervals(tx)
		if err != nil {
			return err
		}
		found := false
		for _, e := range existing {
			if e.ID == interval.ID {
				found = true
				break
			}
		}
		if !found {
			return types.ErrNotFound
		}
		if err := types.CheckOverlap(existing, interval); err != nil {
			return err
		}
		_, err = tx.Exec(
			"UPDATE suspension_intervals SET start_hour = ?, start_minute = ?, end_hour = ?, end_minute = ? WHERE id = ?",
			interval.Start.Hour, interval.Start.Minute, interval.End.Hour, interval.End.Minute, interval.ID,
		)
		if err != nil {
			return fmt.Errorf("updating interval %d: %w", interval.ID, err)
		}
		return nil
	})
}

func (it *intervalsTable) Get(id int64) (*types.Interval, error) {
	if id <= 0 {
		return nil, types.ErrInvalidID
	}
	var iv *types.Interval
	err := it.backend.read(func(db *sql.DB) error {
		var err error
		iv, err = scanInterval(db.QueryRow("SELECT "+intervalColumns+" FROM suspension_intervals WHERE id = ?", id))
		return notFound(err)
	})
	if err != nil {
		return nil, err
	}
	return iv, nil
}

// List returns all intervals ordered by start time.
func (it *intervalsTable) List() ([]*types.Interval, error) {
	var intervals []*types.Interval
	err := it.backend.read(func(db *sql.DB) error {
		var err error
		intervals, err = listIntervals(db)
		return err
	})
	return intervals, err
}

func (it *intervalsTable) Delete(id int64) error {
	if id <= 0 {
		return types.ErrInvalidID
	}
	return it.backend.write(func(tx *sql.Tx) error {
		res, err := tx.Exec("DELETE FROM suspension_intervals WHERE id = ?", id)
		if err != nil {
			return fmt.Errorf("deleting interval %d: %w", id, err)
		}
		return requireAffected(res)
	})
}

func (it *intervalsTable) DeleteAll() error {
	return it.backend.write(func(tx *sql.Tx) error {
		_, err := tx.Exec("DELETE FROM suspension_intervals")
		return err
	})
}
