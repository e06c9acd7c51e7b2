package sqlite

import (
	"database/sql"
	"fmt"

	"github.com/mesh-intelligence/keepitup/pkg/types"
)

// Compile-time interface check.
var _ types.AccessTypeDataTable = (*accessTypeDataTable)(nil)

type accessTypeDataTable struct {
	backend *Backend
}

func scanAccessTypeData(s rowScanner) (*types.AccessTypeData, error) {
	var (
		d              types.AccessTypeData
		stopOnSuccess  int
		ignoreSSLError int
	)
	err := s.Scan(&d.NetworkTaskID, &d.PingCount, &d.PingPackageSize, &d.ConnectCount, &stopOnSuccess, &ignoreSSLError)
	if err != nil {
		return nil, err
	}
	d.StopOnSuccess = stopOnSuccess != 0
	d.IgnoreSSLError = ignoreSSLError != 0
	return &d, nil
}

func getAccessTypeData(q queryer, taskID int64) (*types.AccessTypeData, error) {
	d, err := scanAccessTypeData(q.QueryRow(
		`SELECT network_task_id, ping_count, ping_package_size, connect_count, stop_on_success, ignore_ssl_error
         FROM access_type_data WHERE network_task_id = ?`, taskID,
	))
	if err == sql.ErrNoRows {
		return types.DefaultAccessTypeData(taskID), nil
	}
	return d, err
}

// Get returns the stored parameters of the task, or the defaults when none
// were stored. Returns ErrNotFound when the task does not exist.
func (at *accessTypeDataTable) Get(taskID int64) (*types.AccessTypeData, error) {
	if taskID <= 0 {
		return nil, types.ErrInvalidID
	}
	var data *types.AccessTypeData
	err := at.backend.read(func(db *sql.DB) error {
		ok, err := taskExists(db, taskID)
		if err != nil {
			return err
		}
		if !ok {
			return types.ErrNotFound
		}
		data, err = getAccessTypeData(db, taskID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return data, nil
}

// Set validates and upserts the parameters of data.NetworkTaskID.
func (at *accessTypeDataTable) Set(data *types.AccessTypeData) error {
	if data == nil || data.NetworkTaskID <= 0 {
		return types.ErrInvalidID
	}
	if err := data.Validate(); err != nil {
		return err
	}
	return at.backend.write(func(tx *sql.Tx) error {
		ok, err := taskExists(tx, data.NetworkTaskID)
		if err != nil {
			return err
		}
		if !ok {
			return types.ErrNotFound
		}
		return setAccessTypeDataTx(tx, data)
	})
}

func setAccessTypeDataTx(tx *sql.Tx, d *types.AccessTypeData) error {
	_, err := tx.Exec(
		`INSERT INTO access_type_data (network_task_id, ping_count, ping_package_size, connect_count, stop_on_success, ignore_ssl_error)
         VALUES (?, ?, ?, ?, ?, ?)
         ON CONFLICT(network_task_id) DO UPDATE SET
            ping_count = excluded.ping_count,
            ping_package_size = excluded.ping_package_size,
            connect_count = excluded.connect_count,
            stop_on_success = excluded.stop_on_success,
            ignore_ssl_error = excluded.ignore_ssl_error`,
		d.NetworkTaskID, d.PingCount, d.PingPackageSize, d.ConnectCount,
		boolInt(d.StopOnSuccess), boolInt(d.IgnoreSSLError),
	)
	if err != nil {
		return fmt.Errorf("storing access type data of task %d: %w", d.NetworkTaskID, err)
	}
	return nil
}

func (at *accessTypeDataTable) Delete(taskID int64) error {
	if taskID <= 0 {
		return types.ErrInvalidID
	}
	return at.backend.write(func(tx *sql.Tx) error {
		_, err := tx.Exec("DELETE FROM access_type_data WHERE network_task_id = ?", taskID)
		return err
	})
}
