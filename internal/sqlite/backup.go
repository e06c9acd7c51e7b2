package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"

	"github.com/mesh-intelligence/keepitup/pkg/types"
)

// ImportSummary reports what Import stored.
type ImportSummary struct {
	Tasks       int                `json:"tasks"`
	Logs        int                `json:"logs"`
	Intervals   int                `json:"intervals"`
	Preferences *types.Preferences `json:"preferences,omitempty"`
}

// Snapshot reads the whole database into a backup document. prefs is
// embedded as is and may be nil.
func (b *Backend) Snapshot(prefs *types.Preferences) (*types.Backup, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generating export id: %w", err)
	}
	doc := &types.Backup{
		Version:     types.BackupVersion,
		ExportID:    id.String(),
		ExportedAt:  b.nowUTC(),
		Tasks:       []types.BackupTask{},
		Preferences: prefs,
	}

	err = b.read(func(db *sql.DB) error {
		tasks, err := listTasks(db)
		if err != nil {
			return err
		}
		for _, t := range tasks {
			data, err := getAccessTypeData(db, t.ID)
			if err != nil {
				return err
			}
			logs, err := listLogs(db, t.ID, -1)
			if err != nil {
				return err
			}
			doc.Tasks = append(doc.Tasks, types.BackupTask{Task: t, AccessTypeData: data, Logs: logs})
		}
		doc.Intervals, err = listIntervals(db)
		return err
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// Export writes the database as an indented JSON document to w.
func (b *Backend) Export(w io.Writer, prefs *types.Preferences) error {
	doc, err := b.Snapshot(prefs)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encoding backup: %w", err)
	}
	return nil
}

// ExportFile writes the export document to path atomically.
func (b *Backend) ExportFile(path string, prefs *types.Preferences) error {
	return writeFileAtomic(path, func(w io.Writer) error {
		return b.Export(w, prefs)
	})
}

// Import reads a backup document and stores its content in one
// transaction. With purge, existing tasks and intervals are removed first;
// the scheduler id history is kept. Imported tasks get fresh IDs, appended
// indexes and fresh scheduler ids, and are stored as not running. Log
// retention applies to imported logs.
func (b *Backend) Import(r io.Reader, purge bool) (*ImportSummary, error) {
	var doc types.Backup
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %w", types.ErrInvalidBackup, err)
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}

	summary := &ImportSummary{Preferences: doc.Preferences}
	err := b.write(func(tx *sql.Tx) error {
		if purge {
			for _, stmt := range []string{"DELETE FROM network_tasks", "DELETE FROM suspension_intervals"} {
				if _, err := tx.Exec(stmt); err != nil {
					return fmt.Errorf("purging: %w", err)
				}
			}
		}

		for _, bt := range doc.Tasks {
			task := *bt.Task
			task.Running = false
			stored, err := b.insertTaskTx(tx, &task)
			if err != nil {
				return err
			}

			data := types.DefaultAccessTypeData(stored.ID)
			if bt.AccessTypeData != nil {
				data = new(types.AccessTypeData)
				*data = *bt.AccessTypeData
				data.NetworkTaskID = stored.ID
			}
			if err := setAccessTypeDataTx(tx, data); err != nil {
				return err
			}

			inserted := 0
			for _, e := range bt.Logs {
				if e == nil {
					continue
				}
				entry := *e
				entry.NetworkTaskID = stored.ID
				if entry.Timestamp.IsZero() {
					entry.Timestamp = b.nowUTC()
				}
				if _, err := insertLogTx(tx, &entry); err != nil {
					return err
				}
				inserted++
			}
			if err := trimLogsTx(tx, stored.ID, b.config.LogMaxEntries); err != nil {
				return err
			}
			if limit := b.config.LogMaxEntries; limit > 0 {
				inserted = min(inserted, limit)
			}
			summary.Logs += inserted
			summary.Tasks++
		}

		for _, iv := range doc.Intervals {
			entry := *iv
			entry.ID = 0
			if _, err := insertIntervalTx(tx, &entry); err != nil {
				return err
			}
			summary.Intervals++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return summary, nil
}

// ImportFile opens path and imports it.
func (b *Backend) ImportFile(path string, purge bool) (*ImportSummary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return b.Import(f, purge)
}
