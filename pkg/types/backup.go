package types

import (
	"fmt"
	"time"
)

// BackupVersion is the current export document version.
const BackupVersion = 1

// Backup is the JSON document written by export and read by import.
type Backup struct {
	Version     int          `json:"version"`
	ExportID    string       `json:"export_id"`
	ExportedAt  time.Time    `json:"exported_at"`
	Tasks       []BackupTask `json:"tasks"`
	Intervals   []*Interval  `json:"intervals"`
	Preferences *Preferences `json:"preferences,omitempty"`
}

// BackupTask bundles a task with its dependent rows.
type BackupTask struct {
	Task           *NetworkTask    `json:"task"`
	AccessTypeData *AccessTypeData `json:"access_type_data,omitempty"`
	Logs           []*LogEntry     `json:"logs"`
}

// Validate checks the version and every contained entity. Intervals are
// checked against each other for overlap.
func (b *Backup) Validate() error {
	if b.Version < 1 || b.Version > BackupVersion {
		return fmt.Errorf("%w: unsupported version %d", ErrInvalidBackup, b.Version)
	}
	for i, bt := range b.Tasks {
		if bt.Task == nil {
			return fmt.Errorf("%w: task %d is empty", ErrInvalidBackup, i)
		}
		if err := bt.Task.Validate(); err != nil {
			return fmt.Errorf("%w: task %d: %w", ErrInvalidBackup, i, err)
		}
		if bt.AccessTypeData != nil {
			if err := bt.AccessTypeData.Validate(); err != nil {
				return fmt.Errorf("%w: task %d: %w", ErrInvalidBackup, i, err)
			}
		}
	}
	for i, iv := range b.Intervals {
		if iv == nil {
			return fmt.Errorf("%w: interval %d is empty", ErrInvalidBackup, i)
		}
		if err := iv.Validate(); err != nil {
			return fmt.Errorf("%w: interval %d: %w", ErrInvalidBackup, i, err)
		}
		for _, prev := range b.Intervals[:i] {
			if prev.Overlaps(iv) {
				return fmt.Errorf("%w: interval %s overlaps %s", ErrInvalidBackup, iv, prev)
			}
		}
	}
	if b.Preferences != nil {
		if err := b.Preferences.Validate(); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidBackup, err)
		}
	}
	return nil
}
