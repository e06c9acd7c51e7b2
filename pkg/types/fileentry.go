package types

import "time"

// FileEntry describes a file in the log or download directory.
type FileEntry struct {
	Name      string    `json:"name"`
	Path      string    `json:"path"`
	Size      int64     `json:"size"`
	ModTime   time.Time `json:"mod_time"`
	Directory bool      `json:"directory"`
	Archive   bool      `json:"archive"`
}
