// Package housekeeping rotates the debug log file, archives old rotations
// and lists log and download files.
package housekeeping

import (
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/mesh-intelligence/keepitup/pkg/types"
)

// File naming of the debug log.
const (
	LogBaseName   = "keepitup"
	LogExt        = ".log"
	ArchiveExt    = ".zip"
	CurrentLog    = LogBaseName + LogExt
	rotatedPrefix = LogBaseName + "-"
)

// ListFiles returns the entries of dir, newest first. Entries with equal
// modification times are ordered by name, descending. A missing directory
// yields an empty list.
func ListFiles(dir string) ([]types.FileEntry, error) {
	dirEntries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return []types.FileEntry{}, nil
	}
	if err != nil {
		return nil, err
	}

	entries := make([]types.FileEntry, 0, len(dirEntries))
	for _, de := range dirEntries {
		info, err := de.Info()
		if err != nil {
			// Removed between ReadDir and Info.
			continue
		}
		entries = append(entries, types.FileEntry{
			Name:      de.Name(),
			Path:      filepath.Join(dir, de.Name()),
			Size:      info.Size(),
			ModTime:   info.ModTime(),
			Directory: de.IsDir(),
			Archive:   strings.HasSuffix(de.Name(), ArchiveExt),
		})
	}
	sortNewestFirst(entries)
	return entries, nil
}

func sortNewestFirst(entries []types.FileEntry) {
	slices.SortStableFunc(entries, func(a, b types.FileEntry) int {
		if c := b.ModTime.Compare(a.ModTime); c != 0 {
			return c
		}
		return strings.Compare(b.Name, a.Name)
	})
}

func isRotatedLog(name string) bool {
	return strings.HasPrefix(name, rotatedPrefix) && strings.HasSuffix(name, LogExt)
}

func isLogArchive(name string) bool {
	return strings.HasPrefix(name, rotatedPrefix) && strings.HasSuffix(name, LogExt+ArchiveExt)
}
