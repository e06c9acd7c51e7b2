package housekeeping

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/klauspost/compress/zip"

	"github.com/mesh-intelligence/keepitup/pkg/types"
)

// Housekeeper limits the rotated debug logs in Dir. The newest MaxFiles
// rotated logs stay as plain files, older ones are zipped one archive per
// file, and archives beyond MaxArchives are deleted oldest first.
type Housekeeper struct {
	mu          sync.Mutex
	dir         string
	maxFiles    int
	maxArchives int
}

// NewHousekeeper returns a housekeeper for dir. maxFiles below zero is
// treated as zero.
func NewHousekeeper(dir string, maxFiles, maxArchives int) *Housekeeper {
	return &Housekeeper{
		dir:         dir,
		maxFiles:    max(maxFiles, 0),
		maxArchives: maxArchives,
	}
}

// Report lists the files a run touched.
type Report struct {
	Archived []string `json:"archived"`
	Deleted  []string `json:"deleted"`
}

// Run performs one housekeeping pass. Concurrent runs are serialized.
// Failures on single files are collected and the pass continues.
func (h *Housekeeper) Run() (*Report, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	report := &Report{Archived: []string{}, Deleted: []string{}}
	entries, err := ListFiles(h.dir)
	if err != nil {
		return report, fmt.Errorf("listing %s: %w", h.dir, err)
	}

	var errs []error
	kept := 0
	for _, e := range entries {
		if e.Directory || !isRotatedLog(e.Name) {
			continue
		}
		if kept < h.maxFiles {
			kept++
			continue
		}
		archive, err := archiveFile(e)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		report.Archived = append(report.Archived, archive)
	}

	if h.maxArchives >= 0 {
		deleted, err := h.pruneArchives()
		report.Deleted = append(report.Deleted, deleted...)
		if err != nil {
			errs = append(errs, err)
		}
	}
	return report, errors.Join(errs...)
}

// pruneArchives deletes the oldest archives beyond maxArchives.
func (h *Housekeeper) pruneArchives() ([]string, error) {
	entries, err := ListFiles(h.dir)
	if err != nil {
		return nil, err
	}
	var (
		deleted []string
		errs    []error
		seen    int
	)
	for _, e := range entries {
		if e.Directory || !isLogArchive(e.Name) {
			continue
		}
		seen++
		if seen <= h.maxArchives {
			continue
		}
		if err := os.Remove(e.Path); err != nil {
			errs = append(errs, fmt.Errorf("deleting %s: %w", e.Name, err))
			continue
		}
		deleted = append(deleted, e.Path)
	}
	return deleted, errors.Join(errs...)
}

// archiveFile zips e into e.Path+".zip", keeping the modification time,
// and removes the original.
func archiveFile(e types.FileEntry) (string, error) {
	target := e.Path + ArchiveExt
	tmp := target + ".tmp"

	if err := writeZip(tmp, e); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("archiving %s: %w", e.Name, err)
	}
	if err := os.Rename(tmp, target); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("archiving %s: %w", e.Name, err)
	}
	if err := os.Chtimes(target, e.ModTime, e.ModTime); err != nil {
		return "", fmt.Errorf("archiving %s: %w", e.Name, err)
	}
	if err := os.Remove(e.Path); err != nil {
		return "", fmt.Errorf("removing %s: %w", e.Name, err)
	}
	return target, nil
}

func writeZip(path string, e types.FileEntry) error {
	src, err := os.Open(e.Path)
	if err != nil {
		return err
	}
	defer src.Close()

	info, err := src.Stat()
	if err != nil {
		return err
	}
	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}
	header.Name = filepath.Base(e.Path)
	header.Method = zip.Deflate

	out, err := os.Create(path)
	if err != nil {
		return err
	}
	zw := zip.NewWriter(out)
	w, err := zw.CreateHeader(header)
	if err == nil {
		_, err = io.Copy(w, src)
	}
	if closeErr := zw.Close(); err == nil {
		err = closeErr
	}
	if syncErr := out.Sync(); err == nil {
		err = syncErr
	}
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	return err
}
