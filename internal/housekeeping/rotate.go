package housekeeping

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"
)

// rotatedLayout is embedded in rotated file names and sorts lexically.
const rotatedLayout = "20060102-150405.000"

// RotatingFile is an io.Writer appending to keepitup.log in Dir. When a
// write would grow the file beyond MaxSize the file is renamed to
// keepitup-<timestamp>.log and a fresh one is started.
type RotatingFile struct {
	mu      sync.Mutex
	dir     string
	maxSize int64
	file    *os.File
	size    int64

	now      func() time.Time
	onRotate func()

	// hooks wakes the goroutine running onRotate. Rotations that happen
	// while a run is pending coalesce into one run.
	hooks       chan struct{}
	hooksDone   chan struct{}
	hooksClosed bool
}

// RotateOption customizes a RotatingFile.
type RotateOption func(*RotatingFile)

// WithRotateClock replaces the clock used for rotated file names.
func WithRotateClock(now func() time.Time) RotateOption {
	return func(r *RotatingFile) { r.now = now }
}

// WithOnRotate registers fn to run after rotations on a goroutine of its
// own, so fn may log through a logger writing into the file. Typically fn
// runs a Housekeeper.
func WithOnRotate(fn func()) RotateOption {
	return func(r *RotatingFile) { r.onRotate = fn }
}

// NewRotatingFile opens or creates dir/keepitup.log for appending.
func NewRotatingFile(dir string, maxSize int64, opts ...RotateOption) (*RotatingFile, error) {
	if maxSize <= 0 {
		return nil, fmt.Errorf("max size must be positive, got %d", maxSize)
	}
	r := &RotatingFile{dir: dir, maxSize: maxSize, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating log dir: %w", err)
	}
	if err := r.open(); err != nil {
		return nil, err
	}
	if r.onRotate != nil {
		r.hooks = make(chan struct{}, 1)
		r.hooksDone = make(chan struct{})
		go r.runHooks()
	}
	return r, nil
}

func (r *RotatingFile) runHooks() {
	defer close(r.hooksDone)
	for range r.hooks {
		r.onRotate()
	}
}

// signalRotateLocked schedules an onRotate run.
func (r *RotatingFile) signalRotateLocked() {
	if r.hooks == nil || r.hooksClosed {
		return
	}
	select {
	case r.hooks <- struct{}{}:
	default:
	}
}

// Path returns the current log file path.
func (r *RotatingFile) Path() string {
	return filepath.Join(r.dir, CurrentLog)
}

func (r *RotatingFile) open() error {
	f, err := os.OpenFile(r.Path(), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return fmt.Errorf("stat log file: %w", err)
	}
	r.file = f
	r.size = info.Size()
	return nil
}

// Write appends p, rotating first when p would exceed the size limit. A
// single write larger than the limit goes into a fresh file on its own.
func (r *RotatingFile) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.file == nil {
		return 0, os.ErrClosed
	}
	if r.size > 0 && r.size+int64(len(p)) > r.maxSize {
		if err := r.rotateLocked(); err != nil {
			return 0, err
		}
		r.signalRotateLocked()
	}
	n, err := r.file.Write(p)
	r.size += int64(n)
	return n, err
}

// Rotate forces a rotation of a non-empty log file.
func (r *RotatingFile) Rotate() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.file == nil {
		return os.ErrClosed
	}
	if r.size == 0 {
		return nil
	}
	if err := r.rotateLocked(); err != nil {
		return err
	}
	r.signalRotateLocked()
	return nil
}

func (r *RotatingFile) rotateLocked() error {
	if err := r.file.Close(); err != nil {
		return fmt.Errorf("closing log file: %w", err)
	}
	r.file = nil

	target := r.rotatedName(r.now())
	if err := os.Rename(r.Path(), target); err != nil {
		// Keep logging into the old file rather than losing output.
		if openErr := r.open(); openErr != nil {
			return openErr
		}
		return fmt.Errorf("rotating log file: %w", err)
	}
	return r.open()
}

// rotatedName returns a free keepitup-<timestamp>.log path.
func (r *RotatingFile) rotatedName(ts time.Time) string {
	stamp := ts.UTC().Format(rotatedLayout)
	name := filepath.Join(r.dir, rotatedPrefix+stamp+LogExt)
	for i := 1; fileExists(name); i++ {
		name = filepath.Join(r.dir, rotatedPrefix+stamp+"-"+strconv.Itoa(i)+LogExt)
	}
	return name
}

// Close waits for a pending onRotate run and closes the current file.
// Later writes return os.ErrClosed.
func (r *RotatingFile) Close() error {
	r.mu.Lock()
	wait := r.hooks != nil && !r.hooksClosed
	if wait {
		r.hooksClosed = true
		close(r.hooks)
	}
	r.mu.Unlock()
	if wait {
		<-r.hooksDone
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.file == nil {
		return nil
	}
	err := r.file.Close()
	r.file = nil
	return err
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
