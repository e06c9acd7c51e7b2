// Package probe implements the ping, connect and download checks run for
// network tasks. A failed check is a Result with Success false, never an
// error.
package probe

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mesh-intelligence/keepitup/pkg/types"
)

// Result is the outcome of one probe.
type Result struct {
	Success  bool          `json:"success"`
	Message  string        `json:"message"`
	Duration time.Duration `json:"duration"`
	Bytes    int64         `json:"bytes,omitempty"`
}

// Prober checks a single network task.
type Prober interface {
	Probe(ctx context.Context, task *types.NetworkTask, data *types.AccessTypeData) Result
}

// ProberFunc adapts a function to Prober.
type ProberFunc func(ctx context.Context, task *types.NetworkTask, data *types.AccessTypeData) Result

func (f ProberFunc) Probe(ctx context.Context, task *types.NetworkTask, data *types.AccessTypeData) Result {
	return f(ctx, task, data)
}

// Registry maps access types to probers.
type Registry struct {
	mu      sync.RWMutex
	probers map[types.AccessType]Prober
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{probers: make(map[types.AccessType]Prober)}
}

// DefaultRegistry wires the system ping, TCP connect and HTTP download
// probers.
func DefaultRegistry(downloads *Downloader) *Registry {
	r := NewRegistry()
	r.Register(types.AccessTypePing, NewPinger())
	r.Register(types.AccessTypeConnect, NewConnector())
	r.Register(types.AccessTypeDownload, downloads)
	return r
}

// Register sets the prober for an access type.
func (r *Registry) Register(at types.AccessType, p Prober) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.probers[at] = p
}

// ForAccessType returns the prober for at.
func (r *Registry) ForAccessType(at types.AccessType) (Prober, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.probers[at]
	if !ok {
		return nil, fmt.Errorf("%w: no prober for %q", types.ErrInvalidAccessType, at)
	}
	return p, nil
}

// Probe runs the matching prober. A missing prober is a failed result. A nil
// data uses the defaults.
func (r *Registry) Probe(ctx context.Context, task *types.NetworkTask, data *types.AccessTypeData) Result {
	p, err := r.ForAccessType(task.AccessType)
	if err != nil {
		return Result{Message: err.Error()}
	}
	if data == nil {
		data = types.DefaultAccessTypeData(task.ID)
	}
	start := time.Now()
	res := p.Probe(ctx, task, data)
	if res.Duration == 0 {
		res.Duration = time.Since(start)
	}
	return res
}
