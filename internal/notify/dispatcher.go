package notify

import (
	"context"
	"sync"
	"time"

	"github.com/mesh-intelligence/keepitup/internal/logging"
)

// DefaultSendTimeout bounds a single Send call.
const DefaultSendTimeout = 30 * time.Second

// Compile-time interface check.
var _ Notifier = (*Dispatcher)(nil)

// Dispatcher routes events to registered senders.
type Dispatcher struct {
	senders []Sender
	mu      sync.RWMutex
	async   bool
	timeout time.Duration
	wg      sync.WaitGroup
}

// NewDispatcher creates a new notification dispatcher.
// If async is true, notifications are sent in goroutines; Wait blocks until
// they are done.
func NewDispatcher(async bool) *Dispatcher {
	return &Dispatcher{
		senders: make([]Sender, 0),
		async:   async,
		timeout: DefaultSendTimeout,
	}
}

// SetTimeout changes the per send timeout.
func (d *Dispatcher) SetTimeout(timeout time.Duration) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.timeout = timeout
}

// Register adds a sender to the dispatcher.
func (d *Dispatcher) Register(sender Sender) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.senders = append(d.senders, sender)
}

// Unregister removes a sender from the dispatcher by name.
func (d *Dispatcher) Unregister(name string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	filtered := make([]Sender, 0, len(d.senders))
	for _, s := range d.senders {
		if s.Name() != name {
			filtered = append(filtered, s)
		}
	}
	d.senders = filtered
}

// Senders returns a copy of the registered senders.
func (d *Dispatcher) Senders() []Sender {
	d.mu.RLock()
	defer d.mu.RUnlock()

	result := make([]Sender, len(d.senders))
	copy(result, d.senders)
	return result
}

// Dispatch sends an event to all registered senders.
func (d *Dispatcher) Dispatch(ctx context.Context, event *Event) {
	d.mu.RLock()
	senders := make([]Sender, len(d.senders))
	copy(senders, d.senders)
	timeout := d.timeout
	d.mu.RUnlock()

	for _, sender := range senders {
		if d.async {
			d.wg.Add(1)
			go func() {
				defer d.wg.Done()
				d.sendWithRecover(ctx, sender, event, timeout)
			}()
			continue
		}
		d.sendWithRecover(ctx, sender, event, timeout)
	}
}

// Wait blocks until all asynchronous sends have returned.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// sendWithRecover sends an event and recovers from panics.
func (d *Dispatcher) sendWithRecover(ctx context.Context, sender Sender, event *Event, timeout time.Duration) {
	log := logging.L().With("sender", sender.Name(), "event", event.ID)
	defer func() {
		if r := recover(); r != nil {
			log.Error("notify: sender panicked", "panic", r)
		}
	}()

	sendCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := sender.Send(sendCtx, event); err != nil {
		log.Warn("notify: send failed", "error", err)
	}
}
