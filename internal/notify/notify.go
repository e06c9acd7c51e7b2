// Package notify delivers probe failure and state change events to
// registered senders.
package notify

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Event describes the outcome of a probe that warrants a notification.
type Event struct {
	ID        string    `json:"id"`
	TaskID    int64     `json:"task_id"`
	TaskName  string    `json:"task_name"`
	Address   string    `json:"address"`
	Success   bool      `json:"success"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// NewEvent fills ID with a UUID v7.
func NewEvent(taskID int64, name, address string, success bool, message string, ts time.Time) *Event {
	return &Event{
		ID:        uuid.Must(uuid.NewV7()).String(),
		TaskID:    taskID,
		TaskName:  name,
		Address:   address,
		Success:   success,
		Message:   message,
		Timestamp: ts,
	}
}

// Title returns a one line summary of the event.
func (e *Event) Title() string {
	if e.Success {
		return e.TaskName + " is reachable again"
	}
	return e.TaskName + " is not reachable"
}

// Sender is the interface for notification senders.
type Sender interface {
	// Send delivers the event. Returns an error if delivery failed.
	Send(ctx context.Context, event *Event) error

	// Name identifies the sender in logs and for Unregister.
	Name() string
}

// Notifier is what the scheduler depends on.
type Notifier interface {
	Dispatch(ctx context.Context, event *Event)
}
