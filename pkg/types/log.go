package types

import "time"

// LogEntry is a single probe result of a network task.
type LogEntry struct {
	ID            int64     `json:"id"`
	NetworkTaskID int64     `json:"network_task_id"`
	Success       bool      `json:"success"`
	Timestamp     time.Time `json:"timestamp"`
	Message       string    `json:"message"`
}

// SchedulerID is a history row of a handed out scheduler id.
type SchedulerID struct {
	ID          int64     `json:"id"`
	SchedulerID int       `json:"scheduler_id"`
	CreatedAt   time.Time `json:"created_at"`
}
