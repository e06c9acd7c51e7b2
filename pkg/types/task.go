package types

import (
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Interval bounds for network tasks, in minutes.
const (
	MinInterval = 1
	MaxInterval = 7 * 24 * 60
)

// NetworkTask is the persisted definition of a host probe with its
// schedule and notification settings. Index orders tasks for display;
// SchedulerID correlates the task with its armed timer.
type NetworkTask struct {
	ID            int64      `json:"id"`
	Index         int        `json:"index"`
	SchedulerID   int        `json:"scheduler_id"`
	Name          string     `json:"name"`
	Address       string     `json:"address"`
	Port          int        `json:"port"`
	AccessType    AccessType `json:"access_type"`
	Interval      int        `json:"interval"`
	Notification  bool       `json:"notification"`
	Running       bool       `json:"running"`
	LastScheduled time.Time  `json:"last_scheduled"`
}

// Validate checks the fields a user can edit. Download tasks need an
// absolute http(s) URL; the port is only checked for connect tasks.
func (t *NetworkTask) Validate() error {
	if !t.AccessType.IsValid() {
		return ErrInvalidAccessType
	}
	addr := strings.TrimSpace(t.Address)
	if addr == "" || strings.ContainsAny(addr, " \t\n") {
		return ErrInvalidAddress
	}
	if t.AccessType == AccessTypeDownload {
		u, err := url.Parse(addr)
		if err != nil || !u.IsAbs() || u.Host == "" {
			return ErrInvalidAddress
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return ErrInvalidAddress
		}
	}
	if t.AccessType.NeedsPort() && (t.Port < 0 || t.Port > 65535) {
		return ErrInvalidPort
	}
	if t.Interval < MinInterval || t.Interval > MaxInterval {
		return ErrInvalidInterval
	}
	return nil
}

// IntervalDuration returns the schedule interval as a duration.
func (t *NetworkTask) IntervalDuration() time.Duration {
	return time.Duration(t.Interval) * time.Minute
}

// DisplayName returns Name, falling back to the address.
func (t *NetworkTask) DisplayName() string {
	if t.Name != "" {
		return t.Name
	}
	return t.Address
}

// Target returns the address as probed, including the port for connect tasks.
func (t *NetworkTask) Target() string {
	if t.AccessType.NeedsPort() {
		return net.JoinHostPort(t.Address, strconv.Itoa(t.Port))
	}
	return t.Address
}
