package types

import "fmt"

// Probe parameter bounds.
const (
	MinPingCount       = 1
	MaxPingCount       = 10
	MinPingPackageSize = 8
	MaxPingPackageSize = 65500
	MinConnectCount    = 1
	MaxConnectCount    = 10
)

// Probe parameter defaults.
const (
	DefaultPingCount       = 3
	DefaultPingPackageSize = 56
	DefaultConnectCount    = 1
)

// AccessTypeData holds the probe parameters of one network task.
type AccessTypeData struct {
	NetworkTaskID   int64 `json:"network_task_id"`
	PingCount       int   `json:"ping_count"`
	PingPackageSize int   `json:"ping_package_size"`
	ConnectCount    int   `json:"connect_count"`
	StopOnSuccess   bool  `json:"stop_on_success"`
	IgnoreSSLError  bool  `json:"ignore_ssl_error"`
}

// DefaultAccessTypeData returns the default parameters for a task.
func DefaultAccessTypeData(taskID int64) *AccessTypeData {
	return &AccessTypeData{
		NetworkTaskID:   taskID,
		PingCount:       DefaultPingCount,
		PingPackageSize: DefaultPingPackageSize,
		ConnectCount:    DefaultConnectCount,
	}
}

// Validate checks all counts and sizes against their bounds.
func (d *AccessTypeData) Validate() error {
	if d.PingCount < MinPingCount || d.PingCount > MaxPingCount {
		return fmt.Errorf("%w: ping count %d not in %d..%d", ErrInvalidAccessTypeData, d.PingCount, MinPingCount, MaxPingCount)
	}
	if d.PingPackageSize < MinPingPackageSize || d.PingPackageSize > MaxPingPackageSize {
		return fmt.Errorf("%w: ping package size %d not in %d..%d", ErrInvalidAccessTypeData, d.PingPackageSize, MinPingPackageSize, MaxPingPackageSize)
	}
	if d.ConnectCount < MinConnectCount || d.ConnectCount > MaxConnectCount {
		return fmt.Errorf("%w: connect count %d not in %d..%d", ErrInvalidAccessTypeData, d.ConnectCount, MinConnectCount, MaxConnectCount)
	}
	return nil
}
