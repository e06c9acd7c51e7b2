package types

import (
	"fmt"
	"time"
)

// Notification types.
const (
	// NotificationFailure notifies on every failed run.
	NotificationFailure = "failure"
	// NotificationChange notifies only when the result flips.
	NotificationChange = "change"
)

// Preferences are the user settings read from config.yaml.
type Preferences struct {
	TaskDefaults TaskDefaults           `json:"task_defaults" yaml:"task_defaults" mapstructure:"task_defaults"`
	Log          LogPreferences          `json:"log" yaml:"log" mapstructure:"log"`
	Notification NotificationPreferences `json:"notification" yaml:"notification" mapstructure:"notification"`
	Suspension   SuspensionPreferences   `json:"suspension" yaml:"suspension" mapstructure:"suspension"`
	Download     DownloadPreferences     `json:"download" yaml:"download" mapstructure:"download"`
	FileLog      FileLogPreferences      `json:"file_log" yaml:"file_log" mapstructure:"file_log"`
	Watch        WatchPreferences        `json:"watch" yaml:"watch" mapstructure:"watch"`
}

// TaskDefaults seed newly created network tasks and their access type data.
type TaskDefaults struct {
	Address         string     `json:"address" yaml:"address" mapstructure:"address"`
	Port            int        `json:"port" yaml:"port" mapstructure:"port"`
	AccessType      AccessType `json:"access_type" yaml:"access_type" mapstructure:"access_type"`
	Interval        int        `json:"interval" yaml:"interval" mapstructure:"interval"`
	Notification    bool       `json:"notification" yaml:"notification" mapstructure:"notification"`
	PingCount       int        `json:"ping_count" yaml:"ping_count" mapstructure:"ping_count"`
	PingPackageSize int        `json:"ping_package_size" yaml:"ping_package_size" mapstructure:"ping_package_size"`
	ConnectCount    int        `json:"connect_count" yaml:"connect_count" mapstructure:"connect_count"`
	StopOnSuccess   bool       `json:"stop_on_success" yaml:"stop_on_success" mapstructure:"stop_on_success"`
	IgnoreSSLError  bool       `json:"ignore_ssl_error" yaml:"ignore_ssl_error" mapstructure:"ignore_ssl_error"`
}

// LogPreferences control log retention in the database.
type LogPreferences struct {
	MaxEntries int `json:"max_entries" yaml:"max_entries" mapstructure:"max_entries"`
}

// NotificationPreferences control when and where failures are reported.
type NotificationPreferences struct {
	Type    string `json:"type" yaml:"type" mapstructure:"type"`
	Webhook string `json:"webhook" yaml:"webhook" mapstructure:"webhook"`
}

// SuspensionPreferences switch suspension intervals on or off.
type SuspensionPreferences struct {
	Enabled bool `json:"enabled" yaml:"enabled" mapstructure:"enabled"`
}

// DownloadPreferences control where download probes store files.
type DownloadPreferences struct {
	Dir  string `json:"dir" yaml:"dir" mapstructure:"dir"`
	Keep bool   `json:"keep" yaml:"keep" mapstructure:"keep"`
}

// FileLogPreferences configure the rotating debug log file.
type FileLogPreferences struct {
	Enabled      bool   `json:"enabled" yaml:"enabled" mapstructure:"enabled"`
	Dir          string `json:"dir" yaml:"dir" mapstructure:"dir"`
	MaxSize      int64  `json:"max_size" yaml:"max_size" mapstructure:"max_size"`
	MaxFiles     int    `json:"max_files" yaml:"max_files" mapstructure:"max_files"`
	ArchiveFiles int    `json:"archive_files" yaml:"archive_files" mapstructure:"archive_files"`
}

// WatchPreferences configure the terminal dashboard.
type WatchPreferences struct {
	Refresh time.Duration `json:"refresh" yaml:"refresh" mapstructure:"refresh"`
}

// Preference defaults.
const (
	DefaultAddress        = "192.168.178.1"
	DefaultPort           = 22
	DefaultTaskInterval   = 15
	DefaultLogMaxEntries  = 100
	DefaultFileLogMaxSize = 1 << 20
	DefaultFileLogFiles   = 5
	DefaultArchiveFiles   = 10
	DefaultWatchRefresh   = 5 * time.Second
)

// DefaultPreferences returns the settings used when config.yaml is missing
// or omits a key.
func DefaultPreferences() Preferences {
	return Preferences{
		TaskDefaults: TaskDefaults{
			Address:         DefaultAddress,
			Port:            DefaultPort,
			AccessType:      AccessTypePing,
			Interval:        DefaultTaskInterval,
			Notification:    false,
			PingCount:       DefaultPingCount,
			PingPackageSize: DefaultPingPackageSize,
			ConnectCount:    DefaultConnectCount,
		},
		Log:          LogPreferences{MaxEntries: DefaultLogMaxEntries},
		Notification: NotificationPreferences{Type: NotificationFailure},
		Suspension:   SuspensionPreferences{Enabled: true},
		Download:     DownloadPreferences{},
		FileLog: FileLogPreferences{
			MaxSize:      DefaultFileLogMaxSize,
			MaxFiles:     DefaultFileLogFiles,
			ArchiveFiles: DefaultArchiveFiles,
		},
		Watch: WatchPreferences{Refresh: DefaultWatchRefresh},
	}
}

// NewTask returns a task filled with the configured defaults.
func (p *Preferences) NewTask() *NetworkTask {
	d := p.TaskDefaults
	return &NetworkTask{
		Address:      d.Address,
		Port:         d.Port,
		AccessType:   d.AccessType,
		Interval:     d.Interval,
		Notification: d.Notification,
	}
}

// NewAccessTypeData returns probe parameters filled with the configured defaults.
func (p *Preferences) NewAccessTypeData(taskID int64) *AccessTypeData {
	d := p.TaskDefaults
	return &AccessTypeData{
		NetworkTaskID:   taskID,
		PingCount:       d.PingCount,
		PingPackageSize: d.PingPackageSize,
		ConnectCount:    d.ConnectCount,
		StopOnSuccess:   d.StopOnSuccess,
		IgnoreSSLError:  d.IgnoreSSLError,
	}
}

// Validate checks every section. Errors wrap ErrInvalidPreferences.
func (p *Preferences) Validate() error {
	if err := p.NewTask().Validate(); err != nil {
		return fmt.Errorf("%w: task defaults: %w", ErrInvalidPreferences, err)
	}
	if err := p.NewAccessTypeData(0).Validate(); err != nil {
		return fmt.Errorf("%w: task defaults: %w", ErrInvalidPreferences, err)
	}
	if p.Log.MaxEntries < 0 {
		return fmt.Errorf("%w: log.max_entries must not be negative", ErrInvalidPreferences)
	}
	switch p.Notification.Type {
	case NotificationFailure, NotificationChange:
	default:
		return fmt.Errorf("%w: unknown notification type %q", ErrInvalidPreferences, p.Notification.Type)
	}
	if p.FileLog.MaxSize <= 0 {
		return fmt.Errorf("%w: file_log.max_size must be positive", ErrInvalidPreferences)
	}
	if p.FileLog.MaxFiles < 1 {
		return fmt.Errorf("%w: file_log.max_files must be at least 1", ErrInvalidPreferences)
	}
	if p.FileLog.ArchiveFiles < 0 {
		return fmt.Errorf("%w: file_log.archive_files must not be negative", ErrInvalidPreferences)
	}
	if p.Watch.Refresh < time.Second {
		return fmt.Errorf("%w: watch.refresh must be at least 1s", ErrInvalidPreferences)
	}
	return nil
}
