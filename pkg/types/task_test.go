package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNetworkTaskValidate(t *testing.T) {
	tests := []struct {
		name    string
		task    NetworkTask
		wantErr error
	}{
		{
			name: "valid ping task",
			task: NetworkTask{Address: "192.168.1.1", AccessType: AccessTypePing, Interval: 15},
		},
		{
			name: "valid connect task",
			task: NetworkTask{Address: "example.com", Port: 443, AccessType: AccessTypeConnect, Interval: 1},
		},
		{
			name: "valid download task",
			task: NetworkTask{Address: "https://example.com/file.bin", AccessType: AccessTypeDownload, Interval: 60},
		},
		{
			name:    "empty address",
			task:    NetworkTask{Address: "  ", AccessType: AccessTypePing, Interval: 15},
			wantErr: ErrInvalidAddress,
		},
		{
			name:    "address with whitespace",
			task:    NetworkTask{Address: "exa mple.com", AccessType: AccessTypePing, Interval: 15},
			wantErr: ErrInvalidAddress,
		},
		{
			name:    "download needs absolute url",
			task:    NetworkTask{Address: "example.com/file", AccessType: AccessTypeDownload, Interval: 15},
			wantErr: ErrInvalidAddress,
		},
		{
			name:    "download rejects ftp",
			task:    NetworkTask{Address: "ftp://example.com/file", AccessType: AccessTypeDownload, Interval: 15},
			wantErr: ErrInvalidAddress,
		},
		{
			name:    "connect port too large",
			task:    NetworkTask{Address: "example.com", Port: 65536, AccessType: AccessTypeConnect, Interval: 15},
			wantErr: ErrInvalidPort,
		},
		{
			name:    "connect port negative",
			task:    NetworkTask{Address: "example.com", Port: -1, AccessType: AccessTypeConnect, Interval: 15},
			wantErr: ErrInvalidPort,
		},
		{
			name: "ping ignores port",
			task: NetworkTask{Address: "example.com", Port: 70000, AccessType: AccessTypePing, Interval: 15},
		},
		{
			name:    "interval below minimum",
			task:    NetworkTask{Address: "example.com", AccessType: AccessTypePing, Interval: 0},
			wantErr: ErrInvalidInterval,
		},
		{
			name:    "interval above maximum",
			task:    NetworkTask{Address: "example.com", AccessType: AccessTypePing, Interval: MaxInterval + 1},
			wantErr: ErrInvalidInterval,
		},
		{
			name:    "unknown access type",
			task:    NetworkTask{Address: "example.com", AccessType: "telnet", Interval: 15},
			wantErr: ErrInvalidAccessType,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.task.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestNetworkTaskHelpers(t *testing.T) {
	task := &NetworkTask{Address: "::1", Port: 8080, AccessType: AccessTypeConnect, Interval: 15}
	assert.Equal(t, "[::1]:8080", task.Target())
	assert.Equal(t, "::1", task.DisplayName())
	assert.Equal(t, 15*time.Minute, task.IntervalDuration())

	task.Name = "router"
	assert.Equal(t, "router", task.DisplayName())

	task.AccessType = AccessTypePing
	assert.Equal(t, "::1", task.Target())
}

func TestParseAccessType(t *testing.T) {
	for _, in := range []string{"ping", "PING", " Connect ", "download"} {
		at, err := ParseAccessType(in)
		assert.NoError(t, err, in)
		assert.True(t, at.IsValid(), in)
	}

	_, err := ParseAccessType("traceroute")
	assert.ErrorIs(t, err, ErrInvalidAccessType)

	assert.True(t, AccessTypeConnect.NeedsPort())
	assert.False(t, AccessTypePing.NeedsPort())
	assert.False(t, AccessTypeDownload.NeedsPort())
}

func TestAccessTypeDataValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(d *AccessTypeData)
		wantErr bool
	}{
		{name: "defaults are valid", modify: func(d *AccessTypeData) {}},
		{name: "ping count zero", modify: func(d *AccessTypeData) { d.PingCount = 0 }, wantErr: true},
		{name: "ping count too large", modify: func(d *AccessTypeData) { d.PingCount = 11 }, wantErr: true},
		{name: "package size too small", modify: func(d *AccessTypeData) { d.PingPackageSize = 7 }, wantErr: true},
		{name: "package size max", modify: func(d *AccessTypeData) { d.PingPackageSize = MaxPingPackageSize }},
		{name: "connect count zero", modify: func(d *AccessTypeData) { d.ConnectCount = 0 }, wantErr: true},
		{name: "connect count max", modify: func(d *AccessTypeData) { d.ConnectCount = MaxConnectCount }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := DefaultAccessTypeData(7)
			tt.modify(d)
			err := d.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidAccessTypeData)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
