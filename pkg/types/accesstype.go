package types

import "strings"

// AccessType selects how a network task probes its address.
type AccessType string

// Access types.
const (
	AccessTypePing     AccessType = "ping"
	AccessTypeConnect  AccessType = "connect"
	AccessTypeDownload AccessType = "download"
)

// AccessTypes lists all access types in display order.
var AccessTypes = []AccessType{
	AccessTypePing,
	AccessTypeConnect,
	AccessTypeDownload,
}

// ParseAccessType converts a case-insensitive name into an AccessType.
// Returns ErrInvalidAccessType for unknown names.
func ParseAccessType(s string) (AccessType, error) {
	at := AccessType(strings.ToLower(strings.TrimSpace(s)))
	if !at.IsValid() {
		return "", ErrInvalidAccessType
	}
	return at, nil
}

// IsValid reports whether the access type is one of the known constants.
func (a AccessType) IsValid() bool {
	switch a {
	case AccessTypePing, AccessTypeConnect, AccessTypeDownload:
		return true
	}
	return false
}

// NeedsPort reports whether the access type uses the task's port.
func (a AccessType) NeedsPort() bool {
	return a == AccessTypeConnect
}

func (a AccessType) String() string {
	return string(a)
}
