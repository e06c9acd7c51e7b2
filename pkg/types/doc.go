// Package types defines the KeepItUp entities (network tasks, log entries,
// scheduler ids, suspension intervals, access type data, file entries),
// the Store and table interfaces, preferences, and the standard errors.
package types
