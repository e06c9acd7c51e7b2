// Package keepitup holds build metadata for the keepitup module.
package keepitup

// Version is the current release of keepitup.
const Version = "v0.4.0"
