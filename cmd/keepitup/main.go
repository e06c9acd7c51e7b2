// Package main provides the keepitup CLI: task management, one-shot
// probes, the scheduler daemon and the terminal dashboard.
package main

import "os"

func main() {
	os.Exit(execute(os.Args[1:], os.Stdout, os.Stderr))
}
