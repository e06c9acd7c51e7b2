package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/keepitup/pkg/types"
)

// exitError carries the exit code of a failed command.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func userError(err error) error {
	if err == nil {
		return nil
	}
	return &exitError{code: exitUserError, err: err}
}

func sysError(err error) error {
	if err == nil {
		return nil
	}
	return &exitError{code: exitSysError, err: err}
}

// errUsage marks invalid command input that has no sentinel of its own.
var errUsage = errors.New("invalid usage")

// userErrors are the sentinels caused by bad input rather than by the
// system.
var userErrors = []error{
	errUsage,
	types.ErrNotFound,
	types.ErrInvalidID,
	types.ErrInvalidAddress,
	types.ErrInvalidPort,
	types.ErrInvalidInterval,
	types.ErrInvalidAccessType,
	types.ErrIntervalOverlap,
	types.ErrInvalidAccessTypeData,
	types.ErrInvalidPreferences,
	types.ErrInvalidBackup,
	types.ErrInvalidTime,
}

// classify gives err an exit code. Errors that already carry one are
// returned unchanged.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return err
	}
	for _, target := range userErrors {
		if errors.Is(err, target) {
			return userError(err)
		}
	}
	return sysError(err)
}

// runE wraps a command body so that its errors are classified.
func runE(fn func(cmd *cobra.Command, args []string) error) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		return classify(fn(cmd, args))
	}
}
