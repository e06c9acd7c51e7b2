// Watch command for the keepitup CLI.
package main

import (
	"errors"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/keepitup/internal/sqlite"
	"github.com/mesh-intelligence/keepitup/internal/watch"
)

func newWatchCmd(st *state) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Show a live dashboard of all tasks",
		Args:  cobra.NoArgs,
		RunE: runE(func(cmd *cobra.Command, args []string) error {
			return st.withBackend(func(b *sqlite.Backend) error {
				err := watch.Run(cmd.Context(), b, st.prefs.Watch.Refresh,
					tea.WithOutput(st.out), tea.WithAltScreen())
				if errors.Is(err, tea.ErrProgramKilled) {
					return nil
				}
				return err
			})
		}),
	}
}
