// Run command for the keepitup CLI.
package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/keepitup/internal/logging"
)

func newRunCmd(st *state) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the scheduler in the foreground",
		Long: `Run the scheduler in the foreground until interrupted. Running tasks
are probed on their intervals. Changes to config.yaml are applied without a
restart, and tasks started or stopped from another shell are picked up
within 30 seconds.`,
		Args: cobra.NoArgs,
		RunE: runE(func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			d, err := st.startDaemon(ctx)
			if err != nil {
				return err
			}
			defer d.close()

			logging.L().Info("keepitup running", "config_dir", st.configDir)
			st.printf("KeepItUp running, press Ctrl+C to stop\n")
			return d.serve(ctx)
		}),
	}
}
