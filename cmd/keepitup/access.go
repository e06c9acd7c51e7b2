// Access type data commands for the keepitup CLI.
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/keepitup/internal/sqlite"
	"github.com/mesh-intelligence/keepitup/pkg/types"
)

func newAccessCmd(st *state) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "access",
		Short: "Show or change the probe parameters of a task",
	}

	get := &cobra.Command{
		Use:   "get <task>",
		Short: "Show the probe parameters of a task",
		Args:  cobra.ExactArgs(1),
		RunE: runE(func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return st.withBackend(func(b *sqlite.Backend) error {
				table, err := b.AccessTypeData()
				if err != nil {
					return err
				}
				data, err := table.Get(id)
				if err != nil {
					return fmt.Errorf("task %d: %w", id, err)
				}
				if st.flagJSON {
					return st.printJSON(data)
				}
				writeAccessData(st, data)
				return nil
			})
		}),
	}

	var f taskFlags
	set := &cobra.Command{
		Use:   "set <task>",
		Short: "Change the probe parameters of a task",
		Example: `  keepitup access set 2 --ping-count 5 --ping-size 1024
  keepitup access set 4 --connect-count 3 --stop-on-success`,
		Args: cobra.ExactArgs(1),
		RunE: runE(func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return st.withBackend(func(b *sqlite.Backend) error {
				table, err := b.AccessTypeData()
				if err != nil {
					return err
				}
				data, err := table.Get(id)
				if err != nil {
					return fmt.Errorf("task %d: %w", id, err)
				}
				if !f.applyData(cmd.Flags(), data) {
					return fmt.Errorf("%w: no probe parameter given", errUsage)
				}
				if err := table.Set(data); err != nil {
					return err
				}
				if st.flagJSON {
					return st.printJSON(data)
				}
				writeAccessData(st, data)
				return nil
			})
		}),
	}
	d := st.prefs.TaskDefaults
	set.Flags().IntVar(&f.pingCount, "ping-count", d.PingCount, "ping packets per run")
	set.Flags().IntVar(&f.pingSize, "ping-size", d.PingPackageSize, "ping payload size in bytes")
	set.Flags().IntVar(&f.connectCount, "connect-count", d.ConnectCount, "connect attempts per run")
	set.Flags().BoolVar(&f.stopOnSuccess, "stop-on-success", d.StopOnSuccess, "stop connect attempts after the first success")
	set.Flags().BoolVar(&f.ignoreSSL, "ignore-ssl-error", d.IgnoreSSLError, "skip certificate verification for downloads")

	cmd.AddCommand(get, set)
	return cmd
}

func writeAccessData(st *state, d *types.AccessTypeData) {
	tw := st.table()
	fmt.Fprintf(tw, "Task:\t%d\n", d.NetworkTaskID)
	fmt.Fprintf(tw, "Ping count:\t%d\n", d.PingCount)
	fmt.Fprintf(tw, "Ping size:\t%d bytes\n", d.PingPackageSize)
	fmt.Fprintf(tw, "Connect count:\t%d\n", d.ConnectCount)
	fmt.Fprintf(tw, "Stop on success:\t%t\n", d.StopOnSuccess)
	fmt.Fprintf(tw, "Ignore SSL errors:\t%t\n", d.IgnoreSSLError)
	tw.Flush()
}
