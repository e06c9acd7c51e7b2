// Log commands for the keepitup CLI.
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/keepitup/internal/sqlite"
)

func newLogCmd(st *state) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "log",
		Aliases: []string{"logs"},
		Short:   "Show or clear probe results",
	}

	var limit int
	list := &cobra.Command{
		Use:   "list <task>",
		Short: "List the results of a task, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: runE(func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return st.withBackend(func(b *sqlite.Backend) error {
				tasks, err := b.Tasks()
				if err != nil {
					return err
				}
				if _, err := tasks.Get(id); err != nil {
					return fmt.Errorf("task %d: %w", id, err)
				}
				logs, err := b.Logs()
				if err != nil {
					return err
				}
				entries, err := logs.List(id, limit)
				if err != nil {
					return err
				}
				if st.flagJSON {
					return st.printJSON(entries)
				}
				if len(entries) == 0 {
					st.printf("No log entries for task %d\n", id)
					return nil
				}
				tw := st.table()
				fmt.Fprintln(tw, "TIME\tRESULT\tMESSAGE")
				for _, e := range entries {
					fmt.Fprintf(tw, "%s\t%s\t%s\n", formatTime(e.Timestamp), resultLabel(e.Success), e.Message)
				}
				return tw.Flush()
			})
		}),
	}
	list.Flags().IntVar(&limit, "limit", 0, "show at most this many entries (0 shows all)")

	clearCmd := &cobra.Command{
		Use:   "clear [<task>]",
		Short: "Delete the results of one task or of all tasks",
		Args:  cobra.MaximumNArgs(1),
		RunE: runE(func(cmd *cobra.Command, args []string) error {
			return st.withBackend(func(b *sqlite.Backend) error {
				logs, err := b.Logs()
				if err != nil {
					return err
				}
				if len(args) == 0 {
					if err := logs.DeleteAll(); err != nil {
						return err
					}
					st.printf("Cleared all logs\n")
					return nil
				}
				id, err := parseID(args[0])
				if err != nil {
					return err
				}
				if err := logs.DeleteForTask(id); err != nil {
					return err
				}
				st.printf("Cleared logs of task %d\n", id)
				return nil
			})
		}),
	}

	cmd.AddCommand(list, clearCmd)
	return cmd
}
