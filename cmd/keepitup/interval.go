// Suspension interval commands for the keepitup CLI.
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/keepitup/internal/sqlite"
	"github.com/mesh-intelligence/keepitup/pkg/types"
)

func newIntervalCmd(st *state) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "interval",
		Aliases: []string{"intervals"},
		Short:   "Manage daily suspension intervals",
		Long: `Suspension intervals are daily time windows in which scheduled tasks do
not probe. An interval whose end is before its start spans midnight.
Intervals must not overlap and must last at least 30 minutes.`,
	}

	add := &cobra.Command{
		Use:   "add <start> <end>",
		Short: "Add an interval, times as HH:MM",
		Example: `  keepitup interval add 22:00 06:30
  keepitup interval add 12:00 13:00`,
		Args: cobra.ExactArgs(2),
		RunE: runE(func(cmd *cobra.Command, args []string) error {
			iv, err := parseInterval(args[0], args[1])
			if err != nil {
				return err
			}
			return st.withBackend(func(b *sqlite.Backend) error {
				intervals, err := b.Intervals()
				if err != nil {
					return err
				}
				created, err := intervals.Insert(iv)
				if err != nil {
					return fmt.Errorf("add interval: %w", err)
				}
				if st.flagJSON {
					return st.printJSON(created)
				}
				st.printf("Created interval %d: %s\n", created.ID, created)
				return nil
			})
		}),
	}

	update := &cobra.Command{
		Use:   "update <id> <start> <end>",
		Short: "Change the times of an interval",
		Args:  cobra.ExactArgs(3),
		RunE: runE(func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			iv, err := parseInterval(args[1], args[2])
			if err != nil {
				return err
			}
			iv.ID = id
			return st.withBackend(func(b *sqlite.Backend) error {
				intervals, err := b.Intervals()
				if err != nil {
					return err
				}
				if err := intervals.Update(iv); err != nil {
					return fmt.Errorf("update interval %d: %w", id, err)
				}
				st.printf("Updated interval %d: %s\n", id, iv)
				return nil
			})
		}),
	}

	list := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List intervals by start time",
		Args:    cobra.NoArgs,
		RunE: runE(func(cmd *cobra.Command, args []string) error {
			return st.withBackend(func(b *sqlite.Backend) error {
				intervals, err := b.Intervals()
				if err != nil {
					return err
				}
				all, err := intervals.List()
				if err != nil {
					return err
				}
				if st.flagJSON {
					return st.printJSON(all)
				}
				if !st.prefs.Suspension.Enabled {
					st.printf("Suspension is disabled in config.yaml\n")
				}
				if len(all) == 0 {
					st.printf("No suspension intervals\n")
					return nil
				}
				tw := st.table()
				fmt.Fprintln(tw, "ID\tSTART\tEND\tDURATION")
				for _, iv := range all {
					fmt.Fprintf(tw, "%d\t%s\t%s\t%dm\n", iv.ID, iv.Start, iv.End, iv.Duration())
				}
				return tw.Flush()
			})
		}),
	}

	del := &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete an interval",
		Args:    cobra.ExactArgs(1),
		RunE: runE(func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return st.withBackend(func(b *sqlite.Backend) error {
				intervals, err := b.Intervals()
				if err != nil {
					return err
				}
				if err := intervals.Delete(id); err != nil {
					return fmt.Errorf("delete interval %d: %w", id, err)
				}
				st.printf("Deleted interval %d\n", id)
				return nil
			})
		}),
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every interval",
		Args:  cobra.NoArgs,
		RunE: runE(func(cmd *cobra.Command, args []string) error {
			return st.withBackend(func(b *sqlite.Backend) error {
				intervals, err := b.Intervals()
				if err != nil {
					return err
				}
				if err := intervals.DeleteAll(); err != nil {
					return err
				}
				st.printf("Deleted all intervals\n")
				return nil
			})
		}),
	}

	cmd.AddCommand(add, update, list, del, clearCmd)
	return cmd
}

func parseInterval(start, end string) (*types.Interval, error) {
	s, err := types.ParseTime(start)
	if err != nil {
		return nil, err
	}
	e, err := types.ParseTime(end)
	if err != nil {
		return nil, err
	}
	iv := &types.Interval{Start: s, End: e}
	if err := iv.Validate(); err != nil {
		return nil, err
	}
	return iv, nil
}
