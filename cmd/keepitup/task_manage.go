package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/keepitup/internal/sqlite"
	"github.com/mesh-intelligence/keepitup/pkg/types"
)

func newTaskDeleteCmd(st *state) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:     "delete <id>...",
		Aliases: []string{"rm"},
		Short:   "Delete network tasks with their logs",
		RunE: runE(func(cmd *cobra.Command, args []string) error {
			if all == (len(args) > 0) {
				return fmt.Errorf("%w: give task ids or --all", errUsage)
			}
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			return st.withBackend(func(b *sqlite.Backend) error {
				tasks, err := b.Tasks()
				if err != nil {
					return err
				}
				if all {
					if err := tasks.DeleteAll(); err != nil {
						return err
					}
					st.printf("Deleted all tasks\n")
					return nil
				}
				for _, id := range ids {
					if err := tasks.Delete(id); err != nil {
						return fmt.Errorf("delete task %d: %w", id, err)
					}
					st.printf("Deleted task %d\n", id)
				}
				return nil
			})
		}),
	}
	cmd.Flags().BoolVar(&all, "all", false, "delete every task")
	return cmd
}

func newTaskMoveCmd(st *state) *cobra.Command {
	return &cobra.Command{
		Use:   "move <id> <position>",
		Short: "Move a task to another position in the list",
		Args:  cobra.ExactArgs(2),
		RunE: runE(func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			pos, err := strconv.Atoi(args[1])
			if err != nil || pos < 0 {
				return fmt.Errorf("%w: position %q", errUsage, args[1])
			}
			return st.withBackend(func(b *sqlite.Backend) error {
				tasks, err := b.Tasks()
				if err != nil {
					return err
				}
				if err := tasks.Move(id, pos); err != nil {
					return fmt.Errorf("move task %d: %w", id, err)
				}
				list, err := tasks.List()
				if err != nil {
					return err
				}
				if st.flagJSON {
					return st.printJSON(list)
				}
				writeTasks(st.out, list)
				return nil
			})
		}),
	}
}

func newTaskStartCmd(st *state) *cobra.Command {
	return newTaskRunningCmd(st, "start", "Mark tasks running; a running daemon picks them up", true)
}

func newTaskStopCmd(st *state) *cobra.Command {
	return newTaskRunningCmd(st, "stop", "Mark tasks stopped", false)
}

func newTaskRunningCmd(st *state, use, short string, running bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <id>...",
		Short: short,
		Args:  cobra.MinimumNArgs(1),
		RunE: runE(func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			return st.withBackend(func(b *sqlite.Backend) error {
				tasks, err := b.Tasks()
				if err != nil {
					return err
				}
				var changed []*types.NetworkTask
				for _, id := range ids {
					if err := tasks.SetRunning(id, running); err != nil {
						return fmt.Errorf("%s task %d: %w", use, id, err)
					}
					task, err := tasks.Get(id)
					if err != nil {
						return err
					}
					changed = append(changed, task)
					st.printf("Task %d %s\n", id, runningLabel(running))
				}
				if st.flagJSON {
					return st.printJSON(changed)
				}
				return nil
			})
		}),
	}
}
