package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/keepitup/internal/sqlite"
)

func newTaskUpdateCmd(st *state) *cobra.Command {
	var f taskFlags
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change the fields of a network task",
		Long: `Change the fields of a network task. Only the flags given are
applied.

Example:
  keepitup task update 3 --interval 30 --notify`,
		Args: cobra.ExactArgs(1),
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
				task, err := tasks.Get(id)
				if err != nil {
					return fmt.Errorf("task %d: %w", id, err)
				}
				if err := f.applyTask(cmd.Flags(), task); err != nil {
					return err
				}
				if err := tasks.Update(task); err != nil {
					return fmt.Errorf("update task: %w", err)
				}

				accessData, err := b.AccessTypeData()
				if err != nil {
					return err
				}
				data, err := accessData.Get(id)
				if err != nil {
					return err
				}
				if f.applyData(cmd.Flags(), data) {
					if err := accessData.Set(data); err != nil {
						return fmt.Errorf("store access type data: %w", err)
					}
				}

				if st.flagJSON {
					detail, err := loadTaskDetail(b, id)
					if err != nil {
						return err
					}
					return st.printJSON(detail)
				}
				st.printf("Updated task %d\n", id)
				return nil
			})
		}),
	}
	f.register(cmd.Flags(), st.prefs.TaskDefaults)
	return cmd
}
