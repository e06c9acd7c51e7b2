package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/keepitup/internal/sqlite"
)

func newTaskAddCmd(st *state) *cobra.Command {
	var (
		f     taskFlags
		start bool
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a network task",
		Long: `Add a network task. Flags that are not given take their value from
task_defaults in config.yaml.

Examples:
  keepitup task add --name router --address 192.168.178.1
  keepitup task add --type connect --address nas.local --port 445 --interval 5
  keepitup task add --type download --address https://example.com/file.bin --start`,
		Args: cobra.NoArgs,
		RunE: runE(func(cmd *cobra.Command, args []string) error {
			task := st.prefs.NewTask()
			if err := f.applyTask(cmd.Flags(), task); err != nil {
				return err
			}
			task.Running = start
			if err := task.Validate(); err != nil {
				return err
			}

			return st.withBackend(func(b *sqlite.Backend) error {
				data := st.prefs.NewAccessTypeData(0)
				f.applyData(cmd.Flags(), data)
				if err := data.Validate(); err != nil {
					return err
				}

				tasks, err := b.Tasks()
				if err != nil {
					return err
				}
				created, err := tasks.Insert(task)
				if err != nil {
					return fmt.Errorf("add task: %w", err)
				}
				accessData, err := b.AccessTypeData()
				if err != nil {
					return err
				}
				data.NetworkTaskID = created.ID
				if err := accessData.Set(data); err != nil {
					return fmt.Errorf("store access type data: %w", err)
				}

				if st.flagJSON {
					return st.printJSON(taskDetail{Task: created, AccessData: data})
				}
				st.printf("Created task %d: %s (%s %s)\n", created.ID, created.DisplayName(), created.AccessType, created.Target())
				return nil
			})
		}),
	}
	f.register(cmd.Flags(), st.prefs.TaskDefaults)
	cmd.Flags().BoolVar(&start, "start", false, "mark the task running right away")
	return cmd
}
