package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/keepitup/internal/sqlite"
	"github.com/mesh-intelligence/keepitup/pkg/types"
)

func newTaskListCmd(st *state) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List network tasks in display order",
		Args:    cobra.NoArgs,
		RunE: runE(func(cmd *cobra.Command, args []string) error {
			return st.withBackend(func(b *sqlite.Backend) error {
				tasks, err := b.Tasks()
				if err != nil {
					return err
				}
				list, err := tasks.List()
				if err != nil {
					return err
				}
				if st.flagJSON {
					return st.printJSON(list)
				}
				if len(list) == 0 {
					st.printf("No network tasks\n")
					return nil
				}
				writeTasks(st.out, list)
				return nil
			})
		}),
	}
}

func newTaskGetCmd(st *state) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show a network task with its probe parameters",
		Args:  cobra.ExactArgs(1),
		RunE: runE(func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return st.withBackend(func(b *sqlite.Backend) error {
				detail, err := loadTaskDetail(b, id)
				if err != nil {
					return err
				}
				if st.flagJSON {
					return st.printJSON(detail)
				}
				writeTaskDetail(st, detail)
				return nil
			})
		}),
	}
}

func loadTaskDetail(b *sqlite.Backend, id int64) (*taskDetail, error) {
	tasks, err := b.Tasks()
	if err != nil {
		return nil, err
	}
	task, err := tasks.Get(id)
	if err != nil {
		return nil, fmt.Errorf("task %d: %w", id, err)
	}
	accessData, err := b.AccessTypeData()
	if err != nil {
		return nil, err
	}
	data, err := accessData.Get(id)
	if err != nil {
		return nil, err
	}
	logs, err := b.Logs()
	if err != nil {
		return nil, err
	}
	last, err := logs.Latest(id)
	if err != nil && !errors.Is(err, types.ErrNotFound) {
		return nil, err
	}
	return &taskDetail{Task: task, AccessData: data, LastLog: last}, nil
}

func writeTaskDetail(st *state, d *taskDetail) {
	t := d.Task
	tw := st.table()
	fmt.Fprintf(tw, "ID:\t%d\n", t.ID)
	fmt.Fprintf(tw, "Position:\t%d\n", t.Index)
	fmt.Fprintf(tw, "Name:\t%s\n", t.DisplayName())
	fmt.Fprintf(tw, "Access type:\t%s\n", t.AccessType)
	fmt.Fprintf(tw, "Target:\t%s\n", t.Target())
	fmt.Fprintf(tw, "Interval:\t%s\n", t.IntervalDuration())
	fmt.Fprintf(tw, "State:\t%s\n", runningLabel(t.Running))
	fmt.Fprintf(tw, "Notification:\t%t\n", t.Notification)
	fmt.Fprintf(tw, "Scheduler id:\t%d\n", t.SchedulerID)
	fmt.Fprintf(tw, "Last run:\t%s\n", formatTime(t.LastScheduled))

	data := d.AccessData
	switch t.AccessType {
	case types.AccessTypePing:
		fmt.Fprintf(tw, "Ping count:\t%d\n", data.PingCount)
		fmt.Fprintf(tw, "Ping size:\t%d bytes\n", data.PingPackageSize)
	case types.AccessTypeConnect:
		fmt.Fprintf(tw, "Connect count:\t%d\n", data.ConnectCount)
		fmt.Fprintf(tw, "Stop on success:\t%t\n", data.StopOnSuccess)
	case types.AccessTypeDownload:
		fmt.Fprintf(tw, "Ignore SSL errors:\t%t\n", data.IgnoreSSLError)
	}
	if d.LastLog != nil {
		fmt.Fprintf(tw, "Last result:\t%s, %s\n", resultLabel(d.LastLog.Success), d.LastLog.Message)
	}
	tw.Flush()
}
