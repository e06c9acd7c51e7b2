// Task commands for the keepitup CLI.
package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/mesh-intelligence/keepitup/pkg/types"
)

func newTaskCmd(st *state) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "task",
		Aliases: []string{"tasks"},
		Short:   "Manage network tasks",
	}
	cmd.AddCommand(
		newTaskAddCmd(st),
		newTaskListCmd(st),
		newTaskGetCmd(st),
		newTaskUpdateCmd(st),
		newTaskDeleteCmd(st),
		newTaskMoveCmd(st),
		newTaskStartCmd(st),
		newTaskStopCmd(st),
	)
	return cmd
}

// taskFlags are the editable task fields shared by add and update.
type taskFlags struct {
	name          string
	address       string
	port          int
	accessType    string
	interval      int
	notify        bool
	pingCount     int
	pingSize      int
	connectCount  int
	stopOnSuccess bool
	ignoreSSL     bool
}

func (f *taskFlags) register(fs *pflag.FlagSet, d types.TaskDefaults) {
	fs.StringVar(&f.name, "name", "", "display name")
	fs.StringVar(&f.address, "address", d.Address, "host name, IP address or download URL")
	fs.IntVar(&f.port, "port", d.Port, "TCP port for connect tasks")
	fs.StringVar(&f.accessType, "type", string(d.AccessType), "access type (ping, connect, download)")
	fs.IntVar(&f.interval, "interval", d.Interval, "minutes between runs")
	fs.BoolVar(&f.notify, "notify", d.Notification, "send notifications for this task")
	fs.IntVar(&f.pingCount, "ping-count", d.PingCount, "ping packets per run")
	fs.IntVar(&f.pingSize, "ping-size", d.PingPackageSize, "ping payload size in bytes")
	fs.IntVar(&f.connectCount, "connect-count", d.ConnectCount, "connect attempts per run")
	fs.BoolVar(&f.stopOnSuccess, "stop-on-success", d.StopOnSuccess, "stop connect attempts after the first success")
	fs.BoolVar(&f.ignoreSSL, "ignore-ssl-error", d.IgnoreSSLError, "skip certificate verification for downloads")
}

// applyTask copies the changed flags into task.
func (f *taskFlags) applyTask(fs *pflag.FlagSet, task *types.NetworkTask) error {
	if fs.Changed("name") {
		task.Name = f.name
	}
	if fs.Changed("address") {
		task.Address = f.address
	}
	if fs.Changed("port") {
		task.Port = f.port
	}
	if fs.Changed("type") {
		at, err := types.ParseAccessType(f.accessType)
		if err != nil {
			return err
		}
		task.AccessType = at
	}
	if fs.Changed("interval") {
		task.Interval = f.interval
	}
	if fs.Changed("notify") {
		task.Notification = f.notify
	}
	return nil
}

// applyData copies the changed probe flags into data and reports whether
// any was set.
func (f *taskFlags) applyData(fs *pflag.FlagSet, data *types.AccessTypeData) bool {
	changed := false
	set := func(name string, apply func()) {
		if fs.Changed(name) {
			apply()
			changed = true
		}
	}
	set("ping-count", func() { data.PingCount = f.pingCount })
	set("ping-size", func() { data.PingPackageSize = f.pingSize })
	set("connect-count", func() { data.ConnectCount = f.connectCount })
	set("stop-on-success", func() { data.StopOnSuccess = f.stopOnSuccess })
	set("ignore-ssl-error", func() { data.IgnoreSSLError = f.ignoreSSL })
	return changed
}

// taskDetail is the JSON shape of task add, get and update.
type taskDetail struct {
	Task       *types.NetworkTask    `json:"task"`
	AccessData *types.AccessTypeData `json:"access_type_data"`
	LastLog    *types.LogEntry       `json:"last_log,omitempty"`
}
