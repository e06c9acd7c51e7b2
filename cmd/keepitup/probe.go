// Probe command for the keepitup CLI.
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/keepitup/internal/notify"
	"github.com/mesh-intelligence/keepitup/internal/paths"
	"github.com/mesh-intelligence/keepitup/internal/probe"
	"github.com/mesh-intelligence/keepitup/internal/scheduler"
	"github.com/mesh-intelligence/keepitup/internal/sqlite"
	"github.com/mesh-intelligence/keepitup/pkg/types"
)

func newProbeCmd(st *state) *cobra.Command {
	return &cobra.Command{
		Use:   "probe [<task>...]",
		Short: "Probe tasks now and log the results",
		Long: `Probe the given tasks, or every task, once and right away. Results
are logged like scheduled runs and notifications are sent as configured.
Timers are not armed.`,
		RunE: runE(func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			return st.withBackend(func(b *sqlite.Backend) error {
				downloads, err := st.newDownloader()
				if err != nil {
					return err
				}
				defer downloads.CloseIdleConnections()
				dispatcher := newDispatcher(st.prefs)
				sched := scheduler.New(b, probe.DefaultRegistry(downloads), dispatcher, st.prefs)

				entries, err := sched.RunOnce(cmd.Context(), ids...)
				if err != nil {
					return err
				}
				dispatcher.Wait()

				if st.flagJSON {
					return st.printJSON(entries)
				}
				if len(entries) == 0 {
					st.printf("No network tasks\n")
					return nil
				}
				tw := st.table()
				fmt.Fprintln(tw, "TASK\tRESULT\tMESSAGE")
				for _, e := range entries {
					fmt.Fprintf(tw, "%d\t%s\t%s\n", e.NetworkTaskID, resultLabel(e.Success), e.Message)
				}
				return tw.Flush()
			})
		}),
	}
}

// newDownloader returns a downloader storing into the configured download
// dir.
func (st *state) newDownloader() (*probe.Downloader, error) {
	dir, err := st.downloadDir(st.prefs)
	if err != nil {
		return nil, err
	}
	return probe.NewDownloader(dir, st.prefs.Download.Keep), nil
}

func (st *state) downloadDir(prefs types.Preferences) (string, error) {
	dataDir, err := st.resolveDataDir()
	if err != nil {
		return "", err
	}
	return paths.DownloadDir(dataDir, prefs.Download.Dir)
}

// newDispatcher returns an async dispatcher with the log sender and, when a
// webhook URL is configured, the webhook sender.
func newDispatcher(prefs types.Preferences) *notify.Dispatcher {
	d := notify.NewDispatcher(true)
	d.Register(notify.LogSender{})
	configureWebhook(d, prefs)
	return d
}

func configureWebhook(d *notify.Dispatcher, prefs types.Preferences) {
	d.Unregister(notify.WebhookSenderName)
	if prefs.Notification.Webhook != "" {
		d.Register(notify.NewWebhookSender(prefs.Notification.Webhook))
	}
}
