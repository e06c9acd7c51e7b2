package main

import (
	"context"
	"fmt"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/mesh-intelligence/keepitup/internal/housekeeping"
	"github.com/mesh-intelligence/keepitup/internal/logging"
	"github.com/mesh-intelligence/keepitup/internal/notify"
	"github.com/mesh-intelligence/keepitup/internal/paths"
	"github.com/mesh-intelligence/keepitup/internal/probe"
	"github.com/mesh-intelligence/keepitup/internal/scheduler"
	"github.com/mesh-intelligence/keepitup/internal/sqlite"
	"github.com/mesh-intelligence/keepitup/pkg/types"
)

// syncInterval is how often the daemon picks up tasks changed by other
// keepitup processes.
const syncInterval = 30 * time.Second

// daemon is the scheduler process behind "run" and "service".
type daemon struct {
	st         *state
	backend    *sqlite.Backend
	downloads  *probe.Downloader
	dispatcher *notify.Dispatcher
	sched      *scheduler.Scheduler
	logFile    *housekeeping.RotatingFile
	reload     chan fsnotify.Event
}

func (st *state) startDaemon(ctx context.Context) (_ *daemon, err error) {
	d := &daemon{st: st, reload: make(chan fsnotify.Event, 1)}
	defer func() {
		if err != nil {
			d.close()
		}
	}()

	if err := d.openLogFile(st.prefs); err != nil {
		return nil, err
	}
	if d.backend, err = st.attachBackend(); err != nil {
		return nil, err
	}
	if d.downloads, err = st.newDownloader(); err != nil {
		return nil, err
	}
	d.dispatcher = newDispatcher(st.prefs)
	d.sched = scheduler.New(d.backend, probe.DefaultRegistry(d.downloads), d.dispatcher, st.prefs)
	if err := d.sched.Start(ctx); err != nil {
		return nil, fmt.Errorf("start scheduler: %w", err)
	}

	if st.v != nil && st.v.ConfigFileUsed() != "" {
		st.v.OnConfigChange(func(e fsnotify.Event) {
			select {
			case d.reload <- e:
			default:
			}
		})
		st.v.WatchConfig()
	}
	return d, nil
}

// openLogFile sends a copy of the log to a rotating file when file logging
// is enabled. Every rotation runs the housekeeper over the log dir.
func (d *daemon) openLogFile(prefs types.Preferences) error {
	if !prefs.FileLog.Enabled {
		return nil
	}
	dataDir, err := d.st.resolveDataDir()
	if err != nil {
		return err
	}
	dir, err := paths.LogDir(dataDir, prefs.FileLog.Dir)
	if err != nil {
		return err
	}

	hk := housekeeping.NewHousekeeper(dir, prefs.FileLog.MaxFiles, prefs.FileLog.ArchiveFiles)
	rf, err := housekeeping.NewRotatingFile(dir, prefs.FileLog.MaxSize, housekeeping.WithOnRotate(func() {
		report, err := hk.Run()
		if err != nil {
			logging.L().Warn("log housekeeping", "error", err)
			return
		}
		logging.L().Debug("log housekeeping", "archived", len(report.Archived), "deleted", len(report.Deleted))
	}))
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	if err := d.st.setupLogging(rf); err != nil {
		rf.Close()
		return err
	}
	d.logFile = rf
	return nil
}

// serve runs until ctx is done.
func (d *daemon) serve(ctx context.Context) error {
	ticker := time.NewTicker(syncInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := d.sched.Sync(); err != nil {
				logging.L().Error("syncing tasks", "error", err)
			}
		case e := <-d.reload:
			d.applyConfig(e)
		}
	}
}

// applyConfig re-reads the preferences after config.yaml changed. Invalid
// preferences are logged and the running ones kept. File log settings take
// effect on restart.
func (d *daemon) applyConfig(e fsnotify.Event) {
	log := logging.L().With("file", e.Name, "op", e.Op.String())

	prefs, err := preferencesFrom(d.st.v)
	if err != nil {
		log.Error("ignoring invalid config", "error", err)
		return
	}
	dir, err := d.st.downloadDir(prefs)
	if err != nil {
		log.Error("ignoring invalid download dir", "error", err)
		return
	}

	d.downloads.Configure(dir, prefs.Download.Keep)
	configureWebhook(d.dispatcher, prefs)
	d.sched.SetPreferences(prefs)
	d.st.prefs = prefs
	if err := d.sched.Sync(); err != nil {
		log.Error("syncing tasks", "error", err)
	}
	log.Info("config reloaded")
}

func (d *daemon) close() {
	if d.sched != nil {
		d.sched.Stop()
	}
	if d.dispatcher != nil {
		d.dispatcher.Wait()
	}
	if d.downloads != nil {
		d.downloads.CloseIdleConnections()
	}
	if d.backend != nil {
		d.backend.Detach()
	}
	if d.logFile != nil {
		d.st.setupLogging(nil)
		d.logFile.Close()
	}
}
