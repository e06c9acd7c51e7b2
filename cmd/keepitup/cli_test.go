package main

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/keepitup/internal/housekeeping"
	"github.com/mesh-intelligence/keepitup/internal/sqlite"
	"github.com/mesh-intelligence/keepitup/pkg/keepitup"
	"github.com/mesh-intelligence/keepitup/pkg/types"
)

func TestVersion(t *testing.T) {
	e := newEnv(t)
	out := e.mustRun(t, "version")
	assert.Equal(t, "keepitup "+keepitup.Version+"\n", out)

	_, err := os.Stat(e.configDir)
	assert.True(t, os.IsNotExist(err), "version must not create the config dir")
}

func TestInit(t *testing.T) {
	e := newEnv(t)
	out := e.mustRun(t, "init")
	assert.Contains(t, out, "KeepItUp initialized")

	assert.FileExists(t, filepath.Join(e.configDir, configFileExt))
	assert.FileExists(t, filepath.Join(e.dataDir, sqlite.DBFileName))

	// A second init keeps the existing files.
	e.mustRun(t, "init")
}

func TestTaskLifecycle(t *testing.T) {
	e := newEnv(t)

	var added taskDetail
	e.mustJSON(t, &added, "task", "add", "--name", "router", "--address", "10.0.0.1", "--interval", "5", "--ping-count", "4")
	require.NotNil(t, added.Task)
	assert.Equal(t, "router", added.Task.Name)
	assert.Equal(t, types.AccessTypePing, added.Task.AccessType)
	assert.Equal(t, 5, added.Task.Interval)
	assert.Equal(t, 4, added.AccessData.PingCount)
	assert.False(t, added.Task.Running)
	id := strconv.FormatInt(added.Task.ID, 10)

	e.mustRun(t, "task", "add", "--name", "nas", "--type", "connect", "--address", "nas.local", "--port", "445", "--start")

	var list []*types.NetworkTask
	e.mustJSON(t, &list, "task", "list")
	require.Len(t, list, 2)
	assert.Equal(t, "router", list[0].Name)
	assert.True(t, list[1].Running)

	human := e.mustRun(t, "task", "list")
	assert.Contains(t, human, "nas.local:445")

	e.mustRun(t, "task", "update", id, "--interval", "30", "--notify", "--ping-size", "128")
	var got taskDetail
	e.mustJSON(t, &got, "task", "get", id)
	assert.Equal(t, 30, got.Task.Interval)
	assert.True(t, got.Task.Notification)
	assert.Equal(t, 128, got.AccessData.PingPackageSize)
	assert.Equal(t, 4, got.AccessData.PingCount)

	e.mustJSON(t, &list, "task", "move", id, "1")
	assert.Equal(t, "nas", list[0].Name)
	assert.Equal(t, "router", list[1].Name)

	e.mustRun(t, "task", "start", id)
	e.mustJSON(t, &got, "task", "get", id)
	assert.True(t, got.Task.Running)
	e.mustRun(t, "task", "stop", id)
	e.mustJSON(t, &got, "task", "get", id)
	assert.False(t, got.Task.Running)

	e.mustRun(t, "task", "delete", id)
	e.mustJSON(t, &list, "task", "list")
	require.Len(t, list, 1)
	assert.Equal(t, 0, list[0].Index)

	e.mustRun(t, "task", "delete", "--all")
	e.mustJSON(t, &list, "task", "list")
	assert.Empty(t, list)
}

func TestExitCodes(t *testing.T) {
	e := newEnv(t)
	e.mustRun(t, "interval", "add", "22:00", "06:00")

	tests := []struct {
		name string
		args []string
		want int
	}{
		{name: "unknown task", args: []string{"task", "get", "42"}, want: exitUserError},
		{name: "bad id", args: []string{"task", "get", "abc"}, want: exitUserError},
		{name: "missing argument", args: []string{"task", "get"}, want: exitUserError},
		{name: "unknown flag", args: []string{"task", "list", "--bogus"}, want: exitUserError},
		{name: "interval out of range", args: []string{"task", "add", "--interval", "0"}, want: exitUserError},
		{name: "unknown access type", args: []string{"task", "add", "--type", "smoke"}, want: exitUserError},
		{name: "download without url", args: []string{"task", "add", "--type", "download", "--address", "example.com"}, want: exitUserError},
		{name: "ping count out of range", args: []string{"task", "add", "--ping-count", "99"}, want: exitUserError},
		{name: "overlapping interval", args: []string{"interval", "add", "05:00", "07:00"}, want: exitUserError},
		{name: "short interval", args: []string{"interval", "add", "10:00", "10:10"}, want: exitUserError},
		{name: "bad time", args: []string{"interval", "add", "25:00", "10:10"}, want: exitUserError},
		{name: "delete without ids", args: []string{"task", "delete"}, want: exitUserError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, errOut, code := e.run(tt.args...)
			assert.Equal(t, tt.want, code, errOut)
			assert.Contains(t, errOut, "keepitup:")
		})
	}
}

func TestIntervals(t *testing.T) {
	e := newEnv(t)

	var created types.Interval
	e.mustJSON(t, &created, "interval", "add", "12:00", "13:00")
	e.mustRun(t, "interval", "add", "22:00", "06:30")

	var all []*types.Interval
	e.mustJSON(t, &all, "interval", "list")
	require.Len(t, all, 2)
	assert.Equal(t, "12:00", all[0].Start.String())

	e.mustRun(t, "interval", "update", strconv.FormatInt(created.ID, 10), "13:00", "14:00")
	e.mustRun(t, "interval", "delete", strconv.FormatInt(created.ID, 10))
	e.mustJSON(t, &all, "interval", "list")
	require.Len(t, all, 1)
	assert.Equal(t, "22:00-06:30", all[0].String())

	e.mustRun(t, "interval", "clear")
	e.mustJSON(t, &all, "interval", "list")
	assert.Empty(t, all)
}

func TestAccessData(t *testing.T) {
	e := newEnv(t)
	e.mustRun(t, "task", "add", "--type", "connect", "--address", "host", "--port", "22")

	var data types.AccessTypeData
	e.mustJSON(t, &data, "access", "get", "1")
	assert.Equal(t, types.DefaultConnectCount, data.ConnectCount)

	e.mustJSON(t, &data, "access", "set", "1", "--connect-count", "3", "--stop-on-success")
	assert.Equal(t, 3, data.ConnectCount)
	assert.True(t, data.StopOnSuccess)

	_, _, code := e.run("access", "set", "1")
	assert.Equal(t, exitUserError, code)
	_, _, code = e.run("access", "get", "7")
	assert.Equal(t, exitUserError, code)
}

func TestProbeAndLogs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "payload")
	}))
	defer srv.Close()

	e := newEnv(t)
	e.mustRun(t, "task", "add", "--type", "download", "--address", srv.URL+"/file.bin")

	var entries []*types.LogEntry
	e.mustJSON(t, &entries, "probe", "1")
	require.Len(t, entries, 1)
	assert.True(t, entries[0].Success, entries[0].Message)

	e.mustRun(t, "probe")
	e.mustJSON(t, &entries, "log", "list", "1")
	assert.Len(t, entries, 2)
	e.mustJSON(t, &entries, "log", "list", "1", "--limit", "1")
	assert.Len(t, entries, 1)

	// Downloads are not kept by default.
	files, err := housekeeping.ListFiles(filepath.Join(e.dataDir, "download"))
	require.NoError(t, err)
	assert.Empty(t, files)

	e.mustRun(t, "log", "clear", "1")
	e.mustJSON(t, &entries, "log", "list", "1")
	assert.Empty(t, entries)

	_, _, code := e.run("log", "list", "9")
	assert.Equal(t, exitUserError, code)
}

func TestExportImport(t *testing.T) {
	e := newEnv(t)
	e.mustRun(t, "task", "add", "--name", "router", "--address", "10.0.0.1", "--start")
	e.mustRun(t, "interval", "add", "12:00", "13:00")
	file := filepath.Join(t.TempDir(), "backup.json")
	e.mustRun(t, "export", file)

	other := newEnv(t)
	var summary sqlite.ImportSummary
	other.mustJSON(t, &summary, "import", file)
	assert.Equal(t, 1, summary.Tasks)
	assert.Equal(t, 1, summary.Intervals)
	require.NotNil(t, summary.Preferences)

	var list []*types.NetworkTask
	other.mustJSON(t, &list, "task", "list")
	require.Len(t, list, 1)
	assert.Equal(t, "router", list[0].Name)
	assert.False(t, list[0].Running, "imported tasks are stopped")

	// Importing again without purge collides with the stored interval.
	_, _, code := other.run("import", file)
	assert.Equal(t, exitUserError, code)

	other.mustRun(t, "import", "--purge", "--preferences", file)
	other.mustJSON(t, &list, "task", "list")
	assert.Len(t, list, 1)
}

func TestConfig(t *testing.T) {
	e := newEnv(t)

	var shown map[string]any
	e.mustJSON(t, &shown, "config", "show")
	assert.Equal(t, e.dataDir, shown["data_dir"])

	t.Setenv("KEEPITUP_LOG_MAX_ENTRIES", "7")
	var prefsOut struct {
		Preferences types.Preferences `json:"preferences"`
	}
	e.mustJSON(t, &prefsOut, "config", "show")
	assert.Equal(t, 7, prefsOut.Preferences.Log.MaxEntries)

	yaml := e.mustRun(t, "config", "show")
	assert.Contains(t, yaml, "max_entries: 7")
}

func TestConfigInvalid(t *testing.T) {
	e := newEnv(t)
	require.NoError(t, os.MkdirAll(e.configDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(e.configDir, configFileExt), []byte("notification:\n  type: sometimes\n"), 0o644))

	_, errOut, code := e.run("task", "list")
	assert.Equal(t, exitUserError, code)
	assert.Contains(t, errOut, "notification type")
}

func TestConfigFileKeepsUnsetDefaults(t *testing.T) {
	e := newEnv(t)
	require.NoError(t, os.MkdirAll(e.configDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(e.configDir, configFileExt), []byte("task_defaults:\n  interval: 45\n"), 0o644))

	var added taskDetail
	e.mustJSON(t, &added, "task", "add")
	assert.Equal(t, 45, added.Task.Interval)
	assert.Equal(t, types.DefaultAddress, added.Task.Address)
}

func TestHousekeepAndFiles(t *testing.T) {
	e := newEnv(t)
	logDir := filepath.Join(e.dataDir, "log")
	require.NoError(t, os.MkdirAll(logDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(logDir, housekeeping.CurrentLog), []byte("line\n"), 0o644))

	var report housekeeping.Report
	e.mustJSON(t, &report, "housekeep", "--rotate")
	assert.Empty(t, report.Archived)

	var files []types.FileEntry
	e.mustJSON(t, &files, "files")
	require.Len(t, files, 2, "current log plus the rotated one")

	out := e.mustRun(t, "files", "--downloads")
	assert.Contains(t, out, "No files")
}
