package sqlite

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/keepitup/pkg/types"
)

// seedBackend stores two tasks with logs and probe data plus one interval.
func seedBackend(t *testing.T, b *Backend) {
	t.Helper()
	tasks, err := b.Tasks()
	require.NoError(t, err)
	logs, err := b.Logs()
	require.NoError(t, err)
	atd, err := b.AccessTypeData()
	require.NoError(t, err)
	intervals, err := b.Intervals()
	require.NoError(t, err)

	ping, err := tasks.Insert(&types.NetworkTask{Name: "router", Address: "192.168.1.1", AccessType: types.AccessTypePing, Interval: 15})
	require.NoError(t, err)
	require.NoError(t, tasks.SetRunning(ping.ID, true))
	conn, err := tasks.Insert(&types.NetworkTask{Address: "example.com", Port: 443, AccessType: types.AccessTypeConnect, Interval: 5})
	require.NoError(t, err)

	data := types.DefaultAccessTypeData(conn.ID)
	data.ConnectCount = 3
	require.NoError(t, atd.Set(data))

	base := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	for i := range 3 {
		_, err := logs.Insert(&types.LogEntry{NetworkTaskID: ping.ID, Success: true, Timestamp: base.Add(time.Duration(i) * time.Minute), Message: "ok"})
		require.NoError(t, err)
	}

	_, err = intervals.Insert(&types.Interval{Start: types.Time{Hour: 23}, End: types.Time{Hour: 5}})
	require.NoError(t, err)
}

func TestBackup_Export(t *testing.T) {
	b := setupBackend(t, 0)
	seedBackend(t, b)
	prefs := types.DefaultPreferences()

	var buf bytes.Buffer
	require.NoError(t, b.Export(&buf, &prefs))

	var doc types.Backup
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, types.BackupVersion, doc.Version)
	_, err := uuid.Parse(doc.ExportID)
	assert.NoError(t, err)
	require.Len(t, doc.Tasks, 2)
	assert.Equal(t, "router", doc.Tasks[0].Task.Name)
	assert.Len(t, doc.Tasks[0].Logs, 3)
	assert.Equal(t, 3, doc.Tasks[1].AccessTypeData.ConnectCount)
	require.Len(t, doc.Intervals, 1)
	require.NotNil(t, doc.Preferences)
	assert.Equal(t, prefs.TaskDefaults.Address, doc.Preferences.TaskDefaults.Address)
	assert.NoError(t, doc.Validate())
}

func TestBackup_RoundTrip(t *testing.T) {
	src := setupBackend(t, 0)
	seedBackend(t, src)

	path := filepath.Join(t.TempDir(), "out", "backup.json")
	require.NoError(t, src.ExportFile(path, nil))

	dst := setupBackend(t, 2)
	summary, err := dst.ImportFile(path, false)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Tasks)
	assert.Equal(t, 2, summary.Logs, "retention applies to imported logs")
	assert.Equal(t, 1, summary.Intervals)
	assert.Nil(t, summary.Preferences)

	tasks, err := dst.Tasks()
	require.NoError(t, err)
	list, err := tasks.List()
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "router", list[0].Name)
	assert.False(t, list[0].Running, "imported tasks are not running")
	assert.Equal(t, 1, list[1].Index)

	atd, err := dst.AccessTypeData()
	require.NoError(t, err)
	data, err := atd.Get(list[1].ID)
	require.NoError(t, err)
	assert.Equal(t, 3, data.ConnectCount)
}

func TestBackup_ImportAppendsAndPurges(t *testing.T) {
	b := setupBackend(t, 0)
	seedBackend(t, b)

	var buf bytes.Buffer
	require.NoError(t, b.Export(&buf, nil))
	exported := buf.String()

	// The seeded interval is already present, so a plain import overlaps.
	_, err := b.Import(strings.NewReader(exported), false)
	assert.ErrorIs(t, err, types.ErrIntervalOverlap)

	tasks, err := b.Tasks()
	require.NoError(t, err)
	list, err := tasks.List()
	require.NoError(t, err)
	assert.Len(t, list, 2, "failed import rolls back")
	oldSchedulerIDs := map[int]bool{list[0].SchedulerID: true, list[1].SchedulerID: true}

	summary, err := b.Import(strings.NewReader(exported), true)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Tasks)

	list, err = tasks.List()
	require.NoError(t, err)
	require.Len(t, list, 2)
	for _, task := range list {
		assert.False(t, oldSchedulerIDs[task.SchedulerID], "imported tasks get fresh scheduler ids")
	}
}

func TestBackup_ImportInvalid(t *testing.T) {
	b := setupBackend(t, 0)

	_, err := b.Import(strings.NewReader("{not json"), false)
	assert.ErrorIs(t, err, types.ErrInvalidBackup)

	_, err = b.Import(strings.NewReader(`{"version": 7}`), false)
	assert.ErrorIs(t, err, types.ErrInvalidBackup)

	_, err = b.Import(strings.NewReader(`{"version": 1, "tasks": [{"task": {"address": "", "access_type": "ping", "interval": 5}}]}`), false)
	assert.ErrorIs(t, err, types.ErrInvalidAddress)
}

func TestBackup_ImportReturnsPreferences(t *testing.T) {
	b := setupBackend(t, 0)
	prefs := types.DefaultPreferences()
	prefs.TaskDefaults.Interval = 42

	var buf bytes.Buffer
	require.NoError(t, b.Export(&buf, &prefs))

	summary, err := b.Import(&buf, true)
	require.NoError(t, err)
	require.NotNil(t, summary.Preferences)
	assert.Equal(t, 42, summary.Preferences.TaskDefaults.Interval)
}
