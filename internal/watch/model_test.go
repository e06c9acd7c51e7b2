package watch

import (
	"context"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/keepitup/internal/sqlite"
	"github.com/mesh-intelligence/keepitup/internal/uisync"
	"github.com/mesh-intelligence/keepitup/pkg/types"
)

func newTestModel(t *testing.T) Model {
	t.Helper()
	r := uisync.NewRefresher(func(context.Context) (Snapshot, error) { return Snapshot{}, nil }, 1)
	t.Cleanup(r.Close)
	return NewModel(context.Background(), r, 5*time.Second)
}

func snapshotOf(seq uint64, names ...string) snapshotMsg {
	var rows []Row
	for i, n := range names {
		rows = append(rows, Row{Task: &types.NetworkTask{
			ID: int64(i + 1), Index: i, Name: n, Address: "10.0.0.1",
			AccessType: types.AccessTypePing, Interval: 15, Running: i == 0,
		}})
	}
	return snapshotMsg{Seq: seq, Value: Snapshot{Rows: rows}}
}

func update(m Model, msg tea.Msg) (Model, tea.Cmd) {
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

func TestModel_LoadingView(t *testing.T) {
	m := newTestModel(t)
	assert.Contains(t, m.View(), "Loading tasks")
}

func TestModel_DropsStaleSnapshots(t *testing.T) {
	m := newTestModel(t)

	m, cmd := update(m, snapshotOf(2, "router"))
	assert.NotNil(t, cmd, "model must keep listening for snapshots")
	m, _ = update(m, snapshotOf(1, "stale"))

	view := m.View()
	assert.Contains(t, view, "router")
	assert.Contains(t, view, "running")
	assert.NotContains(t, view, "stale")
	assert.Equal(t, uint64(2), m.latest.Seq())
}

func TestModel_Views(t *testing.T) {
	m := newTestModel(t)

	empty, _ := update(m, snapshotMsg{Seq: 1})
	assert.Contains(t, empty.View(), "No network tasks")

	failed, _ := update(m, snapshotMsg{Seq: 1, Err: errors.New("database is locked")})
	assert.Contains(t, failed.View(), "database is locked")

	msg := snapshotOf(1, "router", "nas")
	msg.Value.Rows[0].Last = &types.LogEntry{Success: true}
	msg.Value.Rows[1].Last = &types.LogEntry{Success: false}
	rows, _ := update(m, msg)
	view := rows.View()
	assert.Contains(t, view, "ok")
	assert.Contains(t, view, "FAILED")
	assert.Contains(t, view, "stopped")
	assert.Contains(t, view, "15m0s")
}

func TestModel_Keys(t *testing.T) {
	m := newTestModel(t)

	_, cmd := update(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	assert.NotNil(t, cmd)

	quit, cmd := update(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
	assert.Empty(t, quit.View())
}

func TestRow_NextRun(t *testing.T) {
	last := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	task := &types.NetworkTask{Interval: 15, LastScheduled: last, Running: true}

	assert.Equal(t, last.Add(15*time.Minute), Row{Task: task}.NextRun())

	task.Running = false
	assert.True(t, Row{Task: task}.NextRun().IsZero())
}

func TestStoreLoader(t *testing.T) {
	store := sqlite.NewBackend()
	require.NoError(t, store.Attach(types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir(), LogMaxEntries: 10}))
	t.Cleanup(func() { store.Detach() })

	tasks, _ := store.Tasks()
	first, err := tasks.Insert(&types.NetworkTask{Address: "10.0.0.1", AccessType: types.AccessTypePing, Interval: 15})
	require.NoError(t, err)
	_, err = tasks.Insert(&types.NetworkTask{Address: "10.0.0.2", AccessType: types.AccessTypePing, Interval: 15})
	require.NoError(t, err)
	logs, _ := store.Logs()
	_, err = logs.Insert(&types.LogEntry{NetworkTaskID: first.ID, Success: true, Message: "ok"})
	require.NoError(t, err)

	snap, err := StoreLoader(store)(context.Background())
	require.NoError(t, err)
	require.Len(t, snap.Rows, 2)
	require.NotNil(t, snap.Rows[0].Last)
	assert.True(t, snap.Rows[0].Last.Success)
	assert.Nil(t, snap.Rows[1].Last)
}

func TestModel_RefreshAfterClose(t *testing.T) {
	r := uisync.NewRefresher(func(context.Context) (Snapshot, error) { return Snapshot{}, nil }, 1)
	m := NewModel(context.Background(), r, 5*time.Second)
	r.Close()

	msg := m.refresh()()
	require.Equal(t, refreshErrMsg{err: uisync.ErrClosed}, msg)

	m, cmd := update(m, msg)
	assert.Nil(t, cmd)
	assert.Contains(t, m.View(), "Refresh failed: "+uisync.ErrClosed.Error())

	m, _ = update(m, snapshotOf(1, "router"))
	assert.NotContains(t, m.View(), "Refresh failed")
}
