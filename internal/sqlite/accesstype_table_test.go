package sqlite

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/keepitup/pkg/types"
)

func TestAccessTypeDataTable(t *testing.T) {
	b := setupBackend(t, 0)
	tasks, err := b.Tasks()
	require.NoError(t, err)
	task, err := tasks.Insert(pingTask("10.0.0.1"))
	require.NoError(t, err)
	atd, err := b.AccessTypeData()
	require.NoError(t, err)

	got, err := atd.Get(task.ID)
	require.NoError(t, err)
	assert.Equal(t, types.DefaultAccessTypeData(task.ID), got, "defaults when nothing stored")

	data := &types.AccessTypeData{
		NetworkTaskID:   task.ID,
		PingCount:       7,
		PingPackageSize: 1024,
		ConnectCount:    4,
		StopOnSuccess:   true,
		IgnoreSSLError:  true,
	}
	require.NoError(t, atd.Set(data))
	got, err = atd.Get(task.ID)
	require.NoError(t, err)
	assert.Equal(t, data, got)

	data.PingCount = 2
	data.IgnoreSSLError = false
	require.NoError(t, atd.Set(data), "Set upserts")
	got, err = atd.Get(task.ID)
	require.NoError(t, err)
	assert.Equal(t, data, got)

	require.NoError(t, atd.Delete(task.ID))
	got, err = atd.Get(task.ID)
	require.NoError(t, err)
	assert.Equal(t, types.DefaultPingCount, got.PingCount)
}

func TestAccessTypeDataTable_Errors(t *testing.T) {
	b := setupBackend(t, 0)
	atd, err := b.AccessTypeData()
	require.NoError(t, err)

	_, err = atd.Get(42)
	assert.ErrorIs(t, err, types.ErrNotFound)

	assert.ErrorIs(t, atd.Set(types.DefaultAccessTypeData(42)), types.ErrNotFound)
	assert.ErrorIs(t, atd.Set(&types.AccessTypeData{NetworkTaskID: 1}), types.ErrInvalidAccessTypeData)
	assert.ErrorIs(t, atd.Set(nil), types.ErrInvalidID)
}
