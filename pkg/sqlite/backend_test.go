package sqlite

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/keepitup/pkg/types"
)

func TestNewBackend(t *testing.T) {
	store := NewBackend()
	_, err := store.Tasks()
	assert.ErrorIs(t, err, types.ErrStoreDetached)

	require.NoError(t, store.Attach(types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir()}))
	defer store.Detach()

	tasks, err := store.Tasks()
	require.NoError(t, err)
	task, err := tasks.Insert(&types.NetworkTask{Address: "10.0.0.1", AccessType: types.AccessTypePing, Interval: 10})
	require.NoError(t, err)
	assert.Equal(t, 0, task.Index)
}
