package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/keepitup/pkg/types"
)

func TestDefaultConfigYAML(t *testing.T) {
	content, err := defaultConfigYAML()
	require.NoError(t, err)
	assert.Contains(t, string(content), "# KeepItUp configuration")
	var keys map[string]any
	require.NoError(t, yaml.Unmarshal(content, &keys))
	assert.NotContains(t, keys, cfgKeyDataDir, "empty data_dir is omitted")
	assert.Contains(t, keys, "task_defaults")

	var doc configDocument
	require.NoError(t, yaml.Unmarshal(content, &doc))
	assert.Equal(t, types.DefaultPreferences(), doc.Preferences)
}

func TestLoadConfigDefaults(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "cfg")
	v, err := loadConfig(dir)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, configFileExt))

	prefs, err := preferencesFrom(v)
	require.NoError(t, err)
	assert.Equal(t, types.DefaultPreferences(), prefs)
}

func TestLoadConfigEnvOverride(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, configFileExt), []byte("download:\n  keep: true\n"), 0o644))
	t.Setenv("KEEPITUP_TASK_DEFAULTS_INTERVAL", "60")

	v, err := loadConfig(dir)
	require.NoError(t, err)
	prefs, err := preferencesFrom(v)
	require.NoError(t, err)
	assert.True(t, prefs.Download.Keep)
	assert.Equal(t, 60, prefs.TaskDefaults.Interval)
	assert.Equal(t, types.DefaultLogMaxEntries, prefs.Log.MaxEntries)
}

func TestEnvName(t *testing.T) {
	assert.Equal(t, "KEEPITUP_LOG_MAX_ENTRIES", envName("log.max_entries"))
	assert.Equal(t, "KEEPITUP_WATCH_REFRESH", envName("watch.refresh"))
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "not found", err: fmt.Errorf("task 3: %w", types.ErrNotFound), want: exitUserError},
		{name: "usage", err: fmt.Errorf("%w: bad", errUsage), want: exitUserError},
		{name: "overlap", err: types.ErrIntervalOverlap, want: exitUserError},
		{name: "system", err: errors.New("disk on fire"), want: exitSysError},
		{name: "already classified", err: sysError(types.ErrNotFound), want: exitSysError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ee *exitError
			require.ErrorAs(t, classify(tt.err), &ee)
			assert.Equal(t, tt.want, ee.code)
			assert.ErrorIs(t, ee, tt.err)
		})
	}
	assert.NoError(t, classify(nil))
}
