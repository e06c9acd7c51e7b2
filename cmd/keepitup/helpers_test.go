package main

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/keepitup/internal/logging"
)

// env is an isolated config and data directory pair.
type env struct {
	configDir string
	dataDir   string
}

func newEnv(t *testing.T) *env {
	t.Helper()
	root := t.TempDir()
	t.Cleanup(logging.Reset)
	return &env{
		configDir: filepath.Join(root, "config"),
		dataDir:   filepath.Join(root, "data"),
	}
}

// run executes the CLI in-process and returns stdout, stderr and the exit
// code.
func (e *env) run(args ...string) (string, string, int) {
	var out, errOut bytes.Buffer
	full := append([]string{"--config-dir", e.configDir, "--data-dir", e.dataDir}, args...)
	code := execute(full, &out, &errOut)
	return out.String(), errOut.String(), code
}

// mustRun fails the test unless the command exits with exitSuccess.
func (e *env) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, errOut, code := e.run(args...)
	require.Equal(t, exitSuccess, code, "keepitup %v: %s", args, errOut)
	return out
}

// mustJSON runs the command with --json and decodes its output into v.
func (e *env) mustJSON(t *testing.T, v any, args ...string) {
	t.Helper()
	out := e.mustRun(t, append([]string{"--json"}, args...)...)
	require.NoError(t, json.Unmarshal([]byte(out), v), "output: %s", out)
}
