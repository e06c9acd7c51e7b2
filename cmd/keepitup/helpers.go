// Shared helpers for keepitup CLI commands.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/mesh-intelligence/keepitup/internal/sqlite"
	"github.com/mesh-intelligence/keepitup/pkg/types"
)

// attachBackend resolves the data directory, creates a SQLite backend, and
// attaches it. The caller must defer backend.Detach().
func (st *state) attachBackend() (*sqlite.Backend, error) {
	dataDir, err := st.resolveDataDir()
	if err != nil {
		return nil, sysError(fmt.Errorf("resolve data dir: %w", err))
	}

	cfg := types.Config{
		Backend:       types.BackendSQLite,
		DataDir:       dataDir,
		LogMaxEntries: st.prefs.Log.MaxEntries,
	}

	backend := sqlite.NewBackend()
	if err := backend.Attach(cfg); err != nil {
		return nil, sysError(fmt.Errorf("attach backend: %w", err))
	}
	return backend, nil
}

// withBackend runs fn against an attached backend and detaches afterwards.
func (st *state) withBackend(fn func(b *sqlite.Backend) error) error {
	b, err := st.attachBackend()
	if err != nil {
		return err
	}
	defer b.Detach()
	return fn(b)
}

// printJSON writes v indented to the command output.
func (st *state) printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return sysError(fmt.Errorf("marshal JSON: %w", err))
	}
	fmt.Fprintln(st.out, string(out))
	return nil
}

// printf writes human output. Nothing is written in --json mode.
func (st *state) printf(format string, args ...any) {
	if st.flagJSON {
		return
	}
	fmt.Fprintf(st.out, format, args...)
}

func (st *state) table() *tabwriter.Writer {
	return tabwriter.NewWriter(st.out, 0, 0, 2, ' ', 0)
}

// parseID parses a positive numeric id argument.
func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %q", types.ErrInvalidID, s)
	}
	return id, nil
}

func parseIDs(args []string) ([]int64, error) {
	ids := make([]int64, 0, len(args))
	for _, a := range args {
		id, err := parseID(a)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func formatTime(ts time.Time) string {
	if ts.IsZero() {
		return "-"
	}
	return ts.Local().Format("2006-01-02 15:04:05")
}

func formatAgo(ts time.Time) string {
	if ts.IsZero() {
		return "never"
	}
	return humanize.Time(ts)
}

func runningLabel(running bool) string {
	if running {
		return "running"
	}
	return "stopped"
}

func resultLabel(success bool) string {
	if success {
		return "ok"
	}
	return "FAILED"
}

func writeTasks(w io.Writer, tasks []*types.NetworkTask) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\t#\tNAME\tTYPE\tTARGET\tINTERVAL\tSTATE\tNOTIFY\tLAST RUN")
	for _, t := range tasks {
		fmt.Fprintf(tw, "%d\t%d\t%s\t%s\t%s\t%s\t%s\t%t\t%s\n",
			t.ID, t.Index, t.DisplayName(), t.AccessType, t.Target(),
			t.IntervalDuration(), runningLabel(t.Running), t.Notification, formatAgo(t.LastScheduled))
	}
	tw.Flush()
}
