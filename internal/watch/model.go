// Package watch is the terminal dashboard behind "keepitup watch".
package watch

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/mesh-intelligence/keepitup/internal/uisync"
	"github.com/mesh-intelligence/keepitup/pkg/types"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	spinStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
)

type keyMap struct {
	Refresh key.Binding
	Quit    key.Binding
}

var keys = keyMap{
	Refresh: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
	Quit:    key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q", "quit")),
}

type (
	tickMsg       time.Time
	snapshotMsg   uisync.Result[Snapshot]
	refreshErrMsg struct{ err error }
)

// Model is the bubbletea model of the dashboard. Store reads run on the
// refresher; results older than the one shown are ignored.
type Model struct {
	ctx        context.Context
	refresher  *uisync.Refresher[Snapshot]
	latest     uisync.Latest[Snapshot]
	interval   time.Duration
	spinner    spinner.Model
	refreshErr error
	quitting   bool
}

// NewModel returns a dashboard that refreshes every interval.
func NewModel(ctx context.Context, refresher *uisync.Refresher[Snapshot], interval time.Duration) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = spinStyle
	return Model{ctx: ctx, refresher: refresher, interval: interval, spinner: s}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.refresh(), m.waitForSnapshot(), m.tick())
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m Model) refresh() tea.Cmd {
	return func() tea.Msg {
		// The result arrives through waitForSnapshot.
		if _, err := m.refresher.Refresh(m.ctx); err != nil {
			return refreshErrMsg{err: err}
		}
		return nil
	}
}

func (m Model) waitForSnapshot() tea.Cmd {
	return func() tea.Msg {
		res, ok := <-m.refresher.Results()
		if !ok {
			return nil
		}
		return snapshotMsg(res)
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, keys.Refresh):
			return m, m.refresh()
		}

	case tickMsg:
		return m, tea.Batch(m.refresh(), m.tick())

	case snapshotMsg:
		if m.latest.Accept(uisync.Result[Snapshot](msg)) {
			m.refreshErr = nil
		}
		return m, m.waitForSnapshot()

	case refreshErrMsg:
		m.refreshErr = msg.err
		return m, nil

	case spinner.TickMsg:
		if m.latest.Set() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render("KeepItUp") + "\n\n")
	if m.refreshErr != nil {
		b.WriteString(errStyle.Render("  Refresh failed: "+m.refreshErr.Error()) + "\n")
	}

	if !m.latest.Set() {
		b.WriteString(fmt.Sprintf("  %s Loading tasks...\n", m.spinner.View()))
		return b.String()
	}

	snap, err := m.latest.Value()
	if err != nil {
		b.WriteString(errStyle.Render("  Error: "+err.Error()) + "\n")
	} else if len(snap.Rows) == 0 {
		b.WriteString(dimStyle.Render("  No network tasks. Add one with: keepitup task add") + "\n")
	} else {
		b.WriteString(renderRows(snap.Rows))
	}

	b.WriteString("\n" + dimStyle.Render(fmt.Sprintf("  refresh every %s  %s  %s",
		m.interval, keys.Refresh.Help().Key+" "+keys.Refresh.Help().Desc,
		keys.Quit.Help().Key+" "+keys.Quit.Help().Desc)) + "\n")
	return b.String()
}

func renderRows(rows []Row) string {
	var b strings.Builder
	w := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "  #\tNAME\tTYPE\tTARGET\tSTATE\tLAST RESULT\tLAST RUN\tNEXT RUN\tINTERVAL")
	for _, r := range rows {
		state := "stopped"
		if r.Task.Running {
			state = "running"
		}
		fmt.Fprintf(w, "  %d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.Task.Index,
			r.Task.DisplayName(),
			r.Task.AccessType,
			r.Task.Target(),
			state,
			lastResult(r.Last),
			since(r.Task.LastScheduled),
			since(r.NextRun()),
			r.Task.IntervalDuration().String())
	}
	w.Flush()
	return b.String()
}

// lastResult is rendered without color so tabwriter can align the columns.
func lastResult(e *types.LogEntry) string {
	switch {
	case e == nil:
		return "-"
	case e.Success:
		return "ok"
	default:
		return "FAILED"
	}
}

func since(ts time.Time) string {
	if ts.IsZero() {
		return "-"
	}
	return humanize.Time(ts)
}
