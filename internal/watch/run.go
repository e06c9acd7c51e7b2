package watch

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mesh-intelligence/keepitup/internal/uisync"
	"github.com/mesh-intelligence/keepitup/pkg/types"
)

// Run shows the dashboard until the user quits or ctx is done.
func Run(ctx context.Context, store types.Store, interval time.Duration, opts ...tea.ProgramOption) error {
	refresher := uisync.NewRefresher(StoreLoader(store), 4)
	defer refresher.Close()

	opts = append([]tea.ProgramOption{tea.WithContext(ctx)}, opts...)
	_, err := tea.NewProgram(NewModel(ctx, refresher, interval), opts...).Run()
	return err
}
