package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
)

// Run starts the terminal client on the alternate screen and blocks until
// the player quits or ctx is cancelled.
func Run(ctx context.Context, gen Generator, opts Options) error {
	m := New(ctx, gen, opts)
	program := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	final, err := program.Run()
	if fm, ok := final.(Model); ok {
		fm.stopGeneration()
		fm.teardown()
	}
	if err != nil {
		return fmt.Errorf("run terminal client: %w", err)
	}
	return nil
}
