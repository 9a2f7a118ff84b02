package tui

import (
	"context"
	"fmt"

	"zondwallet/pkg/wallet"

	tea "github.com/charmbracelet/bubbletea"
)

// Start runs the interactive wallet until the user quits or ctx ends.
func Start(ctx context.Context, e *wallet.Engine, version string) error {
	Version = version
	m := initialModel(ctx, e)
	defer e.Unsubscribe(m.sub)

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("alas, there's been an error: %w", err)
	}
	return nil
}
