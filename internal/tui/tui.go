package tui

import (
	"context"
	"log/slog"

	"taskboard-cli/internal/effects"

	tea "github.com/charmbracelet/bubbletea"
)

type Options struct {
	Runner *effects.Runner
	Logger *slog.Logger

	// Username prefills the login form.
	Username string
	// SignedIn starts on the board and loads it; otherwise the auth view is shown.
	SignedIn bool
}

func Run(ctx context.Context, opts Options) error {
	applyColorProfilePreference()
	applyThemePreference()

	m := newAppModel(ctx, opts)
	_, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	return err
}
