package main

import (
	"context"
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/trackdown/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive resolution history browser.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	r.reloadConfig(cmd)

	s, err := r.buildStack(true)
	if err != nil {
		return err
	}
	defer s.Close()

	// Silence logs so they do not interfere with TUI rendering
	r.logger.SetOutput(io.Discard)

	model := ui.NewModel(s.repo, cmd.Int("limit"))
	p := tea.NewProgram(model, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
