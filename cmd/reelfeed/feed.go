package main

import (
	"context"
	"fmt"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v3"

	"github.com/reelfeed/reelfeed/internal/tui"
)

func runFeed(ctx context.Context, cmd *cli.Command) error {
	model := tui.NewModel(ctx, tui.Config{
		API:    newClient(cmd),
		Limit:  int(cmd.Int("limit")),
		Logger: slog.Default(),
	})
	defer model.Close()

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running feed: %w", err)
	}
	return nil
}
