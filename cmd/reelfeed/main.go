package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/reelfeed/reelfeed/internal/client"
)

func main() {
	if err := newApp().Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "reelfeed:", err)
		os.Exit(1)
	}
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:  "reelfeed",
		Usage: "Watch and post short videos from the terminal",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "server",
				Aliases: []string{"s"},
				Usage:   "Base URL of the reelfeed API",
				Value:   "http://localhost:8080",
				Sources: cli.EnvVars("REELFEED_SERVER"),
			},
			&cli.StringFlag{
				Name:    "token",
				Usage:   "Access token for authenticated actions",
				Sources: cli.EnvVars("REELFEED_TOKEN"),
			},
			&cli.IntFlag{
				Name:    "limit",
				Usage:   "Number of videos to load into the feed",
				Value:   10,
				Sources: cli.EnvVars("REELFEED_LIMIT"),
			},
			&cli.StringFlag{
				Name:    "log-file",
				Usage:   "File receiving client logs",
				Value:   filepath.Join(os.TempDir(), "reelfeed.log"),
				Sources: cli.EnvVars("REELFEED_LOG_FILE"),
			},
		},
		Before: setupLogging,
		Action: runFeed,
		Commands: []*cli.Command{
			loginCommand(),
			uploadCommand(),
			seedCommand(),
		},
	}
}

// setupLogging sends slog output to the log file so it never lands on the
// terminal the feed is drawn on.
func setupLogging(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	var w io.Writer = io.Discard
	if path := cmd.String("log-file"); path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
		if err != nil {
			return ctx, fmt.Errorf("open log file: %w", err)
		}
		w = f
	}
	logger := log.NewWithOptions(w, log.Options{ReportTimestamp: true, Prefix: "reelfeed"})
	slog.SetDefault(slog.New(logger))
	return ctx, nil
}

func newClient(cmd *cli.Command) *client.Client {
	return client.New(cmd.String("server"), client.WithToken(cmd.String("token")))
}
