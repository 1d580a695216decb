package main

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/reelfeed/reelfeed/internal/seed"
)

func seedCommand() *cli.Command {
	return &cli.Command{
		Name:  "seed",
		Usage: "Create fixture users and upload sample clips for local testing",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "clear",
				Usage: "Delete the fixture users' existing videos first",
			},
			&cli.BoolFlag{
				Name:  "skip-clips",
				Usage: "Only create the users",
			},
			&cli.StringSliceFlag{
				Name:  "clip",
				Usage: "File path or URL of a clip to upload instead of the public samples (repeatable)",
			},
		},
		Action: runSeed,
	}
}

func runSeed(ctx context.Context, cmd *cli.Command) error {
	opts := seed.Options{
		Users:     seed.DefaultUsers,
		Clips:     seed.DefaultClips,
		Clear:     cmd.Bool("clear"),
		SkipClips: cmd.Bool("skip-clips"),
	}
	if sources := cmd.StringSlice("clip"); len(sources) > 0 {
		opts.Clips = clipsFromSources(sources, len(opts.Users))
	}

	res, err := seed.New(cmd.String("server"), seed.WithLogger(slog.Default())).Run(ctx, opts)
	if err != nil {
		return fmt.Errorf("seed: %w", err)
	}

	w := cmd.Root().Writer
	_, _ = fmt.Fprintf(w, "users ready: %d\n", len(res.Users))
	if opts.Clear {
		_, _ = fmt.Fprintf(w, "videos cleared: %d\n", res.Cleared)
	}
	_, _ = fmt.Fprintf(w, "videos added: %d\n", len(res.Videos))
	for _, v := range res.Videos {
		_, _ = fmt.Fprintf(w, "  %s  %s\n", v.ID, v.Description)
	}
	return nil
}

// clipsFromSources spreads sources over the fixture users in turn.
func clipsFromSources(sources []string, users int) []seed.Clip {
	clips := make([]seed.Clip, 0, len(sources))
	for i, src := range sources {
		name := filepath.Base(src)
		clips = append(clips, seed.Clip{
			Owner:       i % users,
			Source:      src,
			Description: strings.TrimSuffix(name, filepath.Ext(name)),
		})
	}
	return clips
}
