package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v3"
)

func uploadCommand() *cli.Command {
	return &cli.Command{
		Name:  "upload",
		Usage: "Upload a video to the feed",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "file",
				Aliases:  []string{"f"},
				Usage:    "Path to an mp4, webm or mov file",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "description",
				Aliases:  []string{"d"},
				Usage:    "Caption shown under the video",
				Required: true,
			},
		},
		Action: runUpload,
	}
}

func runUpload(ctx context.Context, cmd *cli.Command) error {
	if cmd.String("token") == "" {
		return errors.New("uploading requires --token (see `reelfeed login`)")
	}

	path := cmd.String("file")
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open video: %w", err)
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat video: %w", err)
	}

	video, err := newClient(cmd).UploadVideo(ctx, path, f, cmd.String("description"))
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(cmd.Root().Writer, "uploaded %s (%s) as video %s\n",
		filepath.Base(path), humanize.Bytes(uint64(info.Size())), video.ID)
	return err
}
