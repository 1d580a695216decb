package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
)

func loginCommand() *cli.Command {
	return &cli.Command{
		Name:  "login",
		Usage: "Sign in and print an access token for --token",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "email",
				Required: true,
				Sources:  cli.EnvVars("REELFEED_EMAIL"),
			},
			&cli.StringFlag{
				Name:     "password",
				Required: true,
				Sources:  cli.EnvVars("REELFEED_PASSWORD"),
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			token, err := newClient(cmd).Login(ctx, cmd.String("email"), cmd.String("password"))
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.Root().Writer, token)
			return err
		},
	}
}
