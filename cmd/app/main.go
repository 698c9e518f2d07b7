// Package main provides the entry point for the application with CLI commands.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/gsPatrick/garimponos-sign/cmd/app/commands"
)

const version = "1.0.0"

func main() {
	cmd := &cli.Command{
		Name:    "app",
		Usage:   "Multi-party electronic signature service",
		Version: version,
		Commands: []*cli.Command{
			{
				Name:  "server",
				Usage: "Start the HTTP server",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunServer(ctx, version)
				},
			},
			{
				Name:  "migrate",
				Usage: "Run database migrations",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunMigrationsFromConfig()
				},
			},
			{
				Name:  "dispatch-worker",
				Usage: "Start the invitation and OTP delivery worker",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunDispatchWorker(ctx)
				},
			},
			{
				Name:  "sweep-expired",
				Usage: "Expire documents whose signing deadline has passed",
				Flags: []cli.Flag{
					&cli.UintFlag{
						Name:    "batch-size",
						Aliases: []string{"b"},
						Usage:   "Number of documents to expire per run (defaults to SWEEP_BATCH_SIZE)",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunSweepExpired(ctx, uint(cmd.Uint("batch-size")))
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.Any("error", err))
		os.Exit(1)
	}
}
