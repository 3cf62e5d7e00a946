package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"LocalDoodle/internal"
	"LocalDoodle/internal/net"
	pkgconfig "LocalDoodle/pkg/config"
)

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.LoadOptional(cmd.String("config"), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if name := cmd.String("name"); name != "" {
		cfg.App.Name = name
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("invalid name: %w", err)
		}
	}
	return cfg, nil
}

func host(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := internal.RunHost(ctx, internal.WithConfig(cfg)); err != nil {
		return fmt.Errorf("host error: %w", err)
	}
	return nil
}

func join(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	opts := []internal.Option{
		internal.WithConfig(cfg),
		internal.WithShareLink(cmd.Args().First()),
	}
	if err := internal.RunJoin(ctx, opts...); err != nil {
		return fmt.Errorf("join error: %w", err)
	}
	return nil
}

// run lets the OS hand a share link straight to the binary: a bare link
// joins, no argument hosts.
func run(ctx context.Context, cmd *cli.Command) error {
	if strings.HasPrefix(cmd.Args().First(), net.LinkScheme) {
		return join(ctx, cmd)
	}
	return host(ctx, cmd)
}

func main() {
	cmd := &cli.Command{
		Name:      "localdoodle",
		Usage:     "Draw together on the local network",
		ArgsUsage: "[localdoodle://host:port]",
		Action:    run,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
			&cli.StringFlag{
				Name:    "name",
				Aliases: []string{"n"},
				Usage:   "Identity announced to peers (overrides app.name)",
				Sources: cli.EnvVars("LOCALDOODLE_NAME"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "host",
				Usage:  "Wait for peers and open a board for each of them",
				Action: host,
			},
			{
				Name:      "join",
				Usage:     "Connect to a host; without a link the local network is browsed",
				ArgsUsage: "[localdoodle://host:port]",
				Action:    join,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
