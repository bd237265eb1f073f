package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/chordsheet/internal"
	"github.com/starford/chordsheet/internal/songservice"
	"github.com/starford/chordsheet/internal/transpose"
	pkgconfig "github.com/starford/chordsheet/pkg/config"
)

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.Load(cmd.String("config"), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := internal.Run(ctx, internal.WithConfig(cfg)); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func mcp(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return internal.RunMCP(ctx, internal.WithConfig(cfg))
}

func syncCloud(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return internal.RunSync(ctx, internal.WithConfig(cfg))
}

// render works without a config file; one is used for style and the default
// notation when it exists.
func render(_ context.Context, cmd *cli.Command) error {
	path := cmd.Args().First()
	if path == "" {
		return errors.New("render: song file argument is required")
	}

	cfg := internal.NewDefaultConfig()
	if _, err := pkgconfig.LoadIfExists(cmd.String("config"), cfg); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}

	var req songservice.RenderRequest
	if v := cmd.String("capo"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("render: --capo: %w", err)
		}
		req.Capo = &n
	}
	if v := cmd.String("transpose"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("render: --transpose: %w", err)
		}
		req.Transpose = n
	}
	if cmd.IsSet("notation") {
		n, err := transpose.ParseNotation(cmd.String("notation"))
		if err != nil {
			return fmt.Errorf("render: --notation: %w", err)
		}
		req.Notation = &n
	}

	return internal.RenderFile(os.Stdout, path, req, cmd.String("format"), cfg.Render)
}

func main() {
	cmd := &cli.Command{
		Name:   "chordsheet",
		Usage:  "Chord sheet library with transposing renderer, full-text search, and cloud sync",
		Action: serve,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP API, library watcher and live events",
				Action: serve,
			},
			{
				Name:      "render",
				Usage:     "Render a song file to HTML or JSON on stdout",
				ArgsUsage: "<file>",
				Action:    render,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "capo", Usage: "Capo fret (overrides the song)"},
					&cli.StringFlag{Name: "transpose", Usage: "Extra semitones up"},
					&cli.StringFlag{Name: "notation", Usage: `"b" for flats, "#" for sharps`},
					&cli.StringFlag{Name: "format", Usage: "html or json", Value: internal.FormatHTML},
				},
			},
			{
				Name:   "mcp",
				Usage:  "Serve MCP tools on stdio",
				Action: mcp,
			},
			{
				Name:   "sync",
				Usage:  "Pull changed songs from the configured pCloud folder",
				Action: syncCloud,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
