package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/prophist/internal"
	"github.com/starford/prophist/internal/historyservice"
	"github.com/starford/prophist/internal/render"
	pkgconfig "github.com/starford/prophist/pkg/config"
)

var version = "dev"

// loadConfig reads the config file (defaults when it does not exist) and
// applies the --repo override.
func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	if _, err := pkgconfig.LoadOrDefault(cmd.String("config"), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if repo := cmd.String("repo"); repo != "" {
		cfg.Repository.Path = repo
	}
	return cfg, nil
}

// openCLI wires the history stack for one-shot commands. Logs go to
// stderr so stdout carries only rendered output.
func openCLI(ctx context.Context, cmd *cli.Command) (*internal.Services, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	logger := internal.NewLogger(os.Stderr, cfg.App.LogLevel)
	slog.SetDefault(logger)
	return internal.OpenServices(ctx, cfg, logger)
}

func newRenderer(cmd *cli.Command) (*render.Renderer, render.Format, error) {
	format, err := render.ParseFormat(cmd.String("format"))
	if err != nil {
		return nil, "", err
	}
	var colored bool
	switch mode := cmd.String("color"); mode {
	case "always":
		colored = true
	case "never":
		colored = false
	case "auto", "":
		colored = render.ColorEnabled(os.Stdout)
	default:
		return nil, "", fmt.Errorf("unknown color mode %q (want auto, always or never)", mode)
	}
	return render.New(render.WithColor(colored), render.WithDiff(cmd.Bool("diff"))), format, nil
}

func historyAction(ctx context.Context, cmd *cli.Command) error {
	r, format, err := newRenderer(cmd)
	if err != nil {
		return err
	}
	svcs, err := openCLI(ctx, cmd)
	if err != nil {
		return err
	}
	defer svcs.Close()

	res, err := svcs.History.PropertyHistory(ctx, historyservice.Request{
		Asset:    cmd.String("asset"),
		AnchorID: cmd.String("anchor"),
		Path:     cmd.String("path"),
		Limit:    int(cmd.Int("limit")),
	})
	if err != nil {
		return err
	}
	return r.History(os.Stdout, format, res)
}

func revisionsAction(ctx context.Context, cmd *cli.Command) error {
	r, format, err := newRenderer(cmd)
	if err != nil {
		return err
	}
	svcs, err := openCLI(ctx, cmd)
	if err != nil {
		return err
	}
	defer svcs.Close()

	revs, err := svcs.History.Revisions(ctx, cmd.String("asset"), int(cmd.Int("limit")))
	if err != nil {
		return err
	}
	return r.Revisions(os.Stdout, format, revs)
}

func objectsAction(ctx context.Context, cmd *cli.Command) error {
	r, format, err := newRenderer(cmd)
	if err != nil {
		return err
	}
	svcs, err := openCLI(ctx, cmd)
	if err != nil {
		return err
	}
	defer svcs.Close()

	res, err := svcs.History.Objects(ctx, cmd.String("asset"), cmd.String("revision"))
	if err != nil {
		return err
	}
	return r.Objects(os.Stdout, format, res)
}

func serveAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := internal.Run(ctx, internal.WithConfig(cfg), internal.WithVersion(version)); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func mcpAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return internal.RunMCP(ctx, internal.WithConfig(cfg), internal.WithVersion(version))
}

func outputFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "format",
			Aliases: []string{"f"},
			Usage:   "Output format: text, table or json",
			Value:   "text",
		},
		&cli.StringFlag{
			Name:  "color",
			Usage: "Colour output: auto, always or never",
			Value: "auto",
		},
	}
}

func assetFlag() cli.Flag {
	return &cli.StringFlag{
		Name:     "asset",
		Aliases:  []string{"a"},
		Usage:    "Asset path (absolute, or relative to the repository root)",
		Required: true,
	}
}

func main() {
	cmd := &cli.Command{
		Name:    "prophist",
		Usage:   "Trace how a single property of a Unity asset changed across git history",
		Version: version,
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
				Name:    "repo",
				Aliases: []string{"C"},
				Usage:   "Repository path (overrides repository.path)",
				Sources: cli.EnvVars("PROPHIST_REPO"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "history",
				Usage: "Show the revisions at which a property changed, newest first",
				Flags: append([]cli.Flag{
					assetFlag(),
					&cli.StringFlag{Name: "anchor", Usage: "Object anchor id (see 'objects')", Required: true},
					&cli.StringFlag{Name: "path", Aliases: []string{"p"}, Usage: "Property path, e.g. m_Items.Array.data[0]", Required: true},
					&cli.IntFlag{Name: "limit", Aliases: []string{"n"}, Usage: "Revisions to scan (0 = all)"},
					&cli.BoolFlag{Name: "diff", Usage: "Show a character diff against the previous value", Value: true},
				}, outputFlags()...),
				Action: historyAction,
			},
			{
				Name:  "revisions",
				Usage: "List the revisions that touched an asset",
				Flags: append([]cli.Flag{
					assetFlag(),
					&cli.IntFlag{Name: "limit", Aliases: []string{"n"}, Usage: "Maximum revisions (0 = all)"},
				}, outputFlags()...),
				Action: revisionsAction,
			},
			{
				Name:  "objects",
				Usage: "List the anchored objects of an asset",
				Flags: append([]cli.Flag{
					assetFlag(),
					&cli.StringFlag{Name: "revision", Aliases: []string{"r"}, Usage: "Revision id (default newest)"},
				}, outputFlags()...),
				Action: objectsAction,
			},
			{
				Name:   "serve",
				Usage:  "Run the HTTP API with live change notifications",
				Action: serveAction,
			},
			{
				Name:   "mcp",
				Usage:  "Serve the history tools over MCP stdio",
				Action: mcpAction,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
