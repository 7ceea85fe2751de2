package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/tasksort/internal"
	"github.com/starford/tasksort/internal/blocks"
	"github.com/starford/tasksort/internal/noteservice"
	pkgconfig "github.com/starford/tasksort/pkg/config"
)

var version = "dev"

// loadOptions reads the config file. Only serve requires it to exist.
func loadOptions(cmd *cli.Command, required bool) ([]internal.Option, error) {
	configPath := cmd.String("config")

	cfg := internal.NewDefaultConfig()
	load := pkgconfig.LoadOptional[internal.Config]
	if required {
		load = pkgconfig.Load[internal.Config]
	}
	if err := load(configPath, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if v := cmd.String("vault"); v != "" {
		cfg.Vault.Path = v
	}

	return []internal.Option{
		internal.WithConfig(cfg),
		internal.WithVersion(version),
	}, nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	opts, err := loadOptions(cmd, true)
	if err != nil {
		return err
	}
	if err := internal.Run(ctx, opts...); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func mcp(ctx context.Context, cmd *cli.Command) error {
	opts, err := loadOptions(cmd, false)
	if err != nil {
		return err
	}
	return internal.RunMCP(ctx, opts...)
}

func sortNote(ctx context.Context, cmd *cli.Command) error {
	note := cmd.Args().First()
	if note == "" {
		return cli.Exit("usage: tasksort sort <note>", 2)
	}
	opts, err := loadOptions(cmd, false)
	if err != nil {
		return err
	}

	req := noteservice.SortRequest{
		Fields:       cmd.StringSlice("by"),
		HeadingLevel: int(cmd.Int("heading-level")),
	}
	if cmd.IsSet("heading") {
		v := cmd.Bool("heading")
		req.IncludeHeading = &v
	}
	if cmd.IsSet("subheadings") {
		v := cmd.Bool("subheadings")
		req.Subheadings = &v
	}
	if cmd.IsSet("separator") {
		v := cmd.Bool("separator")
		req.Separator = &v
	}
	if cmd.IsSet("backup") {
		v := cmd.Bool("backup")
		req.Backup = &v
	}
	if t := cmd.String("types"); t != "" {
		if req.Types, err = internal.ParseTypes(t); err != nil {
			return err
		}
	}
	return internal.Sort(ctx, note, req, opts...)
}

func printBlocks(ctx context.Context, cmd *cli.Command) error {
	note := cmd.Args().First()
	if note == "" {
		return cli.Exit("usage: tasksort blocks <note>", 2)
	}
	opts, err := loadOptions(cmd, false)
	if err != nil {
		return err
	}
	return internal.PrintBlocks(ctx, note, opts...)
}

func printBlockAt(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() != 2 {
		return cli.Exit("usage: tasksort block <note> <line>", 2)
	}
	line, err := strconv.Atoi(cmd.Args().Get(1))
	if err != nil {
		return cli.Exit(fmt.Sprintf("line must be a number: %v", err), 2)
	}
	opts, err := loadOptions(cmd, false)
	if err != nil {
		return err
	}
	around := blocks.AroundOptions{
		FromStartOfSection: cmd.Bool("from-start"),
		Tight:              cmd.Bool("tight"),
	}
	return internal.PrintBlockAt(ctx, cmd.Args().First(), line, around, opts...)
}

func main() {
	cmd := &cli.Command{
		Name:    "tasksort",
		Usage:   "Sort the tasks in Markdown notes and inspect their block structure",
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
				Name:    "vault",
				Usage:   "Vault directory, overrides vault.path",
				Sources: cli.EnvVars("TASKSORT_VAULT"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Serve the HTTP API and keep the index in sync with the vault",
				Action: serve,
			},
			{
				Name:   "mcp",
				Usage:  "Serve the MCP tools over stdio",
				Action: mcp,
			},
			{
				Name:      "sort",
				Usage:     "Sort the tasks of a note, asking for unset choices",
				ArgsUsage: "<note>",
				Action:    sortNote,
				Flags: []cli.Flag{
					&cli.StringSliceFlag{Name: "by", Usage: "Sort fields, prefix with - for descending (e.g. -priority)"},
					&cli.BoolFlag{Name: "heading", Usage: "Add a heading above each task group"},
					&cli.BoolFlag{Name: "subheadings", Usage: "Add a subheading when the first sort field changes"},
					&cli.BoolFlag{Name: "separator", Usage: "Add a --- line after each task group"},
					&cli.BoolFlag{Name: "backup", Usage: "Copy moved tasks to the backup note first"},
					&cli.IntFlag{Name: "heading-level", Usage: "Level of the task group heading (1-5)"},
					&cli.StringFlag{Name: "types", Usage: "Comma separated task types to move (open,scheduled,done,cancelled)"},
				},
			},
			{
				Name:      "blocks",
				Usage:     "Print the blocks of a note",
				ArgsUsage: "<note>",
				Action:    printBlocks,
			},
			{
				Name:      "block",
				Usage:     "Print the block around a line of a note",
				ArgsUsage: "<note> <line>",
				Action:    printBlockAt,
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "from-start", Usage: "Start from the enclosing section"},
					&cli.BoolFlag{Name: "tight", Usage: "Stop at empty lines and separators"},
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
