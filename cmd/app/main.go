package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/nexusmap/internal"
	pkgconfig "github.com/starford/nexusmap/pkg/config"
)

func loadConfig(cmd *cli.Command, required bool) (*internal.Config, error) {
	configPath := cmd.String("config")
	cfg := internal.NewDefaultConfig()
	load := pkgconfig.LoadOptional[internal.Config]
	if required {
		load = pkgconfig.Load[internal.Config]
	}
	if err := load(configPath, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd, true)
	if err != nil {
		return err
	}
	if err := internal.Run(ctx, internal.WithConfig(cfg)); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func serveMCP(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd, false)
	if err != nil {
		return err
	}
	return internal.ServeMCP(ctx, internal.WithConfig(cfg))
}

func validateFile(_ context.Context, cmd *cli.Command) error {
	path := cmd.Args().First()
	if path == "" {
		return cli.Exit("usage: nexusmap validate <file>", 2)
	}
	cfg, err := loadConfig(cmd, false)
	if err != nil {
		return err
	}
	if !cmd.Bool("lenient") {
		cfg.Engine.Strict()
	}

	report, err := internal.ValidateFile(path, cfg)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return err
	}
	if !report.OK() {
		return cli.Exit(fmt.Sprintf("%s: %d errors", path, report.Summary.Errors), 1)
	}
	return nil
}

func main() {
	cmd := &cli.Command{
		Name:   "nexusmap",
		Usage:  "Outline and registry consistency engine for process maps",
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
				Usage:  "Run the HTTP API, SSE stream and vault watcher",
				Action: serve,
			},
			{
				Name:      "validate",
				Usage:     "Validate one document and print the JSON report",
				ArgsUsage: "<file>",
				Action:    validateFile,
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "lenient", Usage: "Apply the configured tag policies instead of enforcing all of them"},
				},
			},
			{
				Name:   "mcp",
				Usage:  "Serve the vault over the MCP stdio transport",
				Action: serveMCP,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
