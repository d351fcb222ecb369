package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/mzielinska/rarog/internal/config"
	"github.com/mzielinska/rarog/internal/dispatch"
	"github.com/mzielinska/rarog/internal/errors"
	"github.com/mzielinska/rarog/internal/mcp"
	"github.com/mzielinska/rarog/internal/project"
	"github.com/mzielinska/rarog/internal/provider"
	"github.com/mzielinska/rarog/internal/registry"
	"github.com/mzielinska/rarog/internal/validate"
)

// newCLIApp creates the CLI application with all commands.
func newCLIApp(db *sql.DB, cfg *config.Config, log *zap.Logger) *cli.App {
	if log == nil {
		log = zap.NewNop()
	}
	app := &cli.App{
		Name:    "rarog",
		Usage:   "Local model assistant with context provider commands",
		Version: Version,
		Commands: []*cli.Command{
			chatCmd(db, cfg, log),
			projectCmd(db, cfg),
			lintCmd(cfg),
			commandsCmd(cfg, log),
			serveCmd(cfg, log),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// chatCmd creates the chat command.
func chatCmd(db *sql.DB, cfg *config.Config, log *zap.Logger) *cli.Command {
	return &cli.Command{
		Name:  "chat",
		Usage: "Start an interactive chat session",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "model", Aliases: []string{"m"}, Usage: "Override the configured model"},
			&cli.StringFlag{Name: "host", Usage: "Override the configured model host"},
		},
		Action: func(c *cli.Context) error {
			if model := c.String("model"); model != "" {
				cfg.Model = model
			}
			if host := c.String("host"); host != "" {
				cfg.ModelHost = host
			}

			reg := registry.New(cfg.CommandsDir, cfg.DisabledCommands, log)
			store := project.NewStore(db, cfg.ProjectsDir, log)

			// Prior sessions' bundles stay discoverable via the index.
			if known, err := project.LoadIndex(db); err == nil && len(known) > 0 {
				fmt.Printf("%d project bundle(s) from earlier sessions indexed; see 'rarog project list'\n", len(known))
			}

			prov := connectProvider(cfg, log)
			d := dispatch.New(reg, store, prov, cfg, log)
			return runREPL(c.Context, d, cfg, os.Stdin, os.Stdout)
		},
	}
}

// connectProvider dials the model server and returns nil when it is
// unreachable. Commands and project directives work without it.
func connectProvider(cfg *config.Config, log *zap.Logger) provider.Provider {
	p := provider.NewHTTP(cfg.ModelHost, cfg.Model, log)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := p.Ping(ctx); err != nil {
		fmt.Printf("note: %s\n", errors.UserMessage(errors.NewProviderUnavailable(cfg.ModelHost, nil)))
		return nil
	}
	return p
}

// projectCmd creates the project command group over the sqlite index.
func projectCmd(db *sql.DB, _ *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "project",
		Usage: "Inspect materialized project bundles",
		Subcommands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List indexed projects from all sessions",
				Action: func(_ *cli.Context) error {
					summaries, err := project.LoadIndex(db)
					if err != nil {
						return outputError(err)
					}
					return outputJSON(map[string]any{"projects": summaryViews(summaries)})
				},
			},
			{
				Name:      "info",
				Usage:     "Show one indexed project",
				ArgsUsage: "<id|name>",
				Action: func(c *cli.Context) error {
					s, err := findSummary(db, c.Args().First())
					if err != nil {
						return outputError(err)
					}
					return outputJSON(summaryView(*s))
				},
			},
			{
				Name:      "validate",
				Usage:     "Validate a project's materialized bundle",
				ArgsUsage: "<id|name>",
				Action: func(c *cli.Context) error {
					s, err := findSummary(db, c.Args().First())
					if err != nil {
						return outputError(err)
					}
					report, err := validate.Bundle(s.BundlePath)
					if err != nil {
						return outputError(err)
					}
					if err := outputJSON(report); err != nil {
						return err
					}
					if !report.Valid {
						return cli.Exit("", 1)
					}
					return nil
				},
			},
		},
	}
}

// lintCmd creates the lint command. The target kind picks the
// validator: a directory is checked as a command package, an .html
// file as a bundle, anything else as a key=value env file. With no
// target every package under the commands dir is checked.
func lintCmd(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:      "lint",
		Usage:     "Validate command packages, bundles, or env files",
		ArgsUsage: "[path]",
		Action: func(c *cli.Context) error {
			target := c.Args().First()
			if target == "" {
				return lintCommandsDir(cfg.CommandsDir)
			}

			report, err := lintTarget(target)
			if err != nil {
				return outputError(err)
			}
			if err := outputJSON(map[string]any{target: report}); err != nil {
				return err
			}
			if !report.Valid {
				return cli.Exit("", 1)
			}
			return nil
		},
	}
}

// lintTarget runs the validator matching the target's kind.
func lintTarget(target string) (*validate.Report, error) {
	info, err := os.Stat(target)
	if err != nil {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("cannot lint %s: %v", target, err))
	}
	switch {
	case info.IsDir():
		return validate.CommandPackage(target)
	case strings.HasSuffix(target, ".html"):
		return validate.Bundle(target)
	default:
		return validate.EnvFile(target)
	}
}

// lintCommandsDir validates every package under the discovery root.
func lintCommandsDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return outputJSON(map[string]any{})
		}
		return outputError(errors.NewStorage(err))
	}

	reports := make(map[string]*validate.Report)
	allValid := true
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		pkgDir := filepath.Join(dir, entry.Name())
		report, err := validate.CommandPackage(pkgDir)
		if err != nil {
			return outputError(err)
		}
		reports[entry.Name()] = report
		if !report.Valid {
			allValid = false
		}
	}

	if err := outputJSON(reports); err != nil {
		return err
	}
	if !allValid {
		return cli.Exit("", 1)
	}
	return nil
}

// commandsCmd creates the commands listing command.
func commandsCmd(cfg *config.Config, log *zap.Logger) *cli.Command {
	return &cli.Command{
		Name:  "commands",
		Usage: "List registered command units",
		Action: func(_ *cli.Context) error {
			reg := registry.New(cfg.CommandsDir, cfg.DisabledCommands, log)

			type view struct {
				Name            string   `json:"name"`
				Aliases         []string `json:"aliases,omitempty"`
				Description     string   `json:"description"`
				Category        string   `json:"category"`
				ContextProvider bool     `json:"context_provider"`
				MachineCallable bool     `json:"machine_callable"`
			}

			descs := reg.Descriptors()
			out := make([]view, 0, len(descs))
			for _, d := range descs {
				out = append(out, view{
					Name:            d.Name,
					Aliases:         d.Aliases,
					Description:     d.Description,
					Category:        string(d.Category),
					ContextProvider: d.ContextProvider,
					MachineCallable: d.MachineCallable,
				})
			}
			return outputJSON(map[string]any{"commands": out})
		},
	}
}

// serveCmd creates the explicit MCP server command.
func serveCmd(cfg *config.Config, log *zap.Logger) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the MCP server over stdio",
		Action: func(_ *cli.Context) error {
			reg := registry.New(cfg.CommandsDir, cfg.DisabledCommands, log)
			return mcp.Run(reg, cfg, Version)
		},
	}
}

// Helper functions

// summaryJSON is the CLI view of an indexed project.
type summaryJSON struct {
	ID            string   `json:"id"`
	SessionID     string   `json:"session_id"`
	Name          string   `json:"name"`
	Description   string   `json:"description,omitempty"`
	Tags          []string `json:"tags,omitempty"`
	ArtifactCount int      `json:"artifact_count"`
	BundlePath    string   `json:"bundle_path"`
	UpdatedAt     string   `json:"updated_at"`
}

func summaryView(s project.Summary) summaryJSON {
	return summaryJSON{
		ID:            s.ID,
		SessionID:     s.SessionID,
		Name:          s.Name,
		Description:   s.Description,
		Tags:          s.Tags,
		ArtifactCount: s.ArtifactCount,
		BundlePath:    s.BundlePath,
		UpdatedAt:     s.UpdatedAt.Format(time.RFC3339),
	}
}

func summaryViews(summaries []project.Summary) []summaryJSON {
	out := make([]summaryJSON, 0, len(summaries))
	for _, s := range summaries {
		out = append(out, summaryView(s))
	}
	return out
}

// findSummary resolves an indexed project by exact ID, then by
// case-insensitive name.
func findSummary(db *sql.DB, idOrName string) (*project.Summary, error) {
	if idOrName == "" {
		return nil, errors.NewInvalidRequest("project id or name is required")
	}
	summaries, err := project.LoadIndex(db)
	if err != nil {
		return nil, err
	}
	for i := range summaries {
		if summaries[i].ID == idOrName {
			return &summaries[i], nil
		}
	}
	for i := range summaries {
		if strings.EqualFold(summaries[i].Name, idOrName) {
			return &summaries[i], nil
		}
	}
	return nil, errors.NewNotFound("project", idOrName)
}

// outputJSON marshals result to stdout as JSON.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	if rErr, ok := err.(*errors.Error); ok {
		return cli.Exit(fmt.Sprintf("[%s] %s", rErr.Code, rErr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}
