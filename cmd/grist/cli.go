package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/hpungsan/grist/internal/backlog"
	"github.com/hpungsan/grist/internal/errors"
	"github.com/hpungsan/grist/internal/synthesis"
	"github.com/hpungsan/grist/internal/web"
)

// newCLIApp creates the CLI application with all commands.
func newCLIApp(d *deps) *cli.App {
	app := &cli.App{
		Name:    "grist",
		Usage:   "Vault backlog automation",
		Version: Version,
		Commands: []*cli.Command{
			captureCmd(d),
			listCmd(d),
			showCmd(d),
			doneCmd(d),
			statsCmd(d),
			enrichCmd(d),
			validateCmd(d),
			synthCmd(d),
			updateCheckCmd(d),
			webCmd(d),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// captureCmd creates the capture command.
func captureCmd(d *deps) *cli.Command {
	return &cli.Command{
		Name:  "capture",
		Usage: "Capture a new backlog idea",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "title", Aliases: []string{"t"}, Usage: "Idea title", Required: true},
			&cli.StringFlag{Name: "description", Aliases: []string{"d"}, Usage: "Idea description", Required: true},
			&cli.StringFlag{Name: "category", Aliases: []string{"c"}, Usage: "Idea category"},
		},
		Action: func(c *cli.Context) error {
			title := c.String("title")
			description := c.String("description")
			category := c.String("category")
			if category == "" {
				category = backlog.DefaultCategory
			}
			if !backlog.ValidCategory(category) {
				return outputError(errors.NewInvalidCategory(category, backlog.Categories))
			}

			ideas, err := d.store.Parse()
			if err != nil {
				return outputError(errors.NewInternal(err))
			}
			similar := synthesis.FindSimilar(d.cfg, d.searcher, ideas, title, description)
			if len(similar) > 0 && similar[0].Similarity > d.cfg.DuplicateBar {
				return outputError(errors.NewDuplicateIdea(title, similar))
			}

			id, err := d.store.NextID()
			if err != nil {
				return outputError(errors.NewInternal(err))
			}
			idea := backlog.Idea{
				ID:          id,
				Title:       title,
				Description: description,
				Category:    category,
				Captured:    time.Now().Format("2006-01-02"),
			}
			if err := d.store.Insert(idea); err != nil {
				return outputError(errors.NewInternal(err))
			}

			return outputJSON(map[string]any{
				"success":  true,
				"idea_id":  id,
				"title":    title,
				"category": category,
			})
		},
	}
}

// listCmd creates the list command.
func listCmd(d *deps) *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List backlog ideas",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "category", Aliases: []string{"c"}, Usage: "Filter by category"},
			&cli.IntFlag{Name: "min-score", Usage: "Minimum score filter"},
			&cli.StringFlag{Name: "status", Aliases: []string{"s"}, Value: backlog.StatusActive, Usage: "Status filter: active|implemented"},
			&cli.IntFlag{Name: "limit", Aliases: []string{"n"}, Value: 10, Usage: "Maximum ideas to return"},
		},
		Action: func(c *cli.Context) error {
			ideas, err := d.store.Parse()
			if err != nil {
				return outputError(errors.NewInternal(err))
			}

			status := c.String("status")
			category := c.String("category")
			minScore := c.Int("min-score")
			limit := c.Int("limit")

			filtered := make([]backlog.Idea, 0, len(ideas))
			for _, idea := range ideas {
				if idea.Status != status {
					continue
				}
				if category != "" && idea.Category != category {
					continue
				}
				if c.IsSet("min-score") && idea.Score < minScore {
					continue
				}
				filtered = append(filtered, idea)
			}
			if limit > 0 && len(filtered) > limit {
				filtered = filtered[:limit]
			}

			return outputJSON(map[string]any{
				"ideas": filtered,
				"count": len(filtered),
			})
		},
	}
}

// showCmd creates the show command.
func showCmd(d *deps) *cli.Command {
	return &cli.Command{
		Name:      "show",
		Usage:     "Show one idea in full",
		ArgsUsage: "<idea-id>",
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return outputError(errors.NewInvalidRequest("idea id argument is required"))
			}
			id := c.Args().First()

			idea, ok, err := d.store.Get(id)
			if err != nil {
				return outputError(errors.NewInternal(err))
			}
			if !ok {
				return outputError(errors.NewNotFound(id))
			}
			return outputJSON(idea)
		},
	}
}

// doneCmd creates the done command.
func doneCmd(d *deps) *cli.Command {
	return &cli.Command{
		Name:      "done",
		Usage:     "Archive an idea as implemented",
		ArgsUsage: "[--date YYYY-MM-DD] <idea-id>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "date", Usage: "Implementation date (YYYY-MM-DD, default today)"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return outputError(errors.NewInvalidRequest("idea id argument is required"))
			}
			// Flag parsing stops at the first positional, so anything after
			// the id would be silently ignored. Reject it instead.
			if c.NArg() > 1 {
				return outputError(errors.NewInvalidRequest("unexpected arguments after idea id; flags go before the id"))
			}
			id := c.Args().First()

			date := c.String("date")
			if date == "" {
				date = time.Now().Format("2006-01-02")
			}

			result, err := d.store.MarkImplemented(id, date)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(result)
		},
	}
}

// statsCmd creates the stats command.
func statsCmd(d *deps) *cli.Command {
	return &cli.Command{
		Name:  "stats",
		Usage: "Show backlog statistics and health",
		Action: func(c *cli.Context) error {
			stats, err := d.engine.Stats()
			if err != nil {
				return outputError(errors.NewInternal(err))
			}
			return outputJSON(stats)
		},
	}
}

// enrichCmd creates the enrich command.
func enrichCmd(d *deps) *cli.Command {
	return &cli.Command{
		Name:      "enrich",
		Usage:     "Append evidence to an existing idea",
		ArgsUsage: "--evidence <text> --source <name> <idea-id>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "evidence", Aliases: []string{"e"}, Usage: "Evidence text", Required: true},
			&cli.StringFlag{Name: "source", Aliases: []string{"s"}, Usage: "Evidence source", Required: true},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return outputError(errors.NewInvalidRequest("idea id argument is required"))
			}
			if c.NArg() > 1 {
				return outputError(errors.NewInvalidRequest("unexpected arguments after idea id; flags go before the id"))
			}
			id := c.Args().First()

			if err := d.store.Enrich(id, c.String("evidence"), c.String("source")); err != nil {
				return outputError(err)
			}
			return outputJSON(map[string]any{
				"success": true,
				"idea_id": id,
			})
		},
	}
}

// validateCmd creates the validate command.
func validateCmd(d *deps) *cli.Command {
	return &cli.Command{
		Name:  "validate",
		Usage: "Run a backlog hygiene pass and report recommended actions",
		Action: func(c *cli.Context) error {
			report, err := d.engine.Validate()
			if err != nil {
				return outputError(errors.NewInternal(err))
			}
			return outputJSON(report)
		},
	}
}

// synthCmd creates the synth command with its per-source subcommands.
func synthCmd(d *deps) *cli.Command {
	daysFlag := &cli.IntFlag{Name: "days-back", Aliases: []string{"b"}, Usage: "Lookback window in days (default 30)"}
	return &cli.Command{
		Name:  "synth",
		Usage: "Synthesize backlog ideas from vault signals",
		Subcommands: []*cli.Command{
			{
				Name:  "changelog",
				Usage: "Scan the changelog for relevant features",
				Flags: []cli.Flag{daysFlag},
				Action: func(c *cli.Context) error {
					report, err := d.engine.SynthesizeChangelog(c.Int("days-back"))
					if err != nil {
						return outputError(errors.NewInternal(err))
					}
					return outputJSON(report)
				},
			},
			{
				Name:  "learnings",
				Usage: "Scan pending session learnings",
				Flags: []cli.Flag{daysFlag},
				Action: func(c *cli.Context) error {
					report, err := d.engine.SynthesizeLearnings(c.Int("days-back"))
					if err != nil {
						return outputError(errors.NewInternal(err))
					}
					return outputJSON(report)
				},
			},
		},
	}
}

// updateCheckCmd creates the update command.
func updateCheckCmd(d *deps) *cli.Command {
	return &cli.Command{
		Name:  "update",
		Usage: "Check for a newer release",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "force", Aliases: []string{"f"}, Usage: "Ignore the daily check interval"},
		},
		Action: func(c *cli.Context) error {
			result, err := d.checker.Check(context.Background(), c.Bool("force"))
			if err != nil {
				return outputError(errors.NewInternal(err))
			}
			return outputJSON(result)
		},
	}
}

// webCmd creates the web command.
func webCmd(d *deps) *cli.Command {
	return &cli.Command{
		Name:  "web",
		Usage: "Serve the read-only backlog view",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "bind", Value: "127.0.0.1", Usage: "Bind address"},
			&cli.IntFlag{Name: "port", Aliases: []string{"p"}, Value: 7341, Usage: "Listen port"},
		},
		Action: func(c *cli.Context) error {
			srv := web.NewServer(d.cfg, d.store, d.engine, Version, c.String("bind"), c.Int("port"))
			return web.Run(srv)
		},
	}
}

// Helper functions

// outputJSON marshals result to stdout as JSON.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	if gristErr, ok := err.(*errors.GristError); ok {
		return cli.Exit(fmt.Sprintf("[%s] %s", gristErr.Code, gristErr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}
