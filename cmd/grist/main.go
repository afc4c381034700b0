package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/hpungsan/grist/internal/backlog"
	"github.com/hpungsan/grist/internal/config"
	"github.com/hpungsan/grist/internal/health"
	"github.com/hpungsan/grist/internal/mcp"
	"github.com/hpungsan/grist/internal/synthesis"
	"github.com/hpungsan/grist/internal/updater"
	"github.com/hpungsan/grist/internal/vaultsearch"
)

// Version is set via -ldflags at build time.
var Version = "dev"

// cliCommands contains known CLI subcommands.
var cliCommands = map[string]bool{
	"capture": true, "list": true, "show": true, "done": true,
	"stats": true, "enrich": true, "validate": true, "synth": true,
	"update": true, "web": true,
	"help": true,
}

// isCLIMode determines if we should run CLI vs MCP server.
func isCLIMode() bool {
	if len(os.Args) < 2 {
		return false // No args → MCP server
	}
	arg := os.Args[1]
	// Known subcommand → CLI
	if cliCommands[arg] {
		return true
	}
	// --help or --version → CLI
	if arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v" {
		return true
	}
	return false // Default → MCP server
}

// isHelpOrVersion returns true if the user is requesting help or version info.
func isHelpOrVersion() bool {
	if len(os.Args) < 2 {
		return false
	}
	arg := os.Args[1]
	return arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v" || arg == "help"
}

// isTerminal returns true if stdin is a terminal (not piped).
func isTerminal() bool {
	stat, _ := os.Stdin.Stat()
	return (stat.Mode() & os.ModeCharDevice) != 0
}

// printBanner displays a friendly banner when run interactively without args.
func printBanner() {
	fmt.Println(`
   __ _ _ __(_)___| |_
  / _` + "`" + ` | '__| / __| __|
 | (_| | |  | \__ \ |_
  \__, |_|  |_|___/\__|
  |___/

  Vault backlog automation

  Usage: grist <command> [options]
         grist --help

  MCP server mode requires piped input.`)
}

func main() {
	// No args + interactive terminal → show banner and exit
	if len(os.Args) < 2 && isTerminal() {
		printBanner()
		return
	}

	// Handle --help/--version before wiring the vault (not needed)
	if isHelpOrVersion() {
		app := newCLIApp(nil)
		if err := app.Run(os.Args); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: could not determine home directory: %v\n", err)
		os.Exit(1)
	}
	baseDir := filepath.Join(homeDir, ".grist")

	cfg, err := config.Load(baseDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to load config: %v\n", err)
		os.Exit(1)
	}

	vault := config.ResolveVault("")
	d := wireDeps(cfg, vault, baseDir)
	defer d.close()

	// CLI mode: known subcommand
	if isCLIMode() {
		app := newCLIApp(d)
		if err := app.Run(os.Args); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	// Unknown argument + terminal → show error (don't start MCP server)
	if len(os.Args) >= 2 && isTerminal() {
		fmt.Fprintf(os.Stderr, "error: unknown command %q\n", os.Args[1])
		fmt.Fprintf(os.Stderr, "Run 'grist --help' for usage.\n")
		os.Exit(1)
	}

	// MCP server mode (default)
	h := mcp.NewHandlers(d.cfg, d.store, d.searcher, d.engine, d.checker, d.events)
	if err := mcp.Run(h, Version); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// deps bundles everything the CLI and MCP layers need for one vault.
type deps struct {
	cfg      *config.Config
	vault    string
	store    *backlog.Store
	searcher vaultsearch.Searcher
	engine   *synthesis.Engine
	checker  *updater.Checker
	events   *health.Store
}

// wireDeps builds the shared dependency set. The health store is
// best-effort: a failure to open it disables event logging, nothing else.
func wireDeps(cfg *config.Config, vault, baseDir string) *deps {
	store := backlog.NewStore(filepath.Join(vault, cfg.BacklogFile))
	searcher := vaultsearch.New(vault)
	events, err := health.Open(baseDir)
	if err != nil {
		events = nil
	}

	return &deps{
		cfg:      cfg,
		vault:    vault,
		store:    store,
		searcher: searcher,
		engine:   synthesis.NewEngine(cfg, vault, store, searcher),
		checker:  updater.New(vault, cfg.UpdateRepo),
		events:   events,
	}
}

func (d *deps) close() {
	if d != nil && d.events != nil {
		d.events.Close()
	}
}
