package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	"github.com/hpungsan/tweetsched/internal/config"
	"github.com/hpungsan/tweetsched/internal/logging"
	"github.com/hpungsan/tweetsched/internal/mcp"
	"github.com/hpungsan/tweetsched/internal/ops"
)

// Version is set via -ldflags at build time.
var Version = "dev"

// cliCommands contains known CLI subcommands.
var cliCommands = map[string]bool{
	"schedule": true, "scan": true, "header": true,
	"next-day": true, "process-url": true, "hooks": true,
	"serve": true, "mcp": true,
	"help": true,
}

// isCLIMode determines if we should run CLI vs MCP server.
func isCLIMode() bool {
	if len(os.Args) < 2 {
		return false // No args → MCP server
	}
	arg := os.Args[1]
	if cliCommands[arg] {
		return true
	}
	return arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v"
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
   _                     _              _              _
  | |___      _____  ___| |_ ___  ___| |__   ___  __| |
  | __\ \ /\ / / _ \/ _ \ __/ __|/ __| '_ \ / _ \/ _' |
  | |_ \ V  V /  __/  __/ |_\__ \ (__| | | |  __/ (_| |
   \__| \_/\_/ \___|\___|\__|___/\___|_| |_|\___|\__,_|

  Post scheduling for a spreadsheet calendar

  Usage: tweetsched <command> [options]
         tweetsched --help

  MCP server mode requires piped input.`)
}

// loadConfig reads ~/.tweetsched and the nearest repo config, then the environment.
func loadConfig() (*config.Config, error) {
	// .env is optional; real environment variables win.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read .env: %w", err)
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("could not determine home directory: %w", err)
	}
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("could not determine working directory: %w", err)
	}

	cfg, err := config.LoadWithRepo(filepath.Join(homeDir, ".tweetsched"), cwd)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	cfg.ApplyEnv(os.Getenv)
	return cfg, nil
}

// warnUnknownTools logs disabled tool and type names that match nothing.
func warnUnknownTools(cfg *config.Config, log zerolog.Logger) {
	if unknown := mcp.ValidateDisabledTools(cfg.DisabledTools); len(unknown) > 0 {
		log.Warn().Strs("tools", unknown).Msg("unknown names in disabled_tools")
	}
	if unknown := mcp.ValidateDisabledTypes(cfg.DisabledTypes); len(unknown) > 0 {
		log.Warn().Strs("types", unknown).Msg("unknown names in disabled_types")
	}
}

func main() {
	// No args + interactive terminal → show banner and exit
	if len(os.Args) < 2 && isTerminal() {
		printBanner()
		return
	}

	// Handle --help/--version before opening the store
	if isHelpOrVersion() {
		app := newCLIApp(nil)
		if err := app.Run(os.Args); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	// Unknown argument + terminal → show error (don't start MCP server)
	if len(os.Args) >= 2 && !isCLIMode() && isTerminal() {
		fmt.Fprintf(os.Stderr, "error: unknown command %q\n", os.Args[1])
		fmt.Fprintf(os.Stderr, "Run 'tweetsched --help' for usage.\n")
		os.Exit(1)
	}

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	log := logging.New(cfg.Log, os.Stderr)
	warnUnknownTools(cfg, log)

	env, err := ops.NewEnv(context.Background(), cfg, log)
	if err != nil {
		os.Exit(exitWith(err))
	}

	code := 0
	if isCLIMode() {
		if err := newCLIApp(env).Run(os.Args); err != nil {
			// Command errors were already written as JSON.
			if _, ok := err.(cli.ExitCoder); !ok {
				fmt.Fprintf(os.Stderr, "error: %v\n", err)
			}
			code = 1
		}
	} else if err := mcp.Run(env, Version); err != nil {
		// MCP server mode (default)
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		code = 1
	}

	if err := env.Close(); err != nil {
		log.Warn().Err(err).Msg("close store")
	}
	os.Exit(code)
}

// exitWith prints err as a JSON error object on stderr and returns the exit code.
func exitWith(err error) int {
	writeErrorJSON(os.Stderr, err)
	return 1
}
