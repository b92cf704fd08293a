package main

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/hpungsan/tweetsched/internal/errors"
	"github.com/hpungsan/tweetsched/internal/hooks"
	"github.com/hpungsan/tweetsched/internal/logging"
	"github.com/hpungsan/tweetsched/internal/mcp"
	"github.com/hpungsan/tweetsched/internal/ops"
	"github.com/hpungsan/tweetsched/internal/web"
)

// stdout and stderr are swapped out by tests.
var (
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
	stdin  io.Reader = os.Stdin
)

// newCLIApp creates the CLI application with all commands.
// env may be nil for --help and --version.
func newCLIApp(env *ops.Env) *cli.App {
	app := &cli.App{
		Name:    "tweetsched",
		Usage:   "Post scheduling for a spreadsheet calendar",
		Version: Version,
		// Posts routinely contain commas.
		DisableSliceFlagSeparator: true,
		Commands: []*cli.Command{
			scheduleCmd(env),
			scanCmd(env),
			headerCmd(env),
			nextDayCmd(),
			processURLCmd(env),
			hooksCmd(),
			serveCmd(env),
			mcpCmd(env),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// scheduleCmd creates the schedule command.
func scheduleCmd(env *ops.Env) *cli.Command {
	return &cli.Command{
		Name:  "schedule",
		Usage: "Append posts to the sheet (reads free text from stdin)",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{Name: "post", Aliases: []string{"p"}, Usage: "Ready post, repeatable"},
			&cli.StringSliceFlag{Name: "image", Aliases: []string{"i"}, Usage: "Screenshot file to read posts from, repeatable"},
			&cli.StringFlag{Name: "instructions", Usage: "Extraction instructions for the vision model"},
			&cli.StringFlag{Name: "start-date", Usage: "DD/MM/YYYY for the first row of an empty sheet"},
			&cli.StringFlag{Name: "start-day", Usage: "Weekday of --start-date (derived when omitted)"},
			&cli.BoolFlag{Name: "no-llm", Usage: "Split text on blank lines instead of asking the model"},
		},
		Action: func(c *cli.Context) error {
			input := ops.ScheduleInput{
				Posts:             c.StringSlice("post"),
				ImageInstructions: c.String("instructions"),
				StartDate:         c.String("start-date"),
				StartWeekday:      c.String("start-day"),
				NoLLM:             c.Bool("no-llm"),
			}

			if stdinHasData() {
				text, err := readStdin()
				if err != nil {
					return outputError(errors.NewInternal(err))
				}
				input.Text = text
			}

			images, err := ops.LoadImages(c.StringSlice("image"))
			if err != nil {
				return outputError(err)
			}
			input.Images = images

			start := time.Now()
			output, err := ops.Schedule(c.Context, env, input)
			if err != nil {
				return outputError(err)
			}
			env.Log.Debug().Int64("took_ms", logging.Since(start)).Msg("schedule command done")

			return outputJSON(output)
		},
	}
}

// scanCmd creates the scan command.
func scanCmd(env *ops.Env) *cli.Command {
	return &cli.Command{
		Name:  "scan",
		Usage: "Show where the next post would be written",
		Action: func(c *cli.Context) error {
			output, err := ops.Scan(c.Context, env)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// headerCmd creates the header command.
func headerCmd(env *ops.Env) *cli.Command {
	return &cli.Command{
		Name:  "header",
		Usage: "Write the column header to row 1 if missing",
		Action: func(c *cli.Context) error {
			output, err := ops.EnsureHeader(c.Context, env)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// nextDayCmd creates the next-day command.
func nextDayCmd() *cli.Command {
	return &cli.Command{
		Name:      "next-day",
		Usage:     "Advance a date and weekday by one day",
		ArgsUsage: "<DD/MM/YYYY> [weekday]",
		Action: func(c *cli.Context) error {
			if c.NArg() == 0 {
				return outputError(errors.NewInvalidRequest("date is required"))
			}
			output, err := ops.NextDay(c.Args().Get(0), c.Args().Get(1))
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// processURLCmd creates the process-url command.
func processURLCmd(env *ops.Env) *cli.Command {
	return &cli.Command{
		Name:      "process-url",
		Usage:     "Write a post about a video or article link",
		ArgsUsage: "<url>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "schedule", Aliases: []string{"s"}, Usage: "Also append the post to the sheet"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() == 0 {
				return outputError(errors.NewInvalidRequest("url is required"))
			}
			output, err := ops.ProcessURL(c.Context, env, ops.ProcessURLInput{
				URL:      c.Args().First(),
				Schedule: c.Bool("schedule"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// hooksCmd creates the hooks command.
func hooksCmd() *cli.Command {
	return &cli.Command{
		Name:      "hooks",
		Usage:     "List opening-line hook templates",
		ArgsUsage: "[category]",
		Action: func(c *cli.Context) error {
			if c.NArg() == 0 {
				return outputJSON(map[string]any{"categories": hooks.All()})
			}
			key := c.Args().First()
			cat, ok := hooks.Get(key)
			if !ok {
				return outputError(errors.NewInvalidRequest("unknown hook category: "+key).
					WithDetail("categories", hooks.Keys()))
			}
			return outputJSON(cat)
		},
	}
}

// serveCmd creates the serve command.
func serveCmd(env *ops.Env) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP API",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "bind", Usage: "Address to listen on (default from config)"},
			&cli.IntFlag{Name: "port", Usage: "Port to listen on (default from config)"},
		},
		Action: func(c *cli.Context) error {
			bind, port := env.Config.Server.Bind, env.Config.Server.Port
			if c.IsSet("bind") {
				bind = c.String("bind")
			}
			if c.IsSet("port") {
				port = c.Int("port")
			}
			if port <= 0 || port > 65535 {
				return outputError(errors.NewInvalidRequest(fmt.Sprintf("port %d out of range", port)))
			}

			srv := web.NewServer(env, Version, bind, port)
			if err := web.Run(srv, env.Log); err != nil {
				return outputError(errors.NewInternal(err))
			}
			return nil
		},
	}
}

// mcpCmd creates the mcp command.
func mcpCmd(env *ops.Env) *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "Run the MCP server over stdio",
		Action: func(c *cli.Context) error {
			return mcp.Run(env, Version)
		},
	}
}

// Helper functions

// outputJSON marshals result to stdout as JSON.
func outputJSON(v any) error {
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError writes err to stderr as JSON and returns an exit error.
func outputError(err error) error {
	writeErrorJSON(stderr, err)
	var sErr *errors.SchedError
	if stderrors.As(err, &sErr) {
		return cli.Exit(fmt.Sprintf("[%s] %s", sErr.Code, sErr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}

// writeErrorJSON writes {"error":{code,message,details}} to w.
func writeErrorJSON(w io.Writer, err error) {
	var sErr *errors.SchedError
	if !stderrors.As(err, &sErr) {
		sErr = errors.NewInternal(err)
	}
	body := map[string]any{
		"code":    sErr.Code,
		"message": sErr.Message,
	}
	if sErr.Details != nil {
		body["details"] = sErr.Details
	}
	enc := json.NewEncoder(w)
	_ = enc.Encode(map[string]any{"error": body})
}

// stdinHasData returns true if stdin has piped data (not a terminal).
func stdinHasData() bool {
	f, ok := stdin.(*os.File)
	if !ok {
		return stdin != nil
	}
	stat, err := f.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}

// readStdin reads all content from stdin.
func readStdin() (string, error) {
	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
