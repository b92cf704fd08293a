package mcp

import (
	"context"
	"sort"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/hpungsan/tweetsched/internal/ops"
)

// KnownTypes lists all valid type names.
var KnownTypes = []string{"schedule", "url", "calendar", "hooks"}

// toolEntry pairs a tool definition with a handler factory.
type toolEntry struct {
	def     mcp.Tool
	handler func(*Handlers) server.ToolHandlerFunc
}

// toolRegistry maps tool names to their definitions and handler factories.
var toolRegistry = map[string]toolEntry{
	"schedule_posts": {
		def:     schedulePostsToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSchedulePosts },
	},
	"schedule_scan": {
		def:     scheduleScanToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleScheduleScan },
	},
	"schedule_header": {
		def:     scheduleHeaderToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleScheduleHeader },
	},
	"url_process": {
		def:     urlProcessToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleURLProcess },
	},
	"calendar_next_day": {
		def:     calendarNextDayToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleCalendarNextDay },
	},
	"hooks_list": {
		def:     hooksListToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleHooksList },
	},
}

var schedulePostsToolDef = mcp.NewTool("schedule_posts",
	mcp.WithDescription("Append posts to the schedule sheet after the last filled slot. "+
		"Free text is split into posts by the language model; ready posts are written as-is."),
	mcp.WithString("text", mcp.Description("Free text containing one or more posts separated by blank lines")),
	mcp.WithArray("posts", mcp.Description("Ready posts, scheduled after any generated from text"),
		mcp.Items(map[string]any{"type": "string"})),
	mcp.WithArray("image_paths", mcp.Description("Local screenshot files whose text becomes posts"),
		mcp.Items(map[string]any{"type": "string"})),
	mcp.WithString("image_instructions", mcp.Description("Extraction instructions for the vision model")),
	mcp.WithString("start_date", mcp.Description("DD/MM/YYYY for the first row of an empty sheet")),
	mcp.WithString("start_weekday", mcp.Description("Weekday of start_date; derived when omitted")),
	mcp.WithBoolean("no_llm", mcp.Description("Split text on blank lines locally instead of asking the model")),
)

var scheduleScanToolDef = mcp.NewTool("schedule_scan",
	mcp.WithDescription("Report where the next post would be written: row, slot, column and date."),
	mcp.WithReadOnlyHintAnnotation(true),
)

var scheduleHeaderToolDef = mcp.NewTool("schedule_header",
	mcp.WithDescription("Write the 27-column header to row 1 unless it is already there."),
	mcp.WithIdempotentHintAnnotation(true),
)

var urlProcessToolDef = mcp.NewTool("url_process",
	mcp.WithDescription("Write a post about a TikTok, Instagram or YouTube video, or a news/blog article."),
	mcp.WithString("url", mcp.Required(), mcp.Description("Absolute http(s) URL")),
	mcp.WithBoolean("schedule", mcp.Description("Also append the post to the schedule sheet")),
)

var calendarNextDayToolDef = mcp.NewTool("calendar_next_day",
	mcp.WithDescription("Advance a DD/MM/YYYY date and weekday by one day."),
	mcp.WithString("date", mcp.Required(), mcp.Description("DD/MM/YYYY")),
	mcp.WithString("weekday", mcp.Description("Full English weekday name; derived from date when omitted")),
	mcp.WithReadOnlyHintAnnotation(true),
)

var hooksListToolDef = mcp.NewTool("hooks_list",
	mcp.WithDescription("List opening-line hook templates, optionally for one category."),
	mcp.WithString("category", mcp.Description("question, challenge, story, authority or stats")),
	mcp.WithReadOnlyHintAnnotation(true),
)

// AllToolNames returns a sorted list of all valid tool names.
func AllToolNames() []string {
	names := make([]string, 0, len(toolRegistry))
	for name := range toolRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ValidateDisabledTools returns a list of unknown tool names from the given list.
func ValidateDisabledTools(names []string) []string {
	unknown := make([]string, 0)
	for _, name := range names {
		if _, ok := toolRegistry[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	return unknown
}

// ValidateDisabledTypes returns a list of unknown type names from the given list.
func ValidateDisabledTypes(names []string) []string {
	known := make(map[string]bool, len(KnownTypes))
	for _, t := range KnownTypes {
		known[t] = true
	}

	unknown := make([]string, 0)
	for _, name := range names {
		if !known[name] {
			unknown = append(unknown, name)
		}
	}
	return unknown
}

// GetTypeForTool extracts the type name from a tool name.
// Tool names follow the pattern "type_action" (e.g., "schedule_posts" → "schedule").
func GetTypeForTool(toolName string) string {
	if idx := strings.Index(toolName, "_"); idx > 0 {
		return toolName[:idx]
	}
	return ""
}

// ExpandTypesToTools returns all tool names belonging to the given types.
func ExpandTypesToTools(types []string) []string {
	if len(types) == 0 {
		return nil
	}

	typeSet := make(map[string]bool, len(types))
	for _, t := range types {
		typeSet[t] = true
	}

	tools := make([]string, 0)
	for name := range toolRegistry {
		if typeSet[GetTypeForTool(name)] {
			tools = append(tools, name)
		}
	}
	return tools
}

// NewServer creates a new MCP server with the scheduling tools registered.
// Tools listed in DisabledTools or belonging to DisabledTypes are excluded.
func NewServer(env *ops.Env, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"tweetsched",
		version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
	)

	h := NewHandlers(env)

	disabled := make(map[string]bool)
	for _, tool := range ExpandTypesToTools(env.Config.DisabledTypes) {
		disabled[tool] = true
	}
	for _, name := range env.Config.DisabledTools {
		disabled[name] = true
	}

	for name, entry := range toolRegistry {
		if disabled[name] {
			continue
		}
		s.AddTool(entry.def, entry.handler(h))
	}

	return s
}

// Run starts the MCP server using stdio transport.
func Run(env *ops.Env, version string) error {
	s := NewServer(env, version)
	return server.ServeStdio(s)
}

// ToolHandlerFunc is the signature for tool handlers.
type ToolHandlerFunc func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error)
