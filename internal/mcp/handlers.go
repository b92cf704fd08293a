package mcp

import (
	"context"
	"encoding/json"
	stderrors "errors"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hpungsan/tweetsched/internal/errors"
	"github.com/hpungsan/tweetsched/internal/hooks"
	"github.com/hpungsan/tweetsched/internal/ops"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	env *ops.Env
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(env *ops.Env) *Handlers {
	return &Handlers{env: env}
}

// SchedulePostsRequest represents the arguments for schedule_posts.
type SchedulePostsRequest struct {
	Text              string   `json:"text,omitempty"`
	Posts             []string `json:"posts,omitempty"`
	ImagePaths        []string `json:"image_paths,omitempty"`
	ImageInstructions string   `json:"image_instructions,omitempty"`
	StartDate         string   `json:"start_date,omitempty"`
	StartWeekday      string   `json:"start_weekday,omitempty"`
	NoLLM             bool     `json:"no_llm,omitempty"`
}

// URLProcessRequest represents the arguments for url_process.
type URLProcessRequest struct {
	URL      string `json:"url"`
	Schedule bool   `json:"schedule,omitempty"`
}

// NextDayRequest represents the arguments for calendar_next_day.
type NextDayRequest struct {
	Date    string `json:"date"`
	Weekday string `json:"weekday,omitempty"`
}

// HooksListRequest represents the arguments for hooks_list.
type HooksListRequest struct {
	Category string `json:"category,omitempty"`
}

// HandleSchedulePosts handles the schedule_posts tool call.
func (h *Handlers) HandleSchedulePosts(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SchedulePostsRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	images, err := ops.LoadImages(input.ImagePaths)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.Schedule(ctx, h.env, ops.ScheduleInput{
		Text:              input.Text,
		Images:            images,
		ImageInstructions: input.ImageInstructions,
		Posts:             input.Posts,
		StartDate:         input.StartDate,
		StartWeekday:      input.StartWeekday,
		NoLLM:             input.NoLLM,
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleScheduleScan handles the schedule_scan tool call.
func (h *Handlers) HandleScheduleScan(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := ops.Scan(ctx, h.env)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleScheduleHeader handles the schedule_header tool call.
func (h *Handlers) HandleScheduleHeader(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := ops.EnsureHeader(ctx, h.env)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleURLProcess handles the url_process tool call.
func (h *Handlers) HandleURLProcess(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[URLProcessRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.ProcessURL(ctx, h.env, ops.ProcessURLInput{
		URL:      input.URL,
		Schedule: input.Schedule,
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleCalendarNextDay handles the calendar_next_day tool call.
func (h *Handlers) HandleCalendarNextDay(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[NextDayRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.NextDay(input.Date, input.Weekday)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleHooksList handles the hooks_list tool call.
func (h *Handlers) HandleHooksList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[HooksListRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	if input.Category == "" {
		return successResult(map[string]any{"categories": hooks.All()})
	}
	c, ok := hooks.Get(input.Category)
	if !ok {
		return errorResult(errors.NewInvalidRequest("unknown hook category: "+input.Category).
			WithDetail("categories", hooks.Keys())), nil
	}
	return successResult(c)
}

// Result helpers

// errorResult creates an MCP error result from any error.
// Uses IsError: true so MCP clients recognize failures properly.
// Internal error details are not exposed.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	var sErr *errors.SchedError
	if stderrors.As(err, &sErr) {
		message := sErr.Message
		if err != error(sErr) {
			// Keep wrapper context such as "post 2: ..."
			message = err.Error()
		}
		errorObj := map[string]any{
			"code":    sErr.Code,
			"message": message,
			"status":  sErr.Status,
		}
		if sErr.Code == errors.ErrInternal {
			errorObj["message"] = "an internal error occurred"
		} else if sErr.Details != nil {
			errorObj["details"] = sErr.Details
		}
		payload = map[string]any{"error": errorObj}
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":    "INTERNAL",
				"message": "an internal error occurred",
				"status":  500,
			},
		}
	}

	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
