package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

func boolPtr(v bool) *bool { return &v }

func (s *Server) registerTransformTools() {
	s.mcp.AddTool(mcp.NewTool("run_transform",
		mcp.WithDescription("Run the CSV transform once: read the source, skip its header, write columns 1,4,5,7,8,9 of every row to the destination. Appends by default, so repeated runs add the rows again."),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{DestructiveHint: boolPtr(true)}),
	), s.handleRunTransform)

	s.mcp.AddTool(mcp.NewTool("preview_source",
		mcp.WithDescription("Transform the first rows of the source without writing anything"),
		mcp.WithNumber("maxRows", mcp.Description("Number of data rows to preview (default 10)")),
	), s.handlePreviewSource)

	s.mcp.AddTool(mcp.NewTool("list_runs",
		mcp.WithDescription("List recent transform runs, newest first, with row counts and the failing line of failed runs"),
		mcp.WithNumber("limit", mcp.Description("Maximum number of runs (default 20)")),
	), s.handleListRuns)

	s.mcp.AddTool(mcp.NewTool("get_run",
		mcp.WithDescription("Get one recorded run by its ID"),
		mcp.WithString("id", mcp.Description("Run ID from run_transform or list_runs"), mcp.Required()),
	), s.handleGetRun)

	s.mcp.AddTool(mcp.NewTool("list_sources",
		mcp.WithDescription("List available source and destination types with their configuration keys"),
	), s.handleListSources)
}

func (s *Server) handleRunTransform(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := s.transform.Run(ctx)
	if result == nil {
		return nil, fmt.Errorf("run transform: %w", err)
	}
	// A failed run still has counts and a failing line worth returning.
	return jsonResult(result)
}

func (s *Server) handlePreviewSource(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	maxRows := req.GetInt("maxRows", 10)
	if maxRows <= 0 {
		return nil, fmt.Errorf("maxRows must be positive")
	}
	preview, err := s.transform.Preview(ctx, maxRows)
	if err != nil && preview == nil {
		return nil, fmt.Errorf("preview source: %w", err)
	}
	out := map[string]any{"preview": preview}
	if err != nil {
		out["error"] = err.Error()
	}
	return jsonResult(out)
}

func (s *Server) handleListRuns(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	runs, err := s.transform.History(req.GetInt("limit", 20))
	if err != nil {
		return nil, err
	}
	return jsonResult(runs)
}

func (s *Server) handleGetRun(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("id", "")
	if id == "" {
		return nil, fmt.Errorf("id is required")
	}
	run, err := s.transform.RunLog(id)
	if err != nil {
		return nil, err
	}
	return jsonResult(run)
}

func (s *Server) handleListSources(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(map[string]any{
		"sources":      s.transform.ListSources(),
		"destinations": s.transform.ListDestinations(),
	})
}
