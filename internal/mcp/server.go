package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"stationcsv/internal/service"
)

// Server is the MCP server for stationcsv.
// It lets an agent run the transform, preview it and read its history.
type Server struct {
	mcp       *server.MCPServer
	transform *service.TransformService
}

// New creates and configures the MCP server with all tools and resources.
func New(transform *service.TransformService, version string) *Server {
	s := &Server{transform: transform}
	s.mcp = server.NewMCPServer(
		"stationcsv-mcp",
		version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(true, false),
	)

	s.registerTransformTools()
	s.registerResources()
	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	log.Println("[MCP] Starting stdio server...")
	return server.ServeStdio(s.mcp)
}

// ── Helpers ────────────────────────────────────────────────

// textResult creates a simple text tool result.
func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

// jsonResult serializes v to JSON and wraps it in a text tool result.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	return textResult(string(data)), nil
}

func (s *Server) jobResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	data, err := json.MarshalIndent(s.transform.Job(), "", "  ")
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      jobURI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

const jobURI = "stationcsv://job"

func (s *Server) registerResources() {
	s.mcp.AddResource(mcp.NewResource(
		jobURI,
		"Transform job configuration",
		mcp.WithMIMEType("application/json"),
	), s.jobResource)
}
