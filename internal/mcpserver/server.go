// Package mcpserver exposes property history tools to LLM clients over the
// Model Context Protocol (stdio transport).
package mcpserver

import (
	"bytes"
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/prophist/internal/historyservice"
	"github.com/starford/prophist/internal/render"
)

const pathSyntaxURI = "prophist://path-syntax"

// Server wraps the MCP server with prophist tools.
type Server struct {
	mcp      *server.MCPServer
	svc      *historyservice.Service
	renderer *render.Renderer
}

// New creates an MCP server with all tools registered.
func New(svc *historyservice.Service, version string) *Server {
	s := &Server{svc: svc, renderer: render.New(render.WithDiff(true))}

	s.mcp = server.NewMCPServer(
		"prophist",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("property_history",
		mcp.WithDescription("Show how one property of one object in a Unity asset changed across git history. "+
			"Only revisions where the value changed are listed, newest first. "+
			"Read the path syntax first via get_path_syntax or the "+pathSyntaxURI+" resource."),
		mcp.WithString("asset", mcp.Required(), mcp.Description("Asset path relative to the repository root (e.g. Assets/Player.prefab)")),
		mcp.WithString("anchor", mcp.Required(), mcp.Description("Object anchor id from the asset's '--- !u!N &ID' header")),
		mcp.WithString("path", mcp.Required(), mcp.Description("Property path, e.g. m_LocalPosition.x or m_Items.Array.data[0]")),
		mcp.WithNumber("limit", mcp.Description("Maximum revisions to scan, newest first (default all)")),
		mcp.WithString("format", mcp.Description("Output format"), mcp.Enum("text", "json")),
	), s.propertyHistory)

	s.mcp.AddTool(mcp.NewTool("list_revisions",
		mcp.WithDescription("List the git revisions that touched an asset, newest first."),
		mcp.WithString("asset", mcp.Required(), mcp.Description("Asset path relative to the repository root")),
		mcp.WithNumber("limit", mcp.Description("Maximum revisions (default all)")),
	), s.listRevisions)

	s.mcp.AddTool(mcp.NewTool("list_objects",
		mcp.WithDescription("List the anchored objects (anchor id, class id, type name) in an asset at a revision. "+
			"Use it to find the anchor for property_history."),
		mcp.WithString("asset", mcp.Required(), mcp.Description("Asset path relative to the repository root")),
		mcp.WithString("revision", mcp.Description("Revision id (default newest)")),
	), s.listObjects)

	s.mcp.AddTool(mcp.NewTool("get_path_syntax",
		mcp.WithDescription("Returns the object and property path syntax used by property_history."),
	), s.getPathSyntax)

	s.mcp.AddResource(
		mcp.NewResource(pathSyntaxURI, "Property Path Syntax",
			mcp.WithResourceDescription("How to address objects and properties inside Unity text assets."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readPathSyntaxResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) propertyHistory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	asset, err := req.RequireString("asset")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	anchor, err := req.RequireString("anchor")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	format, err := render.ParseFormat(req.GetString("format", "text"))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	res, err := s.svc.PropertyHistory(ctx, historyservice.Request{
		Asset:    asset,
		AnchorID: anchor,
		Path:     path,
		Limit:    req.GetInt("limit", 0),
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var buf bytes.Buffer
	if err := s.renderer.History(&buf, format, res); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(buf.String()), nil
}

func (s *Server) listRevisions(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	asset, err := req.RequireString("asset")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	revs, err := s.svc.Revisions(ctx, asset, req.GetInt("limit", 0))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var buf bytes.Buffer
	if err := s.renderer.Revisions(&buf, render.FormatText, revs); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(buf.String()), nil
}

func (s *Server) listObjects(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	asset, err := req.RequireString("asset")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, err := s.svc.Objects(ctx, asset, req.GetString("revision", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var buf bytes.Buffer
	if err := s.renderer.Objects(&buf, render.FormatText, res); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(buf.String()), nil
}

func (s *Server) getPathSyntax(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(PathSyntax), nil
}

func (s *Server) readPathSyntaxResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      pathSyntaxURI,
			MIMEType: "text/markdown",
			Text:     PathSyntax,
		},
	}, nil
}
