package mcp

import (
	"context"
	"encoding/json"

	mcplib "github.com/mark3labs/mcp-go/mcp"
)

const presetsURI = "spellforge://presets"

// registerResources registers all MCP resources on the server.
func (s *Server) registerResources() {
	s.mcpServer.AddResource(
		mcplib.NewResource(
			presetsURI,
			"Preset Catalog",
			mcplib.WithResourceDescription("All spell presets, built-in and loaded from disk"),
			mcplib.WithMIMEType("application/json"),
		),
		s.handlePresetsResource,
	)
}

func (s *Server) handlePresetsResource(_ context.Context, req mcplib.ReadResourceRequest) ([]mcplib.ResourceContents, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	text := `{"error":"preset catalog not configured"}`
	if s.deps.Presets != nil {
		data, err := json.Marshal(s.deps.Presets.Search(""))
		if err != nil {
			return nil, err
		}
		text = string(data)
	}
	return []mcplib.ResourceContents{
		mcplib.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     text,
		},
	}, nil
}
