package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/Strob0t/SpellForge/internal/domain/prompt"
)

// registerTools registers all MCP tools on the server.
func (s *Server) registerTools() {
	s.mcpServer.AddTools(
		s.compileSpellsTool(),
		s.listPresetsTool(),
		s.getPresetTool(),
		s.getSessionTool(),
	)
}

func (s *Server) compileSpellsTool() mcpserver.ServerTool {
	tool := mcplib.NewTool("compile_spells",
		mcplib.WithDescription("Compile an ordered spell list into a weighted prompt string"),
		mcplib.WithArray("spells",
			mcplib.Required(),
			mcplib.Description("Spells in order. Each has content, enabled and enhancement."),
			mcplib.Items(map[string]any{
				"type": "object",
				"properties": map[string]any{
					"content":     map[string]any{"type": "string"},
					"enabled":     map[string]any{"type": "boolean"},
					"enhancement": map[string]any{"type": "integer"},
				},
				"required": []string{"content"},
			}),
		),
		mcplib.WithString("notation",
			mcplib.Description("Weight markup, braces (default) or numeric"),
			mcplib.Enum(string(prompt.NotationBraces), string(prompt.NotationNumeric)),
		),
	)
	return mcpserver.ServerTool{Tool: tool, Handler: s.handleCompileSpells}
}

func (s *Server) listPresetsTool() mcpserver.ServerTool {
	tool := mcplib.NewTool("list_presets",
		mcplib.WithDescription("List spell presets, optionally filtered by a search query"),
		mcplib.WithString("query",
			mcplib.Description("Case-insensitive match against id, title and description"),
		),
	)
	return mcpserver.ServerTool{Tool: tool, Handler: s.handleListPresets}
}

func (s *Server) getPresetTool() mcpserver.ServerTool {
	tool := mcplib.NewTool("get_preset",
		mcplib.WithDescription("Get a preset's spells and its compiled prompt"),
		mcplib.WithString("preset_id",
			mcplib.Required(),
			mcplib.Description("The preset ID to look up"),
		),
	)
	return mcpserver.ServerTool{Tool: tool, Handler: s.handleGetPreset}
}

func (s *Server) getSessionTool() mcpserver.ServerTool {
	tool := mcplib.NewTool("get_session",
		mcplib.WithDescription("Get the current prompt and compiled text of an editing session"),
		mcplib.WithString("session_id",
			mcplib.Required(),
			mcplib.Description("The session ID to read"),
		),
	)
	return mcpserver.ServerTool{Tool: tool, Handler: s.handleGetSession}
}

// spellArg is one element of the compile_spells spells argument.
type spellArg struct {
	Content     string `json:"content"`
	Enabled     *bool  `json:"enabled"`
	Enhancement int    `json:"enhancement"`
}

type compileResult struct {
	Compiled string          `json:"compiled"`
	Notation prompt.Notation `json:"notation"`
}

type presetResult struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description,omitempty"`
	Spells      []prompt.Spell `json:"spells"`
	Compiled    string         `json:"compiled"`
}

func (s *Server) handleCompileSpells(_ context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	args := req.GetArguments()
	raw, ok := args["spells"]
	if !ok {
		return mcplib.NewToolResultError("spells is required"), nil
	}
	// Arguments arrive as generic JSON values; a round trip gives typed spells.
	data, err := json.Marshal(raw)
	if err != nil {
		return mcplib.NewToolResultErrorFromErr("invalid spells", err), nil
	}
	var in []spellArg
	if err := json.Unmarshal(data, &in); err != nil {
		return mcplib.NewToolResultErrorFromErr("invalid spells", err), nil
	}

	compiler := s.deps.Compiler
	if n, ok := args["notation"].(string); ok && n != "" {
		notation, err := prompt.ParseNotation(n)
		if err != nil {
			return mcplib.NewToolResultError(err.Error()), nil
		}
		compiler.Notation = notation
	}

	spells := make([]prompt.Spell, len(in))
	for i, a := range in {
		enabled := a.Enabled == nil || *a.Enabled
		spells[i] = prompt.Spell{Content: a.Content, Enabled: enabled, Enhancement: a.Enhancement}
	}
	if err := prompt.ValidateTemplates(spells); err != nil {
		return mcplib.NewToolResultError(err.Error()), nil
	}
	return toolResultJSON(compileResult{Compiled: compiler.Compile(spells), Notation: compiler.Notation}), nil
}

func (s *Server) handleListPresets(_ context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	if s.deps.Presets == nil {
		return mcplib.NewToolResultError("preset catalog not configured"), nil
	}
	query, _ := req.GetArguments()["query"].(string)
	return toolResultJSON(s.deps.Presets.Search(query)), nil
}

func (s *Server) handleGetPreset(_ context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	if s.deps.Presets == nil {
		return mcplib.NewToolResultError("preset catalog not configured"), nil
	}
	presetID, ok := req.GetArguments()["preset_id"].(string)
	if !ok || presetID == "" {
		return mcplib.NewToolResultError("preset_id is required"), nil
	}
	p, err := s.deps.Presets.Get(presetID)
	if err != nil {
		return mcplib.NewToolResultErrorFromErr(fmt.Sprintf("failed to get preset %s", presetID), err), nil
	}
	return toolResultJSON(presetResult{
		ID:          p.ID,
		Title:       p.Title,
		Description: p.Description,
		Spells:      p.Spells,
		Compiled:    s.deps.Compiler.Compile(p.Spells),
	}), nil
}

func (s *Server) handleGetSession(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	if s.deps.Sessions == nil {
		return mcplib.NewToolResultError("session store not configured"), nil
	}
	sessionID, ok := req.GetArguments()["session_id"].(string)
	if !ok || sessionID == "" {
		return mcplib.NewToolResultError("session_id is required"), nil
	}
	snap, err := s.deps.Sessions.SessionSnapshot(ctx, sessionID)
	if err != nil {
		return mcplib.NewToolResultErrorFromErr(fmt.Sprintf("failed to get session %s", sessionID), err), nil
	}
	return toolResultJSON(snap), nil
}

// toolResultJSON marshals v into a text result.
func toolResultJSON(v any) *mcplib.CallToolResult {
	data, err := json.Marshal(v)
	if err != nil {
		return mcplib.NewToolResultErrorFromErr("failed to marshal result", err)
	}
	return mcplib.NewToolResultText(string(data))
}
