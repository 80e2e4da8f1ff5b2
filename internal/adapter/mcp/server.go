// Package mcp exposes the spell compiler and preset catalog as a Model
// Context Protocol server over streamable HTTP.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"

	cfotel "github.com/Strob0t/SpellForge/internal/adapter/otel"
	"github.com/Strob0t/SpellForge/internal/adapter/ws"
	"github.com/Strob0t/SpellForge/internal/domain/preset"
	"github.com/Strob0t/SpellForge/internal/domain/prompt"
)

// endpointPath is where the streamable HTTP transport is mounted.
const endpointPath = "/mcp"

// PresetCatalog is the read side of the preset service.
type PresetCatalog interface {
	Search(q string) []preset.Preset
	Get(id string) (preset.Preset, error)
}

// ServerConfig holds listener and identity settings.
type ServerConfig struct {
	Addr    string
	Name    string
	Version string
	APIKey  string
}

// ServerDeps are the services the tools read from. Nil members turn the
// corresponding tools into error results.
type ServerDeps struct {
	Presets  PresetCatalog
	Sessions ws.SnapshotSource
	Compiler prompt.Compiler
}

// Server wraps an mcp-go server and its HTTP listener.
type Server struct {
	cfg       ServerConfig
	deps      ServerDeps
	mcpServer *mcpserver.MCPServer

	mu   sync.Mutex
	http *http.Server
}

// NewServer builds the MCP server and registers its tools and resources.
func NewServer(cfg ServerConfig, deps ServerDeps) *Server {
	if deps.Compiler == (prompt.Compiler{}) {
		deps.Compiler = prompt.DefaultCompiler
	}
	s := &Server{
		cfg:  cfg,
		deps: deps,
		mcpServer: mcpserver.NewMCPServer(cfg.Name, cfg.Version,
			mcpserver.WithToolCapabilities(false),
			mcpserver.WithResourceCapabilities(false, false),
			mcpserver.WithRecovery(),
		),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying mcp-go server.
func (s *Server) MCPServer() *mcpserver.MCPServer {
	return s.mcpServer
}

// Handler returns the HTTP handler serving the MCP endpoint.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle(endpointPath, AuthMiddleware(s.cfg.APIKey, mcpserver.NewStreamableHTTPServer(s.mcpServer)))
	return cfotel.HTTPMiddleware(s.cfg.Name)(mux)
}

// Start binds the listener and serves in the background.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("mcp listen %s: %w", s.cfg.Addr, err)
	}
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.mu.Lock()
	s.http = srv
	s.mu.Unlock()

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("mcp server error", "error", err)
		}
	}()
	slog.Info("mcp server started", "addr", ln.Addr().String(), "path", endpointPath)
	return nil
}

// Stop gracefully shuts the listener down. Stop before Start is a no-op.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	srv := s.http
	s.http = nil
	s.mu.Unlock()

	if srv == nil {
		return nil
	}
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("mcp shutdown: %w", err)
	}
	slog.Info("mcp server stopped")
	return nil
}
