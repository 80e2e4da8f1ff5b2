package mcp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	mcplib "github.com/mark3labs/mcp-go/mcp"

	"github.com/Strob0t/SpellForge/internal/domain/preset"
)

type builtinCatalog struct{}

func (builtinCatalog) Search(string) []preset.Preset { return preset.Builtin() }

func (builtinCatalog) Get(string) (preset.Preset, error) { return preset.Preset{}, nil }

func TestPresetsResource(t *testing.T) {
	s := NewServer(ServerConfig{Name: "test", Version: "0.1.0"}, ServerDeps{Presets: builtinCatalog{}})

	contents, err := s.handlePresetsResource(context.Background(), mcplib.ReadResourceRequest{
		Params: mcplib.ReadResourceParams{URI: presetsURI},
	})
	if err != nil {
		t.Fatal(err)
	}
	text, ok := contents[0].(mcplib.TextResourceContents)
	if !ok {
		t.Fatal("expected TextResourceContents")
	}
	if text.URI != presetsURI || text.MIMEType != "application/json" {
		t.Fatalf("unexpected contents %+v", text)
	}
	var presets []preset.Preset
	if err := json.Unmarshal([]byte(text.Text), &presets); err != nil {
		t.Fatal(err)
	}
	if len(presets) != len(preset.Builtin()) {
		t.Fatalf("expected %d presets, got %d", len(preset.Builtin()), len(presets))
	}
}

func TestPresetsResource_NoCatalog(t *testing.T) {
	s := NewServer(ServerConfig{Name: "test", Version: "0.1.0"}, ServerDeps{})
	contents, err := s.handlePresetsResource(context.Background(), mcplib.ReadResourceRequest{
		Params: mcplib.ReadResourceParams{URI: presetsURI},
	})
	if err != nil {
		t.Fatal(err)
	}
	if text := contents[0].(mcplib.TextResourceContents).Text; text != `{"error":"preset catalog not configured"}` {
		t.Fatalf("text = %q", text)
	}
}

func TestAuthMiddleware(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })

	tests := []struct {
		name   string
		apiKey string
		header string
		want   int
	}{
		{"disabled", "", "", http.StatusOK},
		{"missing header", "k3y", "", http.StatusUnauthorized},
		{"bearer", "k3y", "Bearer k3y", http.StatusOK},
		{"bare key", "k3y", "k3y", http.StatusOK},
		{"wrong key", "k3y", "Bearer nope", http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", endpointPath, http.NoBody)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			AuthMiddleware(tt.apiKey, ok).ServeHTTP(w, req)
			if w.Code != tt.want {
				t.Fatalf("status = %d, want %d", w.Code, tt.want)
			}
		})
	}
}

func TestHandler_RequiresAPIKey(t *testing.T) {
	s := NewServer(ServerConfig{Name: "test", Version: "0.1.0", APIKey: "k3y"}, ServerDeps{})
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest("POST", endpointPath, http.NoBody))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}
