// Package config provides hierarchical configuration loading for SpellForge.
// Precedence: defaults < YAML file < environment variables < CLI flags.
package config

import "time"

// Config holds all runtime configuration for the SpellForge service.
type Config struct {
	Server   Server   `yaml:"server"`
	Logging  Logging  `yaml:"logging"`
	Rate     Rate     `yaml:"rate"`
	Session  Session  `yaml:"session"`
	Compiler Compiler `yaml:"compiler"`
	Presets  Presets  `yaml:"presets"`
	Cache    Cache    `yaml:"cache"`
	MCP      MCP      `yaml:"mcp"`
	OTEL     OTEL     `yaml:"otel"`
}

// Server holds HTTP server configuration.
type Server struct {
	Port            string        `yaml:"port"`
	CORSOrigin      string        `yaml:"cors_origin"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// Logging holds structured logging configuration.
type Logging struct {
	Level   string `yaml:"level"`
	Service string `yaml:"service"`
	Async   bool   `yaml:"async"`
}

// Rate holds rate limiter configuration.
type Rate struct {
	RequestsPerSecond float64       `yaml:"requests_per_second"`
	Burst             int           `yaml:"burst"`
	CleanupInterval   time.Duration `yaml:"cleanup_interval"`
	MaxIdleTime       time.Duration `yaml:"max_idle_time"`
}

// Session holds editing session registry limits.
type Session struct {
	MaxSessions     int           `yaml:"max_sessions"`     // 0 = unlimited
	IdleTTL         time.Duration `yaml:"idle_ttl"`         // 0 = never evict
	JanitorInterval time.Duration `yaml:"janitor_interval"` // how often idle sessions are swept
}

// Compiler selects the weighting notation of compiled prompts.
type Compiler struct {
	Notation string `yaml:"notation"` // "braces" | "numeric"
}

// Presets holds the preset catalog source.
type Presets struct {
	Dir string `yaml:"dir"` // directory of *.yaml preset files; missing is fine
}

// Cache holds the in-process preview cache configuration.
type Cache struct {
	MaxSizeMB      int64         `yaml:"max_size_mb"`
	PreviewTTL     time.Duration `yaml:"preview_ttl"`
	IdempotencyTTL time.Duration `yaml:"idempotency_ttl"` // replay window for Idempotency-Key
}

// MCP holds Model Context Protocol server configuration.
type MCP struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
	APIKey  string `yaml:"api_key"` // empty = no auth
}

// OTEL holds OpenTelemetry export configuration.
type OTEL struct {
	Enabled     bool   `yaml:"enabled"`
	Endpoint    string `yaml:"endpoint"`
	ServiceName string `yaml:"service_name"`
	Insecure    bool   `yaml:"insecure"`
}

// Defaults returns a Config with sensible default values for local development.
func Defaults() Config {
	return Config{
		Server: Server{
			Port:            "8080",
			CORSOrigin:      "http://localhost:3000",
			ShutdownTimeout: 10 * time.Second,
		},
		Logging: Logging{
			Level:   "info",
			Service: "spellforge",
		},
		Rate: Rate{
			RequestsPerSecond: 20,
			Burst:             100,
			CleanupInterval:   5 * time.Minute,
			MaxIdleTime:       10 * time.Minute,
		},
		Session: Session{
			MaxSessions:     1000,
			IdleTTL:         2 * time.Hour,
			JanitorInterval: time.Minute,
		},
		Compiler: Compiler{
			Notation: "braces",
		},
		Presets: Presets{
			Dir: "presets",
		},
		Cache: Cache{
			MaxSizeMB:      16,
			PreviewTTL:     10 * time.Minute,
			IdempotencyTTL: 10 * time.Minute,
		},
		MCP: MCP{
			Enabled: false,
			Addr:    ":3001",
		},
		OTEL: OTEL{
			Enabled:     false,
			Endpoint:    "localhost:4317",
			ServiceName: "spellforge",
			Insecure:    true,
		},
	}
}
