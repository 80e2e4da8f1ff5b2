package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Strob0t/SpellForge/internal/domain/prompt"
)

// DefaultConfigFile is the path checked for YAML configuration.
const DefaultConfigFile = "spellforge.yaml"

// Load returns a Config using the hierarchy: defaults < YAML < ENV.
// YAML file is optional; missing file is not an error.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigFile)
}

// LoadFrom returns a Config loaded from the given YAML path using the
// hierarchy: defaults < YAML < ENV. The YAML file is optional.
func LoadFrom(yamlPath string) (*Config, error) {
	cfg := Defaults()

	if err := loadYAML(&cfg, yamlPath); err != nil {
		return nil, fmt.Errorf("config yaml: %w", err)
	}

	loadEnv(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validate: %w", err)
	}

	return &cfg, nil
}

// loadYAML reads the YAML file and unmarshals it over cfg.
// Returns nil if the file does not exist.
func loadYAML(cfg *Config, path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is validated by caller
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	return nil
}

// loadEnv overlays environment variables onto cfg.
// Only non-empty env values override the current config.
func loadEnv(cfg *Config) {
	setString(&cfg.Server.Port, "SPELLFORGE_PORT")
	setString(&cfg.Server.CORSOrigin, "SPELLFORGE_CORS_ORIGIN")
	setDuration(&cfg.Server.ShutdownTimeout, "SPELLFORGE_SHUTDOWN_TIMEOUT")
	setString(&cfg.Logging.Level, "SPELLFORGE_LOG_LEVEL")
	setString(&cfg.Logging.Service, "SPELLFORGE_LOG_SERVICE")
	setBool(&cfg.Logging.Async, "SPELLFORGE_LOG_ASYNC")
	setFloat64(&cfg.Rate.RequestsPerSecond, "SPELLFORGE_RATE_RPS")
	setInt(&cfg.Rate.Burst, "SPELLFORGE_RATE_BURST")
	setDuration(&cfg.Rate.CleanupInterval, "SPELLFORGE_RATE_CLEANUP_INTERVAL")
	setDuration(&cfg.Rate.MaxIdleTime, "SPELLFORGE_RATE_MAX_IDLE_TIME")

	// Sessions
	setInt(&cfg.Session.MaxSessions, "SPELLFORGE_MAX_SESSIONS")
	setDuration(&cfg.Session.IdleTTL, "SPELLFORGE_SESSION_IDLE_TTL")
	setDuration(&cfg.Session.JanitorInterval, "SPELLFORGE_SESSION_JANITOR_INTERVAL")

	// Compiler / presets
	setString(&cfg.Compiler.Notation, "SPELLFORGE_NOTATION")
	setString(&cfg.Presets.Dir, "SPELLFORGE_PRESETS_DIR")

	// Cache
	setInt64(&cfg.Cache.MaxSizeMB, "SPELLFORGE_CACHE_SIZE_MB")
	setDuration(&cfg.Cache.PreviewTTL, "SPELLFORGE_CACHE_PREVIEW_TTL")
	setDuration(&cfg.Cache.IdempotencyTTL, "SPELLFORGE_IDEMPOTENCY_TTL")

	// MCP
	setBool(&cfg.MCP.Enabled, "SPELLFORGE_MCP_ENABLED")
	setString(&cfg.MCP.Addr, "SPELLFORGE_MCP_ADDR")
	setString(&cfg.MCP.APIKey, "SPELLFORGE_MCP_API_KEY")

	// OpenTelemetry
	setBool(&cfg.OTEL.Enabled, "SPELLFORGE_OTEL_ENABLED")
	setString(&cfg.OTEL.Endpoint, "OTEL_EXPORTER_OTLP_ENDPOINT")
	setString(&cfg.OTEL.ServiceName, "OTEL_SERVICE_NAME")
	setBool(&cfg.OTEL.Insecure, "SPELLFORGE_OTEL_INSECURE")
}

// validate checks that required fields are set.
func validate(cfg *Config) error {
	if cfg.Server.Port == "" {
		return errors.New("server.port is required")
	}
	if cfg.Rate.RequestsPerSecond <= 0 {
		return errors.New("rate.requests_per_second must be > 0")
	}
	if cfg.Rate.Burst < 1 {
		return errors.New("rate.burst must be >= 1")
	}
	if cfg.Session.MaxSessions < 0 {
		return errors.New("session.max_sessions must be >= 0")
	}
	if cfg.Session.IdleTTL > 0 && cfg.Session.JanitorInterval <= 0 {
		return errors.New("session.janitor_interval must be > 0 when idle_ttl is set")
	}
	if _, err := prompt.ParseNotation(cfg.Compiler.Notation); err != nil {
		return fmt.Errorf("compiler.notation: %w", err)
	}
	if cfg.Cache.MaxSizeMB < 1 {
		return errors.New("cache.max_size_mb must be >= 1")
	}
	if cfg.MCP.Enabled && cfg.MCP.Addr == "" {
		return errors.New("mcp.addr is required when mcp is enabled")
	}
	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint == "" {
		return errors.New("otel.endpoint is required when otel is enabled")
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
