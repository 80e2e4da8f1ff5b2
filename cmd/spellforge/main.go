package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	cfhttp "github.com/Strob0t/SpellForge/internal/adapter/http"
	cfmcp "github.com/Strob0t/SpellForge/internal/adapter/mcp"
	cfotel "github.com/Strob0t/SpellForge/internal/adapter/otel"
	"github.com/Strob0t/SpellForge/internal/adapter/ristretto"
	"github.com/Strob0t/SpellForge/internal/adapter/ws"
	"github.com/Strob0t/SpellForge/internal/config"
	"github.com/Strob0t/SpellForge/internal/domain/prompt"
	"github.com/Strob0t/SpellForge/internal/logger"
	"github.com/Strob0t/SpellForge/internal/middleware"
	"github.com/Strob0t/SpellForge/internal/service"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "0.1.0"

func main() {
	if err := run(os.Args[1:]); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	flags, err := config.ParseFlags(args)
	if err != nil {
		return err
	}
	cfg, cfgPath, err := config.LoadWithCLI(flags)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	log, closeLog := logger.New(cfg.Logging)
	defer closeLog.Close()
	slog.SetDefault(log)

	slog.Info("config loaded",
		"config_file", cfgPath,
		"port", cfg.Server.Port,
		"log_level", cfg.Logging.Level,
		"notation", cfg.Compiler.Notation,
		"max_sessions", cfg.Session.MaxSessions,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Infrastructure ---

	shutdownOTEL, err := cfotel.Setup(ctx, cfg.OTEL)
	if err != nil {
		return fmt.Errorf("otel: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := shutdownOTEL(shutdownCtx); err != nil {
			slog.Warn("otel shutdown", "error", err)
		}
	}()

	metrics, err := cfotel.NewMetrics(nil)
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}

	cache, err := ristretto.New(cfg.Cache.MaxSizeMB << 20)
	if err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	defer cache.Close()

	// --- Services ---

	notation, err := prompt.ParseNotation(cfg.Compiler.Notation)
	if err != nil {
		return fmt.Errorf("compiler: %w", err)
	}
	compiler := prompt.Compiler{Notation: notation, Separator: prompt.Separator}

	// The hub reads snapshots from the session service, which broadcasts
	// through the hub; the indirection breaks the construction cycle.
	var sessions *service.SessionService
	hub := ws.NewHub(cfg.Server.CORSOrigin, ws.SnapshotFunc(func(ctx context.Context, id string) (ws.SessionSnapshotEvent, error) {
		return sessions.SessionSnapshot(ctx, id)
	}))
	sessions = service.NewSessionService(cfg.Session, compiler, hub, metrics)

	presets, err := service.NewPresetService(cfg.Presets.Dir, sessions, cache, cfg.Cache.PreviewTTL, metrics)
	if err != nil {
		return fmt.Errorf("presets: %w", err)
	}

	stopJanitor := sessions.StartJanitor()
	defer stopJanitor()

	limiter := middleware.NewRateLimiter(cfg.Rate.RequestsPerSecond, cfg.Rate.Burst)
	stopCleanup := limiter.StartCleanup(cfg.Rate.CleanupInterval, cfg.Rate.MaxIdleTime)
	defer stopCleanup()

	// --- HTTP ---

	handlers := &cfhttp.Handlers{
		Sessions: sessions,
		Presets:  presets,
		Hub:      hub,
		Version:  version,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(chimw.RealIP)
	r.Use(cfhttp.Logger)
	r.Use(chimw.Recoverer)
	r.Use(cfhttp.CORS(cfg.Server.CORSOrigin))
	r.Use(cfhttp.SecurityHeaders)
	r.Use(cfotel.HTTPMiddleware(cfg.OTEL.ServiceName))

	// WebSocket stays outside the request timeout.
	r.Get("/ws", hub.HandleWS)

	r.Group(func(r chi.Router) {
		r.Use(chimw.Timeout(30 * time.Second))
		r.Use(limiter.Handler)
		cfhttp.MountRoutes(r, handlers, middleware.Idempotency(cache, cfg.Cache.IdempotencyTTL))
	})

	addr := ":" + cfg.Server.Port
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	var mcpServer *cfmcp.Server
	if cfg.MCP.Enabled {
		mcpServer = cfmcp.NewServer(cfmcp.ServerConfig{
			Addr:    cfg.MCP.Addr,
			Name:    "spellforge",
			Version: version,
			APIKey:  cfg.MCP.APIKey,
		}, cfmcp.ServerDeps{
			Presets:  presets,
			Sessions: sessions,
			Compiler: compiler,
		})
		if err := mcpServer.Start(); err != nil {
			return err
		}
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("starting server", "addr", addr, "version", version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		var errs []error
		if err := srv.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("http shutdown: %w", err))
		}
		if mcpServer != nil {
			if err := mcpServer.Stop(shutdownCtx); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	})

	return g.Wait()
}
