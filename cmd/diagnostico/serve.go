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

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	_ "modernc.org/sqlite"

	"github.com/hazyhaar/diagnostico/config"
	"github.com/hazyhaar/diagnostico/content"
	"github.com/hazyhaar/diagnostico/dbopen"
	"github.com/hazyhaar/diagnostico/export"
	"github.com/hazyhaar/diagnostico/generation"
	"github.com/hazyhaar/diagnostico/observability"
	"github.com/hazyhaar/diagnostico/page"
	"github.com/hazyhaar/diagnostico/session"
	"github.com/hazyhaar/diagnostico/shield"
	"github.com/hazyhaar/diagnostico/web"
)

// regenerateEndpoint is the rate-limited route, keyed as the limiter sees it.
const regenerateEndpoint = "POST /api/regenerate"

// eventRetention bounds the event log and metrics tables.
const eventRetention = 30 * 24 * time.Hour

func newServeCmd(gf *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the wizard HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(gf)
			if err != nil {
				return err
			}
			logger, closer := newLogger(cfg, cmd.OutOrStdout())
			defer closer.Close()
			slog.SetDefault(logger)

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			return serve(ctx, cfg, logger)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	db, err := dbopen.Open(cfg.DBPath,
		dbopen.WithMkdirAll(),
		dbopen.WithSchema(session.Schema),
		dbopen.WithSchema(observability.Schema),
		dbopen.WithSchema(shield.Schema),
	)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	secret, ok := cfg.SessionSecret()
	if !ok {
		logger.Warn("SESSION_SECRET missing or shorter than 32 bytes, using a random key; sessions end with the process")
	}
	cookies, err := session.NewCookies(secret,
		session.WithSecure(cfg.Session.SecureCookie),
		session.WithMaxAge(cfg.Session.TTL),
	)
	if err != nil {
		return err
	}
	store := session.NewStore(db, session.WithTTL(cfg.Session.TTL))

	backend := generation.New(ctx, cfg.GenerationBackend(), logger)
	resolver, err := content.New(backend, cfg.ContentPolicy(), content.WithLogger(logger))
	if err != nil {
		return err
	}
	pages, err := page.New()
	if err != nil {
		return err
	}

	stack, limiter := shield.DefaultStack(db, cfg.RateLimit.TrustProxy)
	rule := shield.RateLimitConfig{
		MaxRequests:   cfg.RateLimit.RegeneratePerMinute,
		WindowSeconds: 60,
		Enabled:       cfg.RateLimit.RegeneratePerMinute > 0,
	}
	if err := limiter.SetRule(ctx, regenerateEndpoint, rule); err != nil {
		return err
	}

	events := observability.NewEventLogger(db)
	metrics := observability.NewMetricsManager(db, 100, 30*time.Second)
	defer metrics.Close()

	var mcpHandler http.Handler
	if cfg.MCP.Enabled {
		mcpSrv := mcp.NewServer(&mcp.Implementation{Name: "diagnostico", Version: version}, nil)
		resolver.RegisterMCP(mcpSrv, cfg.IntakeOptions())
		mcpHandler = mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server { return mcpSrv }, nil)
		logger.Info("MCP endpoint enabled", "path", "/mcp")
	}

	app, err := web.New(web.Deps{
		Store:      store,
		Cookies:    cookies,
		Resolver:   resolver,
		Pages:      pages,
		Exporter:   export.New(),
		Events:     events,
		Metrics:    metrics,
		Intake:     cfg.IntakeOptions(),
		MCP:        mcpHandler,
		Middleware: stack,
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           app.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		// Leaves room for the generation timeout on the slowest page.
		WriteTimeout: cfg.Generation.Timeout*6 + 10*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("server starting", "addr", cfg.Listen, "generation", resolver.GenerationEnabled())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error { return store.RunJanitor(gctx, cfg.Session.JanitorInterval) })
	g.Go(func() error { return limiter.Run(gctx) })
	g.Go(func() error { return runRetention(gctx, events, metrics, logger) })
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	logger.Info("server stopped")
	return err
}

// runRetention trims the event log and metrics once an hour until ctx is done.
func runRetention(ctx context.Context, events *observability.EventLogger, metrics *observability.MetricsManager, logger *slog.Logger) error {
	tick := time.NewTicker(time.Hour)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-tick.C:
			if n, err := events.Cleanup(ctx, eventRetention); err != nil {
				logger.Warn("event retention", "error", err)
			} else if n > 0 {
				logger.Info("event retention", "deleted", n)
			}
			if _, err := metrics.Cleanup(ctx, eventRetention); err != nil {
				logger.Warn("metrics retention", "error", err)
			}
		}
	}
}
