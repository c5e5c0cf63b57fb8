package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/axellelanca/redirector/cmd"
	"github.com/axellelanca/redirector/internal/api"
	"github.com/axellelanca/redirector/internal/auth"
	"github.com/axellelanca/redirector/internal/logger"
	"github.com/axellelanca/redirector/internal/metrics"
	"github.com/axellelanca/redirector/internal/monitor"
	"github.com/axellelanca/redirector/internal/services"
)

// RunServerCmd starts the HTTP server and the background destination monitor.
var RunServerCmd = &cobra.Command{
	Use:   "run-server",
	Short: "Start the redirect server and the owner API",
	Long: `Opens the database, wires the redirect resolver, the analytics aggregator
and the link service behind the HTTP API, starts the destination monitor when
enabled, and serves until SIGINT or SIGTERM.`,
	RunE: runServer,
}

func init() {
	cmd.RootCmd.AddCommand(RunServerCmd)
}

func runServer(c *cobra.Command, _ []string) error {
	app, err := cmd.NewApp()
	if err != nil {
		return err
	}
	defer app.Close()
	cfg, log := app.Cfg, app.Log

	if cfg.Auth.JWTSecret == "" {
		return errors.New("auth.jwt_secret (AUTH_JWT_SECRET) is required to serve the API")
	}

	ctx, stop := signal.NotifyContext(c.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	m := metrics.New()

	resolverOpts := []services.ResolverOption{
		services.WithResolverSchema(app.Schema),
		services.WithResolverMetrics(m),
	}
	linkOpts := []services.LinkOption{
		services.WithLinkSchema(app.Schema),
		services.WithLinkMetrics(m),
	}

	if destCache := app.DestinationCache(); destCache != nil {
		resolverOpts = append(resolverOpts, services.WithResolverCache(destCache))
		linkOpts = append(linkOpts, services.WithLinkCache(destCache))
	}

	resolver := services.NewResolver(app.Links, app.Clicks, log, resolverOpts...)
	linkService := services.NewLinkService(app.Links, log, linkOpts...)
	analytics := services.NewAnalyticsService(app.Links, app.Clicks, log,
		services.WithAnalyticsSchema(app.Schema),
		services.WithAnalyticsMetrics(m),
	)

	if cfg.Monitor.Enabled {
		urlMonitor := monitor.NewURLMonitor(app.Links, cfg.MonitorInterval(), log,
			monitor.WithWorkers(cfg.Monitor.Workers),
			monitor.WithMetrics(m),
		)
		go urlMonitor.Start(ctx)
	}

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := api.NewRouter(api.Dependencies{
		Links:      linkService,
		Resolver:   resolver,
		Analytics:  analytics,
		Verifier:   auth.NewJWTManager(cfg.Auth.JWTSecret),
		Metrics:    m,
		Log:        log,
		BaseURL:    cfg.Server.BaseURL,
		CookieName: cfg.Auth.CookieName,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout(),
		WriteTimeout: cfg.WriteTimeout(),
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", logger.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout())
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	log.Info("server stopped")
	return nil
}
