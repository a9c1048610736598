package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"

	"github.com/owid/lc-reconcile/pkg/health"
	"github.com/owid/lc-reconcile/pkg/middleware"
	"github.com/owid/lc-reconcile/pkg/routes/admin"
	"github.com/owid/lc-reconcile/pkg/routes/flyout"
	reconcileroutes "github.com/owid/lc-reconcile/pkg/routes/reconcile"
	"github.com/owid/lc-reconcile/pkg/routes/suggest"
	"github.com/owid/lc-reconcile/pkg/tracing"
	"github.com/owid/lc-reconcile/pkg/tracing/exporters"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the reconciliation HTTP service",
	Long: `Connects to the database, applies migrations, warms the reference index and
serves the OpenRefine reconcile, suggest and flyout endpoints until interrupted.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Setup(ctx, tracing.ProviderConfig{
		ServiceName: cfg.AppName,
		Enabled:     cfg.TracingEnabled,
		OTLP: exporters.OTLPConfig{
			Endpoint: cfg.TracingEndpoint,
			Protocol: cfg.TracingProtocol,
			Insecure: cfg.TracingInsecure,
			Timeout:  10 * time.Second,
		},
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.WithError(err).Warn("Failed to flush traces")
		}
	}()

	a, err := newApp(appOptions{
		migrate:   cfg.DatabaseMigrateOnStart,
		warmIndex: cfg.IndexWarmOnStart,
		cache:     cfg.RedisEnabled,
		cdc:       cfg.KafkaConsumerEnabled,
	})
	if err != nil {
		return err
	}
	if err := a.start(ctx); err != nil {
		_ = a.stop()
		return err
	}
	defer func() {
		if err := a.stop(); err != nil {
			logger.WithError(err).Error("Failed to stop dependencies")
		}
	}()

	e, err := newServer(ctx, a)
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Port)
		logger.WithField("addr", addr).Info("Starting reconciliation service")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
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

	logger.Info("Shutting down reconciliation service")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.ShutdownTimeoutSeconds)*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

func newServer(ctx context.Context, a *app) (*echo.Echo, error) {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = middleware.Error(logger)
	e.Server.ReadTimeout = time.Duration(cfg.HttpServerReadTimeoutSeconds) * time.Second
	e.Server.WriteTimeout = time.Duration(cfg.HttpServerWriteTimeoutSeconds) * time.Second
	e.Server.IdleTimeout = time.Duration(cfg.HttpServerIdleTimeoutSeconds) * time.Second
	e.Server.ReadHeaderTimeout = time.Duration(cfg.ReadHeaderTimeoutSeconds) * time.Second
	e.Server.MaxHeaderBytes = cfg.MaxHeaderBytes

	e.Use(echomw.Recover())
	e.Use(middleware.Context())
	e.Use(otelecho.Middleware(cfg.AppName))
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.AllowOrigins,
		AllowMethods: cfg.AllowMethods,
	}))

	checker := health.NewChecker(cfg.Version).
		AddCheck("database", true, func(ctx context.Context) error {
			return a.db.PingContext(ctx)
		}).
		AddCheck("index", true, func(ctx context.Context) error {
			if !a.holder.Ready() {
				return errors.New("reference index not loaded")
			}
			return nil
		})
	if a.redis != nil {
		checker.AddCheck("redis", false, a.redis.Ping)
	}
	if a.consumer != nil {
		checker.AddCheck("kafka", false, func(ctx context.Context) error {
			if !a.consumer.Health() {
				return errors.New("consumer not running")
			}
			return nil
		})
	}

	var adminMiddleware []echo.MiddlewareFunc
	if cfg.AuthEnabled {
		verify, err := middleware.NewOIDCVerifier(ctx, cfg.AuthIssuerURL, cfg.AuthClientID)
		if err != nil {
			return nil, fmt.Errorf("failed to set up token verification: %w", err)
		}
		adminMiddleware = append(adminMiddleware, middleware.Authentication(logger, verify, cfg.AuthAdminRole))
	}

	root := e.Group("")
	reconcileroutes.NewHandler(a.dispatcher).Register(root)
	suggest.NewHandler(a.lookup, cfg.SuggestLimit).Register(root)
	flyout.NewHandler(a.lookup).Register(root)
	admin.NewHandler(a.holder, a.lookup, logger).Register(root, adminMiddleware...)
	checker.Register(e.Group("/api/v1"))
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	return e, nil
}
