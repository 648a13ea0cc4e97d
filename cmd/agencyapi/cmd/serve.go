package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"connectrpc.com/connect"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/caffeinepub/agencydesk/cmd/agencyapi/cmd/cmdutil"
	"github.com/caffeinepub/agencydesk/cmd/agencyapi/internal/auth"
	"github.com/caffeinepub/agencydesk/cmd/agencyapi/internal/server"
	"github.com/caffeinepub/agencydesk/cmd/agencyapi/internal/telemetry"
)

var (
	migrateOnStart bool
	requestLogging bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the AgencyDesk API server",
	Long:  `Starts the HTTP server with the Connect RPC AgencyService and a /health endpoint.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		shutdownTelemetry, err := telemetry.Init(ctx, cfg.Telemetry, logger)
		if err != nil {
			return fmt.Errorf("failed to initialize telemetry: %w", err)
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdownTelemetry(ctx); err != nil {
				logger.Warn("telemetry shutdown failed", "error", err)
			}
		}()

		rpcMetrics, err := telemetry.NewRPCMetrics(nil)
		if err != nil {
			return fmt.Errorf("failed to create rpc metrics: %w", err)
		}
		loginMetrics, err := telemetry.NewLoginMetrics(nil)
		if err != nil {
			return fmt.Errorf("failed to create login metrics: %w", err)
		}

		bundle, err := cmdutil.NewServiceBundle(ctx, cfg, logger, cmdutil.ServiceOptions{
			Migrate:      migrateOnStart,
			LoginMetrics: loginMetrics,
		})
		if err != nil {
			return err
		}
		defer bundle.Close()
		logger.Info("connected to database")

		var authenticators auth.Chain
		if bundle.Tokens != nil {
			authenticators = append(authenticators, bundle.Tokens)
		}
		if cfg.OIDC.Enabled() {
			verifier, err := auth.NewOIDCVerifier(cfg.OIDC.Issuer, cfg.OIDC.Audience)
			if err != nil {
				return fmt.Errorf("configure oidc verifier: %w", err)
			}
			authenticators = append(authenticators, verifier)
			logger.Info("accepting external identity tokens", "issuer", cfg.OIDC.Issuer)
		}

		var cache *redis.Client
		if cfg.Redis.URL != "" {
			cache, err = server.NewRedisClient(ctx, cfg.Redis.URL)
			if err != nil {
				// Throttling is best effort; serve without it.
				logger.Warn("login throttling disabled", "error", err)
			} else {
				defer cache.Close()
			}
		}

		interceptors := []connect.Interceptor{
			server.NewTelemetryInterceptor(rpcMetrics),
			server.NewLoginThrottle(cache, cfg.Login.MaxPerMinute, loginMetrics, logger),
			server.NewAuthnInterceptor(authenticators, logger),
			server.NewAuthzInterceptor(bundle.Enforcer, logger),
		}

		passwordLogin := bundle.Tokens != nil
		healthHandler := func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			fmt.Fprintf(w, `{"status":"ok","oidc_enabled":%t,"password_login":%t}`, cfg.OIDC.Enabled(), passwordLogin)
		}

		r := server.NewRouter(server.RouterOptions{
			Handler:             server.NewAgencyServiceHandler(bundle.Service, logger),
			ConnectInterceptors: interceptors,
			HealthHandler:       healthHandler,
			RequestLogging:      requestLogging,
		})

		srv := &http.Server{
			Addr:         cfg.ServerAddr,
			Handler:      server.NewH2CHandler(r),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		}

		serverErrors := make(chan error, 1)
		go func() {
			logger.Info("starting server", "addr", cfg.ServerAddr)
			serverErrors <- srv.ListenAndServe()
		}()

		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

		// SIGHUP reloads role bindings changed outside this process (users create --role).
		reload := make(chan os.Signal, 1)
		signal.Notify(reload, syscall.SIGHUP)

		for {
			select {
			case err := <-serverErrors:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return fmt.Errorf("server error: %w", err)

			case sig := <-reload:
				if err := bundle.Enforcer.LoadPolicy(); err != nil {
					logger.Error("role binding reload failed", "signal", sig.String(), "error", err)
				} else {
					logger.Info("role bindings reloaded", "signal", sig.String())
				}

			case sig := <-shutdown:
				logger.Info("shutting down gracefully", "signal", sig.String())

				ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()

				if err := srv.Shutdown(ctx); err != nil {
					srv.Close()
					return fmt.Errorf("graceful shutdown failed: %w", err)
				}

				logger.Info("server stopped")
				return nil
			}
		}
	},
}

func init() {
	serveCmd.Flags().BoolVar(&migrateOnStart, "migrate", false, "Apply pending migrations before serving")
	serveCmd.Flags().BoolVar(&requestLogging, "request-log", false, "Log every HTTP request")
	rootCmd.AddCommand(serveCmd)
}
