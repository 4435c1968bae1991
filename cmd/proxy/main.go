// Checkout proxy - bridges landing-page buy buttons to commerce provider
// APIs. Stateless by design: safe to run on Cloud Run or any scale-to-zero
// host.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"checkout-proxy/internal/config"
	"checkout-proxy/internal/handler"
	"checkout-proxy/internal/middleware"
	"checkout-proxy/internal/provider"
	"checkout-proxy/internal/provider/shopyy"
	"checkout-proxy/internal/transport"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	logger := initLogger()

	ctx := context.Background()
	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger.Info("configuration loaded",
		slog.String("site_id", cfg.SiteID),
		slog.String("environment", cfg.Environment),
		slog.Bool("chrome_tls", cfg.Site.ChromeTLS),
		slog.Duration("upstream_timeout", cfg.UpstreamTimeout()),
	)

	registry := buildRegistry(cfg)
	h := handler.New(registry, logger, cfg.Site.AllowedOrigin)

	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	// Recovery outermost so it also catches panics from logging
	httpHandler := middleware.Chain(
		middleware.Recovery(logger),
		middleware.Logging(logger),
	)(mux)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      httpHandler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	serverErr := make(chan error, 1)

	go func() {
		logger.Info("server starting",
			slog.String("addr", server.Addr),
			slog.Any("providers", registry.Names()),
		)
		serverErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-shutdown:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		// Give outstanding requests time to complete
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			server.Close()
			return fmt.Errorf("shutdown error: %w", err)
		}
	}

	logger.Info("server stopped")
	return nil
}

// buildRegistry wires up the provider handlers. New backends register here;
// the dispatch core never changes.
func buildRegistry(cfg *config.Config) *provider.Registry {
	timeout := cfg.UpstreamTimeout()

	shopyyCfg := shopyy.Config{Timeout: timeout}
	if cfg.Site.ChromeTLS {
		shopyyCfg.Transport = transport.NewChromeTransport(timeout)
	}

	registry := provider.NewRegistry()
	registry.Register(shopyy.Name, shopyy.New(shopyyCfg))
	return registry
}

// initLogger creates a structured logger configured for the environment.
// Production uses JSON format for GCP Cloud Logging compatibility.
// Development uses text format for readability.
func initLogger() *slog.Logger {
	level := slog.LevelInfo
	if os.Getenv("LOG_LEVEL") == "debug" {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
	}

	if os.Getenv("ENVIRONMENT") == "production" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
