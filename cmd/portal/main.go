package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wolfman30/carely-portal/cmd/mainconfig"
	"github.com/wolfman30/carely-portal/internal/app/bootstrap"
	"github.com/wolfman30/carely-portal/internal/auth"
	"github.com/wolfman30/carely-portal/internal/bookings"
	"github.com/wolfman30/carely-portal/internal/carely"
	appconfig "github.com/wolfman30/carely-portal/internal/config"
	httpmiddleware "github.com/wolfman30/carely-portal/internal/http/middleware"
	"github.com/wolfman30/carely-portal/internal/observability/metrics"
	"github.com/wolfman30/carely-portal/internal/portal"
	"github.com/wolfman30/carely-portal/internal/session"
	"github.com/wolfman30/carely-portal/pkg/logging"
)

func main() {
	envErr := godotenv.Load()

	cfg := appconfig.Load()

	logger := logging.NewWithOptions(logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})
	if envErr != nil {
		logger.Debug("no .env file found, using environment variables")
	}
	logger.Info("starting carely portal",
		"env", cfg.Env,
		"port", cfg.Port,
		"backend", cfg.BackendURL,
	)

	ctx := context.Background()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	apiMetrics := metrics.NewAPIMetrics(registry)
	bookingMetrics := metrics.NewBookingMetrics(registry)

	store, err := bootstrap.BuildSessionStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to build session store", "error", err)
		os.Exit(1)
	}
	sessions := session.NewManager(ctx, store, logger)

	var h *portal.Handler
	client := carely.NewClient(carely.Config{
		BaseURL: cfg.BackendURL,
		Timeout: cfg.APITimeout,
		Tokens:  sessions,
		OnUnauthorized: func(ctx context.Context) {
			if h != nil {
				h.Unauthorized(ctx)
			}
		},
		Metrics: apiMetrics,
		Logger:  logger,
	})

	uploader, err := bootstrap.BuildUploader(ctx, cfg, mainconfig.LoadAWSConfig, logger)
	if err != nil {
		logger.Error("failed to build document uploader", "error", err)
		os.Exit(1)
	}

	deps := auth.Deps{
		API:      client.Auth,
		Sessions: sessions,
		Verifier: bootstrap.BuildVerifier(cfg, logger),
		Geocoder: bootstrap.BuildGeocoder(cfg, logger),
		Logger:   logger,
	}
	if uploader != nil {
		deps.Uploader = uploader
	}

	otpLimiter := httpmiddleware.NewRateLimiter(cfg.OTPRatePerSecond, cfg.OTPBurst)
	defer otpLimiter.Stop()

	h = portal.New(portal.Config{
		Client:             client,
		Sessions:           sessions,
		Composer:           bookings.NewComposer(bookings.ClientAPI(client), bookingMetrics, logger),
		Registration:       auth.NewRegistration(deps),
		Login:              auth.NewLogin(deps),
		Logger:             logger,
		OTPLimiter:         otpLimiter,
		MetricsHandler:     promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      h.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
	fmt.Println("Server exited gracefully")
}
