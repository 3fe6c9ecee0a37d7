package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/otel"

	"github.com/mercato/storefront/internal/checkout/adapters"
	httpadapter "github.com/mercato/storefront/internal/checkout/adapters/http"
	"github.com/mercato/storefront/internal/checkout/adapters/memory"
	checkoutpostgres "github.com/mercato/storefront/internal/checkout/adapters/postgres"
	checkoutapp "github.com/mercato/storefront/internal/checkout/app"
	"github.com/mercato/storefront/internal/checkout/app/commands"
	checkoutmetrics "github.com/mercato/storefront/internal/checkout/metrics"
	"github.com/mercato/storefront/internal/checkout/payment"
	"github.com/mercato/storefront/internal/config"
	"github.com/mercato/storefront/internal/database"
	"github.com/mercato/storefront/internal/events"
	idempostgres "github.com/mercato/storefront/internal/idempotency/postgres"
	"github.com/mercato/storefront/internal/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := telemetry.NewLogger(parseLogLevel(cfg.Telemetry.LogLevel))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tel, err := telemetry.Initialize(ctx, telemetry.Config{
		ServiceName:    cfg.Service.Name,
		ServiceVersion: cfg.Service.Version,
		Environment:    cfg.Service.Environment,
		OTLPEndpoint:   cfg.Telemetry.OTelEndpoint,
		EnableTracing:  cfg.Telemetry.EnableTracing && cfg.Telemetry.OTelEndpoint != "",
		EnableMetrics:  cfg.Telemetry.EnableMetrics && cfg.Telemetry.OTelEndpoint != "",
		SampleRate:     cfg.Telemetry.SampleRate,
	})
	if err != nil {
		logger.Error("failed to initialize telemetry", "error", err)
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tel.Shutdown(shutdownCtx); err != nil {
			logger.Error("telemetry shutdown failed", "error", err)
		}
	}()

	pool, err := database.NewPool(ctx, cfg.Database.URL)
	if err != nil {
		logger.Error("failed to create database pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if cfg.Database.AutoMigrate {
		logger.Info("running database migrations", "path", cfg.Database.MigrationsPath)
		if err := database.RunMigrations(cfg.Database.URL, cfg.Database.MigrationsPath); err != nil {
			logger.Error("failed to run migrations", "error", err)
			os.Exit(1)
		}
		logger.Info("migrations completed successfully")
	}

	meter := otel.GetMeterProvider().Meter(cfg.Service.Name)

	dbMetrics, err := database.NewMetrics(meter)
	if err != nil {
		logger.Error("failed to create database metrics", "error", err)
		os.Exit(1)
	}
	eventMetrics, err := events.NewMetrics(meter)
	if err != nil {
		logger.Error("failed to create event metrics", "error", err)
		os.Exit(1)
	}
	domainMetrics, err := checkoutmetrics.NewMetrics(meter)
	if err != nil {
		logger.Error("failed to create checkout metrics", "error", err)
		os.Exit(1)
	}
	httpMetrics, err := httpadapter.NewMetrics(meter)
	if err != nil {
		logger.Error("failed to create http metrics", "error", err)
		os.Exit(1)
	}

	repo := adapters.NewObservableRepository(checkoutpostgres.NewRepository(pool), dbMetrics)
	idemStore := idempostgres.NewStore(pool)
	eventBus := adapters.NewObservableEventBus(events.NewNoopPublisher(), eventMetrics)
	gateway := payment.NewClient(cfg.Payment.GatewayURL, cfg.Payment.SecretKey, cfg.Payment.RequestTimeout)

	// Until session-scoped carts arrive the API serves a single in-memory
	// cart per process; the checkout flow only sees the CartStore port.
	cart := memory.NewCartStore()

	service := checkoutapp.NewService(
		gateway, repo, cart, eventBus, idemStore, logger, domainMetrics,
		commands.WithRetryPolicy(cfg.Checkout.MaxPaymentAttempts, cfg.Checkout.RetryBaseDelay),
	)
	checkoutHandler := httpadapter.NewHandler(service)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if err := database.CheckHealth(r.Context(), pool); err != nil {
			respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready", "error": err.Error()})
			return
		}
		respondJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	})

	mux.HandleFunc(cfg.HTTP.MetricsPath, func(w http.ResponseWriter, _ *http.Request) {
		// Metrics are exported over OTLP; this endpoint only aids probes.
		w.Header().Set("Content-Type", "text/plain; version=0.0.4")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("# metrics are exported via OTLP\n"))
	})

	checkoutHandler.Register(mux)

	handler := withRecovery(withLogging(httpadapter.WithMetrics(mux, httpMetrics)))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("http server starting", "port", cfg.HTTP.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownGrace)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	} else {
		logger.Info("http server stopped")
	}
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rw, r)
		slog.Info("http request", "method", r.Method, "path", r.URL.Path, "status", rw.status, "duration", time.Since(start))
	})
}

func withRecovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				slog.Error("panic recovered", "error", rec)
				respondJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
			}
		}()
		next.ServeHTTP(w, r)
	})
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (w *responseWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
