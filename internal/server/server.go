// Package server wires configuration, the user directory and the gate into
// the demo HTTP server.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/trace"

	"github.com/moonzhou/jwtgate"
	"github.com/moonzhou/jwtgate/core"
	"github.com/moonzhou/jwtgate/directory"
	"github.com/moonzhou/jwtgate/internal/config"
	"github.com/moonzhou/jwtgate/validator"
)

// Deps are the collaborators NewHandler wires together.
type Deps struct {
	Directory directory.Directory
	Logger    *logrus.Logger
	Tracer    trace.Tracer
	Registry  *prometheus.Registry
}

// NewGate builds the gate from the auth configuration.
func NewGate(cfg config.AuthConfig, dir directory.Directory, logger jwtgate.Logger) (*core.Gate, error) {
	v, err := validator.New(
		validator.WithAlgorithm(validator.SignatureAlgorithm(cfg.Algorithm)),
		validator.WithAllowedClockSkew(cfg.ClockSkew),
	)
	if err != nil {
		return nil, err
	}

	return core.New(
		core.WithDirectory(dir),
		core.WithVerifier(v),
		core.WithLogger(logger),
	)
}

// NewOperations builds the route table from the auth configuration.
func NewOperations(cfg config.AuthConfig) (*jwtgate.Operations, error) {
	ops, err := jwtgate.ParseOperations(cfg.Protected)
	if err != nil {
		return nil, err
	}
	for _, pattern := range cfg.Public {
		if err := ops.Register(pattern, core.Public); err != nil {
			return nil, err
		}
	}
	return ops, nil
}

// NewHandler returns the demo API behind the authentication middleware.
func NewHandler(cfg *config.Config, deps Deps) (http.Handler, error) {
	logger := jwtgate.NewLogrusLogger(deps.Logger)

	gate, err := NewGate(cfg.Auth, deps.Directory, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create gate: %w", err)
	}

	ops, err := NewOperations(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to build operations: %w", err)
	}

	middleware, err := jwtgate.New(
		jwtgate.WithGate(gate),
		jwtgate.WithOperations(ops),
		jwtgate.WithLogger(logger),
		jwtgate.WithMetrics(jwtgate.NewPrometheusMetrics(deps.Registry)),
		jwtgate.WithTracer(jwtgate.NewOpenTelemetryTracer(deps.Tracer)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create middleware: %w", err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.HandleFunc("GET /users/{id}", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"id":            r.PathValue("id"),
			"authenticated": true,
		})
	})
	if cfg.Metrics.Enabled {
		mux.Handle("GET "+cfg.Metrics.Path, promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	return middleware.CheckToken(mux), nil
}

// Run starts the server and blocks until ctx is cancelled or the server fails.
func Run(ctx context.Context, cfg *config.Config, stdout io.Writer) error {
	log, err := NewLogger(cfg.Logging, stdout)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}

	dir, closeDirectory, err := OpenDirectory(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("failed to open user directory: %w", err)
	}
	defer func() {
		if err := closeDirectory(); err != nil {
			log.WithError(err).Warn("failed to close user directory")
		}
	}()

	tracer, shutdownTracer, err := InitTracer(ctx, cfg.Tracing)
	if err != nil {
		return fmt.Errorf("failed to init tracer: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	handler, err := NewHandler(cfg, Deps{
		Directory: dir,
		Logger:    log,
		Tracer:    tracer,
		Registry:  registry,
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", cfg.Server.Addr).Info("server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout(cfg))
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	return shutdownTracer(shutdownCtx)
}

func shutdownTimeout(cfg *config.Config) time.Duration {
	if cfg.Server.ShutdownTimeout > 0 {
		return cfg.Server.ShutdownTimeout
	}
	return 15 * time.Second
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
