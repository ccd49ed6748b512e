package main

import (
	"fmt"
	"net"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"

	"github.com/luca-patrignani/cribbage/config"
	"github.com/luca-patrignani/cribbage/observability"
	"github.com/luca-patrignani/cribbage/persistence"
)

// openStore builds the snapshot store selected by the configuration. A nil
// store disables persistence.
func openStore(cfg config.Config) (persistence.Store, func() error, error) {
	noop := func() error { return nil }
	switch cfg.Snapshot.Backend {
	case "none":
		return nil, noop, nil
	case "memory":
		return persistence.NewMemory(cfg.Snapshot.MaxAge), noop, nil
	case "file":
		return persistence.NewFile(cfg.Snapshot.Path, cfg.Snapshot.MaxAge), noop, nil
	case "redis":
		r := persistence.NewRedis(cfg.Snapshot.RedisAddr, os.Getenv("CRIBBAGE_REDIS_PASSWORD"), 0,
			persistence.WithTTL(cfg.Snapshot.MaxAge))
		return r, r.Close, nil
	}
	return nil, nil, fmt.Errorf("unknown snapshot backend %q", cfg.Snapshot.Backend)
}

// metricsRouter exposes the Prometheus registry of m.
func metricsRouter(m *observability.Metrics) chi.Router {
	r := chi.NewRouter()
	r.Get("/metrics", m.Handler().ServeHTTP)
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	return r
}

// serveMetrics starts the metrics endpoint when an address is configured.
func serveMetrics(addr string, m *observability.Metrics) (*http.Server, error) {
	if addr == "" {
		return nil, nil
	}
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("metrics endpoint: %w", err)
	}
	srv := &http.Server{Handler: metricsRouter(m)}
	go func() {
		_ = srv.Serve(l)
	}()
	return srv, nil
}
