package main

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hammamikhairi/ottopos/internal/config"
	"github.com/hammamikhairi/ottopos/internal/logger"
	"github.com/hammamikhairi/ottopos/internal/stub"
)

func runStub(cfg config.Config, log *logger.Logger) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	backend := stub.New(log)
	if cfg.Stub.Seed {
		backend.Seed()
	}

	// Serve under the same path prefix the clients use.
	prefix := "/"
	if u, err := url.Parse(cfg.BaseURL); err == nil && u.Path != "" && u.Path != "/" {
		prefix = u.Path
	}
	r := chi.NewRouter()
	r.Mount(prefix, backend.Handler())

	srv := &http.Server{Addr: cfg.Stub.Addr, Handler: r, ReadHeaderTimeout: 5 * time.Second}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	log.Info("stub backend listening on %s%s", cfg.Stub.Addr, prefix)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	return srv.Shutdown(shutdownCtx)
}
