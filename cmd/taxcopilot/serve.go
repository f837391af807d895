package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"time"

	"github.com/garygangwu/tax-copilot/api"
	"github.com/garygangwu/tax-copilot/observability"
)

func runServe(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	c := commonFlags(fs, "slog")
	addr := fs.String("addr", ":8080", "Listen address")
	fs.Parse(args)

	logger := c.logger(true)
	stats := &observability.Counter{}
	a := c.agent(ctx, logger, stats)
	defer a.Close()

	srv := &http.Server{
		Addr:         *addr,
		Handler:      api.NewRouter(a, logger, api.WithStats(stats)),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server listening", "addr", srv.Addr, "model", a.Generator().Model())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Info("Server stopped")
	return nil
}
