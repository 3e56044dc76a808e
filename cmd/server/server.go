package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// shutdownTimeout bounds how long graceful shutdown waits for in-flight
// requests before closing connections.
const shutdownTimeout = 10 * time.Second

// startHTTPServer serves the given handler and blocks until the server
// fails or a SIGINT/SIGTERM arrives, then drains in-flight requests and
// runs application cleanup.
func (app *application) startHTTPServer(handler http.Handler) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", app.config.Server.Port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		app.logger.Info("server listening", "addr", srv.Addr)
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig.String())

		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			if closeErr := srv.Close(); closeErr != nil {
				app.logger.Error("failed to force close server", "error", closeErr)
			}
			app.cleanup()
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}

		app.cleanup()
	}

	return nil
}
