package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// serve runs the status server until ctx is done, then shuts it down gracefully
func (app *application) serve(ctx context.Context) error {
	app.Server = &http.Server{
		Addr:         app.Config.StatusAddr,
		Handler:      app.routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	app.shutdown = make(chan struct{})
	app.Server.RegisterOnShutdown(func() { close(app.shutdown) })

	serveErr := make(chan error, 1)
	go func() {
		app.Logger.Info("Starting status server", zap.String("address", app.Server.Addr))
		serveErr <- app.Server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err

	case <-ctx.Done():
		app.Logger.Info("Shutting down status server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
		defer cancel()

		if err := app.Server.Shutdown(shutdownCtx); err != nil {
			app.Logger.Error("Server forced to shutdown", zap.Error(err))
			return err
		}

		app.Logger.Info("Status server stopped gracefully")
		return nil
	}
}
