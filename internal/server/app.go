// Package server wires and runs the relay: configuration, logging, the hub
// and the HTTP server, with graceful shutdown on SIGINT/SIGTERM.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dmitrijs2005/echosync/internal/logging"
	"github.com/dmitrijs2005/echosync/internal/server/config"
	"github.com/dmitrijs2005/echosync/internal/server/relay"
)

const shutdownTimeout = 5 * time.Second

type App struct {
	config  *config.Config
	logger  logging.Logger
	handler *relay.Handler
}

func NewApp(c *config.Config) (*App, error) {
	logger := logging.New(c.LogLevel, c.LogFormat, os.Stdout)

	hub := relay.NewHub(relay.NewHistory(c.HistorySize), logger)
	h := relay.NewHandler(hub, []byte(c.SecretKey), relay.Options{
		PingInterval: c.PingInterval,
		MinInterval:  c.MinInterval,
		WindowLimit:  c.WindowLimit,
		Window:       c.Window,
	}, logger)

	return &App{config: c, logger: logger, handler: h}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run serves until ctx is cancelled or a signal arrives.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.initSignalHandler(cancelFunc)

	ln, err := net.Listen("tcp", app.config.Addr)
	if err != nil {
		return err
	}

	return app.Serve(ctx, ln)
}

// Serve runs the relay on ln until ctx is cancelled.
func (app *App) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           app.handler.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		app.logger.Info(ctx, "Starting relay", "address", ln.Addr().String())
		errc <- srv.Serve(ln)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	app.logger.Info(context.Background(), "Stopping relay...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	err := srv.Shutdown(shutdownCtx)
	app.handler.Shutdown()
	app.handler.Wait()

	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return err
}
