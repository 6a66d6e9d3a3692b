package app

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"warehouse/internal/config"
	"warehouse/internal/platform/observability"
)

// Worker is a long-running loop stopped by cancelling its context.
type Worker interface {
	Start(ctx context.Context) error
}

// Application holds all the components and manages the application lifecycle
type Application struct {
	ctx             context.Context
	cancel          context.CancelFunc
	logger          observability.Logger
	server          *http.Server
	workers         []Worker
	shutdownTimeout time.Duration
	shutdown        func(context.Context)
}

// NewProductApplication creates the product service host.
func NewProductApplication(ctx context.Context) (*Application, error) {
	cfg, err := config.LoadProductService()
	if err != nil {
		return nil, err
	}

	appCtx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	container, err := NewProductContainer(appCtx, cfg)
	if err != nil {
		cancel()
		return nil, err
	}

	workers := make([]Worker, 0, len(container.Consumers()))
	for _, c := range container.Consumers() {
		workers = append(workers, c)
	}
	app := newApplication(appCtx, cancel, container.Logger(), cfg.HTTPAddr, container.HTTPHandler(), workers, cfg.ShutdownTimeout)
	app.shutdown = container.Shutdown
	app.logger.Info("Application initialized successfully")
	return app, nil
}

// NewInventoryApplication creates the inventory service host.
func NewInventoryApplication(ctx context.Context) (*Application, error) {
	cfg, err := config.LoadInventoryService()
	if err != nil {
		return nil, err
	}

	appCtx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	container, err := NewInventoryContainer(appCtx, cfg)
	if err != nil {
		cancel()
		return nil, err
	}

	app := newApplication(appCtx, cancel, container.Logger(), cfg.HTTPAddr, container.HTTPHandler(), nil, cfg.ShutdownTimeout)
	app.shutdown = container.Shutdown
	app.logger.Info("Application initialized successfully")
	return app, nil
}

func newApplication(ctx context.Context, cancel context.CancelFunc, logger observability.Logger, addr string, handler http.Handler, workers []Worker, shutdownTimeout time.Duration) *Application {
	return &Application{
		ctx:    ctx,
		cancel: cancel,
		logger: logger,
		server: &http.Server{
			Addr:              addr,
			Handler:           handler,
			BaseContext:       func(net.Listener) context.Context { return ctx },
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       10 * time.Second,
			WriteTimeout:      30 * time.Second,
		},
		workers:         workers,
		shutdownTimeout: shutdownTimeout,
	}
}

// Run serves HTTP and runs the workers until the context is cancelled or one
// of them fails.
func (app *Application) Run() error {
	g, ctx := errgroup.WithContext(app.ctx)

	g.Go(func() error {
		app.logger.Info("Starting HTTP server", zap.String("address", app.server.Addr))
		if err := app.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	for _, w := range app.workers {
		g.Go(func() error { return w.Start(ctx) })
	}

	g.Go(func() error {
		<-ctx.Done()
		app.logger.Info("Shutdown signal received, initiating graceful shutdown...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), app.shutdownTimeout)
		defer cancel()
		if err := app.server.Shutdown(shutdownCtx); err != nil {
			app.logger.Error("HTTP server graceful shutdown failed", zap.Error(err))
			return err
		}
		app.logger.Info("HTTP server shutdown complete.")
		return nil
	})

	return g.Wait()
}

// Shutdown gracefully shuts down all application components
func (app *Application) Shutdown() {
	app.logger.Info("Starting application shutdown...")

	if app.cancel != nil {
		app.cancel()
	}

	if app.shutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), app.shutdownTimeout)
		defer cancel()
		app.shutdown(ctx)
	}
}
