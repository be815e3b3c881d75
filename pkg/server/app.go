package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	xhttp "Consensus/pkg/http"
	applogger "Consensus/pkg/logger"
)

// App owns the HTTP server lifecycle. Infrastructure is released by the
// cleanup function returned from DI, after Run returns.
type App struct {
	server *xhttp.Server
	log    *applogger.Logger
}

// New creates a new App.
func New(server *xhttp.Server, l *applogger.Logger) *App {
	if l == nil {
		l = applogger.Nop()
	}
	return &App{server: server, log: l}
}

// Run starts the application and blocks until SIGINT or SIGTERM.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return a.RunContext(ctx)
}

// RunContext starts the HTTP server and shuts it down when ctx is done.
func (a *App) RunContext(ctx context.Context) error {
	if err := a.server.Start(); err != nil {
		a.log.Error("http server start error", applogger.Error(err))
		return err
	}

	<-ctx.Done()
	a.log.Info("shutdown signal received")
	return a.shutdown()
}

func (a *App) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.server.ShutdownTimeout())
	defer cancel()

	if err := a.server.Stop(ctx); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
		return err
	}
	a.log.Info("shutdown complete")
	return nil
}
