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

	"github.com/DoyleJ11/mlbb-draft/internal/config"
	"github.com/DoyleJ11/mlbb-draft/internal/engine"
	"github.com/DoyleJ11/mlbb-draft/internal/httpapi"
	"github.com/DoyleJ11/mlbb-draft/internal/hub"
	"github.com/DoyleJ11/mlbb-draft/internal/lobby"
	"github.com/DoyleJ11/mlbb-draft/internal/logging"
	"github.com/DoyleJ11/mlbb-draft/internal/ws"
	"github.com/jonboulle/clockwork"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() (err error) {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	log, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	defer func() {
		// Sync on a console fd returns EINVAL on some platforms.
		if syncErr := log.Sync(); syncErr != nil && !errors.Is(syncErr, syscall.EINVAL) && !errors.Is(syncErr, syscall.ENOTTY) {
			err = multierr.Append(err, syncErr)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	h := hub.NewHub(ctx, log)
	l := lobby.NewLobby(ctx, h, lobby.Options{
		Rules:        engine.Rules{TurnSeconds: cfg.TurnSeconds},
		Clock:        clockwork.NewRealClock(),
		TickInterval: cfg.TickInterval,
		Logger:       log,
	})

	wsOpts := ws.DefaultOptions()
	wsOpts.OriginPatterns = cfg.AllowedOrigins
	wsOpts.EventRate = rate.Limit(cfg.ClientRate)
	wsOpts.EventBurst = cfg.ClientBurst

	srv := &http.Server{
		Addr: cfg.Addr,
		Handler: httpapi.SetupRoutes(l, httpapi.RouteConfig{
			AllowedOrigins: cfg.AllowedOrigins,
			WS:             wsOpts,
		}, log),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("listening", zap.String("addr", cfg.Addr), zap.Int("turn_seconds", cfg.TurnSeconds))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		var errs error
		errs = multierr.Append(errs, srv.Shutdown(shutdownCtx))
		if sendErr := l.Send(shutdownCtx, lobby.Shutdown{}); sendErr != nil && !errors.Is(sendErr, lobby.ErrClosed) {
			errs = multierr.Append(errs, sendErr)
		}
		select {
		case <-l.Done():
		case <-shutdownCtx.Done():
			errs = multierr.Append(errs, fmt.Errorf("lobby shutdown: %w", shutdownCtx.Err()))
		}
		select {
		case h.Inbox() <- hub.ShutdownHub{}:
		case <-h.Done():
		case <-shutdownCtx.Done():
		}
		return errs
	})

	return g.Wait()
}
