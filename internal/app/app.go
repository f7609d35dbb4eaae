package app

import (
	"context"
	"errors"
	"fmt"
	stdhttp "net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/linechat/internal/config"
	"github.com/vovakirdan/linechat/internal/core"
	"github.com/vovakirdan/linechat/internal/store"
	"github.com/vovakirdan/linechat/internal/store/memory"
	"github.com/vovakirdan/linechat/internal/store/sqlite"
	transporthttp "github.com/vovakirdan/linechat/internal/transport/http"
	"github.com/vovakirdan/linechat/internal/transport/tcp"
)

// App wires together core and transport layers.
type App struct {
	chat            *tcp.Server
	server          *stdhttp.Server // nil when the HTTP side is disabled
	shutdownTimeout time.Duration
	hub             *core.Hub
	store           store.HistoryStore
	log             *zerolog.Logger
}

// New constructs the application with provided configuration.
func New(cfg *config.Config, logger *zerolog.Logger) (*App, error) {
	st, err := openHistory(cfg)
	if err != nil {
		return nil, fmt.Errorf("init history store: %w", err)
	}
	logger.Info().Str("driver", cfg.HistoryDriver).Str("dsn", cfg.HistoryDSN).Msg("history store initialized")

	hub := core.NewHub(hubOptions(cfg), st, logger)

	a := &App{
		chat:            tcp.NewServer(cfg.Addr(), hub, logger),
		shutdownTimeout: cfg.ShutdownTimeout,
		hub:             hub,
		store:           st,
		log:             logger,
	}
	if cfg.HTTPAddr != "" {
		a.server = transporthttp.NewServer(hub, *cfg, logger)
	}
	return a, nil
}

func openHistory(cfg *config.Config) (store.HistoryStore, error) {
	switch cfg.HistoryDriver {
	case config.HistoryDriverSQLite:
		st, err := sqlite.New(cfg.HistoryDSN, cfg.HistoryCapacity)
		if err != nil {
			return nil, err
		}
		return st, nil
	case config.HistoryDriverMemory, "":
		return memory.New(cfg.HistoryCapacity), nil
	default:
		return nil, fmt.Errorf("unknown history driver %q", cfg.HistoryDriver)
	}
}

func hubOptions(cfg *config.Config) core.Options {
	return core.Options{
		ReportsLimit:      cfg.ReportsLimit,
		BanDuration:       cfg.BanDurationTime(),
		TimeFormat:        cfg.TimeFormat,
		OutboundBuffer:    cfg.OutboundBuffer,
		WriteTimeout:      cfg.WriteTimeout,
		MaxLineBytes:      cfg.MaxLineBytes,
		RateLimitBurst:    cfg.RateLimitBurst,
		RateLimitInterval: cfg.RateLimitInterval,
	}
}

// Listen binds the chat listener early so bind errors surface before Run.
func (a *App) Listen() error {
	return a.chat.Listen()
}

// Run starts the servers and blocks until context cancellation or fatal error.
func (a *App) Run(ctx context.Context) error {
	if err := a.chat.Listen(); err != nil {
		a.cleanup()
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	chatErr := make(chan error, 1)
	go func() {
		chatErr <- a.chat.Serve(ctx)
	}()

	serverErr := make(chan error, 1)
	if a.server != nil {
		go func() {
			a.log.Info().Str("addr", a.server.Addr).Msg("http server listening")
			if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
				serverErr <- err
				return
			}
			serverErr <- nil
		}()
	}

	var runErr error
	select {
	case runErr = <-chatErr:
		chatErr = nil
	case runErr = <-serverErr:
		serverErr = nil
	case <-ctx.Done():
	}

	a.log.Info().Msg("shutting down")
	a.hub.Shutdown()
	cancel()

	if a.server != nil {
		shutdownCtx, stop := context.WithTimeout(context.Background(), a.shutdownTimeout)
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			runErr = errors.Join(runErr, err)
		}
		stop()
		if serverErr != nil {
			runErr = errors.Join(runErr, <-serverErr)
		}
	}
	if chatErr != nil {
		runErr = errors.Join(runErr, <-chatErr)
	}

	a.cleanup()
	return runErr
}

// cleanup closes the history store.
func (a *App) cleanup() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close store")
		} else {
			a.log.Info().Msg("store closed")
		}
	}
}

// Hub exposes the running hub, mainly for embedding and tests.
func (a *App) Hub() *core.Hub {
	return a.hub
}

// ChatAddr returns the bound chat address once listening.
func (a *App) ChatAddr() string {
	if addr := a.chat.Addr(); addr != nil {
		return addr.String()
	}
	return ""
}
