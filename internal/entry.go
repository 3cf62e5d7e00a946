// Package internal wires configuration, transport, sessions and windows into
// the host and joiner applications.
package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	fyneapp "fyne.io/fyne/v2/app"
	"golang.org/x/sync/errgroup"

	"LocalDoodle/internal/net"
	"LocalDoodle/internal/session"
	"LocalDoodle/internal/ui"
)

const (
	appID        = "io.localdoodle"
	appTitle     = "LocalDoodle"
	shutdownWait = 5 * time.Second
)

func newApplication(opts []Option) (*application, error) {
	app := &application{}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	if app.gui == nil {
		app.gui = fyneapp.NewWithID(appID)
	}
	return app, nil
}

// newLogger builds the structured logger described by cfg.
func newLogger(cfg ApplicationConfig, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel}
	if cfg.LogFormat == LogFormatJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// RunHost listens for joining peers and opens a board for each of them. It
// blocks until the lobby window is closed or ctx is cancelled.
func RunHost(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	logger := newLogger(cfg.App, os.Stderr)
	slog.SetDefault(logger)

	settings, err := cfg.Settings()
	if err != nil {
		return fmt.Errorf("session settings: %w", err)
	}

	logger.Info("Configuration loaded",
		slog.String("name", cfg.App.Name),
		slog.String("address", cfg.Net.Address()),
		slog.Int("flush_threshold", cfg.Sync.FlushThreshold),
		slog.String("log_level", cfg.App.LogLevel.String()))

	shell := ui.NewShell(app.gui, appTitle+" (host)", settings.Background, logger)

	var in *inbox
	hub := net.NewHub(cfg.App.Name, net.NewClock(), func(peer string, msg net.Message) {
		in.Handle(peer, msg)
	},
		net.WithLogger(logger),
		net.WithSendBuffer(cfg.Sync.SendBuffer),
		net.WithWelcome(func(string) net.Message {
			brush := settings.Brush
			return net.Message{Width: settings.Width, Height: settings.Height, Brush: &brush}
		}))

	var dir *session.Directory
	dir = session.NewDirectory(settings, hub,
		session.WithLogger(logger),
		session.WithDispatch(shell.Do),
		session.WithOnOpen(func(s *session.Session) {
			shell.OpenBoard(s, func() { _ = dir.Close(s.Peer) })
		}),
		session.WithOnClose(func(s *session.Session) {
			shell.CloseBoard(s.Peer)
		}))
	in = newInbox(dir, shell.SyncBrush, logger)

	httpServer := &http.Server{
		Addr:              cfg.Net.Address(),
		Handler:           net.NewRouter(hub),
		ReadHeaderTimeout: 10 * time.Second,
	}

	link := net.ShareLink(net.OutgoingIP(), cfg.Net.Port)
	shell.ShowLink(link)
	shell.SetStatus("Waiting for peers")
	logger.Info("Share link", slog.String("link", link))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.Net.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	if cfg.Net.MDNS {
		g.Go(func() error {
			srv, err := net.Advertise(cfg.Net.Port, "name="+cfg.App.Name)
			if err != nil {
				logger.Warn("mDNS advertising disabled", slog.String("error", err.Error()))
				return nil
			}
			logger.Info("Advertising on the local network", slog.String("service", net.ServiceType))
			<-gCtx.Done()
			return srv.Shutdown()
		})
	}

	g.Go(func() error {
		waitForShutdown(gCtx, logger)
		hub.Close()
		dir.CloseAll()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownWait)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}
		shell.Quit()
		return nil
	})

	shell.Run()
	cancel()

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}
	logger.Info("Host stopped")
	return nil
}

// RunJoin connects to a host and opens a board for it. It blocks until the
// lobby window is closed or ctx is cancelled.
func RunJoin(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	logger := newLogger(cfg.App, os.Stderr)
	slog.SetDefault(logger)

	settings, err := cfg.Settings()
	if err != nil {
		return fmt.Errorf("session settings: %w", err)
	}

	addr, err := resolveHost(ctx, app.link, cfg.Net, logger)
	if err != nil {
		return err
	}

	shell := ui.NewShell(app.gui, appTitle, settings.Background, logger)

	var in *inbox
	client, err := net.Dial(ctx, addr, cfg.App.Name, net.NewClock(), func(peer string, msg net.Message) {
		in.Handle(peer, msg)
	},
		net.WithLogger(logger),
		net.WithSendBuffer(cfg.Sync.SendBuffer))
	if err != nil {
		return fmt.Errorf("connect to host: %w", err)
	}
	defer client.Close()

	var dir *session.Directory
	dir = session.NewDirectory(settings, client,
		session.WithLogger(logger),
		session.WithDispatch(shell.Do),
		session.WithOnOpen(func(s *session.Session) {
			// Closing the only board leaves the host.
			shell.OpenBoard(s, func() {
				_ = dir.Close(s.Peer)
				client.Close()
			})
		}),
		session.WithOnClose(func(s *session.Session) {
			shell.CloseBoard(s.Peer)
		}))
	in = newInbox(dir, shell.SyncBrush, logger)

	shell.SetStatus(fmt.Sprintf("Connected to %s at %s", client.Host(), addr))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		err := client.Run(gCtx)
		if err != nil {
			shell.SetStatus("Connection lost")
			return err
		}
		shell.SetStatus("Disconnected from host")
		return nil
	})

	g.Go(func() error {
		waitForShutdown(gCtx, logger)
		client.Close()
		dir.CloseAll()
		shell.Quit()
		return nil
	})

	shell.Run()
	cancel()

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}
	logger.Info("Left host", slog.String("host", client.Host()))
	return nil
}

// resolveHost turns a share link into an address, browsing the local network
// when no link was given.
func resolveHost(ctx context.Context, link string, cfg NetConfig, logger *slog.Logger) (string, error) {
	if link != "" {
		return net.ParseShareLink(link)
	}
	if !cfg.MDNS {
		return "", fmt.Errorf("no share link given and mDNS is disabled: %w", net.ErrNoHost)
	}
	logger.Info("Looking for hosts", slog.Duration("timeout", cfg.DiscoverTimeout))
	addr, err := net.DiscoverHost(ctx, cfg.DiscoverTimeout)
	if err != nil {
		return "", fmt.Errorf("discover host: %w", err)
	}
	logger.Info("Found host", slog.String("address", addr))
	return addr, nil
}

func waitForShutdown(ctx context.Context, logger *slog.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case sig := <-quit:
		logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
	case <-ctx.Done():
		logger.Info("Context cancelled, initiating shutdown")
	}
}
