// Package server runs the stepwise HTTP server with graceful shutdown.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/iamharada/stepwise-system/pkg/platform"
)

// Version is set at build time.
var Version = "dev"

const readHeaderTimeout = 10 * time.Second

// NewLogger builds the process logger from the logging section.
func NewLogger(cfg platform.LoggingConfig, w io.Writer) (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		return nil, fmt.Errorf("invalid logging.level %q: %w", cfg.Level, err)
	}
	opts := &slog.HandlerOptions{Level: level}

	switch strings.ToLower(cfg.Format) {
	case "", "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("invalid logging.format %q", cfg.Format)
	}
}

// Server couples the platform with its HTTP listener.
type Server struct {
	platform *platform.Platform
	http     *http.Server
	logger   *slog.Logger
}

// New assembles the platform described by cfg.
func New(ctx context.Context, cfg *platform.Config, logger *slog.Logger, opts ...platform.Option) (*Server, error) {
	opts = append([]platform.Option{
		platform.WithConfig(cfg),
		platform.WithLogger(logger),
	}, opts...)
	p, err := platform.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating platform: %w", err)
	}
	return &Server{
		platform: p,
		logger:   logger,
		http: &http.Server{
			Addr:              cfg.Server.Address,
			Handler:           p.Handler(),
			ReadHeaderTimeout: readHeaderTimeout,
			ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelWarn),
		},
	}, nil
}

// Platform returns the assembled platform.
func (s *Server) Platform() *platform.Platform {
	return s.platform
}

// ListenAndServe listens on the configured address and serves until ctx is
// cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.http.Addr)
	if err != nil {
		_ = s.platform.Stop(ctx)
		return fmt.Errorf("listening on %s: %w", s.http.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled, then stops
// accepting, waits for in-flight requests and shuts the platform down.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	cfg := s.platform.Config()
	if err := s.platform.Start(ctx); err != nil {
		_ = ln.Close()
		_ = s.platform.Stop(context.WithoutCancel(ctx))
		return fmt.Errorf("starting platform: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		if cfg.Server.TLS.Enabled {
			errCh <- s.http.ServeTLS(ln, cfg.Server.TLS.CertFile, cfg.Server.TLS.KeyFile)
			return
		}
		errCh <- s.http.Serve(ln)
	}()
	s.logger.Info("stepwise listening", "address", ln.Addr().String(), "version", Version)

	var serveErr error
	select {
	case <-ctx.Done():
	case serveErr = <-errCh:
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.Server.ShutdownTimeout)
	defer cancel()

	// Readiness drains first so load balancers stop routing.
	s.platform.Health().SetDraining()
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn("http shutdown incomplete", "error", err)
	}
	stopErr := s.platform.Stop(shutdownCtx)

	if serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
		return errors.Join(fmt.Errorf("serving: %w", serveErr), stopErr)
	}
	return stopErr
}
