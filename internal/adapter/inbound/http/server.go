package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// Server runs the control-plane HTTP listener until its context is
// cancelled, then shuts down gracefully.
type Server struct {
	addr            string
	handler         http.Handler
	shutdownTimeout time.Duration
	logger          *slog.Logger

	server *http.Server
}

// NewServer builds a Server around the given handler.
func NewServer(addr string, handler http.Handler, shutdownTimeout time.Duration, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	return &Server{
		addr:            addr,
		handler:         handler,
		shutdownTimeout: shutdownTimeout,
		logger:          logger,
	}
}

// Serve blocks until ctx is cancelled or the listener fails.
func (s *Server) Serve(ctx context.Context) error {
	s.server = &http.Server{
		Addr:    s.addr,
		Handler: s.handler,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", "addr", s.addr)
		err := s.server.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("context cancelled, shutting down HTTP server")
		return s.shutdown()
	case err := <-errCh:
		return err
	}
}

func (s *Server) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		s.logger.Error("error during server shutdown", "error", err)
		return err
	}
	s.logger.Info("HTTP server shutdown complete")
	return nil
}
