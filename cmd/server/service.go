package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"
)

type httpServer interface {
	Start() error
	Shutdown(ctx context.Context) error
}

// service runs the HTTP server and a single generator run side by side until
// ctx is canceled.
type service struct {
	srv             httpServer
	generate        func(ctx context.Context) error
	closeSink       func() error
	shutdownTimeout time.Duration
	logger          *slog.Logger
}

// run blocks until ctx is canceled, then stops the server and waits for the
// generator to return before closing the sink, so writers are flushed and
// closed before the process exits.
func (s *service) run(ctx context.Context) {
	go func() {
		if err := s.srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("http server error", "error", err)
		}
	}()

	generated := make(chan struct{})
	go func() {
		defer close(generated)
		if err := s.generate(ctx); err != nil {
			s.logger.Error("generator error", "error", err)
		}
	}()

	<-ctx.Done()
	s.logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("http server shutdown error", "error", err)
	}

	select {
	case <-generated:
	case <-shutdownCtx.Done():
		s.logger.Error("generator did not stop before shutdown timeout")
	}

	if s.closeSink != nil {
		if err := s.closeSink(); err != nil {
			s.logger.Error("sink close error", "error", err)
		}
	}

	s.logger.Info("shutdown complete")
}
