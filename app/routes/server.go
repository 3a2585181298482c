package routes

import (
	"context"
	"errors"
	"net/http"
	"time"

	"inkwell/app/config"

	"github.com/rs/zerolog/log"
)

// Server wraps http.Server with start-up and graceful shutdown logging.
type Server struct {
	*http.Server
}

func NewServer(addr string, handler http.Handler, timeouts config.Server) *Server {
	return &Server{&http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  timeouts.ReadTimeout,
		WriteTimeout: timeouts.WriteTimeout,
		IdleTimeout:  timeouts.IdleTimeout,
	}}
}

// StartServer listens until the server is shut down. A clean shutdown sends
// nil on errCh.
func (s *Server) StartServer(errCh chan<- error) {
	log.Info().Str("addr", s.Addr).Msg("server started")
	err := s.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		err = nil
	}
	errCh <- err
}

// ShutdownGracefully waits up to timeout for in-flight requests.
func (s *Server) ShutdownGracefully(timeout time.Duration) error {
	log.Info().Msg("gracefully shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := s.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("error shutting down the server")
		return err
	}
	log.Info().Msg("server gracefully shut down")
	return nil
}
