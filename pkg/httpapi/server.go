package httpapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"tweetrelay/pkg/config"
	"tweetrelay/pkg/logger"
)

// Server runs the router with graceful shutdown. Open streams are cancelled
// when shutdown begins; they end without a terminal event, like a client
// disconnect.
type Server struct {
	cfg    config.ServerConfig
	srv    *http.Server
	logger logger.Logger
	ready  atomic.Bool

	streams context.Context
	cancel  context.CancelFunc
}

// NewServer wires the router around d. d.Ready is replaced by the server's
// own readiness flag.
func NewServer(d Deps) *Server {
	if d.Config == nil {
		d.Config = config.DefaultConfig()
	}
	if d.Logger == nil {
		d.Logger = logger.GetLogger()
	}

	s := &Server{cfg: d.Config.Server, logger: d.Logger}
	s.streams, s.cancel = context.WithCancel(context.Background())
	d.Ready = s.ready.Load

	s.srv = &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           NewRouter(d),
		ReadHeaderTimeout: s.cfg.ReadTimeout,
		ReadTimeout:       s.cfg.ReadTimeout,
		IdleTimeout:       s.cfg.IdleTimeout,
		BaseContext:       func(net.Listener) context.Context { return s.streams },
	}
	return s
}

// Handler returns the HTTP handler, for tests
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

// Serve accepts connections on l until ctx ends, then shuts down
func (s *Server) Serve(ctx context.Context, l net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.srv.Serve(l)
	}()

	s.ready.Store(true)
	logger.LogComponentStart("http", map[string]interface{}{"addr": l.Addr().String()})

	select {
	case err := <-errCh:
		s.ready.Store(false)
		s.cancel()
		return err
	case <-ctx.Done():
	}

	return s.shutdown(errCh)
}

// ListenAndServe listens on the configured address and calls Serve
func (s *Server) ListenAndServe(ctx context.Context) error {
	l, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, l)
}

func (s *Server) shutdown(errCh <-chan error) error {
	s.ready.Store(false)
	s.cancel()

	timeout := s.cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	err := s.srv.Shutdown(ctx)
	if err != nil {
		s.logger.WithError(err).Warn("graceful shutdown timed out, closing connections")
		s.srv.Close()
	}

	if serveErr := <-errCh; serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
		return serveErr
	}
	logger.LogComponentStop("http", "shutdown")
	return err
}
