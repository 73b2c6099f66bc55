package portal

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/wifiportal/internal/fault"
	"github.com/muurk/wifiportal/internal/logging"
)

// Exchange is one HTTP request waiting for the poll loop.
type Exchange struct {
	w    http.ResponseWriter
	r    *http.Request
	done chan struct{}
}

// Request returns the pending request.
func (e *Exchange) Request() *http.Request {
	return e.r
}

// Config holds the server configuration
type Config struct {
	Addr            string
	ShutdownTimeout time.Duration // bound on waiting for in-flight requests
}

// Server accepts HTTP connections concurrently but hands every request to
// the owner of Exchanges, so the handler only ever runs on that goroutine.
type Server struct {
	config    *Config
	handler   http.Handler
	listener  net.Listener
	http      *http.Server
	exchanges chan *Exchange
	quit      chan struct{}
	failed    chan struct{}
	err       error
	quitOnce  sync.Once
	wg        sync.WaitGroup
}

// Listen binds the configured address. Start begins accepting.
func Listen(config *Config, handler http.Handler) (*Server, error) {
	listener, err := net.Listen("tcp", config.Addr)
	if err != nil {
		return nil, fault.NewNetworkError(fmt.Sprintf("listen http %s", config.Addr), err)
	}

	s := &Server{
		config:    config,
		handler:   handler,
		listener:  listener,
		exchanges: make(chan *Exchange),
		quit:      make(chan struct{}),
		failed:    make(chan struct{}),
	}
	s.http = &http.Server{
		Handler:           http.HandlerFunc(s.enqueue),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

// Addr returns the bound address.
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

// Start serves in the background until Shutdown.
func (s *Server) Start() {
	logging.Info("Portal listening", zap.String("addr", s.listener.Addr().String()))

	go func() {
		if err := s.http.Serve(s.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error("Portal server stopped", zap.Error(err))
			s.err = fault.NewNetworkError("serve http", err)
			close(s.failed)
		}
	}()
}

// Failed is closed when the server stops accepting for any reason other
// than Shutdown. Err then returns the cause.
func (s *Server) Failed() <-chan struct{} {
	return s.failed
}

// Err returns why the server stopped. It is only set once Failed is closed.
func (s *Server) Err() error {
	select {
	case <-s.failed:
		return s.err
	default:
		return nil
	}
}

// Exchanges delivers pending requests. Each must be passed to Serve.
func (s *Server) Exchanges() <-chan *Exchange {
	return s.exchanges
}

// Serve runs the handler for ex and releases its connection.
func (s *Server) Serve(ex *Exchange) {
	defer close(ex.done)
	s.handler.ServeHTTP(ex.w, ex.r)
}

// Shutdown stops accepting, abandons queued requests and waits for the
// in-flight ones, bounded by ctx and the configured timeout.
func (s *Server) Shutdown(ctx context.Context) error {
	logging.Info("Shutting down portal server...")
	s.quitOnce.Do(func() { close(s.quit) })

	timeout := s.config.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := s.http.Shutdown(ctx); err != nil {
		logging.Warn("Shutdown timeout, forcing close", zap.Error(err))
		_ = s.http.Close()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logging.Debug("All requests finished")
	case <-ctx.Done():
		logging.Warn("Requests still pending after shutdown")
	}
	return nil
}

// enqueue runs on net/http's connection goroutine.
func (s *Server) enqueue(w http.ResponseWriter, r *http.Request) {
	s.wg.Add(1)
	defer s.wg.Done()

	ex := &Exchange{w: w, r: r, done: make(chan struct{})}

	select {
	case s.exchanges <- ex:
	case <-s.quit:
		return
	case <-r.Context().Done():
		return
	}

	// Once handed over the handler owns w until done.
	<-ex.done
}
