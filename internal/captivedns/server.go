package captivedns

import (
	"context"
	"fmt"
	"net"
	"sync"

	"github.com/miekg/dns"
	"go.uber.org/zap"

	"github.com/muurk/wifiportal/internal/fault"
	"github.com/muurk/wifiportal/internal/logging"
)

// Query is one received DNS request waiting to be answered.
type Query struct {
	Msg    *dns.Msg
	Remote net.Addr
	reply  chan *dns.Msg
}

// Server receives DNS queries over UDP and queues them for the poll loop.
type Server struct {
	responder *Responder
	srv       *dns.Server
	conn      net.PacketConn
	queries   chan *Query
	done      chan struct{}
	closeOnce sync.Once
	started   bool
}

// Listen binds addr (":53" on the device) and returns a server that is not
// yet receiving. Call Start to begin queueing queries.
func Listen(addr string, responder *Responder) (*Server, error) {
	conn, err := net.ListenPacket("udp", addr)
	if err != nil {
		return nil, fault.NewNetworkError(fmt.Sprintf("listen dns %s", addr), err)
	}

	s := &Server{
		responder: responder,
		conn:      conn,
		queries:   make(chan *Query),
		done:      make(chan struct{}),
	}
	s.srv = &dns.Server{
		PacketConn: conn,
		Handler:    dns.HandlerFunc(s.serveDNS),
	}
	return s, nil
}

// Addr returns the bound address.
func (s *Server) Addr() net.Addr {
	return s.conn.LocalAddr()
}

// Start receives in the background until Shutdown.
func (s *Server) Start() {
	s.started = true
	go func() {
		if err := s.srv.ActivateAndServe(); err != nil {
			select {
			case <-s.done:
			default:
				logging.Error("DNS server stopped", zap.Error(err))
			}
		}
	}()
}

// Queries delivers received queries. Each must be passed to Serve.
func (s *Server) Queries() <-chan *Query {
	return s.queries
}

// Serve answers q with the responder.
func (s *Server) Serve(q *Query) {
	m := s.responder.Answer(q.Msg)
	logging.LogDNSQuery(q.Remote.String(), questionNames(q.Msg), s.responder.Address.String())
	q.reply <- m
}

// Shutdown stops receiving and unblocks pending queries.
func (s *Server) Shutdown(ctx context.Context) error {
	s.closeOnce.Do(func() { close(s.done) })
	if !s.started {
		return s.conn.Close()
	}
	if err := s.srv.ShutdownContext(ctx); err != nil {
		// Not serving yet; closing the socket ends ActivateAndServe.
		return s.conn.Close()
	}
	return nil
}

// serveDNS runs on the dns package's goroutine and waits for the loop.
func (s *Server) serveDNS(w dns.ResponseWriter, req *dns.Msg) {
	q := &Query{Msg: req, Remote: w.RemoteAddr(), reply: make(chan *dns.Msg, 1)}

	select {
	case s.queries <- q:
	case <-s.done:
		return
	}

	select {
	case m := <-q.reply:
		if err := w.WriteMsg(m); err != nil {
			logging.Debug("DNS reply failed", zap.Error(err))
		}
	case <-s.done:
	}
}
