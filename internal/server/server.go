// Package server accepts record store clients over TCP and answers their
// PUT and GET requests against a shared record log.
package server

import (
	"errors"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	api "github.com/andrwkng/recordstore/api/v1"
	"github.com/andrwkng/recordstore/internal/wire"
	"github.com/benbjohnson/clock"
	"github.com/sirupsen/logrus"
)

// RecordLog is the store the server answers requests from.
type RecordLog interface {
	Append(api.Record) error
	FindLatest(id uint32) (api.Record, error)
}

type Config struct {
	RecordLog RecordLog
	Logger    logrus.FieldLogger
	Clock     clock.Clock
}

// ErrServerClosed is returned by Serve after Close.
var ErrServerClosed = errors.New("server closed")

// Server runs one goroutine per accepted connection. There is no admission
// limit: every client gets its own connection unit.
type Server struct {
	stats counters // first for 64-bit atomic alignment

	*Config

	handler *Handler
	started time.Time

	mu       sync.Mutex
	listener net.Listener
	conns    map[net.Conn]struct{}
	closed   bool
	wg       sync.WaitGroup
}

func NewServer(config *Config) (*Server, error) {
	if config == nil || config.RecordLog == nil {
		return nil, errors.New("server: record log is required")
	}
	if config.Logger == nil {
		config.Logger = logrus.StandardLogger()
	}
	if config.Clock == nil {
		config.Clock = clock.New()
	}
	s := &Server{
		Config:  config,
		conns:   make(map[net.Conn]struct{}),
		started: config.Clock.Now(),
	}
	s.handler = newHandler(config.RecordLog, config.Logger, &s.stats)
	return s, nil
}

// Serve accepts connections on l until Close is called or Accept fails
// with a non-temporary error.
func (s *Server) Serve(l net.Listener) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrServerClosed
	}
	s.listener = l
	s.mu.Unlock()

	s.Logger.WithField("addr", l.Addr().String()).Info("accepting connections")
	var delay time.Duration
	for {
		conn, err := l.Accept()
		if err != nil {
			if s.isClosed() {
				return ErrServerClosed
			}
			if ne, ok := err.(net.Error); ok && ne.Temporary() {
				if delay == 0 {
					delay = 5 * time.Millisecond
				} else if delay *= 2; delay > time.Second {
					delay = time.Second
				}
				s.Logger.WithError(err).Warnf("accept failed, retrying in %v", delay)
				time.Sleep(delay)
				continue
			}
			return err
		}
		delay = 0
		if !s.track(conn) {
			conn.Close()
			return ErrServerClosed
		}
		go s.serveConn(conn)
	}
}

// serveConn runs the read-handle-write cycle for one client until the
// client disconnects or the connection fails. Nothing that happens here
// affects other connections.
func (s *Server) serveConn(conn net.Conn) {
	defer s.untrack(conn)
	logger := s.Logger.WithField("remote", conn.RemoteAddr().String())
	logger.Debug("client connected")

	for {
		req, err := wire.ReadMessage(conn)
		var res wire.Message
		switch {
		case err == nil:
			res = s.handler.Handle(req)
		case errors.Is(err, io.EOF):
			logger.Debug("client disconnected")
			return
		case errors.Is(err, wire.ErrUnknownTag),
			errors.Is(err, wire.ErrNameNotTerminated):
			// the whole message was consumed, so the stream is still aligned
			res = s.handler.fail(req, err)
		default:
			if !s.isClosed() {
				logger.WithError(err).Warn("read failed, closing connection")
			}
			return
		}
		if err := wire.WriteMessage(conn, res); err != nil {
			if !s.isClosed() {
				logger.WithError(err).Warn("write failed, closing connection")
			}
			return
		}
	}
}

// Close stops accepting, closes every open connection and waits for their
// goroutines to return.
func (s *Server) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	var err error
	if s.listener != nil {
		err = s.listener.Close()
	}
	for c := range s.conns {
		c.Close()
	}
	s.mu.Unlock()

	s.wg.Wait()
	return err
}

// Stats returns a snapshot of the server counters.
func (s *Server) Stats() Stats {
	return Stats{
		ActiveConns: atomic.LoadInt64(&s.stats.active),
		TotalConns:  atomic.LoadUint64(&s.stats.total),
		Puts:        atomic.LoadUint64(&s.stats.puts),
		Gets:        atomic.LoadUint64(&s.stats.gets),
		Fails:       atomic.LoadUint64(&s.stats.fails),
		Started:     s.started,
		Uptime:      s.Clock.Since(s.started),
	}
}

func (s *Server) track(c net.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.conns[c] = struct{}{}
	s.wg.Add(1)
	atomic.AddInt64(&s.stats.active, 1)
	atomic.AddUint64(&s.stats.total, 1)
	return true
}

func (s *Server) untrack(c net.Conn) {
	c.Close()
	s.mu.Lock()
	delete(s.conns, c)
	s.mu.Unlock()
	atomic.AddInt64(&s.stats.active, -1)
	s.wg.Done()
}

func (s *Server) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
