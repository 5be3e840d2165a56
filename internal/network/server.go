// Package network implements the TCP connection server that binds the
// text protocol to the store. Requests are newline-delimited lines;
// responses are terminated by one blank line so multi-line payloads
// (the CONFIG text) survive partial TCP delivery.
package network

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"sync"
	"sync/atomic"

	"rediska/internal/logging"
)

// Handler turns one raw request line into a response string. An empty
// response is transmitted as the literal "None".
type Handler func(line string) string

// Config holds server configuration.
type Config struct {
	// MaxConnections limits concurrently served clients; above the
	// limit new connections are closed immediately. Zero means no limit.
	MaxConnections int
	// BufferSize is the per-connection read buffer size.
	BufferSize int
}

// DefaultConfig returns the default server configuration.
func DefaultConfig() Config {
	return Config{
		MaxConnections: 1000,
		BufferSize:     4096,
	}
}

// Stats holds server counters.
type Stats struct {
	TotalConnections  uint64
	ActiveConnections int
	RequestsHandled   uint64
}

// Server accepts TCP connections and serves each on its own goroutine.
type Server struct {
	address  string
	handler  Handler
	config   Config
	listener net.Listener

	connMu sync.Mutex
	conns  map[net.Conn]struct{}

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running atomic.Bool

	totalConns   atomic.Uint64
	requestCount atomic.Uint64
}

// NewServer creates a server bound to address, dispatching every
// request line through handler.
func NewServer(address string, handler Handler) *Server {
	return NewServerWithConfig(address, handler, DefaultConfig())
}

// NewServerWithConfig creates a server with custom configuration.
func NewServerWithConfig(address string, handler Handler, config Config) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		address: address,
		handler: handler,
		config:  config,
		conns:   make(map[net.Conn]struct{}),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Start binds the listening socket and begins accepting connections in
// the background. It returns immediately.
func (s *Server) Start() error {
	if s.running.Load() {
		return fmt.Errorf("server is already running")
	}

	listener, err := net.Listen("tcp", s.address)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.address, err)
	}

	s.listener = listener
	s.running.Store(true)

	logging.Info(s.ctx, logging.ComponentServer, logging.ActionStart, "server listening", map[string]any{
		"address": listener.Addr().String(),
	})

	s.wg.Add(1)
	go s.acceptLoop()

	return nil
}

// Addr returns the bound listener address, useful when the configured
// port was 0.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Running reports whether the server is accepting connections.
func (s *Server) Running() bool {
	return s.running.Load()
}

// Stop closes the listener and every tracked connection, then waits for
// the per-connection goroutines to drain.
func (s *Server) Stop() error {
	if !s.running.Load() {
		return fmt.Errorf("server is not running")
	}

	s.running.Store(false)
	s.cancel()

	if s.listener != nil {
		s.listener.Close()
	}

	s.connMu.Lock()
	for conn := range s.conns {
		conn.Close()
	}
	s.connMu.Unlock()

	s.wg.Wait()

	logging.Info(context.Background(), logging.ComponentServer, logging.ActionStop, "server stopped")
	return nil
}

// Wait blocks until the server has fully stopped.
func (s *Server) Wait() {
	s.wg.Wait()
}

// GetStats returns a snapshot of server counters.
func (s *Server) GetStats() Stats {
	s.connMu.Lock()
	active := len(s.conns)
	s.connMu.Unlock()

	return Stats{
		TotalConnections:  s.totalConns.Load(),
		ActiveConnections: active,
		RequestsHandled:   s.requestCount.Load(),
	}
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if s.running.Load() {
				logging.Warn(s.ctx, logging.ComponentServer, logging.ActionConnect, "accept failed", map[string]any{
					"error": err.Error(),
				})
				continue
			}
			return
		}

		if s.config.MaxConnections > 0 {
			s.connMu.Lock()
			count := len(s.conns)
			s.connMu.Unlock()
			if count >= s.config.MaxConnections {
				conn.Close()
				continue
			}
		}

		s.connMu.Lock()
		s.conns[conn] = struct{}{}
		s.connMu.Unlock()
		s.totalConns.Add(1)

		s.wg.Add(1)
		go s.handleConnection(conn)
	}
}

// handleConnection serves one client until it disconnects or the server
// stops. Request errors never tear down the loop; they are already
// rendered into the response text by the handler.
func (s *Server) handleConnection(conn net.Conn) {
	defer s.wg.Done()
	defer func() {
		conn.Close()
		s.connMu.Lock()
		delete(s.conns, conn)
		s.connMu.Unlock()
	}()

	ctx := logging.WithCorrelationID(s.ctx, logging.NewCorrelationID())
	logging.Debug(ctx, logging.ComponentServer, logging.ActionConnect, "client connected", map[string]any{
		"remote": conn.RemoteAddr().String(),
	})

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, s.config.BufferSize), s.config.BufferSize)

	for scanner.Scan() {
		select {
		case <-s.ctx.Done():
			return
		default:
		}

		response := s.handler(scanner.Text())
		if response == "" {
			response = "None"
		}
		s.requestCount.Add(1)

		if _, err := fmt.Fprintf(conn, "%s\n\n", response); err != nil {
			logging.Warn(ctx, logging.ComponentServer, logging.ActionRequest, "write failed", map[string]any{
				"error": err.Error(),
			})
			return
		}
	}

	logging.Debug(ctx, logging.ComponentServer, logging.ActionDisconnect, "client disconnected", map[string]any{
		"remote": conn.RemoteAddr().String(),
	})
}
