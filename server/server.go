package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"slices"
	"sync"

	"github.com/rs/zerolog"

	"github.com/nixxel-company-limited/escp-print/adapter"
	"github.com/nixxel-company-limited/escp-print/logging"
	"github.com/nixxel-company-limited/escp-print/transfer"
)

// Server is a raw TCP print server. Every connection is one print job whose
// bytes are forwarded to the printer adapter through the bulk transfer loop.
// Jobs are printed one at a time.
type Server struct {
	adapter    adapter.Adapter
	listener   net.Listener
	address    string
	feederOpts []transfer.Option
	mu         sync.Mutex
	jobMu      sync.Mutex
	running    bool
	conns      map[net.Conn]struct{}
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	logger     zerolog.Logger
}

// New creates a new server instance
func New(device adapter.Adapter, address string, opts ...transfer.Option) *Server {
	return NewWithLogger(device, address, logging.GetLogger("server"), opts...)
}

// NewWithLogger creates a new server instance with a custom logger
func NewWithLogger(device adapter.Adapter, address string, logger zerolog.Logger, opts ...transfer.Option) *Server {
	return &Server{
		adapter:    device,
		address:    address,
		feederOpts: opts,
		conns:      make(map[net.Conn]struct{}),
		logger:     logger,
	}
}

// Start starts the TCP server and blocks until Stop is called
func (s *Server) Start() error {
	s.logger.Info().Str("address", s.address).Msg("Starting server (blocking mode)")
	if err := s.start(); err != nil {
		return err
	}

	s.wg.Add(1)
	s.logger.Info().Msg("Ready to accept connections")
	s.acceptConnections()

	return nil
}

// StartAsync starts the TCP server in a goroutine (non-blocking)
func (s *Server) StartAsync() error {
	s.logger.Info().Str("address", s.address).Msg("Starting server (async mode)")
	if err := s.start(); err != nil {
		return err
	}

	s.wg.Add(1)
	go s.acceptConnections()
	s.logger.Info().Msg("Server started in background, ready to accept connections")

	return nil
}

// start listens and opens the adapter
func (s *Server) start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		s.logger.Error().Msg("Server already running")
		return fmt.Errorf("server already running")
	}

	listener, err := net.Listen("tcp", s.address)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to start server")
		return fmt.Errorf("failed to start server: %w", err)
	}

	// Open the adapter if not already open
	if !s.adapter.IsOpen() {
		s.logger.Debug().Msg("Opening printer adapter")
		if err := s.adapter.Open(); err != nil {
			listener.Close()
			s.logger.Error().Err(err).Msg("Failed to open adapter")
			return fmt.Errorf("failed to open adapter: %w", err)
		}
	}

	s.listener = listener
	s.running = true
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.logger.Info().Stringer("address", listener.Addr()).Msg("Server listening")

	return nil
}

// acceptConnections handles incoming client connections
func (s *Server) acceptConnections() {
	defer s.wg.Done()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if !s.IsRunning() {
				s.logger.Debug().Msg("Server shutting down, stopping accept loop")
				return
			}
			s.logger.Warn().Err(err).Msg("Error accepting connection")
			continue
		}

		s.mu.Lock()
		if !s.running {
			s.mu.Unlock()
			conn.Close()
			return
		}
		s.conns[conn] = struct{}{}
		s.mu.Unlock()

		s.logger.Info().Stringer("client", conn.RemoteAddr()).Msg("Client connected")
		s.wg.Add(1)
		go s.handleConnection(conn)
	}
}

// handleConnection prints everything a client sends as one job
func (s *Server) handleConnection(conn net.Conn) {
	defer s.wg.Done()
	defer func() {
		s.mu.Lock()
		delete(s.conns, conn)
		s.mu.Unlock()
		conn.Close()
	}()

	log := s.logger.With().Stringer("client", conn.RemoteAddr()).Logger()

	s.jobMu.Lock()
	defer s.jobMu.Unlock()

	feeder := transfer.NewFeeder(s.adapter, append(slices.Clip(s.feederOpts), transfer.WithLogger(log))...)
	done := logging.LogOperationStart(log, "print job")
	defer done()

	buf := make([]byte, transfer.DefaultChunkSize*4)
	total := 0
	for {
		n, err := conn.Read(buf)
		if n > 0 {
			log.Trace().Int("bytes", n).Msg("Received data")
			if sendErr := feeder.Send(s.ctx, buf[:n]); sendErr != nil {
				log.Error().Err(sendErr).Int("printed", total).Msg("Print job aborted")
				return
			}
			total += n
		}
		if err != nil {
			if !errors.Is(err, io.EOF) && s.IsRunning() {
				log.Warn().Err(err).Msg("Error reading from client")
			}
			log.Info().Int("bytes", total).Msg("Print job finished")
			return
		}
	}
}

// Stop stops the TCP server, closing client connections
func (s *Server) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		s.logger.Debug().Msg("Stop called but server is not running")
		return nil
	}

	s.logger.Info().Msg("Stopping server")
	s.running = false
	listener := s.listener
	s.cancel()
	for conn := range s.conns {
		conn.Close()
	}
	s.mu.Unlock()

	if listener != nil {
		listener.Close()
	}

	// Wait for all connections to finish
	s.wg.Wait()

	// Close the adapter
	if s.adapter.IsOpen() {
		if err := s.adapter.Close(); err != nil {
			s.logger.Error().Err(err).Msg("Error closing adapter")
			return err
		}
	}

	s.logger.Info().Msg("Server stopped")
	return nil
}

// IsRunning returns whether the server is running
func (s *Server) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Address returns the server address
func (s *Server) Address() string {
	return s.address
}

// GetAdapter returns the underlying adapter
func (s *Server) GetAdapter() adapter.Adapter {
	return s.adapter
}
