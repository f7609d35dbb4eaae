package tcp

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/linechat/internal/core"
)

// Server accepts raw TCP connections and hands each one to the hub.
type Server struct {
	addr string
	hub  *core.Hub
	log  *zerolog.Logger

	mu       sync.Mutex
	listener net.Listener
}

// NewServer creates a line-protocol server bound to addr once served.
func NewServer(addr string, hub *core.Hub, logger *zerolog.Logger) *Server {
	return &Server{addr: addr, hub: hub, log: logger}
}

// Listen binds the listening socket. Serve calls it when needed.
func (s *Server) Listen() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener != nil {
		return nil
	}
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.addr, err)
	}
	s.listener = ln
	return nil
}

// Addr returns the bound address, or nil before Listen.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Serve accepts connections until ctx is canceled. An accept failure other than
// the listener being closed is returned as fatal. Accepted sessions outlive ctx;
// they end when the hub shuts down.
func (s *Server) Serve(ctx context.Context) error {
	if err := s.Listen(); err != nil {
		return err
	}

	s.mu.Lock()
	ln := s.listener
	s.mu.Unlock()

	stop := context.AfterFunc(ctx, func() { _ = ln.Close() })
	defer stop()

	s.log.Info().Str("addr", ln.Addr().String()).Msg("chat server listening")

	sessionCtx := context.WithoutCancel(ctx)

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("accept: %w", err)
		}

		go func() {
			remote := conn.RemoteAddr().String()
			if err := s.hub.Serve(sessionCtx, conn, remote); err != nil && !errors.Is(err, core.ErrHubClosed) {
				s.log.Warn().Err(err).Str("remote", remote).Msg("connection closed with error")
			}
		}()
	}
}

// Close stops accepting connections.
func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Close()
}
