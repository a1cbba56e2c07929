package socket

import (
	"context"
	"io"
	"net"
	"sync"

	"github.com/pkg/errors"
)

// Server fans tsb packets out to every connected BeaconLine client and
// collects what the clients send.
type Server struct {
	addr string
	ln   net.Listener

	mu      sync.Mutex
	clients map[net.Conn]chan Data

	// In receives packets written by clients.
	In chan Data
}

func NewServer(addr string) *Server {
	return &Server{
		addr:    addr,
		clients: make(map[net.Conn]chan Data),
		In:      make(chan Data, 100),
	}
}

// Listen opens the listening socket.
func (s *Server) Listen() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return errors.Wrapf(err, "tsb listen %s", s.addr)
	}
	s.ln = ln
	logger.Info("tsb server listening", "addr", ln.Addr().String())
	return nil
}

// Addr is the bound address; valid after Listen.
func (s *Server) Addr() net.Addr {
	return s.ln.Addr()
}

// Serve accepts clients until ctx is done.
func (s *Server) Serve(ctx context.Context) error {
	if s.ln == nil {
		if err := s.Listen(); err != nil {
			return err
		}
	}
	go func() {
		<-ctx.Done()
		s.ln.Close()
		s.mu.Lock()
		for conn := range s.clients {
			conn.Close()
		}
		s.mu.Unlock()
	}()
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return errors.Wrap(err, "tsb accept")
		}
		go s.handleConnection(conn)
	}
}

// Broadcast sends td to all clients.
func (s *Server) Broadcast(td Data) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for conn, put := range s.clients {
		select {
		case put <- td:
		default:
			logger.Debug("client too slow, dropping", "client", conn.RemoteAddr().String())
		}
	}
}

// Clients is the number of connected clients.
func (s *Server) Clients() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

func (s *Server) handleConnection(conn net.Conn) {
	logger.Debug("incoming tsb connection", "client", conn.RemoteAddr().String())
	put := PutData(conn)
	s.mu.Lock()
	s.clients[conn] = put
	s.mu.Unlock()

	err := readFrames(conn, func(td Data) { s.In <- td })

	s.mu.Lock()
	delete(s.clients, conn)
	s.mu.Unlock()
	close(put)
	conn.Close()
	if err != nil && err != io.EOF {
		logger.Debug("tsb connection closed", "client", conn.RemoteAddr().String(), "err", err)
	}
}
