// Package transport delivers encoded payloads to the game engine.
package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
)

// DefaultAddr is the loopback address and port the game engine listens on.
const DefaultAddr = "127.0.0.1:5052"

// ErrClosed is returned when sending on a closed sender.
var ErrClosed = errors.New("sender closed")

// Sender delivers one payload per call. Implementations do not retry.
type Sender interface {
	Send(ctx context.Context, data []byte) error
	Close() error
}

// UDPSender writes each payload as a single datagram.
type UDPSender struct {
	mu   sync.Mutex
	conn *net.UDPConn
	addr string
}

// NewUDPSender resolves addr and opens a connected UDP socket to it.
func NewUDPSender(addr string) (*UDPSender, error) {
	raddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", addr, err)
	}

	conn, err := net.DialUDP("udp", nil, raddr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}

	return &UDPSender{conn: conn, addr: raddr.String()}, nil
}

// Addr returns the resolved destination.
func (s *UDPSender) Addr() string {
	return s.addr
}

// Send writes data as one datagram. Delivery is not acknowledged.
func (s *UDPSender) Send(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn == nil {
		return ErrClosed
	}

	if _, err := s.conn.Write(data); err != nil {
		return fmt.Errorf("send to %s: %w", s.addr, err)
	}
	return nil
}

// Close releases the socket. Closing twice is a no-op.
func (s *UDPSender) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	return err
}
