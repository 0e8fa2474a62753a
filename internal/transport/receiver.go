package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"
)

// maxDatagram is large enough for any payload this tool produces.
const maxDatagram = 64 * 1024

// drainWait bounds how long Latest waits for further queued datagrams once
// one has arrived.
const drainWait = time.Millisecond

// Receiver reads datagrams sent by a Sender. Latest skips stale datagrams so
// a slow consumer always sees the newest frame.
type Receiver struct {
	conn *net.UDPConn
	buf  []byte
}

// Listen binds a UDP socket on addr, e.g. ":5052" or "127.0.0.1:0".
func Listen(addr string) (*Receiver, error) {
	laddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", addr, err)
	}

	conn, err := net.ListenUDP("udp", laddr)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", addr, err)
	}

	return &Receiver{conn: conn, buf: make([]byte, maxDatagram)}, nil
}

// Addr returns the bound local address.
func (r *Receiver) Addr() net.Addr {
	return r.conn.LocalAddr()
}

// Latest blocks until at least one datagram arrives, then drains every
// datagram already queued and returns only the newest along with how many
// were dropped.
func (r *Receiver) Latest(ctx context.Context) ([]byte, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	if err := r.conn.SetReadDeadline(time.Time{}); err != nil {
		return nil, 0, err
	}

	stop := context.AfterFunc(ctx, func() {
		r.conn.SetReadDeadline(time.Unix(1, 0))
	})
	defer stop()

	n, _, err := r.conn.ReadFromUDP(r.buf)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, 0, ctxErr
		}
		return nil, 0, fmt.Errorf("receive: %w", err)
	}
	latest := append([]byte(nil), r.buf[:n]...)

	dropped := 0
	for {
		if ctx.Err() != nil {
			break
		}
		if err := r.conn.SetReadDeadline(time.Now().Add(drainWait)); err != nil {
			return latest, dropped, nil
		}
		n, _, err := r.conn.ReadFromUDP(r.buf)
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				break
			}
			return latest, dropped, nil
		}
		latest = append(latest[:0], r.buf[:n]...)
		dropped++
	}

	return latest, dropped, nil
}

// Close releases the socket.
func (r *Receiver) Close() error {
	return r.conn.Close()
}
