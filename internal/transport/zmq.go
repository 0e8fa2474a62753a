package transport

import (
	"context"
	"fmt"
	"sync"

	"github.com/pebbe/zmq4"
)

// DefaultTopic is the topic frame used by ZMQSender when none is configured.
const DefaultTopic = "hand.landmarks"

// ZMQSender publishes payloads on a ZeroMQ PUB socket as two-part messages:
// topic first, payload second.
type ZMQSender struct {
	mu     sync.Mutex
	socket *zmq4.Socket
	topic  string
}

// NewZMQSender binds a PUB socket to endpoint, e.g. "tcp://*:5053".
func NewZMQSender(endpoint, topic string) (*ZMQSender, error) {
	socket, err := zmq4.NewSocket(zmq4.PUB)
	if err != nil {
		return nil, fmt.Errorf("create PUB socket: %w", err)
	}

	if err := socket.SetLinger(0); err != nil {
		socket.Close()
		return nil, fmt.Errorf("set linger: %w", err)
	}

	if err := socket.Bind(endpoint); err != nil {
		socket.Close()
		return nil, fmt.Errorf("bind %s: %w", endpoint, err)
	}

	if topic == "" {
		topic = DefaultTopic
	}

	return &ZMQSender{socket: socket, topic: topic}, nil
}

// Send publishes data under the configured topic. Subscribers that are not
// connected miss the message.
func (s *ZMQSender) Send(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.socket == nil {
		return ErrClosed
	}

	if _, err := s.socket.Send(s.topic, zmq4.SNDMORE|zmq4.DONTWAIT); err != nil {
		return fmt.Errorf("send topic: %w", err)
	}
	if _, err := s.socket.SendBytes(data, zmq4.DONTWAIT); err != nil {
		return fmt.Errorf("send payload: %w", err)
	}
	return nil
}

// Endpoint returns the address the socket is bound to, with any wildcard
// port resolved.
func (s *ZMQSender) Endpoint() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.socket == nil {
		return "", ErrClosed
	}
	return s.socket.GetLastEndpoint()
}

// Close releases the socket.
func (s *ZMQSender) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.socket == nil {
		return nil
	}
	err := s.socket.Close()
	s.socket = nil
	return err
}
