package feedback

import (
	"fmt"

	"github.com/hypebeast/go-osc/osc"
)

// Sink receives normalized feedback scores.
type Sink interface {
	Emit(score float64) error
}

// OSCSink sends each score as a single-float OSC message over UDP.
type OSCSink struct {
	client  *osc.Client
	address string
}

// NewOSCSink creates a sink targeting host:port with the given OSC address
// path, e.g. "/in/alpha".
func NewOSCSink(host string, port int, address string) (*OSCSink, error) {
	if host == "" {
		return nil, fmt.Errorf("feedback: OSC host is required")
	}

	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("feedback: OSC port %d out of range", port)
	}

	if address == "" {
		return nil, fmt.Errorf("feedback: OSC address path is required")
	}

	return &OSCSink{
		client:  osc.NewClient(host, port),
		address: address,
	}, nil
}

// Emit sends one score. OSC floats are 32-bit on the wire.
func (s *OSCSink) Emit(score float64) error {
	msg := osc.NewMessage(s.address)
	msg.Append(float32(score))

	if err := s.client.Send(msg); err != nil {
		return fmt.Errorf("feedback: osc send: %w", err)
	}

	return nil
}
