package core

import (
	"context"
	"fmt"
	"net"
	"time"
)

// Dialer opens outbound TCP connections to peers with a bounded connect
// timeout and OS-level keepalive. It has no notion of retry; callers decide
// when and how often to redial.
type Dialer struct {
	Timeout   time.Duration // connection timeout
	KeepAlive time.Duration // TCP keepalive duration
}

// NewDialer creates a network dialer with the given settings.
func NewDialer(timeout, keepAlive time.Duration) *Dialer {
	return &Dialer{
		Timeout:   timeout,
		KeepAlive: keepAlive,
	}
}

// Dial connects to a remote TCP address and returns the live connection.
func (d *Dialer) Dial(ctx context.Context, address string) (net.Conn, error) {
	dialer := &net.Dialer{
		Timeout:   d.Timeout,
		KeepAlive: d.KeepAlive,
	}

	conn, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %v", ErrConnectionFailed, address, err)
	}
	return conn, nil
}
