// ABOUTME: Transport abstraction for the remote link client
// ABOUTME: Real connections are plain TCP; tests inject scripted dialers
package remote

import (
	"context"
	"net"
	"time"
)

// Dialer establishes the stream transport to the capture server
type Dialer interface {
	DialContext(ctx context.Context, addr string) (net.Conn, error)
}

// DialerFunc adapts a function to the Dialer interface
type DialerFunc func(ctx context.Context, addr string) (net.Conn, error)

func (f DialerFunc) DialContext(ctx context.Context, addr string) (net.Conn, error) {
	return f(ctx, addr)
}

// tcpDialer is the production transport
type tcpDialer struct {
	timeout time.Duration
}

func (d tcpDialer) DialContext(ctx context.Context, addr string) (net.Conn, error) {
	nd := net.Dialer{Timeout: d.timeout}
	return nd.DialContext(ctx, "tcp", addr)
}
