// ABOUTME: Remote link client for the key-capture server
// ABOUTME: Reconnecting state machine with backoff, auth, and event fan-out
package remote

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"sync"
	"time"

	"github.com/Soundlink-Project/soundlink-go/internal/keys"
)

// Phase is the connection state of the link
type Phase int

const (
	PhaseDisconnected Phase = iota
	PhaseConnecting
	PhaseAuthenticating
	PhaseConnected
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseDisconnected:
		return "disconnected"
	case PhaseConnecting:
		return "connecting"
	case PhaseAuthenticating:
		return "authenticating"
	case PhaseConnected:
		return "connected"
	case PhaseFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// ErrAuthFailed marks a transport that was reachable but rejected or ignored
// the API key within the auth timeout. Retried like any other failure; the
// distinction exists only for status display.
var ErrAuthFailed = errors.New("authentication failed")

// Status is surfaced to the GUI collaborator on every phase change
type Status struct {
	Phase      Phase
	AuthFailed bool
	Err        error
}

// Config holds client configuration
type Config struct {
	Addr   string
	APIKey string

	// AuthTimeout bounds the wait for the first byte after sending the key
	AuthTimeout time.Duration

	// BackoffMin/BackoffMax bound the retry delay; the delay doubles per
	// consecutive failure and resets after a successful authentication
	BackoffMin time.Duration
	BackoffMax time.Duration

	// Dialer defaults to plain TCP
	Dialer Dialer

	// OnStatus is called on every phase change (may be nil)
	OnStatus func(Status)
}

// Client maintains one connection to the remote capture server and produces
// the live key-event sequence. The sequence is not restartable: events lost
// across a reconnect are gone.
type Client struct {
	config Config

	mu      sync.Mutex
	phase   Phase
	conn    net.Conn
	cancel  context.CancelFunc
	running bool

	events chan keys.Event
}

// NewClient creates a client; nothing happens until Connect
func NewClient(config Config) *Client {
	if config.AuthTimeout == 0 {
		config.AuthTimeout = 3 * time.Second
	}
	if config.BackoffMin == 0 {
		config.BackoffMin = 500 * time.Millisecond
	}
	if config.BackoffMax == 0 {
		config.BackoffMax = 8 * time.Second
	}
	if config.Dialer == nil {
		config.Dialer = tcpDialer{timeout: 5 * time.Second}
	}

	return &Client{
		config: config,
		phase:  PhaseDisconnected,
		events: make(chan keys.Event, 256),
	}
}

// Events returns the live key-event sequence. The channel survives
// reconnects; a new event stream simply continues on it.
func (c *Client) Events() <-chan keys.Event {
	return c.events
}

// Addr returns the configured server address
func (c *Client) Addr() string { return c.config.Addr }

// APIKey returns the configured API key
func (c *Client) APIKey() string { return c.config.APIKey }

// Phase returns the current connection phase
func (c *Client) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// Connect starts the connection loop. No-op while already running.
func (c *Client) Connect() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.running = true

	go c.run(ctx)
}

// Disconnect transitions to Disconnected immediately from any phase,
// closing the transport and halting retries.
func (c *Client) Disconnect() {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return
	}
	c.cancel()
	if c.conn != nil {
		c.conn.Close() // unblocks the read loop right away
	}
	c.mu.Unlock()
}

// run is the five-phase connection loop
func (c *Client) run(ctx context.Context) {
	defer func() {
		c.mu.Lock()
		c.running = false
		c.conn = nil
		c.mu.Unlock()
		c.setStatus(Status{Phase: PhaseDisconnected})
	}()

	backoff := c.config.BackoffMin

	for {
		if ctx.Err() != nil {
			return
		}

		c.setStatus(Status{Phase: PhaseConnecting})
		conn, err := c.config.Dialer.DialContext(ctx, c.config.Addr)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Printf("Remote link: dial %s failed: %v", c.config.Addr, err)
			c.setStatus(Status{Phase: PhaseFailed, Err: err})
			if !c.sleep(ctx, backoff) {
				return
			}
			backoff = nextBackoff(backoff, c.config.BackoffMax)
			continue
		}

		c.storeConn(conn)

		c.setStatus(Status{Phase: PhaseAuthenticating})
		reader, err := c.authenticate(conn)
		if err != nil {
			conn.Close()
			c.storeConn(nil)
			if ctx.Err() != nil {
				return
			}
			log.Printf("Remote link: auth with %s failed: %v", c.config.Addr, err)
			c.setStatus(Status{Phase: PhaseFailed, AuthFailed: errors.Is(err, ErrAuthFailed), Err: err})
			if !c.sleep(ctx, backoff) {
				return
			}
			backoff = nextBackoff(backoff, c.config.BackoffMax)
			continue
		}

		log.Printf("Remote link: connected to %s", c.config.Addr)
		c.setStatus(Status{Phase: PhaseConnected})
		backoff = c.config.BackoffMin

		err = c.readLoop(ctx, reader)
		conn.Close()
		c.storeConn(nil)
		if ctx.Err() != nil {
			return
		}

		log.Printf("Remote link: connection lost: %v", err)
		c.setStatus(Status{Phase: PhaseFailed, Err: err})
		if !c.sleep(ctx, backoff) {
			return
		}
		backoff = nextBackoff(backoff, c.config.BackoffMax)
	}
}

// authenticate sends the API key and waits for the first byte of the event
// stream as the implicit acknowledgement. A silent or closed server within
// the timeout is an auth failure.
func (c *Client) authenticate(conn net.Conn) (*bufio.Reader, error) {
	deadline := time.Now().Add(c.config.AuthTimeout)

	conn.SetWriteDeadline(deadline)
	if _, err := conn.Write(append([]byte(c.config.APIKey), 0x00)); err != nil {
		return nil, fmt.Errorf("send api key: %w", err)
	}
	conn.SetWriteDeadline(time.Time{})

	reader := bufio.NewReader(conn)
	conn.SetReadDeadline(deadline)
	if _, err := reader.Peek(1); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAuthFailed, err)
	}
	conn.SetReadDeadline(time.Time{})

	return reader, nil
}

// readLoop reads zero-delimited frames until the transport fails
func (c *Client) readLoop(ctx context.Context, reader *bufio.Reader) error {
	for {
		frame, err := reader.ReadBytes(0x00)
		if err != nil {
			return fmt.Errorf("read event: %w", err)
		}

		frame = frame[:len(frame)-1]
		if len(frame) == 0 {
			continue
		}

		event, err := DecodeFrame(frame)
		if err != nil {
			// Protocol error: treat like any transport failure
			return err
		}

		if event.Type != EventTypeKey {
			continue
		}

		select {
		case c.events <- event.KeyEvent():
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (c *Client) storeConn(conn net.Conn) {
	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()
}

func (c *Client) setStatus(status Status) {
	c.mu.Lock()
	c.phase = status.Phase
	c.mu.Unlock()

	if c.config.OnStatus != nil {
		c.config.OnStatus(status)
	}
}

// sleep waits for the backoff delay, returning false if cancelled
func (c *Client) sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}

func nextBackoff(current, max time.Duration) time.Duration {
	next := current * 2
	if next > max {
		return max
	}
	return next
}
