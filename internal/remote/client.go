package remote

import (
	"context"
	"errors"
	"net"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/tivoctl/internal/logging"
	"github.com/muurk/tivoctl/internal/protocol"
)

const (
	// DefaultPort is the TCP port of the TiVo network remote service
	DefaultPort = protocol.DefaultPort

	// DefaultConnectTimeout bounds how long Connect waits for the box
	DefaultConnectTimeout = 5 * time.Second
)

// Client is a network remote for a single TiVo box.
//
// A Client owns at most one TCP connection. Sends never reconnect on their own:
// without a live socket they fail with a NotConnected error and the caller
// decides whether to Connect again. One goroutine may send commands while a
// StatusReader reads from the same socket; concurrent senders must be
// serialized by the caller because the toggle cursors are not locked.
type Client struct {
	// Address is the host name or IP of the box
	Address string

	// Port is the network remote port (default 31339)
	Port int

	// ConnectTimeout bounds Connect (default 5s)
	ConnectTimeout time.Duration

	mu   sync.Mutex
	conn net.Conn

	// dial opens the socket; nil uses a net.Dialer
	dial func(ctx context.Context, network, address string) (net.Conn, error)

	captions  *Toggle
	aspect    *Toggle
	videoMode *Toggle

	observersMu sync.RWMutex
	observers   []StatusFunc
}

// NewClient creates a client for the box at address:port.
// The connection is not opened until Connect is called.
func NewClient(address string, port int) *Client {
	if port == 0 {
		port = DefaultPort
	}
	return &Client{
		Address:        address,
		Port:           port,
		ConnectTimeout: DefaultConnectTimeout,
		captions:       NewCaptionToggle(),
		aspect:         NewAspectToggle(),
		videoMode:      NewVideoModeToggle(),
	}
}

// Addr returns the host:port the client dials
func (c *Client) Addr() string {
	return net.JoinHostPort(c.Address, strconv.Itoa(c.Port))
}

// Connect opens the TCP connection, waiting at most ConnectTimeout.
// Once connected, reads and writes block without a deadline.
// Calling Connect on a connected client is a no-op.
func (c *Client) Connect(ctx context.Context) error {
	if c.Connected() {
		return nil
	}

	timeout := c.ConnectTimeout
	if timeout <= 0 {
		timeout = DefaultConnectTimeout
	}

	addr := c.Addr()
	logging.Debug("Connecting to box",
		zap.String("remote_addr", addr),
		zap.Duration("timeout", timeout),
	)

	// Dial unlocked so Connected and the send paths never wait on it
	dial := c.dial
	if dial == nil {
		dialer := &net.Dialer{Timeout: timeout}
		dial = dialer.DialContext
	}
	conn, err := dial(ctx, "tcp", addr)
	if err != nil {
		return ClassifyDialError(addr, err)
	}

	// The timeout only applies to the dial
	_ = conn.SetDeadline(time.Time{})

	c.mu.Lock()
	if c.conn != nil {
		// A concurrent Connect won
		c.mu.Unlock()
		_ = conn.Close()
		return nil
	}
	c.conn = conn
	c.mu.Unlock()

	logging.LogConnection(addr, "connected")
	return nil
}

// Disconnect closes the connection. It is a no-op when already disconnected.
func (c *Client) Disconnect() error {
	c.mu.Lock()
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()

	if conn == nil {
		return nil
	}

	logging.LogConnection(c.Addr(), "disconnected")
	if err := conn.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
		return NewConnectionError(c.Addr(), "close failed", err)
	}
	return nil
}

// Reconnect drops any existing connection and dials again
func (c *Client) Reconnect(ctx context.Context) error {
	if err := c.Disconnect(); err != nil {
		logging.Warn("Error closing previous connection",
			zap.String("remote_addr", c.Addr()),
			zap.Error(err),
		)
	}
	return c.Connect(ctx)
}

// Connected reports whether the client currently holds a live socket
func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil
}

// liveConn returns the current socket or a NotConnected error
func (c *Client) liveConn() (net.Conn, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return nil, NewNotConnectedError(c.Addr())
	}
	return c.conn, nil
}

// dropConn closes conn and forgets it, unless it has already been replaced
func (c *Client) dropConn(conn net.Conn, reason string) {
	c.mu.Lock()
	if c.conn == conn {
		c.conn = nil
	}
	c.mu.Unlock()

	_ = conn.Close()
	logging.LogConnection(c.Addr(), reason)
}

// SendIR writes one IRCODE line per token, flattening nested sequences
func (c *Client) SendIR(args ...Arg) error {
	return c.send(keystrokes(protocol.VerbIRCode, Flatten(args...)))
}

// SendKeyboard writes one KEYBOARD line per token (direct keyboard input,
// newer hardware only)
func (c *Client) SendKeyboard(args ...Arg) error {
	return c.send(keystrokes(protocol.VerbKeyboard, Flatten(args...)))
}

// send validates every line up front and then writes them in order.
// A failed write drops the socket so later sends report NotConnected.
func (c *Client) send(keys []Keystroke) error {
	conn, err := c.liveConn()
	if err != nil {
		return err
	}

	lines := make([][]byte, len(keys))
	for i, k := range keys {
		line, err := protocol.EncodeLine(k.Verb, k.Token)
		if err != nil {
			return NewProtocolError(c.Addr(), "invalid token", err)
		}
		lines[i] = line
	}

	addr := c.Addr()
	for i, line := range lines {
		if _, err := conn.Write(line); err != nil {
			c.dropConn(conn, "write_failed")
			return NewConnectionError(addr, "write failed", err)
		}
		logging.LogCommand(addr, keys[i].Verb.String(), keys[i].Token)
	}
	return nil
}

// ClosedCaption toggles closed captions and returns the token sent
func (c *Client) ClosedCaption() (string, error) {
	return c.press(c.captions)
}

// AspectChange steps to the next aspect ratio and returns the token sent
func (c *Client) AspectChange() (string, error) {
	return c.press(c.aspect)
}

// VideoMode steps to the next video mode and returns the token sent
func (c *Client) VideoMode() (string, error) {
	return c.press(c.videoMode)
}

// press sends the toggle's next token; the cursor only moves if the write succeeded
func (c *Client) press(t *Toggle) (string, error) {
	token := t.Peek()
	if err := c.SendIR(Token(token)); err != nil {
		return "", err
	}
	t.Advance()

	logging.Debug("Toggle advanced",
		zap.String("toggle", t.Name()),
		zap.String("token", token),
		zap.Int("cursor", t.Cursor()),
	)
	return token, nil
}

// Captions returns the closed caption toggle
func (c *Client) Captions() *Toggle { return c.captions }

// Aspect returns the aspect ratio toggle
func (c *Client) Aspect() *Toggle { return c.aspect }

// VideoModes returns the video mode toggle
func (c *Client) VideoModes() *Toggle { return c.videoMode }

// OnStatus registers an observer for status messages read by a StatusReader
func (c *Client) OnStatus(fn StatusFunc) {
	if fn == nil {
		return
	}
	c.observersMu.Lock()
	c.observers = append(c.observers, fn)
	c.observersMu.Unlock()
}

func (c *Client) notify(status Status) {
	c.observersMu.RLock()
	observers := make([]StatusFunc, len(c.observers))
	copy(observers, c.observers)
	c.observersMu.RUnlock()

	for _, fn := range observers {
		fn(status)
	}
}
