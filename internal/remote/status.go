package remote

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/tivoctl/internal/logging"
	"github.com/muurk/tivoctl/internal/protocol"
)

// StatusMode selects the framing used by a StatusReader
type StatusMode int

const (
	// StatusText reads raw chunks and title-cases them
	StatusText StatusMode = iota
	// StatusPacket reads length-prefixed binary packets
	StatusPacket
)

// String returns the mode name
func (m StatusMode) String() string {
	switch m {
	case StatusText:
		return "text"
	case StatusPacket:
		return "packet"
	default:
		return fmt.Sprintf("StatusMode(%d)", m)
	}
}

// ParseStatusMode parses "text" or "packet"; "" selects text
func ParseStatusMode(s string) (StatusMode, error) {
	switch s {
	case "", "text":
		return StatusText, nil
	case "packet":
		return StatusPacket, nil
	default:
		return 0, fmt.Errorf("unknown status mode %q (want text or packet)", s)
	}
}

// Status is one message read from the box
type Status struct {
	Mode       StatusMode
	Text       string    // Normalized text (text mode)
	Payload    []byte    // Raw payload (packet mode)
	Complete   bool      // False when a packet was cut short by the peer
	ReceivedAt time.Time
}

// StatusFunc observes status messages
type StatusFunc func(Status)

// ReaderState is the lifecycle state of a StatusReader
type ReaderState int

const (
	ReaderIdle ReaderState = iota
	ReaderRunning
	ReaderClosed
)

// String returns the state name
func (s ReaderState) String() string {
	switch s {
	case ReaderIdle:
		return "idle"
	case ReaderRunning:
		return "running"
	case ReaderClosed:
		return "closed"
	default:
		return fmt.Sprintf("ReaderState(%d)", s)
	}
}

// ErrReaderStarted is returned when Start is called twice
var ErrReaderStarted = errors.New("remote: status reader already started")

// StatusReader reads status messages from a client's socket on its own
// goroutine and hands them to the client's observers.
//
// A reader moves Idle -> Running -> Closed and is not reusable. It closes when
// Stop is called, its context is cancelled, the peer closes the connection, or
// a read fails. Only the last two drop the client's socket.
type StatusReader struct {
	client *Client
	mode   StatusMode

	mu     sync.Mutex
	state  ReaderState
	err    error
	cancel context.CancelFunc
	done   chan struct{}

	// Set while observers run on the reader goroutine
	notifying atomic.Bool
}

// NewStatusReader creates an idle reader using the given framing
func (c *Client) NewStatusReader(mode StatusMode) *StatusReader {
	return &StatusReader{
		client: c,
		mode:   mode,
		done:   make(chan struct{}),
	}
}

// Start begins reading on a background goroutine.
// Fails with NotConnected if the client has no live socket.
func (r *StatusReader) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != ReaderIdle {
		return ErrReaderStarted
	}

	conn, err := r.client.liveConn()
	if err != nil {
		r.state = ReaderClosed
		r.err = err
		close(r.done)
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.state = ReaderRunning

	go r.run(ctx, conn)
	return nil
}

// Stop signals the reader to exit and waits for it.
// The client's socket stays open for sending.
//
// Called from an observer, Stop only signals the reader; it closes once the
// observer returns.
func (r *StatusReader) Stop() {
	r.mu.Lock()
	switch r.state {
	case ReaderIdle:
		r.state = ReaderClosed
		close(r.done)
		r.mu.Unlock()
		return
	case ReaderClosed:
		r.mu.Unlock()
		return
	}
	cancel := r.cancel
	r.mu.Unlock()

	cancel()
	if r.notifying.Load() {
		return
	}
	<-r.done
}

// Done is closed when the reader reaches ReaderClosed
func (r *StatusReader) Done() <-chan struct{} {
	return r.done
}

// Wait blocks until the reader closes and returns its terminal error
func (r *StatusReader) Wait() error {
	<-r.done
	return r.Err()
}

// State returns the current lifecycle state
func (r *StatusReader) State() ReaderState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Err returns the error that closed the reader; nil for a clean close
func (r *StatusReader) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// Mode returns the framing the reader uses
func (r *StatusReader) Mode() StatusMode {
	return r.mode
}

func (r *StatusReader) run(ctx context.Context, conn net.Conn) {
	addr := r.client.Addr()
	loopDone := make(chan struct{})
	watchDone := make(chan struct{})

	// An immediate read deadline is the only way to unblock a pending Read
	go func() {
		defer close(watchDone)
		select {
		case <-ctx.Done():
			_ = conn.SetReadDeadline(time.Now())
		case <-loopDone:
		}
	}()

	dropped, err := r.loop(ctx, conn, addr)

	close(loopDone)
	<-watchDone
	r.cancel()
	if !dropped {
		_ = conn.SetReadDeadline(time.Time{})
	}

	r.mu.Lock()
	r.state = ReaderClosed
	r.err = err
	r.mu.Unlock()
	close(r.done)

	logging.Debug("Status reader closed",
		zap.String("remote_addr", addr),
		zap.Stringer("mode", r.mode),
		zap.Error(err),
	)
}

// loop reads until the reader is stopped or the session ends.
// Reports whether the socket was dropped and the terminal error.
func (r *StatusReader) loop(ctx context.Context, conn net.Conn, addr string) (bool, error) {
	for {
		if ctx.Err() != nil {
			return false, nil
		}

		var err error
		switch r.mode {
		case StatusPacket:
			err = r.readPacket(conn, addr)
		default:
			err = r.readText(conn, addr)
		}
		if err == nil {
			continue
		}

		switch {
		case ctx.Err() != nil:
			// Stopped: the deadline we set interrupted the read
			return false, nil
		case errors.Is(err, io.EOF):
			r.client.dropConn(conn, "closed_by_peer")
			return true, nil
		case errors.Is(err, net.ErrClosed) || errors.Is(err, io.ErrClosedPipe):
			// Closed locally by Disconnect
			return true, nil
		default:
			r.client.dropConn(conn, "read_failed")
			return true, err
		}
	}
}

func (r *StatusReader) readText(conn net.Conn, addr string) error {
	buf := make([]byte, protocol.StatusChunkSize)
	n, err := conn.Read(buf)
	if n > 0 {
		if text := protocol.NormalizeStatus(buf[:n]); text != "" {
			logging.LogStatus(addr, StatusText.String(), []byte(text))
			r.deliver(Status{
				Mode:       StatusText,
				Text:       text,
				Complete:   true,
				ReceivedAt: time.Now(),
			})
		}
	}
	return err
}

func (r *StatusReader) readPacket(conn net.Conn, addr string) error {
	pkt, err := protocol.ReadPacket(conn)
	if err != nil {
		if errors.Is(err, protocol.ErrShortHeader) || errors.Is(err, protocol.ErrPacketTooLarge) {
			return NewProtocolError(addr, "malformed packet header", err)
		}
		return err
	}

	logging.LogStatus(addr, StatusPacket.String(), pkt.Payload)
	if !pkt.Complete() {
		logging.Warn("Short packet from box",
			zap.String("remote_addr", addr),
			zap.Uint32("declared", pkt.Length),
			zap.Int("received", len(pkt.Payload)),
		)
	}

	r.deliver(Status{
		Mode:       StatusPacket,
		Payload:    pkt.Payload,
		Complete:   pkt.Complete(),
		ReceivedAt: time.Now(),
	})
	return nil
}

// deliver runs the client's observers on the reader goroutine
func (r *StatusReader) deliver(status Status) {
	r.notifying.Store(true)
	defer r.notifying.Store(false)
	r.client.notify(status)
}
