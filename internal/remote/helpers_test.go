package remote

import (
	"bufio"
	"context"
	"errors"
	"net"
	"strings"
	"sync"
	"testing"
	"time"
)

// recordingConn is a net.Conn that records every Write call
type recordingConn struct {
	mu         sync.Mutex
	writes     []string
	failWrites bool
	closed     bool
}

var errWriteFailed = errors.New("broken pipe")

func (c *recordingConn) Read(b []byte) (int, error) {
	return 0, errors.New("recordingConn: read not supported")
}

func (c *recordingConn) Write(b []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failWrites {
		return 0, errWriteFailed
	}
	c.writes = append(c.writes, string(b))
	return len(b), nil
}

func (c *recordingConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *recordingConn) LocalAddr() net.Addr                { return &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 50000} }
func (c *recordingConn) RemoteAddr() net.Addr               { return &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: DefaultPort} }
func (c *recordingConn) SetDeadline(t time.Time) error      { return nil }
func (c *recordingConn) SetReadDeadline(t time.Time) error  { return nil }
func (c *recordingConn) SetWriteDeadline(t time.Time) error { return nil }

func (c *recordingConn) Writes() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.writes))
	copy(out, c.writes)
	return out
}

func (c *recordingConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// newRecordingClient returns a client wired to a recordingConn
func newRecordingClient() (*Client, *recordingConn) {
	conn := &recordingConn{}
	client := NewClient("127.0.0.1", DefaultPort)
	client.conn = conn
	return client, conn
}

// fakeBox is a loopback TCP listener standing in for a TiVo
type fakeBox struct {
	ln    net.Listener
	conns chan net.Conn
}

func newFakeBox(t *testing.T) *fakeBox {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}

	box := &fakeBox{ln: ln, conns: make(chan net.Conn, 4)}
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			box.conns <- conn
		}
	}()

	t.Cleanup(func() {
		_ = ln.Close()
	})
	return box
}

func (b *fakeBox) port() int {
	return b.ln.Addr().(*net.TCPAddr).Port
}

func (b *fakeBox) client() *Client {
	return NewClient("127.0.0.1", b.port())
}

func (b *fakeBox) accept(t *testing.T) net.Conn {
	t.Helper()
	select {
	case conn := <-b.conns:
		t.Cleanup(func() { _ = conn.Close() })
		return conn
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for client connection")
		return nil
	}
}

// connectedPair connects a client to a fake box and returns both ends
func connectedPair(t *testing.T) (*Client, net.Conn) {
	t.Helper()

	box := newFakeBox(t)
	client := box.client()
	if err := client.Connect(context.Background()); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	t.Cleanup(func() { _ = client.Disconnect() })

	return client, box.accept(t)
}

// readLines reads n carriage-return terminated lines from conn
func readLines(t *testing.T, conn net.Conn, n int) []string {
	t.Helper()

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	r := bufio.NewReader(conn)

	lines := make([]string, 0, n)
	for i := 0; i < n; i++ {
		line, err := r.ReadString('\r')
		if err != nil {
			t.Fatalf("reading line %d: %v (got %q so far)", i+1, err, strings.Join(lines, ""))
		}
		lines = append(lines, line)
	}
	return lines
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
