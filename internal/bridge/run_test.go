package bridge

import (
	"bufio"
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/muurk/tivoctl/internal/remote"
)

// listenBox starts a loopback listener standing in for a TiVo
func listenBox(t *testing.T) (net.Listener, <-chan net.Conn) {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}
	t.Cleanup(func() { _ = ln.Close() })

	conns := make(chan net.Conn, 4)
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			conns <- conn
		}
	}()
	return ln, conns
}

func acceptBox(t *testing.T, conns <-chan net.Conn) net.Conn {
	t.Helper()
	select {
	case conn := <-conns:
		t.Cleanup(func() { _ = conn.Close() })
		return conn
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for the bridge to connect to the box")
		return nil
	}
}

func TestServe_EndToEnd(t *testing.T) {
	boxLn, boxConns := listenBox(t)
	client := remote.NewClient("127.0.0.1", boxLn.Addr().(*net.TCPAddr).Port)
	defer client.Disconnect()

	b := New(client, Options{
		ReadStatus: true,
		StatusMode: remote.StatusText,
		Registry:   prometheus.NewRegistry(),
	})

	httpLn, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- b.Serve(ctx, httpLn) }()

	box := acceptBox(t, boxConns)
	baseURL := "http://" + httpLn.Addr().String()

	conn := dialWS(t, baseURL)
	if err := conn.WriteJSON(remote.Command{Name: "Play"}); err != nil {
		t.Fatalf("WriteJSON() error = %v", err)
	}
	if ev := readEvent(t, conn); ev.Type != EventResult {
		t.Fatalf("event = %+v, want result", ev)
	}

	_ = box.SetReadDeadline(time.Now().Add(2 * time.Second))
	line, err := bufio.NewReader(box).ReadString('\r')
	if err != nil {
		t.Fatalf("box read error = %v", err)
	}
	if line != "IRCODE PLAY\r" {
		t.Errorf("box received %q, want %q", line, "IRCODE PLAY\r")
	}

	if _, err := box.Write([]byte("LIVE TV")); err != nil {
		t.Fatalf("box write error = %v", err)
	}
	ev := readEvent(t, conn)
	if ev.Type != EventStatus || ev.Text != "Live Tv" {
		t.Errorf("event = %+v, want status Live Tv", ev)
	}

	resp, err := http.Get(baseURL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz error = %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("healthz status = %d, want 200", resp.StatusCode)
	}
	if got := testutil.ToFloat64(b.metrics.boxConnected); got != 1 {
		t.Errorf("box_connected = %v, want 1", got)
	}

	cancel()
	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("Serve() error = %v, want nil", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve() did not return after cancel")
	}
}

func TestServe_BoxUnreachable(t *testing.T) {
	fake := newFakeRemote(false)
	fake.connectErr = remote.NewConnectionError("10.0.0.5:31339", "unable to connect", errors.New("connection refused"))

	b := New(fake, Options{
		Heartbeat: 20 * time.Millisecond,
		Registry:  prometheus.NewRegistry(),
	})

	httpLn, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	if err := b.Serve(ctx, httpLn); err != nil {
		t.Errorf("Serve() error = %v, want nil", err)
	}

	fake.mu.Lock()
	connects := fake.connects
	fake.mu.Unlock()
	if connects < 2 {
		t.Errorf("Connect() called %d times, want retries on every heartbeat", connects)
	}
	if got := testutil.ToFloat64(b.metrics.boxConnected); got != 0 {
		t.Errorf("box_connected = %v, want 0", got)
	}
}

func TestServe_ReconnectsAfterDrop(t *testing.T) {
	fake := newFakeRemote(true)
	b := New(fake, Options{
		Heartbeat: 20 * time.Millisecond,
		Registry:  prometheus.NewRegistry(),
	})

	httpLn, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- b.Serve(ctx, httpLn) }()

	fake.mu.Lock()
	fake.connected = false
	fake.mu.Unlock()

	deadline := time.Now().Add(2 * time.Second)
	for !fake.Connected() {
		if time.Now().After(deadline) {
			t.Fatal("bridge did not reconnect")
		}
		time.Sleep(10 * time.Millisecond)
	}
	cancel()
	<-errCh

	if got := testutil.ToFloat64(b.metrics.reconnectTotal); got < 1 {
		t.Errorf("reconnects_total = %v, want at least 1", got)
	}
}

func TestRun_BadListenAddress(t *testing.T) {
	b := New(newFakeRemote(true), Options{
		Listen:   "256.0.0.1:bad",
		Registry: prometheus.NewRegistry(),
	})

	err := b.Run(context.Background())
	if err == nil || !strings.Contains(err.Error(), "failed to listen") {
		t.Errorf("Run() error = %v, want listen failure", err)
	}
}
