package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/muurk/tivoctl/internal/remote"
)

// fakeRemote records commands instead of writing to a socket
type fakeRemote struct {
	*remote.Client

	mu         sync.Mutex
	connected  bool
	connectErr error
	sendErr    error
	commands   []remote.Command
	statusFn   remote.StatusFunc
	connects   int
}

func newFakeRemote(connected bool) *fakeRemote {
	return &fakeRemote{
		Client:    remote.NewClient("10.0.0.5", 0),
		connected: connected,
	}
}

func (f *fakeRemote) Connected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connected
}

func (f *fakeRemote) Connect(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connects++
	if f.connectErr != nil {
		return f.connectErr
	}
	f.connected = true
	return nil
}

func (f *fakeRemote) SendCommand(cmd remote.Command) (*remote.Dispatch, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	d := remote.ResolveCommand(cmd.Name)
	if d.Name == "" {
		return nil, remote.ErrEmptyCommand
	}
	if !f.connected {
		return nil, remote.NewNotConnectedError(f.Addr())
	}
	if f.sendErr != nil {
		return nil, f.sendErr
	}

	f.commands = append(f.commands, cmd)
	if d.Kind == remote.DispatchToggle {
		d.Tokens = []string{"CC_ON"}
	}
	d.Level = cmd.Level
	return &d, nil
}

func (f *fakeRemote) OnStatus(fn remote.StatusFunc) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statusFn = fn
}

func (f *fakeRemote) publish(s remote.Status) {
	f.mu.Lock()
	fn := f.statusFn
	f.mu.Unlock()
	fn(s)
}

func newTestBridge(t *testing.T, r Remote) *Bridge {
	t.Helper()
	return New(r, Options{Registry: prometheus.NewRegistry()})
}

func TestHealth(t *testing.T) {
	tests := []struct {
		name       string
		connected  bool
		wantCode   int
		wantStatus string
	}{
		{name: "connected", connected: true, wantCode: http.StatusOK, wantStatus: "ok"},
		{name: "disconnected", connected: false, wantCode: http.StatusServiceUnavailable, wantStatus: "disconnected"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newTestBridge(t, newFakeRemote(tt.connected))

			req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
			rec := httptest.NewRecorder()
			b.Handler().ServeHTTP(rec, req)

			if rec.Code != tt.wantCode {
				t.Errorf("status code = %d, want %d", rec.Code, tt.wantCode)
			}

			var resp HealthResponse
			if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if resp.Status != tt.wantStatus {
				t.Errorf("Status = %q, want %q", resp.Status, tt.wantStatus)
			}
			if resp.Box != "10.0.0.5:31339" {
				t.Errorf("Box = %q, want 10.0.0.5:31339", resp.Box)
			}
		})
	}
}

func postCommand(t *testing.T, b *Bridge, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/command", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	b.Handler().ServeHTTP(rec, req)
	return rec
}

func TestPostCommand_Success(t *testing.T) {
	fake := newFakeRemote(true)
	b := newTestBridge(t, fake)

	rec := postCommand(t, b, `{"name": "FastForward", "level": 20}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status code = %d, want 200 (body %s)", rec.Code, rec.Body.String())
	}

	var got struct {
		Name   string   `json:"name"`
		Kind   string   `json:"kind"`
		Tokens []string `json:"tokens"`
		Level  *int     `json:"level"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if got.Kind != "button" || len(got.Tokens) != 1 || got.Tokens[0] != "FORWARD" {
		t.Errorf("dispatch = %+v, want button FORWARD", got)
	}
	if got.Level == nil || *got.Level != 20 {
		t.Errorf("Level = %v, want 20", got.Level)
	}

	if n := testutil.ToFloat64(b.metrics.commandsTotal.WithLabelValues("button", "ok")); n != 1 {
		t.Errorf("commands_total{button,ok} = %v, want 1", n)
	}
}

func TestPostCommand_Passthrough(t *testing.T) {
	b := newTestBridge(t, newFakeRemote(true))

	rec := postCommand(t, b, `{"name": "xyz"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status code = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"kind":"passthrough"`) {
		t.Errorf("body = %s, want passthrough kind", rec.Body.String())
	}
	if n := testutil.ToFloat64(b.metrics.commandsTotal.WithLabelValues("passthrough", "ok")); n != 1 {
		t.Errorf("commands_total{passthrough,ok} = %v, want 1", n)
	}
}

func TestPostCommand_Errors(t *testing.T) {
	tests := []struct {
		name        string
		connected   bool
		sendErr     error
		body        string
		wantCode    int
		wantType    string
		wantOutcome string
	}{
		{
			name:        "malformed body",
			connected:   true,
			body:        `{"name":`,
			wantCode:    http.StatusBadRequest,
			wantOutcome: outcomeInvalid,
		},
		{
			name:        "empty name",
			connected:   true,
			body:        `{"name": "  "}`,
			wantCode:    http.StatusBadRequest,
			wantOutcome: outcomeInvalid,
		},
		{
			name:        "not connected",
			connected:   false,
			body:        `{"name": "Play"}`,
			wantCode:    http.StatusServiceUnavailable,
			wantType:    "Not Connected",
			wantOutcome: outcomeNotConnected,
		},
		{
			name:        "write failed",
			connected:   true,
			sendErr:     remote.NewConnectionError("10.0.0.5:31339", "write failed", io.ErrClosedPipe),
			body:        `{"name": "Play"}`,
			wantCode:    http.StatusBadGateway,
			wantType:    "Connection Error",
			wantOutcome: outcomeConnectionError,
		},
		{
			name:        "bad token",
			connected:   true,
			sendErr:     remote.NewProtocolError("10.0.0.5:31339", "invalid token", nil),
			body:        `{"name": "Play"}`,
			wantCode:    http.StatusBadRequest,
			wantType:    "Protocol Error",
			wantOutcome: outcomeProtocolError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := newFakeRemote(tt.connected)
			fake.sendErr = tt.sendErr
			b := newTestBridge(t, fake)

			rec := postCommand(t, b, tt.body)
			if rec.Code != tt.wantCode {
				t.Errorf("status code = %d, want %d (body %s)", rec.Code, tt.wantCode, rec.Body.String())
			}

			var resp ErrorResponse
			if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if resp.Error == "" {
				t.Error("Error should not be empty")
			}
			if resp.Type != tt.wantType {
				t.Errorf("Type = %q, want %q", resp.Type, tt.wantType)
			}

			var total float64
			for _, kind := range []string{"unknown", "button", "passthrough"} {
				total += testutil.ToFloat64(b.metrics.commandsTotal.WithLabelValues(kind, tt.wantOutcome))
			}
			if total != 1 {
				t.Errorf("commands_total{outcome=%s} = %v, want 1", tt.wantOutcome, total)
			}
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	b := newTestBridge(t, newFakeRemote(true))
	postCommand(t, b, `{"name": "Play"}`)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	b.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status code = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{
		`tivoctl_bridge_commands_total{kind="button",outcome="ok"} 1`,
		"tivoctl_bridge_ws_clients 0",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}

func dialWS(t *testing.T, serverURL string) *websocket.Conn {
	t.Helper()

	wsURL := "ws" + strings.TrimPrefix(serverURL, "http") + "/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("failed to dial %s: %v", wsURL, err)
	}
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) Event {
	t.Helper()

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var ev Event
	if err := conn.ReadJSON(&ev); err != nil {
		t.Fatalf("failed to read event: %v", err)
	}
	return ev
}

func TestWebSocket_CommandAndStatus(t *testing.T) {
	fake := newFakeRemote(true)
	b := newTestBridge(t, fake)
	srv := httptest.NewServer(b.Handler())
	defer srv.Close()

	conn := dialWS(t, srv.URL)

	if err := conn.WriteJSON(remote.Command{Name: "ShowSubtitles"}); err != nil {
		t.Fatalf("WriteJSON() error = %v", err)
	}
	ev := readEvent(t, conn)
	if ev.Type != EventResult {
		t.Fatalf("event type = %q, want result (error %q)", ev.Type, ev.Error)
	}
	if ev.Dispatch == nil || ev.Dispatch.Kind != remote.DispatchToggle {
		t.Errorf("dispatch = %+v, want toggle", ev.Dispatch)
	}

	if got := testutil.ToFloat64(b.metrics.wsClients); got != 1 {
		t.Errorf("ws_clients = %v, want 1", got)
	}

	fake.publish(remote.Status{Mode: remote.StatusText, Text: "Live Tv", Complete: true, ReceivedAt: time.Now()})
	ev = readEvent(t, conn)
	if ev.Type != EventStatus || ev.Text != "Live Tv" || ev.Mode != "text" {
		t.Errorf("event = %+v, want text status Live Tv", ev)
	}
	if n := testutil.ToFloat64(b.metrics.statusTotal.WithLabelValues("text")); n != 1 {
		t.Errorf("status_messages_total{text} = %v, want 1", n)
	}
}

func TestWebSocket_InvalidCommand(t *testing.T) {
	b := newTestBridge(t, newFakeRemote(true))
	srv := httptest.NewServer(b.Handler())
	defer srv.Close()

	conn := dialWS(t, srv.URL)

	if err := conn.WriteMessage(websocket.TextMessage, []byte("not json")); err != nil {
		t.Fatalf("WriteMessage() error = %v", err)
	}
	ev := readEvent(t, conn)
	if ev.Type != EventError || ev.Error == "" {
		t.Errorf("event = %+v, want error event", ev)
	}

	// The connection stays usable after a bad message
	if err := conn.WriteJSON(remote.Command{Name: "Pause"}); err != nil {
		t.Fatalf("WriteJSON() error = %v", err)
	}
	if ev := readEvent(t, conn); ev.Type != EventResult {
		t.Errorf("event type = %q, want result", ev.Type)
	}
}

func TestWebSocket_ClientRemovedOnClose(t *testing.T) {
	b := newTestBridge(t, newFakeRemote(true))
	srv := httptest.NewServer(b.Handler())
	defer srv.Close()

	conn := dialWS(t, srv.URL)
	if err := conn.WriteJSON(remote.Command{Name: "Play"}); err != nil {
		t.Fatalf("WriteJSON() error = %v", err)
	}
	readEvent(t, conn)
	_ = conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for b.hub.count() != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("hub still has %d clients after close", b.hub.count())
		}
		time.Sleep(10 * time.Millisecond)
	}
	if got := testutil.ToFloat64(b.metrics.wsClients); got != 0 {
		t.Errorf("ws_clients = %v, want 0", got)
	}
}

func TestExecute_SerializesCommands(t *testing.T) {
	fake := newFakeRemote(true)
	b := newTestBridge(t, fake)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = b.Execute(remote.Command{Name: "ChannelUp"})
		}()
	}
	wg.Wait()

	if len(fake.commands) != 20 {
		t.Errorf("sent %d commands, want 20", len(fake.commands))
	}
}

func TestStatusForError(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{err: remote.ErrEmptyCommand, want: http.StatusBadRequest},
		{err: remote.NewNotConnectedError("a"), want: http.StatusServiceUnavailable},
		{err: remote.NewTimeoutError("a", "m", nil), want: http.StatusGatewayTimeout},
		{err: remote.NewConnectionError("a", "m", nil), want: http.StatusBadGateway},
		{err: remote.NewProtocolError("a", "m", nil), want: http.StatusBadRequest},
		{err: io.EOF, want: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		if got := statusForError(tt.err); got != tt.want {
			t.Errorf("statusForError(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestPostCommand_BodyTooLarge(t *testing.T) {
	b := newTestBridge(t, newFakeRemote(true))

	body := `{"name": "` + string(bytes.Repeat([]byte("A"), maxCommandBody)) + `"}`
	rec := postCommand(t, b, body)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status code = %d, want 400", rec.Code)
	}
}
