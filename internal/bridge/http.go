package bridge

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/muurk/tivoctl/internal/logging"
	"github.com/muurk/tivoctl/internal/remote"
)

// maxCommandBody caps POST /command request bodies
const maxCommandBody = 4096

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Controllers on the LAN connect from arbitrary origins
	},
}

func (b *Bridge) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)

	r.Get("/healthz", b.handleHealth)
	r.Post("/command", b.handleCommand)
	r.Get("/ws", b.handleWebSocket)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(b.registry, promhttp.HandlerOpts{}))

	return r
}

// requestLogger logs each request at debug level through zap
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		logging.Debug("HTTP request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("remote_addr", r.RemoteAddr),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

// HealthResponse is the body of GET /healthz
type HealthResponse struct {
	Status    string `json:"status"`
	Box       string `json:"box"`
	Connected bool   `json:"connected"`
	Clients   int    `json:"ws_clients"`
}

func (b *Bridge) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:    "ok",
		Box:       b.remote.Addr(),
		Connected: b.remote.Connected(),
		Clients:   b.hub.count(),
	}

	status := http.StatusOK
	if !resp.Connected {
		resp.Status = "disconnected"
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}

// ErrorResponse is the body of failed API calls
type ErrorResponse struct {
	Error string `json:"error"`
	Type  string `json:"type,omitempty"`
}

func (b *Bridge) handleCommand(w http.ResponseWriter, r *http.Request) {
	var cmd remote.Command
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxCommandBody))
	if err := dec.Decode(&cmd); err != nil {
		b.metrics.recordCommand("unknown", outcomeInvalid)
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid command body: " + err.Error()})
		return
	}

	d, err := b.Execute(cmd)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (b *Bridge) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied to the client
		logging.Debug("WebSocket upgrade failed", zap.Error(err))
		return
	}

	client := b.hub.add(conn)
	defer b.hub.remove(client)
	logging.LogConnection(r.RemoteAddr, "ws_connected")

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			logging.LogConnection(r.RemoteAddr, "ws_disconnected")
			return
		}

		ev := b.commandEvent(data)
		reply, err := json.Marshal(ev)
		if err != nil {
			logging.Error("Failed to encode reply", zap.Error(err))
			continue
		}
		if err := client.send(reply); err != nil {
			return
		}
	}
}

// commandEvent runs a JSON command received over WebSocket
func (b *Bridge) commandEvent(data []byte) Event {
	ev := Event{Time: time.Now()}
	logging.LogRawBytes("ws command", data)

	var cmd remote.Command
	if err := json.Unmarshal(data, &cmd); err != nil {
		b.metrics.recordCommand("unknown", outcomeInvalid)
		ev.Type = EventError
		ev.Error = "invalid command: " + err.Error()
		return ev
	}

	d, err := b.Execute(cmd)
	if err != nil {
		ev.Type = EventError
		ev.Error = err.Error()
		return ev
	}

	ev.Type = EventResult
	ev.Dispatch = d
	return ev
}

// statusForError maps client errors onto HTTP status codes
func statusForError(err error) int {
	switch {
	case errors.Is(err, remote.ErrEmptyCommand), remote.IsProtocolError(err):
		return http.StatusBadRequest
	case remote.IsNotConnected(err):
		return http.StatusServiceUnavailable
	case remote.IsTimeout(err):
		return http.StatusGatewayTimeout
	case remote.IsConnectionError(err):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	resp := ErrorResponse{Error: err.Error()}
	if t, ok := remote.GetErrorType(err); ok {
		resp.Type = t.String()
	}
	writeJSON(w, statusForError(err), resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Debug("Failed to write response", zap.Error(err))
	}
}
