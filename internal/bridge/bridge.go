package bridge

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/muurk/tivoctl/internal/logging"
	"github.com/muurk/tivoctl/internal/remote"
)

const (
	// DefaultListen is the bridge's default HTTP listen address
	DefaultListen = "127.0.0.1:8765"

	// DefaultHeartbeat matches the host controller's 20s heartbeat
	DefaultHeartbeat = 20 * time.Second
)

// Remote is the part of *remote.Client the bridge drives.
type Remote interface {
	Addr() string
	Connected() bool
	Connect(ctx context.Context) error
	SendCommand(cmd remote.Command) (*remote.Dispatch, error)
	OnStatus(fn remote.StatusFunc)
	NewStatusReader(mode remote.StatusMode) *remote.StatusReader
}

// Options configures a Bridge
type Options struct {
	Listen     string               // HTTP listen address (default 127.0.0.1:8765)
	Heartbeat  time.Duration        // Reconnect check interval (default 20s)
	ReadStatus bool                 // Run a status reader while connected
	StatusMode remote.StatusMode    // Framing for the status reader
	Registry   *prometheus.Registry // Metrics registry (default: a new registry)
}

// Event is a JSON message pushed to WebSocket clients
type Event struct {
	Type     string           `json:"type"` // status, result or error
	Time     time.Time        `json:"time"`
	Mode     string           `json:"mode,omitempty"`
	Text     string           `json:"text,omitempty"`
	Payload  []byte           `json:"payload,omitempty"`
	Complete bool             `json:"complete,omitempty"`
	Dispatch *remote.Dispatch `json:"dispatch,omitempty"`
	Error    string           `json:"error,omitempty"`
}

const (
	EventStatus = "status"
	EventResult = "result"
	EventError  = "error"
)

// Bridge exposes a remote.Client to home-automation controllers over HTTP
// and WebSocket.
type Bridge struct {
	remote   Remote
	opts     Options
	registry *prometheus.Registry
	metrics  *Metrics
	hub      *hub

	// Commands are serialized: the client's toggle cursors are not locked
	cmdMu sync.Mutex

	handler http.Handler
}

// New creates a bridge for r. Status messages read from the box are
// broadcast to every WebSocket client.
func New(r Remote, opts Options) *Bridge {
	if opts.Listen == "" {
		opts.Listen = DefaultListen
	}
	if opts.Heartbeat <= 0 {
		opts.Heartbeat = DefaultHeartbeat
	}
	registry := opts.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	metrics := NewMetrics(registry)
	b := &Bridge{
		remote:   r,
		opts:     opts,
		registry: registry,
		metrics:  metrics,
		hub:      newHub(metrics),
	}
	b.handler = b.routes()

	r.OnStatus(b.publishStatus)
	return b
}

// Handler returns the bridge's HTTP handler
func (b *Bridge) Handler() http.Handler {
	return b.handler
}

// Execute sends one command to the box and records the outcome.
func (b *Bridge) Execute(cmd remote.Command) (*remote.Dispatch, error) {
	b.cmdMu.Lock()
	defer b.cmdMu.Unlock()

	d, err := b.remote.SendCommand(cmd)

	kind := remote.ResolveCommand(cmd.Name).Kind.String()
	if d != nil {
		kind = d.Kind.String()
	}
	outcome := classifyOutcome(err)
	b.metrics.recordCommand(kind, outcome)

	if err != nil {
		if remote.IsConnectionError(err) || remote.IsNotConnected(err) {
			b.metrics.setConnected(b.remote.Connected())
		}
		logging.Warn("Command failed",
			zap.String("remote_addr", b.remote.Addr()),
			zap.String("command", cmd.Name),
			zap.String("outcome", outcome),
			zap.Error(err),
		)
		return nil, err
	}

	logging.Info("Command sent",
		zap.String("remote_addr", b.remote.Addr()),
		zap.String("command", d.Name),
		zap.Stringer("kind", d.Kind),
		zap.Strings("tokens", d.Tokens),
	)
	return d, nil
}

func classifyOutcome(err error) string {
	switch {
	case err == nil:
		return outcomeOK
	case errors.Is(err, remote.ErrEmptyCommand):
		return outcomeInvalid
	case remote.IsNotConnected(err):
		return outcomeNotConnected
	case remote.IsConnectionError(err):
		return outcomeConnectionError
	case remote.IsProtocolError(err):
		return outcomeProtocolError
	default:
		return outcomeError
	}
}

// publishStatus is registered with the client as its status observer
func (b *Bridge) publishStatus(s remote.Status) {
	mode := s.Mode.String()
	b.metrics.statusTotal.WithLabelValues(mode).Inc()

	b.hub.broadcast(Event{
		Type:     EventStatus,
		Time:     s.ReceivedAt,
		Mode:     mode,
		Text:     s.Text,
		Payload:  s.Payload,
		Complete: s.Complete,
	})
}
