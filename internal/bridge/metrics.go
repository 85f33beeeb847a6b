package bridge

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "tivoctl"

// Command outcomes used as the "outcome" label
const (
	outcomeOK              = "ok"
	outcomeNotConnected    = "not_connected"
	outcomeConnectionError = "connection_error"
	outcomeProtocolError   = "protocol_error"
	outcomeInvalid         = "invalid"
	outcomeError           = "error"
)

// Metrics holds the bridge's Prometheus collectors.
type Metrics struct {
	commandsTotal  *prometheus.CounterVec
	statusTotal    *prometheus.CounterVec
	wsClients      prometheus.Gauge
	boxConnected   prometheus.Gauge
	reconnectTotal prometheus.Counter
}

// NewMetrics registers the bridge collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		commandsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "bridge",
			Name:      "commands_total",
			Help:      "Commands received from the host, by dispatch kind and outcome",
		}, []string{"kind", "outcome"}),

		statusTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "bridge",
			Name:      "status_messages_total",
			Help:      "Status messages read from the box",
		}, []string{"mode"}),

		wsClients: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "bridge",
			Name:      "ws_clients",
			Help:      "Connected WebSocket clients",
		}),

		boxConnected: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "bridge",
			Name:      "box_connected",
			Help:      "1 while the bridge holds a live connection to the box",
		}),

		reconnectTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "bridge",
			Name:      "reconnects_total",
			Help:      "Successful connections made by the bridge supervisor",
		}),
	}
}

func (m *Metrics) recordCommand(kind, outcome string) {
	m.commandsTotal.WithLabelValues(kind, outcome).Inc()
}

func (m *Metrics) setConnected(connected bool) {
	if connected {
		m.boxConnected.Set(1)
	} else {
		m.boxConnected.Set(0)
	}
}
