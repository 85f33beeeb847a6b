// Package bridge exposes a TiVo network remote to home-automation
// controllers.
//
// A Bridge wraps a remote.Client and serves:
//
//	GET  /healthz   box address and connection state (503 while disconnected)
//	POST /command   {"name": "ChannelUp", "level": 10} -> dispatch result
//	GET  /ws        WebSocket: commands in, results and status events out
//	GET  /metrics   Prometheus metrics
//
// Command names are resolved exactly as remote.Client.SendCommand resolves
// them, so anything the client accepts (buttons, aliases such as Home or
// FastForward, the ShowSubtitles/FullScreen/VideoMode toggles, or a literal
// pass-through token) works from either endpoint. Commands are serialized
// across all endpoints.
//
// # Connection supervision
//
// Serve connects to the box at startup and checks the connection on every
// heartbeat (20s by default), reconnecting when it has dropped. When status
// reading is enabled a new status reader is started after each connect and
// every status message is broadcast to all WebSocket clients:
//
//	{"type":"status","time":"...","mode":"text","text":"Live Tv","complete":true}
package bridge
