// Package ui renders tivoctl's terminal output with Lipgloss.
//
// Output is "run once and exit": a Result box after each command, one line
// per status message while streaming, a table for the device list and a
// Header banner when the bridge starts. Nothing here is interactive.
//
// # Logging Integration
//
// zap logging is silent unless TIVOCTL_LOG_LEVEL or --log-level is set, so
// the styled output is not interleaved with log lines by default.
package ui
