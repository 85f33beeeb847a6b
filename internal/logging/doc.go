// Package logging provides structured logging for tivoctl.
//
// This package wraps the zap logger with convenience functions for the events
// a network remote cares about: connections to the box, command lines written,
// and status messages read back.
//
// # Log Levels
//
//   - Debug: Every command line sent, hex dumps of status packets
//   - Info: Connections, disconnections, decoded status messages
//   - Warn: Dropped sockets, bridge clients that went away
//   - Error: Failures that abort a command or the bridge
//
// # Silent by Default
//
// The CLI is quiet unless asked otherwise. Logging is enabled by passing a level
// to Initialize, by setting TIVOCTL_LOG_LEVEL, or by the debug switch:
//
//	if err := logging.InitializeWithDebug(logLevel, debug); err != nil {
//	    return err
//	}
//	defer logging.Sync()
//
// # Structured Logging
//
//	logging.Info("Toggle advanced",
//	    zap.String("toggle", "aspect"),
//	    zap.String("token", "ASPECT_CORRECTION_PANEL"),
//	)
//
//	logging.LogConnection("192.168.1.20:31339", "connected")
//	logging.LogCommand("192.168.1.20:31339", "IRCODE", "PAUSE")
//
// Output goes to stderr so that command output on stdout stays scriptable.
//
// # Thread Safety
//
// All logging functions are safe for concurrent use once Initialize has run.
package logging
