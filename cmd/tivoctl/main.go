// Tivoctl is a network remote control for TiVo boxes.
//
// It sends button presses, toggles and text to a TiVo over the network remote
// protocol (TCP port 31339), streams the status the box reports back, and can
// run as an HTTP/WebSocket bridge for home-automation controllers.
//
// Usage:
//
//	tivoctl [command] [flags]
//
// See 'tivoctl --help' for available commands.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/muurk/tivoctl/internal/logging"
	"github.com/muurk/tivoctl/internal/version"
)

func main() {
	err := rootCmd.Execute()
	logging.Sync()
	if err != nil {
		var reported *reportedError
		if !errors.As(err, &reported) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

// Global flags
var (
	deviceArg      string
	portOverride   int
	timeoutSeconds int
	logLevel       string
	debugLogging   bool
	configPath     string
)

var rootCmd = &cobra.Command{
	Use:   "tivoctl",
	Short: "TiVo network remote control",
	Long: `A network remote control for TiVo boxes.

Sends remote button presses, closed caption / aspect / video mode toggles and
free text to a TiVo over its network remote service, streams status messages
from the box, and bridges all of it to home-automation controllers over HTTP
and WebSocket.

Boxes can be named with 'tivoctl device add' and then selected with --device.
--device also accepts a plain address (host or host:port).`,
	Version:       version.Get().Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := logging.InitializeWithDebug(logLevel, debugLogging); err != nil {
			return fmt.Errorf("failed to initialize logging: %w", err)
		}
		return nil
	},
}

func init() {
	// Disable automatic completion command generation
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.PersistentFlags().StringVarP(&deviceArg, "device", "d", "", "Device name or address (default: the configured default device)")
	rootCmd.PersistentFlags().IntVar(&portOverride, "port", 0, "Override the network remote port (default 31339)")
	rootCmd.PersistentFlags().IntVar(&timeoutSeconds, "timeout", 0, "Override the connect timeout in seconds")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error); default from "+logging.LogLevelEnvVar)
	rootCmd.PersistentFlags().BoolVar(&debugLogging, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file path (default: platform config dir)")

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		info := version.Get()
		fmt.Printf("tivoctl %s %s %s\n", version.Full(), info.GoVersion, info.Platform)
	},
}
