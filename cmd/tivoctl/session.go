package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/tivoctl/internal/config"
	"github.com/muurk/tivoctl/internal/logging"
	"github.com/muurk/tivoctl/internal/remote"
	"github.com/muurk/tivoctl/internal/ui"
)

// loadRegistry loads the config file named by --config, or the default one
func loadRegistry() (*config.Registry, error) {
	if configPath != "" {
		return config.LoadRegistryFrom(configPath)
	}
	return config.LoadRegistry()
}

// session is a resolved box with an open connection
type session struct {
	registry *config.Registry
	target   *config.Target
	client   *remote.Client
}

// resolveTarget applies the global flags on top of the registry entry
func resolveTarget(reg *config.Registry) (*config.Target, error) {
	target, err := reg.Resolve(deviceArg)
	if err != nil {
		if errors.Is(err, config.ErrNoDevice) {
			return nil, fmt.Errorf("%w (use --device or 'tivoctl device default <name>')", err)
		}
		return nil, err
	}

	if portOverride != 0 {
		if err := config.ValidatePort(portOverride); err != nil {
			return nil, err
		}
		target.Port = portOverride
	}
	if timeoutSeconds > 0 {
		target.ConnectTimeout = time.Duration(timeoutSeconds) * time.Second
	}

	// debug: true in the config file turns on debug logging unless a level was given
	if target.Debug && !debugLogging && logLevel == "" {
		if err := logging.InitializeWithDebug("", true); err != nil {
			return nil, err
		}
	}
	return target, nil
}

// openSession resolves --device and connects to it
func openSession(ctx context.Context) (*session, error) {
	reg, err := loadRegistry()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	target, err := resolveTarget(reg)
	if err != nil {
		return nil, err
	}

	client := target.NewClient()
	if err := client.Connect(ctx); err != nil {
		return nil, err
	}

	s := &session{registry: reg, target: target, client: client}
	s.recordConnect()
	return s, nil
}

// recordConnect stamps last_connected for named boxes
func (s *session) recordConnect() {
	if s.target.Name == "" {
		return
	}
	s.registry.MarkConnected(s.target.Name, time.Now().UTC())
	if err := s.registry.Save(); err != nil {
		logging.Warn("Failed to save config", zap.Error(err))
	}
}

func (s *session) Close() {
	if err := s.client.Disconnect(); err != nil {
		logging.Warn("Error closing connection", zap.Error(err))
	}
}

func (s *session) name() string {
	return s.target.DisplayName(s.registry)
}

// signalContext is cancelled on SIGINT or SIGTERM
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// troubleshoot returns tips for a failed command
func troubleshoot(err error) []string {
	switch {
	case remote.IsTimeout(err):
		return []string{
			"Check the box is powered on and reachable on the network",
			"Try a longer --timeout on slow networks",
		}
	case remote.IsConnectionError(err):
		return []string{
			"Enable Settings > Remote, CableCARD & Devices > Network Remote Control on the box",
			"Check the address and port (default 31339)",
			"Only one network remote client can be connected at a time on some models",
		}
	case remote.IsProtocolError(err):
		return []string{
			"Tokens must be printable ASCII without spaces",
		}
	case errors.Is(err, config.ErrNoDevice), errors.Is(err, config.ErrDeviceNotFound):
		return []string{
			"List configured boxes with 'tivoctl device list'",
			"Pass an address directly with --device 192.168.1.20",
		}
	default:
		return nil
	}
}

// reportedError has already been shown to the user as a failure box
type reportedError struct {
	err error
}

func (e *reportedError) Error() string { return e.err.Error() }
func (e *reportedError) Unwrap() error { return e.err }

// fail prints a failure box and returns err marked as reported
func fail(title string, err error) error {
	fmt.Fprintln(os.Stderr, ui.RenderFailure(title, err, troubleshoot(err)))
	return &reportedError{err: err}
}
