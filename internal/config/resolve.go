package config

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/muurk/tivoctl/internal/remote"
)

// Target is a fully resolved box: everything needed to build a remote.Client.
type Target struct {
	Name           string // Registry name; empty for ad-hoc addresses
	Address        string
	Port           int
	ConnectTimeout time.Duration
	Debug          bool
	Text           remote.TextOptions
}

// Addr returns host:port
func (t *Target) Addr() string {
	return net.JoinHostPort(t.Address, strconv.Itoa(t.Port))
}

// DisplayName returns the nickname, the registry name or the address
func (t *Target) DisplayName(r *Registry) string {
	if d := r.GetDevice(t.Name); d != nil && d.Nickname != "" {
		return d.Nickname
	}
	if t.Name != "" {
		return t.Name
	}
	return t.Addr()
}

// NewClient builds an unconnected client for the target
func (t *Target) NewClient() *remote.Client {
	client := remote.NewClient(t.Address, t.Port)
	if t.ConnectTimeout > 0 {
		client.ConnectTimeout = t.ConnectTimeout
	}
	return client
}

// Resolve turns a registry name or a literal address into a Target.
//
// Lookup order: exact registry name, then an address ("host" or "host:port").
// An empty argument selects the default device.
func (r *Registry) Resolve(nameOrAddress string) (*Target, error) {
	prefs := r.prefs()
	key := strings.TrimSpace(nameOrAddress)
	if key == "" {
		key = prefs.DefaultDevice
	}
	if key == "" {
		return nil, ErrNoDevice
	}

	target := &Target{
		Port:           prefs.DefaultPort,
		ConnectTimeout: time.Duration(prefs.ConnectTimeout) * time.Second,
		Debug:          prefs.Debug,
	}
	if target.Port == 0 {
		target.Port = defaultPreferences().DefaultPort
	}

	if device, ok := r.Devices[key]; ok {
		if err := ValidateDevice(device); err != nil {
			return nil, fmt.Errorf("device %q: %w", key, err)
		}

		target.Name = key
		target.Address = device.Address
		if device.Port != 0 {
			target.Port = device.Port
		}

		// Validated above
		target.Text.Mode, _ = remote.ParseKeyboardMode(device.KeyboardMode)
		target.Text.Layout, _ = remote.ParseLayout(device.Layout)
		target.Text.Columns = device.Columns
		return target, nil
	}

	host, port, err := SplitAddress(key)
	if err != nil {
		return nil, err
	}
	target.Address = host
	if port != 0 {
		target.Port = port
	}
	if err := ValidatePort(target.Port); err != nil {
		return nil, err
	}
	return target, nil
}

// SplitAddress accepts "host" or "host:port"; port is 0 when absent
func SplitAddress(s string) (string, int, error) {
	host, portStr, err := net.SplitHostPort(s)
	if err != nil {
		// No port given
		return strings.Trim(s, "[]"), 0, nil
	}
	if host == "" {
		return "", 0, fmt.Errorf("address cannot be empty")
	}

	port, err := strconv.Atoi(portStr)
	if err != nil {
		return "", 0, fmt.Errorf("invalid port %q: %w", portStr, err)
	}
	if err := ValidatePort(port); err != nil {
		return "", 0, err
	}
	return host, port, nil
}
