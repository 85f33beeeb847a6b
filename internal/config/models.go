package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/muurk/tivoctl/internal/protocol"
	"github.com/muurk/tivoctl/internal/remote"
)

const (
	// CurrentVersion is the only config file version this build understands
	CurrentVersion = 1

	// DefaultConnectTimeout is the connect timeout in seconds for new registries
	DefaultConnectTimeout = 5
)

var (
	// ErrDeviceNotFound is returned when a named box is not in the registry
	ErrDeviceNotFound = errors.New("device not found")

	// ErrNoDevice is returned by Resolve when no box was named and no default is set
	ErrNoDevice = errors.New("no device given and no default device configured")
)

// Registry represents the entire user configuration file.
// It stores the boxes the user has named and application preferences.
type Registry struct {
	Version     int                `yaml:"version"`
	Devices     map[string]*Device `yaml:"devices,omitempty"` // Keyed by user-chosen name
	Preferences *Preferences       `yaml:"preferences,omitempty"`

	path string // File the registry was loaded from; Save writes back here
}

// Device represents one TiVo box.
type Device struct {
	Address       string    `yaml:"address"`                  // Host name or IP address
	Port          int       `yaml:"port,omitempty"`           // 0 uses Preferences.DefaultPort
	Nickname      string    `yaml:"nickname,omitempty"`       // Display name (e.g., "Living Room")
	KeyboardMode  string    `yaml:"keyboard_mode,omitempty"`  // arrows, direct or keyboard
	Columns       int       `yaml:"columns,omitempty"`        // On-screen keyboard width for arrows mode
	Layout        string    `yaml:"layout,omitempty"`         // standard or numeric (direct mode)
	LastConnected time.Time `yaml:"last_connected,omitempty"` // Last successful connect
}

// Preferences represents application-wide user preferences.
type Preferences struct {
	DefaultPort    int    `yaml:"default_port"`             // Port for boxes without one
	ConnectTimeout int    `yaml:"connect_timeout"`          // Connect timeout in seconds
	Debug          bool   `yaml:"debug"`                    // Force debug logging
	DefaultDevice  string `yaml:"default_device,omitempty"` // Box used when none is named
}

// NewRegistry creates a new Registry with default values.
func NewRegistry() *Registry {
	return &Registry{
		Version:     CurrentVersion,
		Devices:     make(map[string]*Device),
		Preferences: defaultPreferences(),
	}
}

func defaultPreferences() *Preferences {
	return &Preferences{
		DefaultPort:    protocol.DefaultPort,
		ConnectTimeout: DefaultConnectTimeout,
	}
}

// Path returns the file the registry was loaded from (empty for new registries)
func (r *Registry) Path() string {
	return r.path
}

// GetDevice retrieves a box by name.
// Returns nil if the name doesn't exist in the registry.
func (r *Registry) GetDevice(name string) *Device {
	return r.Devices[name]
}

// Names returns the device names in sorted order
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.Devices))
	for name := range r.Devices {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SetDevice validates and stores a box under name, replacing any previous entry.
func (r *Registry) SetDevice(name string, device *Device) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("device name cannot be empty")
	}
	if err := ValidateDevice(device); err != nil {
		return fmt.Errorf("device %q: %w", name, err)
	}

	if r.Devices == nil {
		r.Devices = make(map[string]*Device)
	}
	r.Devices[name] = device
	return nil
}

// RemoveDevice deletes a box. Clears the default if it pointed at that box.
func (r *Registry) RemoveDevice(name string) error {
	if _, ok := r.Devices[name]; !ok {
		return fmt.Errorf("%w: %s", ErrDeviceNotFound, name)
	}
	delete(r.Devices, name)

	if r.Preferences != nil && r.Preferences.DefaultDevice == name {
		r.Preferences.DefaultDevice = ""
	}
	return nil
}

// SetDefault makes name the box used when none is given.
func (r *Registry) SetDefault(name string) error {
	if _, ok := r.Devices[name]; !ok {
		return fmt.Errorf("%w: %s", ErrDeviceNotFound, name)
	}
	r.prefs().DefaultDevice = name
	return nil
}

// MarkConnected records a successful connection to a named box.
// Unknown names (ad-hoc addresses) are ignored.
func (r *Registry) MarkConnected(name string, at time.Time) {
	if device, ok := r.Devices[name]; ok {
		device.LastConnected = at
	}
}

func (r *Registry) prefs() *Preferences {
	if r.Preferences == nil {
		r.Preferences = defaultPreferences()
	}
	return r.Preferences
}

// ValidateDevice checks a device entry before it is stored.
func ValidateDevice(device *Device) error {
	if device == nil {
		return fmt.Errorf("device cannot be nil")
	}
	if strings.TrimSpace(device.Address) == "" {
		return fmt.Errorf("address cannot be empty")
	}
	if device.Port != 0 {
		if err := ValidatePort(device.Port); err != nil {
			return err
		}
	}
	if device.Columns < 0 {
		return fmt.Errorf("columns cannot be negative, got %d", device.Columns)
	}
	if _, err := remote.ParseKeyboardMode(device.KeyboardMode); err != nil {
		return err
	}
	if _, err := remote.ParseLayout(device.Layout); err != nil {
		return err
	}
	return nil
}

// ValidatePort checks that port is a usable TCP port.
func ValidatePort(port int) error {
	if port < 1 || port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", port)
	}
	return nil
}
