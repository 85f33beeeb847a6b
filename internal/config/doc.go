// Package config manages the tivoctl configuration file.
//
// The file is YAML and records named TiVo boxes (address, port and the
// on-screen keyboard settings used for text entry) together with client
// preferences such as the default port, the connect timeout and the default
// box.
//
// # Configuration File Location
//
// The configuration file is stored in platform-appropriate locations:
//   - Linux: $XDG_CONFIG_HOME/tivoctl/config.yaml or $HOME/.config/tivoctl/config.yaml
//   - macOS: $HOME/.config/tivoctl/config.yaml
//   - Windows: %LOCALAPPDATA%\tivoctl\config.yaml
//
// TIVOCTL_CONFIG overrides the location.
//
// # Usage Example
//
//	registry, err := config.LoadRegistry()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	err = registry.SetDevice("living-room", &config.Device{
//	    Address:      "192.168.1.20",
//	    KeyboardMode: "arrows",
//	    Columns:      6,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	target, err := registry.Resolve("living-room")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	client := target.NewClient()
//
//	// Save changes atomically
//	if err := registry.Save(); err != nil {
//	    log.Fatal(err)
//	}
//
// # Thread Safety
//
// The global registry uses sync.Once for safe initialization across goroutines.
// File operations are protected by a mutex to ensure atomic writes.
package config
