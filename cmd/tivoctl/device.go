package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/muurk/tivoctl/internal/config"
	"github.com/muurk/tivoctl/internal/ui"
)

// device add flags
var (
	addNickname  string
	addMode      string
	addColumns   int
	addLayout    string
	addAsDefault bool
)

func init() {
	rootCmd.AddCommand(deviceCmd)
	deviceCmd.AddCommand(deviceAddCmd)
	deviceCmd.AddCommand(deviceListCmd)
	deviceCmd.AddCommand(deviceRemoveCmd)
	deviceCmd.AddCommand(deviceDefaultCmd)

	deviceAddCmd.Flags().StringVar(&addNickname, "nickname", "", "Display name (e.g. \"Living Room\")")
	deviceAddCmd.Flags().StringVar(&addMode, "mode", "", "Text entry mode: arrows, direct or keyboard")
	deviceAddCmd.Flags().IntVar(&addColumns, "cols", 0, "On-screen keyboard width for arrows mode")
	deviceAddCmd.Flags().StringVar(&addLayout, "layout", "", "Symbol table for direct mode: standard or numeric")
	deviceAddCmd.Flags().BoolVar(&addAsDefault, "default", false, "Make this the default device")
}

var deviceCmd = &cobra.Command{
	Use:   "device",
	Short: "Manage named boxes",
	Long: `Manage the boxes stored in the config file.

Named boxes carry their address, port and text entry settings, and can be
selected with --device <name>. The default box is used when --device is
not given.`,
}

var deviceAddCmd = &cobra.Command{
	Use:   "add <name> <address[:port]>",
	Short: "Add or replace a named box",
	Example: `  tivoctl device add living-room 192.168.1.20 --nickname "Living Room" --default
  tivoctl device add bedroom bedroom-tivo.lan:31339 --mode keyboard`,
	Args: cobra.ExactArgs(2),
	RunE: runDeviceAdd,
}

func runDeviceAdd(cmd *cobra.Command, args []string) error {
	reg, err := loadRegistry()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	host, port, err := config.SplitAddress(args[1])
	if err != nil {
		return err
	}

	name := args[0]
	device := &config.Device{
		Address:      host,
		Port:         port,
		Nickname:     addNickname,
		KeyboardMode: addMode,
		Columns:      addColumns,
		Layout:       addLayout,
	}
	if existing := reg.GetDevice(name); existing != nil {
		device.LastConnected = existing.LastConnected
	}

	if err := reg.SetDevice(name, device); err != nil {
		return err
	}
	if addAsDefault || len(reg.Devices) == 1 {
		if err := reg.SetDefault(name); err != nil {
			return err
		}
	}
	if err := reg.Save(); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	details := []ui.Detail{{Key: "Address", Value: host}}
	if port != 0 {
		details = append(details, ui.Detail{Key: "Port", Value: strconv.Itoa(port)})
	}
	if reg.Preferences.DefaultDevice == name {
		details = append(details, ui.Detail{Key: "Default", Value: "yes"})
	}
	fmt.Println(ui.RenderSuccess("Saved "+name, details...))
	return nil
}

var deviceListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List named boxes",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := loadRegistry()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		fmt.Println(ui.RenderDeviceTable(deviceRows(reg)))
		return nil
	},
}

// deviceRows builds the device table in name order
func deviceRows(reg *config.Registry) []ui.DeviceRow {
	names := reg.Names()
	rows := make([]ui.DeviceRow, 0, len(names))
	for _, name := range names {
		d := reg.GetDevice(name)
		target, err := reg.Resolve(name)
		addr := d.Address
		if err == nil {
			addr = target.Addr()
		}
		rows = append(rows, ui.DeviceRow{
			Name:          name,
			Address:       addr,
			Nickname:      d.Nickname,
			Default:       reg.Preferences != nil && reg.Preferences.DefaultDevice == name,
			LastConnected: d.LastConnected,
		})
	}
	return rows
}

var deviceRemoveCmd = &cobra.Command{
	Use:     "remove <name>",
	Aliases: []string{"rm"},
	Short:   "Remove a named box",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := loadRegistry()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if err := reg.RemoveDevice(args[0]); err != nil {
			return fail("Remove failed", err)
		}
		if err := reg.Save(); err != nil {
			return fmt.Errorf("failed to save config: %w", err)
		}
		fmt.Println(ui.RenderSuccess("Removed " + args[0]))
		return nil
	},
}

var deviceDefaultCmd = &cobra.Command{
	Use:   "default <name>",
	Short: "Set the default box",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := loadRegistry()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if err := reg.SetDefault(args[0]); err != nil {
			return fail("Unknown device", err)
		}
		if err := reg.Save(); err != nil {
			return fmt.Errorf("failed to save config: %w", err)
		}
		fmt.Println(ui.RenderSuccess("Default device set", ui.Detail{Key: "Device", Value: args[0]}))
		return nil
	},
}
