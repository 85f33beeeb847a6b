package ui

import (
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// maxPayloadPreview caps the hex shown for one packet
const maxPayloadPreview = 32

// RenderStatusText renders one text status line: "15:04:05  Live Tv"
func RenderStatusText(at time.Time, text string) string {
	return StatusTimeStyle.Render(at.Format("15:04:05")) + "  " + StatusTextStyle.Render(text)
}

// RenderStatusPacket renders one packet status line with a hex preview.
// Short packets are flagged.
func RenderStatusPacket(at time.Time, payload []byte, complete bool) string {
	preview := payload
	suffix := ""
	if len(preview) > maxPayloadPreview {
		preview = preview[:maxPayloadPreview]
		suffix = "…"
	}

	line := fmt.Sprintf("%d bytes  %s%s", len(payload), hex.EncodeToString(preview), suffix)
	rendered := StatusTimeStyle.Render(at.Format("15:04:05")) + "  " + ResultValueStyle.Render(line)
	if !complete {
		rendered += "  " + lipgloss.NewStyle().Foreground(WarningColor).Render("(short)")
	}
	return rendered
}

// DeviceRow is one line of the device list
type DeviceRow struct {
	Name          string
	Address       string
	Nickname      string
	Default       bool
	LastConnected time.Time
}

// RenderDeviceTable renders the configured boxes as aligned columns.
// The default box is marked with '*'.
func RenderDeviceTable(rows []DeviceRow) string {
	if len(rows) == 0 {
		return StatusTimeStyle.Render("No devices configured. Add one with: tivoctl device add <name> <address>")
	}

	nameWidth, addrWidth := len("NAME"), len("ADDRESS")
	for _, r := range rows {
		nameWidth = max(nameWidth, len(r.Name))
		addrWidth = max(addrWidth, len(r.Address))
	}

	header := fmt.Sprintf("  %-*s  %-*s  %-20s  %s", nameWidth, "NAME", addrWidth, "ADDRESS", "NICKNAME", "LAST CONNECTED")
	lines := []string{HeaderParamKeyStyle.UnsetPaddingLeft().Render(header)}

	for _, r := range rows {
		marker := " "
		if r.Default {
			marker = "*"
		}
		last := "never"
		if !r.LastConnected.IsZero() {
			last = r.LastConnected.Local().Format("2006-01-02 15:04")
		}
		lines = append(lines, fmt.Sprintf("%s %-*s  %-*s  %-20s  %s",
			marker, nameWidth, r.Name, addrWidth, r.Address, r.Nickname, last))
	}
	return strings.Join(lines, "\n")
}
