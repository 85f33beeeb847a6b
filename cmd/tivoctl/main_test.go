package main

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/spf13/cobra"

	"github.com/muurk/tivoctl/internal/config"
	"github.com/muurk/tivoctl/internal/remote"
)

func TestTroubleshoot(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantTip bool
	}{
		{"timeout", remote.NewTimeoutError("box:31339", "connect timed out", nil), true},
		{"refused", remote.NewConnectionError("box:31339", "connect failed", errors.New("refused")), true},
		{"protocol", remote.NewProtocolError("box:31339", "bad token", nil), true},
		{"no device", fmt.Errorf("%w (hint)", config.ErrNoDevice), true},
		{"not found", fmt.Errorf("%w: x", config.ErrDeviceNotFound), true},
		{"other", errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tips := troubleshoot(tt.err)
			if got := len(tips) > 0; got != tt.wantTip {
				t.Errorf("troubleshoot() = %v, want tips: %v", tips, tt.wantTip)
			}
		})
	}
}

func TestFailMarksReported(t *testing.T) {
	cause := remote.NewNotConnectedError("box:31339")
	err := fail("Command failed", cause)

	var reported *reportedError
	if !errors.As(err, &reported) {
		t.Fatalf("fail() = %T, want *reportedError", err)
	}
	if !remote.IsNotConnected(err) {
		t.Error("reported error should unwrap to the cause")
	}
}

func TestToggleAction(t *testing.T) {
	for _, name := range []string{"cc", "CC", "captions", "aspect", "fullscreen", "video", "VideoMode"} {
		if _, err := toggleAction(name); err != nil {
			t.Errorf("toggleAction(%q) error = %v", name, err)
		}
	}
	if _, err := toggleAction("volume"); err == nil {
		t.Error("toggleAction(volume) should fail")
	}
}

func newTextFlagsCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "text"}
	cmd.Flags().StringVar(&textMode, "mode", "", "")
	cmd.Flags().IntVar(&textColumns, "cols", -1, "")
	cmd.Flags().StringVar(&textLayout, "layout", "", "")
	return cmd
}

func TestApplyTextFlags(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		start   remote.TextOptions
		want    remote.TextOptions
		wantErr bool
	}{
		{
			name:  "no flags keeps device settings",
			start: remote.TextOptions{Mode: remote.ModeArrows, Columns: 6},
			want:  remote.TextOptions{Mode: remote.ModeArrows, Columns: 6},
		},
		{
			name:  "mode and cols override",
			args:  []string{"--mode", "keyboard", "--cols", "0"},
			start: remote.TextOptions{Mode: remote.ModeArrows, Columns: 6},
			want:  remote.TextOptions{Mode: remote.ModeKeyboard, Columns: 0},
		},
		{
			name: "layout",
			args: []string{"--layout", "numeric"},
			want: remote.TextOptions{Layout: remote.LayoutNumeric},
		},
		{name: "bad mode", args: []string{"--mode", "morse"}, wantErr: true},
		{name: "negative cols", args: []string{"--cols=-2"}, wantErr: true},
		{name: "bad layout", args: []string{"--layout", "qwerty"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := newTextFlagsCmd()
			if err := cmd.ParseFlags(tt.args); err != nil {
				t.Fatalf("ParseFlags() error = %v", err)
			}

			opts := tt.start
			err := applyTextFlags(cmd, &opts)
			if (err != nil) != tt.wantErr {
				t.Fatalf("applyTextFlags() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && opts != tt.want {
				t.Errorf("applyTextFlags() = %+v, want %+v", opts, tt.want)
			}
		})
	}
}

func TestDeviceRows(t *testing.T) {
	reg := config.NewRegistry()
	seen := time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC)
	if err := reg.SetDevice("lounge", &config.Device{Address: "192.168.1.20", Nickname: "Lounge", LastConnected: seen}); err != nil {
		t.Fatal(err)
	}
	if err := reg.SetDevice("bedroom", &config.Device{Address: "192.168.1.21", Port: 4000}); err != nil {
		t.Fatal(err)
	}
	if err := reg.SetDefault("lounge"); err != nil {
		t.Fatal(err)
	}

	rows := deviceRows(reg)
	if len(rows) != 2 {
		t.Fatalf("deviceRows() returned %d rows, want 2", len(rows))
	}
	if rows[0].Name != "bedroom" || rows[0].Address != "192.168.1.21:4000" || rows[0].Default {
		t.Errorf("rows[0] = %+v", rows[0])
	}
	if rows[1].Name != "lounge" || rows[1].Address != "192.168.1.20:31339" || !rows[1].Default {
		t.Errorf("rows[1] = %+v", rows[1])
	}
	if !rows[1].LastConnected.Equal(seen) {
		t.Errorf("rows[1].LastConnected = %v, want %v", rows[1].LastConnected, seen)
	}
}

func TestStatusLabel(t *testing.T) {
	if got := statusLabel(false, remote.StatusText); got != "off" {
		t.Errorf("statusLabel(false) = %q, want off", got)
	}
	if got := statusLabel(true, remote.StatusPacket); got != remote.StatusPacket.String() {
		t.Errorf("statusLabel(true, packet) = %q", got)
	}
}
