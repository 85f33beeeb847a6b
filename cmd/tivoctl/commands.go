package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/muurk/tivoctl/internal/bridge"
	"github.com/muurk/tivoctl/internal/remote"
	"github.com/muurk/tivoctl/internal/ui"
)

// Command flags
var (
	sendLevel       int
	textMode        string
	textColumns     int
	textLayout      string
	textDryRun      bool
	toggleTimes     int
	statusPacket    bool
	statusFor       time.Duration
	bridgeListen    string
	bridgeNoRead    bool
	bridgePacket    bool
	bridgeHeartbeat time.Duration
)

func init() {
	rootCmd.AddCommand(sendCmd)
	rootCmd.AddCommand(irCmd)
	rootCmd.AddCommand(kbCmd)
	rootCmd.AddCommand(textCmd)
	rootCmd.AddCommand(toggleCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(bridgeCmd)

	sendCmd.Flags().IntVar(&sendLevel, "level", -1, "Optional level value passed with the command (logged and echoed)")

	textCmd.Flags().StringVar(&textMode, "mode", "", "Entry mode: arrows, direct or keyboard (default from device config)")
	textCmd.Flags().IntVar(&textColumns, "cols", -1, "On-screen keyboard width for arrows mode (0 selects direct entry)")
	textCmd.Flags().StringVar(&textLayout, "layout", "", "Symbol table for direct mode: standard or numeric")
	textCmd.Flags().BoolVar(&textDryRun, "dry-run", false, "Print the keystrokes instead of sending them")

	toggleCmd.Flags().IntVarP(&toggleTimes, "times", "n", 1, "Number of presses")

	statusCmd.Flags().BoolVar(&statusPacket, "packet", false, "Read length-prefixed packets instead of text")
	statusCmd.Flags().DurationVar(&statusFor, "for", 0, "Stop after this long (default: until interrupted or the box disconnects)")

	bridgeCmd.Flags().StringVar(&bridgeListen, "listen", bridge.DefaultListen, "HTTP listen address")
	bridgeCmd.Flags().BoolVar(&bridgeNoRead, "no-status", false, "Do not read status messages from the box")
	bridgeCmd.Flags().BoolVar(&bridgePacket, "packet", false, "Read status as length-prefixed packets")
	bridgeCmd.Flags().DurationVar(&bridgeHeartbeat, "heartbeat", bridge.DefaultHeartbeat, "Reconnect check interval")
}

var sendCmd = &cobra.Command{
	Use:   "send <command> [params...]",
	Short: "Send a named remote command",
	Long: `Send a command by name, the way a home-automation controller does.

The name is matched case-insensitively against the remote's buttons (Play,
Pause, ChannelUp, Guide, Num5, ...) and the media-center aliases Home,
FastForward, Rewind, BigStepForward and BigStepBack. ShowSubtitles, FullScreen
and VideoMode step the closed caption, aspect ratio and video mode toggles.
Any other name is sent to the box as a literal IRCODE token.

Only the first word is the command; anything after it is ignored.`,
	Example: `  tivoctl send Play
  tivoctl send fastforward --device living-room
  tivoctl send ShowSubtitles
  tivoctl send ChannelUp --level 30`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSend,
}

func runSend(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext()
	defer stop()

	s, err := openSession(ctx)
	if err != nil {
		return fail("Connection failed", err)
	}
	defer s.Close()

	command := remote.Command{Name: strings.Join(args, " ")}
	if cmd.Flags().Changed("level") {
		level := sendLevel
		command.Level = &level
	}

	d, err := s.client.SendCommand(command)
	if err != nil {
		return fail("Command failed", err)
	}

	details := []ui.Detail{
		{Key: "Box", Value: s.name()},
		{Key: "Resolved as", Value: d.Kind.String()},
		{Key: "Sent", Value: strings.Join(d.Tokens, " ")},
	}
	if d.Level != nil {
		details = append(details, ui.Detail{Key: "Level", Value: strconv.Itoa(*d.Level)})
	}

	if d.Kind == remote.DispatchPassthrough {
		fmt.Println(ui.NewWarningResult(d.Name+" is not a known button; sent as a literal token", details...).Render())
		return nil
	}
	fmt.Println(ui.RenderSuccess(d.Name, details...))
	return nil
}

var irCmd = &cobra.Command{
	Use:   "ir <token> [token...]",
	Short: "Send raw IRCODE tokens",
	Long: `Send one IRCODE line per token, in order. Tokens are upper-cased.

Use this for codes without a named command, e.g. the direct aspect or video
mode codes.`,
	Example: `  tivoctl ir NUM1 NUM2 NUM3 ENTER
  tivoctl ir ASPECT_CORRECTION_FULL`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRaw(args, (*remote.Client).SendIR)
	},
}

var kbCmd = &cobra.Command{
	Use:   "kb <token> [token...]",
	Short: "Send raw KEYBOARD tokens (Premiere and later)",
	Example: `  tivoctl kb LSHIFT H I`,
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRaw(args, (*remote.Client).SendKeyboard)
	},
}

func runRaw(args []string, send func(*remote.Client, ...remote.Arg) error) error {
	ctx, stop := signalContext()
	defer stop()

	s, err := openSession(ctx)
	if err != nil {
		return fail("Connection failed", err)
	}
	defer s.Close()

	tokens := make([]string, len(args))
	for i, a := range args {
		tokens[i] = strings.ToUpper(a)
	}

	if err := send(s.client, remote.Tokens(tokens...)); err != nil {
		return fail("Send failed", err)
	}
	fmt.Println(ui.RenderSuccess("Sent", ui.Detail{Key: "Box", Value: s.name()}, ui.Detail{Key: "Tokens", Value: strings.Join(tokens, " ")}))
	return nil
}

var textCmd = &cobra.Command{
	Use:   "text <text...>",
	Short: "Type text on the box",
	Long: `Type text into an on-screen search or entry field.

Modes:
  arrows    walk an A-Z grid with the arrow keys (set --cols to the grid width;
            the cursor must start on 'A')
  direct    send letters, digits and symbols as IRCODE tokens
  keyboard  send KEYBOARD commands, with LSHIFT for capitals (Premiere and later)

Mode, width and layout default to the device's config entry.`,
	Example: `  tivoctl text --mode arrows --cols 6 "the wire"
  tivoctl text --mode keyboard "Doctor Who"
  tivoctl text --dry-run --mode arrows --cols 5 F`,
	Args: cobra.MinimumNArgs(1),
	RunE: runText,
}

func runText(cmd *cobra.Command, args []string) error {
	text := strings.Join(args, " ")

	reg, err := loadRegistry()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	var opts remote.TextOptions
	if deviceArg != "" || reg.Preferences.DefaultDevice != "" {
		target, err := resolveTarget(reg)
		if err != nil {
			return fail("Unknown device", err)
		}
		opts = target.Text
	}
	if err := applyTextFlags(cmd, &opts); err != nil {
		return err
	}

	if textDryRun {
		keys, err := remote.TranslateText(text, opts)
		if err != nil {
			return err
		}
		for _, k := range keys {
			fmt.Println(k)
		}
		return nil
	}

	ctx, stop := signalContext()
	defer stop()

	s, err := openSession(ctx)
	if err != nil {
		return fail("Connection failed", err)
	}
	defer s.Close()

	if err := s.client.SendText(text, opts); err != nil {
		return fail("Text entry failed", err)
	}
	fmt.Println(ui.RenderSuccess("Text sent",
		ui.Detail{Key: "Box", Value: s.name()},
		ui.Detail{Key: "Mode", Value: opts.Mode.String()},
		ui.Detail{Key: "Text", Value: text},
	))
	return nil
}

// applyTextFlags overrides device text settings with explicit flags
func applyTextFlags(cmd *cobra.Command, opts *remote.TextOptions) error {
	if cmd.Flags().Changed("mode") {
		mode, err := remote.ParseKeyboardMode(textMode)
		if err != nil {
			return err
		}
		opts.Mode = mode
	}
	if cmd.Flags().Changed("cols") {
		if textColumns < 0 {
			return fmt.Errorf("--cols cannot be negative")
		}
		opts.Columns = textColumns
	}
	if cmd.Flags().Changed("layout") {
		layout, err := remote.ParseLayout(textLayout)
		if err != nil {
			return err
		}
		opts.Layout = layout
	}
	return nil
}

var toggleCmd = &cobra.Command{
	Use:   "toggle <cc|aspect|video>",
	Short: "Step a toggle: closed captions, aspect ratio or video mode",
	Long: `Step one of the toggles and print the code sent.

The box is never asked for its current mode, so each run starts from the
first state: cc sends CC_ON, aspect sends ASPECT_CORRECTION_ZOOM, video sends
VIDEO_MODE_FIXED_480i. Use --times to step further in one connection.`,
	Example: `  tivoctl toggle cc
  tivoctl toggle aspect --times 2`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"cc", "aspect", "video"},
	RunE:      runToggle,
}

// toggleAction maps the toggle argument to the matching client action
func toggleAction(name string) (func(*remote.Client) (string, error), error) {
	switch strings.ToLower(name) {
	case "cc", "captions", "subtitles":
		return (*remote.Client).ClosedCaption, nil
	case "aspect", "fullscreen":
		return (*remote.Client).AspectChange, nil
	case "video", "videomode":
		return (*remote.Client).VideoMode, nil
	default:
		return nil, fmt.Errorf("unknown toggle %q (want cc, aspect or video)", name)
	}
}

func runToggle(cmd *cobra.Command, args []string) error {
	press, err := toggleAction(args[0])
	if err != nil {
		return err
	}
	if toggleTimes < 1 {
		return fmt.Errorf("--times must be at least 1")
	}

	ctx, stop := signalContext()
	defer stop()

	s, err := openSession(ctx)
	if err != nil {
		return fail("Connection failed", err)
	}
	defer s.Close()

	sent := make([]string, 0, toggleTimes)
	for i := 0; i < toggleTimes; i++ {
		token, err := press(s.client)
		if err != nil {
			return fail("Toggle failed", err)
		}
		sent = append(sent, token)
	}

	fmt.Println(ui.RenderSuccess("Toggled "+args[0],
		ui.Detail{Key: "Box", Value: s.name()},
		ui.Detail{Key: "Sent", Value: strings.Join(sent, " ")},
	))
	return nil
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Stream status messages from the box",
	Long: `Connect and print every status message the box sends until interrupted,
the box closes the connection, or --for elapses.

Text mode prints each message title-cased (e.g. "Ch_Status 0612 Local").
--packet reads length-prefixed packets and prints a hex preview.`,
	Example: `  tivoctl status
  tivoctl status --packet --for 30s`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext()
	defer stop()
	if statusFor > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, statusFor)
		defer cancel()
	}

	s, err := openSession(ctx)
	if err != nil {
		return fail("Connection failed", err)
	}
	defer s.Close()

	mode := remote.StatusText
	if statusPacket {
		mode = remote.StatusPacket
	}

	s.client.OnStatus(func(st remote.Status) {
		if st.Mode == remote.StatusPacket {
			fmt.Println(ui.RenderStatusPacket(st.ReceivedAt, st.Payload, st.Complete))
			return
		}
		fmt.Println(ui.RenderStatusText(st.ReceivedAt, st.Text))
	})

	reader := s.client.NewStatusReader(mode)
	if err := reader.Start(ctx); err != nil {
		return fail("Status failed", err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Reading %s status from %s (Ctrl-C to stop)\n", mode, s.name())
	if ui.IsTerminal() {
		fmt.Println(ui.RenderHorizontalDivider(ui.GetTerminalWidth(), "─"))
	}

	if err := reader.Wait(); err != nil {
		return fail("Status stream ended", err)
	}
	if ctx.Err() == nil {
		fmt.Fprintln(cmd.ErrOrStderr(), "Box closed the connection")
	}
	return nil
}

var bridgeCmd = &cobra.Command{
	Use:   "bridge",
	Short: "Run the home-automation bridge",
	Long: `Serve an HTTP/WebSocket bridge to the box for home-automation controllers.

Endpoints:
  GET  /healthz   connection state (503 while the box is unreachable)
  POST /command   {"name": "ChannelUp", "level": 10}
  GET  /ws        WebSocket: JSON commands in, results and status events out
  GET  /metrics   Prometheus metrics

The bridge reconnects to the box on every heartbeat while it is unreachable.`,
	Example: `  tivoctl bridge --device living-room
  tivoctl bridge --device 192.168.1.20 --listen :8765
  curl -X POST localhost:8765/command -d '{"name":"Pause"}'`,
	Args: cobra.NoArgs,
	RunE: runBridge,
}

func runBridge(cmd *cobra.Command, args []string) error {
	reg, err := loadRegistry()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	target, err := resolveTarget(reg)
	if err != nil {
		return fail("Unknown device", err)
	}

	mode := remote.StatusText
	if bridgePacket {
		mode = remote.StatusPacket
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	client := target.NewClient()
	defer client.Disconnect()

	b := bridge.New(client, bridge.Options{
		Listen:     bridgeListen,
		Heartbeat:  bridgeHeartbeat,
		ReadStatus: !bridgeNoRead,
		StatusMode: mode,
		Registry:   registry,
	})

	fmt.Println(ui.NewHeader("tivoctl bridge", "Home automation bridge",
		ui.Detail{Key: "Box", Value: target.DisplayName(reg) + " (" + target.Addr() + ")"},
		ui.Detail{Key: "Listen", Value: bridgeListen},
		ui.Detail{Key: "Status", Value: statusLabel(!bridgeNoRead, mode)},
	).Render())

	ctx, stop := signalContext()
	defer stop()
	return b.Run(ctx)
}

func statusLabel(enabled bool, mode remote.StatusMode) string {
	if !enabled {
		return "off"
	}
	return mode.String()
}
