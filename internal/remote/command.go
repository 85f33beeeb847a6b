package remote

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/muurk/tivoctl/internal/logging"
)

// ErrEmptyCommand is returned by SendCommand for blank command names
var ErrEmptyCommand = errors.New("remote: empty command name")

// Command is a named action from a host controller
type Command struct {
	Name  string `json:"name"`
	Level *int   `json:"level,omitempty"`
}

// Action identifies commands that run a handler instead of sending a fixed token
type Action int

const (
	ActionNone Action = iota
	ActionShowSubtitles
	ActionFullScreen
	ActionVideoMode
)

// String returns the host-facing command name of the action
func (a Action) String() string {
	switch a {
	case ActionNone:
		return "None"
	case ActionShowSubtitles:
		return "ShowSubtitles"
	case ActionFullScreen:
		return "FullScreen"
	case ActionVideoMode:
		return "VideoMode"
	default:
		return fmt.Sprintf("Action(%d)", a)
	}
}

var actionNames = map[string]Action{
	"showsubtitles": ActionShowSubtitles,
	"fullscreen":    ActionFullScreen,
	"videomode":     ActionVideoMode,
}

type actionHandler func(*Client) (string, error)

var actionHandlers = map[Action]actionHandler{
	ActionShowSubtitles: (*Client).ClosedCaption,
	ActionFullScreen:    (*Client).AspectChange,
	ActionVideoMode:     (*Client).VideoMode,
}

// DispatchKind describes how a command name was resolved
type DispatchKind int

const (
	// DispatchButton means the name matched the button or alias table
	DispatchButton DispatchKind = iota
	// DispatchToggle means the name selected a toggle action
	DispatchToggle
	// DispatchPassthrough means the name was sent verbatim as a token
	DispatchPassthrough
)

// String returns a short name for the dispatch kind
func (k DispatchKind) String() string {
	switch k {
	case DispatchButton:
		return "button"
	case DispatchToggle:
		return "toggle"
	case DispatchPassthrough:
		return "passthrough"
	default:
		return fmt.Sprintf("DispatchKind(%d)", k)
	}
}

// MarshalText encodes the kind by name (used in bridge JSON)
func (k DispatchKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText decodes a kind written by MarshalText
func (k *DispatchKind) UnmarshalText(text []byte) error {
	switch string(text) {
	case "button":
		*k = DispatchButton
	case "toggle":
		*k = DispatchToggle
	case "passthrough":
		*k = DispatchPassthrough
	default:
		return fmt.Errorf("unknown dispatch kind %q", text)
	}
	return nil
}

// Dispatch records how a command was resolved and what was sent
type Dispatch struct {
	Name   string       `json:"name"`
	Kind   DispatchKind `json:"kind"`
	Action Action       `json:"-"`
	Tokens []string     `json:"tokens"`
	Level  *int         `json:"level,omitempty"`
}

// ParseCommandName trims a raw host command and keeps its first word.
// Anything after the first space is a parameter and is not part of the name.
func ParseCommandName(raw string) string {
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// Capitalize upper-cases the first letter and lower-cases the rest
func Capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}

// ResolveCommand decides how a command name is handled without sending anything.
//
// Resolution order: button/alias table, toggle actions, then pass-through of the
// capitalized name. For toggles Tokens is empty until the command is sent.
func ResolveCommand(raw string) Dispatch {
	name := Capitalize(ParseCommandName(raw))
	if name == "" {
		return Dispatch{Kind: DispatchPassthrough}
	}

	if token, ok := LookupButton(name); ok {
		return Dispatch{Name: name, Kind: DispatchButton, Tokens: []string{token}}
	}

	if action, ok := actionNames[strings.ToLower(name)]; ok {
		return Dispatch{Name: name, Kind: DispatchToggle, Action: action}
	}

	return Dispatch{Name: name, Kind: DispatchPassthrough, Tokens: []string{name}}
}

// SendCommand resolves a host command and sends it.
//
// Unknown names are not an error: they are sent as literal tokens and the
// returned Dispatch has Kind DispatchPassthrough. Without a live connection
// nothing is written and a NotConnected error is returned.
func (c *Client) SendCommand(cmd Command) (*Dispatch, error) {
	d := ResolveCommand(cmd.Name)
	if d.Name == "" {
		return nil, ErrEmptyCommand
	}
	d.Level = cmd.Level

	if _, err := c.liveConn(); err != nil {
		return nil, err
	}

	fields := []zap.Field{
		zap.String("remote_addr", c.Addr()),
		zap.String("command", d.Name),
		zap.Stringer("kind", d.Kind),
	}
	if cmd.Level != nil {
		fields = append(fields, zap.Int("level", *cmd.Level))
	}
	logging.Debug("Dispatching command", fields...)

	switch d.Kind {
	case DispatchToggle:
		handler, ok := actionHandlers[d.Action]
		if !ok {
			return nil, fmt.Errorf("no handler for action %s", d.Action)
		}
		token, err := handler(c)
		if err != nil {
			return nil, err
		}
		d.Tokens = []string{token}
	default:
		if err := c.SendIR(Token(d.Tokens[0])); err != nil {
			return nil, err
		}
	}

	return &d, nil
}
