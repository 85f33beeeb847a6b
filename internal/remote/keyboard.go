package remote

import (
	"fmt"
	"strings"

	"github.com/muurk/tivoctl/internal/protocol"
)

// KeyboardMode selects how free text is entered on the box
type KeyboardMode int

const (
	// ModeArrows walks the on-screen keyboard grid with the arrow keys
	ModeArrows KeyboardMode = iota
	// ModeDirect sends letters and symbols as IRCODE tokens
	ModeDirect
	// ModeKeyboard sends KEYBOARD commands (Premiere and later)
	ModeKeyboard
)

// String returns the configuration name of the mode
func (m KeyboardMode) String() string {
	switch m {
	case ModeArrows:
		return "arrows"
	case ModeDirect:
		return "direct"
	case ModeKeyboard:
		return "keyboard"
	default:
		return fmt.Sprintf("KeyboardMode(%d)", m)
	}
}

// ParseKeyboardMode parses a configuration name; "" selects arrows
func ParseKeyboardMode(s string) (KeyboardMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "arrows":
		return ModeArrows, nil
	case "direct":
		return ModeDirect, nil
	case "keyboard":
		return ModeKeyboard, nil
	default:
		return 0, fmt.Errorf("unknown keyboard mode %q (want arrows, direct or keyboard)", s)
	}
}

// Layout selects the symbol table used by direct IRCODE entry
type Layout int

const (
	// LayoutStandard maps digits, space and unshifted punctuation
	LayoutStandard Layout = iota
	// LayoutNumeric maps digits and space only
	LayoutNumeric
)

// String returns the configuration name of the layout
func (l Layout) String() string {
	switch l {
	case LayoutStandard:
		return "standard"
	case LayoutNumeric:
		return "numeric"
	default:
		return fmt.Sprintf("Layout(%d)", l)
	}
}

// ParseLayout parses a configuration name; "" selects standard
func ParseLayout(s string) (Layout, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "standard":
		return LayoutStandard, nil
	case "numeric":
		return LayoutNumeric, nil
	default:
		return 0, fmt.Errorf("unknown keyboard layout %q (want standard or numeric)", s)
	}
}

func (l Layout) codes() map[rune]string {
	if l == LayoutNumeric {
		return numericCodes
	}
	return KeyboardCodes
}

// Keystroke is one command line: a verb and its token
type Keystroke struct {
	Verb  protocol.Verb
	Token string
}

// String returns the keystroke as it appears on the wire, without terminator
func (k Keystroke) String() string {
	return k.Verb.String() + " " + k.Token
}

func keystrokes(verb protocol.Verb, tokens []string) []Keystroke {
	keys := make([]Keystroke, len(tokens))
	for i, t := range tokens {
		keys[i] = Keystroke{Verb: verb, Token: t}
	}
	return keys
}

func ir(token string) Keystroke {
	return Keystroke{Verb: protocol.VerbIRCode, Token: token}
}

func kb(token string) Keystroke {
	return Keystroke{Verb: protocol.VerbKeyboard, Token: token}
}

func repeat(dst []Keystroke, token string, n int) []Keystroke {
	for i := 0; i < n; i++ {
		dst = append(dst, ir(token))
	}
	return dst
}

// ArrowKeys translates text into cursor moves on an A-Z on-screen keyboard
// that wraps at width columns. The cursor must start on 'A'.
//
// Rows are walked before columns. Digits become NUMn, spaces FORWARD, and any
// other character is skipped.
func ArrowKeys(text string, width int) ([]Keystroke, error) {
	if width < 1 {
		return nil, fmt.Errorf("keyboard width must be at least 1, got %d", width)
	}

	var keys []Keystroke
	row, col := 0, 0

	for _, ch := range strings.ToUpper(text) {
		switch {
		case ch >= 'A' && ch <= 'Z':
			pos := int(ch - 'A')
			targetRow, targetCol := pos/width, pos%width

			if targetRow > row {
				keys = repeat(keys, "DOWN", targetRow-row)
			} else {
				keys = repeat(keys, "UP", row-targetRow)
			}
			if targetCol > col {
				keys = repeat(keys, "RIGHT", targetCol-col)
			} else {
				keys = repeat(keys, "LEFT", col-targetCol)
			}
			keys = append(keys, ir("SELECT"))
			row, col = targetRow, targetCol

		case ch >= '0' && ch <= '9':
			keys = append(keys, ir("NUM"+string(ch)))

		case ch == ' ':
			keys = append(keys, ir("FORWARD"))
		}
	}

	return keys, nil
}

// DirectKeys translates text into IRCODE tokens: letters as themselves, other
// characters through the layout table. Unmapped characters are dropped.
func DirectKeys(text string, layout Layout) []Keystroke {
	codes := layout.codes()

	var keys []Keystroke
	for _, ch := range strings.ToUpper(text) {
		if ch >= 'A' && ch <= 'Z' {
			keys = append(keys, ir(string(ch)))
			continue
		}
		if token, ok := codes[ch]; ok {
			keys = append(keys, ir(token))
		}
	}
	return keys
}

// KeyboardKeys translates text into KEYBOARD commands. Uppercase letters and
// shifted symbols are preceded by LSHIFT. Unmapped characters are dropped.
func KeyboardKeys(text string) []Keystroke {
	var keys []Keystroke
	for _, ch := range text {
		switch {
		case ch >= 'A' && ch <= 'Z':
			keys = append(keys, kb(ShiftToken), kb(string(ch)))
		case ch >= 'a' && ch <= 'z':
			keys = append(keys, kb(strings.ToUpper(string(ch))))
		default:
			if token, ok := KeyboardCodes[ch]; ok {
				keys = append(keys, kb(token))
			} else if token, ok := ShiftedKeyboardCodes[ch]; ok {
				keys = append(keys, kb(ShiftToken), kb(token))
			}
		}
	}
	return keys
}

// TextOptions selects the text entry strategy
type TextOptions struct {
	Mode    KeyboardMode
	Columns int    // Grid width for ModeArrows; 0 falls back to ModeDirect
	Layout  Layout // Symbol table for ModeDirect
}

// TranslateText converts text to keystrokes using the selected strategy
func TranslateText(text string, opts TextOptions) ([]Keystroke, error) {
	switch opts.Mode {
	case ModeArrows:
		if opts.Columns == 0 {
			return DirectKeys(text, opts.Layout), nil
		}
		return ArrowKeys(text, opts.Columns)
	case ModeDirect:
		return DirectKeys(text, opts.Layout), nil
	case ModeKeyboard:
		return KeyboardKeys(text), nil
	default:
		return nil, fmt.Errorf("unsupported keyboard mode %s", opts.Mode)
	}
}

// SendText types text on the box using the selected strategy
func (c *Client) SendText(text string, opts TextOptions) error {
	if _, err := c.liveConn(); err != nil {
		return err
	}

	keys, err := TranslateText(text, opts)
	if err != nil {
		return err
	}
	return c.send(keys)
}
