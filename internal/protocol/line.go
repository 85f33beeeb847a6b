package protocol

import (
	"errors"
	"fmt"
	"io"
	"strings"
)

// DefaultPort is the TCP port TiVo boxes listen on for network remote commands
const DefaultPort = 31339

// LineTerminator ends every command line sent to the box
const LineTerminator = "\r"

// Verb is the leading keyword of a command line
type Verb string

const (
	// VerbIRCode emulates a button press on the physical remote
	VerbIRCode Verb = "IRCODE"

	// VerbKeyboard sends a key from the direct keyboard (Premiere and later)
	VerbKeyboard Verb = "KEYBOARD"
)

var (
	// ErrEmptyToken is returned when a command line would carry no token
	ErrEmptyToken = errors.New("protocol: empty token")

	// ErrInvalidToken is returned for tokens that cannot be sent on one ASCII line
	ErrInvalidToken = errors.New("protocol: invalid token")

	// ErrUnknownVerb is returned by ParseLine for lines that start with neither verb
	ErrUnknownVerb = errors.New("protocol: unknown verb")
)

// String returns the verb keyword
func (v Verb) String() string {
	return string(v)
}

// ValidateToken checks that a token can be framed as a single ASCII line
func ValidateToken(token string) error {
	if token == "" {
		return ErrEmptyToken
	}
	for i := 0; i < len(token); i++ {
		b := token[i]
		if b < 0x20 || b > 0x7e {
			return fmt.Errorf("%w: %q", ErrInvalidToken, token)
		}
	}
	return nil
}

// EncodeLine builds the wire bytes for a single command, e.g. "IRCODE PLAY\r"
func EncodeLine(verb Verb, token string) ([]byte, error) {
	if err := ValidateToken(token); err != nil {
		return nil, err
	}

	line := make([]byte, 0, len(verb)+1+len(token)+len(LineTerminator))
	line = append(line, verb...)
	line = append(line, ' ')
	line = append(line, token...)
	line = append(line, LineTerminator...)
	return line, nil
}

// WriteLine encodes a command and writes it with a single Write call
func WriteLine(w io.Writer, verb Verb, token string) error {
	line, err := EncodeLine(verb, token)
	if err != nil {
		return err
	}

	if _, err := w.Write(line); err != nil {
		return fmt.Errorf("failed to write %s line: %w", verb, err)
	}
	return nil
}

// ParseLine splits a received command line back into verb and token.
// Surrounding whitespace, including the terminator, is ignored.
func ParseLine(line string) (Verb, string, error) {
	line = strings.TrimSpace(line)

	keyword, token, found := strings.Cut(line, " ")
	if !found {
		return "", "", fmt.Errorf("%w: %q", ErrEmptyToken, line)
	}

	verb := Verb(keyword)
	switch verb {
	case VerbIRCode, VerbKeyboard:
	default:
		return "", "", fmt.Errorf("%w: %q", ErrUnknownVerb, keyword)
	}

	token = strings.TrimSpace(token)
	if err := ValidateToken(token); err != nil {
		return "", "", err
	}
	return verb, token, nil
}
