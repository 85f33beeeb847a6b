package protocol

import (
	"bytes"
	"errors"
	"testing"
)

func TestEncodeLine(t *testing.T) {
	tests := []struct {
		name    string
		verb    Verb
		token   string
		want    string
		wantErr error
	}{
		{
			name:  "ircode button",
			verb:  VerbIRCode,
			token: "CHANNELUP",
			want:  "IRCODE CHANNELUP\r",
		},
		{
			name:  "keyboard key",
			verb:  VerbKeyboard,
			token: "LSHIFT",
			want:  "KEYBOARD LSHIFT\r",
		},
		{
			name:  "mixed case passthrough token",
			verb:  VerbIRCode,
			token: "Xyz",
			want:  "IRCODE Xyz\r",
		},
		{
			name:    "empty token",
			verb:    VerbIRCode,
			token:   "",
			wantErr: ErrEmptyToken,
		},
		{
			name:    "embedded terminator",
			verb:    VerbIRCode,
			token:   "PLAY\rIRCODE PAUSE",
			wantErr: ErrInvalidToken,
		},
		{
			name:    "non-ascii token",
			verb:    VerbIRCode,
			token:   "PLÄY",
			wantErr: ErrInvalidToken,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := EncodeLine(tt.verb, tt.token)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("EncodeLine() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("EncodeLine() unexpected error: %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("EncodeLine() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWriteLine(t *testing.T) {
	var buf bytes.Buffer

	if err := WriteLine(&buf, VerbIRCode, "UP"); err != nil {
		t.Fatalf("WriteLine() error = %v", err)
	}
	if err := WriteLine(&buf, VerbIRCode, "DOWN"); err != nil {
		t.Fatalf("WriteLine() error = %v", err)
	}

	want := "IRCODE UP\rIRCODE DOWN\r"
	if buf.String() != want {
		t.Errorf("buffer = %q, want %q", buf.String(), want)
	}
}

func TestWriteLine_InvalidTokenWritesNothing(t *testing.T) {
	var buf bytes.Buffer

	if err := WriteLine(&buf, VerbKeyboard, ""); err == nil {
		t.Fatal("WriteLine() should fail for empty token")
	}
	if buf.Len() != 0 {
		t.Errorf("buffer length = %d, want 0", buf.Len())
	}
}

func TestParseLine(t *testing.T) {
	tests := []struct {
		name      string
		line      string
		wantVerb  Verb
		wantToken string
		wantErr   bool
	}{
		{name: "ircode", line: "IRCODE PAUSE\r", wantVerb: VerbIRCode, wantToken: "PAUSE"},
		{name: "keyboard", line: "KEYBOARD NUM1\r", wantVerb: VerbKeyboard, wantToken: "NUM1"},
		{name: "surrounding whitespace", line: "  IRCODE  SELECT \r\n", wantVerb: VerbIRCode, wantToken: "SELECT"},
		{name: "unknown verb", line: "TELEPORT HOME\r", wantErr: true},
		{name: "missing token", line: "IRCODE\r", wantErr: true},
		{name: "empty", line: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verb, token, err := ParseLine(tt.line)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLine() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if verb != tt.wantVerb {
				t.Errorf("verb = %s, want %s", verb, tt.wantVerb)
			}
			if token != tt.wantToken {
				t.Errorf("token = %s, want %s", token, tt.wantToken)
			}
		})
	}
}
