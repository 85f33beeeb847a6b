package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

const (
	// HeaderSize is the size of the big-endian length prefix
	HeaderSize = 4

	// MaxPacketSize bounds the declared payload length accepted by ReadPacket
	MaxPacketSize = 1 << 20
)

var (
	// ErrShortHeader is returned when the peer closes inside a length header
	ErrShortHeader = errors.New("protocol: truncated length header")

	// ErrPacketTooLarge is returned for lengths above MaxPacketSize
	ErrPacketTooLarge = errors.New("protocol: packet length exceeds limit")
)

// Packet is a length-prefixed message read from the box
type Packet struct {
	Length  uint32 // Length declared in the header
	Payload []byte // Bytes actually received (may be short)
}

// Complete reports whether the whole declared payload arrived
func (p *Packet) Complete() bool {
	return uint32(len(p.Payload)) == p.Length
}

// String returns a debug representation of the packet
func (p *Packet) String() string {
	return fmt.Sprintf("Packet{Length=%d, Received=%d}", p.Length, len(p.Payload))
}

// ReadBytes reads up to n bytes, looping until n bytes have arrived or the
// peer closes. An early close returns the short block with a nil error.
func ReadBytes(r io.Reader, n int) ([]byte, error) {
	if n <= 0 {
		return []byte{}, nil
	}

	block := make([]byte, n)
	got, err := io.ReadFull(r, block)
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return block[:got], nil
	}
	return block[:got], err
}

// ReadPacket reads one length-prefixed packet.
//
// Returns io.EOF when the peer closed cleanly before a new header started,
// ErrShortHeader when it closed inside the header, and ErrPacketTooLarge for an
// implausible length. A truncated payload is not an error.
func ReadPacket(r io.Reader) (*Packet, error) {
	header, err := ReadBytes(r, HeaderSize)
	if err != nil {
		return nil, fmt.Errorf("failed to read packet header: %w", err)
	}

	switch {
	case len(header) == 0:
		return nil, io.EOF
	case len(header) < HeaderSize:
		return nil, fmt.Errorf("%w: got %d of %d bytes", ErrShortHeader, len(header), HeaderSize)
	}

	length := binary.BigEndian.Uint32(header)
	if length > MaxPacketSize {
		return nil, fmt.Errorf("%w: %d bytes (max %d)", ErrPacketTooLarge, length, MaxPacketSize)
	}

	payload, err := ReadBytes(r, int(length))
	if err != nil {
		return nil, fmt.Errorf("failed to read packet payload: %w", err)
	}

	return &Packet{Length: length, Payload: payload}, nil
}

// EncodePacket prefixes payload with its big-endian length
func EncodePacket(payload []byte) ([]byte, error) {
	if len(payload) > MaxPacketSize {
		return nil, fmt.Errorf("%w: %d bytes (max %d)", ErrPacketTooLarge, len(payload), MaxPacketSize)
	}

	buf := make([]byte, HeaderSize+len(payload))
	binary.BigEndian.PutUint32(buf[:HeaderSize], uint32(len(payload)))
	copy(buf[HeaderSize:], payload)
	return buf, nil
}

// WritePacket writes a length-prefixed packet with a single Write call
func WritePacket(w io.Writer, payload []byte) error {
	buf, err := EncodePacket(payload)
	if err != nil {
		return err
	}

	if _, err := w.Write(buf); err != nil {
		return fmt.Errorf("failed to write packet: %w", err)
	}
	return nil
}
