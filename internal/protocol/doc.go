// Package protocol implements the TiVo network remote wire format.
//
// TiVo boxes accept remote-control commands as plain ASCII lines on TCP port
// 31339. This package handles encoding of those lines, the length-prefixed
// packet framing used by the status read path, and normalization of the
// free-form text the box reports back.
//
// # Command Lines
//
// Every outbound command is a single line terminated by a carriage return:
//
//	IRCODE CHANNELUP\r
//	KEYBOARD LSHIFT\r
//
// IRCODE lines emulate a button on the physical remote. KEYBOARD lines are
// direct character input and are only understood by newer hardware.
//
// # Packet Framing
//
// The binary status path frames each message with a 4-byte big-endian length:
//
//	[0-3]  length   Payload length (big-endian uint32)
//	[4+]   payload  Exactly length bytes
//
// A payload cut short by the peer closing the connection is returned as-is.
// Callers compare Packet.Length against len(Packet.Payload) when they care.
//
// # Status Text
//
// In text mode the box sends arbitrary chunks with no guaranteed terminator,
// e.g. "CH_STATUS 0612 LOCAL\r". NormalizeStatus trims and title-cases a chunk
// before it is handed to observers.
//
// # Usage Example
//
//	if err := protocol.WriteLine(conn, protocol.VerbIRCode, "PAUSE"); err != nil {
//	    return err
//	}
//
//	pkt, err := protocol.ReadPacket(conn)
//	if err != nil {
//	    return err
//	}
//	if !pkt.Complete() {
//	    log.Printf("short packet: %d of %d bytes", len(pkt.Payload), pkt.Length)
//	}
//
// # Thread Safety
//
// All functions are stateless and safe for concurrent use. Writing to or reading
// from a shared connection still requires the caller to keep to one writer and
// one reader at a time.
package protocol
