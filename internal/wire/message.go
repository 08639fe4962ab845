// Package wire implements the SerialIO frame layout: start sequence,
// length, id, type, payload. It knows nothing about transports, timing,
// or correlation — only how to lay out and read back one frame.
package wire

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/go-serialio/serialio/internal/constants"
)

// Type is the one-byte message kind tag.
//
// Earlier iterations of this protocol modeled Read/Write/Execute/Status
// messages as distinct subclasses; the wire format never needed that —
// a single tagged Message is enough, and payload interpretation is a
// caller concern.
type Type uint8

const (
	TypeRequest Type = 0x00
	TypePing    Type = 0x01
	TypeReply   Type = 0xFE
	TypeError   Type = 0xFF
)

func (t Type) String() string {
	switch t {
	case TypeRequest:
		return "REQUEST"
	case TypePing:
		return "PING"
	case TypeReply:
		return "REPLY"
	case TypeError:
		return "ERROR"
	default:
		return fmt.Sprintf("UNKNOWN(0x%02x)", uint8(t))
	}
}

// startSeqBytes is constants.StartSequence in big-endian byte form.
var startSeqBytes = func() [constants.StartSequenceLen]byte {
	var b [constants.StartSequenceLen]byte
	binary.BigEndian.PutUint32(b[:], constants.StartSequence)
	return b
}()

// StartSequenceBytes returns the 4-byte START_SEQUENCE marker.
func StartSequenceBytes() []byte { return startSeqBytes[:] }

// Message is an immutable view over a framed buffer. Once constructed it
// owns that buffer for the lifetime of downstream handling: callers that
// need to retain payload bytes past the handler call must copy them.
type Message struct {
	buf []byte
}

// New allocates a fresh frame around payload and returns a Message view
// over it.
func New(payload []byte, typ Type, id uint16) Message {
	buf := make([]byte, constants.HeaderSize+len(payload))
	binary.BigEndian.PutUint32(buf[0:4], constants.StartSequence)
	binary.BigEndian.PutUint32(buf[4:8], uint32(len(payload)))
	binary.BigEndian.PutUint16(buf[8:10], id)
	buf[10] = byte(typ)
	copy(buf[constants.HeaderSize:], payload)
	return Message{buf: buf}
}

// View wraps an already-framed, already-validated buffer of exactly
// HeaderSize+LENGTH bytes. Callers inside this module are expected to
// have sliced buf to the right size themselves; View does not copy.
func View(buf []byte) Message { return Message{buf: buf} }

// IsZero reports whether m is the zero Message (no underlying buffer).
func (m Message) IsZero() bool { return m.buf == nil }

// ID returns the transaction id header field.
func (m Message) ID() uint16 { return binary.BigEndian.Uint16(m.buf[8:10]) }

// Type returns the TYPE header field.
func (m Message) Type() Type { return Type(m.buf[10]) }

// Length returns the LENGTH header field (== len(m.Payload())).
func (m Message) Length() uint32 { return binary.BigEndian.Uint32(m.buf[4:8]) }

// Payload returns the message's payload bytes. The returned slice aliases
// the Message's owned buffer and must not be retained past the scope the
// Message itself is valid for without copying.
func (m Message) Payload() []byte { return m.buf[constants.HeaderSize:] }

// Raw returns the full framed buffer, header included.
func (m Message) Raw() []byte { return m.buf }

// ReadLength reads the LENGTH field out of a buffer that has at least
// HeaderSize bytes, without constructing a Message. Used by the parser
// while a frame's body has not fully arrived yet.
func ReadLength(buf []byte) uint32 { return binary.BigEndian.Uint32(buf[4:8]) }

// IndexStartSequence returns the byte offset of the first occurrence of
// START_SEQUENCE in buf, or -1 if none is present.
func IndexStartSequence(buf []byte) int {
	return bytes.Index(buf, startSeqBytes[:])
}
