package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLayout(t *testing.T) {
	msg := New([]byte("this is a test message"), TypeRequest, 7)
	raw := msg.Raw()

	require.Len(t, raw, 11+len("this is a test message"))
	assert.Equal(t, uint32(0xF000000F), uint32(raw[0])<<24|uint32(raw[1])<<16|uint32(raw[2])<<8|uint32(raw[3]))
	assert.Equal(t, uint32(len("this is a test message")), msg.Length())
	assert.Equal(t, uint16(7), msg.ID())
	assert.Equal(t, TypeRequest, msg.Type())
	assert.Equal(t, "this is a test message", string(msg.Payload()))
}

func TestNewZeroPayload(t *testing.T) {
	msg := New(nil, TypePing, 42)
	assert.Equal(t, uint32(0), msg.Length())
	assert.Empty(t, msg.Payload())
	assert.Len(t, msg.Raw(), 11)
}

func TestRoundTrip(t *testing.T) {
	for _, tc := range []struct {
		name    string
		payload []byte
		typ     Type
		id      uint16
	}{
		{"request", []byte("hello"), TypeRequest, 1},
		{"reply", []byte("world"), TypeReply, 65535},
		{"error", []byte("boom"), TypeError, 0},
		{"ping-empty", nil, TypePing, 12345},
	} {
		t.Run(tc.name, func(t *testing.T) {
			created := New(tc.payload, tc.typ, tc.id)
			parsed := View(created.Raw())

			assert.Equal(t, tc.typ, parsed.Type())
			assert.Equal(t, tc.id, parsed.ID())
			assert.Equal(t, string(tc.payload), string(parsed.Payload()))
		})
	}
}

func TestTypeString(t *testing.T) {
	assert.Equal(t, "REQUEST", TypeRequest.String())
	assert.Equal(t, "PING", TypePing.String())
	assert.Equal(t, "REPLY", TypeReply.String())
	assert.Equal(t, "ERROR", TypeError.String())
	assert.Contains(t, Type(0x42).String(), "UNKNOWN")
}

func TestIndexStartSequence(t *testing.T) {
	assert.Equal(t, -1, IndexStartSequence([]byte{0x00, 0xCC, 0x07, 0xC9}))

	msg := New([]byte("x"), TypeRequest, 1)
	buf := append([]byte{0xAA, 0xBB}, msg.Raw()...)
	assert.Equal(t, 2, IndexStartSequence(buf))
}
