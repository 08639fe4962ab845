package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-serialio/serialio/internal/wire"
)

func collect(msgs *[]wire.Message) Handler {
	return func(m wire.Message) { *msgs = append(*msgs, m) }
}

func TestParseData_SingleFrame(t *testing.T) {
	var got []wire.Message
	p := New(collect(&got))

	msg := wire.New([]byte("hello"), wire.TypeRequest, 1)
	p.ParseData(msg.Raw())

	require.Len(t, got, 1)
	assert.Equal(t, "hello", string(got[0].Payload()))
	assert.Equal(t, uint16(1), got[0].ID())
}

func TestParseData_BatchedFrames(t *testing.T) {
	var got []wire.Message
	p := New(collect(&got))

	a := wire.New([]byte("first"), wire.TypeRequest, 1)
	b := wire.New([]byte("second"), wire.TypeReply, 2)
	combined := append(append([]byte{}, a.Raw()...), b.Raw()...)

	p.ParseData(combined)

	require.Len(t, got, 2)
	assert.Equal(t, "first", string(got[0].Payload()))
	assert.Equal(t, "second", string(got[1].Payload()))
}

func TestParseData_ByteAtATime(t *testing.T) {
	var got []wire.Message
	p := New(collect(&got))

	msg := wire.New([]byte("split me across writes"), wire.TypeRequest, 9)
	raw := msg.Raw()

	for i := 0; i < len(raw); i++ {
		p.ParseData(raw[i : i+1])
	}

	require.Len(t, got, 1)
	assert.Equal(t, "split me across writes", string(got[0].Payload()))
}

func TestParseData_LeadingGarbageDiscarded(t *testing.T) {
	var got []wire.Message
	p := New(collect(&got))

	msg := wire.New([]byte("payload"), wire.TypeRequest, 3)
	noise := []byte{0x01, 0x02, 0x03, 0xFF, 0xEE}
	p.ParseData(append(noise, msg.Raw()...))

	require.Len(t, got, 1)
	assert.Equal(t, "payload", string(got[0].Payload()))
}

func TestParseData_GarbageKeepsPossibleMagicTail(t *testing.T) {
	var got []wire.Message
	p := New(collect(&got))

	// Feed a start sequence split across two chunks with noise before it:
	// the first 3 bytes of START_SEQUENCE arrive at the tail of a garbage
	// chunk and must survive to be joined with the 4th byte next chunk.
	// The garbage chunk is long enough (13 bytes) that the parser runs its
	// discard step on it rather than just waiting for a full header.
	full := wire.StartSequenceBytes()
	noise := []byte{0x11, 0x22, 0x33, 0x44, 0x55, 0x66, 0x77, 0x88, 0x99, 0xAA}
	p.ParseData(append(noise, full[:3]...))
	p.ParseData(full[3:])

	msg := wire.New([]byte("x"), wire.TypePing, 1)
	// finish the header+payload for the frame we just opened
	p.ParseData(msg.Raw()[4:])

	require.Len(t, got, 1)
	assert.Equal(t, "x", string(got[0].Payload()))
}

func TestParseData_AbortedPartialFrame(t *testing.T) {
	var got []wire.Message
	p := New(collect(&got))

	abandoned := wire.New([]byte("this will never complete, truncated"), wire.TypeRequest, 1)
	good := wire.New([]byte("real"), wire.TypeReply, 2)

	// Send only the header plus a few bytes of the abandoned frame's
	// payload, then a brand-new start sequence arrives before the
	// abandoned frame's declared length is satisfied.
	partial := abandoned.Raw()[:15]
	p.ParseData(partial)
	p.ParseData(good.Raw())

	require.Len(t, got, 1)
	assert.Equal(t, "real", string(got[0].Payload()))
	assert.Equal(t, uint16(2), got[0].ID())
}

func TestParseData_EmptyChunkNoOp(t *testing.T) {
	var got []wire.Message
	p := New(collect(&got))
	p.ParseData(nil)
	assert.Empty(t, got)
}

func TestParseData_HandlerPanicRecovered(t *testing.T) {
	var reported error
	p := New(func(wire.Message) {
		panic("boom")
	}, WithErrorHandler(func(err error) { reported = err }))

	msg := wire.New([]byte("x"), wire.TypeRequest, 1)
	assert.NotPanics(t, func() { p.ParseData(msg.Raw()) })
	require.Error(t, reported)
	assert.Contains(t, reported.Error(), "boom")
}

func TestReset(t *testing.T) {
	var got []wire.Message
	p := New(collect(&got))

	msg := wire.New([]byte("hello"), wire.TypeRequest, 1)
	raw := msg.Raw()
	p.ParseData(raw[:5])
	p.Reset()
	p.ParseData(raw)

	require.Len(t, got, 1)
}
