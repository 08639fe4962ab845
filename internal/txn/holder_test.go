package txn

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-serialio/serialio/internal/wire"
)

func timeoutErr(uint16) error { return errors.New("timed out") }

func TestRegisterResolve(t *testing.T) {
	h := NewHolder()
	id, done := h.Register(time.Second, timeoutErr)

	reply := wire.New([]byte("ok"), wire.TypeReply, id)
	h.Resolve(id, reply)

	result := <-done
	require.NoError(t, result.Err)
	assert.Equal(t, "ok", string(result.Message.Payload()))
	assert.Equal(t, 0, h.Len())
}

func TestRegisterTimeout(t *testing.T) {
	h := NewHolder()
	_, done := h.Register(10*time.Millisecond, timeoutErr)

	result := <-done
	assert.Error(t, result.Err)
	assert.Equal(t, 0, h.Len())
}

func TestResolveAfterTimeoutIsNoOp(t *testing.T) {
	h := NewHolder()
	id, done := h.Register(5*time.Millisecond, timeoutErr)

	result := <-done
	assert.Error(t, result.Err)

	// A late reply for an id that already timed out and was reaped must
	// not panic on a closed channel nor resolve anything.
	assert.NotPanics(t, func() {
		h.Resolve(id, wire.New(nil, wire.TypeReply, id))
	})
}

func TestUnknownIDResolveIsNoOp(t *testing.T) {
	h := NewHolder()
	assert.NotPanics(t, func() {
		h.Resolve(999, wire.New(nil, wire.TypeReply, 999))
	})
}

func TestIDsDoNotCollideWhileInFlight(t *testing.T) {
	h := NewHolder()
	seen := make(map[uint16]bool)
	for i := 0; i < 10; i++ {
		id, _ := h.Register(time.Minute, timeoutErr)
		require.False(t, seen[id], "id %d reused while still pending", id)
		seen[id] = true
	}
	assert.Equal(t, 10, h.Len())
}

func TestCancelStopsTimerAndFreesSlot(t *testing.T) {
	h := NewHolder()
	id, _ := h.Register(time.Minute, timeoutErr)
	h.Cancel(id)
	assert.Equal(t, 0, h.Len())

	// A reply arriving after Cancel must be silently ignored.
	assert.NotPanics(t, func() {
		h.Resolve(id, wire.New(nil, wire.TypeReply, id))
	})
}

func TestFailAll(t *testing.T) {
	h := NewHolder()
	_, d1 := h.Register(time.Minute, timeoutErr)
	_, d2 := h.Register(time.Minute, timeoutErr)

	boom := errors.New("transport closed")
	h.FailAll(boom)

	r1 := <-d1
	r2 := <-d2
	assert.Equal(t, boom, r1.Err)
	assert.Equal(t, boom, r2.Err)
	assert.Equal(t, 0, h.Len())
}

func TestRegisterForID(t *testing.T) {
	h := NewHolder()
	done, err := h.RegisterForID(42, time.Second, timeoutErr)
	require.NoError(t, err)

	h.Resolve(42, wire.New([]byte("ok"), wire.TypeReply, 42))
	result := <-done
	assert.Equal(t, "ok", string(result.Message.Payload()))
}

func TestRegisterForIDRejectsInFlightDuplicate(t *testing.T) {
	h := NewHolder()
	_, err := h.RegisterForID(42, time.Minute, timeoutErr)
	require.NoError(t, err)

	_, err = h.RegisterForID(42, time.Minute, timeoutErr)
	assert.ErrorIs(t, err, ErrIDInFlight)
}

func TestFail(t *testing.T) {
	h := NewHolder()
	id, done := h.Register(time.Minute, timeoutErr)

	boom := errors.New("write failed")
	h.Fail(id, boom)

	result := <-done
	assert.Equal(t, boom, result.Err)
}
