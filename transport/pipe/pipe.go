// Package pipe implements an in-memory paired serialio.Transport, used
// to exercise the engine end to end without a real serial port: each
// side's Write delivers an EventData to the other side.
package pipe

import (
	"errors"
	"sync"

	"github.com/go-serialio/serialio"
)

// New returns two Transports wired to each other. Writing to a delivers
// an EventData on b's Events channel, and vice versa.
func New() (a, b *Pipe) {
	toB := make(chan serialio.Event, 64)
	toA := make(chan serialio.Event, 64)

	a = &Pipe{send: toB, recv: toA}
	b = &Pipe{send: toA, recv: toB}
	return a, b
}

// Pipe is one end of an in-memory transport pair.
type Pipe struct {
	mu       sync.Mutex
	open     bool
	writeErr error // when set, Write fails with this error instead of delivering

	send chan<- serialio.Event // delivers to the peer
	recv chan serialio.Event   // this end's own inbound stream, read by Events()
}

// Open marks the pipe open. Calling Open again without a Close in
// between returns an error, matching the real transport's behavior.
func (p *Pipe) Open() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.open {
		return errors.New("pipe: already open")
	}
	p.open = true
	return nil
}

// Close marks the pipe closed. It does not close the underlying
// channels, since the peer half created alongside it by New may still
// be open and sending.
func (p *Pipe) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.open {
		return nil
	}
	p.open = false
	return nil
}

func (p *Pipe) IsOpen() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.open
}

// Write delivers data to the peer as an EventData, unless FailWrites has
// set an error to return instead.
func (p *Pipe) Write(data []byte) (int, error) {
	p.mu.Lock()
	open := p.open
	err := p.writeErr
	p.mu.Unlock()

	if !open {
		return 0, errors.New("pipe: not open")
	}
	if err != nil {
		return 0, err
	}

	cp := make([]byte, len(data))
	copy(cp, data)
	p.send <- serialio.Event{Kind: serialio.EventData, Data: cp}
	return len(data), nil
}

// Drain is a no-op: writes are delivered synchronously to the channel.
func (p *Pipe) Drain() error { return nil }

// Events returns this end's own inbound event stream.
func (p *Pipe) Events() <-chan serialio.Event { return p.recv }

// FailWrites makes subsequent Write calls return err instead of
// delivering data, simulating a transport-level write failure. Passing
// nil restores normal delivery.
func (p *Pipe) FailWrites(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.writeErr = err
}

// InjectClose pushes an EventClose onto this end's own inbound stream,
// simulating an unsolicited close reported by the underlying transport
// (as opposed to Close, which is the engine asking the transport to shut
// down).
func (p *Pipe) InjectClose(err error) {
	p.mu.Lock()
	p.open = false
	p.mu.Unlock()
	p.recv <- serialio.Event{Kind: serialio.EventClose, Err: err}
}

// InjectError pushes an EventError onto this end's own inbound stream.
func (p *Pipe) InjectError(err error) {
	p.recv <- serialio.Event{Kind: serialio.EventError, Err: err}
}
