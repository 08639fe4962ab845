// Package parser implements the incremental framing parser: it consumes
// arbitrary byte chunks, extracts well-formed Messages, discards garbage,
// and resynchronizes on a fresh start sequence when a partial frame is
// abandoned.
//
// A Parser is owned by a single goroutine. It carries no internal
// synchronization, matching the spec's invariant that ParserState is
// "owned exclusively by a single DataParser instance... never observed
// from another thread."
package parser

import (
	"fmt"

	"github.com/go-serialio/serialio/internal/constants"
	"github.com/go-serialio/serialio/internal/wire"
)

// Handler receives one fully parsed message. It is called synchronously
// from within ParseData; a panicking handler is recovered and reported
// through the configured error handler instead of propagating.
type Handler func(wire.Message)

// ErrorHandler receives background errors the parser would otherwise
// swallow (currently: panics raised by Handler).
type ErrorHandler func(error)

// Option configures a Parser at construction time.
type Option func(*Parser)

// WithErrorHandler installs a callback invoked for errors the parser
// recovers from internally. Without one, such errors are dropped.
func WithErrorHandler(h ErrorHandler) Option {
	return func(p *Parser) { p.onError = h }
}

// Parser is the stateful, incremental frame extractor described in
// spec.md §4.2.
type Parser struct {
	buf     []byte
	pending bool

	handler Handler
	onError ErrorHandler
}

// New returns a Parser that invokes handler for each message it extracts.
func New(handler Handler, opts ...Option) *Parser {
	p := &Parser{handler: handler}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ParseData appends chunk to the parser's internal buffer and extracts as
// many complete messages as are now available. It is the sole mutator of
// parser state.
func (p *Parser) ParseData(chunk []byte) {
	if len(chunk) > 0 {
		p.buf = append(p.buf, chunk...)
	}

	for {
		if len(p.buf) < constants.HeaderSize {
			return
		}

		if !p.pending {
			idx := wire.IndexStartSequence(p.buf)
			if idx < 0 {
				p.dropGarbageKeepingTail()
				return
			}
			if idx > 0 {
				p.buf = p.buf[idx:]
			}
			p.pending = true
			continue
		}

		length := wire.ReadLength(p.buf)
		rawSize := constants.HeaderSize + int(length)

		if abortAt, found := nextStartSequence(p.buf); found && abortAt < rawSize {
			// A fresh start sequence arrived before the current frame's
			// body completed: the partial frame is dropped silently and
			// parsing resumes from the new start.
			p.buf = p.buf[abortAt:]
			p.pending = false
			continue
		}

		if len(p.buf) < rawSize {
			return
		}

		frame := make([]byte, rawSize)
		copy(frame, p.buf[:rawSize])
		p.buf = p.buf[rawSize:]
		p.pending = false

		p.deliver(wire.View(frame))
	}
}

// dropGarbageKeepingTail implements "discard all but the last
// len(START_SEQUENCE)-1 bytes" — those bytes might be a split magic
// prefix that completes once more data arrives.
func (p *Parser) dropGarbageKeepingTail() {
	keep := constants.StartSequenceLen - 1
	if len(p.buf) > keep {
		tail := make([]byte, keep)
		copy(tail, p.buf[len(p.buf)-keep:])
		p.buf = tail
	}
}

// nextStartSequence scans p.buf[4:] (skipping the current frame's own
// start sequence at offset 0) for another START_SEQUENCE, returning its
// absolute offset within p.buf.
func nextStartSequence(buf []byte) (offset int, found bool) {
	idx := wire.IndexStartSequence(buf[constants.StartSequenceLen:])
	if idx < 0 {
		return 0, false
	}
	return idx + constants.StartSequenceLen, true
}

// deliver invokes the handler, recovering and reporting any panic instead
// of letting it escape ParseData.
func (p *Parser) deliver(msg wire.Message) {
	defer func() {
		if r := recover(); r != nil {
			p.reportError(fmt.Errorf("parser: message handler panicked: %v", r))
		}
	}()
	if p.handler != nil {
		p.handler(msg)
	}
}

func (p *Parser) reportError(err error) {
	if p.onError != nil {
		p.onError(err)
	}
}

// Reset clears all buffered state, discarding any partial frame. It is
// not used by the engine in normal operation but is useful for tests and
// for callers that want to recover from a known-bad stream position.
func (p *Parser) Reset() {
	p.buf = nil
	p.pending = false
}
