package serialio

import (
	"context"
	"time"

	"github.com/go-serialio/serialio/internal/txn"
	"github.com/go-serialio/serialio/internal/wire"
)

// SendRequest frames data as a REQUEST, sends it, and blocks until a
// matching REPLY or ERROR arrives, the default timeout elapses, or ctx is
// canceled.
func (s *SerialIO) SendRequest(ctx context.Context, data []byte) (wire.Message, error) {
	return s.request(ctx, data, wire.TypeRequest, s.timeout)
}

// Ping sends a PING and blocks until the matching REPLY arrives, the
// ping timeout elapses, or ctx is canceled. A successful Ping proves the
// remote end is alive and its write queue is draining.
func (s *SerialIO) Ping(ctx context.Context) (wire.Message, error) {
	return s.request(ctx, nil, wire.TypePing, s.pingTimeout)
}

// Send is the general form of SendRequest/Ping: it sends a caller-built
// Message, correlating on msg's own id rather than allocating a fresh
// one, and waits up to timeout for a reply. It is the escape hatch for
// callers that need a Type other than REQUEST or PING, or that need to
// control the id themselves (e.g. resuming a transaction across a
// process restart).
//
// A REPLY-typed msg is a special case: REPLY frames are fire-and-forget
// (nothing on the wire ever replies to a reply), so Send writes it and
// resolves with msg itself immediately instead of registering a
// transaction and waiting.
func (s *SerialIO) Send(ctx context.Context, msg wire.Message, timeout time.Duration) (wire.Message, error) {
	if !s.IsOpen() {
		return wire.Message{}, ErrNotOpen
	}

	if msg.Type() == wire.TypeReply {
		if err := s.sendInParts(ctx, msg.Raw()); err != nil {
			return wire.Message{}, err
		}
		return msg, nil
	}

	id := msg.ID()
	done, err := s.holder.RegisterForID(id, timeout, func(id uint16) error {
		s.metrics.RecordTransactionTimedOut()
		return &TimeoutError{ID: id}
	})
	if err != nil {
		return wire.Message{}, err
	}
	s.metrics.RecordTransactionSent()

	return s.awaitReply(ctx, id, msg.Raw(), done)
}

func (s *SerialIO) request(ctx context.Context, data []byte, typ wire.Type, timeout time.Duration) (wire.Message, error) {
	if !s.IsOpen() {
		return wire.Message{}, ErrNotOpen
	}

	id, done := s.holder.Register(timeout, func(id uint16) error {
		s.metrics.RecordTransactionTimedOut()
		return &TimeoutError{ID: id}
	})
	s.metrics.RecordTransactionSent()

	msg := wire.New(data, typ, id)
	return s.awaitReply(ctx, id, msg.Raw(), done)
}

// awaitReply hands raw to the write queue and blocks on done for the
// matching reply, translating a timed-out or ERROR-typed result into
// the appropriate error.
func (s *SerialIO) awaitReply(ctx context.Context, id uint16, raw []byte, done <-chan txn.Result) (wire.Message, error) {
	if err := s.sendInParts(ctx, raw); err != nil {
		s.holder.Cancel(id)
		return wire.Message{}, err
	}

	select {
	case result := <-done:
		if result.Err != nil {
			return wire.Message{}, result.Err
		}
		if result.Message.Type() == wire.TypeError {
			s.metrics.RecordTransactionFailed()
			return wire.Message{}, &RemoteError{ID: id, Message: string(result.Message.Payload())}
		}
		return result.Message, nil
	case <-ctx.Done():
		s.holder.Cancel(id)
		return wire.Message{}, ctx.Err()
	}
}

// SendReply frames data as a REPLY for transaction id and enqueues it.
// It does not wait for acknowledgment; REPLY frames are not themselves
// correlated to anything.
func (s *SerialIO) SendReply(id uint16, data []byte) error {
	msg := wire.New(data, wire.TypeReply, id)
	return s.sendInParts(context.Background(), msg.Raw())
}

// SendErrorReply frames cause's message as an ERROR for transaction id
// and enqueues it.
func (s *SerialIO) SendErrorReply(id uint16, cause error) error {
	var text string
	if cause != nil {
		text = cause.Error()
	}
	msg := wire.New([]byte(text), wire.TypeError, id)
	return s.sendInParts(context.Background(), msg.Raw())
}

// sendInParts hands one full frame to the write queue as a single job.
// The queue itself splits it into s.chunkSize pieces internally (see
// sendqueue.Queue.WithChunkSize) and drains after each one, so the frame
// is never interleaved on the wire with a concurrently submitted frame
// regardless of size, and no single write can outrun what the transport
// can absorb before the next chunk lands.
func (s *SerialIO) sendInParts(ctx context.Context, raw []byte) error {
	s.mu.RLock()
	q := s.queue
	s.mu.RUnlock()

	if q == nil {
		return ErrNotOpen
	}

	if err := q.Submit(ctx, raw); err != nil {
		return &TransportError{Op: "write", Err: err}
	}
	return nil
}
